package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertCustomer(t *testing.T, db *AppDB, name, email string) customerdomain.Customer {
	t.Helper()
	c := db.InsertCustomer(customerdomain.Customer{Name: name, Email: email})
	require.Positive(t, c.ID)
	return c
}

func TestInsertCustomerAssignsIDsAndBindsChildren(t *testing.T) {
	db := New()

	created := db.InsertCustomer(customerdomain.Customer{
		ID:    999,
		Name:  "Acme",
		Email: "ops@acme.test",
		Invoices: []invoicedomain.Invoice{
			{ID: 77, InvoiceNumber: "INV-A", CustomerID: 42, Amount: decimal.NewFromInt(10)},
			{InvoiceNumber: "INV-B", Amount: decimal.RequireFromString("2.50")},
		},
		PhoneNumbers: []phonedomain.PhoneNumber{
			{ID: 5, Type: phonedomain.TypeMobile, Number: "555-0100"},
		},
	})

	assert.Equal(t, int64(1), created.ID)
	require.Len(t, created.Invoices, 2)
	assert.Equal(t, int64(1), created.Invoices[0].ID)
	assert.Equal(t, int64(2), created.Invoices[1].ID)
	for _, inv := range created.Invoices {
		assert.Equal(t, created.ID, inv.CustomerID)
	}
	require.Len(t, created.PhoneNumbers, 1)
	assert.Equal(t, int64(1), created.PhoneNumbers[0].ID)
	assert.Equal(t, created.ID, created.PhoneNumbers[0].CustomerID)
	assert.True(t, decimal.RequireFromString("12.50").Equal(created.Balance))
}

func TestInvoiceIDsAreGlobalAndMonotonic(t *testing.T) {
	db := New()
	a := insertCustomer(t, db, "A", "a@test")
	b := insertCustomer(t, db, "B", "b@test")

	var last int64
	for i := 0; i < 20; i++ {
		owner := a.ID
		if i%3 == 0 {
			owner = b.ID
		}
		inv, err := db.InsertInvoice(invoicedomain.Invoice{
			InvoiceNumber: fmt.Sprintf("INV-%d", i),
			CustomerID:    owner,
		})
		require.NoError(t, err)
		assert.Greater(t, inv.ID, last)
		last = inv.ID

		if i == 10 {
			require.True(t, db.DeleteInvoice(inv.ID))
		}
	}

	next, err := db.InsertInvoice(invoicedomain.Invoice{InvoiceNumber: "INV-next", CustomerID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, last+1, next.ID)
}

func TestPhoneNumberIDsAreGlobalAndMonotonic(t *testing.T) {
	db := New()
	a := insertCustomer(t, db, "A", "a@test")
	b := insertCustomer(t, db, "B", "b@test")

	seen := map[int64]bool{}
	var last int64
	for i := 0; i < 10; i++ {
		owner := a.ID
		if i%2 == 1 {
			owner = b.ID
		}
		p, err := db.InsertPhoneNumberWithAutoID(phonedomain.PhoneNumber{CustomerID: owner, Type: phonedomain.TypeWork})
		require.NoError(t, err)
		assert.False(t, seen[p.ID])
		assert.Greater(t, p.ID, last)
		seen[p.ID] = true
		last = p.ID
	}
}

func TestConcurrentInsertsNeverShareAnID(t *testing.T) {
	db := New()
	owner := insertCustomer(t, db, "A", "a@test")

	const workers, perWorker = 8, 50
	ids := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				inv, err := db.InsertInvoice(invoicedomain.Invoice{
					InvoiceNumber: fmt.Sprintf("INV-%d-%d", w, i),
					CustomerID:    owner.ID,
				})
				if err == nil {
					ids <- inv.ID
				}
			}
		}(w)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Len(t, db.ListInvoicesByCustomer(owner.ID), workers*perWorker)
}

func TestDeleteCustomerCascades(t *testing.T) {
	db := New()
	keep := insertCustomer(t, db, "Keep", "keep@test")
	gone := db.InsertCustomer(customerdomain.Customer{
		Name:         "Gone",
		Invoices:     []invoicedomain.Invoice{{InvoiceNumber: "INV-1"}, {InvoiceNumber: "INV-2"}},
		PhoneNumbers: []phonedomain.PhoneNumber{{Type: phonedomain.TypeMobile}},
	})
	_, err := db.InsertInvoice(invoicedomain.Invoice{InvoiceNumber: "INV-3", CustomerID: keep.ID})
	require.NoError(t, err)

	require.True(t, db.DeleteCustomer(gone.ID))

	_, found := db.FindCustomer(gone.ID)
	assert.False(t, found)
	assert.Empty(t, db.ListInvoicesByCustomer(gone.ID))
	assert.Empty(t, db.ListPhoneNumbersByCustomer(gone.ID))
	assert.Len(t, db.ListInvoicesByCustomer(keep.ID), 1)

	assert.False(t, db.DeleteCustomer(gone.ID))
	assert.Equal(t, Counts{Customers: 1, Invoices: 1}, db.Counts())
}

func TestDuplicateDetection(t *testing.T) {
	db := New()
	acme := insertCustomer(t, db, "ACME", "sales@acme.test")

	cases := []struct {
		name      string
		inName    string
		inEmail   string
		excludeID int64
		want      []string
	}{
		{name: "name case-insensitive", inName: "Acme", want: []string{"name"}},
		{name: "name trimmed", inName: "  acme  ", want: []string{"name"}},
		{name: "email", inName: "Other", inEmail: "SALES@acme.test", want: []string{"email"}},
		{name: "both", inName: "acme", inEmail: "sales@acme.test", want: []string{"name", "email"}},
		{name: "distinct", inName: "Acme2", inEmail: "hello@acme2.test"},
		{name: "blank never matches", inName: " ", inEmail: ""},
		{name: "self excluded", inName: "ACME", inEmail: "sales@acme.test", excludeID: acme.ID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields, existing := db.DuplicateFields(tc.inName, tc.inEmail, tc.excludeID)
			assert.Equal(t, tc.want, fields)
			assert.Equal(t, len(tc.want) > 0, db.IsDuplicateCustomer(tc.inName, tc.inEmail, tc.excludeID))
			if len(tc.want) > 0 {
				assert.Equal(t, acme.ID, existing)
			}
		})
	}
}

func TestFindCustomerByNameAndEmail(t *testing.T) {
	db := New()
	created := insertCustomer(t, db, "Globex", "info@globex.test")

	got, ok := db.FindCustomerByName(" GLOBEX ")
	require.True(t, ok)
	assert.Equal(t, created.ID, got.ID)

	got, ok = db.FindCustomerByEmail("INFO@globex.test")
	require.True(t, ok)
	assert.Equal(t, created.ID, got.ID)

	_, ok = db.FindCustomerByName("")
	assert.False(t, ok)
}

func TestUpdateCustomerTouchesNameAndEmailOnly(t *testing.T) {
	db := New()
	created := db.InsertCustomer(customerdomain.Customer{
		Name:     "Old",
		Email:    "old@test",
		Invoices: []invoicedomain.Invoice{{InvoiceNumber: "INV-1", Amount: decimal.NewFromInt(3)}},
	})

	ok := db.UpdateCustomer(created.ID, customerdomain.Customer{
		ID:       12345,
		Name:     "New",
		Email:    "new@test",
		Invoices: []invoicedomain.Invoice{},
	})
	require.True(t, ok)

	got, _ := db.FindCustomer(created.ID)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "new@test", got.Email)
	assert.Len(t, got.Invoices, 1)
	assert.False(t, db.UpdateCustomer(404, customerdomain.Customer{Name: "x"}))
}

func TestListCustomersReturnsCopies(t *testing.T) {
	db := New()
	db.InsertCustomer(customerdomain.Customer{
		Name:     "A",
		Invoices: []invoicedomain.Invoice{{InvoiceNumber: "INV-1"}},
	})

	list := db.ListCustomers()
	require.Len(t, list, 1)
	list[0].Name = "mutated"
	list[0].Invoices[0].InvoiceNumber = "mutated"
	list[0].Invoices = append(list[0].Invoices, invoicedomain.Invoice{InvoiceNumber: "INV-x"})

	fresh := db.ListCustomers()
	assert.Equal(t, "A", fresh[0].Name)
	require.Len(t, fresh[0].Invoices, 1)
	assert.Equal(t, "INV-1", fresh[0].Invoices[0].InvoiceNumber)
}

func TestInsertInvoiceRejectsInvalidInput(t *testing.T) {
	db := New()

	_, err := db.InsertInvoice(invoicedomain.Invoice{InvoiceNumber: "INV-1"})
	assert.ErrorIs(t, err, ErrInvalidCustomerID)

	_, err = db.InsertInvoice(invoicedomain.Invoice{CustomerID: 1, InvoiceNumber: "  "})
	assert.ErrorIs(t, err, ErrInvoiceNumberRequired)

	_, err = db.InsertPhoneNumberWithAutoID(phonedomain.PhoneNumber{CustomerID: -1})
	assert.ErrorIs(t, err, ErrInvalidCustomerID)
}

func TestDeleteByCustomerSucceedsWithoutMatches(t *testing.T) {
	db := New()

	assert.True(t, db.DeleteInvoicesByCustomer(7))
	assert.True(t, db.DeletePhoneNumbersByCustomer(7))
	assert.False(t, db.DeleteInvoicesByCustomer(0))
	assert.False(t, db.DeletePhoneNumbersByCustomer(-3))
}

func TestDeleteInvoiceByNumber(t *testing.T) {
	db := New()
	c := insertCustomer(t, db, "A", "")
	inv, err := db.InsertInvoice(invoicedomain.Invoice{InvoiceNumber: "INV-9", CustomerID: c.ID, InvoiceDate: time.Now()})
	require.NoError(t, err)

	found, ok := db.FindInvoiceByNumber("INV-9")
	require.True(t, ok)
	assert.Equal(t, inv.ID, found.ID)

	owner, taken := db.InvoiceNumberExists("INV-9")
	assert.True(t, taken)
	assert.Equal(t, c.ID, owner)

	assert.True(t, db.DeleteInvoiceByNumber("INV-9"))
	assert.False(t, db.DeleteInvoiceByNumber("INV-9"))
	_, ok = db.FindInvoice(inv.ID)
	assert.False(t, ok)
}

func TestLoadMovesCountersPastExistingIDs(t *testing.T) {
	db := New()
	db.Load([]customerdomain.Customer{
		{
			ID:           3,
			Name:         "Seeded",
			Invoices:     []invoicedomain.Invoice{{ID: 10, InvoiceNumber: "INV-10"}},
			PhoneNumbers: []phonedomain.PhoneNumber{{ID: 4, Type: phonedomain.TypeWork}},
		},
		{ID: 8, Name: "Seeded 2"},
	})

	c := insertCustomer(t, db, "Fresh", "")
	assert.Equal(t, int64(9), c.ID)

	inv, err := db.InsertInvoice(invoicedomain.Invoice{InvoiceNumber: "INV-11", CustomerID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(11), inv.ID)

	p, err := db.InsertPhoneNumberWithAutoID(phonedomain.PhoneNumber{CustomerID: c.ID, Type: phonedomain.TypeMobile})
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)

	loaded, ok := db.FindCustomer(3)
	require.True(t, ok)
	assert.Equal(t, int64(3), loaded.Invoices[0].CustomerID)
}

func TestConcurrentCreateCustomerAdmitsOneOfSameName(t *testing.T) {
	db := New()

	const workers = 16
	start := make(chan struct{})
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			<-start
			_, err := db.CreateCustomer(customerdomain.Customer{
				Name:  "Acme",
				Email: fmt.Sprintf("acme-%d@test", w),
			})
			errs <- err
		}(w)
	}
	close(start)
	wg.Wait()
	close(errs)

	var created, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, customerdomain.ErrDuplicate):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, duplicates)
	assert.Equal(t, 1, db.Counts().Customers)
}

func TestConcurrentInvoiceNumberClaimsAdmitOne(t *testing.T) {
	db := New()
	a := insertCustomer(t, db, "A", "a@test")
	b := insertCustomer(t, db, "B", "b@test")

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		owner := a.ID
		if w%2 == 1 {
			owner = b.ID
		}
		go func() {
			defer wg.Done()
			<-start
			_, _ = db.InsertInvoiceChecked(invoicedomain.Invoice{InvoiceNumber: "INV-RACE", CustomerID: owner})
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, db.Counts().Invoices)
}

func TestChildInsertsNeverOutliveCascadeDelete(t *testing.T) {
	for round := 0; round < 20; round++ {
		db := New()
		owner := insertCustomer(t, db, "Owner", "owner@test")

		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				<-start
				_, err := db.InsertInvoiceChecked(invoicedomain.Invoice{
					InvoiceNumber: fmt.Sprintf("INV-%d-%d", round, i),
					CustomerID:    owner.ID,
				})
				if err != nil {
					assert.ErrorIs(t, err, invoicedomain.ErrCustomerNotFound)
				}
			}(i)
			go func() {
				defer wg.Done()
				<-start
				_, err := db.InsertPhoneNumberChecked(phonedomain.PhoneNumber{CustomerID: owner.ID, Type: phonedomain.TypeMobile})
				if err != nil {
					assert.ErrorIs(t, err, phonedomain.ErrCustomerNotFound)
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			db.DeleteCustomer(owner.ID)
		}()
		close(start)
		wg.Wait()

		assert.Empty(t, db.ListInvoices(), "round %d left orphaned invoices", round)
		assert.Empty(t, db.ListPhoneNumbers(), "round %d left orphaned phone numbers", round)
	}
}

func TestCheckedInsertsReportDomainErrors(t *testing.T) {
	db := New()
	owner := insertCustomer(t, db, "Owner", "owner@test")

	_, err := db.InsertInvoiceChecked(invoicedomain.Invoice{InvoiceNumber: "INV-1", CustomerID: owner.ID + 1})
	assert.ErrorIs(t, err, invoicedomain.ErrCustomerNotFound)

	_, err = db.InsertInvoiceChecked(invoicedomain.Invoice{InvoiceNumber: "INV-1", CustomerID: owner.ID})
	require.NoError(t, err)
	_, err = db.InsertInvoiceChecked(invoicedomain.Invoice{InvoiceNumber: "INV-1", CustomerID: owner.ID})
	var dup *invoicedomain.DuplicateNumberError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, owner.ID, dup.CustomerID)

	_, err = db.InsertPhoneNumberChecked(phonedomain.PhoneNumber{CustomerID: owner.ID + 1, Type: phonedomain.TypeWork})
	assert.ErrorIs(t, err, phonedomain.ErrCustomerNotFound)

	_, err = db.UpdateCustomerChecked(owner.ID+1, customerdomain.Customer{Name: "x"})
	assert.ErrorIs(t, err, customerdomain.ErrNotFound)

	other := insertCustomer(t, db, "Other", "other@test")
	_, err = db.UpdateCustomerChecked(other.ID, customerdomain.Customer{Name: "OWNER", Email: "other@test"})
	var custDup *customerdomain.DuplicateError
	require.ErrorAs(t, err, &custDup)
	assert.Equal(t, []string{"name"}, custDup.Fields)
	assert.Equal(t, owner.ID, custDup.ExistingCustomerID)

	updated, err := db.UpdateCustomerChecked(other.ID, customerdomain.Customer{Name: "Other", Email: "other@test"})
	require.NoError(t, err)
	assert.Equal(t, "Other", updated.Name)
}
