// Package repository holds AppDB, the process-wide in-memory store for
// customers, invoices and phone numbers.
//
// Every collection is guarded by a single RWMutex. ID counters are atomic and
// only move forward, so a deleted ID is never handed out again.
package repository

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
)

var (
	ErrInvalidCustomerID     = errors.New("invalid_customer_id")
	ErrInvoiceNumberRequired = errors.New("invoice_number_required")
)

type customerRecord struct {
	ID    int64
	Name  string
	Email string
}

// Counts is a point-in-time size of each collection.
type Counts struct {
	Customers    int
	Invoices     int
	PhoneNumbers int
}

type AppDB struct {
	mu           sync.RWMutex
	customers    []customerRecord
	invoices     []invoicedomain.Invoice
	phoneNumbers []phonedomain.PhoneNumber

	customerSeq atomic.Int64
	invoiceSeq  atomic.Int64
	phoneSeq    atomic.Int64
}

func New() *AppDB {
	return &AppDB{}
}

// Load bulk-inserts customers that already carry IDs, together with their
// embedded invoices and phone numbers, then moves every counter past the
// highest ID seen. Records with a non-positive ID are skipped.
func (db *AppDB) Load(customers []customerdomain.Customer) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, c := range customers {
		if c.ID <= 0 {
			continue
		}
		db.customers = append(db.customers, customerRecord{ID: c.ID, Name: c.Name, Email: c.Email})
		raise(&db.customerSeq, c.ID)

		for _, inv := range c.Invoices {
			if inv.ID <= 0 {
				continue
			}
			inv.CustomerID = c.ID
			db.invoices = append(db.invoices, inv)
			raise(&db.invoiceSeq, inv.ID)
		}
		for _, p := range c.PhoneNumbers {
			if p.ID <= 0 {
				continue
			}
			p.CustomerID = c.ID
			db.phoneNumbers = append(db.phoneNumbers, p)
			raise(&db.phoneSeq, p.ID)
		}
	}
}

func raise(seq *atomic.Int64, id int64) {
	for {
		current := seq.Load()
		if id <= current || seq.CompareAndSwap(current, id) {
			return
		}
	}
}

func (db *AppDB) Counts() Counts {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return Counts{
		Customers:    len(db.customers),
		Invoices:     len(db.invoices),
		PhoneNumbers: len(db.phoneNumbers),
	}
}

// ---- customers ----

func (db *AppDB) FindCustomer(id int64) (customerdomain.Customer, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	idx := db.customerIndex(id)
	if idx < 0 {
		return customerdomain.Customer{}, false
	}
	return db.hydrate(db.customers[idx]), true
}

// FindCustomerByName matches case-insensitively after trimming. An empty
// name never matches.
func (db *AppDB) FindCustomerByName(name string) (customerdomain.Customer, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	key := normalize(name)
	if key == "" {
		return customerdomain.Customer{}, false
	}
	for _, rec := range db.customers {
		if normalize(rec.Name) == key {
			return db.hydrate(rec), true
		}
	}
	return customerdomain.Customer{}, false
}

func (db *AppDB) FindCustomerByEmail(email string) (customerdomain.Customer, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	key := normalize(email)
	if key == "" {
		return customerdomain.Customer{}, false
	}
	for _, rec := range db.customers {
		if normalize(rec.Email) == key {
			return db.hydrate(rec), true
		}
	}
	return customerdomain.Customer{}, false
}

func (db *AppDB) CustomerExists(id int64) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.customerIndex(id) >= 0
}

// IsDuplicateCustomer reports whether a customer other than excludeID shares
// the name or the email. Blank values are not compared.
func (db *AppDB) IsDuplicateCustomer(name, email string, excludeID int64) bool {
	fields, _ := db.DuplicateFields(name, email, excludeID)
	return len(fields) > 0
}

// DuplicateFields returns which of "name" and "email" collide with another
// customer, in that order, and the ID of the first colliding customer.
func (db *AppDB) DuplicateFields(name, email string, excludeID int64) ([]string, int64) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.duplicateFields(name, email, excludeID)
}

// CreateCustomer runs duplicate detection and inserts under one write lock,
// so two concurrent creates with the same name or email cannot both succeed.
// Embedded invoice numbers must be unique within the request and across the
// store. Errors are *customerdomain.DuplicateError or
// *invoicedomain.DuplicateNumberError.
func (db *AppDB) CreateCustomer(c customerdomain.Customer) (customerdomain.Customer, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if fields, existingID := db.duplicateFields(c.Name, c.Email, 0); len(fields) > 0 {
		return customerdomain.Customer{}, &customerdomain.DuplicateError{Fields: fields, ExistingCustomerID: existingID}
	}

	seen := make(map[string]struct{}, len(c.Invoices))
	for _, inv := range c.Invoices {
		if _, dup := seen[inv.InvoiceNumber]; dup {
			return customerdomain.Customer{}, &invoicedomain.DuplicateNumberError{InvoiceNumber: inv.InvoiceNumber}
		}
		seen[inv.InvoiceNumber] = struct{}{}
		if existing, taken := db.invoiceByNumber(inv.InvoiceNumber); taken {
			return customerdomain.Customer{}, &invoicedomain.DuplicateNumberError{
				InvoiceNumber: inv.InvoiceNumber,
				CustomerID:    existing.CustomerID,
			}
		}
	}

	return db.insertCustomer(c), nil
}

// UpdateCustomerChecked replaces name and email after duplicate detection
// that excludes the customer itself, holding the write lock throughout.
func (db *AppDB) UpdateCustomerChecked(id int64, patch customerdomain.Customer) (customerdomain.Customer, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	idx := db.customerIndex(id)
	if idx < 0 {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	if fields, existingID := db.duplicateFields(patch.Name, patch.Email, id); len(fields) > 0 {
		return customerdomain.Customer{}, &customerdomain.DuplicateError{Fields: fields, ExistingCustomerID: existingID}
	}
	db.customers[idx].Name = patch.Name
	db.customers[idx].Email = patch.Email
	return db.hydrate(db.customers[idx]), nil
}

func (db *AppDB) duplicateFields(name, email string, excludeID int64) ([]string, int64) {
	nameKey, emailKey := normalize(name), normalize(email)
	if nameKey == "" && emailKey == "" {
		return nil, 0
	}

	var (
		nameHit, emailHit bool
		existingID        int64
	)
	for _, rec := range db.customers {
		if rec.ID == excludeID {
			continue
		}
		matched := false
		if nameKey != "" && normalize(rec.Name) == nameKey {
			nameHit, matched = true, true
		}
		if emailKey != "" && normalize(rec.Email) == emailKey {
			emailHit, matched = true, true
		}
		if matched && existingID == 0 {
			existingID = rec.ID
		}
	}

	var fields []string
	if nameHit {
		fields = append(fields, "name")
	}
	if emailHit {
		fields = append(fields, "email")
	}
	return fields, existingID
}

// InsertCustomer ignores any caller-supplied IDs: the customer and each
// embedded invoice and phone number get fresh IDs, and children are bound to
// the new customer.
func (db *AppDB) InsertCustomer(c customerdomain.Customer) customerdomain.Customer {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.insertCustomer(c)
}

func (db *AppDB) insertCustomer(c customerdomain.Customer) customerdomain.Customer {
	rec := customerRecord{
		ID:    db.customerSeq.Add(1),
		Name:  c.Name,
		Email: c.Email,
	}
	db.customers = append(db.customers, rec)

	for _, inv := range c.Invoices {
		inv.ID = db.invoiceSeq.Add(1)
		inv.CustomerID = rec.ID
		db.invoices = append(db.invoices, inv)
	}
	for _, p := range c.PhoneNumbers {
		p.ID = db.phoneSeq.Add(1)
		p.CustomerID = rec.ID
		db.phoneNumbers = append(db.phoneNumbers, p)
	}

	return db.hydrate(rec)
}

// UpdateCustomer replaces name and email only.
func (db *AppDB) UpdateCustomer(id int64, patch customerdomain.Customer) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	idx := db.customerIndex(id)
	if idx < 0 {
		return false
	}
	db.customers[idx].Name = patch.Name
	db.customers[idx].Email = patch.Email
	return true
}

// DeleteCustomer removes the customer and, under the same lock, every invoice
// and phone number that references it.
func (db *AppDB) DeleteCustomer(id int64) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	idx := db.customerIndex(id)
	if idx < 0 {
		return false
	}
	db.customers = append(db.customers[:idx], db.customers[idx+1:]...)
	db.invoices = removeInvoices(db.invoices, func(inv invoicedomain.Invoice) bool { return inv.CustomerID == id })
	db.phoneNumbers = removePhoneNumbers(db.phoneNumbers, func(p phonedomain.PhoneNumber) bool { return p.CustomerID == id })
	return true
}

func (db *AppDB) ListCustomers() []customerdomain.Customer {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]customerdomain.Customer, 0, len(db.customers))
	for _, rec := range db.customers {
		out = append(out, db.hydrate(rec))
	}
	return out
}

// ---- invoices ----

func (db *AppDB) ListInvoices() []invoicedomain.Invoice {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]invoicedomain.Invoice{}, db.invoices...)
}

func (db *AppDB) FindInvoice(id int64) (invoicedomain.Invoice, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, inv := range db.invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return invoicedomain.Invoice{}, false
}

// FindInvoiceByNumber matches the number exactly.
func (db *AppDB) FindInvoiceByNumber(invoiceNumber string) (invoicedomain.Invoice, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.invoiceByNumber(invoiceNumber)
}

func (db *AppDB) invoiceByNumber(invoiceNumber string) (invoicedomain.Invoice, bool) {
	for _, inv := range db.invoices {
		if inv.InvoiceNumber == invoiceNumber {
			return inv, true
		}
	}
	return invoicedomain.Invoice{}, false
}

// InvoiceNumberExists returns the owning customer ID when the number is taken.
func (db *AppDB) InvoiceNumberExists(invoiceNumber string) (int64, bool) {
	inv, ok := db.FindInvoiceByNumber(invoiceNumber)
	return inv.CustomerID, ok
}

func (db *AppDB) ListInvoicesByCustomer(customerID int64) []invoicedomain.Invoice {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.invoicesOf(customerID)
}

// InsertInvoice assigns the next invoice ID. It does not check that the
// customer exists or that the number is unique.
func (db *AppDB) InsertInvoice(inv invoicedomain.Invoice) (invoicedomain.Invoice, error) {
	if inv.CustomerID <= 0 {
		return invoicedomain.Invoice{}, ErrInvalidCustomerID
	}
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return invoicedomain.Invoice{}, ErrInvoiceNumberRequired
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	inv.ID = db.invoiceSeq.Add(1)
	db.invoices = append(db.invoices, inv)
	return inv, nil
}

// InsertInvoiceChecked resolves the owning customer, checks the number is
// free and inserts, all under one write lock, so the invoice cannot outlive
// a concurrent cascade delete of its customer.
func (db *AppDB) InsertInvoiceChecked(inv invoicedomain.Invoice) (invoicedomain.Invoice, error) {
	if inv.CustomerID <= 0 {
		return invoicedomain.Invoice{}, ErrInvalidCustomerID
	}
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return invoicedomain.Invoice{}, ErrInvoiceNumberRequired
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.customerIndex(inv.CustomerID) < 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrCustomerNotFound
	}
	if existing, taken := db.invoiceByNumber(inv.InvoiceNumber); taken {
		return invoicedomain.Invoice{}, &invoicedomain.DuplicateNumberError{
			InvoiceNumber: inv.InvoiceNumber,
			CustomerID:    existing.CustomerID,
		}
	}

	inv.ID = db.invoiceSeq.Add(1)
	db.invoices = append(db.invoices, inv)
	return inv, nil
}

func (db *AppDB) DeleteInvoice(id int64) bool {
	return db.deleteInvoicesWhere(func(inv invoicedomain.Invoice) bool { return inv.ID == id })
}

func (db *AppDB) DeleteInvoiceByNumber(invoiceNumber string) bool {
	if invoiceNumber == "" {
		return false
	}
	return db.deleteInvoicesWhere(func(inv invoicedomain.Invoice) bool { return inv.InvoiceNumber == invoiceNumber })
}

// DeleteInvoicesByCustomer succeeds for any positive customer ID, even when
// nothing matched.
func (db *AppDB) DeleteInvoicesByCustomer(customerID int64) bool {
	if customerID <= 0 {
		return false
	}
	db.deleteInvoicesWhere(func(inv invoicedomain.Invoice) bool { return inv.CustomerID == customerID })
	return true
}

func (db *AppDB) deleteInvoicesWhere(match func(invoicedomain.Invoice) bool) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	before := len(db.invoices)
	db.invoices = removeInvoices(db.invoices, match)
	return len(db.invoices) < before
}

// ---- phone numbers ----

func (db *AppDB) ListPhoneNumbers() []phonedomain.PhoneNumber {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]phonedomain.PhoneNumber{}, db.phoneNumbers...)
}

func (db *AppDB) FindPhoneNumber(id int64) (phonedomain.PhoneNumber, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, p := range db.phoneNumbers {
		if p.ID == id {
			return p, true
		}
	}
	return phonedomain.PhoneNumber{}, false
}

func (db *AppDB) ListPhoneNumbersByCustomer(customerID int64) []phonedomain.PhoneNumber {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.phoneNumbersOf(customerID)
}

// InsertPhoneNumberWithAutoID assigns the next phone number ID. The type is
// validated by the caller.
func (db *AppDB) InsertPhoneNumberWithAutoID(p phonedomain.PhoneNumber) (phonedomain.PhoneNumber, error) {
	if p.CustomerID <= 0 {
		return phonedomain.PhoneNumber{}, ErrInvalidCustomerID
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	p.ID = db.phoneSeq.Add(1)
	db.phoneNumbers = append(db.phoneNumbers, p)
	return p, nil
}

// InsertPhoneNumberChecked inserts only while the owning customer exists,
// holding the write lock across the check.
func (db *AppDB) InsertPhoneNumberChecked(p phonedomain.PhoneNumber) (phonedomain.PhoneNumber, error) {
	if p.CustomerID <= 0 {
		return phonedomain.PhoneNumber{}, ErrInvalidCustomerID
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.customerIndex(p.CustomerID) < 0 {
		return phonedomain.PhoneNumber{}, phonedomain.ErrCustomerNotFound
	}
	p.ID = db.phoneSeq.Add(1)
	db.phoneNumbers = append(db.phoneNumbers, p)
	return p, nil
}

func (db *AppDB) DeletePhoneNumber(id int64) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	before := len(db.phoneNumbers)
	db.phoneNumbers = removePhoneNumbers(db.phoneNumbers, func(p phonedomain.PhoneNumber) bool { return p.ID == id })
	return len(db.phoneNumbers) < before
}

func (db *AppDB) DeletePhoneNumbersByCustomer(customerID int64) bool {
	if customerID <= 0 {
		return false
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.phoneNumbers = removePhoneNumbers(db.phoneNumbers, func(p phonedomain.PhoneNumber) bool { return p.CustomerID == customerID })
	return true
}

// ---- helpers, callers hold db.mu ----

func (db *AppDB) customerIndex(id int64) int {
	if id <= 0 {
		return -1
	}
	for i, rec := range db.customers {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (db *AppDB) hydrate(rec customerRecord) customerdomain.Customer {
	invoices := db.invoicesOf(rec.ID)
	return customerdomain.Customer{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		Balance:      invoicedomain.Total(invoices),
		Invoices:     invoices,
		PhoneNumbers: db.phoneNumbersOf(rec.ID),
	}
}

func (db *AppDB) invoicesOf(customerID int64) []invoicedomain.Invoice {
	out := []invoicedomain.Invoice{}
	for _, inv := range db.invoices {
		if inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out
}

func (db *AppDB) phoneNumbersOf(customerID int64) []phonedomain.PhoneNumber {
	out := []phonedomain.PhoneNumber{}
	for _, p := range db.phoneNumbers {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out
}

func removeInvoices(in []invoicedomain.Invoice, match func(invoicedomain.Invoice) bool) []invoicedomain.Invoice {
	out := in[:0]
	for _, inv := range in {
		if !match(inv) {
			out = append(out, inv)
		}
	}
	clear(in[len(out):])
	return out
}

func removePhoneNumbers(in []phonedomain.PhoneNumber, match func(phonedomain.PhoneNumber) bool) []phonedomain.PhoneNumber {
	out := in[:0]
	for _, p := range in {
		if !match(p) {
			out = append(out, p)
		}
	}
	clear(in[len(out):])
	return out
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
