package domain

type Repository interface {
	FindCustomer(id int64) (Customer, bool)
	// CreateCustomer checks name/email and embedded invoice numbers for
	// duplicates and inserts in one atomic step.
	CreateCustomer(customer Customer) (Customer, error)
	// UpdateCustomerChecked is the atomic duplicate check plus update.
	UpdateCustomerChecked(id int64, patch Customer) (Customer, error)
	DeleteCustomer(id int64) bool
	ListCustomers() []Customer
}
