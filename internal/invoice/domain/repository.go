package domain

// Repository is the slice of the in-memory store the invoice service needs.
type Repository interface {
	CustomerExists(id int64) bool
	ListInvoices() []Invoice
	FindInvoiceByNumber(invoiceNumber string) (Invoice, bool)
	ListInvoicesByCustomer(customerID int64) []Invoice
	InsertInvoiceChecked(invoice Invoice) (Invoice, error)
	DeleteInvoiceByNumber(invoiceNumber string) bool
	DeleteInvoicesByCustomer(customerID int64) bool
}
