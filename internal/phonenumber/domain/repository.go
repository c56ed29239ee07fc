package domain

type Repository interface {
	CustomerExists(id int64) bool
	ListPhoneNumbers() []PhoneNumber
	FindPhoneNumber(id int64) (PhoneNumber, bool)
	ListPhoneNumbersByCustomer(customerID int64) []PhoneNumber
	InsertPhoneNumberChecked(phone PhoneNumber) (PhoneNumber, error)
	DeletePhoneNumber(id int64) bool
	DeletePhoneNumbersByCustomer(customerID int64) bool
}
