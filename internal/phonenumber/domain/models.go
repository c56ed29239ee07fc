package domain

// Type is the kind of a phone number. Matching is case-sensitive.
type Type string

const (
	TypeMobile     Type = "Mobile"
	TypeWork       Type = "Work"
	TypeDirectDial Type = "DirectDial"
)

// Types lists every accepted phone number type.
var Types = []Type{TypeMobile, TypeWork, TypeDirectDial}

type PhoneNumber struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customerId"`
	Type       Type   `json:"type"`
	Number     string `json:"number"`
}

func IsValidType(value string) bool {
	for _, t := range Types {
		if string(t) == value {
			return true
		}
	}
	return false
}
