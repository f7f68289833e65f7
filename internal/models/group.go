package models

// Group is a closed set of participants whose bills settle against each other.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Description is optional free text.
	Description string

	// Currency is the ISO code amounts are displayed in. No conversion is done.
	Currency string

	// InviteCode is a six character upper-case code others can join with.
	InviteCode string

	// CreatedBy is the name of whoever created the group.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// IsCurrencyCode reports whether code is three upper-case letters, the shape of an ISO 4217 code.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
