package models

// Bill is an amount one participant paid on behalf of the group.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// GroupID is the group the bill belongs to.
	GroupID string

	// PayerID is the participant who fronted the money.
	PayerID string

	// Description is a human-readable label, unique per group (case-insensitive).
	Description string

	// Amount is the total paid.
	Amount float64

	// CreatedAt is the Unix timestamp when the bill was recorded.
	CreatedAt int64
}

// Share links a bill to a participant who owes part of it.
type Share struct {
	// BillID is the bill this share belongs to.
	BillID string

	// ParticipantID is who owes the amount.
	ParticipantID string

	// AmountOwed is this participant's portion of the bill.
	AmountOwed float64

	// Paid records that the participant has paid this share back.
	// Balances ignore it; it is informational.
	Paid bool
}
