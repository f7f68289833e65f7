package models

// Participant is one member of a group.
// Two participants may share a Name; only ID identifies them.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// GroupID is the group this participant belongs to.
	GroupID string

	// Name is the display name.
	Name string

	// CreatedAt is the Unix timestamp when the participant joined.
	CreatedAt int64
}
