package calculator

import "math"

// SplitShare is one participant's portion of an evenly split bill.
type SplitShare struct {
	ParticipantID string
	AmountOwed    float64
}

// SplitEvenly divides amount equally among participantIDs, payer included if listed.
// The split is done in whole cents: everyone gets the same base share and the
// leftover cents go one each to the first participants, so no share is
// negative and the shares always add up to the rounded amount.
func SplitEvenly(amount float64, participantIDs []string) ([]SplitShare, error) {
	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}
	if amount < 0 {
		return nil, ErrNegativeAmount
	}

	seen := make(map[string]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateParticipant
		}
		seen[id] = struct{}{}
	}

	n := int64(len(participantIDs))
	cents := int64(math.Round(amount * 100))
	base, extra := cents/n, cents%n

	shares := make([]SplitShare, len(participantIDs))
	for i, id := range participantIDs {
		owed := base
		if int64(i) < extra {
			owed++
		}
		shares[i] = SplitShare{ParticipantID: id, AmountOwed: float64(owed) / 100}
	}
	return shares, nil
}
