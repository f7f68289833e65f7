package calculator

// ParticipantForBalance is a group member with the minimal information needed for balance calculations.
type ParticipantForBalance struct {
	ID   string
	Name string
}

// BillForBalance is a bill with the minimal information needed for balance calculations.
type BillForBalance struct {
	PayerID string
	Amount  float64
}

// ShareForBalance is one participant's obligation toward a bill.
type ShareForBalance struct {
	ParticipantID string
	AmountOwed    float64
}

// Balance is the aggregated position of one participant.
type Balance struct {
	Name string
	Paid float64 // Total fronted across all bills
	Owed float64 // Total of this participant's shares
	Net  float64 // Positive = owed money, Negative = owes money
}

// Balances maps participant ID to its balance.
type Balances map[string]Balance

// ComputeBalances derives every participant's net balance from bills and shares.
//
// Algorithm:
//   - Every participant starts at zero
//   - For each bill: payer's Paid grows by the bill amount
//   - For each share: participant's Owed grows by the share amount
//   - Net = Paid - Owed
//
// The result holds exactly one entry per participant. Bills or shares that
// reference an unknown participant are left out of the result and reported
// through a *DataConsistencyError; the returned balances are still complete
// for the known participants, so callers may choose to carry on.
func ComputeBalances(participants []ParticipantForBalance, bills []BillForBalance, shares []ShareForBalance) (Balances, error) {
	balances := make(Balances, len(participants))
	var inconsistency DataConsistencyError

	for _, p := range participants {
		if _, exists := balances[p.ID]; exists {
			inconsistency.DuplicateParticipants = append(inconsistency.DuplicateParticipants, p.ID)
			continue
		}
		balances[p.ID] = Balance{Name: p.Name}
	}

	for _, bill := range bills {
		bal, exists := balances[bill.PayerID]
		if !exists {
			inconsistency.UnknownPayers = append(inconsistency.UnknownPayers, bill.PayerID)
			continue
		}
		bal.Paid += bill.Amount
		balances[bill.PayerID] = bal
	}

	for _, share := range shares {
		bal, exists := balances[share.ParticipantID]
		if !exists {
			inconsistency.UnknownShareParticipants = append(inconsistency.UnknownShareParticipants, share.ParticipantID)
			continue
		}
		bal.Owed += share.AmountOwed
		balances[share.ParticipantID] = bal
	}

	for id, bal := range balances {
		bal.Net = bal.Paid - bal.Owed
		balances[id] = bal
	}

	if inconsistency.empty() {
		return balances, nil
	}
	return balances, &inconsistency
}

// Clone returns an independent copy of b.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for id, bal := range b {
		out[id] = bal
	}
	return out
}

// Total returns the sum of all net balances. In a closed group it is ~0.
func (b Balances) Total() float64 {
	var total float64
	for _, id := range b.sortedIDs() {
		total += b[id].Net
	}
	return total
}
