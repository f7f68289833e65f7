package calculator

import (
	"math"
	"sort"
)

// Epsilon is the currency-rounding tolerance below which a balance counts as settled.
const Epsilon = 0.01

const floatNoise = 1e-9

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	DebtorID     string
	DebtorName   string
	Amount       float64 // Rounded to cents
	CreditorID   string
	CreditorName string
}

// Settle produces the transfers that clear balances.
//
// Algorithm (greedy, not minimal in transfer count):
//   - Pick the most negative balance (debtor) and the most positive (creditor)
//   - Move min(|debtor|, creditor) from one to the other
//   - The smaller side is now exactly zero; repeat
//   - Stop once no creditor is left beyond Epsilon, or nobody owes anything
//
// Debtors below Epsilon still pay, so many small debts can clear one
// larger credit.
//
// Participants are visited in ID order and ties go to the lowest ID, so the
// same balances always yield the same transfers. The returned Balances is a
// copy of the input for display; the input is not modified.
//
// If balances do not net to zero some participants cannot be cleared. The
// transfers computed so far are still returned, together with a
// *SettlementIncompleteError holding the remainder.
func Settle(balances Balances) ([]Transfer, Balances, error) {
	transfers := []Transfer{}
	display := balances.Clone()
	if len(balances) == 0 {
		return transfers, display, nil
	}

	ids := balances.sortedIDs()
	working := make([]float64, len(ids))
	for i, id := range ids {
		working[i] = balances[id].Net
	}

	// Every round zeroes at least one entry, so n rounds is a hard ceiling.
	for round := 0; round < len(ids); round++ {
		debtor, creditor := extremes(working)
		if working[creditor] <= Epsilon || working[debtor] >= 0 {
			break
		}

		amount := math.Min(-working[debtor], working[creditor])
		if -working[debtor] <= working[creditor] {
			working[creditor] = snap(working[creditor] - amount)
			working[debtor] = 0
		} else {
			working[debtor] = snap(working[debtor] + amount)
			working[creditor] = 0
		}

		transfers = append(transfers, Transfer{
			DebtorID:     ids[debtor],
			DebtorName:   balances[ids[debtor]].Name,
			Amount:       RoundToCents(amount),
			CreditorID:   ids[creditor],
			CreditorName: balances[ids[creditor]].Name,
		})
	}

	residual := make(Balances)
	for i, id := range ids {
		if math.Abs(working[i]) > Epsilon {
			bal := balances[id]
			bal.Net = working[i]
			residual[id] = bal
		}
	}
	if len(residual) > 0 {
		return transfers, display, &SettlementIncompleteError{Residual: residual}
	}
	return transfers, display, nil
}

// snap clears float noise so a settled entry never reads as a tiny debtor.
func snap(v float64) float64 {
	if math.Abs(v) < floatNoise {
		return 0
	}
	return v
}

// extremes returns the indexes of the minimum and maximum values.
// The first index wins ties.
func extremes(values []float64) (minIdx, maxIdx int) {
	for i, v := range values {
		if v < values[minIdx] {
			minIdx = i
		}
		if v > values[maxIdx] {
			maxIdx = i
		}
	}
	return minIdx, maxIdx
}

func (b Balances) sortedIDs() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoundToCents rounds value to 2 decimal places.
func RoundToCents(value float64) float64 {
	return math.Round(value*100) / 100
}
