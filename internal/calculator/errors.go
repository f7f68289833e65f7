package calculator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrNegativeAmount       = errors.New("amount cannot be negative")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
)

// DataConsistencyError reports records that reference participants the
// group does not contain. It accompanies a usable result.
type DataConsistencyError struct {
	UnknownPayers            []string
	UnknownShareParticipants []string
	DuplicateParticipants    []string
}

func (e *DataConsistencyError) Error() string {
	var parts []string
	if len(e.UnknownPayers) > 0 {
		parts = append(parts, fmt.Sprintf("bills paid by unknown participants %v", e.UnknownPayers))
	}
	if len(e.UnknownShareParticipants) > 0 {
		parts = append(parts, fmt.Sprintf("shares owed by unknown participants %v", e.UnknownShareParticipants))
	}
	if len(e.DuplicateParticipants) > 0 {
		parts = append(parts, fmt.Sprintf("duplicate participants %v", e.DuplicateParticipants))
	}
	return "inconsistent group data: " + strings.Join(parts, "; ")
}

func (e *DataConsistencyError) empty() bool {
	return len(e.UnknownPayers) == 0 && len(e.UnknownShareParticipants) == 0 && len(e.DuplicateParticipants) == 0
}

// SettlementIncompleteError is returned when balances do not net to zero,
// so some participants are left with a balance no transfer can clear.
type SettlementIncompleteError struct {
	// Residual holds the participants whose net balance is still beyond Epsilon.
	Residual Balances
}

func (e *SettlementIncompleteError) Error() string {
	ids := e.Residual.sortedIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s=%.2f", e.Residual[id].Name, e.Residual[id].Net)
	}
	return fmt.Sprintf("settlement incomplete: %d unresolved balances (%s)", len(ids), strings.Join(parts, ", "))
}
