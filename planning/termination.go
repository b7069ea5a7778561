package planning

import (
	"context"
	"log"
)

// =============================================================================
// TERMINATION ENGINE
// =============================================================================

// TerminationScope selects which recurrences a termination cancels.
type TerminationScope int

const (
	// ScopeContract cancels every recurrence of the owning contract, so no
	// occurrence of a terminated contract stays upcoming.
	ScopeContract TerminationScope = iota
	// ScopeRecurrence cancels only the recurrence of the given occurrence.
	ScopeRecurrence
)

// TerminationPolicy decides what a termination cancels.
type TerminationPolicy struct {
	// CancelCompleted also marks completed occurrences Cancelled.
	CancelCompleted bool
	Scope           TerminationScope
}

// SourceTerminationPolicy cancels every occurrence, completed ones
// included, across the whole contract.
var SourceTerminationPolicy = TerminationPolicy{CancelCompleted: true, Scope: ScopeContract}

// TerminateContract cancels occurrences and closes the contract owning the
// given occurrence. A zero effective date means today.
func (s *Service) TerminateContract(ctx context.Context, occurrenceID int64, effective Date) error {
	if effective.IsZero() {
		effective = s.today()
	}
	policy := s.Termination

	var contractID, cancelled int64
	err := s.Exec.Update(ctx, "terminate contract", func(tx Tx) error {
		cancelled = 0
		owner, err := tx.Owner(ctx, occurrenceID)
		if err != nil {
			return err
		}
		contract, err := tx.GetContract(ctx, owner.ContractID)
		if err != nil {
			return err
		}
		if contract.Status == ContractTerminated {
			return ErrAlreadyTerminated
		}

		recurrences := []int64{owner.RecurrenceID}
		if policy.Scope == ScopeContract {
			all, err := tx.ListRecurrences(ctx, owner.ContractID)
			if err != nil {
				return err
			}
			recurrences = recurrences[:0]
			for _, r := range all {
				recurrences = append(recurrences, r.ID)
			}
		}

		for _, id := range recurrences {
			n, err := tx.CancelOccurrences(ctx, id, policy.CancelCompleted)
			if err != nil {
				return err
			}
			cancelled += n
		}
		contractID = owner.ContractID
		return tx.CloseContract(ctx, owner.ContractID, effective)
	})
	if err != nil {
		return err
	}
	log.Printf("[Ledger] contract %d terminated on %s, %d occurrences cancelled", contractID, effective, cancelled)
	return nil
}
