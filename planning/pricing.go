package planning

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICE REVISION PROPAGATOR
// =============================================================================

// ParseAmount parses an invoice amount as the shell displays it. Grouping
// spaces and a trailing "Ar" are accepted, so "150 000 Ar" is 150000. The
// result must be non-negative.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSpace(strings.TrimSuffix(clean, "Ar"))
	clean = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(clean)
	if clean == "" {
		return decimal.Decimal{}, &AmountError{Field: field, Input: s}
	}
	d, err := decimal.NewFromString(clean)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, &AmountError{Field: field, Input: s}
	}
	return d, nil
}

// PriceRevisionRequest carries amounts as entered; both are parsed with
// ParseAmount before any write.
type PriceRevisionRequest struct {
	InvoiceID int64
	OldAmount string
	NewAmount string
	Actor     string
}

// ReviseInvoicePrice sets a new amount on an invoice and on every invoice
// of the same recurrence dated strictly later. Each changed invoice gets a
// PriceRevision row; all rows share one batch id. Returns the number of
// invoices updated.
func (s *Service) ReviseInvoicePrice(ctx context.Context, req PriceRevisionRequest) (int, error) {
	oldAmount, err := ParseAmount("old_amount", req.OldAmount)
	if err != nil {
		return 0, err
	}
	newAmount, err := ParseAmount("new_amount", req.NewAmount)
	if err != nil {
		return 0, err
	}

	var updated int
	err = s.Exec.Update(ctx, "revise invoice price", func(tx Tx) error {
		updated = 0
		target, err := tx.GetInvoice(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		owner, err := tx.Owner(ctx, target.OccurrenceID)
		if err != nil {
			return err
		}
		occ, err := tx.GetOccurrence(ctx, target.OccurrenceID)
		if err != nil {
			return err
		}
		if !target.Amount.Equal(oldAmount) {
			log.Printf("[Ledger] invoice %d: stated old amount %s differs from stored %s", target.ID, oldAmount, target.Amount)
		}

		batch := uuid.NewString()
		now := s.Now()
		revise := func(inv Invoice, old decimal.Decimal, cascade bool) error {
			if err := tx.SetInvoiceAmount(ctx, inv.ID, newAmount); err != nil {
				return err
			}
			_, err := tx.AppendPriceRevision(ctx, PriceRevision{
				InvoiceID: inv.ID,
				OldAmount: old,
				NewAmount: newAmount,
				ChangedAt: now,
				Actor:     req.Actor,
				Cascade:   cascade,
				Batch:     batch,
			})
			if err == nil {
				updated++
			}
			return err
		}

		if err := revise(target, oldAmount, false); err != nil {
			return err
		}
		later, err := tx.InvoicesAfter(ctx, owner.RecurrenceID, occ.Date)
		if err != nil {
			return err
		}
		for _, inv := range later {
			if inv.ID == target.ID {
				continue
			}
			if err := revise(inv, inv.Amount, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
