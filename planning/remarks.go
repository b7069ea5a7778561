package planning

import (
	"context"
	"strings"
)

// Payment is what the operator records when an invoice is settled.
type Payment struct {
	Number       string
	Method       PaymentMethod
	Bank         string
	ChequeNumber string
	PaidOn       Date
}

// Validate checks the fields every payment needs. A cheque also needs its
// bank and number.
func (p Payment) Validate() error {
	if !p.Method.Valid() {
		return invalid("payment.method", "unknown method %q", p.Method)
	}
	if strings.TrimSpace(p.Number) == "" {
		return invalid("payment.number", "invoice number required")
	}
	if p.PaidOn.IsZero() {
		return invalid("payment.paid_on", "required")
	}
	if p.Method == PaymentCheque {
		if strings.TrimSpace(p.Bank) == "" {
			return invalid("payment.bank", "required for a cheque")
		}
		if strings.TrimSpace(p.ChequeNumber) == "" {
			return invalid("payment.cheque_number", "required for a cheque")
		}
	}
	return nil
}

// RemarkRequest completes an occurrence. Payment is nil when the invoice is
// still open.
type RemarkRequest struct {
	OccurrenceID int64
	Remark       string
	Problem      string
	Action       string
	Payment      *Payment
}

// RecordRemark appends a remark, marks the occurrence completed and, with a
// payment, marks its invoice paid. Returns the remark id.
func (s *Service) RecordRemark(ctx context.Context, req RemarkRequest) (int64, error) {
	if req.Payment != nil {
		if err := req.Payment.Validate(); err != nil {
			return 0, err
		}
	}

	var id int64
	err := s.Exec.Update(ctx, "record remark", func(tx Tx) error {
		owner, err := tx.Owner(ctx, req.OccurrenceID)
		if err != nil {
			return err
		}
		occ, err := tx.GetOccurrence(ctx, req.OccurrenceID)
		if err != nil {
			return err
		}
		if occ.State == StateCancelled {
			return invalid("occurrence_id", "occurrence %d is cancelled", occ.ID)
		}

		id, err = tx.AppendRemark(ctx, Remark{
			ClientID:     owner.ClientID,
			OccurrenceID: owner.OccurrenceID,
			InvoiceID:    owner.InvoiceID,
			Remark:       strings.TrimSpace(req.Remark),
			Problem:      strings.TrimSpace(req.Problem),
			Action:       strings.TrimSpace(req.Action),
			CreatedAt:    s.Now(),
		})
		if err != nil {
			return err
		}
		if err := tx.SetOccurrenceState(ctx, occ.ID, StateCompleted); err != nil {
			return err
		}
		if req.Payment == nil {
			return nil
		}
		return tx.RecordPayment(ctx, owner.InvoiceID, *req.Payment)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}
