package planning

import (
	"context"
	"log"
	"strings"
)

// Reads are not retried. Failures are logged here and returned as is.
func logRead(op string, err error) {
	log.Printf("[Ledger] %s: %v", op, err)
}

func (s *Service) GetContract(ctx context.Context, id int64) (Contract, error) {
	c, err := s.Store.GetContract(ctx, id)
	if err != nil {
		logRead("get contract", err)
	}
	return c, err
}

func (s *Service) GetOccurrence(ctx context.Context, id int64) (Occurrence, error) {
	o, err := s.Store.GetOccurrence(ctx, id)
	if err != nil {
		logRead("get occurrence", err)
	}
	return o, err
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		logRead("get invoice", err)
	}
	return inv, err
}

func (s *Service) ListContracts(ctx context.Context) ([]ContractView, error) {
	out, err := s.Store.ListContracts(ctx)
	if err != nil {
		logRead("list contracts", err)
		return []ContractView{}, err
	}
	return out, nil
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	out, err := s.Store.ListClients(ctx)
	if err != nil {
		logRead("list clients", err)
		return []Client{}, err
	}
	return out, nil
}

// ListOccurrences returns a recurrence's occurrences in creation order.
func (s *Service) ListOccurrences(ctx context.Context, recurrenceID int64) ([]Occurrence, error) {
	if _, err := s.Store.GetRecurrence(ctx, recurrenceID); err != nil {
		logRead("list occurrences", err)
		return []Occurrence{}, err
	}
	out, err := s.Store.ListOccurrences(ctx, recurrenceID)
	if err != nil {
		logRead("list occurrences", err)
		return []Occurrence{}, err
	}
	return out, nil
}

func (s *Service) ListRescheduleEvents(ctx context.Context, occurrenceID int64) ([]RescheduleEvent, error) {
	out, err := s.Store.ListRescheduleEvents(ctx, occurrenceID)
	if err != nil {
		logRead("list reschedule events", err)
		return []RescheduleEvent{}, err
	}
	return out, nil
}

func (s *Service) ListPriceRevisions(ctx context.Context, invoiceID int64) ([]PriceRevision, error) {
	out, err := s.Store.ListPriceRevisions(ctx, invoiceID)
	if err != nil {
		logRead("list price revisions", err)
		return []PriceRevision{}, err
	}
	return out, nil
}

func (s *Service) ListRemarks(ctx context.Context, recurrenceID int64) ([]Remark, error) {
	out, err := s.Store.ListRemarks(ctx, recurrenceID)
	if err != nil {
		logRead("list remarks", err)
		return []Remark{}, err
	}
	return out, nil
}

// =============================================================================
// CUSTOM HOLIDAYS
// =============================================================================

// AddHoliday stores a custom holiday for the service's jurisdiction and
// drops the cached year so the next adjustment sees it. Recurring holidays
// apply to every year; all cached years are dropped for them.
func (s *Service) AddHoliday(ctx context.Context, h Holiday) (int64, error) {
	if h.Date.IsZero() {
		return 0, &DateError{}
	}
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return 0, invalid("name", "required")
	}
	h.Jurisdiction = s.Calendar.Jurisdiction().Code()

	var id int64
	err := s.Exec.Update(ctx, "add holiday", func(tx Tx) error {
		var err error
		id, err = tx.InsertHoliday(ctx, h)
		return err
	})
	if err != nil {
		return 0, err
	}
	if h.Recurring {
		s.Calendar.InvalidateAll()
	} else {
		s.Calendar.Invalidate(h.Date.Year())
	}
	return id, nil
}
