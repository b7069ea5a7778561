/*
ledger.go - Creation operations of the planning ledger

PURPOSE:
  Creates the rows a new contract needs: client, contract, treatments, one
  recurrence per treatment, and one occurrence + invoice pair per generated
  date. Every creation goes through the Executor, so it runs under the
  creation lock, inside one transaction, and is retried on transient
  failures.

CREATION SEQUENCE:
  1. CreateContractPackage   client + contract + treatments
  2. CreateRecurrence        one per treatment
  3. Generate                dates from (first date, interval)
  4. CreateOccurrenceAndInvoice, once per date, in ascending order

  ScheduleTreatment runs 2-4 as one transaction so a failure leaves no
  half-built recurrence.

VALIDATION:
  All input checks happen before the first write. A ValidationError never
  reaches the database. The one exception is the owning contract's status,
  read inside the transaction: a terminated contract takes no new
  recurrence nor occurrence (ErrAlreadyTerminated).

SEE ALSO:
  - retry.go: Executor
  - generator.go: Date expansion
  - store.go: Tx interface
*/
package planning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SERVICE - Every operation the shell consumes
// =============================================================================

// Service is the engine's entry point. It holds no per-contract state;
// every operation takes its context as parameters.
type Service struct {
	Store       Store
	Exec        *Executor
	Calendar    *Calendar
	Generator   *Generator
	Termination TerminationPolicy

	// Now is the clock used for audit timestamps and default dates.
	Now func() time.Time
}

// Options configures NewService. Zero values select the defaults.
type Options struct {
	Jurisdiction Jurisdiction
	Retry        *RetryPolicy
	Termination  *TerminationPolicy
}

func NewService(store Store, opts Options) *Service {
	retry := DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	termination := SourceTerminationPolicy
	if opts.Termination != nil {
		termination = *opts.Termination
	}
	cal := NewCalendar(opts.Jurisdiction, store)
	return &Service{
		Store:       store,
		Exec:        NewExecutor(store, retry),
		Calendar:    cal,
		Generator:   NewGenerator(cal),
		Termination: termination,
		Now:         time.Now,
	}
}

func (s *Service) today() Date { return DateOf(s.Now()) }

// =============================================================================
// CONTRACT PACKAGE
// =============================================================================

// ContractPackage is everything signed at once: the client (new, or an
// existing one for renewals), the contract and its treatment types.
type ContractPackage struct {
	Client           Client
	ExistingClientID int64
	Contract         Contract
	Treatments       []TreatmentType
}

type PackageResult struct {
	ClientID     int64
	ContractID   int64
	TreatmentIDs []int64
}

// CreateContractPackage persists a client, a contract and its treatments.
func (s *Service) CreateContractPackage(ctx context.Context, pkg ContractPackage) (PackageResult, error) {
	contract, err := normalizeContract(pkg.Contract)
	if err != nil {
		return PackageResult{}, err
	}
	if pkg.ExistingClientID == 0 {
		if err := validateClient(pkg.Client); err != nil {
			return PackageResult{}, err
		}
	}
	if len(pkg.Treatments) == 0 {
		return PackageResult{}, invalid("treatments", "at least one treatment is required")
	}
	for i, t := range pkg.Treatments {
		if strings.TrimSpace(t.Label) == "" {
			return PackageResult{}, invalid("treatments", "treatment %d has no label", i+1)
		}
	}

	var res PackageResult
	err = s.Exec.Create(ctx, "create contract package", func(tx Tx) error {
		res = PackageResult{ClientID: pkg.ExistingClientID}
		if res.ClientID != 0 {
			if _, err := tx.GetClient(ctx, res.ClientID); err != nil {
				return err
			}
		} else {
			id, err := tx.InsertClient(ctx, pkg.Client)
			if err != nil {
				return err
			}
			res.ClientID = id
		}

		contract.ClientID = res.ClientID
		id, err := tx.InsertContract(ctx, contract)
		if err != nil {
			return err
		}
		res.ContractID = id

		for _, t := range pkg.Treatments {
			typeID, err := tx.EnsureTreatmentType(ctx, strings.TrimSpace(t.Category), strings.TrimSpace(t.Label))
			if err != nil {
				return err
			}
			tid, err := tx.InsertTreatment(ctx, Treatment{ContractID: res.ContractID, TypeID: typeID})
			if err != nil {
				return err
			}
			res.TreatmentIDs = append(res.TreatmentIDs, tid)
		}
		return nil
	})
	if err != nil {
		return PackageResult{}, err
	}
	return res, nil
}

func validateClient(c Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("client.name", "required")
	}
	switch c.Category {
	case ClientIndividual, ClientCompany:
	default:
		return invalid("client.category", "unknown category %q", c.Category)
	}
	if c.AddedOn.IsZero() {
		return invalid("client.added_on", "required")
	}
	return nil
}

// normalizeContract validates a contract and derives its duration.
// Open-ended contracts run on the 12 month horizon.
func normalizeContract(c Contract) (Contract, error) {
	if strings.TrimSpace(c.Number) == "" {
		return c, invalid("contract.number", "required")
	}
	if c.SignedOn.IsZero() {
		return c, invalid("contract.signed_on", "required")
	}
	if c.StartsOn.IsZero() {
		return c, invalid("contract.starts_on", "required")
	}
	switch c.Category {
	case CategoryNew, CategoryRenewal:
	default:
		return c, invalid("contract.category", "unknown category %q", c.Category)
	}

	switch c.DurationKind {
	case DurationOpenEnded:
		c.EndsOn = Date{}
		c.DurationMonths = HorizonMonths
	case DurationFixed:
		if c.EndsOn.IsZero() {
			return c, invalid("contract.ends_on", "required for a fixed-duration contract")
		}
		if c.EndsOn.Before(c.StartsOn) {
			return c, invalid("contract.ends_on", "%s is before start %s", c.EndsOn, c.StartsOn)
		}
		c.DurationMonths = MonthsBetween(c.StartsOn, c.EndsOn)
	default:
		return c, invalid("contract.duration_kind", "unknown kind %q", c.DurationKind)
	}
	c.Status = ContractActive
	return c, nil
}

// =============================================================================
// RECURRENCE
// =============================================================================

// RecurrenceSpec is the schedule rule entered for one treatment.
type RecurrenceSpec struct {
	TreatmentID    int64
	FirstDate      Date
	StartMonth     int
	EndMonth       int
	IntervalMonths int
	NominalEnd     Date
}

func (s *Service) validateRecurrence(spec RecurrenceSpec) (Recurrence, error) {
	if spec.TreatmentID <= 0 {
		return Recurrence{}, invalid("treatment_id", "required")
	}
	if spec.FirstDate.IsZero() {
		return Recurrence{}, &DateError{}
	}
	if spec.StartMonth < 1 || spec.StartMonth > 12 {
		return Recurrence{}, invalid("start_month", "must be 1..12, got %d", spec.StartMonth)
	}
	if spec.EndMonth < 0 || spec.EndMonth > 12 {
		return Recurrence{}, invalid("end_month", "must be 0..12, got %d", spec.EndMonth)
	}
	if err := ValidateInterval(spec.IntervalMonths); err != nil {
		return Recurrence{}, err
	}
	nominal := spec.NominalEnd
	if nominal.IsZero() {
		nominal = spec.FirstDate.AddMonths(HorizonMonths - 1)
	}
	return Recurrence{
		TreatmentID:    spec.TreatmentID,
		FirstDate:      spec.FirstDate,
		StartMonth:     spec.StartMonth,
		EndMonth:       spec.EndMonth,
		IntervalMonths: spec.IntervalMonths,
		NominalEnd:     nominal,
	}, nil
}

// CreateRecurrence stores the schedule rule of a treatment. A treatment
// holds at most one recurrence.
func (s *Service) CreateRecurrence(ctx context.Context, spec RecurrenceSpec) (int64, error) {
	rec, err := s.validateRecurrence(spec)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.Exec.Create(ctx, "create recurrence", func(tx Tx) error {
		var err error
		id, err = insertRecurrence(ctx, tx, rec)
		return err
	})
	return id, err
}

func insertRecurrence(ctx context.Context, tx Tx, rec Recurrence) (int64, error) {
	if err := ensureContractOpen(ctx, tx, rec.TreatmentID); err != nil {
		return 0, err
	}
	existing, err := tx.RecurrenceForTreatment(ctx, rec.TreatmentID)
	switch {
	case err == nil:
		return 0, invalid("treatment_id", "treatment %d already has recurrence %d", rec.TreatmentID, existing.ID)
	case !IsNotFound(err):
		return 0, err
	}
	return tx.InsertRecurrence(ctx, rec)
}

// ensureContractOpen refuses new schedule rows under a terminated contract.
func ensureContractOpen(ctx context.Context, tx Tx, treatmentID int64) error {
	t, err := tx.GetTreatment(ctx, treatmentID)
	if err != nil {
		return err
	}
	c, err := tx.GetContract(ctx, t.ContractID)
	if err != nil {
		return err
	}
	if c.Status == ContractTerminated {
		return fmt.Errorf("contract %d: %w", c.ID, ErrAlreadyTerminated)
	}
	return nil
}

// Generate expands a first date and interval into occurrence dates.
func (s *Service) Generate(start Date, interval int) ([]Date, error) {
	return s.Generator.Generate(start, interval)
}

// =============================================================================
// OCCURRENCE + INVOICE
// =============================================================================

// OccurrenceInvoice is the id pair created for one date.
type OccurrenceInvoice struct {
	OccurrenceID int64
	InvoiceID    int64
	Date         Date
}

// CreateOccurrenceAndInvoice adds one dated occurrence and its unpaid
// invoice. Dates must arrive in ascending order and the recurrence may not
// exceed its occurrence count.
func (s *Service) CreateOccurrenceAndInvoice(ctx context.Context, recurrenceID int64, date Date, amount decimal.Decimal, axis string) (OccurrenceInvoice, error) {
	if date.IsZero() {
		return OccurrenceInvoice{}, &DateError{}
	}
	if amount.IsNegative() {
		return OccurrenceInvoice{}, &AmountError{Field: "amount", Input: amount.String()}
	}

	var out OccurrenceInvoice
	err := s.Exec.Create(ctx, "create occurrence and invoice", func(tx Tx) error {
		rec, err := tx.GetRecurrence(ctx, recurrenceID)
		if err != nil {
			return err
		}
		if err := ensureContractOpen(ctx, tx, rec.TreatmentID); err != nil {
			return err
		}
		existing, err := tx.ListOccurrences(ctx, recurrenceID)
		if err != nil {
			return err
		}
		if len(existing) >= OccurrenceCount(rec.IntervalMonths) {
			return invalid("recurrence_id", "recurrence %d already holds its %d occurrences", recurrenceID, len(existing))
		}
		if n := len(existing); n > 0 && date.Before(existing[n-1].Date) {
			return invalid("date", "%s is before the last occurrence %s", date, existing[n-1].Date)
		}
		out, err = insertPair(ctx, tx, recurrenceID, date, amount, axis)
		return err
	})
	return out, err
}

func insertPair(ctx context.Context, tx Tx, recurrenceID int64, date Date, amount decimal.Decimal, axis string) (OccurrenceInvoice, error) {
	occID, err := tx.InsertOccurrence(ctx, Occurrence{RecurrenceID: recurrenceID, Date: date, State: StateUpcoming})
	if err != nil {
		return OccurrenceInvoice{}, err
	}
	invID, err := tx.InsertInvoice(ctx, Invoice{
		OccurrenceID:  occID,
		Amount:        amount,
		TreatmentDate: date,
		Axis:          axis,
		State:         Unpaid,
	})
	if err != nil {
		return OccurrenceInvoice{}, err
	}
	return OccurrenceInvoice{OccurrenceID: occID, InvoiceID: invID, Date: date}, nil
}

// =============================================================================
// SCHEDULE TREATMENT - Recurrence + every pair, atomically
// =============================================================================

type ScheduleRequest struct {
	RecurrenceSpec
	Amount decimal.Decimal
	Axis   string
}

type ScheduleResult struct {
	RecurrenceID int64
	Occurrences  []OccurrenceInvoice
}

// ScheduleTreatment creates a treatment's recurrence and all of its
// occurrences and invoices in one transaction.
func (s *Service) ScheduleTreatment(ctx context.Context, req ScheduleRequest) (ScheduleResult, error) {
	rec, err := s.validateRecurrence(req.RecurrenceSpec)
	if err != nil {
		return ScheduleResult{}, err
	}
	if req.Amount.IsNegative() {
		return ScheduleResult{}, &AmountError{Field: "amount", Input: req.Amount.String()}
	}
	// Dates are computed before the transaction: the calendar may read
	// custom holidays through the store.
	dates, err := s.Generate(rec.FirstDate, rec.IntervalMonths)
	if err != nil {
		return ScheduleResult{}, err
	}

	var res ScheduleResult
	err = s.Exec.Create(ctx, "schedule treatment", func(tx Tx) error {
		res = ScheduleResult{}
		id, err := insertRecurrence(ctx, tx, rec)
		if err != nil {
			return err
		}
		res.RecurrenceID = id
		for _, d := range dates {
			pair, err := insertPair(ctx, tx, id, d, req.Amount, req.Axis)
			if err != nil {
				return err
			}
			res.Occurrences = append(res.Occurrences, pair)
		}
		return nil
	})
	if err != nil {
		return ScheduleResult{}, err
	}
	return res, nil
}
