/*
Package planning is the recurrence generation, correction and billing
consistency engine for recurring service contracts.

PURPOSE:
  A contract commits to one or more treatments. Each treatment gets one
  recurrence (the "planning") which expands into dated occurrences, and each
  occurrence carries exactly one invoice. Occurrences are later rescheduled,
  repriced, completed or cancelled, always through this package so the
  invariants below hold.

KEY CONCEPTS IN THIS FILE (types.go):
  - Contract / Treatment / Recurrence / Occurrence / Invoice: the ledger rows
  - PriceRevision / RescheduleEvent / Remark: append-only audit rows
  - Client / Account / TreatmentType: supporting reference rows

INVARIANTS:
  1. An Occurrence belongs to exactly one Recurrence and has exactly one Invoice
  2. A Recurrence holds floor(12/k) occurrences for k > 0, exactly 1 for k = 0
  3. A Terminated Contract has no Upcoming Occurrence left
  4. PriceRevision and RescheduleEvent rows are only ever appended
  5. Occurrence ids grow with generation order inside a Recurrence

SEE ALSO:
  - generator.go: Occurrence dates
  - ledger.go: Creation operations
  - reschedule.go, pricing.go, termination.go: Corrections
*/
package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

type DurationKind string

const (
	DurationFixed     DurationKind = "Déterminée"
	DurationOpenEnded DurationKind = "Indéterminée"
)

type ContractCategory string

const (
	CategoryNew     ContractCategory = "Nouveau"
	CategoryRenewal ContractCategory = "Renouvellement"
)

type ContractStatus string

const (
	ContractActive     ContractStatus = "Actif"
	ContractTerminated ContractStatus = "Résilié"
)

type OccurrenceState string

const (
	StateUpcoming  OccurrenceState = "À venir"
	StateCompleted OccurrenceState = "Effectué"
	StateCancelled OccurrenceState = "Annulé"
)

type PaymentState string

const (
	Unpaid PaymentState = "Non payé"
	Paid   PaymentState = "Payé"
)

type PaymentMethod string

const (
	PaymentCheque      PaymentMethod = "Cheque"
	PaymentCash        PaymentMethod = "Espece"
	PaymentTransfer    PaymentMethod = "Virement"
	PaymentMobileMoney PaymentMethod = "Mobile Money"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCheque, PaymentCash, PaymentTransfer, PaymentMobileMoney:
		return true
	}
	return false
}

// RescheduleKind tells whether an occurrence was brought forward or pushed back.
type RescheduleKind string

const (
	Advance RescheduleKind = "Avancement"
	Delay   RescheduleKind = "Décalage"
)

func (k RescheduleKind) Valid() bool { return k == Advance || k == Delay }

type ClientCategory string

const (
	ClientIndividual ClientCategory = "Particulier"
	ClientCompany    ClientCategory = "Société"
)

type AccountKind string

const (
	AccountAdmin AccountKind = "Administrateur"
	AccountUser  AccountKind = "Utilisateur"
)

// =============================================================================
// LEDGER ROWS
// =============================================================================

type Client struct {
	ID       int64
	Name     string
	Contact  string
	Email    string
	Phone    string
	Address  string
	AddedOn  Date
	Category ClientCategory
	Axis     string
	NIF      string
	STAT     string
}

type Contract struct {
	ID             int64
	ClientID       int64
	Number         string
	SignedOn       Date
	StartsOn       Date
	EndsOn         Date // zero = open-ended
	DurationMonths int
	DurationKind   DurationKind
	Category       ContractCategory
	Status         ContractStatus
}

type TreatmentType struct {
	ID       int64
	Category string
	Label    string
}

type Treatment struct {
	ID         int64
	ContractID int64
	TypeID     int64
}

// Recurrence is the schedule rule of one Treatment.
type Recurrence struct {
	ID             int64
	TreatmentID    int64
	FirstDate      Date
	StartMonth     int // 1..12
	EndMonth       int // 0 = unbounded
	IntervalMonths int // 0 = single shot
	NominalEnd     Date
}

type Occurrence struct {
	ID           int64
	RecurrenceID int64
	Date         Date
	State        OccurrenceState
}

type Invoice struct {
	ID            int64
	OccurrenceID  int64
	Amount        decimal.Decimal
	TreatmentDate Date
	Axis          string
	State         PaymentState

	// Opaque to the engine, filled by RecordRemark.
	Number       string
	Method       PaymentMethod
	Bank         string
	ChequeNumber string
	PaidOn       Date
}

// PriceRevision is one amount change. Rows written by the same revision
// share a Batch; cascaded rows have Cascade set.
type PriceRevision struct {
	ID        int64
	InvoiceID int64
	OldAmount decimal.Decimal
	NewAmount decimal.Decimal
	ChangedAt time.Time
	Actor     string
	Cascade   bool
	Batch     string
}

type RescheduleEvent struct {
	ID           int64
	OccurrenceID int64
	Reason       string
	Kind         RescheduleKind
	CreatedAt    time.Time
}

type Remark struct {
	ID           int64
	ClientID     int64
	OccurrenceID int64
	InvoiceID    int64
	Remark       string
	Problem      string
	Action       string
	CreatedAt    time.Time
}

type Account struct {
	ID           int64
	LastName     string
	FirstName    string
	Email        string
	Username     string
	PasswordHash string
	Kind         AccountKind
}

// =============================================================================
// PROJECTIONS - Read-only views joined for dashboards
// =============================================================================

// OccurrenceView is an Occurrence with enough context to display it.
type OccurrenceView struct {
	OccurrenceID  int64
	RecurrenceID  int64
	TreatmentID   int64
	ContractID    int64
	ClientID      int64
	InvoiceID     int64
	Date          Date
	State         OccurrenceState
	TreatmentType string
	ClientName    string
	Axis          string
	Amount        decimal.Decimal
	PaymentState  PaymentState
}

// ContractView is a Contract with its client name, for paged lists.
type ContractView struct {
	Contract
	ClientName string
}
