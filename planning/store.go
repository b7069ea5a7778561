/*
store.go - Persistence interface for the planning ledger

PURPOSE:
  Defines the interface between the engine and the database. The engine
  never issues SQL; it asks a Store for reads and runs writes inside a Tx
  handed to it by WithTx or WithCreationLock.

KEY INTERFACES:
  Reader:  reads, usable outside and inside transactions
  Writer:  row writes, only reachable through a Tx
  Tx:      Reader + Writer bound to one database transaction
  Store:   Reader + transaction entry points

TRANSACTIONS:
  WithTx(fn) begins a transaction, runs fn, commits when fn returns nil and
  rolls back otherwise. WithCreationLock does the same while holding the
  advisory lock that serializes the contract creation workflow.

  Inside fn, only use the Tx. On SQLite the pool holds a single connection
  and a read through the Store would wait on the transaction forever.

APPEND-ONLY ROWS:
  PriceRevision, RescheduleEvent and Remark have Append* writers and no
  update or delete.

ERRORS:
  Implementations return *NotFoundError for missing rows and *StorageError
  (transient or fatal) for driver failures.

IMPLEMENTATIONS:
  - store/sqlstore: SQLite and PostgreSQL

SEE ALSO:
  - retry.go: Executor around WithCreationLock
  - ledger.go: Creation operations
*/
package planning

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// READER - Read side, no retry policy
// =============================================================================

type Reader interface {
	GetClient(ctx context.Context, id int64) (Client, error)
	GetContract(ctx context.Context, id int64) (Contract, error)
	GetTreatment(ctx context.Context, id int64) (Treatment, error)
	GetRecurrence(ctx context.Context, id int64) (Recurrence, error)
	RecurrenceForTreatment(ctx context.Context, treatmentID int64) (Recurrence, error)
	GetOccurrence(ctx context.Context, id int64) (Occurrence, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	GetInvoiceByOccurrence(ctx context.Context, occurrenceID int64) (Invoice, error)

	// Owner resolves the chain above an occurrence.
	Owner(ctx context.Context, occurrenceID int64) (OccurrenceOwner, error)

	// ListOccurrences returns a recurrence's occurrences ordered by id.
	ListOccurrences(ctx context.Context, recurrenceID int64) ([]Occurrence, error)

	// ListRecurrences returns every recurrence under a contract.
	ListRecurrences(ctx context.Context, contractID int64) ([]Recurrence, error)

	// InvoicesAfter returns invoices of a recurrence whose occurrence is dated
	// strictly after the given day, ordered by date.
	InvoicesAfter(ctx context.Context, recurrenceID int64, after Date) ([]Invoice, error)

	// ListOccurrenceViews returns occurrences dated in [from, to] with context.
	ListOccurrenceViews(ctx context.Context, from, to Date) ([]OccurrenceView, error)

	ListContracts(ctx context.Context) ([]ContractView, error)
	ListClients(ctx context.Context) ([]Client, error)
	ListRescheduleEvents(ctx context.Context, occurrenceID int64) ([]RescheduleEvent, error)
	ListPriceRevisions(ctx context.Context, invoiceID int64) ([]PriceRevision, error)
	ListRemarks(ctx context.Context, recurrenceID int64) ([]Remark, error)

	GetAccount(ctx context.Context, id int64) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
	ListAccounts(ctx context.Context, includeAdmins bool) ([]Account, error)

	HolidaySource
}

// OccurrenceOwner is the ownership chain of one occurrence.
type OccurrenceOwner struct {
	OccurrenceID int64
	RecurrenceID int64
	TreatmentID  int64
	ContractID   int64
	ClientID     int64
	InvoiceID    int64
}

// =============================================================================
// WRITER - Only reachable inside a transaction
// =============================================================================

type Writer interface {
	InsertClient(ctx context.Context, c Client) (int64, error)
	InsertContract(ctx context.Context, c Contract) (int64, error)
	EnsureTreatmentType(ctx context.Context, category, label string) (int64, error)
	InsertTreatment(ctx context.Context, t Treatment) (int64, error)
	InsertRecurrence(ctx context.Context, r Recurrence) (int64, error)
	InsertOccurrence(ctx context.Context, o Occurrence) (int64, error)
	InsertInvoice(ctx context.Context, inv Invoice) (int64, error)
	InsertAccount(ctx context.Context, a Account) (int64, error)
	InsertHoliday(ctx context.Context, h Holiday) (int64, error)

	// SetOccurrenceDate moves an occurrence and its invoice's treatment date.
	SetOccurrenceDate(ctx context.Context, occurrenceID int64, d Date) error
	SetOccurrenceState(ctx context.Context, occurrenceID int64, s OccurrenceState) error

	// CancelOccurrences marks the recurrence's occurrences Cancelled, Completed
	// ones included when includeCompleted is set. Returns the rows touched.
	CancelOccurrences(ctx context.Context, recurrenceID int64, includeCompleted bool) (int64, error)

	// CloseContract sets end date, Terminated status and Fixed duration kind.
	CloseContract(ctx context.Context, contractID int64, endsOn Date) error

	SetInvoiceAmount(ctx context.Context, invoiceID int64, amount decimal.Decimal) error
	RecordPayment(ctx context.Context, invoiceID int64, p Payment) error

	AppendPriceRevision(ctx context.Context, r PriceRevision) (int64, error)
	AppendRescheduleEvent(ctx context.Context, e RescheduleEvent) (int64, error)
	AppendRemark(ctx context.Context, r Remark) (int64, error)

	UpdateAccount(ctx context.Context, a Account) error
	DeleteAccount(ctx context.Context, id int64) error
}

// Tx is a Reader and Writer bound to one database transaction.
type Tx interface {
	Reader
	Writer
}

// =============================================================================
// STORE - Transaction entry points
// =============================================================================

type Store interface {
	Reader

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Tx) error) error

	// WithCreationLock is WithTx while holding the creation advisory lock.
	WithCreationLock(ctx context.Context, fn func(Tx) error) error
}
