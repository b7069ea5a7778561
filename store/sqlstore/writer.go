package sqlstore

import (
	"context"

	"github.com/josoavj/Planificator/planning"
	"github.com/shopspring/decimal"
)

// writer implements planning.Writer. It only ever wraps a *sql.Tx.
type writer struct {
	q querier
	d *dialect
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (w writer) insert(ctx context.Context, op, query string, args ...any) (int64, error) {
	var id int64
	if err := w.q.QueryRowContext(ctx, w.d.rebind(query+` RETURNING id`), args...).Scan(&id); err != nil {
		return 0, classify(op, err)
	}
	return id, nil
}

// execOne runs a statement that must touch exactly one row.
func (w writer) execOne(ctx context.Context, op, entity string, id int64, query string, args ...any) error {
	n, err := w.exec(ctx, op, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return &planning.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func (w writer) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := w.q.ExecContext(ctx, w.d.rebind(query), args...)
	if err != nil {
		return 0, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	return n, nil
}

// =============================================================================
// CREATION
// =============================================================================

func (w writer) InsertClient(ctx context.Context, c planning.Client) (int64, error) {
	return w.insert(ctx, "insert client", `
		INSERT INTO clients (name, contact, email, phone, address, added_on, category, axis, nif, stat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Contact, c.Email, c.Phone, c.Address, c.AddedOn, c.Category, c.Axis, c.NIF, c.STAT)
}

func (w writer) InsertContract(ctx context.Context, c planning.Contract) (int64, error) {
	return w.insert(ctx, "insert contract", `
		INSERT INTO contracts (client_id, number, signed_on, starts_on, ends_on,
			duration_months, duration_kind, category, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ClientID, c.Number, c.SignedOn, c.StartsOn, c.EndsOn,
		c.DurationMonths, c.DurationKind, c.Category, c.Status)
}

// EnsureTreatmentType returns the id of the (category, label) type,
// creating it on first use.
func (w writer) EnsureTreatmentType(ctx context.Context, category, label string) (int64, error) {
	var id int64
	err := w.q.QueryRowContext(ctx, w.d.rebind(
		`SELECT id FROM treatment_types WHERE category = ? AND label = ?`), category, label).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err := notFound("find treatment type", "treatment type", 0, err); !planning.IsNotFound(err) {
		return 0, err
	}
	return w.insert(ctx, "insert treatment type",
		`INSERT INTO treatment_types (category, label) VALUES (?, ?)`, category, label)
}

func (w writer) InsertTreatment(ctx context.Context, t planning.Treatment) (int64, error) {
	return w.insert(ctx, "insert treatment",
		`INSERT INTO treatments (contract_id, type_id) VALUES (?, ?)`, t.ContractID, t.TypeID)
}

func (w writer) InsertRecurrence(ctx context.Context, r planning.Recurrence) (int64, error) {
	return w.insert(ctx, "insert recurrence", `
		INSERT INTO recurrences (treatment_id, first_date, start_month, end_month, interval_months, nominal_end)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.TreatmentID, r.FirstDate, r.StartMonth, r.EndMonth, r.IntervalMonths, r.NominalEnd)
}

func (w writer) InsertOccurrence(ctx context.Context, o planning.Occurrence) (int64, error) {
	return w.insert(ctx, "insert occurrence",
		`INSERT INTO occurrences (recurrence_id, date, state) VALUES (?, ?, ?)`,
		o.RecurrenceID, o.Date, o.State)
}

func (w writer) InsertInvoice(ctx context.Context, inv planning.Invoice) (int64, error) {
	return w.insert(ctx, "insert invoice", `
		INSERT INTO invoices (occurrence_id, amount, treatment_date, axis, state)
		VALUES (?, ?, ?, ?, ?)`,
		inv.OccurrenceID, inv.Amount, inv.TreatmentDate, inv.Axis, inv.State)
}

func (w writer) InsertAccount(ctx context.Context, a planning.Account) (int64, error) {
	return w.insert(ctx, "insert account", `
		INSERT INTO accounts (last_name, first_name, email, username, password_hash, kind)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.LastName, a.FirstName, a.Email, a.Username, a.PasswordHash, a.Kind)
}

func (w writer) InsertHoliday(ctx context.Context, h planning.Holiday) (int64, error) {
	return w.insert(ctx, "insert holiday",
		`INSERT INTO holidays (jurisdiction, date, name, recurring) VALUES (?, ?, ?, ?)`,
		h.Jurisdiction, h.Date, h.Name, h.Recurring)
}

// =============================================================================
// OCCURRENCE UPDATES
// =============================================================================

// SetOccurrenceDate moves the occurrence and its invoice's treatment date.
func (w writer) SetOccurrenceDate(ctx context.Context, occurrenceID int64, d planning.Date) error {
	if err := w.execOne(ctx, "move occurrence", "occurrence", occurrenceID,
		`UPDATE occurrences SET date = ? WHERE id = ?`, d, occurrenceID); err != nil {
		return err
	}
	_, err := w.exec(ctx, "move invoice",
		`UPDATE invoices SET treatment_date = ? WHERE occurrence_id = ?`, d, occurrenceID)
	return err
}

func (w writer) SetOccurrenceState(ctx context.Context, occurrenceID int64, s planning.OccurrenceState) error {
	return w.execOne(ctx, "set occurrence state", "occurrence", occurrenceID,
		`UPDATE occurrences SET state = ? WHERE id = ?`, s, occurrenceID)
}

func (w writer) CancelOccurrences(ctx context.Context, recurrenceID int64, includeCompleted bool) (int64, error) {
	if includeCompleted {
		return w.exec(ctx, "cancel occurrences",
			`UPDATE occurrences SET state = ? WHERE recurrence_id = ? AND state <> ?`,
			planning.StateCancelled, recurrenceID, planning.StateCancelled)
	}
	return w.exec(ctx, "cancel occurrences",
		`UPDATE occurrences SET state = ? WHERE recurrence_id = ? AND state = ?`,
		planning.StateCancelled, recurrenceID, planning.StateUpcoming)
}

func (w writer) CloseContract(ctx context.Context, contractID int64, endsOn planning.Date) error {
	return w.execOne(ctx, "close contract", "contract", contractID, `
		UPDATE contracts SET ends_on = ?, status = ?, duration_kind = ? WHERE id = ?`,
		endsOn, planning.ContractTerminated, planning.DurationFixed, contractID)
}

// =============================================================================
// INVOICES
// =============================================================================

func (w writer) SetInvoiceAmount(ctx context.Context, invoiceID int64, amount decimal.Decimal) error {
	return w.execOne(ctx, "set invoice amount", "invoice", invoiceID,
		`UPDATE invoices SET amount = ? WHERE id = ?`, amount, invoiceID)
}

func (w writer) RecordPayment(ctx context.Context, invoiceID int64, p planning.Payment) error {
	return w.execOne(ctx, "record payment", "invoice", invoiceID, `
		UPDATE invoices
		SET state = ?, number = ?, method = ?, bank = ?, cheque_number = ?, paid_on = ?
		WHERE id = ?`,
		planning.Paid, p.Number, p.Method, p.Bank, p.ChequeNumber, p.PaidOn, invoiceID)
}

// =============================================================================
// AUDIT TRAILS (append-only)
// =============================================================================

func (w writer) AppendPriceRevision(ctx context.Context, r planning.PriceRevision) (int64, error) {
	return w.insert(ctx, "append price revision", `
		INSERT INTO price_revisions (invoice_id, old_amount, new_amount, changed_at, actor, is_cascade, batch)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.InvoiceID, r.OldAmount, r.NewAmount, formatTime(r.ChangedAt), r.Actor, r.Cascade, r.Batch)
}

func (w writer) AppendRescheduleEvent(ctx context.Context, e planning.RescheduleEvent) (int64, error) {
	return w.insert(ctx, "append reschedule event", `
		INSERT INTO reschedule_events (occurrence_id, reason, kind, created_at)
		VALUES (?, ?, ?, ?)`,
		e.OccurrenceID, e.Reason, e.Kind, formatTime(e.CreatedAt))
}

func (w writer) AppendRemark(ctx context.Context, m planning.Remark) (int64, error) {
	return w.insert(ctx, "append remark", `
		INSERT INTO remarks (client_id, occurrence_id, invoice_id, remark, problem, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ClientID, m.OccurrenceID, m.InvoiceID, m.Remark, m.Problem, m.Action, formatTime(m.CreatedAt))
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (w writer) UpdateAccount(ctx context.Context, a planning.Account) error {
	return w.execOne(ctx, "update account", "account", a.ID, `
		UPDATE accounts
		SET last_name = ?, first_name = ?, email = ?, username = ?, password_hash = ?
		WHERE id = ?`,
		a.LastName, a.FirstName, a.Email, a.Username, a.PasswordHash, a.ID)
}

func (w writer) DeleteAccount(ctx context.Context, id int64) error {
	return w.execOne(ctx, "delete account", "account", id, `DELETE FROM accounts WHERE id = ?`, id)
}
