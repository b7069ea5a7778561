package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/josoavj/Planificator/planning"
)

// reader implements planning.Reader over a *sql.DB or a *sql.Tx.
type reader struct {
	q querier
	d *dialect
}

func (r reader) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.d.rebind(query), args...)
}

func (r reader) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.d.rebind(query), args...)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// collect scans every row with scan. The result is never nil.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// list runs a query and collects its rows, classifying failures.
func list[T any](ctx context.Context, r reader, op string, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	out, err := collect(rows, scan)
	if err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// =============================================================================
// CLIENTS & CONTRACTS
// =============================================================================

const clientColumns = `id, name, contact, email, phone, address, added_on, category, axis, nif, stat`

func scanClient(s scanner) (planning.Client, error) {
	var c planning.Client
	err := s.Scan(&c.ID, &c.Name, &c.Contact, &c.Email, &c.Phone, &c.Address,
		&c.AddedOn, &c.Category, &c.Axis, &c.NIF, &c.STAT)
	return c, err
}

func (r reader) GetClient(ctx context.Context, id int64) (planning.Client, error) {
	c, err := scanClient(r.queryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err != nil {
		return planning.Client{}, notFound("get client", "client", id, err)
	}
	return c, nil
}

func (r reader) ListClients(ctx context.Context) ([]planning.Client, error) {
	return list(ctx, r, "list clients", scanClient,
		`SELECT `+clientColumns+` FROM clients ORDER BY name, id`)
}

const contractColumns = `c.id, c.client_id, c.number, c.signed_on, c.starts_on, c.ends_on,
	c.duration_months, c.duration_kind, c.category, c.status`

func scanContract(s scanner, extra ...any) (planning.Contract, error) {
	var c planning.Contract
	dest := []any{&c.ID, &c.ClientID, &c.Number, &c.SignedOn, &c.StartsOn, &c.EndsOn,
		&c.DurationMonths, &c.DurationKind, &c.Category, &c.Status}
	err := s.Scan(append(dest, extra...)...)
	return c, err
}

func (r reader) GetContract(ctx context.Context, id int64) (planning.Contract, error) {
	c, err := scanContract(r.queryRow(ctx, `SELECT `+contractColumns+` FROM contracts c WHERE c.id = ?`, id))
	if err != nil {
		return planning.Contract{}, notFound("get contract", "contract", id, err)
	}
	return c, nil
}

func (r reader) ListContracts(ctx context.Context) ([]planning.ContractView, error) {
	return list(ctx, r, "list contracts", func(s scanner) (planning.ContractView, error) {
		var v planning.ContractView
		c, err := scanContract(s, &v.ClientName)
		v.Contract = c
		return v, err
	}, `SELECT `+contractColumns+`, cl.name
		FROM contracts c JOIN clients cl ON cl.id = c.client_id
		ORDER BY c.starts_on DESC, c.id DESC`)
}

func (r reader) GetTreatment(ctx context.Context, id int64) (planning.Treatment, error) {
	var t planning.Treatment
	err := r.queryRow(ctx, `SELECT id, contract_id, type_id FROM treatments WHERE id = ?`, id).
		Scan(&t.ID, &t.ContractID, &t.TypeID)
	if err != nil {
		return planning.Treatment{}, notFound("get treatment", "treatment", id, err)
	}
	return t, nil
}

// =============================================================================
// RECURRENCES & OCCURRENCES
// =============================================================================

const recurrenceColumns = `id, treatment_id, first_date, start_month, end_month, interval_months, nominal_end`

func scanRecurrence(s scanner) (planning.Recurrence, error) {
	var rec planning.Recurrence
	err := s.Scan(&rec.ID, &rec.TreatmentID, &rec.FirstDate, &rec.StartMonth,
		&rec.EndMonth, &rec.IntervalMonths, &rec.NominalEnd)
	return rec, err
}

func (r reader) GetRecurrence(ctx context.Context, id int64) (planning.Recurrence, error) {
	rec, err := scanRecurrence(r.queryRow(ctx, `SELECT `+recurrenceColumns+` FROM recurrences WHERE id = ?`, id))
	if err != nil {
		return planning.Recurrence{}, notFound("get recurrence", "recurrence", id, err)
	}
	return rec, nil
}

func (r reader) RecurrenceForTreatment(ctx context.Context, treatmentID int64) (planning.Recurrence, error) {
	rec, err := scanRecurrence(r.queryRow(ctx,
		`SELECT `+recurrenceColumns+` FROM recurrences WHERE treatment_id = ?`, treatmentID))
	if err != nil {
		return planning.Recurrence{}, notFound("get recurrence by treatment", "recurrence for treatment", treatmentID, err)
	}
	return rec, nil
}

func (r reader) ListRecurrences(ctx context.Context, contractID int64) ([]planning.Recurrence, error) {
	return list(ctx, r, "list recurrences", scanRecurrence,
		`SELECT r.id, r.treatment_id, r.first_date, r.start_month, r.end_month, r.interval_months, r.nominal_end
		FROM recurrences r JOIN treatments t ON t.id = r.treatment_id
		WHERE t.contract_id = ?
		ORDER BY r.id`, contractID)
}

func scanOccurrence(s scanner) (planning.Occurrence, error) {
	var o planning.Occurrence
	err := s.Scan(&o.ID, &o.RecurrenceID, &o.Date, &o.State)
	return o, err
}

func (r reader) GetOccurrence(ctx context.Context, id int64) (planning.Occurrence, error) {
	o, err := scanOccurrence(r.queryRow(ctx,
		`SELECT id, recurrence_id, date, state FROM occurrences WHERE id = ?`, id))
	if err != nil {
		return planning.Occurrence{}, notFound("get occurrence", "occurrence", id, err)
	}
	return o, nil
}

func (r reader) ListOccurrences(ctx context.Context, recurrenceID int64) ([]planning.Occurrence, error) {
	return list(ctx, r, "list occurrences", scanOccurrence,
		`SELECT id, recurrence_id, date, state FROM occurrences WHERE recurrence_id = ? ORDER BY id`,
		recurrenceID)
}

func (r reader) Owner(ctx context.Context, occurrenceID int64) (planning.OccurrenceOwner, error) {
	var o planning.OccurrenceOwner
	err := r.queryRow(ctx, `
		SELECT o.id, r.id, t.id, c.id, c.client_id, COALESCE(i.id, 0)
		FROM occurrences o
		JOIN recurrences r ON r.id = o.recurrence_id
		JOIN treatments t ON t.id = r.treatment_id
		JOIN contracts c ON c.id = t.contract_id
		LEFT JOIN invoices i ON i.occurrence_id = o.id
		WHERE o.id = ?`, occurrenceID).
		Scan(&o.OccurrenceID, &o.RecurrenceID, &o.TreatmentID, &o.ContractID, &o.ClientID, &o.InvoiceID)
	if err != nil {
		return planning.OccurrenceOwner{}, notFound("resolve occurrence owner", "occurrence", occurrenceID, err)
	}
	return o, nil
}

// ListOccurrenceViews joins each occurrence in [from, to] with its
// treatment type, client and invoice.
func (r reader) ListOccurrenceViews(ctx context.Context, from, to planning.Date) ([]planning.OccurrenceView, error) {
	return list(ctx, r, "list occurrence views", func(s scanner) (planning.OccurrenceView, error) {
		var v planning.OccurrenceView
		err := s.Scan(&v.OccurrenceID, &v.RecurrenceID, &v.TreatmentID, &v.ContractID, &v.ClientID,
			&v.InvoiceID, &v.Date, &v.State, &v.TreatmentType, &v.ClientName, &v.Axis,
			&v.Amount, &v.PaymentState)
		return v, err
	}, `
		SELECT o.id, r.id, t.id, c.id, cl.id, i.id, o.date, o.state,
		       tt.label, cl.name, i.axis, i.amount, i.state
		FROM occurrences o
		JOIN recurrences r ON r.id = o.recurrence_id
		JOIN treatments t ON t.id = r.treatment_id
		JOIN treatment_types tt ON tt.id = t.type_id
		JOIN contracts c ON c.id = t.contract_id
		JOIN clients cl ON cl.id = c.client_id
		JOIN invoices i ON i.occurrence_id = o.id
		WHERE o.date >= ? AND o.date <= ?
		ORDER BY o.date, o.id`, from, to)
}

// =============================================================================
// INVOICES
// =============================================================================

const invoiceColumns = `i.id, i.occurrence_id, i.amount, i.treatment_date, i.axis, i.state,
	i.number, i.method, i.bank, i.cheque_number, i.paid_on`

func scanInvoice(s scanner) (planning.Invoice, error) {
	var inv planning.Invoice
	err := s.Scan(&inv.ID, &inv.OccurrenceID, &inv.Amount, &inv.TreatmentDate, &inv.Axis, &inv.State,
		&inv.Number, &inv.Method, &inv.Bank, &inv.ChequeNumber, &inv.PaidOn)
	return inv, err
}

func (r reader) GetInvoice(ctx context.Context, id int64) (planning.Invoice, error) {
	inv, err := scanInvoice(r.queryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices i WHERE i.id = ?`, id))
	if err != nil {
		return planning.Invoice{}, notFound("get invoice", "invoice", id, err)
	}
	return inv, nil
}

func (r reader) GetInvoiceByOccurrence(ctx context.Context, occurrenceID int64) (planning.Invoice, error) {
	inv, err := scanInvoice(r.queryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices i WHERE i.occurrence_id = ?`, occurrenceID))
	if err != nil {
		return planning.Invoice{}, notFound("get invoice by occurrence", "invoice for occurrence", occurrenceID, err)
	}
	return inv, nil
}

// InvoicesAfter orders by occurrence date, then id.
func (r reader) InvoicesAfter(ctx context.Context, recurrenceID int64, after planning.Date) ([]planning.Invoice, error) {
	return list(ctx, r, "list later invoices", scanInvoice, `
		SELECT `+invoiceColumns+`
		FROM invoices i JOIN occurrences o ON o.id = i.occurrence_id
		WHERE o.recurrence_id = ? AND o.date > ?
		ORDER BY o.date, o.id`, recurrenceID, after)
}

// =============================================================================
// AUDIT TRAILS
// =============================================================================

func (r reader) ListPriceRevisions(ctx context.Context, invoiceID int64) ([]planning.PriceRevision, error) {
	return list(ctx, r, "list price revisions", func(s scanner) (planning.PriceRevision, error) {
		var (
			p         planning.PriceRevision
			changedAt string
		)
		err := s.Scan(&p.ID, &p.InvoiceID, &p.OldAmount, &p.NewAmount, &changedAt, &p.Actor, &p.Cascade, &p.Batch)
		p.ChangedAt = parseTime(changedAt)
		return p, err
	}, `SELECT id, invoice_id, old_amount, new_amount, changed_at, actor, is_cascade, batch
		FROM price_revisions WHERE invoice_id = ? ORDER BY id`, invoiceID)
}

func (r reader) ListRescheduleEvents(ctx context.Context, occurrenceID int64) ([]planning.RescheduleEvent, error) {
	return list(ctx, r, "list reschedule events", func(s scanner) (planning.RescheduleEvent, error) {
		var (
			e         planning.RescheduleEvent
			createdAt string
		)
		err := s.Scan(&e.ID, &e.OccurrenceID, &e.Reason, &e.Kind, &createdAt)
		e.CreatedAt = parseTime(createdAt)
		return e, err
	}, `SELECT id, occurrence_id, reason, kind, created_at
		FROM reschedule_events WHERE occurrence_id = ? ORDER BY id`, occurrenceID)
}

// ListRemarks returns the remarks of every occurrence of a recurrence.
func (r reader) ListRemarks(ctx context.Context, recurrenceID int64) ([]planning.Remark, error) {
	return list(ctx, r, "list remarks", func(s scanner) (planning.Remark, error) {
		var (
			m         planning.Remark
			createdAt string
		)
		err := s.Scan(&m.ID, &m.ClientID, &m.OccurrenceID, &m.InvoiceID, &m.Remark, &m.Problem, &m.Action, &createdAt)
		m.CreatedAt = parseTime(createdAt)
		return m, err
	}, `SELECT m.id, m.client_id, m.occurrence_id, m.invoice_id, m.remark, m.problem, m.action, m.created_at
		FROM remarks m JOIN occurrences o ON o.id = m.occurrence_id
		WHERE o.recurrence_id = ?
		ORDER BY m.id`, recurrenceID)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

const accountColumns = `id, last_name, first_name, email, username, password_hash, kind`

func scanAccount(s scanner) (planning.Account, error) {
	var a planning.Account
	err := s.Scan(&a.ID, &a.LastName, &a.FirstName, &a.Email, &a.Username, &a.PasswordHash, &a.Kind)
	return a, err
}

func (r reader) GetAccount(ctx context.Context, id int64) (planning.Account, error) {
	a, err := scanAccount(r.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if err != nil {
		return planning.Account{}, notFound("get account", "account", id, err)
	}
	return a, nil
}

func (r reader) GetAccountByUsername(ctx context.Context, username string) (planning.Account, error) {
	a, err := scanAccount(r.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username))
	if err != nil {
		return planning.Account{}, notFound("get account by username", "account", 0, err)
	}
	return a, nil
}

func (r reader) ListAccounts(ctx context.Context, includeAdmins bool) ([]planning.Account, error) {
	if includeAdmins {
		return list(ctx, r, "list accounts", scanAccount,
			`SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	}
	return list(ctx, r, "list accounts", scanAccount,
		`SELECT `+accountColumns+` FROM accounts WHERE kind <> ? ORDER BY username`, planning.AccountAdmin)
}

// =============================================================================
// HOLIDAYS (planning.HolidaySource)
// =============================================================================

// CustomHolidays returns the jurisdiction's stored holidays dated in year,
// plus every recurring one whatever its stored year.
func (r reader) CustomHolidays(jurisdiction string, year int) ([]planning.Holiday, error) {
	from := planning.NewDate(year, time.January, 1)
	to := planning.NewDate(year, time.December, 31)
	return list(context.Background(), r, "list holidays", func(s scanner) (planning.Holiday, error) {
		var h planning.Holiday
		err := s.Scan(&h.ID, &h.Jurisdiction, &h.Date, &h.Name, &h.Recurring)
		return h, err
	}, `SELECT id, jurisdiction, date, name, recurring FROM holidays
		WHERE jurisdiction = ? AND (recurring OR (date >= ? AND date <= ?))
		ORDER BY date, id`, jurisdiction, from, to)
}

// =============================================================================
// TIME ENCODING
// =============================================================================

// Audit timestamps are stored as RFC 3339 text in both dialects.
func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
