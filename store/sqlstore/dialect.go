package sqlstore

import (
	"strconv"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// creationLockKey identifies the creation workflow's advisory lock.
const creationLockKey = 7_318_202_401

type dialect struct {
	name string

	// types substitutes the column type placeholders of schemaTemplate.
	types *strings.Replacer

	// triggers enforce the append-only audit tables.
	triggers string

	numbered bool // $1, $2... instead of ?
}

var sqliteDialect = &dialect{
	name: DriverSQLite,
	types: strings.NewReplacer(
		"{{ID}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{DATE}}", "TEXT",
		"{{AMOUNT}}", "TEXT",
		"{{BOOL}}", "BOOLEAN",
	),
	triggers: `
	CREATE TRIGGER IF NOT EXISTS price_revisions_no_update BEFORE UPDATE ON price_revisions
	BEGIN SELECT RAISE(ABORT, 'price_revisions is append-only'); END;
	CREATE TRIGGER IF NOT EXISTS price_revisions_no_delete BEFORE DELETE ON price_revisions
	BEGIN SELECT RAISE(ABORT, 'price_revisions is append-only'); END;
	CREATE TRIGGER IF NOT EXISTS reschedule_events_no_update BEFORE UPDATE ON reschedule_events
	BEGIN SELECT RAISE(ABORT, 'reschedule_events is append-only'); END;
	CREATE TRIGGER IF NOT EXISTS reschedule_events_no_delete BEFORE DELETE ON reschedule_events
	BEGIN SELECT RAISE(ABORT, 'reschedule_events is append-only'); END;
	CREATE TRIGGER IF NOT EXISTS remarks_no_update BEFORE UPDATE ON remarks
	BEGIN SELECT RAISE(ABORT, 'remarks is append-only'); END;
	`,
}

var postgresDialect = &dialect{
	name: DriverPostgres,
	types: strings.NewReplacer(
		"{{ID}}", "BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY",
		"{{DATE}}", "DATE",
		"{{AMOUNT}}", "NUMERIC(14, 2)",
		"{{BOOL}}", "BOOLEAN",
	),
	triggers: `
	CREATE OR REPLACE FUNCTION reject_audit_change() RETURNS trigger AS $$
	BEGIN
		RAISE EXCEPTION '% is append-only', TG_TABLE_NAME;
	END;
	$$ LANGUAGE plpgsql;

	DROP TRIGGER IF EXISTS price_revisions_append_only ON price_revisions;
	CREATE TRIGGER price_revisions_append_only BEFORE UPDATE OR DELETE ON price_revisions
		FOR EACH ROW EXECUTE FUNCTION reject_audit_change();
	DROP TRIGGER IF EXISTS reschedule_events_append_only ON reschedule_events;
	CREATE TRIGGER reschedule_events_append_only BEFORE UPDATE OR DELETE ON reschedule_events
		FOR EACH ROW EXECUTE FUNCTION reject_audit_change();
	DROP TRIGGER IF EXISTS remarks_append_only ON remarks;
	CREATE TRIGGER remarks_append_only BEFORE UPDATE ON remarks
		FOR EACH ROW EXECUTE FUNCTION reject_audit_change();
	`,
	numbered: true,
}

func dialectFor(driver string) (*dialect, bool) {
	switch driver {
	case DriverSQLite, "sqlite":
		return sqliteDialect, true
	case DriverPostgres, "postgres", "postgresql":
		return postgresDialect, true
	}
	return nil, false
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
// Queries in this package never contain a literal question mark.
func (d *dialect) rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (d *dialect) schema() string {
	return d.types.Replace(schemaTemplate) + d.triggers
}

const schemaTemplate = `
	CREATE TABLE IF NOT EXISTS clients (
		id {{ID}},
		name TEXT NOT NULL,
		contact TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		added_on {{DATE}} NOT NULL,
		category TEXT NOT NULL,
		axis TEXT NOT NULL DEFAULT '',
		nif TEXT NOT NULL DEFAULT '',
		stat TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS contracts (
		id {{ID}},
		client_id BIGINT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		number TEXT NOT NULL,
		signed_on {{DATE}} NOT NULL,
		starts_on {{DATE}} NOT NULL,
		ends_on {{DATE}},
		duration_months INTEGER NOT NULL,
		duration_kind TEXT NOT NULL,
		category TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_client ON contracts(client_id);

	CREATE TABLE IF NOT EXISTS treatment_types (
		id {{ID}},
		category TEXT NOT NULL,
		label TEXT NOT NULL,
		UNIQUE(category, label)
	);

	CREATE TABLE IF NOT EXISTS treatments (
		id {{ID}},
		contract_id BIGINT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		type_id BIGINT NOT NULL REFERENCES treatment_types(id)
	);

	CREATE INDEX IF NOT EXISTS idx_treatments_contract ON treatments(contract_id);

	-- One recurrence per treatment
	CREATE TABLE IF NOT EXISTS recurrences (
		id {{ID}},
		treatment_id BIGINT NOT NULL UNIQUE REFERENCES treatments(id) ON DELETE CASCADE,
		first_date {{DATE}} NOT NULL,
		start_month INTEGER NOT NULL,
		end_month INTEGER NOT NULL,
		interval_months INTEGER NOT NULL,
		nominal_end {{DATE}} NOT NULL
	);

	CREATE TABLE IF NOT EXISTS occurrences (
		id {{ID}},
		recurrence_id BIGINT NOT NULL REFERENCES recurrences(id) ON DELETE CASCADE,
		date {{DATE}} NOT NULL,
		state TEXT NOT NULL
	);

	-- Shift-all selects by id range within a recurrence
	CREATE INDEX IF NOT EXISTS idx_occurrences_recurrence ON occurrences(recurrence_id, id);
	-- Dashboard projections scan by month
	CREATE INDEX IF NOT EXISTS idx_occurrences_date ON occurrences(date);

	CREATE TABLE IF NOT EXISTS invoices (
		id {{ID}},
		occurrence_id BIGINT NOT NULL UNIQUE REFERENCES occurrences(id) ON DELETE CASCADE,
		amount {{AMOUNT}} NOT NULL,
		treatment_date {{DATE}} NOT NULL,
		axis TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL,
		number TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		bank TEXT NOT NULL DEFAULT '',
		cheque_number TEXT NOT NULL DEFAULT '',
		paid_on {{DATE}}
	);

	-- Append-only audit rows
	CREATE TABLE IF NOT EXISTS price_revisions (
		id {{ID}},
		invoice_id BIGINT NOT NULL REFERENCES invoices(id),
		old_amount {{AMOUNT}} NOT NULL,
		new_amount {{AMOUNT}} NOT NULL,
		changed_at TEXT NOT NULL,
		actor TEXT NOT NULL DEFAULT '',
		is_cascade {{BOOL}} NOT NULL DEFAULT FALSE,
		batch TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_price_revisions_invoice ON price_revisions(invoice_id);

	CREATE TABLE IF NOT EXISTS reschedule_events (
		id {{ID}},
		occurrence_id BIGINT NOT NULL REFERENCES occurrences(id),
		reason TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reschedule_events_occurrence ON reschedule_events(occurrence_id);

	CREATE TABLE IF NOT EXISTS remarks (
		id {{ID}},
		client_id BIGINT NOT NULL,
		occurrence_id BIGINT NOT NULL REFERENCES occurrences(id),
		invoice_id BIGINT NOT NULL,
		remark TEXT NOT NULL DEFAULT '',
		problem TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_remarks_occurrence ON remarks(occurrence_id);

	CREATE TABLE IF NOT EXISTS accounts (
		id {{ID}},
		last_name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		email TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		kind TEXT NOT NULL
	);

	-- Custom holidays, merged into the computed calendar
	CREATE TABLE IF NOT EXISTS holidays (
		id {{ID}},
		jurisdiction TEXT NOT NULL,
		date {{DATE}} NOT NULL,
		name TEXT NOT NULL,
		recurring {{BOOL}} NOT NULL DEFAULT FALSE,
		UNIQUE(jurisdiction, date, name)
	);
`
