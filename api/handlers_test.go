/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Contract creation and scheduling through the router
- Paged lists, price revision, termination, dashboard
- Error to status mapping
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/josoavj/Planificator/planning"
	"github.com/josoavj/Planificator/store/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := planning.NewService(store, planning.Options{})
	svc.Now = func() time.Time { return testNow }
	return NewRouter(NewHandler(svc), nil)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var contractBody = map[string]any{
	"client": map[string]any{
		"name":     "Hotel Colbert",
		"added_on": "2025-01-02",
		"category": "Société",
		"axis":     "Centre",
	},
	"contract": map[string]any{
		"number":        "C-2025-001",
		"signed_on":     "2025-01-02",
		"starts_on":     "2025-01-06",
		"duration_kind": "Indéterminée",
		"category":      "Nouveau",
	},
	"treatments": []map[string]any{{"category": "PC", "label": "Dératisation"}},
}

// scheduleQuarterly creates the contract above and schedules its treatment
// every three months from 2025-01-06.
func scheduleQuarterly(t *testing.T, h http.Handler) (PackageResultDTO, ScheduleResultDTO) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/contracts", contractBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pkg := decodeBody[PackageResultDTO](t, rec)
	require.Len(t, pkg.TreatmentIDs, 1)

	rec = do(t, h, http.MethodPost, "/api/treatments/"+itoa(pkg.TreatmentIDs[0])+"/schedule", map[string]any{
		"first_date":      "2025-01-06",
		"start_month":     1,
		"end_month":       12,
		"interval_months": 3,
		"amount":          "150 000 Ar",
		"axis":            "Centre",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return pkg, decodeBody[ScheduleResultDTO](t, rec)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestScheduleTreatment_EndToEnd(t *testing.T) {
	// GIVEN: A router on an empty store
	// WHEN: Creating a contract and scheduling its treatment quarterly
	// THEN: Four occurrences exist and can be paged

	h := newTestRouter(t)
	_, sched := scheduleQuarterly(t, h)

	require.Len(t, sched.Occurrences, 4)
	assert.Equal(t, "2025-01-06", sched.Occurrences[0].Date.String())

	rec := do(t, h, http.MethodGet, "/api/recurrences/"+itoa(sched.RecurrenceID)+"/occurrences?page=2&rows=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[struct {
		Items      []OccurrenceDTO `json:"items"`
		Page       int             `json:"page"`
		TotalRows  int             `json:"total_rows"`
		TotalPages int             `json:"total_pages"`
	}](t, rec)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 4, page.TotalRows)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, sched.Occurrences[3].OccurrenceID, page.Items[0].ID)
}

func TestRevisePrice(t *testing.T) {
	h := newTestRouter(t)
	_, sched := scheduleQuarterly(t, h)
	invoiceID := itoa(sched.Occurrences[1].InvoiceID)

	rec := do(t, h, http.MethodPost, "/api/invoices/"+invoiceID+"/price", map[string]any{
		"old_amount": "150000",
		"new_amount": "180 000 Ar",
		"actor":      "hery",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decodeBody[PriceResultDTO](t, rec).Updated)

	rec = do(t, h, http.MethodGet, "/api/invoices/"+invoiceID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inv := decodeBody[InvoiceDTO](t, rec)
	assert.Equal(t, "180000", inv.Amount.String())

	rec = do(t, h, http.MethodGet, "/api/invoices/"+invoiceID+"/revisions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	revisions := decodeBody[[]PriceRevisionDTO](t, rec)
	require.Len(t, revisions, 1)
	assert.False(t, revisions[0].Cascade)
	assert.Equal(t, "hery", revisions[0].Actor)
}

func TestTerminate(t *testing.T) {
	h := newTestRouter(t)
	pkg, sched := scheduleQuarterly(t, h)
	path := "/api/occurrences/" + itoa(sched.Occurrences[0].OccurrenceID) + "/terminate"

	rec := do(t, h, http.MethodPost, path, map[string]any{"effective_date": "2025-02-28"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/contracts/"+itoa(pkg.ContractID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	contract := decodeBody[ContractDTO](t, rec)
	assert.Equal(t, string(planning.ContractTerminated), contract.Status)
	assert.Equal(t, "2025-02-28", contract.EndsOn.String())

	rec = do(t, h, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeBody[ErrorResponse](t, rec).Code)
}

func TestDashboardEndpoint(t *testing.T) {
	h := newTestRouter(t)
	_, sched := scheduleQuarterly(t, h)

	rec := do(t, h, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeBody[DashboardDTO](t, rec)
	assert.Equal(t, 2025, d.Year)
	assert.Equal(t, 1, d.Month)
	require.Len(t, d.InProgress, 1)
	assert.Equal(t, sched.Occurrences[0].OccurrenceID, d.InProgress[0].OccurrenceID)
	assert.Equal(t, "Hotel Colbert", d.InProgress[0].ClientName)
	assert.Empty(t, d.Upcoming)

	rec = do(t, h, http.MethodGet, "/api/dashboard?year=2025&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewSchedule(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/schedule/preview", map[string]any{"start": "2025-03-03", "interval_months": 3})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decodeBody[PreviewDTO](t, rec)
	dates := make([]string, len(preview.Dates))
	for i, d := range preview.Dates {
		dates[i] = d.String()
	}
	assert.Equal(t, []string{"2025-03-03", "2025-06-03", "2025-09-03", "2025-12-03"}, dates)
}

func TestAccountsEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/accounts", map[string]any{
		"last_name":  "Randria",
		"first_name": "Hery",
		"email":      "hery@planificator.mg",
		"username":   "hery",
		"password":   "s3cret-pass",
		"confirm":    "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[CreatedDTO](t, rec).ID

	rec = do(t, h, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	accounts := decodeBody[[]AccountDTO](t, rec)
	require.Len(t, accounts, 1)
	assert.Equal(t, id, accounts[0].ID)

	rec = do(t, h, http.MethodDelete, "/api/accounts/"+itoa(id), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHolidaysEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/holidays", map[string]any{"date": "2025-08-14", "name": "Fermeture annuelle"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/holidays?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	holidays := decodeBody[[]HolidayDTO](t, rec)
	names := make(map[string]string)
	for _, hd := range holidays {
		names[hd.Date.String()] = hd.Name
	}
	assert.Contains(t, names, "2025-06-26")
	assert.Equal(t, "Fermeture annuelle", names["2025-08-14"])
}

func TestErrorStatuses(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown contract", http.MethodGet, "/api/contracts/999", nil, http.StatusNotFound, "not_found"},
		{"bad id", http.MethodGet, "/api/contracts/abc", nil, http.StatusBadRequest, "bad_request"},
		{"bad body", http.MethodPost, "/api/contracts", "not an object", http.StatusBadRequest, "bad_request"},
		{"missing client name", http.MethodPost, "/api/contracts", map[string]any{"client": map[string]any{}}, http.StatusBadRequest, "validation"},
		{"bad amount", http.MethodPost, "/api/treatments/1/schedule", map[string]any{"amount": "beaucoup"}, http.StatusBadRequest, "validation"},
		{"unknown recurrence", http.MethodGet, "/api/recurrences/42/occurrences", nil, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, rec).Code)
		})
	}
}

func TestWriteServiceError_Transient(t *testing.T) {
	rec := httptest.NewRecorder()

	writeServiceError(rec, "Failed", &planning.StorageError{Op: "insert", Transient: true, Err: errors.New("database is locked")})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decodeBody[ErrorResponse](t, rec).Code)
}
