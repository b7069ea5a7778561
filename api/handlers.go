/*
handlers.go - HTTP API handlers for the planning engine

PURPOSE:
  Exposes the planning service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to planning.Service.

ENDPOINTS:
  Contracts:
    POST   /api/contracts                      Create client + contract + treatments
    GET    /api/contracts                      Paged contract list
    GET    /api/contracts/{id}                 Contract details
    GET    /api/clients                        Paged client list

  Schedules:
    POST   /api/treatments/{id}/schedule       Recurrence with all occurrences
    POST   /api/recurrences                    Recurrence only
    POST   /api/recurrences/{id}/occurrences   One occurrence + invoice
    GET    /api/recurrences/{id}/occurrences   Paged occurrence list
    POST   /api/schedule/preview               Dates only, nothing stored

  Corrections:
    POST   /api/recurrences/{id}/shift         Shift an occurrence and the later ones
    POST   /api/occurrences/{id}/reschedule    Shift one occurrence (or signal)
    POST   /api/occurrences/{id}/remarks       Complete, optionally with payment
    POST   /api/occurrences/{id}/terminate     Terminate the owning contract
    GET    /api/occurrences/{id}/events        Reschedule history
    GET    /api/invoices/{id}                  Invoice details
    POST   /api/invoices/{id}/price            Revise price with cascade
    GET    /api/invoices/{id}/revisions        Price history

  Dashboard, holidays, accounts:
    GET    /api/dashboard?year=&month=
    GET    /api/holidays?year=  POST /api/holidays
    GET    /api/accounts        POST /api/accounts
    PUT    /api/accounts/{id}   DELETE /api/accounts/{id}

PAGINATION:
  List endpoints accept ?page= (1-based) and ?rows= (default 8, max 100)
  and answer a pagination.Page.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, bad dates or amounts, malformed body
  - 404: Referenced row not found
  - 503: Transient storage failure after retries; safe to resubmit
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware. Accounts are managed here but sessions
  are left to the desktop shell.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/josoavj/Planificator/pagination"
	"github.com/josoavj/Planificator/planning"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *planning.Service
}

// NewHandler creates a new handler on top of the planning service.
func NewHandler(svc *planning.Service) *Handler {
	return &Handler{Service: svc}
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// CreateContract stores a client, a contract and its treatments.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if !decode(w, r, &req) {
		return
	}

	pkg := planning.ContractPackage{
		Client:           req.Client.model(),
		ExistingClientID: req.ExistingClientID,
		Contract:         req.Contract.model(),
	}
	for _, t := range req.Treatments {
		pkg.Treatments = append(pkg.Treatments, planning.TreatmentType{Category: t.Category, Label: t.Label})
	}

	res, err := h.Service.CreateContractPackage(r.Context(), pkg)
	if err != nil {
		writeServiceError(w, "Failed to create contract", err)
		return
	}
	writeJSON(w, http.StatusCreated, PackageResultDTO{
		ClientID:     res.ClientID,
		ContractID:   res.ContractID,
		TreatmentIDs: res.TreatmentIDs,
	})
}

// ListContracts returns one page of contracts.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Service.ListContracts(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list contracts", err)
		return
	}
	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = toContractDTO(c.Contract, c.ClientName)
	}
	writePage(w, r, dtos)
}

// GetContract returns a single contract.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.Service.GetContract(r.Context(), id)
	if err != nil {
		writeServiceError(w, "Failed to get contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(c, ""))
}

// ListClients returns one page of clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListClients(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list clients", err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writePage(w, r, dtos)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// ScheduleTreatment creates the treatment's recurrence and every
// occurrence with its invoice.
func (h *Handler) ScheduleTreatment(w http.ResponseWriter, r *http.Request) {
	treatmentID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ScheduleRequest
	if !decode(w, r, &req) {
		return
	}
	amount, err := planning.ParseAmount("amount", req.Amount)
	if err != nil {
		writeServiceError(w, "Invalid amount", err)
		return
	}

	spec := req.spec()
	spec.TreatmentID = treatmentID
	res, err := h.Service.ScheduleTreatment(r.Context(), planning.ScheduleRequest{
		RecurrenceSpec: spec,
		Amount:         amount,
		Axis:           req.Axis,
	})
	if err != nil {
		writeServiceError(w, "Failed to schedule treatment", err)
		return
	}
	writeJSON(w, http.StatusCreated, ScheduleResultDTO{
		RecurrenceID: res.RecurrenceID,
		Occurrences:  toOccurrenceInvoiceDTOs(res.Occurrences),
	})
}

// CreateRecurrence stores a recurrence without occurrences.
func (h *Handler) CreateRecurrence(w http.ResponseWriter, r *http.Request) {
	var req RecurrenceRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Service.CreateRecurrence(r.Context(), req.spec())
	if err != nil {
		writeServiceError(w, "Failed to create recurrence", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecurrenceCreatedDTO{RecurrenceID: id})
}

// CreateOccurrence appends one occurrence and its invoice to a recurrence.
func (h *Handler) CreateOccurrence(w http.ResponseWriter, r *http.Request) {
	recurrenceID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req OccurrenceRequest
	if !decode(w, r, &req) {
		return
	}
	amount, err := planning.ParseAmount("amount", req.Amount)
	if err != nil {
		writeServiceError(w, "Invalid amount", err)
		return
	}
	pair, err := h.Service.CreateOccurrenceAndInvoice(r.Context(), recurrenceID, req.Date, amount, req.Axis)
	if err != nil {
		writeServiceError(w, "Failed to create occurrence", err)
		return
	}
	writeJSON(w, http.StatusCreated, OccurrenceInvoiceDTO{
		OccurrenceID: pair.OccurrenceID,
		InvoiceID:    pair.InvoiceID,
		Date:         pair.Date,
	})
}

// ListOccurrences returns one page of a recurrence's occurrences.
func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	recurrenceID, ok := pathID(w, r)
	if !ok {
		return
	}
	occs, err := h.Service.ListOccurrences(r.Context(), recurrenceID)
	if err != nil {
		writeServiceError(w, "Failed to list occurrences", err)
		return
	}
	dtos := make([]OccurrenceDTO, len(occs))
	for i, o := range occs {
		dtos[i] = toOccurrenceDTO(o)
	}
	writePage(w, r, dtos)
}

// PreviewSchedule returns the adjusted dates a recurrence would get.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decode(w, r, &req) {
		return
	}
	dates, err := h.Service.Generate(req.Start, req.IntervalMonths)
	if err != nil {
		writeServiceError(w, "Failed to generate dates", err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewDTO{Dates: dates})
}

// =============================================================================
// CORRECTION HANDLERS
// =============================================================================

// ShiftAll moves the reference occurrence and the later ones.
func (h *Handler) ShiftAll(w http.ResponseWriter, r *http.Request) {
	recurrenceID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ShiftAllRequest
	if !decode(w, r, &req) {
		return
	}
	occ, err := h.Service.RescheduleShiftAll(r.Context(), planning.ShiftAllRequest{
		RecurrenceID:          recurrenceID,
		ReferenceOccurrenceID: req.ReferenceOccurrenceID,
		Months:                req.Months,
		Direction:             planning.Direction(req.Direction),
		Reason:                req.Reason,
	})
	if err != nil {
		writeServiceError(w, "Failed to shift occurrences", err)
		return
	}
	writeJSON(w, http.StatusOK, toOccurrenceDTO(occ))
}

// Reschedule moves one occurrence, or dispatches a signal.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	occurrenceID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req RescheduleRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		occ planning.Occurrence
		err error
	)
	if req.Signal {
		occ, err = h.Service.Signal(r.Context(), planning.SignalRequest{
			OccurrenceID: occurrenceID,
			NewDate:      req.NewDate,
			Reason:       req.Reason,
			ShiftLater:   req.ShiftLater,
		})
	} else {
		occ, err = h.Service.RescheduleShiftOne(r.Context(), planning.ShiftOneRequest{
			OccurrenceID: occurrenceID,
			NewDate:      req.NewDate,
			Kind:         planning.RescheduleKind(req.Kind),
			Reason:       req.Reason,
		})
	}
	if err != nil {
		writeServiceError(w, "Failed to reschedule occurrence", err)
		return
	}
	writeJSON(w, http.StatusOK, toOccurrenceDTO(occ))
}

// RecordRemark completes an occurrence.
func (h *Handler) RecordRemark(w http.ResponseWriter, r *http.Request) {
	occurrenceID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req RemarkRequest
	if !decode(w, r, &req) {
		return
	}

	in := planning.RemarkRequest{
		OccurrenceID: occurrenceID,
		Remark:       req.Remark,
		Problem:      req.Problem,
		Action:       req.Action,
	}
	if p := req.Payment; p != nil {
		in.Payment = &planning.Payment{
			Number:       p.Number,
			Method:       planning.PaymentMethod(p.Method),
			Bank:         p.Bank,
			ChequeNumber: p.ChequeNumber,
			PaidOn:       p.PaidOn,
		}
	}

	id, err := h.Service.RecordRemark(r.Context(), in)
	if err != nil {
		writeServiceError(w, "Failed to record remark", err)
		return
	}
	writeJSON(w, http.StatusCreated, RemarkCreatedDTO{RemarkID: id})
}

// Terminate closes the contract owning the occurrence.
func (h *Handler) Terminate(w http.ResponseWriter, r *http.Request) {
	occurrenceID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TerminateRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if err := h.Service.TerminateContract(r.Context(), occurrenceID, req.EffectiveDate); err != nil {
		writeServiceError(w, "Failed to terminate contract", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRescheduleEvents returns an occurrence's reschedule history.
func (h *Handler) ListRescheduleEvents(w http.ResponseWriter, r *http.Request) {
	occurrenceID, ok := pathID(w, r)
	if !ok {
		return
	}
	events, err := h.Service.ListRescheduleEvents(r.Context(), occurrenceID)
	if err != nil {
		writeServiceError(w, "Failed to list reschedule events", err)
		return
	}
	dtos := make([]RescheduleEventDTO, len(events))
	for i, e := range events {
		dtos[i] = RescheduleEventDTO{
			ID:           e.ID,
			OccurrenceID: e.OccurrenceID,
			Reason:       e.Reason,
			Kind:         string(e.Kind),
			CreatedAt:    e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetInvoice returns a single invoice.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.Service.GetInvoice(r.Context(), id)
	if err != nil {
		writeServiceError(w, "Failed to get invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

// RevisePrice changes an invoice amount and cascades to later invoices.
func (h *Handler) RevisePrice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req PriceRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Service.ReviseInvoicePrice(r.Context(), planning.PriceRevisionRequest{
		InvoiceID: invoiceID,
		OldAmount: req.OldAmount,
		NewAmount: req.NewAmount,
		Actor:     req.Actor,
	})
	if err != nil {
		writeServiceError(w, "Failed to revise price", err)
		return
	}
	writeJSON(w, http.StatusOK, PriceResultDTO{Updated: n})
}

// ListPriceRevisions returns an invoice's price history.
func (h *Handler) ListPriceRevisions(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(w, r)
	if !ok {
		return
	}
	revisions, err := h.Service.ListPriceRevisions(r.Context(), invoiceID)
	if err != nil {
		writeServiceError(w, "Failed to list price revisions", err)
		return
	}
	dtos := make([]PriceRevisionDTO, len(revisions))
	for i, p := range revisions {
		dtos[i] = PriceRevisionDTO{
			ID:        p.ID,
			InvoiceID: p.InvoiceID,
			OldAmount: p.OldAmount,
			NewAmount: p.NewAmount,
			ChangedAt: p.ChangedAt,
			Actor:     p.Actor,
			Cascade:   p.Cascade,
			Batch:     p.Batch,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard returns the month in progress and the next month's upcoming
// occurrences. Year and month default to today.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	today := planning.DateOf(h.Service.Now())
	year, ok := queryInt(w, r, "year", today.Year())
	if !ok {
		return
	}
	month, ok := queryInt(w, r, "month", int(today.Month()))
	if !ok {
		return
	}

	d, err := h.Service.Dashboard(r.Context(), year, time.Month(month))
	if err != nil {
		writeServiceError(w, "Failed to load dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardDTO{
		Year:       d.Year,
		Month:      int(d.Month),
		InProgress: toOccurrenceViewDTOs(d.InProgress),
		Upcoming:   toOccurrenceViewDTOs(d.Upcoming),
	})
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns the year's statutory and custom holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(w, r, "year", planning.DateOf(h.Service.Now()).Year())
	if !ok {
		return
	}
	holidays := h.Service.Calendar.Holidays(year)
	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = HolidayDTO{ID: hd.ID, Jurisdiction: hd.Jurisdiction, Date: hd.Date, Name: hd.Name, Recurring: hd.Recurring}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday stores a custom holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Service.AddHoliday(r.Context(), planning.Holiday{Date: req.Date, Name: req.Name, Recurring: req.Recurring})
	if err != nil {
		writeServiceError(w, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedDTO{ID: id})
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

// ListAccounts returns the user accounts. The administrator is not listed.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Service.ListAccounts(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list accounts", err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Service.CreateAccount(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedDTO{ID: id})
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AccountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Service.UpdateAccount(r.Context(), id, req.input()); err != nil {
		writeServiceError(w, "Failed to update account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteAccount(r.Context(), id); err != nil {
		writeServiceError(w, "Failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps planning errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	var verr *planning.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   message,
			Code:    "validation",
			Details: map[string]string{"field": verr.Field, "message": verr.Message},
		})
	case planning.IsClientError(err):
		writeError(w, http.StatusBadRequest, "validation", message, err)
	case planning.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", message, err)
	case planning.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, "unavailable", message, err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", message, err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body", err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid id", err)
		return 0, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid "+key, err)
		return 0, false
	}
	return n, true
}

// writePage answers one window of items, driven by ?page= and ?rows=.
func writePage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return
	}
	rows, ok := queryInt(w, r, "rows", pagination.DefaultRowsPerPage)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pagination.Window(items, page, rows))
}
