/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the planning model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FORMATS:
  - Dates are "YYYY-MM-DD" strings (planning.Date implements TextMarshaler)
  - Amounts in requests are strings as typed by the operator, e.g.
    "150 000 Ar"; amounts in responses are plain decimal strings

VALIDATION:
  Validation is done by the planning package. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/josoavj/Planificator/planning"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONTRACTS
// =============================================================================

type ClientDTO struct {
	ID       int64         `json:"id,omitempty"`
	Name     string        `json:"name"`
	Contact  string        `json:"contact,omitempty"`
	Email    string        `json:"email,omitempty"`
	Phone    string        `json:"phone,omitempty"`
	Address  string        `json:"address,omitempty"`
	AddedOn  planning.Date `json:"added_on"`
	Category string        `json:"category"`
	Axis     string        `json:"axis"`
	NIF      string        `json:"nif,omitempty"`
	STAT     string        `json:"stat,omitempty"`
}

type ContractDTO struct {
	ID             int64         `json:"id,omitempty"`
	ClientID       int64         `json:"client_id,omitempty"`
	ClientName     string        `json:"client_name,omitempty"`
	Number         string        `json:"number"`
	SignedOn       planning.Date `json:"signed_on"`
	StartsOn       planning.Date `json:"starts_on"`
	EndsOn         planning.Date `json:"ends_on"`
	DurationMonths int           `json:"duration_months"`
	DurationKind   string        `json:"duration_kind"`
	Category       string        `json:"category"`
	Status         string        `json:"status,omitempty"`
}

type TreatmentTypeDTO struct {
	Category string `json:"category"`
	Label    string `json:"label"`
}

// CreateContractRequest is a signed contract with its treatments. Set
// existing_client_id instead of client for a renewal.
type CreateContractRequest struct {
	Client           ClientDTO          `json:"client"`
	ExistingClientID int64              `json:"existing_client_id,omitempty"`
	Contract         ContractDTO        `json:"contract"`
	Treatments       []TreatmentTypeDTO `json:"treatments"`
}

type PackageResultDTO struct {
	ClientID     int64   `json:"client_id"`
	ContractID   int64   `json:"contract_id"`
	TreatmentIDs []int64 `json:"treatment_ids"`
}

// =============================================================================
// RECURRENCES & OCCURRENCES
// =============================================================================

type RecurrenceRequest struct {
	TreatmentID    int64         `json:"treatment_id"`
	FirstDate      planning.Date `json:"first_date"`
	StartMonth     int           `json:"start_month"`
	EndMonth       int           `json:"end_month"`
	IntervalMonths int           `json:"interval_months"`
	NominalEnd     planning.Date `json:"nominal_end"`
}

func (r RecurrenceRequest) spec() planning.RecurrenceSpec {
	return planning.RecurrenceSpec{
		TreatmentID:    r.TreatmentID,
		FirstDate:      r.FirstDate,
		StartMonth:     r.StartMonth,
		EndMonth:       r.EndMonth,
		IntervalMonths: r.IntervalMonths,
		NominalEnd:     r.NominalEnd,
	}
}

type RecurrenceCreatedDTO struct {
	RecurrenceID int64 `json:"recurrence_id"`
}

// ScheduleRequest creates a recurrence with all its occurrences. The
// treatment comes from the URL.
type ScheduleRequest struct {
	RecurrenceRequest
	Amount string `json:"amount"`
	Axis   string `json:"axis"`
}

type OccurrenceRequest struct {
	Date   planning.Date `json:"date"`
	Amount string        `json:"amount"`
	Axis   string        `json:"axis"`
}

type OccurrenceInvoiceDTO struct {
	OccurrenceID int64         `json:"occurrence_id"`
	InvoiceID    int64         `json:"invoice_id"`
	Date         planning.Date `json:"date"`
}

type ScheduleResultDTO struct {
	RecurrenceID int64                  `json:"recurrence_id"`
	Occurrences  []OccurrenceInvoiceDTO `json:"occurrences"`
}

type OccurrenceDTO struct {
	ID           int64         `json:"id"`
	RecurrenceID int64         `json:"recurrence_id"`
	Date         planning.Date `json:"date"`
	State        string        `json:"state"`
}

type PreviewRequest struct {
	Start          planning.Date `json:"start"`
	IntervalMonths int           `json:"interval_months"`
}

type PreviewDTO struct {
	Dates []planning.Date `json:"dates"`
}

// =============================================================================
// CORRECTIONS
// =============================================================================

type ShiftAllRequest struct {
	ReferenceOccurrenceID int64  `json:"reference_occurrence_id"`
	Months                int    `json:"months"`
	Direction             string `json:"direction"`
	Reason                string `json:"reason"`
}

// RescheduleRequest moves one occurrence. With signal set, kind and offset
// are derived from new_date and shift_later decides whether the following
// occurrences move too.
type RescheduleRequest struct {
	NewDate    planning.Date `json:"new_date"`
	Kind       string        `json:"kind,omitempty"`
	Reason     string        `json:"reason"`
	Signal     bool          `json:"signal,omitempty"`
	ShiftLater bool          `json:"shift_later,omitempty"`
}

type RescheduleEventDTO struct {
	ID           int64     `json:"id"`
	OccurrenceID int64     `json:"occurrence_id"`
	Reason       string    `json:"reason"`
	Kind         string    `json:"kind"`
	CreatedAt    time.Time `json:"created_at"`
}

type PriceRequest struct {
	OldAmount string `json:"old_amount"`
	NewAmount string `json:"new_amount"`
	Actor     string `json:"actor,omitempty"`
}

type PriceResultDTO struct {
	Updated int `json:"updated"`
}

type PriceRevisionDTO struct {
	ID        int64           `json:"id"`
	InvoiceID int64           `json:"invoice_id"`
	OldAmount decimal.Decimal `json:"old_amount"`
	NewAmount decimal.Decimal `json:"new_amount"`
	ChangedAt time.Time       `json:"changed_at"`
	Actor     string          `json:"actor,omitempty"`
	Cascade   bool            `json:"cascade"`
	Batch     string          `json:"batch"`
}

type TerminateRequest struct {
	EffectiveDate planning.Date `json:"effective_date"`
}

// =============================================================================
// REMARKS & PAYMENTS
// =============================================================================

type PaymentDTO struct {
	Number       string        `json:"number"`
	Method       string        `json:"method"`
	Bank         string        `json:"bank,omitempty"`
	ChequeNumber string        `json:"cheque_number,omitempty"`
	PaidOn       planning.Date `json:"paid_on"`
}

type RemarkRequest struct {
	Remark  string      `json:"remark"`
	Problem string      `json:"problem,omitempty"`
	Action  string      `json:"action,omitempty"`
	Payment *PaymentDTO `json:"payment,omitempty"`
}

type RemarkCreatedDTO struct {
	RemarkID int64 `json:"remark_id"`
}

type InvoiceDTO struct {
	ID            int64           `json:"id"`
	OccurrenceID  int64           `json:"occurrence_id"`
	Amount        decimal.Decimal `json:"amount"`
	TreatmentDate planning.Date   `json:"treatment_date"`
	Axis          string          `json:"axis"`
	State         string          `json:"state"`
	Number        string          `json:"number,omitempty"`
	Method        string          `json:"method,omitempty"`
	Bank          string          `json:"bank,omitempty"`
	ChequeNumber  string          `json:"cheque_number,omitempty"`
	PaidOn        planning.Date   `json:"paid_on"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

type OccurrenceViewDTO struct {
	OccurrenceID  int64           `json:"occurrence_id"`
	RecurrenceID  int64           `json:"recurrence_id"`
	TreatmentID   int64           `json:"treatment_id"`
	ContractID    int64           `json:"contract_id"`
	ClientID      int64           `json:"client_id"`
	InvoiceID     int64           `json:"invoice_id"`
	Date          planning.Date   `json:"date"`
	State         string          `json:"state"`
	TreatmentType string          `json:"treatment_type"`
	ClientName    string          `json:"client_name"`
	Axis          string          `json:"axis"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentState  string          `json:"payment_state"`
}

type DashboardDTO struct {
	Year       int                 `json:"year"`
	Month      int                 `json:"month"`
	InProgress []OccurrenceViewDTO `json:"in_progress"`
	Upcoming   []OccurrenceViewDTO `json:"upcoming"`
}

// =============================================================================
// HOLIDAYS & ACCOUNTS
// =============================================================================

type HolidayDTO struct {
	ID           int64         `json:"id,omitempty"`
	Jurisdiction string        `json:"jurisdiction,omitempty"`
	Date         planning.Date `json:"date"`
	Name         string        `json:"name"`
	Recurring    bool          `json:"recurring,omitempty"`
}

// AccountDTO never carries the password hash.
type AccountDTO struct {
	ID        int64  `json:"id"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Kind      string `json:"kind"`
}

type AccountRequest struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Confirm   string `json:"confirm"`
	Kind      string `json:"kind,omitempty"`
}

func (r AccountRequest) input() planning.AccountInput {
	return planning.AccountInput{
		LastName:  r.LastName,
		FirstName: r.FirstName,
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		Confirm:   r.Confirm,
		Kind:      planning.AccountKind(r.Kind),
	}
}

type CreatedDTO struct {
	ID int64 `json:"id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toClientDTO(c planning.Client) ClientDTO {
	return ClientDTO{
		ID:       c.ID,
		Name:     c.Name,
		Contact:  c.Contact,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		AddedOn:  c.AddedOn,
		Category: string(c.Category),
		Axis:     c.Axis,
		NIF:      c.NIF,
		STAT:     c.STAT,
	}
}

func (c ClientDTO) model() planning.Client {
	return planning.Client{
		Name:     c.Name,
		Contact:  c.Contact,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		AddedOn:  c.AddedOn,
		Category: planning.ClientCategory(c.Category),
		Axis:     c.Axis,
		NIF:      c.NIF,
		STAT:     c.STAT,
	}
}

func toContractDTO(c planning.Contract, clientName string) ContractDTO {
	return ContractDTO{
		ID:             c.ID,
		ClientID:       c.ClientID,
		ClientName:     clientName,
		Number:         c.Number,
		SignedOn:       c.SignedOn,
		StartsOn:       c.StartsOn,
		EndsOn:         c.EndsOn,
		DurationMonths: c.DurationMonths,
		DurationKind:   string(c.DurationKind),
		Category:       string(c.Category),
		Status:         string(c.Status),
	}
}

func (c ContractDTO) model() planning.Contract {
	return planning.Contract{
		Number:         c.Number,
		SignedOn:       c.SignedOn,
		StartsOn:       c.StartsOn,
		EndsOn:         c.EndsOn,
		DurationMonths: c.DurationMonths,
		DurationKind:   planning.DurationKind(c.DurationKind),
		Category:       planning.ContractCategory(c.Category),
	}
}

func toOccurrenceDTO(o planning.Occurrence) OccurrenceDTO {
	return OccurrenceDTO{ID: o.ID, RecurrenceID: o.RecurrenceID, Date: o.Date, State: string(o.State)}
}

func toOccurrenceInvoiceDTOs(pairs []planning.OccurrenceInvoice) []OccurrenceInvoiceDTO {
	out := make([]OccurrenceInvoiceDTO, len(pairs))
	for i, p := range pairs {
		out[i] = OccurrenceInvoiceDTO{OccurrenceID: p.OccurrenceID, InvoiceID: p.InvoiceID, Date: p.Date}
	}
	return out
}

func toInvoiceDTO(inv planning.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:            inv.ID,
		OccurrenceID:  inv.OccurrenceID,
		Amount:        inv.Amount,
		TreatmentDate: inv.TreatmentDate,
		Axis:          inv.Axis,
		State:         string(inv.State),
		Number:        inv.Number,
		Method:        string(inv.Method),
		Bank:          inv.Bank,
		ChequeNumber:  inv.ChequeNumber,
		PaidOn:        inv.PaidOn,
	}
}

func toOccurrenceViewDTOs(views []planning.OccurrenceView) []OccurrenceViewDTO {
	out := make([]OccurrenceViewDTO, len(views))
	for i, v := range views {
		out[i] = OccurrenceViewDTO{
			OccurrenceID:  v.OccurrenceID,
			RecurrenceID:  v.RecurrenceID,
			TreatmentID:   v.TreatmentID,
			ContractID:    v.ContractID,
			ClientID:      v.ClientID,
			InvoiceID:     v.InvoiceID,
			Date:          v.Date,
			State:         string(v.State),
			TreatmentType: v.TreatmentType,
			ClientName:    v.ClientName,
			Axis:          v.Axis,
			Amount:        v.Amount,
			PaymentState:  string(v.PaymentState),
		}
	}
	return out
}

func toAccountDTO(a planning.Account) AccountDTO {
	return AccountDTO{
		ID:        a.ID,
		LastName:  a.LastName,
		FirstName: a.FirstName,
		Email:     a.Email,
		Username:  a.Username,
		Kind:      string(a.Kind),
	}
}
