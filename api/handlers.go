/*
handlers.go - HTTP request handlers for the paycal REST API

PURPOSE:
  Implements the HTTP handlers for all API endpoints. Each handler:
  1. Parses request parameters/body
  2. Calls the calendar, holiday or timesheet packages
  3. Returns JSON response or error

ENDPOINTS:
  Pay periods:
    POST /api/companies/{companyID}/pay-periods                      - Seed the anchor period
    GET  /api/companies/{companyID}/pay-periods?from=&to=            - Periods covering a range
    GET  /api/companies/{companyID}/pay-periods/current              - Period containing today
    GET  /api/companies/{companyID}/pay-periods/containing?day=      - Period containing a day
    GET  /api/companies/{companyID}/pay-periods/containing/holidays  - Holidays in that period

  Holidays:
    GET    /api/companies/{companyID}/holidays           - List holidays
    POST   /api/companies/{companyID}/holidays           - Create holiday
    POST   /api/companies/{companyID}/holidays/defaults  - Add the federal defaults
    PUT    /api/companies/{companyID}/holidays/{id}      - Replace holiday
    DELETE /api/companies/{companyID}/holidays/{id}      - Delete holiday
    GET    /api/holidays/validate?config=&year=          - Parse and resolve a configuration

  Timesheets:
    POST /api/timesheets/bills/decode  - Wire data to bills
    POST /api/timesheets/bills/encode  - Bills to wire data

ERROR HANDLING:
  All errors return JSON: {"error": "message", "details": "..."}
  HTTP status codes:
  - 400: Invalid input (bad day, unknown period type, unparseable rule)
  - 404: Holiday not found
  - 409: Company has no seeded pay period
  - 500: Internal server error

SEE ALSO:
  - dto.go: Request/response types
  - server.go: Route definitions
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/holiday"
	"github.com/warp/paycal/timesheet"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	Periods  *calendar.Materializer
	Holidays holiday.AdminStore
	Resolver holiday.Resolver

	log      zerolog.Logger
	validate *validator.Validate
	today    func() calendar.Day
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the logger used for internal errors.
func WithLogger(l zerolog.Logger) HandlerOption {
	return func(h *Handler) { h.log = l }
}

// WithResolver sets the resolver used for holiday lookups.
func WithResolver(r holiday.Resolver) HandlerOption {
	return func(h *Handler) { h.Resolver = r }
}

// WithToday overrides the clock used to default the year of a validation.
func WithToday(today func() calendar.Day) HandlerOption {
	return func(h *Handler) { h.today = today }
}

// NewHandler creates a new Handler
func NewHandler(periods *calendar.Materializer, holidays holiday.AdminStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		Periods:  periods,
		Holidays: holidays,
		log:      zerolog.Nop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		today:    calendar.Today,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// =============================================================================
// PAY PERIOD HANDLERS
// =============================================================================

// SeedPayPeriod stores the company's anchor period
func (h *Handler) SeedPayPeriod(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	var req SeedPayPeriodRequest
	if !h.bind(w, r, &req) {
		return
	}

	typ, err := calendar.ParsePayPeriodType(req.Type)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	begin, err := calendar.ParseDay(calendar.DayLayout, req.Begin)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid begin day", err)
		return
	}

	period, err := h.Periods.Seed(r.Context(), calendar.NewPayPeriod(companyID, typ, begin))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPayPeriodDTO(period))
}

// ListPayPeriods returns every period overlapping [from, to]
func (h *Handler) ListPayPeriods(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	from, ok := queryDay(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryDay(w, r, "to")
	if !ok {
		return
	}

	periods, err := h.Periods.Range(r.Context(), companyID, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPayPeriodDTOs(periods))
}

// GetCurrentPayPeriod returns the period containing today
func (h *Handler) GetCurrentPayPeriod(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	period, err := h.Periods.Current(r.Context(), companyID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPayPeriodDTO(period))
}

// GetContainingPayPeriod returns the period containing ?day=
func (h *Handler) GetContainingPayPeriod(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	day, ok := queryDay(w, r, "day")
	if !ok {
		return
	}

	period, err := h.Periods.Containing(r.Context(), companyID, day)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPayPeriodDTO(period))
}

// GetPeriodHolidays returns the company holidays inside the period
// containing ?day=
func (h *Handler) GetPeriodHolidays(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	day, ok := queryDay(w, r, "day")
	if !ok {
		return
	}

	period, err := h.Periods.Containing(r.Context(), companyID, day)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	holidays, err := h.Holidays.AllForCompany(r.Context(), companyID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	occurrences, err := h.Resolver.InPeriod(holidays, period)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PeriodHolidaysResponse{
		Period:   toPayPeriodDTO(period),
		Holidays: toOccurrenceDTOs(occurrences),
	})
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns a company's holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	holidays, err := h.Holidays.AllForCompany(r.Context(), companyID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toHolidayDTOs(holidays))
}

// CreateHoliday stores a new holiday
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	var req HolidayRequest
	if !h.bind(w, r, &req) {
		return
	}

	saved, err := h.Holidays.SaveHoliday(r.Context(), holiday.Holiday{
		CompanyID:   companyID,
		Description: req.Description,
		Config:      req.Config,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toHolidayDTO(saved))
}

// UpdateHoliday replaces an existing holiday
func (h *Handler) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req HolidayRequest
	if !h.bind(w, r, &req) {
		return
	}

	saved, err := h.Holidays.SaveHoliday(r.Context(), holiday.Holiday{
		ID:          id,
		CompanyID:   companyID,
		Description: req.Description,
		Config:      req.Config,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toHolidayDTO(saved))
}

// DeleteHoliday removes a holiday
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Holidays.DeleteHoliday(r.Context(), companyID, id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddDefaultHolidays stores the federal holidays the company does not
// already have, matched by description. Returns the ones added.
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	existing, err := h.Holidays.AllForCompany(r.Context(), companyID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[strings.ToLower(e.Description)] = true
	}

	added := []holiday.Holiday{}
	for _, d := range holiday.Defaults(companyID) {
		if have[strings.ToLower(d.Description)] {
			continue
		}
		saved, err := h.Holidays.SaveHoliday(r.Context(), d)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		added = append(added, saved)
	}

	writeJSON(w, http.StatusCreated, toHolidayDTOs(added))
}

// ValidateHolidayConfig parses ?config= and resolves it for ?year=
// (default: the current year)
func (h *Handler) ValidateHolidayConfig(w http.ResponseWriter, r *http.Request) {
	config := r.URL.Query().Get("config")
	if config == "" {
		writeError(w, http.StatusBadRequest, "config is required", nil)
		return
	}

	year := h.today().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	rule, err := holiday.Parse(config)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidateHolidayResponse{
		Config:    config,
		Canonical: rule.String(),
		Kind:      rule.Kind.String(),
		Year:      year,
		Day:       h.Resolver.Resolve(rule, year).String(),
	})
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// DecodeBills decodes timesheet wire data. Bad records are reported next to
// the bills that decoded.
func (h *Handler) DecodeBills(w http.ResponseWriter, r *http.Request) {
	var req DecodeBillsRequest
	if !h.bind(w, r, &req) {
		return
	}

	bills, err := timesheet.DecodeBills(req.Data)
	resp := DecodeBillsResponse{
		Bills:      bills,
		TotalHours: timesheet.TotalHours(bills),
		Errors:     []BillErrorDTO{},
	}
	if resp.Bills == nil {
		resp.Bills = []timesheet.Bill{}
	}
	for _, de := range timesheet.DecodeErrors(err) {
		resp.Errors = append(resp.Errors, BillErrorDTO{
			Index:  de.Index,
			Record: de.Record,
			Error:  de.Err.Error(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// EncodeBills encodes bills to timesheet wire data
func (h *Handler) EncodeBills(w http.ResponseWriter, r *http.Request) {
	var req EncodeBillsRequest
	if !h.bind(w, r, &req) {
		return
	}

	bills := make([]timesheet.Bill, len(req.Bills))
	for i, br := range req.Bills {
		b, err := br.toBill()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid bill %d", i), err)
			return
		}
		bills[i] = b
	}

	writeJSON(w, http.StatusOK, EncodeBillsResponse{Data: timesheet.EncodeBills(bills)})
}

// =============================================================================
// HELPERS
// =============================================================================

// bind decodes the JSON body into dst and validates it. On failure it writes
// a 400 and returns false.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) companyID(w http.ResponseWriter, r *http.Request) (int, bool) {
	return pathID(w, r, "companyID")
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+param, err)
		return 0, false
	}
	return id, true
}

func queryDay(w http.ResponseWriter, r *http.Request, param string) (calendar.Day, bool) {
	s := r.URL.Query().Get(param)
	if s == "" {
		writeError(w, http.StatusBadRequest, param+" is required", nil)
		return calendar.Day{}, false
	}
	day, err := calendar.ParseDay(calendar.DayLayout, s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+param, err)
		return calendar.Day{}, false
	}
	return day, true
}

// writeDomainError maps calendar and holiday errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case calendar.IsConflict(err):
		writeError(w, http.StatusConflict, "No pay period configured", err)
	case errors.Is(err, holiday.ErrHolidayNotFound):
		writeError(w, http.StatusNotFound, "Holiday not found", err)
	case errors.Is(err, holiday.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "Invalid holiday configuration", err)
	case calendar.IsClientError(err), holiday.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		h.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
