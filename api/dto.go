/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the calendar, holiday and timesheet models from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Pay periods:
    PayPeriodDTO, SeedPayPeriodRequest, PeriodHolidaysResponse

  Holidays:
    HolidayDTO, HolidayRequest, OccurrenceDTO, ValidateHolidayResponse

  Bills:
    DecodeBillsRequest, DecodeBillsResponse, BillErrorDTO,
    EncodeBillsRequest, EncodeBillsResponse

VALIDATION:
  Request types carry go-playground/validator tags; handlers call
  Handler.bind which decodes and validates in one step. Domain rules (a
  holiday configuration that parses, hours precision) are checked by the
  domain packages.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/holiday"
	"github.com/warp/paycal/timesheet"
)

// =============================================================================
// PAY PERIOD DTOs
// =============================================================================

// PayPeriodDTO is a pay period as returned by the API.
type PayPeriodDTO struct {
	CompanyID int    `json:"company_id"`
	Type      string `json:"type"`
	Begin     string `json:"begin"`
	End       string `json:"end"`
	Days      int    `json:"days"`
}

// SeedPayPeriodRequest anchors a company's pay period chain.
type SeedPayPeriodRequest struct {
	Type  string `json:"type" validate:"required"`
	Begin string `json:"begin" validate:"required,datetime=2006-01-02"`
}

// PeriodHolidaysResponse lists the holidays inside one pay period.
type PeriodHolidaysResponse struct {
	Period   PayPeriodDTO    `json:"period"`
	Holidays []OccurrenceDTO `json:"holidays"`
}

func toPayPeriodDTO(p calendar.PayPeriod) PayPeriodDTO {
	return PayPeriodDTO{
		CompanyID: p.CompanyID,
		Type:      string(p.Type),
		Begin:     p.Begin.String(),
		End:       p.End.String(),
		Days:      p.Length(),
	}
}

func toPayPeriodDTOs(periods []calendar.PayPeriod) []PayPeriodDTO {
	dtos := make([]PayPeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPayPeriodDTO(p)
	}
	return dtos
}

// =============================================================================
// HOLIDAY DTOs
// =============================================================================

// HolidayDTO is a stored company holiday.
type HolidayDTO struct {
	ID          int    `json:"id"`
	CompanyID   int    `json:"company_id"`
	Description string `json:"description"`
	Config      string `json:"config"`
}

// HolidayRequest creates or replaces a holiday.
type HolidayRequest struct {
	Description string `json:"description" validate:"required,max=200"`
	Config      string `json:"config" validate:"required,max=200"`
}

// OccurrenceDTO is a holiday resolved to a day.
type OccurrenceDTO struct {
	Holiday HolidayDTO `json:"holiday"`
	Day     string     `json:"day"`
}

// ValidateHolidayResponse describes a configuration that parsed.
type ValidateHolidayResponse struct {
	Config    string `json:"config"`
	Canonical string `json:"canonical"`
	Kind      string `json:"kind"`
	Year      int    `json:"year"`
	Day       string `json:"day"`
}

func toHolidayDTO(h holiday.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, CompanyID: h.CompanyID, Description: h.Description, Config: h.Config}
}

func toHolidayDTOs(hs []holiday.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, len(hs))
	for i, h := range hs {
		dtos[i] = toHolidayDTO(h)
	}
	return dtos
}

func toOccurrenceDTOs(occ []holiday.Occurrence) []OccurrenceDTO {
	dtos := make([]OccurrenceDTO, len(occ))
	for i, o := range occ {
		dtos[i] = OccurrenceDTO{Holiday: toHolidayDTO(o.Holiday), Day: o.Day.String()}
	}
	return dtos
}

// =============================================================================
// BILL DTOs
// =============================================================================

// DecodeBillsRequest carries timesheet wire data.
type DecodeBillsRequest struct {
	Data string `json:"data"`
}

// BillErrorDTO reports one record that could not be decoded.
type BillErrorDTO struct {
	Index  int    `json:"index"`
	Record string `json:"record"`
	Error  string `json:"error"`
}

// DecodeBillsResponse holds the decoded bills and any rejected records.
type DecodeBillsResponse struct {
	Bills      []timesheet.Bill `json:"bills"`
	TotalHours timesheet.Hours  `json:"total_hours"`
	Errors     []BillErrorDTO   `json:"errors"`
}

// BillRequest is one bill to encode. Hours accept a JSON number or string.
type BillRequest struct {
	TaskID       int             `json:"task_id" validate:"gte=0"`
	AssignmentID *int            `json:"assignment_id" validate:"omitempty,gte=0"`
	Day          string          `json:"day" validate:"required,datetime=2006-01-02"`
	Hours        timesheet.Hours `json:"hours" validate:"gte=0"`
	Reason       *string         `json:"reason"`
}

// EncodeBillsRequest is a batch of bills to encode.
type EncodeBillsRequest struct {
	Bills []BillRequest `json:"bills" validate:"dive"`
}

// EncodeBillsResponse carries the encoded wire data.
type EncodeBillsResponse struct {
	Data string `json:"data"`
}

func (b BillRequest) toBill() (timesheet.Bill, error) {
	day, err := calendar.ParseDay(calendar.DayLayout, b.Day)
	if err != nil {
		return timesheet.Bill{}, err
	}
	var opts []timesheet.BillOption
	if b.AssignmentID != nil {
		opts = append(opts, timesheet.WithAssignment(*b.AssignmentID))
	}
	if b.Reason != nil {
		opts = append(opts, timesheet.WithReason(*b.Reason))
	}
	return timesheet.NewBill(b.TaskID, day, b.Hours, opts...)
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
