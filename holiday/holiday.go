package holiday

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/warp/paycal/calendar"
)

// Holiday is a company's recurring holiday. Config is the persisted form;
// the rule is parsed from it on demand.
type Holiday struct {
	ID          int    `json:"id"`
	CompanyID   int    `json:"company_id"`
	Description string `json:"description"`
	Config      string `json:"config"`
}

// Rule parses the holiday's configuration.
func (h Holiday) Rule() (Rule, error) {
	return Parse(h.Config)
}

// DayForYear resolves the holiday in year with the literal-date convention.
func (h Holiday) DayForYear(year int) (calendar.Day, error) {
	r, err := h.Rule()
	if err != nil {
		return calendar.Day{}, err
	}
	return Resolve(r, year), nil
}

// Validate checks that the holiday is complete and its configuration parses.
func (h Holiday) Validate() error {
	if strings.TrimSpace(h.Description) == "" {
		return fmt.Errorf("%w: blank description", ErrInvalidHoliday)
	}
	if h.CompanyID < 0 {
		return fmt.Errorf("%w: negative company id", ErrInvalidHoliday)
	}
	_, err := h.Rule()
	return err
}

// Store is the holiday repository consumed by the engine.
type Store interface {
	AllForCompany(ctx context.Context, companyID int) ([]Holiday, error)
}

// AdminStore adds the writes used by the REST surface.
type AdminStore interface {
	Store
	// SaveHoliday inserts h when h.ID is 0, otherwise updates it. Returns the
	// stored holiday.
	SaveHoliday(ctx context.Context, h Holiday) (Holiday, error)
	DeleteHoliday(ctx context.Context, companyID, id int) error
}

// federal is the default US federal holiday set.
var federal = []struct {
	description string
	config      string
}{
	{"New Years", "January 1st Observance"},
	{"Martin Luther King Junior Day", "3rd Monday in January"},
	{"President's Day", "3rd Monday in February"},
	{"Memorial Day", "Last Monday in May"},
	{"Independence Day", "July 4th Observance"},
	{"Labor Day", "1st Monday in September"},
	{"Columbus Day", "2nd Monday in October"},
	{"Veterans Day", "November 11th Observance"},
	{"Thanksgiving Day", "4th Thursday in November"},
	{"Christmas Day", "December 25th Observance"},
}

// Defaults returns the US federal holidays for a company, without ids.
func Defaults(companyID int) []Holiday {
	out := make([]Holiday, 0, len(federal))
	for _, f := range federal {
		out = append(out, Holiday{CompanyID: companyID, Description: f.description, Config: f.config})
	}
	return out
}

func sortOccurrences(occ []Occurrence) {
	sort.SliceStable(occ, func(i, j int) bool {
		if !occ[i].Day.Equal(occ[j].Day) {
			return occ[i].Day.Before(occ[j].Day)
		}
		return occ[i].Holiday.Description < occ[j].Holiday.Description
	})
}
