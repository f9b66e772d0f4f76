package holiday

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// daysInMonth allows February 29; non-leap years resolve it to the 28th.
var daysInMonth = [...]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

const (
	wordObservance = "observance"
	wordIn         = "in"
	wordLast       = "last"
)

// form is one grammar alternative. matched reports whether the leading
// tokens identify this form, so its error is the one worth reporting.
type form func(toks []string) (r Rule, matched bool, reason string)

var forms = []form{parseFixed, parseNthWeekday, parseLastWeekday}

// Parse converts configuration text into a Rule. The whole string must match
// exactly one form; anything else fails with *ConfigurationError.
func Parse(config string) (Rule, error) {
	toks := tokenize(config)
	if len(toks) == 0 {
		return Rule{}, &ConfigurationError{Config: config, Reason: "empty configuration"}
	}

	toks, offset, reason := splitOffset(toks)
	if reason != "" {
		return Rule{}, &ConfigurationError{Config: config, Reason: reason}
	}

	firstReason := ""
	for _, f := range forms {
		r, matched, reason := f(toks)
		if reason == "" {
			r.Offset = offset
			return r, nil
		}
		if matched && firstReason == "" {
			firstReason = reason
		}
	}
	if firstReason == "" {
		firstReason = "unrecognized format"
	}
	return Rule{}, &ConfigurationError{Config: config, Reason: firstReason}
}

// MustParse is Parse for fixed tables; it panics on error.
func MustParse(config string) Rule {
	r, err := Parse(config)
	if err != nil {
		panic(err)
	}
	return r
}

// tokenize case-folds the input and splits it on whitespace, treating '+'
// and '-' as standalone tokens.
func tokenize(s string) []string {
	folded := cases.Fold().String(s)
	folded = strings.NewReplacer("+", " + ", "-", " - ").Replace(folded)
	return strings.Fields(folded)
}

// splitOffset strips a trailing "+ N" or "- N" modifier.
func splitOffset(toks []string) ([]string, int, string) {
	n := len(toks)
	signAt := -1
	for i, t := range toks {
		if t == "+" || t == "-" {
			signAt = i
			break
		}
	}
	if signAt < 0 {
		return toks, 0, ""
	}
	if signAt != n-2 {
		return nil, 0, "offset must be a single trailing \"+ N\" or \"- N\""
	}
	days, err := strconv.Atoi(toks[n-1])
	if err != nil || days < 0 {
		return nil, 0, "offset must be a whole number of days"
	}
	if toks[signAt] == "-" {
		days = -days
	}
	return toks[:signAt], days, ""
}

// parseFixed: <month> <day>[suffix] [observance]
func parseFixed(toks []string) (Rule, bool, string) {
	if len(toks) == 0 {
		return Rule{}, false, "empty"
	}
	month, ok := months[toks[0]]
	if !ok {
		return Rule{}, false, "unknown month " + strconv.Quote(toks[0])
	}
	if len(toks) < 2 || len(toks) > 3 {
		return Rule{}, true, "expected \"<Month> <Day>\" optionally followed by \"Observance\""
	}
	day, ok := parseOrdinal(toks[1])
	if !ok {
		return Rule{}, true, "malformed day " + strconv.Quote(toks[1])
	}
	if day < 1 || day > daysInMonth[month] {
		return Rule{}, true, "day " + strconv.Itoa(day) + " is not in " + month.String()
	}
	if len(toks) == 3 {
		if toks[2] != wordObservance {
			return Rule{}, true, "unexpected " + strconv.Quote(toks[2]) + ", expected \"Observance\""
		}
		return FixedObservance(month, day), true, ""
	}
	return FixedDate(month, day), true, ""
}

// parseNthWeekday: <ordinal> <weekday> in <month>
func parseNthWeekday(toks []string) (Rule, bool, string) {
	if len(toks) == 0 || toks[0] == wordLast {
		return Rule{}, false, "not an ordinal"
	}
	n, ok := parseOrdinal(toks[0])
	if !ok {
		startsWithDigit := toks[0][0] >= '0' && toks[0][0] <= '9'
		return Rule{}, startsWithDigit, "malformed ordinal " + strconv.Quote(toks[0])
	}
	if n < 1 || n > 4 {
		return Rule{}, true, "ordinal must be 1st through 4th"
	}
	weekday, month, reason := parseWeekdayInMonth(toks[1:])
	if reason != "" {
		return Rule{}, true, reason
	}
	return NthWeekday(n, weekday, month), true, ""
}

// parseLastWeekday: last <weekday> in <month>
func parseLastWeekday(toks []string) (Rule, bool, string) {
	if len(toks) == 0 || toks[0] != wordLast {
		return Rule{}, false, "not \"Last\""
	}
	weekday, month, reason := parseWeekdayInMonth(toks[1:])
	if reason != "" {
		return Rule{}, true, reason
	}
	return LastWeekday(weekday, month), true, ""
}

func parseWeekdayInMonth(toks []string) (time.Weekday, time.Month, string) {
	if len(toks) != 3 {
		return 0, 0, "expected \"<Weekday> in <Month>\""
	}
	weekday, ok := weekdays[toks[0]]
	if !ok {
		return 0, 0, "unknown weekday " + strconv.Quote(toks[0])
	}
	if toks[1] != wordIn {
		return 0, 0, "expected \"in\", got " + strconv.Quote(toks[1])
	}
	month, ok := months[toks[2]]
	if !ok {
		return 0, 0, "unknown month " + strconv.Quote(toks[2])
	}
	return weekday, month, ""
}

// parseOrdinal accepts "4" or "4th". A suffix must agree with the number.
func parseOrdinal(tok string) (int, bool) {
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == 0 || i > 2 {
		return 0, false
	}
	n, err := strconv.Atoi(tok[:i])
	if err != nil {
		return 0, false
	}
	if suffix := tok[i:]; suffix != "" && suffix != ordinalSuffix(n) {
		return 0, false
	}
	return n, true
}
