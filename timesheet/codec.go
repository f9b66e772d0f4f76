package timesheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/warp/paycal/calendar"
)

// Wire format, one record per bill, records joined by ';':
//
//	<taskId>_[<assignmentId>]:<yyyyMMdd>:<hours>[:<reason>]
//
// The '_' is always written; decoding also accepts a bare task id.
// The reason is the remainder after the third ':' and may itself contain
// colons. Reasons containing ';' do not survive a batch round trip.
const (
	recordSep  = ";"
	fieldSep   = ":"
	idSep      = "_"
	fieldCount = 4
)

// Encode renders one bill as a wire record.
func Encode(b Bill) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(b.TaskID))
	sb.WriteString(idSep)
	if b.AssignmentID != nil {
		sb.WriteString(strconv.Itoa(*b.AssignmentID))
	}
	sb.WriteString(fieldSep)
	sb.WriteString(b.Day.Compact())
	sb.WriteString(fieldSep)
	sb.WriteString(b.Hours.String())
	if b.Reason != nil {
		sb.WriteString(fieldSep)
		sb.WriteString(*b.Reason)
	}
	return sb.String()
}

// EncodeBills joins the records of bills with ';'.
func EncodeBills(bills []Bill) string {
	records := make([]string, len(bills))
	for i, b := range bills {
		records[i] = Encode(b)
	}
	return strings.Join(records, recordSep)
}

// Decode parses one wire record. Errors wrap ErrMalformedRecord and, where
// relevant, the underlying ErrInvalidHours or ErrInvalidBill.
func Decode(record string) (Bill, error) {
	record = strings.TrimLeft(record, " \t\r\n")
	pieces := strings.SplitN(record, fieldSep, fieldCount)
	if len(pieces) < fieldCount-1 {
		return Bill{}, fmt.Errorf("%w: expected at least %d ':'-separated fields, got %d",
			ErrMalformedRecord, fieldCount-1, len(pieces))
	}

	var opts []BillOption
	ids := strings.SplitN(pieces[0], idSep, 2)
	taskID, err := strconv.Atoi(strings.TrimSpace(ids[0]))
	if err != nil {
		return Bill{}, fmt.Errorf("%w: task id %q", ErrMalformedRecord, ids[0])
	}
	if len(ids) == 2 && strings.TrimSpace(ids[1]) != "" {
		aid, err := strconv.Atoi(strings.TrimSpace(ids[1]))
		if err != nil {
			return Bill{}, fmt.Errorf("%w: assignment id %q", ErrMalformedRecord, ids[1])
		}
		opts = append(opts, WithAssignment(aid))
	}

	day, err := calendar.ParseDay(calendar.CompactLayout, strings.TrimSpace(pieces[1]))
	if err != nil {
		return Bill{}, fmt.Errorf("%w: day %q", ErrMalformedRecord, pieces[1])
	}

	hours, err := ParseHours(pieces[2])
	if err != nil {
		return Bill{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	if len(pieces) == fieldCount && pieces[3] != "" {
		opts = append(opts, WithReason(pieces[3]))
	}

	b, err := NewBill(taskID, day, hours, opts...)
	if err != nil {
		return Bill{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return b, nil
}

// DecodeBills parses a ';'-separated batch. Good records are returned in
// input order; each bad record contributes a *DecodeError to the joined
// error. Empty records are skipped.
func DecodeBills(data string) ([]Bill, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var (
		bills []Bill
		errs  []error
	)
	for i, record := range strings.Split(data, recordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		b, err := Decode(record)
		if err != nil {
			errs = append(errs, &DecodeError{Index: i, Record: record, Err: err})
			continue
		}
		bills = append(bills, b)
	}
	return bills, errors.Join(errs...)
}

// DecodeBillsStrict is DecodeBills that returns no bills when any record
// fails.
func DecodeBillsStrict(data string) ([]Bill, error) {
	bills, err := DecodeBills(data)
	if err != nil {
		return nil, err
	}
	return bills, nil
}
