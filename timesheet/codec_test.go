package timesheet_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/timesheet"
)

var june2 = calendar.NewDay(2010, time.June, 2)

// =============================================================================
// HOURS
// =============================================================================

func TestHours_EquivalentInputsAreEqual(t *testing.T) {
	// GIVEN: Hours written as "8", "8.0", "8.00" and float 8.0
	// WHEN: Each is converted
	// THEN: All produce the same value and render as "8.00"

	fromFloat, err := timesheet.HoursFromFloat(8.0)
	require.NoError(t, err)
	fromDecimal, err := timesheet.HoursFromDecimal(decimal.RequireFromString("8.000"))
	require.NoError(t, err)

	for _, h := range []timesheet.Hours{
		timesheet.MustHours("8"),
		timesheet.MustHours("8.0"),
		timesheet.MustHours(" 8.00 "),
		fromFloat,
		fromDecimal,
	} {
		assert.Equal(t, timesheet.Hours(800), h)
		assert.Equal(t, "8.00", h.String())
	}
}

func TestHours_Rejected(t *testing.T) {
	for _, in := range []string{"-1", "8.125", "eight", "", "1e400"} {
		t.Run(in, func(t *testing.T) {
			_, err := timesheet.ParseHours(in)
			assert.ErrorIs(t, err, timesheet.ErrInvalidHours)
		})
	}
}

func TestHours_JSON(t *testing.T) {
	var got struct {
		A timesheet.Hours `json:"a"`
		B timesheet.Hours `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 7.5, "b": "2.25"}`), &got))
	assert.Equal(t, timesheet.MustHours("7.50"), got.A)
	assert.Equal(t, timesheet.MustHours("2.25"), got.B)

	out, err := json.Marshal(got.A)
	require.NoError(t, err)
	assert.Equal(t, "7.50", string(out))
}

// =============================================================================
// BILL
// =============================================================================

func TestNewBill_Validation(t *testing.T) {
	_, err := timesheet.NewBill(-1, june2, timesheet.MustHours("1"))
	assert.ErrorIs(t, err, timesheet.ErrInvalidBill)

	_, err = timesheet.NewBill(1, june2, timesheet.MustHours("1"), timesheet.WithAssignment(-3))
	assert.ErrorIs(t, err, timesheet.ErrInvalidBill)

	_, err = timesheet.NewBill(1, june2, timesheet.MustHours("1"), timesheet.WithReason(""))
	assert.ErrorIs(t, err, timesheet.ErrInvalidBill)

	_, err = timesheet.NewBill(1, june2, timesheet.MustHours("1"), timesheet.WithReason("   "))
	assert.NoError(t, err, "whitespace is a non-empty reason")

	_, err = timesheet.NewBill(1, june2, timesheet.Hours(-5))
	assert.ErrorIs(t, err, timesheet.ErrInvalidHours)
}

func TestBill_Equal(t *testing.T) {
	a := timesheet.MustBill(8, june2, "8", timesheet.WithAssignment(57), timesheet.WithReason("r"))
	b := timesheet.MustBill(8, june2, "8.00", timesheet.WithAssignment(57), timesheet.WithReason("r"))
	c := timesheet.MustBill(8, june2, "8.00", timesheet.WithAssignment(57))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a, b)
	assert.False(t, a.Equal(c))
	assert.Equal(t, "8:57:20100602", a.Key())
}

func TestTotalHours(t *testing.T) {
	bills := []timesheet.Bill{
		timesheet.MustBill(1, june2, "7.5"),
		timesheet.MustBill(2, june2, "0.25"),
	}
	assert.Equal(t, "7.75", timesheet.TotalHours(bills).String())
	assert.Equal(t, timesheet.Hours(0), timesheet.TotalHours(nil))
}

// =============================================================================
// CODEC
// =============================================================================

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		bill timesheet.Bill
		want string
	}{
		{
			name: "assignment and reason",
			bill: timesheet.MustBill(8, june2, "5", timesheet.WithAssignment(57), timesheet.WithReason("late: train")),
			want: "8_57:20100602:5.00:late: train",
		},
		{
			name: "no assignment",
			bill: timesheet.MustBill(8, june2, "5.5"),
			want: "8_:20100602:5.50",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timesheet.Encode(tt.bill))
		})
	}
}

func TestEncodeBills_Empty(t *testing.T) {
	assert.Equal(t, "", timesheet.EncodeBills(nil))
}

func TestCodec_RoundTrip(t *testing.T) {
	// GIVEN: Bills with and without optional fields, one reason full of colons, one a single space
	// WHEN: Encoded as a batch and decoded again
	// THEN: The decoded bills equal the originals, in order

	bills := []timesheet.Bill{
		timesheet.MustBill(8, june2, "8", timesheet.WithAssignment(57)),
		timesheet.MustBill(9, june2.AddDays(1), "0.25", timesheet.WithReason("a:b:c::")),
		timesheet.MustBill(10, june2.AddDays(2), "12.50", timesheet.WithAssignment(0), timesheet.WithReason("<b>as typed</b>")),
		timesheet.MustBill(11, june2.AddDays(3), "1", timesheet.WithReason(" ")),
		timesheet.MustBill(12, june2.AddDays(4), "2"),
	}

	decoded, err := timesheet.DecodeBills(timesheet.EncodeBills(bills))
	require.NoError(t, err)
	assert.Equal(t, bills, decoded)
}

func TestDecode(t *testing.T) {
	b, err := timesheet.Decode("8:20100602:8.0")
	require.NoError(t, err)
	assert.False(t, b.HasAssignment())
	assert.False(t, b.HasReason())
	assert.Equal(t, timesheet.MustHours("8"), b.Hours)

	b, err = timesheet.Decode("8_:20100602:8:")
	require.NoError(t, err)
	assert.False(t, b.HasAssignment())
	assert.False(t, b.HasReason(), "empty reason segment means no reason")

	b, err = timesheet.Decode("8_:20100602:8:   ")
	require.NoError(t, err)
	require.True(t, b.HasReason())
	assert.Equal(t, "   ", *b.Reason)

	b, err = timesheet.Decode("8_57:20100602:8:sick: flu")
	require.NoError(t, err)
	require.True(t, b.HasReason())
	assert.Equal(t, "sick: flu", *b.Reason)
	assert.Equal(t, 57, *b.AssignmentID)
}

func TestDecode_Malformed(t *testing.T) {
	for _, record := range []string{
		"8_57:20100602",
		"x_57:20100602:8",
		"8_y:20100602:8",
		"8_57:2010-06-02:8",
		"8_57:20100231:8",
		"8_57:20100602:lots",
		"8_57:20100602:-1",
		"8_57:20100602:1.001",
	} {
		t.Run(record, func(t *testing.T) {
			_, err := timesheet.Decode(record)
			assert.ErrorIs(t, err, timesheet.ErrMalformedRecord)
		})
	}

	_, err := timesheet.Decode("8_57:20100602:1.001")
	assert.ErrorIs(t, err, timesheet.ErrInvalidHours)
}

func TestDecodeBills_PartialAcceptance(t *testing.T) {
	// GIVEN: A batch with two good records around a bad one and a blank one
	// WHEN: Decoded
	// THEN: Good bills come back in order and the bad one is reported by index

	data := "1_:20100602:1;bogus;;2_3:20100603:2.5"

	bills, err := timesheet.DecodeBills(data)
	require.Error(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, 1, bills[0].TaskID)
	assert.Equal(t, 2, bills[1].TaskID)

	decodeErrs := timesheet.DecodeErrors(err)
	require.Len(t, decodeErrs, 1)
	assert.Equal(t, 1, decodeErrs[0].Index)
	assert.Equal(t, "bogus", decodeErrs[0].Record)
	assert.True(t, errors.Is(err, timesheet.ErrMalformedRecord))

	strict, err := timesheet.DecodeBillsStrict(data)
	assert.Error(t, err)
	assert.Nil(t, strict)
}

func TestDecodeBills_Empty(t *testing.T) {
	bills, err := timesheet.DecodeBills("  ")
	assert.NoError(t, err)
	assert.Empty(t, bills)
}
