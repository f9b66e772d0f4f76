package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestHolidayResolve(t *testing.T) {
	out, _, err := run(t, "", "holiday", "resolve", "4th thursday in november", "--year", "2024")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-28\tThursday\t4th Thursday in November\n", out)
}

func TestHolidayResolve_ObserveWeekends(t *testing.T) {
	// GIVEN: July 4th 2026 falls on a Saturday
	// WHEN: Resolved with and without weekend shifting
	// THEN: Only the shifted resolution moves to Friday

	out, _, err := run(t, "", "holiday", "resolve", "July 4th Observance", "--year", "2026")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2026-07-04\tSaturday"), out)

	out, _, err = run(t, "", "holiday", "resolve", "July 4th Observance", "--year", "2026", "--observe-weekends")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2026-07-03\tFriday"), out)
}

func TestHolidayResolve_Invalid(t *testing.T) {
	_, _, err := run(t, "", "holiday", "resolve", "sometime in spring")
	assert.Error(t, err)

	_, _, err = run(t, "", "holiday", "resolve")
	assert.Error(t, err)
}

func TestHolidayDefaults(t *testing.T) {
	out, _, err := run(t, "", "holiday", "defaults", "--year", "2024")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[0], "2024-01-01"), lines[0])
	assert.Contains(t, lines[8], "Thanksgiving Day")
	assert.True(t, strings.HasPrefix(lines[9], "2024-12-25"), lines[9])
}

func TestPeriodWalk(t *testing.T) {
	out, _, err := run(t, "", "period", "walk", "--type", "weekly", "--begin", "2014-01-01", "--day", "2014-01-16")
	require.NoError(t, err)
	assert.Equal(t, "2014-01-15\t2014-01-21\t7 days\t2 created\n", out)
}

func TestPeriodWalk_WalkLimit(t *testing.T) {
	_, _, err := run(t, "", "period", "walk", "--type", "weekly", "--begin", "2014-01-01",
		"--day", "2015-01-01", "--max-walk", "3")
	assert.ErrorContains(t, err, "needs more than 3 new pay periods")
}

func TestPeriodWalk_MissingFlags(t *testing.T) {
	_, _, err := run(t, "", "period", "walk", "--type", "weekly", "--day", "2014-01-16")
	assert.Error(t, err)

	_, _, err = run(t, "", "period", "walk", "--type", "daily", "--begin", "2014-01-01", "--day", "2014-01-16")
	assert.Error(t, err)
}

func TestPeriodRange(t *testing.T) {
	out, _, err := run(t, "", "period", "range", "--type", "semi-monthly", "--begin", "2014-01-01",
		"--from", "2014-01-10", "--to", "2014-02-20")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "2014-01-01"), lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "2014-02-16"), lines[3])
}

func TestBillsDecode(t *testing.T) {
	out, stderr, err := run(t, "", "bills", "decode", "8_:20100602:5.00;bogus;9_3:20100603:2.5:standup")
	require.NoError(t, err)

	assert.Contains(t, out, "standup")
	assert.Contains(t, out, "7.50")
	assert.Contains(t, stderr, `"bogus"`)
}

func TestBillsDecode_Strict(t *testing.T) {
	out, _, err := run(t, "", "bills", "decode", "--strict", "8_:20100602:5.00;bogus")
	assert.Error(t, err)
	assert.Empty(t, out)
}

func TestBillsDecode_JSON(t *testing.T) {
	out, _, err := run(t, "", "bills", "decode", "--json", "8_57:20100602:5.00:late: train")
	require.NoError(t, err)
	assert.Contains(t, out, `"assignment_id": 57`)
	assert.Contains(t, out, `"reason": "late: train"`)
	assert.Contains(t, out, `"hours": 5.00`)
}

func TestBillsEncode(t *testing.T) {
	in := `[{"task_id":8,"day":"2010-06-02","hours":5},{"task_id":9,"assignment_id":3,"day":"2010-06-03","hours":"2.5","reason":"standup"}]`

	out, _, err := run(t, in, "bills", "encode")
	require.NoError(t, err)
	assert.Equal(t, "8_:20100602:5.00;9_3:20100603:2.50:standup\n", out)
}

func TestBillsEncode_Invalid(t *testing.T) {
	_, _, err := run(t, `[{"task_id":-1,"day":"2010-06-02","hours":5}]`, "bills", "encode")
	assert.Error(t, err)

	_, _, err = run(t, `not json`, "bills", "encode")
	assert.Error(t, err)
}
