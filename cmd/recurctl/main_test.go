package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestExpand(t *testing.T) {
	isolate(t)

	out, err := run(t, "expand", "-f", "weekly", "--days", "mon,wed,fri", "--anchor", "2024-01-01", "--count", "4")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01\n2024-01-03\n2024-01-05\n2024-01-08\n", out)

	out, err = run(t, "expand", "-f", "monthly", "--anchor", "2024-01-31T09:00", "--to", "2024-04-30")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"2024-01-31T09:00:00Z",
		"2024-02-29T09:00:00Z",
		"2024-03-31T09:00:00Z",
		"2024-04-30T09:00:00Z",
	}, "\n")+"\n", out)
}

func TestExpand_ICS(t *testing.T) {
	isolate(t)

	out, err := run(t, "expand", "-f", "daily", "--anchor", "2024-01-01", "--count", "3", "--ics", "--summary", "Stretch")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "BEGIN:VTODO"))
	assert.Contains(t, out, "SUMMARY:Stretch")

	out, err = run(t, "expand", "-f", "daily", "--anchor", "2024-01-01", "--ics", "--series")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VTODO"))
	assert.Contains(t, out, "RRULE:FREQ=DAILY")
}

func TestExpand_HorizonFlag(t *testing.T) {
	isolate(t)

	out, err := run(t, "--horizon", "72h", "expand", "-f", "daily", "--anchor", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01\n2024-01-02\n2024-01-03\n2024-01-04\n", out)
}

func TestNext(t *testing.T) {
	isolate(t)

	out, err := run(t, "next", "-f", "monthly", "--anchor", "2024-01-31", "--after", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29\n", out)

	out, err = run(t, "next", "-f", "daily", "--anchor", "2024-01-01", "--count", "2", "--after", "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, "series has ended\n", out)
}

func TestValidate(t *testing.T) {
	isolate(t)

	out, err := run(t, "validate", "-f", "monthly", "-i", "0", "--month-days", "32", "--anchor", "2024-01-01")
	assert.ErrorIs(t, err, errInvalidRule)
	assert.Contains(t, out, "error: interval must be a positive number, got 0 (non_positive_interval)")
	assert.Contains(t, out, "error: invalid day of month 32, must be between 1 and 31 (day_of_month_out_of_range)")

	out, err = run(t, "validate", "-f", "weekly", "--days", "mon", "--anchor", "2024-01-01", "--until", "2024-01-29")
	require.NoError(t, err)
	assert.Contains(t, out, "valid: about 5 occurrences")

	out, err = run(t, "validate", "-f", "yearly", "-i", "10", "--anchor", "2024-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: yearly intervals greater than 5 years create sparse series")
	assert.Contains(t, out, "valid: open-ended series")
}

func TestRRule(t *testing.T) {
	isolate(t)

	out, err := run(t, "rrule", "-f", "weekly", "-i", "2", "--days", "mon,fri", "--anchor", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "RRULE:FREQ=WEEKLY"), out)
	assert.Contains(t, out, "BYDAY=MO,FR")

	_, err = run(t, "rrule", "-f", "hourly", "--anchor", "2024-01-01")
	assert.Error(t, err)
}

func TestTasksAndConflicts(t *testing.T) {
	home := isolate(t)
	db := []string{"--driver", "sqlite", "--db", filepath.Join(home, "tasks.db")}
	cmd := func(args ...string) []string { return append(append([]string{}, db...), args...) }

	_, err := run(t, cmd("tasks", "add", "--id", "dentist", "--due", "2024-01-03T15:00", "--title", "Dentist")...)
	require.NoError(t, err)
	_, err = run(t, cmd("tasks", "add", "--id", "review", "--due", "2024-01-04")...)
	require.NoError(t, err)

	out, err := run(t, cmd("tasks", "list", "--to", "2024-01-03")...)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03T15:00:00Z\tdentist\tDentist\n", out)

	rule := []string{"-f", "weekly", "--days", "mon,wed,fri", "--anchor", "2024-01-01", "--to", "2024-01-14"}
	out, err = run(t, cmd(append([]string{"conflicts", "--existing", "2024-01-08,2024-01-09"}, rule...)...)...)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03T15:00:00Z\ttask dentist\tDentist\n2024-01-08\tgiven\n", out)

	_, err = run(t, cmd(append([]string{"conflicts", "--strict"}, rule...)...)...)
	assert.ErrorContains(t, err, "1 conflicting dates")

	_, err = run(t, cmd("tasks", "delete", "dentist")...)
	require.NoError(t, err)
	out, err = run(t, cmd(append([]string{"conflicts"}, rule...)...)...)
	require.NoError(t, err)
	assert.Equal(t, "no conflicts\n", out)

	_, err = run(t, cmd("tasks", "delete", "dentist")...)
	assert.Error(t, err)
}

func TestTasksComplete(t *testing.T) {
	home := isolate(t)
	db := []string{"--driver", "sqlite", "--db", filepath.Join(home, "tasks.db")}
	cmd := func(args ...string) []string { return append(append([]string{}, db...), args...) }
	rule := []string{"-f", "monthly", "--month-days", "10", "-i", "3", "--anchor", "2024-01-20", "--count", "2"}

	_, err := run(t, cmd("tasks", "add", "--id", "rent", "--due", "2024-02-10", "--title", "Rent")...)
	require.NoError(t, err)

	out, err := run(t, cmd(append([]string{"tasks", "complete", "rent"}, rule...)...)...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "completed rent", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "next 2024-05-10\t"), lines[1])
	next := strings.TrimPrefix(lines[1], "next 2024-05-10\t")

	out, err = run(t, cmd("tasks", "list")...)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-10\trent\tRent\tdone\n2024-05-10\t"+next+"\tRent\n", out)

	out, err = run(t, cmd(append([]string{"tasks", "complete", next}, rule...)...)...)
	require.NoError(t, err)
	assert.Equal(t, "completed "+next+"\nseries has ended\n", out)

	_, err = run(t, cmd(append([]string{"tasks", "complete", "rent"}, rule...)...)...)
	assert.ErrorContains(t, err, "already completed")
}

func TestTasksImport(t *testing.T) {
	home := isolate(t)
	db := filepath.Join(home, "tasks.db")

	ics, err := run(t, "expand", "-f", "daily", "--anchor", "2024-02-01", "--count", "2", "--ics")
	require.NoError(t, err)
	file := filepath.Join(home, "todos.ics")
	require.NoError(t, os.WriteFile(file, []byte(ics), 0o600))

	out, err := run(t, "--driver", "sqlite", "--db", db, "tasks", "import", file)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 tasks\n", out)

	out, err = run(t, "--driver", "sqlite", "--db", db, "conflicts",
		"-f", "weekly", "--anchor", "2024-01-25", "--to", "2024-02-29", "--ics-file", file)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "2024-02-01"), out)
}

func TestConfigFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".recurctl")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[engine]\nmax_occurrences = 2\n"), 0o600))

	out, err := run(t, "expand", "-f", "daily", "--anchor", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01\n2024-01-02\n", out)

	out, err = run(t, "--max-occurrences", "3", "expand", "-f", "daily", "--anchor", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01\n2024-01-02\n2024-01-03\n", out)

	_, err = run(t, "--config", filepath.Join(home, "nope.toml"), "expand", "--anchor", "2024-01-01")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03-01T09:30", time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"2024-03-01T09:30:15", time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		require.NoError(t, err)
		assert.True(t, tt.want.Equal(got), tt.in)
	}

	got, err := parseDate("2024-03-01T09:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 7, got.UTC().Hour())

	_, err = parseDate("March 1st")
	assert.Error(t, err)
}
