package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/userexport/internal/models"
)

// sliceCursor replays a fixed set of records.
type sliceCursor struct {
	records []models.UserRecord
	pos     int
	err     error
	closed  bool
}

func (c *sliceCursor) Next() bool {
	if c.pos >= len(c.records) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Record() models.UserRecord { return c.records[c.pos-1] }
func (c *sliceCursor) Err() error                { return c.err }
func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}

func record(fields []string, values ...any) models.UserRecord {
	return models.UserRecord{Fields: fields, Values: values}
}

func exportToString(t *testing.T, e *CSVExporter, fields []string, cur RecordCursor) (string, *Artifact) {
	t.Helper()
	artifact, err := e.Export(context.Background(), fields, cur)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	t.Cleanup(func() { artifact.Release() })

	var buf bytes.Buffer
	n, err := artifact.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() failed: %v", err)
	}
	if n != artifact.Size() {
		t.Errorf("WriteTo() wrote %d bytes, Size() = %d", n, artifact.Size())
	}
	return buf.String(), artifact
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files left in %s, found %d", dir, len(entries))
	}
}

func TestCSVExporter_Example(t *testing.T) {
	fields := []string{"user_name", "user_email"}
	cur := &sliceCursor{records: []models.UserRecord{
		record(fields, "alice", "a@x.org"),
		record(fields, "bob", "b@x.org"),
	}}

	out, artifact := exportToString(t, NewCSVExporter(t.TempDir()), fields, cur)

	want := "user_name,user_email\nalice,a@x.org\nbob,b@x.org\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if artifact.Rows() != 2 {
		t.Errorf("Rows() = %d, want 2", artifact.Rows())
	}
	if !cur.closed {
		t.Error("expected cursor to be closed")
	}
}

func TestCSVExporter_EmptyRecords(t *testing.T) {
	fields := []string{"user_name", "user_email"}
	out, artifact := exportToString(t, NewCSVExporter(t.TempDir()), fields, &sliceCursor{})

	if out != "user_name,user_email\n" {
		t.Errorf("output = %q, want header only", out)
	}
	if artifact.Size() != int64(len("user_name,user_email\n")) {
		t.Errorf("Size() = %d, want %d", artifact.Size(), len("user_name,user_email\n"))
	}
}

func TestCSVExporter_ColumnOrderFollowsFields(t *testing.T) {
	fields := []string{"user_email", "user_id", "user_name"}
	stored := []string{"user_id", "user_name", "user_email"}
	cur := &sliceCursor{records: []models.UserRecord{
		record(stored, int64(7), "carol", "c@x.org"),
	}}

	out, _ := exportToString(t, NewCSVExporter(t.TempDir()), fields, cur)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}
	if !reflect.DeepEqual(rows[0], fields) {
		t.Errorf("header = %v, want %v", rows[0], fields)
	}
	if want := []string{"c@x.org", "7", "carol"}; !reflect.DeepEqual(rows[1], want) {
		t.Errorf("row = %v, want %v", rows[1], want)
	}
}

func TestCSVExporter_EscapingRoundTrip(t *testing.T) {
	fields := []string{"user_name", "user_real_name"}
	values := []string{
		"Smith, John",
		`The "Boss"`,
		"line one\nline two",
		"crlf\r\nvalue",
		"plain",
		"",
	}

	var records []models.UserRecord
	for _, v := range values {
		records = append(records, record(fields, "name", v))
	}
	out, _ := exportToString(t, NewCSVExporter(t.TempDir()), fields, &sliceCursor{records: records})

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}
	if len(rows) != len(values)+1 {
		t.Fatalf("got %d rows, want %d", len(rows), len(values)+1)
	}
	for i, v := range values {
		row := rows[i+1]
		if len(row) != len(fields) {
			t.Errorf("row %d has %d columns, want %d", i, len(row), len(fields))
		}
		// encoding/csv normalizes \r\n inside quoted fields to \n on read.
		want := strings.ReplaceAll(v, "\r\n", "\n")
		if row[1] != want {
			t.Errorf("row %d: got %q, want %q", i, row[1], want)
		}
	}
}

func TestCSVExporter_SingleEmptyColumnKeepsRow(t *testing.T) {
	fields := []string{"user_real_name"}
	cur := &sliceCursor{records: []models.UserRecord{
		record(fields, "Alice"),
		record(fields, ""),
		record(fields, nil),
		record(fields, "Carol"),
	}}
	out, artifact := exportToString(t, NewCSVExporter(t.TempDir()), fields, cur)

	want := "user_real_name\nAlice\n\"\"\n\"\"\nCarol\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
	if artifact.Size() != int64(len(want)) {
		t.Errorf("Size() = %d, want %d", artifact.Size(), len(want))
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}
	wantRows := [][]string{{"user_real_name"}, {"Alice"}, {""}, {""}, {"Carol"}}
	if !reflect.DeepEqual(rows, wantRows) {
		t.Errorf("rows = %q, want %q", rows, wantRows)
	}
}

func TestCSVExporter_MissingFieldRemovesFile(t *testing.T) {
	dir := t.TempDir()
	cur := &sliceCursor{records: []models.UserRecord{
		record([]string{"user_name"}, "alice"),
	}}

	_, err := NewCSVExporter(dir).Export(context.Background(), []string{"user_name", "user_email"}, cur)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if !IsKind(err, KindDataSource) {
		t.Errorf("expected data source error, got %v", err)
	}
	assertDirEmpty(t, dir)
}

func TestCSVExporter_CursorErrorRemovesFile(t *testing.T) {
	dir := t.TempDir()
	cur := &sliceCursor{err: errors.New("connection reset")}

	_, err := NewCSVExporter(dir).Export(context.Background(), []string{"user_name"}, cur)
	if !IsKind(err, KindDataSource) {
		t.Fatalf("expected data source error, got %v", err)
	}
	assertDirEmpty(t, dir)
}

func TestCSVExporter_CancelledContextRemovesFile(t *testing.T) {
	dir := t.TempDir()
	fields := []string{"user_name"}
	cur := &sliceCursor{records: []models.UserRecord{record(fields, "alice")}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVExporter(dir).Export(ctx, fields, cur)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	assertDirEmpty(t, dir)
}

func TestCSVExporter_BadDirIsResourceError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	cur := &sliceCursor{}

	_, err := NewCSVExporter(dir).Export(context.Background(), []string{"user_name"}, cur)
	if !IsKind(err, KindResource) {
		t.Fatalf("expected resource error, got %v", err)
	}
	if !cur.closed {
		t.Error("expected cursor to be closed on failure")
	}
}

func TestArtifact_Release(t *testing.T) {
	dir := t.TempDir()
	artifact, err := NewCSVExporter(dir).Export(context.Background(), []string{"user_name"}, &sliceCursor{})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	if _, err := os.Stat(artifact.Path()); err != nil {
		t.Fatalf("artifact file missing before release: %v", err)
	}
	if err := artifact.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if err := artifact.Release(); err != nil {
		t.Errorf("second Release() failed: %v", err)
	}
	assertDirEmpty(t, dir)

	if _, err := artifact.WriteTo(&bytes.Buffer{}); err == nil {
		t.Error("expected WriteTo() after Release() to fail")
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"alice", "alice"},
		{[]byte("bytes"), "bytes"},
		{int64(42), "42"},
		{7, "7"},
		{1.5, "1.5"},
		{true, "true"},
		{ts, "20240309140507"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
