package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/isdelr/userexport/internal/database"
	"github.com/isdelr/userexport/internal/export"
	"github.com/isdelr/userexport/internal/models"
)

// UserRecordReader streams user rows for export from a read-only handle.
type UserRecordReader struct {
	db      *sql.DB
	columns map[string]bool
}

// NewUserRecordReader creates a reader over db, which should be opened with
// database.NewReadOnly.
func NewUserRecordReader(db *sql.DB) *UserRecordReader {
	columns := make(map[string]bool, len(database.KnownUserColumns))
	for _, c := range database.KnownUserColumns {
		columns[c] = true
	}
	return &UserRecordReader{db: db, columns: columns}
}

// Read issues one query for fields and returns a cursor over the rows in the
// table's natural scan order. Each call runs a fresh query.
func (r *UserRecordReader) Read(ctx context.Context, fields []string) (export.RecordCursor, error) {
	if len(fields) == 0 {
		return nil, export.NewDataSourceError("query", fmt.Errorf("no fields requested"))
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		if !r.columns[f] {
			return nil, export.NewDataSourceError("query", fmt.Errorf("%w: unknown column %s", export.ErrMissingField, f))
		}
		quoted[i] = `"` + f + `"`
	}

	query := fmt.Sprintf(`SELECT %s FROM "%s"`, strings.Join(quoted, ", "), database.UserTable)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, export.NewDataSourceError("query", err)
	}

	got, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, export.NewDataSourceError("query", err)
	}
	if len(got) != len(fields) {
		rows.Close()
		return nil, export.NewDataSourceError("query", fmt.Errorf("%w: got %d columns for %d fields", export.ErrMissingField, len(got), len(fields)))
	}

	names := make([]string, len(fields))
	copy(names, fields)
	return &RecordCursor{rows: rows, fields: names}, nil
}

// RecordCursor walks the rows of one export query. It is single-pass.
type RecordCursor struct {
	rows    *sql.Rows
	fields  []string
	current models.UserRecord
	err     error
}

// Next advances to the next row.
func (c *RecordCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	values := make([]any, len(c.fields))
	ptrs := make([]any, len(c.fields))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		c.err = err
		return false
	}
	c.current = models.UserRecord{Fields: c.fields, Values: values}
	return true
}

// Record returns the row loaded by the last call to Next.
func (c *RecordCursor) Record() models.UserRecord {
	return c.current
}

// Err returns the first error hit while iterating.
func (c *RecordCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

// Close releases the underlying rows.
func (c *RecordCursor) Close() error {
	return c.rows.Close()
}
