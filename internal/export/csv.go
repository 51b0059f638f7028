package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/isdelr/userexport/internal/models"
)

// TempPattern is the name pattern of export artifacts in the export directory.
const TempPattern = "userexport-*.csv"

// TimestampLayout is the canonical text form of timestamps in exported rows.
const TimestampLayout = "20060102150405"

// RecordCursor is a single-pass sequence of user records.
type RecordCursor interface {
	Next() bool
	Record() models.UserRecord
	Err() error
	Close() error
}

// CSVExporter writes user records to a temporary CSV file.
type CSVExporter struct {
	// Dir is where artifacts are created. Empty means os.TempDir().
	Dir string
}

// NewCSVExporter creates a new CSV exporter writing artifacts into dir.
func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{Dir: dir}
}

// Export writes a header row of fields followed by one row per record and
// returns the finished artifact. The cursor is consumed and closed. On any
// failure the temporary file is removed before returning.
func (e *CSVExporter) Export(ctx context.Context, fields []string, cursor RecordCursor) (artifact *Artifact, err error) {
	defer cursor.Close()

	file, err := os.CreateTemp(e.Dir, TempPattern)
	if err != nil {
		return nil, NewResourceError("create", err)
	}
	path := file.Name()
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(path)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(fields); err != nil {
		return nil, NewResourceError("write", err)
	}

	rows := 0
	for cursor.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := recordToRow(fields, cursor.Record())
		if err != nil {
			return nil, NewDataSourceError("read", err)
		}
		if err := writeRow(writer, file, row); err != nil {
			return nil, NewResourceError("write", err)
		}
		rows++
	}
	if err := cursor.Err(); err != nil {
		return nil, NewDataSourceError("read", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, NewResourceError("write", err)
	}
	if err := file.Close(); err != nil {
		return nil, NewResourceError("close", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, NewResourceError("stat", err)
	}

	return &Artifact{path: path, size: info.Size(), rows: rows}, nil
}

// writeRow writes one CSV record. A record made of a single empty field is
// written as a quoted empty string, since csv.Writer would emit a blank line
// that readers skip.
func writeRow(writer *csv.Writer, file io.Writer, row []string) error {
	if len(row) != 1 || row[0] != "" {
		return writer.Write(row)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(file, "\"\"\n")
	return err
}

// recordToRow lays out the values of rec in the order of fields.
func recordToRow(fields []string, rec models.UserRecord) ([]string, error) {
	row := make([]string, len(fields))
	for i, field := range fields {
		v, ok := rec.Value(field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
		row[i] = FormatValue(v)
	}
	return row, nil
}

// FormatValue renders a scalar column value in its natural text form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(TimestampLayout)
	default:
		return fmt.Sprint(x)
	}
}

// Artifact is a finished CSV file on disk, owned by a single request.
type Artifact struct {
	path     string
	size     int64
	rows     int
	released bool
}

// Size is the exact byte length of the CSV file.
func (a *Artifact) Size() int64 { return a.size }

// Rows is the number of data rows, excluding the header.
func (a *Artifact) Rows() int { return a.rows }

// Path is the location of the temporary file.
func (a *Artifact) Path() string { return a.path }

// WriteTo copies the file verbatim into w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	if a.released {
		return 0, NewResourceError("read", fs.ErrClosed)
	}
	f, err := os.Open(a.path)
	if err != nil {
		return 0, NewResourceError("open", err)
	}
	defer f.Close()
	return io.Copy(w, f)
}

// Release deletes the temporary file. It is safe to call more than once.
func (a *Artifact) Release() error {
	if a.released {
		return nil
	}
	a.released = true
	if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewResourceError("remove", err)
	}
	return nil
}
