package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/isdelr/userexport/internal/database"
	"github.com/isdelr/userexport/internal/export"
	"github.com/isdelr/userexport/internal/services"
	"github.com/spf13/cobra"
)

var (
	exportFields []string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write users to a CSV file",
	Long: `Export users using the configured field catalog.

Without --fields the catalog defaults are exported. Names that are not in
the catalog are ignored; if none remain, the defaults are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := export.NewCatalog(cfg.Catalog, database.KnownUserColumns)
		if err != nil {
			return err
		}

		// Make sure the schema exists before opening the read-only handle.
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		replica, err := database.NewReadOnly(cfg.ReplicaPath)
		if err != nil {
			return err
		}
		defer replica.Close()

		if err := os.MkdirAll(cfg.ExportDir, 0700); err != nil {
			return err
		}

		fields := selectFields(catalog, exportFields)

		ctx := cmd.Context()
		cursor, err := services.NewUserRecordReader(replica).Read(ctx, fields)
		if err != nil {
			return err
		}
		artifact, err := export.NewCSVExporter(cfg.ExportDir).Export(ctx, fields, cursor)
		if err != nil {
			return err
		}
		defer artifact.Release()

		var out io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		if _, err := artifact.WriteTo(out); err != nil {
			return err
		}
		if exportOut != "" && exportOut != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d users (%d bytes) to %s\n", artifact.Rows(), artifact.Size(), exportOut)
		}
		return nil
	},
}

// selectFields treats the --fields list like a submitted form: listed catalog
// fields are checked, the rest unchecked.
func selectFields(catalog *export.Catalog, names []string) []string {
	if len(names) == 0 {
		return catalog.DefaultFields()
	}
	values := url.Values{}
	for _, n := range names {
		values.Set(strings.TrimSpace(n), "1")
	}
	return export.ResolveForExport(catalog, export.FlagsFromValues(values, catalog), true)
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportFields, "fields", nil, "Comma-separated fields to export (default: catalog defaults)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "Output file, or - for stdout")
}
