package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/userexport/internal/auth"
	"github.com/isdelr/userexport/internal/export"
	"github.com/isdelr/userexport/internal/services"
	"github.com/rs/zerolog/log"
)

// ExportRight is the right required to view the form and download exports.
const ExportRight = "userexport"

// Request parameters read by the export page.
const (
	paramExport = "exportusers"
	paramToken  = "token"
	paramSubmit = "wpsubmit"
)

// Authorizer checks rights and anti-forgery tokens.
type Authorizer interface {
	Authorize(ctx context.Context, claims *auth.Claims, capability string) error
	EditToken(claims *auth.Claims) string
	CheckToken(claims *auth.Claims, supplied string) error
}

// RecordReader opens a cursor over user records for the given fields.
type RecordReader interface {
	Read(ctx context.Context, fields []string) (export.RecordCursor, error)
}

// ExportHandler serves the user export page: the field selection form and
// the CSV download it submits to.
type ExportHandler struct {
	catalog  *export.Catalog
	guard    Authorizer
	reader   RecordReader
	exporter *export.CSVExporter
	events   services.EventServiceProvider
	metrics  *export.Metrics
	filename string
}

// NewExportHandler creates a new ExportHandler. events and metrics may be nil.
func NewExportHandler(catalog *export.Catalog, guard Authorizer, reader RecordReader, exporter *export.CSVExporter, events services.EventServiceProvider, metrics *export.Metrics, filename string) *ExportHandler {
	return &ExportHandler{
		catalog:  catalog,
		guard:    guard,
		reader:   reader,
		exporter: exporter,
		events:   events,
		metrics:  metrics,
		filename: filename,
	}
}

// ServeHTTP authorizes the caller, then either streams the CSV file or
// renders the selection form.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	if err := h.guard.Authorize(r.Context(), claims, ExportRight); err != nil {
		var perr *auth.PermissionsError
		if errors.As(err, &perr) {
			log.Warn().Str("user", callerName(claims)).Msg("Denied access to user export")
			h.metrics.RecordOutcome(export.OutcomeDenied)
			// Anonymous denials are not stored.
			if claims != nil {
				msg := fmt.Sprintf("%s was denied access to user export.", claims.Username)
				h.recordEvent(r.Context(), "userexport.denied", "warn", msg, claims)
			}
			http.Error(w, "Permission denied: you need the \""+perr.Capability+"\" right to export users.", http.StatusForbidden)
			return
		}
		log.Error().Err(err).Str("user", callerName(claims)).Msg("Failed to check export rights")
		http.Error(w, "Failed to check permissions", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	flags := export.FlagsFromValues(r.Form, h.catalog)
	submitted := r.Form.Has(paramSubmit)

	// Exports are only taken from a POST body so the token stays out of URLs.
	var warning string
	if r.Method == http.MethodPost && r.PostForm.Get(paramExport) != "" {
		if err := h.guard.CheckToken(claims, r.PostForm.Get(paramToken)); err != nil {
			log.Warn().Str("user", callerName(claims)).Msg("Rejected user export with bad edit token")
			h.metrics.RecordOutcome(export.OutcomeBadToken)
			warning = badTokenMessage
		} else {
			h.exportUsers(w, r, claims, export.ResolveForExport(h.catalog, flags, submitted))
			return
		}
	}

	state := export.SelectionState(h.catalog, flags, submitted)
	page := NewFormPage(h.catalog, state, r.URL.Path, h.guard.EditToken(claims), warning)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		log.Error().Err(err).Msg("Failed to render export form")
		http.Error(w, "Failed to render form", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// exportUsers writes the CSV artifact for fields as the whole response. The
// artifact is released on every path out of this function.
func (h *ExportHandler) exportUsers(w http.ResponseWriter, r *http.Request, claims *auth.Claims, fields []string) {
	start := time.Now()
	ctx := r.Context()
	user := callerName(claims)

	cursor, err := h.reader.Read(ctx, fields)
	if err != nil {
		h.fail(w, err, user, "Failed to query users for export")
		return
	}

	artifact, err := h.exporter.Export(ctx, fields, cursor)
	if err != nil {
		h.fail(w, err, user, "Failed to write export file")
		return
	}
	defer func() {
		if err := artifact.Release(); err != nil {
			log.Error().Err(err).Str("path", artifact.Path()).Msg("Failed to remove export file")
		}
	}()

	header := w.Header()
	header.Set("Pragma", "no-cache")
	header.Set("Expires", "0")
	header.Set("Cache-Control", "must-revalidate, post-check=0, pre-check=0")
	header.Set("Content-Description", "File Transfer")
	header.Set("Content-Type", "text/csv")
	header.Set("Content-Transfer-Encoding", "binary")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.filename))
	header.Set("Content-Length", strconv.FormatInt(artifact.Size(), 10))
	header.Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)

	if _, err := artifact.WriteTo(w); err != nil {
		log.Warn().Err(err).Str("user", user).Msg("Export download interrupted")
		h.metrics.RecordOutcome(export.OutcomeError)
		return
	}

	elapsed := time.Since(start)
	h.metrics.RecordExport(artifact.Rows(), artifact.Size(), elapsed)
	log.Info().
		Str("user", user).
		Strs("fields", fields).
		Int("rows", artifact.Rows()).
		Int64("bytes", artifact.Size()).
		Dur("elapsed", elapsed).
		Msg("Exported users")

	msg := fmt.Sprintf("%s exported %d users (%s).", user, artifact.Rows(), strings.Join(fields, ", "))
	h.recordEvent(ctx, "userexport.export", "info", msg, claims)
}

// recordEvent writes an audit entry. It outlives a cancelled request.
func (h *ExportHandler) recordEvent(ctx context.Context, eventType, level, msg string, claims *auth.Claims) {
	if h.events == nil {
		return
	}
	var actor *int64
	if claims != nil {
		actor = &claims.UserID
	}
	if err := h.events.CreateEvent(context.WithoutCancel(ctx), eventType, level, msg, actor); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record audit event")
	}
}

func (h *ExportHandler) fail(w http.ResponseWriter, err error, user, msg string) {
	log.Error().Err(err).Str("user", user).Msg(msg)
	h.metrics.RecordOutcome(export.OutcomeError)
	http.Error(w, "Failed to export users", http.StatusInternalServerError)
}

func callerName(claims *auth.Claims) string {
	if claims == nil {
		return "anonymous"
	}
	return claims.Username
}
