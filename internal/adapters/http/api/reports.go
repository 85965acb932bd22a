package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/battrend/internal/adapters/render"
	"github.com/okian/battrend/internal/domain/report"
)

// ReportDependencies defines the interface for report lookups.
type ReportDependencies interface {
	Report(ctx context.Context, playerID string, season int) (*report.Report, error)
}

// ReportsHandler handles report requests.
type ReportsHandler struct {
	deps     ReportDependencies
	renderer *render.Renderer
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies, r *render.Renderer) *ReportsHandler {
	return &ReportsHandler{deps: deps, renderer: r}
}

// HandleGetReport handles GET /reports/{player_id}?season=&format= requests.
// Season defaults to the player's latest; format defaults to json.
func (h *ReportsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := strings.TrimPrefix(r.URL.Path, "/reports/")
	if playerID == "" || strings.Contains(playerID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing player id", ErrBadRequest))
		return
	}
	season, err := seasonParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	f, err := formatParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	rep, err := h.deps.Report(r.Context(), playerID, season)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.renderer.Report(&buf, rep, f); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeBody(w, f, buf.Bytes())
}

func seasonParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("season")
	if v == "" {
		return 0, nil
	}
	season, err := strconv.Atoi(v)
	if err != nil || season < 0 {
		return 0, fmt.Errorf("%w: invalid season %q", ErrBadRequest, v)
	}
	return season, nil
}

// formatParam reads ?format=, falling back to json.
func formatParam(r *http.Request) (render.Format, error) {
	v := r.URL.Query().Get("format")
	if v == "" {
		return render.FormatJSON, nil
	}
	f, err := render.ParseFormat(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return f, nil
}

func writeBody(w http.ResponseWriter, f render.Format, body []byte) {
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
