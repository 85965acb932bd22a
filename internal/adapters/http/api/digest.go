package api

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/okian/battrend/internal/adapters/render"
	"github.com/okian/battrend/internal/domain/report"
)

// DigestDependencies defines the interface for the alert digest.
type DigestDependencies interface {
	Digest(ctx context.Context) (*report.Snapshot, error)
}

// DigestHandler handles digest requests.
type DigestHandler struct {
	deps     DigestDependencies
	renderer *render.Renderer
}

// NewDigestHandler creates a new digest handler.
func NewDigestHandler(deps DigestDependencies, r *render.Renderer) *DigestHandler {
	return &DigestHandler{deps: deps, renderer: r}
}

// HandleGetDigest handles GET /digest?format= requests with the latest
// refreshed digest.
func (h *DigestHandler) HandleGetDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, err := formatParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	snap, err := h.deps.Digest(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var buf bytes.Buffer
	if f == render.FormatText {
		_, err = buf.WriteString(h.renderer.DigestText(snap.Digest, snap.Date()))
	} else {
		err = render.Structured(&buf, f, Digest{
			Generated:      snap.Generated.Format(time.RFC3339),
			Evaluated:      snap.Evaluated,
			Failures:       len(snap.Failures),
			DigestDocument: render.NewDigestDocument(snap.Digest, snap.Season, snap.Date()),
		})
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeBody(w, f, buf.Bytes())
}
