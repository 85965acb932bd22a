package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/okian/battrend/internal/adapters/ingest"
	"github.com/okian/battrend/internal/adapters/mq/queue"
	"github.com/okian/battrend/internal/domain/model"
)

const (
	// defaultMaxRecordsBody caps a POST /records body.
	defaultMaxRecordsBody = 32 << 20
	// idempotencyHeader carries the client's batch key.
	idempotencyHeader = "Idempotency-Key"
)

// RecordDependencies defines the interface for record ingestion.
type RecordDependencies interface {
	EnqueueOnce(ctx context.Context, key, source string, records []model.SeasonRecord) (queue.Batch, bool, error)
}

// RecordsHandler handles record uploads.
type RecordsHandler struct {
	deps    RecordDependencies
	maxBody int64
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps, maxBody: defaultMaxRecordsBody}
}

// HandlePostRecords handles POST /records. The body is JSON by default, YAML
// or CSV by Content-Type. Valid batches are queued and acknowledged with 202.
// A repeated Idempotency-Key is acknowledged with 200 and not queued again.
func (h *RecordsHandler) HandlePostRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	f, err := bodyFormat(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err)
		return
	}
	records, err := ingest.Read(http.MaxBytesReader(w, r.Body, h.maxBody), f)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: no records", ErrBadRequest))
		return
	}

	b, dup, err := h.deps.EnqueueOnce(r.Context(), r.Header.Get(idempotencyHeader), "http", records)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Records: len(records)})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", BatchID: b.ID, Records: len(b.Records)})
}

func bodyFormat(contentType string) (ingest.Format, error) {
	if contentType == "" {
		return ingest.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	switch mt {
	case "application/json":
		return ingest.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return ingest.FormatYAML, nil
	case "text/csv":
		return ingest.FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ingest.ErrUnknownFormat, mt)
	}
}
