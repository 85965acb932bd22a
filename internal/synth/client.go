package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/pkg/logger"
)

const (
	maxSubmitAttempts = 5
	retryBackoff      = 200 * time.Millisecond
	pollInterval      = 250 * time.Millisecond
)

// client wraps http.Client for the service endpoints.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type ack struct {
	Status    string `json:"status"`
	BatchID   string `json:"batch_id"`
	Records   int    `json:"records"`
	Duplicate bool   `json:"duplicate"`
}

type digestBody struct {
	Season    int                       `json:"season"`
	Evaluated int                       `json:"evaluated"`
	Failures  int                       `json:"failures"`
	Players   int                       `json:"players"`
	Counts    map[string]int            `json:"counts"`
	Entries   map[string][]digestPlayer `json:"entries"`
}

type digestPlayer struct {
	PlayerID string `json:"player_id"`
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// health checks /healthz.
func (c *client) health(ctx context.Context) error {
	if err := c.get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}

// post sends one batch under an idempotency key, so a retry after a lost
// response is acknowledged as a duplicate (200) rather than queued twice.
// A 429 means the ingest queue is full and is retried with a growing
// backoff; any other status rejects the batch.
func (c *client) post(ctx context.Context, key string, records []model.SeasonRecord) (ack, int, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return ack{}, 0, fmt.Errorf("failed to marshal batch: %w", err)
	}
	var retries int
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/records", bytes.NewReader(payload))
		if err != nil {
			return ack{}, retries, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", key)
		resp, err := c.http.Do(req)
		if err != nil {
			return ack{}, retries, err
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return ack{}, retries, err
		}

		switch {
		case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK:
			var a ack
			if err := json.Unmarshal(body, &a); err != nil {
				return ack{}, retries, err
			}
			return a, retries, nil
		case resp.StatusCode == http.StatusTooManyRequests && attempt < maxSubmitAttempts:
			retries++
			select {
			case <-ctx.Done():
				return ack{}, retries, ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		default:
			return ack{}, retries, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}
}

// submit posts records in batches of size using workers concurrent senders.
// Batch keys are derived from run and the batch index. The first rejected
// batch cancels the rest.
func (c *client) submit(ctx context.Context, run string, records []model.SeasonRecord, size, workers int, stats *Stats) error {
	log := logger.Get().Named("synth")
	var batches [][]model.SeasonRecord
	for start := 0; start < len(records); start += size {
		batches = append(batches, records[start:min(start+size, len(records))])
	}
	stats.Batches = len(batches)
	log.Info(ctx, "submitting records",
		logger.Int("records", len(records)),
		logger.Int("batches", len(batches)),
		logger.Int("workers", workers))

	var accepted, duplicate, retried atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, batch := range batches {
		g.Go(func() error {
			a, retries, err := c.post(gctx, fmt.Sprintf("%s-%d", run, i), batch)
			retried.Add(int64(retries))
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			accepted.Add(1)
			if a.Duplicate {
				duplicate.Add(1)
			}
			log.Debug(gctx, "batch acknowledged",
				logger.String("batchId", a.BatchID),
				logger.Int("records", a.Records),
				logger.Bool("duplicate", a.Duplicate))
			return nil
		})
	}
	err := g.Wait()
	stats.BatchesAccepted = int(accepted.Load())
	stats.BatchesDuplicate = int(duplicate.Load())
	stats.BatchesRetried = int(retried.Load())
	return err
}

// waitStored polls /stats until the store holds at least want records.
func (c *client) waitStored(ctx context.Context, want int, wait time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var stored int
	for {
		var stats map[string]any
		if err := c.get(ctx, "/stats", &stats); err == nil {
			if n, ok := stats["records"].(float64); ok {
				stored = int(n)
			}
			if stored >= want {
				return stored, nil
			}
		}
		select {
		case <-ctx.Done():
			return stored, fmt.Errorf("%w: %d of %d records stored", ErrIngestTimeout, stored, want)
		case <-ticker.C:
		}
	}
}

func (c *client) digest(ctx context.Context) (*digestBody, error) {
	var d digestBody
	if err := c.get(ctx, "/digest?format=json", &d); err != nil {
		return nil, err
	}
	return &d, nil
}
