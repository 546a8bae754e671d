// Package upload sends a finalized, ordered event log to the central
// platform. It is a plain consumer of the simulator's output: one session
// envelope, one POST, no retries.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sherine-k/infusion/pkg/events"
)

// Uploader posts event sessions to a platform endpoint.
type Uploader struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

type session struct {
	SessionID  string     `json:"sessionId"`
	UploadedAt time.Time  `json:"uploadedAt"`
	Count      int        `json:"count"`
	Records    []envelope `json:"records"`
}

type envelope struct {
	Type events.Kind   `json:"type"`
	Data events.Record `json:"data"`
}

// Upload transmits recs, which must already be in chronological order. A
// non-2xx response is an error; recovery is the caller's concern.
func (u *Uploader) Upload(ctx context.Context, recs []events.Record) error {
	logger := u.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}

	sess := session{
		SessionID:  uuid.NewString(),
		UploadedAt: time.Now().UTC(),
		Count:      len(recs),
		Records:    make([]envelope, 0, len(recs)),
	}
	for _, r := range recs {
		sess.Records = append(sess.Records, envelope{Type: r.Kind(), Data: r})
	}

	body, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("upload: encode session: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("upload: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload: post session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload: platform returned %s", resp.Status)
	}

	logger.Info("upload complete", "session", sess.SessionID, "records", sess.Count)
	return nil
}
