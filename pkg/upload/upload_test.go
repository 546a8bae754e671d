package upload_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherine-k/infusion/pkg/events"
	"github.com/sherine-k/infusion/pkg/upload"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpload(t *testing.T) {
	type envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	type session struct {
		SessionID string     `json:"sessionId"`
		Count     int        `json:"count"`
		Records   []envelope `json:"records"`
	}

	var got session
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	at := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	recs := []events.Record{
		events.Basal{At: at, Rate: 0.8},
		events.Bolus{At: at.Add(time.Hour), Normal: 2.5},
	}

	u := &upload.Uploader{URL: server.URL, Logger: quietLogger()}
	require.NoError(t, u.Upload(context.Background(), recs))

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Records, 2)
	assert.Equal(t, string(events.KindBasal), got.Records[0].Type)
	assert.Equal(t, string(events.KindBolus), got.Records[1].Type)

	_, err := uuid.Parse(got.SessionID)
	assert.NoError(t, err, "session id should be a uuid")
}

func TestUpload_PlatformError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	u := &upload.Uploader{URL: server.URL, Logger: quietLogger()}
	err := u.Upload(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestUpload_Unreachable(t *testing.T) {
	u := &upload.Uploader{URL: "http://127.0.0.1:1", Logger: quietLogger()}
	err := u.Upload(context.Background(), nil)
	require.Error(t, err)
}
