package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docq/internal/config"
	"docq/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(config.Ingest{BaseURL: srv.URL, Timeout: 5 * time.Second}), srv
}

func TestProcessDecodesResult(t *testing.T) {
	var gotPath string
	var gotReq processRequest
	cli, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(domain.BatchResult{
			OverallStatus: "completed",
			Results:       []domain.DocumentResult{{Bucket: "b1", Filename: "f1", Status: "completed", Chunks: 4}},
		})
	})
	defer srv.Close()

	res, err := cli.Process(context.Background(), []domain.BatchItem{{Bucket: "b1", Filename: "f1"}})
	require.NoError(t, err)
	assert.Equal(t, "/v1/documents/process", gotPath)
	assert.Equal(t, []domain.BatchItem{{Bucket: "b1", Filename: "f1"}}, gotReq.Documents)
	assert.Equal(t, "completed", res.OverallStatus)
	assert.Equal(t, 4, res.Results[0].Chunks)
}

func TestProcessServerErrorIsAnError(t *testing.T) {
	cli, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "embedding model unavailable", http.StatusServiceUnavailable)
	})
	defer srv.Close()

	_, err := cli.Process(context.Background(), []domain.BatchItem{{Bucket: "b1", Filename: "f1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestProcessFailedStatusIsAnError(t *testing.T) {
	cli, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.BatchResult{OverallStatus: "failed"})
	})
	defer srv.Close()

	_, err := cli.Process(context.Background(), []domain.BatchItem{{Bucket: "b1", Filename: "f1"}})
	require.Error(t, err)
}

func TestProcessHonorsContextCancellation(t *testing.T) {
	cli, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cli.Process(ctx, []domain.BatchItem{{Bucket: "b1", Filename: "f1"}})
	require.Error(t, err)
}
