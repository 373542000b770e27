package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shapedtime/hoardhelper/internal/config"
	"github.com/shapedtime/hoardhelper/internal/exporter"
	"github.com/shapedtime/hoardhelper/internal/history"
	dlog "github.com/shapedtime/hoardhelper/internal/log"
	"github.com/shapedtime/hoardhelper/internal/mediatype"
	"github.com/shapedtime/hoardhelper/internal/monitor"
	"github.com/shapedtime/hoardhelper/internal/parser"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/uploader"
	"github.com/shapedtime/hoardhelper/internal/webdav"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu      sync.Mutex
	remotes []string
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, remotePath string, onProgress webdav.ProgressFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	onProgress(100)
	f.remotes = append(f.remotes, remotePath)
	return nil
}

func newTestDeps() Deps {
	q := queue.New()
	return Deps{
		Ingestor: queue.NewIngestor(exporter.Bases{TV: "/TV", Movie: "/Movies"}, nil, dlog.Discard()),
		Queue:    q,
	}
}

func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestParse(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	s := NewServer(newTestDeps())

	w := doJSON(t, s.Handler(), http.MethodPost, "/api/parse", PathsRequest{
		Paths: []string{"/in/The.Office.S03E10.720p.mkv", "/in/Heat.1995.1080p.BluRay.mkv"},
	})
	require.Equal(http.StatusOK, w.Code)

	var resp QueueResponse
	decode(t, w, &resp)
	require.Len(resp.Files, 2)
	require.Equal("/TV/The Office/Season 03/The Office - S03E10.mkv", resp.Files[0].Proposed)
	require.Equal(parser.MediaTypeMovie, resp.Files[1].Type)

	w = doJSON(t, s.Handler(), http.MethodPost, "/api/parse", PathsRequest{})
	require.Equal(http.StatusBadRequest, w.Code)
}

func TestGeneratePath(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	s := NewServer(newTestDeps())

	meta := queue.FileMetadata{ParseResult: parser.Parse("/in/Show.S01E02.mkv")}
	meta.Series = "Better Show"

	w := doJSON(t, s.Handler(), http.MethodPost, "/api/generate-path", MetadataRequest{Metadata: meta})
	require.Equal(http.StatusOK, w.Code)

	var resp GeneratePathResponse
	decode(t, w, &resp)
	require.True(resp.Valid)
	require.Equal("/TV/Better Show/Season 01/Better Show - S01E02.mkv", resp.Proposed)

	meta.Series = "Mr."
	meta.Ext = "/../.mkv"
	w = doJSON(t, s.Handler(), http.MethodPost, "/api/generate-path", MetadataRequest{Metadata: meta})
	require.Equal(http.StatusOK, w.Code)

	decode(t, w, &resp)
	require.True(resp.Valid)
	require.Equal("/TV/Mr/Season 01/Mr - S01E02.mkv", resp.Proposed)
	require.NotContains(resp.Proposed, "..")
}

func TestQueueLifecycle(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	deps := newTestDeps()
	up := &fakeUploader{}
	deps.Uploads = uploader.NewService(up, uploader.Options{Status: deps.Queue})
	s := NewServer(deps)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/queue", PathsRequest{
		Paths: []string{"/in/Show.S01E01.mkv", "/in/Show.S01E02.mkv", "/in/.S01E01.mkv"},
	})
	require.Equal(http.StatusCreated, w.Code)

	var added QueueResponse
	decode(t, w, &added)
	require.Len(added.Files, 3)
	require.False(added.Files[2].Valid)

	edited := added.Files[1]
	edited.Series = "Renamed"
	w = doJSON(t, h, http.MethodPut, "/api/queue/"+edited.ID, MetadataRequest{Metadata: edited})
	require.Equal(http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/api/queue/"+added.Files[2].ID, nil)
	require.Equal(http.StatusNoContent, w.Code)
	w = doJSON(t, h, http.MethodDelete, "/api/queue/"+added.Files[2].ID, nil)
	require.Equal(http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/queue/upload", nil)
	require.Equal(http.StatusOK, w.Code)

	var uploaded UploadResponse
	decode(t, w, &uploaded)
	require.Equal("2/2 secured", uploaded.Summary)
	require.Equal([]string{
		"/TV/Show/Season 01/Show - S01E01.mkv",
		"/TV/Renamed/Season 01/Renamed - S01E02.mkv",
	}, up.remotes)

	w = doJSON(t, h, http.MethodGet, "/api/status", nil)
	var status StatusResponse
	decode(t, w, &status)
	require.Equal(QueueStatus{Total: 2, Secured: 2}, status.Queue)

	w = doJSON(t, h, http.MethodDelete, "/api/queue?secured=true", nil)
	require.Equal(http.StatusOK, w.Code)
	require.Equal(0, deps.Queue.Len())
}

func TestUploadWithoutWebDAV(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	s := NewServer(newTestDeps())
	w := doJSON(t, s.Handler(), http.MethodPost, "/api/queue/upload", nil)
	require.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestClassify(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	const big = 500 * 1024 * 1024
	s := NewServer(newTestDeps())

	w := doJSON(t, s.Handler(), http.MethodPost, "/api/classify", ClassifyRequest{
		Files: []mediatype.TorrentFile{
			{ID: 1, Path: "/Movie.2020.mkv", Bytes: big},
			{ID: 2, Path: "/Movie.2020.en.srt", Bytes: 100},
			{ID: 3, Path: "/sample.mkv", Bytes: 1000},
		},
	})
	require.Equal(http.StatusOK, w.Code)

	var resp ClassifyResponse
	decode(t, w, &resp)
	require.Equal(mediatype.MediaTypeMovie, resp.Detection.MediaType)
	require.Len(resp.Files, 1)
	require.Equal([]int{2}, resp.Files[0].SubtitleFileIDs)
}

func TestHistoryRetry(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx := context.Background()

	db, err := history.NewDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(err)
	t.Cleanup(func() { db.Close() })
	repo := history.NewRepository(db)

	deps := newTestDeps()
	deps.History = repo
	h := NewServer(deps).Handler()

	failed := &history.Item{
		File:         deps.Ingestor.Ingest([]string{"/in/Show.S02E03.mkv"})[0],
		UploadStatus: history.UploadFailed,
		ErrorMessage: "connection refused",
	}
	require.NoError(repo.Record(ctx, failed))

	w := doJSON(t, h, http.MethodGet, "/api/history", nil)
	require.Equal(http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/history/"+failed.ID+"/retry", nil)
	require.Equal(http.StatusCreated, w.Code)

	var queued queue.FileMetadata
	decode(t, w, &queued)
	require.Equal(failed.ID, queued.RetryID)
	require.Equal(queue.StatusReady, queued.Status.Kind)
	require.Equal(1, deps.Queue.Len())

	w = doJSON(t, h, http.MethodPost, "/api/history/"+failed.ID+"/retry", nil)
	require.Equal(http.StatusConflict, w.Code)
	require.Equal(1, deps.Queue.Len())

	w = doJSON(t, h, http.MethodDelete, "/api/history/"+failed.ID, nil)
	require.Equal(http.StatusNoContent, w.Code)
	w = doJSON(t, h, http.MethodPost, "/api/history/"+failed.ID+"/retry", nil)
	require.Equal(http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/history?limit=abc", nil)
	require.Equal(http.StatusBadRequest, w.Code)
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	deps := newTestDeps()
	deps.Auth = config.APIAuthConfig{Enabled: true, Username: "hoard", Password: "secret-pass"}
	h := NewServer(deps).Handler()

	tests := []struct {
		user, pass string
		set        bool
		code       int
	}{
		{code: http.StatusUnauthorized},
		{user: "hoard", pass: "wrong", set: true, code: http.StatusUnauthorized},
		{user: "hoard", pass: "secret-pass", set: true, code: http.StatusOK},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
		if tc.set {
			req.SetBasicAuth(tc.user, tc.pass)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(tc.code, w.Code)
		if tc.code == http.StatusUnauthorized {
			require.Contains(w.Header().Get("WWW-Authenticate"), "Basic")
		}
	}
}

func TestOptionalServices(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	deps := newTestDeps()
	deps.Monitor = monitor.New(60)
	h := NewServer(deps).Handler()

	for _, target := range []string{"/api/debrid/torrents", "/api/history"} {
		w := doJSON(t, h, http.MethodGet, target, nil)
		require.Equal(http.StatusServiceUnavailable, w.Code, target)
	}

	w := doJSON(t, h, http.MethodPost, "/api/test-connection", nil)
	require.Equal(http.StatusOK, w.Code)
	var resp TestConnectionResponse
	decode(t, w, &resp)
	require.False(resp.Success)

	w = doJSON(t, h, http.MethodPost, "/api/test-connection", TestConnectionRequest{URL: "ftp://host", Username: "u", Password: "p"})
	decode(t, w, &resp)
	require.False(resp.Success)
	require.NotEmpty(resp.Error)
}

type staticProber struct{}

func (staticProber) Name() string                    { return "webdav" }
func (staticProber) Probe(ctx context.Context) error { return nil }

func TestMonitorRoutes(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	deps := newTestDeps()
	deps.Monitor = monitor.New(60, staticProber{})
	h := NewServer(deps).Handler()

	w := doJSON(t, h, http.MethodPost, "/api/status/check", nil)
	require.Equal(http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/status", nil)
	var status StatusResponse
	decode(t, w, &status)
	require.True(status.Connections["webdav"].Online)

	w = doJSON(t, h, http.MethodPost, "/api/status/pause", nil)
	require.Equal(http.StatusOK, w.Code)
	require.True(deps.Monitor.Paused())

	w = doJSON(t, h, http.MethodPost, "/api/status/resume", nil)
	require.Equal(http.StatusOK, w.Code)
	require.False(deps.Monitor.Paused())
}
