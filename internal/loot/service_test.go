package loot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shapedtime/hoardhelper/internal/downloader"
	"github.com/shapedtime/hoardhelper/internal/exporter"
	dlog "github.com/shapedtime/hoardhelper/internal/log"
	"github.com/shapedtime/hoardhelper/internal/mediatype"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/realdebrid"
	"github.com/shapedtime/hoardhelper/internal/torrentstore"
	"github.com/stretchr/testify/require"
)

const testMagnet = "magnet:?xt=urn:btih:c9e15763f722f23e98a29decdfae341b98d53056&dn=Show"

const big = 500 * 1024 * 1024

type fakeDebrid struct {
	info     *realdebrid.TorrentInfo
	selected []int
	fileURL  string
}

func (f *fakeDebrid) AddMagnet(ctx context.Context, magnet string) (*realdebrid.AddMagnetResponse, error) {
	return &realdebrid.AddMagnetResponse{ID: f.info.ID}, nil
}

func (f *fakeDebrid) TorrentInfo(ctx context.Context, id string) (*realdebrid.TorrentInfo, error) {
	if id != f.info.ID {
		return nil, &realdebrid.APIError{Status: http.StatusNotFound, StatusText: "Not Found"}
	}
	return f.info, nil
}

func (f *fakeDebrid) SelectFiles(ctx context.Context, id string, fileIDs []int) error {
	f.selected = fileIDs
	return nil
}

func (f *fakeDebrid) Unrestrict(ctx context.Context, link string) (*realdebrid.UnrestrictedLink, error) {
	name := strings.TrimPrefix(link, "https://hoster/")
	return &realdebrid.UnrestrictedLink{
		Filename: name,
		Filesize: 5,
		Download: f.fileURL + "/" + name,
	}, nil
}

type countingObserver struct {
	seen []mediatype.MediaType
}

func (c *countingObserver) ObserveClassification(t mediatype.MediaType) {
	c.seen = append(c.seen, t)
}

func showInfo() *realdebrid.TorrentInfo {
	return &realdebrid.TorrentInfo{
		ID:       "ABC123",
		Filename: "Show.S01",
		Hash:     "c9e15763f722f23e98a29decdfae341b98d53056",
		Status:   realdebrid.StatusWaitingFilesSelect,
		Files: []mediatype.TorrentFile{
			{ID: 1, Path: "/Show.S01/Show.S01E01.mkv", Bytes: big},
			{ID: 2, Path: "/Show.S01/Show.S01E01.srt", Bytes: 1000},
			{ID: 3, Path: "/Show.S01/Show.S01E02.mkv", Bytes: big},
			{ID: 4, Path: "/Show.S01/Show.S01E03.mkv", Bytes: big},
			{ID: 5, Path: "/Show.S01/info.nfo", Bytes: 100},
			{ID: 6, Path: "no-leading-slash.mkv", Bytes: big},
		},
	}
}

func newTestService(t *testing.T, debrid *fakeDebrid) (*Service, *torrentstore.Store, *queue.Queue, *countingObserver) {
	t.Helper()

	store, err := torrentstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	q := queue.New()
	obs := &countingObserver{}
	svc := NewService(debrid, Options{
		Store:       store,
		Downloader:  downloader.New(t.TempDir(), nil),
		Ingestor:    queue.NewIngestor(exporter.Bases{TV: "/TV", Movie: "/Movies"}, nil, dlog.Discard()),
		Queue:       q,
		Concurrency: 2,
		Observer:    obs,
	})
	return svc, store, q, obs
}

func TestAdd(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	debrid := &fakeDebrid{info: showInfo()}
	svc, store, _, obs := newTestService(t, debrid)

	listing, err := svc.Add(context.Background(), testMagnet)
	require.NoError(err)

	require.Equal(mediatype.MediaTypeTV, listing.Detection.MediaType)
	require.Len(listing.Files, 3)
	require.Equal([]int{2}, listing.Files[0].SubtitleFileIDs)
	require.Empty(listing.Files[1].SubtitleFileIDs)
	require.Len(listing.Rejected, 1)
	require.Equal(6, listing.Rejected[0].File.ID)
	require.Equal([]mediatype.MediaType{mediatype.MediaTypeTV}, obs.seen)

	e, err := store.Get("ABC123")
	require.NoError(err)
	require.Equal("c9e15763f722f23e98a29decdfae341b98d53056", e.InfoHash)
	require.Equal(mediatype.MediaTypeTV, e.MediaType)

	tracked, err := svc.Tracked()
	require.NoError(err)
	require.Len(tracked, 1)
}

func TestSelect(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	debrid := &fakeDebrid{info: showInfo()}
	svc, store, _, _ := newTestService(t, debrid)

	_, err := svc.Add(context.Background(), testMagnet)
	require.NoError(err)

	ids, err := svc.Select(context.Background(), "ABC123", []int{1, 3})
	require.NoError(err)
	require.Equal([]int{1, 2, 3}, ids)
	require.Equal([]int{1, 2, 3}, debrid.selected)

	e, err := store.Get("ABC123")
	require.NoError(err)
	require.Equal([]int{1, 2, 3}, e.SelectedFileIDs)

	_, err = svc.Select(context.Background(), "ABC123", []int{5})
	require.ErrorIs(err, ErrUnknownFile)

	_, err = svc.Select(context.Background(), "ABC123", nil)
	require.ErrorIs(err, ErrNoSelection)
}

func TestDownload(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "video")
	}))
	defer srv.Close()

	info := showInfo()
	debrid := &fakeDebrid{info: info, fileURL: srv.URL}
	svc, store, q, _ := newTestService(t, debrid)

	_, err := svc.Add(context.Background(), testMagnet)
	require.NoError(err)

	_, err = svc.Download(context.Background(), "ABC123", nil)
	require.ErrorIs(err, ErrNotReady)

	info.Status = realdebrid.StatusDownloaded
	info.Links = []string{"https://hoster/Show.S01E01.mkv", "https://hoster/Show.S01E02.mkv"}

	res, err := svc.Download(context.Background(), "ABC123", nil)
	require.NoError(err)
	require.Empty(res.Failed)
	require.Len(res.Files, 2)
	require.Equal("/TV/Show/Season 01/Show - S01E01.mkv", res.Files[0].Proposed)
	require.NotEmpty(res.Files[0].ID)
	require.Equal(2, q.Len())

	e, err := store.Get("ABC123")
	require.NoError(err)
	require.True(e.Downloaded)

	info.Links = []string{"https://hoster/missing.mkv"}
	res, err = svc.Download(context.Background(), "ABC123", nil)
	require.NoError(err)
	require.Equal([]string{"missing.mkv"}, res.Failed)
	require.Empty(res.Files)
}
