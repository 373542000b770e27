package loot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/downloader"
	"github.com/shapedtime/hoardhelper/internal/mediatype"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/realdebrid"
	"github.com/shapedtime/hoardhelper/internal/torrentstore"
)

var (
	ErrNotReady    = errors.New("torrent is not downloaded by the debrid service yet")
	ErrUnknownFile = errors.New("file is not a video of this torrent")
	ErrNoSelection = errors.New("no files selected")
)

// Debrid is the subset of the debrid API the service drives.
type Debrid interface {
	AddMagnet(ctx context.Context, magnet string) (*realdebrid.AddMagnetResponse, error)
	TorrentInfo(ctx context.Context, id string) (*realdebrid.TorrentInfo, error)
	SelectFiles(ctx context.Context, id string, fileIDs []int) error
	Unrestrict(ctx context.Context, link string) (*realdebrid.UnrestrictedLink, error)
}

// ClassificationObserver is notified of each classified listing.
type ClassificationObserver interface {
	ObserveClassification(t mediatype.MediaType)
}

// Listing is a classified torrent file listing.
type Listing struct {
	Info      *realdebrid.TorrentInfo          `json:"info"`
	Detection mediatype.DetectionResult        `json:"detection"`
	Files     []mediatype.FileWithSubtitleInfo `json:"files"`
	Rejected  []mediatype.RejectedFile         `json:"rejected,omitempty"`
}

// DownloadResult lists the files queued after a download and the ones that failed.
type DownloadResult struct {
	Files  []queue.FileMetadata `json:"files"`
	Failed []string             `json:"failed,omitempty"`
}

type Options struct {
	Store       *torrentstore.Store
	Downloader  *downloader.Downloader
	Ingestor    *queue.Ingestor
	Queue       *queue.Queue
	Concurrency int
	Observer    ClassificationObserver
}

// Service turns magnet links into queued files: add to the debrid service,
// classify, select videos with their subtitles, download and parse.
type Service struct {
	debrid Debrid
	opts   Options
	log    zerolog.Logger
}

func NewService(debrid Debrid, opts Options) *Service {
	return &Service{
		debrid: debrid,
		opts:   opts,
		log:    log.Logger.With().Str("component", "loot").Logger(),
	}
}

// Add submits a magnet link and returns its classified listing.
func (s *Service) Add(ctx context.Context, magnet string) (*Listing, error) {
	resp, err := s.debrid.AddMagnet(ctx, magnet)
	if err != nil {
		return nil, fmt.Errorf("failed to add magnet: %w", err)
	}

	info, err := s.debrid.TorrentInfo(ctx, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent info: %w", err)
	}

	listing := s.classify(info)

	if s.opts.Store != nil {
		err := s.opts.Store.Put(&torrentstore.Entry{
			MagnetURI: magnet,
			DebridID:  resp.ID,
			Name:      info.Filename,
			MediaType: listing.Detection.MediaType,
		})
		if err != nil {
			s.log.Error().Err(err).Str("torrent_id", resp.ID).Msg("failed to store torrent")
		}
	}

	s.log.Info().
		Str("torrent_id", resp.ID).
		Str("media_type", string(listing.Detection.MediaType)).
		Int("videos", len(listing.Detection.VideoFiles)).
		Msg("torrent added")

	return listing, nil
}

// Inspect returns the classified listing of a known torrent.
func (s *Service) Inspect(ctx context.Context, id string) (*Listing, error) {
	info, err := s.debrid.TorrentInfo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent info: %w", err)
	}
	return s.classify(info), nil
}

// Select asks the debrid service for the given videos and their subtitles.
// It returns every selected file ID.
func (s *Service) Select(ctx context.Context, id string, videoIDs []int) ([]int, error) {
	if len(videoIDs) == 0 {
		return nil, ErrNoSelection
	}

	listing, err := s.Inspect(ctx, id)
	if err != nil {
		return nil, err
	}

	groups := make(map[int][]int, len(listing.Files))
	for _, f := range listing.Files {
		groups[f.ID] = f.SubtitleFileIDs
	}
	for _, v := range videoIDs {
		if _, ok := groups[v]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownFile, v)
		}
	}

	ids := mediatype.SelectionWithSubtitles(videoIDs, groups)
	if err := s.debrid.SelectFiles(ctx, id, ids); err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}

	s.updateEntry(id, func(e *torrentstore.Entry) {
		e.SelectedFileIDs = ids
	})

	s.log.Info().Str("torrent_id", id).Ints("files", ids).Msg("files selected")
	return ids, nil
}

// Download fetches every link of a finished torrent into the temp folder and
// queues the downloaded files. onProgress receives overall progress and may be nil.
func (s *Service) Download(ctx context.Context, id string, onProgress func(percent float64)) (*DownloadResult, error) {
	info, err := s.debrid.TorrentInfo(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent info: %w", err)
	}
	if !info.Ready() {
		return nil, fmt.Errorf("%w (status %s)", ErrNotReady, info.Status)
	}

	res := &DownloadResult{Files: []queue.FileMetadata{}}

	items := make([]downloader.Item, 0, len(info.Links))
	for _, link := range info.Links {
		u, err := s.debrid.Unrestrict(ctx, link)
		if err != nil {
			s.log.Error().Err(err).Str("link", link).Msg("failed to unrestrict link")
			res.Failed = append(res.Failed, link)
			continue
		}
		items = append(items, downloader.Item{URL: u.Download, Filename: u.Filename, Bytes: u.Filesize})
	}

	var paths []string
	for i, r := range s.opts.Downloader.DownloadAll(ctx, items, s.opts.Concurrency, onProgress) {
		if r.Error != "" {
			res.Failed = append(res.Failed, items[i].Filename)
			continue
		}
		paths = append(paths, r.Path)
	}

	if len(paths) > 0 && s.opts.Ingestor != nil {
		metas := s.opts.Ingestor.Ingest(paths)
		if s.opts.Queue != nil {
			metas = s.opts.Queue.Add(metas...)
		}
		res.Files = metas
	}

	if len(res.Failed) == 0 {
		s.updateEntry(id, func(e *torrentstore.Entry) {
			e.Downloaded = true
		})
	}

	s.log.Info().
		Str("torrent_id", id).
		Int("downloaded", len(paths)).
		Int("failed", len(res.Failed)).
		Msg("torrent download finished")

	return res, nil
}

// Tracked returns the torrents added through the service.
func (s *Service) Tracked() ([]*torrentstore.Entry, error) {
	if s.opts.Store == nil {
		return []*torrentstore.Entry{}, nil
	}
	return s.opts.Store.List()
}

func (s *Service) classify(info *realdebrid.TorrentInfo) *Listing {
	valid, rejected := mediatype.ValidateFiles(info.Files)
	for _, r := range rejected {
		s.log.Warn().Int("file_id", r.File.ID).Str("reason", r.Reason).Msg("ignoring invalid file entry")
	}

	det := mediatype.Detect(valid)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveClassification(det.MediaType)
	}

	return &Listing{
		Info:      info,
		Detection: det,
		Files:     mediatype.WithSubtitleInfo(det.VideoFiles, det.SubtitleFiles),
		Rejected:  rejected,
	}
}

func (s *Service) updateEntry(id string, fn func(e *torrentstore.Entry)) {
	if s.opts.Store == nil {
		return
	}
	if _, err := s.opts.Store.Update(id, fn); err != nil && !errors.Is(err, torrentstore.ErrNotFound) {
		s.log.Error().Err(err).Str("torrent_id", id).Msg("failed to update stored torrent")
	}
}
