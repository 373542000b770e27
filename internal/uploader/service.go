package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/history"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/webdav"
)

const (
	MsgInvalidRemotePath = "Invalid remote path"

	defaultMaxAttempts = 2
)

var ErrInvalidRemotePath = errors.New("invalid remote path")

// Uploader sends one local file to the remote store.
type Uploader interface {
	Upload(ctx context.Context, localPath, remotePath string, onProgress webdav.ProgressFunc) error
}

// Recorder persists finished uploads.
type Recorder interface {
	Record(ctx context.Context, it *history.Item) error
}

// StatusSink receives status transitions, usually the upload queue.
type StatusSink interface {
	SetStatus(id string, s queue.Status) error
}

// Observer receives upload outcomes, usually metrics.
type Observer interface {
	ObserveUpload(ok bool, attempts int, bytes int64, elapsed time.Duration)
}

// Event is emitted on every status change of a file in a batch.
type Event struct {
	Index  int          `json:"index"`
	FileID string       `json:"fileId"`
	Status queue.Status `json:"status"`
}

// Result is the outcome of one file of a batch.
type Result struct {
	File      queue.FileMetadata `json:"file"`
	Attempts  int                `json:"attempts"`
	Error     string             `json:"error,omitempty"`
	HistoryID string             `json:"historyId,omitempty"`
}

// OK reports whether the file was secured.
func (r Result) OK() bool {
	return r.Error == ""
}

type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	History         Recorder
	Status          StatusSink
	Observer        Observer
}

// Service uploads queued files with bounded retries.
type Service struct {
	up   Uploader
	opts Options
	log  zerolog.Logger
}

func NewService(up Uploader, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = time.Second
	}

	return &Service{
		up:   up,
		opts: opts,
		log:  log.Logger.With().Str("component", "uploader").Logger(),
	}
}

// UploadAll uploads files one after another. Invalid files and files that
// already were secured are skipped. onEvent may be nil.
func (s *Service) UploadAll(ctx context.Context, files []queue.FileMetadata, onEvent func(Event)) []Result {
	results := make([]Result, 0, len(files))

	for i, f := range files {
		if f.Status.Kind == queue.StatusSecured {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		emit := func(st queue.Status) {
			f.Status = st
			if s.opts.Status != nil && f.ID != "" {
				if err := s.opts.Status.SetStatus(f.ID, st); err != nil {
					s.log.Debug().Err(err).Str("id", f.ID).Msg("status update dropped")
				}
			}
			if onEvent != nil {
				onEvent(Event{Index: i, FileID: f.ID, Status: st})
			}
		}

		results = append(results, s.uploadOne(ctx, f, emit))
	}

	return results
}

func (s *Service) uploadOne(ctx context.Context, f queue.FileMetadata, emit func(queue.Status)) Result {
	res := Result{File: f}

	if !f.Valid || f.Proposed == "" {
		emit(queue.Failed(MsgInvalidRemotePath))
		res.Error = MsgInvalidRemotePath
		res.File.Status = queue.Failed(MsgInvalidRemotePath)
		s.record(ctx, &res, ErrInvalidRemotePath)
		return res
	}

	var size int64
	if info, err := os.Stat(f.FullPath); err == nil {
		size = info.Size()
	}

	start := time.Now()
	emit(queue.Processing(0))

	op := func() error {
		res.Attempts++
		err := s.up.Upload(ctx, f.FullPath, f.Proposed, func(p int) {
			emit(queue.Processing(p))
		})
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.opts.MaxAttempts-1)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Str("file", f.OriginalName).Dur("retry_in", wait).Msg("upload failed, retrying")
	})

	if s.opts.Observer != nil {
		s.opts.Observer.ObserveUpload(err == nil, res.Attempts, size, time.Since(start))
	}

	if err != nil {
		s.log.Error().Err(err).Str("file", f.OriginalName).Int("attempts", res.Attempts).Msg("upload failed")
		res.Error = err.Error()
		res.File.Status = queue.Failed(err.Error())
		emit(res.File.Status)
		s.record(ctx, &res, err)
		return res
	}

	s.log.Info().Str("file", f.OriginalName).Str("remote", f.Proposed).Int("attempts", res.Attempts).Msg("upload secured")
	res.File.Status = queue.Secured()
	emit(res.File.Status)
	s.record(ctx, &res, nil)
	return res
}

func (s *Service) record(ctx context.Context, res *Result, uploadErr error) {
	if s.opts.History == nil {
		return
	}

	it := &history.Item{
		File:         res.File,
		UploadStatus: history.UploadSuccess,
		IsRetry:      res.File.RetryID != "",
	}
	if uploadErr != nil {
		it.UploadStatus = history.UploadFailed
		it.ErrorMessage = res.Error
	}

	// the batch context may already be cancelled, history must still be written
	if err := s.opts.History.Record(context.WithoutCancel(ctx), it); err != nil {
		s.log.Error().Err(err).Str("file", res.File.OriginalName).Msg("failed to record history")
		return
	}
	res.HistoryID = it.ID
}

// isPermanent reports errors that another attempt cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, webdav.ErrRemoteExists) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Summary summarises a batch for logs and the CLI.
func Summary(results []Result) string {
	ok := 0
	for _, r := range results {
		if r.OK() {
			ok++
		}
	}
	return fmt.Sprintf("%d/%d secured", ok, len(results))
}
