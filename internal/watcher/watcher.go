package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/mediatype"
)

const DefaultDebounce = 2 * time.Second

// OnFiles receives a batch of video files that settled in the drop folder.
type OnFiles func(paths []string)

// Watcher hands video files dropped into a folder to a callback. Events are
// collected until the folder has been quiet for the debounce period, so a
// file still being copied is reported once.
type Watcher struct {
	folder   string
	debounce time.Duration
	callback OnFiles
	watcher  *fsnotify.Watcher
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	stop    chan struct{}
	stopped bool
}

// New creates a watcher on folder, creating it when missing.
func New(folder string, debounce time.Duration, cb OnFiles) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create watch folder: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(folder); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", folder, err)
	}

	return &Watcher{
		folder:   folder,
		debounce: debounce,
		callback: cb,
		watcher:  fw,
		log:      log.Logger.With().Str("component", "watcher").Str("folder", folder).Logger(),
		pending:  make(map[string]bool),
		stop:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	go w.eventLoop()
	w.log.Info().Dur("debounce", w.debounce).Msg("drop folder watcher started")
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.stop)
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watch error")
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".part") || strings.HasSuffix(base, ".tmp") {
		return
	}
	if !mediatype.IsVideo(mediatype.TorrentFile{Path: event.Name}) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	w.pending[event.Name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			paths = append(paths, p)
		}
	}
	w.pending = make(map[string]bool)
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.log.Info().Int("files", len(paths)).Msg("new files in drop folder")
	w.callback(paths)
}
