package queue

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/shapedtime/hoardhelper/internal/common"
	"github.com/shapedtime/hoardhelper/internal/exporter"
	"github.com/shapedtime/hoardhelper/internal/parser"
)

// ParseObserver is notified of each parse, used for metrics.
type ParseObserver interface {
	ObserveParse(r parser.ParseResult)
}

// Ingestor turns raw paths into queue entries. Parse results are memoized
// since drop folders and retries feed the same paths repeatedly.
type Ingestor struct {
	bases    exporter.Bases
	parsed   *cache.Cache
	observer ParseObserver
	log      zerolog.Logger
}

func NewIngestor(bases exporter.Bases, observer ParseObserver, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		bases:    bases,
		parsed:   cache.New(30*time.Minute, 10*time.Minute),
		observer: observer,
		log:      log,
	}
}

// Bases returns the base folders the ingestor builds paths with.
func (i *Ingestor) Bases() exporter.Bases {
	return i.bases
}

// Ingest parses every path and evaluates the result against the configured bases.
func (i *Ingestor) Ingest(paths []string) []FileMetadata {
	out := make([]FileMetadata, 0, len(paths))

	var misses []string
	results := make(map[string]parser.ParseResult, len(paths))
	for _, p := range paths {
		if v, ok := i.parsed.Get(p); ok {
			results[p] = v.(parser.ParseResult)
			continue
		}
		misses = append(misses, p)
	}

	for _, r := range parser.ParseAll(misses) {
		i.parsed.Set(r.FullPath, r, cache.DefaultExpiration)
		results[r.FullPath] = r
		if i.observer != nil {
			i.observer.ObserveParse(r)
		}
	}

	for _, p := range paths {
		meta := Evaluate(results[p], i.bases)
		if !meta.Valid {
			i.log.Warn().Str("file", p).Str("reason", meta.Status.Message).Msg("file not queued as valid")
		} else {
			i.log.Debug().Str("file", p).Str("proposed", meta.Proposed).Msg("file parsed")
		}
		out = append(out, meta)
	}

	return out
}

// Regenerate rebuilds a file's proposed path after the user edited its
// series, season, episode or type. It is stateless and idempotent.
func (i *Ingestor) Regenerate(meta FileMetadata) FileMetadata {
	r := meta.ParseResult
	r.Series = strings.Trim(parser.Sanitize(r.Series), ". ")

	if r.Type == parser.MediaTypeTV {
		r.FormattedSeason = ""
		r.FormattedEpisode = ""
		if r.Season != nil {
			r.FormattedSeason = common.PadZero(*r.Season, 2)
		}
		if r.Episode != nil {
			r.FormattedEpisode = common.PadZero(*r.Episode, 2)
		}
	} else {
		r.Type = parser.MediaTypeMovie
		r.Season = nil
		r.Episode = nil
		r.FormattedSeason = ""
		r.FormattedEpisode = ""
	}

	out := Evaluate(r, i.bases)
	out.ID = meta.ID
	out.RetryID = meta.RetryID
	return out
}
