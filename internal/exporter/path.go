package exporter

import (
	"regexp"
	"strings"

	"github.com/shapedtime/hoardhelper/internal/parser"
)

// Bases holds the remote base folders per media type. Empty means library root.
type Bases struct {
	TV    string `json:"tv"`
	Movie string `json:"movie"`
}

// For returns the base folder for the given media type.
func (b Bases) For(t parser.MediaType) string {
	if t == parser.MediaTypeTV {
		return b.TV
	}
	return b.Movie
}

var (
	slashRuns = regexp.MustCompile(`/{2,}`)
	digits    = regexp.MustCompile(`^[0-9]+$`)
)

// pathSeries returns the series as a folder name. Outer dots and spaces are
// trimmed so a name like "Mr." cannot form ".." with the extension.
func pathSeries(series string) string {
	return strings.Trim(parser.Sanitize(series), ". ")
}

// pathExt returns ext as a single-dot extension, or "" when nothing safe is left.
func pathExt(ext string) string {
	clean := strings.Trim(parser.Sanitize(ext), ". ")
	if clean == "" {
		return ""
	}
	return "." + clean
}

// GenerateNewPath returns the canonical library path relative to the base
// folder. Movies are filed as "{Title}/{Title}{ext}", episodes as
// "{Show}/Season {SS}/{Show} - S{SS}E{EE}{ext}". Paths always use forward slashes.
// It fails for a nil result, a series with no usable characters, or
// non-numeric season or episode numbers.
func GenerateNewPath(r *parser.ParseResult) (string, bool) {
	if r == nil {
		return "", false
	}

	series := pathSeries(r.Series)
	if series == "" {
		return "", false
	}
	ext := pathExt(r.Ext)

	if r.Type == parser.MediaTypeMovie {
		return series + "/" + series + ext, true
	}

	season := r.FormattedSeason
	if season == "" {
		season = "00"
	}
	episode := r.FormattedEpisode
	if episode == "" {
		episode = "00"
	}
	if !digits.MatchString(season) || !digits.MatchString(episode) {
		return "", false
	}

	return series + "/Season " + season + "/" + series + " - S" + season + "E" + episode + ext, true
}

// PrependBase joins a user supplied base folder with a relative library path.
// Every ".." is removed from the base first, so the result can never climb
// above it.
func PrependBase(base, rel string) string {
	if base == "" {
		return rel
	}

	safe := strings.ReplaceAll(base, "..", "")
	safe = slashRuns.ReplaceAllString(safe, "/")
	safe = strings.TrimSuffix(safe, "/")
	rel = strings.TrimPrefix(rel, "/")

	return safe + "/" + rel
}

// BuildPath generates the library path for r and prefixes the base folder
// configured for its media type.
func BuildPath(r *parser.ParseResult, bases Bases) (string, bool) {
	rel, ok := GenerateNewPath(r)
	if !ok {
		return "", false
	}
	return PrependBase(bases.For(r.Type), rel), true
}
