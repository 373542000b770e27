package parser

import (
	"strings"

	"github.com/shapedtime/hoardhelper/internal/common"
	"golang.org/x/sync/errgroup"
)

const (
	// RuleMovie names the fallback applied when no episode rule matches.
	RuleMovie = "movie"

	batchLimit = 8
)

// Parse extracts series, season and episode from a file path. It never fails:
// anything that is not recognisably an episode is classified as a movie.
func Parse(filePath string) ParseResult {
	filename := baseName(filePath)
	ext := extName(filename)
	name := strings.TrimSuffix(filename, ext)

	for _, r := range episodeRules {
		m := r.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		series, season, episode, ok := r.extract(m)
		if !ok {
			continue
		}

		return ParseResult{
			Type:             MediaTypeTV,
			Series:           CleanSeriesName(series),
			Season:           &season,
			Episode:          &episode,
			FormattedSeason:  common.PadZero(season, 2),
			FormattedEpisode: common.PadZero(episode, 2),
			Ext:              ext,
			OriginalName:     filename,
			FullPath:         filePath,
			Rule:             r.name,
		}
	}

	return ParseResult{
		Type:         MediaTypeMovie,
		Series:       CleanSeriesName(name),
		Ext:          ext,
		OriginalName: filename,
		FullPath:     filePath,
		Rule:         RuleMovie,
	}
}

// ParseAll parses paths concurrently. Results keep the order of paths.
func ParseAll(paths []string) []ParseResult {
	out := make([]ParseResult, len(paths))

	var g errgroup.Group
	g.SetLimit(batchLimit)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			out[i] = Parse(p)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// baseName returns the last path element. Both slash styles are accepted
// since drop folders may hand over Windows paths.
func baseName(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// extName returns the extension including the dot, with its original case.
// Dotfiles like ".nfo" and names without a dot have no extension.
func extName(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i <= 0 {
		return ""
	}
	return filename[i:]
}
