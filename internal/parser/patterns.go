package parser

import (
	"regexp"
	"strconv"
)

// rule is one filename pattern and the handler that turns its submatches
// into series/season/episode. Rules are tried in order, first match wins.
type rule struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string) (series string, season, episode int, ok bool)
}

// episodeRules is the ordered rule table. A filename matching none of them is a movie.
var episodeRules = []rule{
	// Show.Name.S01E02, Show Name s1e2
	{
		name:    "sxxexx",
		re:      regexp.MustCompile(`(?i)^(.*?)[.\s_]+S(\d+)E(\d+)`),
		extract: seasonEpisode,
	},
	// Show Name 1x02
	{
		name:    "nxnn",
		re:      regexp.MustCompile(`(?i)^(.*?)[.\s_]+(\d+)x(\d+)`),
		extract: seasonEpisode,
	},
	// [Group] Show Name - 01 [1080p]
	{
		name:    "anime",
		re:      regexp.MustCompile(`^(?:\[.*?\]\s*)?(.*?)[\s_]+-\s+(\d+)(?:[\s_]+.*)?$`),
		extract: absoluteEpisode,
	},
}

func seasonEpisode(m []string) (string, int, int, bool) {
	season, ok1 := parseInt(m[2])
	episode, ok2 := parseInt(m[3])
	return m[1], season, episode, ok1 && ok2
}

// absoluteEpisode handles numbering without a season, which is filed under season 1.
func absoluteEpisode(m []string) (string, int, int, bool) {
	episode, ok := parseInt(m[2])
	return m[1], 1, episode, ok
}

// parseInt parses a base-10 digit string. Values that overflow int are rejected.
func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
