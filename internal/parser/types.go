package parser

// MediaType is the classification of a single parsed filename
type MediaType string

const (
	MediaTypeTV    MediaType = "tv"
	MediaTypeMovie MediaType = "movie"
)

// ParseResult holds the metadata extracted from one filename.
// Season and Episode are nil for movies, and the formatted fields are empty.
type ParseResult struct {
	Type             MediaType `json:"type"`
	Series           string    `json:"series"`
	Season           *int      `json:"season"`
	Episode          *int      `json:"episode"`
	FormattedSeason  string    `json:"formattedSeason,omitempty"`
	FormattedEpisode string    `json:"formattedEpisode,omitempty"`
	Ext              string    `json:"ext"`
	OriginalName     string    `json:"originalName"`
	FullPath         string    `json:"fullPath"`
	Rule             string    `json:"rule"` // name of the rule that produced the result
}

// IsTV reports whether the result describes an episode.
func (r *ParseResult) IsTV() bool {
	return r.Type == MediaTypeTV
}
