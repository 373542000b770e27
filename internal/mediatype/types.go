package mediatype

// MediaType is the classification of a whole torrent file set
type MediaType string

const (
	MediaTypeTV        MediaType = "tv"
	MediaTypeMovie     MediaType = "movie"
	MediaTypeAmbiguous MediaType = "ambiguous"
)

// TorrentFile is one entry of a torrent listing as reported by the debrid service.
type TorrentFile struct {
	ID       int    `json:"id" validate:"gte=0"`
	Path     string `json:"path" validate:"required,startswith=/"`
	Bytes    int64  `json:"bytes" validate:"gte=0"`
	Selected int    `json:"selected" validate:"oneof=0 1"`
}

// DetectionResult partitions a listing and classifies it.
// VideoFiles excludes junk; JunkFiles and SubtitleFiles keep input order.
type DetectionResult struct {
	MediaType     MediaType     `json:"mediaType"`
	VideoFiles    []TorrentFile `json:"videoFiles"`
	SubtitleFiles []TorrentFile `json:"subtitleFiles"`
	JunkFiles     []TorrentFile `json:"junkFiles"`
	EpisodeCount  int           `json:"episodeCount"`
}

// FileWithSubtitleInfo is a video file together with the IDs of its subtitles.
type FileWithSubtitleInfo struct {
	TorrentFile
	SubtitleFileIDs []int `json:"subtitleFileIds"`
}

// RejectedFile is a listing entry that failed validation.
type RejectedFile struct {
	File   TorrentFile `json:"file"`
	Reason string      `json:"reason"`
}
