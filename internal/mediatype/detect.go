package mediatype

import (
	"regexp"
	"strings"
)

// Video file extensions
var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".ts": true, ".m2ts": true,
}

// Subtitle file extensions
var subtitleExtensions = map[string]bool{
	".srt": true, ".sub": true, ".idx": true,
}

// Extensions that are never worth downloading
var junkExtensions = map[string]bool{
	".txt": true, ".nfo": true, ".rar": true, ".zip": true, ".7z": true, ".r00": true,
}

// JunkSizeThreshold is the size under which non-subtitle files are treated
// as samples or extras.
const JunkSizeThreshold = 50 * 1024 * 1024

const (
	// tvThreshold is the number of episode-tagged videos needed to call a set tv
	tvThreshold = 3
)

var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)s(\d{1,2})e(\d{1,2})`),
	regexp.MustCompile(`(?i)(\d{1,2})x(\d{1,2})`),
}

// extension returns everything from the last dot of the path, lowercased.
func extension(p string) string {
	i := strings.LastIndex(p, ".")
	if i == -1 {
		return ""
	}
	return strings.ToLower(p[i:])
}

// baseName returns the last path segment without its extension, lowercased.
func baseName(p string) string {
	base := p
	if i := strings.LastIndex(p, "/"); i != -1 {
		base = p[i+1:]
	}
	if i := strings.LastIndex(base, "."); i != -1 {
		base = base[:i]
	}
	return strings.ToLower(base)
}

// IsVideo checks if the file is a video file based on extension
func IsVideo(f TorrentFile) bool {
	return videoExtensions[extension(f.Path)]
}

// IsSubtitle checks if the file is a subtitle file based on extension
func IsSubtitle(f TorrentFile) bool {
	return subtitleExtensions[extension(f.Path)]
}

// IsJunk reports whether a file should be skipped: archives and text by
// extension, and any non-subtitle file below JunkSizeThreshold.
func IsJunk(f TorrentFile) bool {
	ext := extension(f.Path)
	if junkExtensions[ext] {
		return true
	}
	return !subtitleExtensions[ext] && f.Bytes < JunkSizeThreshold
}

// CountEpisodeMatches counts files whose path carries an episode tag.
// Each file is counted at most once.
func CountEpisodeMatches(files []TorrentFile) int {
	count := 0
	for _, f := range files {
		for _, re := range episodePatterns {
			if re.MatchString(f.Path) {
				count++
				break
			}
		}
	}
	return count
}

// Detect classifies a torrent listing as tv, movie or ambiguous.
func Detect(files []TorrentFile) DetectionResult {
	result := DetectionResult{
		VideoFiles:    []TorrentFile{},
		SubtitleFiles: []TorrentFile{},
		JunkFiles:     []TorrentFile{},
	}

	for _, f := range files {
		junk := IsJunk(f)
		if IsVideo(f) && !junk {
			result.VideoFiles = append(result.VideoFiles, f)
		}
		if IsSubtitle(f) {
			result.SubtitleFiles = append(result.SubtitleFiles, f)
		}
		if junk {
			result.JunkFiles = append(result.JunkFiles, f)
		}
	}

	result.EpisodeCount = CountEpisodeMatches(result.VideoFiles)

	switch {
	case result.EpisodeCount >= tvThreshold:
		result.MediaType = MediaTypeTV
	case result.EpisodeCount == 0:
		result.MediaType = MediaTypeMovie
	default:
		result.MediaType = MediaTypeAmbiguous
	}

	return result
}
