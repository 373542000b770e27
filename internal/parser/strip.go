package parser

import (
	"regexp"
	"strings"
)

// noisePatterns are release tags removed from series names, applied in order.
// Each pattern is word bounded and case-insensitive.
var noisePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"resolution", regexp.MustCompile(`(?i)\b(?:1080[pi]|720[pi]|480[pi]|2160[pi]|4k|8k)\b`)},
	{"source", regexp.MustCompile(`(?i)\b(?:WEB-?DL|BluRay|HDTV|BD|DVD(?:Rip)?|CAM(?:Rip)?|TS|TC|WEBRip|DSNP|Netflix)\b`)},
	{"video-codec", regexp.MustCompile(`(?i)\b(?:x264|x265|HEVC|H\.?264|H\.?265|AVC|VC-?1)\b`)},
	{"audio-codec", regexp.MustCompile(`(?i)\b(?:AAC[0-9.]*|DTS-?HD?|AC3|EAC3|DDP[0-9.]*|TrueHD|Atmos|FLAC|MP3|Opus|Vorbis)\b`)},
	{"channels", regexp.MustCompile(`(?i)\b(?:[257]\.[01]|Stereo|Dual-Audio)\b`)},
	{"edition", regexp.MustCompile(`(?i)\b(?:HDR(?:10)?|10bit|REMUX|PROPER|REPACK|EXTENDED|UNRATED|DIRECTORS\s+CUT|MULTI)\b`)},
	{"hash", regexp.MustCompile(`(?i)\b(?:[a-f0-9]{8})\b`)},
}

var (
	bracketed     = regexp.MustCompile(`\[.*?\]`)
	separators    = regexp.MustCompile(`[._\\:*?"<>|]`)
	trailingGroup = regexp.MustCompile(`\s+-[a-zA-Z0-9]+$`)
	whitespace    = regexp.MustCompile(`\s+`)
	trailingDash  = regexp.MustCompile(`-+$`)
)

// CleanSeriesName strips bracketed text, release noise and separators from a
// raw title fragment and returns a sanitized, human readable name.
func CleanSeriesName(raw string) string {
	clean := bracketed.ReplaceAllString(raw, " ")

	// Tags like "AAC5.1" only match while dots are still present.
	for _, p := range noisePatterns {
		clean = p.re.ReplaceAllString(clean, " ")
	}

	clean = separators.ReplaceAllString(clean, " ")

	// Two passes catch "Title -Group -Lang".
	clean = trailingGroup.ReplaceAllString(clean, "")
	clean = trailingGroup.ReplaceAllString(clean, "")

	clean = strings.TrimSpace(whitespace.ReplaceAllString(clean, " "))
	clean = trailingDash.ReplaceAllString(clean, "")

	return Sanitize(strings.TrimSpace(clean))
}
