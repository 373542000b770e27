package mediatype

import "strings"

func subtitleMatches(videoBase, subPath string) bool {
	return strings.HasPrefix(baseName(subPath), videoBase)
}

// FindMatchingSubtitle returns the first subtitle whose base name equals or
// starts with the video's base name.
func FindMatchingSubtitle(video TorrentFile, subtitles []TorrentFile) (TorrentFile, bool) {
	videoBase := baseName(video.Path)
	for _, s := range subtitles {
		if subtitleMatches(videoBase, s.Path) {
			return s, true
		}
	}
	return TorrentFile{}, false
}

// GroupSubtitles maps every video ID to the IDs of its matching subtitles,
// in subtitle input order. Videos without subtitles map to an empty slice.
func GroupSubtitles(videos, subtitles []TorrentFile) map[int][]int {
	out := make(map[int][]int, len(videos))
	for _, v := range videos {
		videoBase := baseName(v.Path)
		ids := []int{}
		for _, s := range subtitles {
			if subtitleMatches(videoBase, s.Path) {
				ids = append(ids, s.ID)
			}
		}
		out[v.ID] = ids
	}
	return out
}

// WithSubtitleInfo annotates each video with its associated subtitle IDs.
func WithSubtitleInfo(videos, subtitles []TorrentFile) []FileWithSubtitleInfo {
	groups := GroupSubtitles(videos, subtitles)

	out := make([]FileWithSubtitleInfo, 0, len(videos))
	for _, v := range videos {
		out = append(out, FileWithSubtitleInfo{
			TorrentFile:     v,
			SubtitleFileIDs: groups[v.ID],
		})
	}
	return out
}

// SelectionWithSubtitles expands a set of chosen video IDs with the IDs of
// their subtitles, preserving order and dropping duplicates.
func SelectionWithSubtitles(videoIDs []int, groups map[int][]int) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range videoIDs {
		add(id)
		for _, sub := range groups[id] {
			add(sub)
		}
	}
	return out
}
