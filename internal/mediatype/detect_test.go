package mediatype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const mb = 1024 * 1024

func TestDetectTV(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	files := []TorrentFile{
		{ID: 1, Path: "/Show/Show.S01E01.mkv", Bytes: 500 * mb},
		{ID: 2, Path: "/Show/Show.S01E02.mkv", Bytes: 500 * mb},
		{ID: 3, Path: "/Show/Show.S01E03.mkv", Bytes: 500 * mb},
		{ID: 4, Path: "/Show/Show.S01E01.srt", Bytes: 40 * 1024},
		{ID: 5, Path: "/Show/info.nfo", Bytes: 1024},
		{ID: 6, Path: "/Show/Sample/sample.S01E01.mkv", Bytes: 10 * mb},
	}

	r := Detect(files)
	require.Equal(MediaTypeTV, r.MediaType)
	require.Equal(3, r.EpisodeCount)
	require.Len(r.VideoFiles, 3)
	require.Len(r.SubtitleFiles, 1)
	require.Equal(4, r.SubtitleFiles[0].ID)

	junkIDs := []int{}
	for _, f := range r.JunkFiles {
		junkIDs = append(junkIDs, f.ID)
	}
	require.Equal([]int{5, 6}, junkIDs)
}

func TestDetectMovie(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	files := []TorrentFile{
		{ID: 1, Path: "/Inception.2010.1080p.mkv", Bytes: 8000 * mb},
		{ID: 2, Path: "/Inception.2010.1080p.srt", Bytes: 80 * 1024},
		{ID: 3, Path: "/RARBG.txt", Bytes: 30},
	}

	r := Detect(files)
	require.Equal(MediaTypeMovie, r.MediaType)
	require.Len(r.VideoFiles, 1)
	require.Len(r.SubtitleFiles, 1)
	require.Len(r.JunkFiles, 1)
}

func TestDetectAmbiguous(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	files := []TorrentFile{
		{ID: 1, Path: "/Show 1x01.mkv", Bytes: 400 * mb},
		{ID: 2, Path: "/Show 1x02.mkv", Bytes: 400 * mb},
		{ID: 3, Path: "/Extras.mkv", Bytes: 400 * mb},
	}

	r := Detect(files)
	require.Equal(MediaTypeAmbiguous, r.MediaType)
	require.Equal(2, r.EpisodeCount)
}

func TestDetectEmpty(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := Detect(nil)
	require.Equal(MediaTypeMovie, r.MediaType)
	require.Empty(r.VideoFiles)
	require.Empty(r.SubtitleFiles)
	require.Empty(r.JunkFiles)
}

func TestDetectSmallVideosOnly(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	files := []TorrentFile{
		{ID: 1, Path: "/a.S01E01.mkv", Bytes: mb},
		{ID: 2, Path: "/a.S01E02.mkv", Bytes: mb},
		{ID: 3, Path: "/a.S01E03.mkv", Bytes: mb},
	}

	r := Detect(files)
	require.Equal(MediaTypeMovie, r.MediaType)
	require.Empty(r.VideoFiles)
	require.Len(r.JunkFiles, 3)
}

func TestIsJunk(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	tests := []struct {
		file     TorrentFile
		expected bool
	}{
		{TorrentFile{Path: "/movie.mkv", Bytes: JunkSizeThreshold}, false},
		{TorrentFile{Path: "/movie.mkv", Bytes: JunkSizeThreshold - 1}, true},
		{TorrentFile{Path: "/subs.SRT", Bytes: 10}, false},
		{TorrentFile{Path: "/subs.idx", Bytes: 10}, false},
		{TorrentFile{Path: "/archive.RAR", Bytes: 900 * mb}, true},
		{TorrentFile{Path: "/part.r00", Bytes: 900 * mb}, true},
		{TorrentFile{Path: "/noext", Bytes: 900 * mb}, false},
		{TorrentFile{Path: "/noext", Bytes: 1}, true},
	}

	for _, tc := range tests {
		require.Equal(tc.expected, IsJunk(tc.file), "IsJunk(%s, %d)", tc.file.Path, tc.file.Bytes)
	}
}

func TestExtensionCaseInsensitive(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	require.True(IsVideo(TorrentFile{Path: "/MOVIE.MKV"}))
	require.True(IsVideo(TorrentFile{Path: "/clip.M2TS"}))
	require.True(IsSubtitle(TorrentFile{Path: "/Movie.Sub"}))
	require.False(IsVideo(TorrentFile{Path: "/movie.mkv.part"}))
}

func TestCountEpisodeMatchesCountsOnce(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	files := []TorrentFile{
		{Path: "/Show.S01E01.1x01.mkv"},
		{Path: "/show.s1e2.mkv"},
		{Path: "/Movie.mkv"},
	}
	require.Equal(2, CountEpisodeMatches(files))
}

func TestValidateFiles(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	files := []TorrentFile{
		{ID: 1, Path: "/ok.mkv", Bytes: 10, Selected: 1},
		{ID: 2, Path: "relative.mkv", Bytes: 10},
		{ID: 3, Path: "/neg.mkv", Bytes: -1},
		{ID: 4, Path: "/sel.mkv", Bytes: 1, Selected: 2},
		{ID: 5, Path: "", Bytes: 1},
	}

	valid, rejected := ValidateFiles(files)
	require.Len(valid, 1)
	require.Equal(1, valid[0].ID)
	require.Len(rejected, 4)
	require.Contains(rejected[0].Reason, "path")
	require.Contains(rejected[1].Reason, "bytes")
	require.Contains(rejected[2].Reason, "selected")
}
