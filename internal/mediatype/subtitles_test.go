package mediatype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupSubtitles(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	videos := []TorrentFile{
		{ID: 1, Path: "/Show/Show.S01E01.mkv"},
		{ID: 2, Path: "/Show/Show.S01E02.mkv"},
		{ID: 3, Path: "/Show/Show.S01E03.mkv"},
	}
	subs := []TorrentFile{
		{ID: 10, Path: "/Show/Subs/show.s01e01.srt"},
		{ID: 11, Path: "/Show/Subs/Show.S01E01.eng.srt"},
		{ID: 12, Path: "/Show/Subs/Show.S01E02.idx"},
		{ID: 13, Path: "/Show/Subs/Other.srt"},
	}

	groups := GroupSubtitles(videos, subs)
	require.Len(groups, 3)
	require.Equal([]int{10, 11}, groups[1])
	require.Equal([]int{12}, groups[2])
	require.Equal([]int{}, groups[3])
}

func TestFindMatchingSubtitle(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	video := TorrentFile{ID: 1, Path: "/Movie (2010)/Movie (2010).mkv"}
	subs := []TorrentFile{
		{ID: 5, Path: "/Movie (2010)/other.srt"},
		{ID: 6, Path: "/Movie (2010)/Movie (2010).en.srt"},
		{ID: 7, Path: "/Movie (2010)/movie (2010).srt"},
	}

	sub, ok := FindMatchingSubtitle(video, subs)
	require.True(ok)
	require.Equal(6, sub.ID)

	_, ok = FindMatchingSubtitle(video, subs[:1])
	require.False(ok)
}

func TestWithSubtitleInfo(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	videos := []TorrentFile{
		{ID: 2, Path: "/b.mkv", Bytes: 100 * mb},
		{ID: 1, Path: "/a.mkv", Bytes: 100 * mb},
	}
	subs := []TorrentFile{{ID: 3, Path: "/a.srt"}}

	out := WithSubtitleInfo(videos, subs)
	require.Len(out, 2)
	require.Equal(2, out[0].ID)
	require.Empty(out[0].SubtitleFileIDs)
	require.Equal(1, out[1].ID)
	require.Equal([]int{3}, out[1].SubtitleFileIDs)
	require.Equal(int64(100*mb), out[1].Bytes)
}

func TestSelectionWithSubtitles(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	groups := map[int][]int{1: {10, 11}, 2: {11}, 3: {}}
	require.Equal([]int{1, 10, 11, 2, 3}, SelectionWithSubtitles([]int{1, 2, 3}, groups))
	require.Nil(SelectionWithSubtitles(nil, groups))
}
