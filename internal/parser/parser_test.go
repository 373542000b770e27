package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEpisodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		series  string
		season  int
		episode int
		ext     string
		rule    string
	}{
		{"Breaking Bad - S05E14 - Ozymandias.mp4", "Breaking Bad", 5, 14, ".mp4", "sxxexx"},
		{"The.Mandalorian.S02E05.1080p.WEB-DL.mkv", "The Mandalorian", 2, 5, ".mkv", "sxxexx"},
		{"The_Mandalorian_s02e05_HEVC.mkv", "The Mandalorian", 2, 5, ".mkv", "sxxexx"},
		{"My Hero Academia 3x12.mkv", "My Hero Academia", 3, 12, ".mkv", "nxnn"},
		{"[SubsPlease] Jujutsu Kaisen - 24 (1080p) [ABCD1234].mkv", "Jujutsu Kaisen", 1, 24, ".mkv", "anime"},
		{"Test.Show.S02E05.txt", "Test Show", 2, 5, ".txt", "sxxexx"},
		{"/downloads/tv/Show.Name.S1E2.MKV", "Show Name", 1, 2, ".MKV", "sxxexx"},
		{`C:\Downloads\Show.Name.S10E100.mp4`, "Show Name", 10, 100, ".mp4", "sxxexx"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			require := require.New(t)

			r := Parse(tc.input)
			require.Equal(MediaTypeTV, r.Type)
			require.True(r.IsTV())
			require.Equal(tc.series, r.Series)
			require.NotNil(r.Season)
			require.NotNil(r.Episode)
			require.Equal(tc.season, *r.Season)
			require.Equal(tc.episode, *r.Episode)
			require.Equal(tc.ext, r.Ext)
			require.Equal(tc.rule, r.Rule)
			require.Equal(tc.input, r.FullPath)
		})
	}
}

func TestParseMovies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		series string
		ext    string
	}{
		{"Avatar.The.Way.of.Water.2022.1080p.WEB-DL.x264.AAC-Group.mkv", "Avatar The Way of Water 2022", ".mkv"},
		{"[ReleaseGroup] The.Matrix.1999.[4K].HDR.mkv", "The Matrix 1999", ".mkv"},
		{"Inception (2010) [1080p] [BluRay].mp4", "Inception (2010)", ".mp4"},
		{"Avatar.2009.2160p.UHD.BluRay.REMUX.HDR.HEVC.Atmos-FGT.mkv", "Avatar 2009 UHD", ".mkv"},
		{"Some Movie", "Some Movie", ""},
		{".hidden", "hidden", ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			require := require.New(t)

			r := Parse(tc.input)
			require.Equal(MediaTypeMovie, r.Type)
			require.Equal(tc.series, r.Series)
			require.Nil(r.Season)
			require.Nil(r.Episode)
			require.Empty(r.FormattedSeason)
			require.Empty(r.FormattedEpisode)
			require.Equal(tc.ext, r.Ext)
			require.Equal(RuleMovie, r.Rule)
		})
	}
}

func TestParseFormatting(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := Parse("Show.S1E2.mkv")
	require.Equal("01", r.FormattedSeason)
	require.Equal("02", r.FormattedEpisode)

	r = Parse("Show.S01E123.mkv")
	require.Equal("01", r.FormattedSeason)
	require.Equal("123", r.FormattedEpisode)

	r = Parse("Show.S00E00.mkv")
	require.Equal("00", r.FormattedSeason)
	require.Equal("00", r.FormattedEpisode)
}

func TestParseRuleOrder(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	// SxxExx wins over a later NxNN token
	r := Parse("Show.S03E04.1x02.mkv")
	require.Equal(3, *r.Season)
	require.Equal(4, *r.Episode)

	// NxNN wins over the anime dash form
	r = Parse("Show - 2x07 - 05.mkv")
	require.Equal("nxnn", r.Rule)
	require.Equal(2, *r.Season)
	require.Equal(7, *r.Episode)
}

func TestParseEmptySeries(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := Parse(".S01E01.mkv")
	require.Equal(MediaTypeTV, r.Type)
	require.Empty(r.Series)
}

func TestParseOverflowFallsBackToMovie(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := Parse("Show.S99999999999999999999999E01.mkv")
	require.Equal(MediaTypeMovie, r.Type)
}

func TestParseAllKeepsOrder(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	paths := []string{
		"A.S01E01.mkv",
		"Movie.2020.mkv",
		"B 2x03.mp4",
		"C.S04E05.avi",
	}

	results := ParseAll(paths)
	require.Len(results, len(paths))
	for i, p := range paths {
		require.Equal(p, results[i].FullPath)
		require.Equal(Parse(p), results[i])
	}
}

func TestParseReferenceScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input            string
		typ              MediaType
		series           string
		season           int
		episode          int
		formattedSeason  string
		formattedEpisode string
		ext              string
	}{
		{"Game.of.Thrones.S01E01.Winter.Is.Coming.mkv", MediaTypeTV, "Game of Thrones", 1, 1, "01", "01", ".mkv"},
		{"[HorribleSubs] One Piece - 123 [1080p].mkv", MediaTypeTV, "One Piece", 1, 123, "01", "123", ".mkv"},
		{"Avatar.2009.EXTENDED.REPACK.1080p.BluRay.x264.AAC5.1-[YTS.MX].mp4", MediaTypeMovie, "Avatar 2009", 0, 0, "", "", ".mp4"},
		{"My..Show.S01E01.mkv", MediaTypeTV, "My Show", 1, 1, "01", "01", ".mkv"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			require := require.New(t)

			r := Parse(tc.input)
			require.Equal(tc.typ, r.Type)
			require.Equal(tc.series, r.Series)
			require.NotContains(r.Series, "..")
			require.Equal(tc.ext, r.Ext)
			require.Equal(tc.formattedSeason, r.FormattedSeason)
			require.Equal(tc.formattedEpisode, r.FormattedEpisode)

			if tc.typ == MediaTypeMovie {
				require.Nil(r.Season)
				require.Nil(r.Episode)
				return
			}
			require.NotNil(r.Season)
			require.NotNil(r.Episode)
			require.Equal(tc.season, *r.Season)
			require.Equal(tc.episode, *r.Episode)
		})
	}
}

func TestParseSeasonZeroIsSpecials(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := Parse("Doctor.Who.S00E05.mkv")
	require.Equal(MediaTypeTV, r.Type)
	require.Equal(0, *r.Season)
	require.Equal("00", r.FormattedSeason)
	require.Equal("05", r.FormattedEpisode)
	require.Equal("Doctor Who", r.Series)
}
