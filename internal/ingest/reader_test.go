package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

func TestParseTargets(t *testing.T) {
	input := "\uFEFFsubreddit,min_score\n" +
		"EarthPorn,1500\n" +
		"r/spaceporn,\n" +
		"no spaces allowed,10\n" +
		"ab,10\n" +
		"Art\n"

	targets, err := ParseTargets(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []domain.Target{
		{Subreddit: "EarthPorn", MinScore: 1500},
		{Subreddit: "spaceporn", MinScore: 0},
		{Subreddit: "Art", MinScore: 0},
	}, targets)
}

func TestLoadTargets_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subreddits.csv")
	require.NoError(t, os.WriteFile(path, []byte("subreddit,min_score\nwallpapers,300\n"), 0o644))

	targets, err := LoadTargets(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Target{{Subreddit: "wallpapers", MinScore: 300}}, targets)
}

func TestLoadTargets_MissingFile(t *testing.T) {
	_, err := LoadTargets(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestFromNames(t *testing.T) {
	assert.Equal(t, []domain.Target{{Subreddit: "Art"}, {Subreddit: "pics"}}, FromNames([]string{"Art", "pics"}))
}
