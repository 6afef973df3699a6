package plex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseExternalIDs(t *testing.T) {
	tests := []struct {
		name     string
		itemGUID string
		guids    []string
		wantTMDB int64
		wantIMDB string
	}{
		{
			name:     "modern guid list",
			itemGUID: "plex://movie/5d776825880197001ec90e32",
			guids:    []string{"imdb://tt0133093", "tmdb://603", "tvdb://290"},
			wantTMDB: 603,
			wantIMDB: "tt0133093",
		},
		{
			name:     "legacy imdb agent",
			itemGUID: "com.plexapp.agents.imdb://tt0133093?lang=en",
			wantIMDB: "tt0133093",
		},
		{
			name:     "legacy themoviedb agent",
			itemGUID: "com.plexapp.agents.themoviedb://603?lang=en",
			wantTMDB: 603,
		},
		{
			name:     "themoviedb scheme in guid list",
			guids:    []string{"themoviedb://603"},
			wantTMDB: 603,
		},
		{
			name:     "unrecognized schemes ignored",
			itemGUID: "plex://movie/5d776825880197001ec90e32",
			guids:    []string{"tvdb://290"},
		},
		{
			name: "empty input",
		},
		{
			name:  "malformed guid entries",
			guids: []string{"tmdb", "tmdb://", "://603", "tmdb://notanumber"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := ParseExternalIDs(tt.itemGUID, tt.guids)
			assert.Equal(t, tt.wantTMDB, ids.TMDB)
			assert.Equal(t, tt.wantIMDB, ids.IMDB)
		})
	}
}

func TestParseExternalIDsListWinsOverLegacy(t *testing.T) {
	ids := ParseExternalIDs("com.plexapp.agents.themoviedb://999?lang=en", []string{"tmdb://603"})
	assert.Equal(t, int64(603), ids.TMDB)
}
