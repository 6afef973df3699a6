package plex

import (
	"strconv"
	"strings"
)

// ExternalIDs holds catalog identifiers parsed from Plex metadata GUIDs
type ExternalIDs struct {
	TMDB int64
	IMDB string
}

// ParseExternalIDs extracts TMDB and IMDB identifiers from a Plex item's
// GUID fields. Modern metadata agents attach a list of entries like
// "tmdb://603" and "imdb://tt0133093"; legacy agents encode a single GUID
// such as "com.plexapp.agents.imdb://tt0133093?lang=en". Both forms are
// handled; unrecognized schemes are ignored.
func ParseExternalIDs(itemGUID string, guids []string) ExternalIDs {
	var ids ExternalIDs

	for _, g := range guids {
		scheme, value, ok := splitGUID(g)
		if !ok {
			continue
		}
		switch scheme {
		case "tmdb", "themoviedb":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				ids.TMDB = n
			}
		case "imdb":
			ids.IMDB = value
		}
	}

	// Fall back to the legacy agent GUID
	if ids.TMDB == 0 || ids.IMDB == "" {
		scheme, value, ok := splitGUID(itemGUID)
		if ok {
			switch {
			case strings.Contains(scheme, "themoviedb") && ids.TMDB == 0:
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					ids.TMDB = n
				}
			case strings.Contains(scheme, "imdb") && ids.IMDB == "":
				ids.IMDB = value
			}
		}
	}

	return ids
}

// splitGUID splits "scheme://value?query" into scheme and value
func splitGUID(g string) (scheme, value string, ok bool) {
	idx := strings.Index(g, "://")
	if idx < 0 {
		return "", "", false
	}
	scheme = g[:idx]
	value = g[idx+3:]
	if q := strings.IndexByte(value, '?'); q >= 0 {
		value = value[:q]
	}
	if scheme == "" || value == "" {
		return "", "", false
	}
	return scheme, value, true
}
