// Package plex provides a client for the Plex Media Server HTTP API.
//
// The client covers the read-only surface the bot needs: full library
// scans across movie, show, and artist sections, active playback sessions,
// recently added items, direct search, and server identity. Library scans
// fetch sections concurrently with bounded parallelism.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := plex.NewClient(
//		"http://localhost:32400",
//		"plex-token",
//		logger,
//		plex.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	items, err := client.GetAllMedia(ctx)
//
// External catalog IDs (TMDB, IMDB) are parsed from metadata GUIDs, both
// the modern Guid list form and legacy agent GUIDs.
package plex
