// Package overseerr provides a client for interacting with the Overseerr API.
//
// Overseerr is a request management and media discovery tool for Plex.
// This package implements the surface the bot needs: TMDB-backed search,
// request submission, approval workflow, and poster lookup.
//
// # Architecture
//
// The package is organized into several components:
//
//   - Client: The main API client with automatic pagination
//   - Types: Domain models representing Overseerr entities (requests, search results)
//   - Errors: Structured error types for better error handling
//
// # Usage
//
// Create a new client with your Overseerr URL and API key:
//
//	logger := zerolog.New(os.Stdout)
//	client, err := overseerr.NewClient(
//		"https://overseerr.example.com",
//		"your-api-key",
//		logger,
//		overseerr.WithTimeout(30*time.Second),
//		overseerr.WithPageSize(100),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Search and submit a request
//	ctx := context.Background()
//	results, err := client.Search(ctx, "the matrix")
//	if err != nil {
//		log.Fatal(err)
//	}
//	request, err := client.CreateRequest(ctx, results[0].MediaType, results[0].TMDBID, nil)
//
// # Error Handling
//
// The package defines several error types:
//
//   - ErrInvalidConfig: Invalid client configuration
//   - ErrNoConnection: Connection failure
//   - ErrUnauthorized: Authentication failure
//   - ErrNotFound: Resource not found
//   - APIError: Structured API errors with status codes
//
// API errors include helper methods for classification:
//
//	if apiErr, ok := err.(*overseerr.APIError); ok {
//		if apiErr.IsUnauthorized() {
//			// Handle auth failure
//		}
//	}
package overseerr
