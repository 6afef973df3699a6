// Package bot connects the Discord gateway to the Plex library cache and
// the Overseerr request manager. It registers the slash commands, routes
// interactions through a bounded worker pool, and renders results as
// embeds with interactive components.
package bot
