// Package cache maintains an in-memory snapshot of the Plex library and
// answers fuzzy title queries against it.
//
// A refresh replaces the whole snapshot behind an atomic pointer, so
// readers are lock-free and never observe partial state. Refresh failures
// keep the previous snapshot serving; slightly stale search results beat
// a hard error in conversation.
package cache
