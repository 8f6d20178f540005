// Package organizer places media files into the dated output tree.
//
// OrganizeFile runs the per-file pipeline strictly in order: resolve the
// capture timestamp, digest the content, build the destination, then Place.
// Place compares an occupied destination by SHA-1: identical content is
// skipped with a warning, different content is retargeted to an
// epoch-qualified alternate. Dry-run mode never touches the filesystem.
//
// Destinations claimed by one worker are serialized per path so concurrent
// workers of the same run cannot race on a name. A file lock on the state
// directory keeps separate invocations off the same output root.
package organizer
