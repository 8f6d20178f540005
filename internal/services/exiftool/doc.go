// Package exiftool mediates access to the exiftool CLI used to read embedded
// capture metadata.
//
// A Client keeps one stay-open exiftool process for the whole run and is safe
// for concurrent use by every worker; the underlying library serializes
// requests to the process. Values come back as plain strings keyed by the
// exiftool tag name so callers stay independent of exiftool's JSON typing.
package exiftool
