// Package metadata resolves the capture timestamp and device serial used to
// file a media item.
//
// Photos consult embedded metadata through an Extractor (exiftool or the
// native EXIF reader) and fall back to the filesystem modification time when
// the capture date is missing, unparsable, or carries the 0000 sentinel year.
// Videos always use the modification time. The resolved timestamp is exposed
// as a year/month pair plus a strftime-formatted filename prefix.
package metadata
