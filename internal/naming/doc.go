// Package naming derives destination directories and filenames for organized
// media.
//
// Files land in <output_root>/<YYYY>/<MM>. Two filename schemes exist:
//
//   - checksum: <prefix>[-<serial>]-<digest10>-<stem>.<ext>
//   - parent:   [<parent>-]<prefix>[-<serial>]-<stem>.<ext>
//
// The extension is whatever follows the final dot of the base name; nothing
// is normalized. Destination.WithEpoch produces the alternate name used when
// a different file already occupies the destination.
package naming
