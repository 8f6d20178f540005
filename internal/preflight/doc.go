// Package preflight provides readiness checks for the directories and
// external tools mediasort depends on.
//
// These checks run in two contexts:
//   - The organize command calls RunAll before scanning. If a required check
//     fails the run stops before any file is touched.
//   - The CLI "mediasort deps" command renders every check as a table.
//
// Directory checks use access(2) so permission problems surface up front
// instead of as per-file errors halfway through a batch.
package preflight
