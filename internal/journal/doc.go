// Package journal records completed placements in a SQLite database under the
// state directory.
//
// Each non-dry run writes one row per organized file (source, destination,
// digest, decision, action) tagged with the run id, so `mediasort history`
// can show what moved where. Writes retry briefly when SQLite reports the
// database busy; no other retries exist in the codebase.
package journal
