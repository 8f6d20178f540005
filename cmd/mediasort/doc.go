// Package main hosts the mediasort CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves the layered configuration once,
// then hands the immutable result to the organizer, backup, journal, and
// preflight packages. Rendering (tables, trees, progress) lives here; all
// filesystem decisions live in internal packages.
package main
