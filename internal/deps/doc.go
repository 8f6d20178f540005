// Package deps reports whether the external binaries mediasort can use are
// installed.
package deps
