// Package libdoc retrieves documentation for open-source libraries and
// ranks it against natural-language questions. Documentation is gathered
// from a repository's README, its docs tree and its documentation website,
// cached locally, split into heading-bounded chunks and ranked by vector
// similarity.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., fs/, github/, goquery/).
package libdoc

// Name identifies the application to protocol clients.
const Name = "libdoc"

// Version is overridden at build time with -ldflags.
var Version = "dev"
