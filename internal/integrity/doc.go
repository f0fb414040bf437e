// Package integrity detects and heals reference corruption across the
// catalog's five entity collections.
//
// The Validator is a read-only scan producing a typed issue list: missing
// media files (errors, never auto-fixed) and dangling references (warnings).
// The Repairer maps each fixable issue kind to exactly one non-destructive
// action, applied per-issue so a single failure cannot block the rest.
// Repair is idempotent: a second validate-and-repair pass over the same
// state finds nothing fixable left.
//
// The catalog's cascades are not transactional and tag counts are lazily
// maintained, so transient inconsistency is expected; this package is the
// designated recovery path.
package integrity
