// Package preflight provides filesystem readiness checks that run before
// backup and restore operations.
//
// The backup engine calls CheckDirectoryAccess on the working directory and
// CheckFreeSpace on the destination before opening the archive, so a doomed
// run fails in milliseconds rather than after gigabytes of copying. The CLI
// uses the same checks to explain a refusal to the user.
package preflight
