// Package backup creates and restores portable archives of the catalog.
//
// An archive is a zip file holding the working directory's media files at
// their original relative paths plus a _database/catalog.json entry with the
// serialized catalog snapshot. Archives can be split into a fixed number of
// .partNN files for transport; merging the parts reproduces the original
// archive byte for byte.
//
// Restore never touches the live catalog store. It reassembles and extracts
// the archive, copies the file tree into the target directory, and hands the
// decoded snapshot back to the caller for import.
package backup
