package backup

import "time"

const manifestVersion = 1

// Manifest describes a produced archive. It is informational only; restore
// does not read it.
type Manifest struct {
	Version     int       `json:"version"`
	Date        time.Time `json:"date"`
	WorkingDir  string    `json:"workingDir"`
	TotalSize   int64     `json:"totalSize"`
	FilesCount  int       `json:"filesCount"`
	Parts       int       `json:"parts"`
	ArchiveName string    `json:"archiveName"`
	PartFiles   []string  `json:"partFiles,omitempty"`
}
