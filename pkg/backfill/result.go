package backfill

import "fmt"

// Result contains statistics from a backfill run.
type Result struct {
	FilesScanned    int
	FilesArchived   int
	FilesUpToDate   int
	FilesSkipped    int
	Projects        int
	MemoriesCreated int
	LinesParsed     int
}

// Summary returns a human-readable summary of the backfill result.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"Backfill complete: %d new memories across %d projects\n"+
			"Scanned %d transcript files (%d archived, %d up to date, %d skipped)",
		r.MemoriesCreated, r.Projects,
		r.FilesScanned, r.FilesArchived, r.FilesUpToDate, r.FilesSkipped,
	)
}
