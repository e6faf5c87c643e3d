// Package backfill archives memories from historical Claude Code transcripts
// so a fresh install starts with the context of past sessions. Extraction
// always uses the rule engine regardless of the configured mode, which keeps
// runs over large transcript histories fast and offline.
package backfill

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// probeLines bounds how far into a transcript the envelope probe reads.
const probeLines = 50

// fileIdentity is what the probe recovers from a transcript's envelope lines:
// which session wrote the file, from which working directory, starting when.
type fileIdentity struct {
	SessionID string
	Project   string
	StartedAt time.Time
}

// probeEntry decodes only the envelope fields the probe needs.
type probeEntry struct {
	SessionID string `json:"sessionId"`
	CWD       string `json:"cwd"`
	Timestamp string `json:"timestamp"`
}

// ScanTranscriptDir finds all JSONL files under the given directory.
func ScanTranscriptDir(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// probeFile reads the head of a transcript and returns the first session ID,
// working directory, and timestamp it finds. Transcript lines carry these
// envelope fields redundantly, so a bounded scan is enough.
func probeFile(path string) (*fileIdentity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	id := &fileIdentity{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB max line

	for line := 0; scanner.Scan() && line < probeLines; line++ {
		var e probeEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}

		if id.SessionID == "" {
			id.SessionID = e.SessionID
		}
		if id.Project == "" {
			id.Project = e.CWD
		}
		if id.StartedAt.IsZero() && e.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
				id.StartedAt = ts.UTC()
			}
		}

		if id.SessionID != "" && id.Project != "" && !id.StartedAt.IsZero() {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return id, nil
}
