// Package git derives display names for project directories.
package git

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// NameFor returns a short display name for the project directory dir. Inside
// a git checkout that is the repository name, from "git rev-parse
// --show-toplevel"; anywhere else it is the base name of dir.
func NameFor(dir string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel").Output()
	if err == nil {
		top := strings.TrimSpace(string(out))
		if top != "" {
			return filepath.Base(top)
		}
	}

	return filepath.Base(dir)
}
