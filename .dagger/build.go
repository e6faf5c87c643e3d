package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/infctx/internal/dagger"
)

// releaseTargets is the build matrix for prebuilt binaries. go-sqlite3 is a
// cgo package, so every target needs a real C toolchain; darwin users build
// natively via "go install" instead.
var releaseTargets = []struct {
	goarch string
	cc     string
}{
	{"amd64", "x86_64-linux-gnu-gcc"},
	{"arm64", "aarch64-linux-gnu-gcc"},
}

// Build compiles the infctx binary for every release target and returns a
// directory of artifacts laid out as linux/<goarch>/infctx.
func (ci *Infctx) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	outputs := dag.Directory()

	golang := ci.goContainer().
		WithExec([]string{"apt-get", "install", "-y", "gcc-aarch64-linux-gnu"})

	for _, target := range releaseTargets {
		path := fmt.Sprintf("linux/%s/", target.goarch)

		build := golang.
			WithEnvVariable("GOOS", "linux").
			WithEnvVariable("GOARCH", target.goarch).
			WithEnvVariable("CC", target.cc).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/infctx"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (ci *Infctx) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/infinitecontext/infctx/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/infinitecontext/infctx/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/infinitecontext/infctx/pkg/utils.Buildtime=%s'", buildtime),
	}

	return ci.Build(ctx, strings.Join(ldflags, " "))
}
