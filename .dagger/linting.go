package main

import (
	"context"
	"fmt"

	"dagger/infctx/internal/dagger"
)

const golangciLintVersion = "v2.8.0"

// lintOpts returns the common GolangcilintOpts used by both CheckLint and
// FixLint. It layers golangci-lint on top of goContainer() so the sqlite dev
// headers, CGO, and Go caches are already in place.
func (ci *Infctx) lintOpts() dagger.GolangcilintOpts {
	base := ci.goContainer().
		WithExec([]string{
			"go",
			"install",
			fmt.Sprintf("github.com/golangci/golangci-lint/v2/cmd/golangci-lint@%s", golangciLintVersion),
		})

	return dagger.GolangcilintOpts{
		BaseCtr: base,
		Config:  ci.Source.File(".golangci.yml"),
	}
}

// CheckLint runs golangci-lint against the infctx source code without
// applying fixes.
func (ci *Infctx) CheckLint(ctx context.Context) (string, error) {
	return dag.Golangcilint(ci.Source, ci.lintOpts()).Check(ctx)
}

// FixLint runs golangci-lint against the infctx source code with --fix,
// applying automatic fixes where possible, and returns the modified source
// directory.
func (ci *Infctx) FixLint(ctx context.Context) *dagger.Directory {
	return dag.Golangcilint(ci.Source, ci.lintOpts()).Lint()
}
