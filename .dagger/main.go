// Infctx CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub
// actions. It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/infctx/internal/dagger"
)

// Infctx is the main module for the infctx CI/CD pipeline
type Infctx struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Infctx CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp"]
	source *dagger.Directory,
) *Infctx {
	return &Infctx{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted.
//
// It is the shared foundation for tests, builds, and linting.
func (ci *Infctx) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", ci.Source)
}

// Test runs the infctx unit tests via "go test"
func (ci *Infctx) Test(ctx context.Context) (string, error) {
	return ci.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
