package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/launchgridgo/internal/composer"
	"github.com/specialistvlad/launchgridgo/internal/supervisor"
	"github.com/specialistvlad/launchgridgo/internal/testutil"
)

// launchFixture writes a package with a runnable script plus a root
// descriptor, returning the descriptor path and the package search root.
func launchFixture(t *testing.T, script, descriptor string) (string, string) {
	t.Helper()
	root := t.TempDir()
	pkgDir := testutil.WritePackage(t, root, "demo")
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "run.sh"), []byte("#!/bin/sh\n"+script+"\n"), 0o755))

	descriptorPath := filepath.Join(root, "main.hcl")
	require.NoError(t, os.WriteFile(descriptorPath, []byte(descriptor), 0o644))
	return descriptorPath, root
}

func newTestApp(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer) {
	t.Helper()
	cfg.LogFormat = "text"
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	if cfg.Grace == 0 {
		cfg.Grace = 2 * time.Second
	}
	cfg.LogDir = t.TempDir()

	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	var out testutil.SafeBuffer
	var logs testutil.SafeBuffer
	return NewApp(&out, &logs, validated), &out
}

func TestRunDryRunPrintsPlan(t *testing.T) {
	descriptorPath, root := launchFixture(t, "exit 0", `
node "worker" {
  package    = "demo"
  executable = "run.sh"
  args       = "--once"

  remap {
    from = "image"
    to   = "/visualization/image"
  }
}
`)

	a, out := newTestApp(t, Config{
		DescriptorPath: descriptorPath,
		PackagePath:    root,
		DryRun:         true,
	})

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "worker")
	assert.Contains(t, out.String(), `args="--once"`)
	assert.Contains(t, out.String(), "remap image -> /visualization/image")
}

func TestRunCompositionErrorBeforeAnySpawn(t *testing.T) {
	descriptorPath, root := launchFixture(t, "exit 0", `
node "worker" {
  package    = "demo"
  executable = "run.sh"
  args       = "$(arg undeclared)"
}
`)

	a, _ := newTestApp(t, Config{DescriptorPath: descriptorPath, PackagePath: root})

	err := a.Run(context.Background())
	var compErr *composer.Error
	require.ErrorAs(t, err, &compErr)
}

func TestRunSupervisesToCleanExit(t *testing.T) {
	descriptorPath, root := launchFixture(t, "exit 0", `
node "worker" {
  package    = "demo"
  executable = "run.sh"
}
`)

	a, _ := newTestApp(t, Config{DescriptorPath: descriptorPath, PackagePath: root})
	require.NoError(t, a.Run(context.Background()))
}

func TestRunSurfacesRequiredCrash(t *testing.T) {
	descriptorPath, root := launchFixture(t, "exit 7", `
node "worker" {
  package    = "demo"
  executable = "run.sh"
  required   = true
}
`)

	a, _ := newTestApp(t, Config{DescriptorPath: descriptorPath, PackagePath: root})

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, supervisor.ErrRequiredNodeExit))
}
