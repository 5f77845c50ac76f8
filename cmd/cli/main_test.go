package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/launchgridgo/internal/cli"
)

func TestRunWithoutArgumentsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, nil))
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunMapsCompositionErrorToExitCode(t *testing.T) {
	var out bytes.Buffer
	missing := filepath.Join(t.TempDir(), "nope.hcl")

	err := run(&out, []string{"-log-level", "error", missing})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitComposition, exitErr.Code)
}

func TestRunRejectsBadFlags(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-log-format", "xml", "x.hcl"})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitUsage, exitErr.Code)
}
