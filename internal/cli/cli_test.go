package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptorAndOverrides(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"demo.hcl", "gazebo:=true", "kinect:=false"}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "demo.hcl", cfg.DescriptorPath)
	assert.Equal(t, map[string]string{"gazebo": "true", "kinect": "false"}, cfg.Overrides)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, 5*time.Second, cfg.Grace)
}

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{
		"-log-format", "text",
		"-log-level", "debug",
		"-dry-run",
		"-grace", "10s",
		"-package-path", "/opt/pkgs",
		"demo.hcl",
	}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 10*time.Second, cfg.Grace)
	assert.Equal(t, "/opt/pkgs", cfg.PackagePath)
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseBadOverride(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"demo.hcl", "gazebo=true"}, &out)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitUsage, exitErr.Code)
	assert.Contains(t, exitErr.Message, "name:=value")
}

func TestParseDuplicateOverrideFirstWins(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"demo.hcl", "gazebo:=true", "gazebo:=false"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "true", cfg.Overrides["gazebo"])
}

func TestParseBadLogFormat(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-format", "xml", "demo.hcl"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitUsage, exitErr.Code)
}

func TestParseBadLogLevel(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-log-level", "loud", "demo.hcl"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitUsage, exitErr.Code)
}
