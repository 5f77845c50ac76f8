package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescriptor = `
arg "kinect" {
  default = "true"
}

node "recognition" {
  package    = "vision"
  executable = "segmentation_node"
  args       = "--threshold 0.5"
  required   = true
  output     = "screen"

  remap {
    from = "image"
    to   = "/visualization/image"
  }

  env {
    DISPLAY = ":0"
  }

  if = "$(arg kinect)"
}

include {
  path = "$(find vision)/launch/kinect.hcl"

  args {
    depth_external = "$(arg kinect)"
  }

  unless = "$(arg gazebo)"
}

node "viewer" {
  package    = "vision"
  executable = "viewer"
}
`

func TestParsePreservesDocumentOrder(t *testing.T) {
	decls, err := Parse([]byte(sampleDescriptor), "sample.hcl")
	require.NoError(t, err)
	require.Len(t, decls, 4)

	assert.NotNil(t, decls[0].Arg)
	assert.NotNil(t, decls[1].Node)
	assert.NotNil(t, decls[2].Include)
	assert.NotNil(t, decls[3].Node)
}

func TestParseArg(t *testing.T) {
	decls, err := Parse([]byte(sampleDescriptor), "sample.hcl")
	require.NoError(t, err)

	arg := decls[0].Arg
	assert.Equal(t, "kinect", arg.Name)
	require.NotNil(t, arg.Default)
	assert.Equal(t, "true", *arg.Default)
	assert.Nil(t, arg.If)
	assert.Nil(t, arg.Unless)
}

func TestParseNode(t *testing.T) {
	decls, err := Parse([]byte(sampleDescriptor), "sample.hcl")
	require.NoError(t, err)

	node := decls[1].Node
	assert.Equal(t, "recognition", node.Name)
	assert.Equal(t, "vision", node.Package)
	assert.Equal(t, "segmentation_node", node.Executable)
	require.NotNil(t, node.Args)
	assert.Equal(t, "--threshold 0.5", *node.Args)
	require.NotNil(t, node.Required)
	assert.True(t, *node.Required)
	assert.Nil(t, node.Respawn)
	require.NotNil(t, node.Output)
	assert.Equal(t, "screen", *node.Output)

	require.Len(t, node.Remaps, 1)
	assert.Equal(t, "image", node.Remaps[0].From)
	assert.Equal(t, "/visualization/image", node.Remaps[0].To)

	env, diags := node.Env.Attributes()
	require.False(t, diags.HasErrors())
	assert.Contains(t, env, "DISPLAY")

	gate := decls[1].Gate()
	require.NotNil(t, gate.If)
	assert.Equal(t, "$(arg kinect)", *gate.If)
}

func TestParseInclude(t *testing.T) {
	decls, err := Parse([]byte(sampleDescriptor), "sample.hcl")
	require.NoError(t, err)

	inc := decls[2].Include
	assert.Equal(t, "$(find vision)/launch/kinect.hcl", inc.Path)

	passed, diags := inc.Args.Attributes()
	require.False(t, diags.HasErrors())
	assert.Contains(t, passed, "depth_external")

	gate := decls[2].Gate()
	require.NotNil(t, gate.Unless)
	assert.Equal(t, "$(arg gazebo)", *gate.Unless)
}

func TestParseAbsentOptionalBlocks(t *testing.T) {
	decls, err := Parse([]byte(sampleDescriptor), "sample.hcl")
	require.NoError(t, err)

	viewer := decls[3].Node
	attrs, diags := viewer.Env.Attributes()
	require.False(t, diags.HasErrors())
	assert.Nil(t, attrs)
	assert.Empty(t, viewer.Remaps)
}

func TestParseRejectsUnknownBlock(t *testing.T) {
	_, err := Parse([]byte(`param "x" { value = 1 }`), "bad.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown block type")
}

func TestParseRejectsTopLevelAttribute(t *testing.T) {
	_, err := Parse([]byte(`foo = "bar"`), "bad.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected top-level attribute")
}

func TestParseRejectsMissingLabel(t *testing.T) {
	_, err := Parse([]byte(`node { package = "p", executable = "e" }`), "bad.hcl")
	require.Error(t, err)
}

func TestParseRejectsMalformedSource(t *testing.T) {
	_, err := Parse([]byte(`node "x" {`), "bad.hcl")
	require.Error(t, err)
}
