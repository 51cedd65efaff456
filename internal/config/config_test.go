package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.True(t, s.IsAutomationComment("Everything looks good, shipping it"))
	assert.False(t, s.IsAutomationComment("needs work"))
	assert.True(t, s.IsAutomationActor("github-actions[bot]"))
	assert.False(t, s.IsAutomationActor("alice"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := []byte(`
work_started_marker: "begin:"
automation_markers:
  - "auto-generated"
automation_actors:
  - "release-bot"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "begin:", s.WorkStartedMarker)
	assert.True(t, s.IsAutomationComment("this is AUTO-GENERATED output"))
	assert.False(t, s.IsAutomationComment("everything looks good"))
	assert.True(t, s.IsAutomationActor("Release-Bot"))
	assert.False(t, s.IsAutomationActor("github-actions[bot]"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`work_started_marker: "begin:"`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "begin:", s.WorkStartedMarker)
	assert.True(t, s.IsAutomationComment("everything looks good"))
}
