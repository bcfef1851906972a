package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguasigna/integration-harness/harnessconfig"
	"github.com/linguasigna/integration-harness/servicedef"
)

func TestReadParams(t *testing.T) {
	var params commandParams
	require.True(t, params.Read([]string{"integration-harness",
		"-backend-url", "http://localhost:3100",
		"-ready-timeout", "30s",
		"-language", "fr",
		"-run", "health", "-run", "flow",
		"-publish", "redis://localhost:6379", "-publish", "report.json",
	}))
	assert.Equal(t, "http://localhost:3100", params.backendURL)
	assert.Equal(t, time.Second*30, params.readyTimeout)
	assert.Equal(t, "fr", params.language)
	assert.Len(t, params.filters.MustMatch, 2)
	assert.Equal(t, stringList{"redis://localhost:6379", "report.json"}, params.publishTargets)

	assert.False(t, (&commandParams{}).Read([]string{"integration-harness", "extra"}))
	assert.False(t, (&commandParams{}).Read([]string{"integration-harness", "-events-port", "70000"}))
}

func TestApplyParamsToConfig(t *testing.T) {
	config := harnessconfig.Default()
	backend := config.Service(servicedef.RoleBackend)
	backend.Args = []string{"--verbose"}
	backend.ReadyURL = "http://localhost:3000/status"

	commandParams{
		backendCmd:   "go run ./cmd/mockservice -role backend",
		backendURL:   "http://localhost:3100/",
		graceTimeout: time.Second * 2,
		extended:     true,
	}.applyTo(&config)

	backend = config.Service(servicedef.RoleBackend)
	assert.Equal(t, "go run ./cmd/mockservice -role backend", backend.Command)
	assert.Nil(t, backend.Args)
	assert.Equal(t, "http://localhost:3100/", backend.BaseURL)
	assert.Equal(t, "http://localhost:3100/status", backend.ReadyURL)
	assert.Equal(t, harnessconfig.Duration(time.Second*2), config.GraceTimeout)
	assert.Equal(t, harnessconfig.Duration(time.Second*15), config.ReadyTimeout)
	assert.Equal(t, "asl", config.Language)
	assert.True(t, config.Extended)

	recognition := config.Service(servicedef.RoleRecognition)
	assert.Equal(t, harnessconfig.DefaultRecognitionCommand, recognition.Command)
}

func TestApplyParamsAddsMissingService(t *testing.T) {
	config := harnessconfig.Config{}
	commandParams{recognitionURL: "http://localhost:5100"}.applyTo(&config)
	require.Len(t, config.Services, 1)
	assert.Equal(t, servicedef.RoleRecognition, config.Services[0].Role)
	assert.Equal(t, "http://localhost:5100", config.Services[0].BaseURL)
}

func TestLoadSuppressions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skip.txt")
	require.NoError(t, os.WriteFile(path, []byte("video room creation\n\nend-to-end flow\n"), 0o600))

	params := commandParams{skipFile: path}
	require.NoError(t, loadSuppressions(&params))
	assert.False(t, params.filters.Match("video room creation"))
	assert.False(t, params.filters.Match("end-to-end flow"))
	assert.True(t, params.filters.Match("video room join"))

	assert.Error(t, loadSuppressions(&commandParams{skipFile: filepath.Join(t.TempDir(), "missing")}))
}
