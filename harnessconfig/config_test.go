package harnessconfig

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguasigna/integration-harness/framework/harness"
)

func specFor(t *testing.T, config harness.Config, name string) harness.ServiceSpec {
	for _, s := range config.Services {
		if s.Name == name {
			return s
		}
	}
	require.Fail(t, "missing service", "no service named %q", name)
	return harness.ServiceSpec{}
}

func TestDefaultConfig(t *testing.T) {
	hc, err := Default().HarnessConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Second*15, hc.ReadyTimeout)
	assert.Equal(t, time.Second, hc.PollInterval)
	assert.Equal(t, time.Second*5, hc.GraceTimeout)
	require.Len(t, hc.Services, 2)

	backend := hc.Services[0]
	assert.Equal(t, "backend", backend.Name)
	assert.Equal(t, "backend", backend.Role)
	assert.Equal(t, "node", backend.Command)
	assert.Equal(t, []string{"backend_server.js"}, backend.Args)
	assert.Equal(t, "http://localhost:3000", backend.BaseURL)
	assert.Equal(t, "http://localhost:3000/health", backend.ReadyURL)

	recognition := hc.Services[1]
	assert.Equal(t, "recognition", recognition.Role)
	assert.Equal(t, "python3", recognition.Command)
	assert.Equal(t, []string{"ml_server.py"}, recognition.Args)
	assert.Equal(t, "http://localhost:5000/health", recognition.ReadyURL)
}

func TestLoadYAML(t *testing.T) {
	config, err := Load(filepath.Join("testdata", "harness.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gsl", config.Language)
	assert.False(t, config.Extended)

	hc, err := config.HarnessConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Second*30, hc.ReadyTimeout)
	assert.Equal(t, time.Second, hc.PollInterval)
	assert.Equal(t, time.Second*2, hc.GraceTimeout)
	require.Len(t, hc.Services, 2)

	backend := specFor(t, hc, "backend")
	assert.Equal(t, "backend", backend.Role)
	assert.Equal(t, "npm", backend.Command)
	assert.Equal(t, []string{"start"}, backend.Args)
	assert.Equal(t, "../backend", backend.Dir)
	assert.Equal(t, []string{"NODE_ENV=test", "PORT=3100"}, backend.Env)
	assert.Equal(t, "http://localhost:3100/health", backend.ReadyURL)
	assert.Equal(t, time.Second*10, backend.GraceTimeout)

	recognition := specFor(t, hc, "recognition")
	assert.Equal(t, "python3", recognition.Command)
	assert.Equal(t, []string{"ml_server.py", "--port", "5100"}, recognition.Args)
	assert.Equal(t, "http://localhost:5100", recognition.BaseURL)
	assert.Equal(t, "http://localhost:5100/status", recognition.ReadyURL)
	assert.Equal(t, time.Second*45, recognition.StartupTimeout)
	require.Len(t, recognition.OutputFilters, 1)
	assert.True(t, recognition.OutputFilters[0].MatchString(" * Debugger is active!"))
}

func TestLoadJSON(t *testing.T) {
	config, err := Load(filepath.Join("testdata", "harness.json"))
	require.NoError(t, err)
	assert.True(t, config.Extended)
	assert.Equal(t, "asl", config.Language)

	hc, err := config.HarnessConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond*500, hc.PollInterval)

	backend := specFor(t, hc, "backend")
	assert.Equal(t, "go", backend.Command)
	assert.Equal(t, []string{"run", "./cmd/mockservice", "-role", "backend", "-port", "3200"}, backend.Args)

	// the recognition service keeps its defaults
	assert.Equal(t, "python3", specFor(t, hc, "recognition").Command)
}

func TestLoadTOML(t *testing.T) {
	config, err := Load(filepath.Join("testdata", "harness.toml"))
	require.NoError(t, err)

	hc, err := config.HarnessConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Second*20, hc.ReadyTimeout)

	backend := specFor(t, hc, "backend")
	assert.Equal(t, "node", backend.Command)
	assert.Equal(t, []string{"backend server.js"}, backend.Args)
	assert.Equal(t, []string{"PORT=3300"}, backend.Env)
	assert.Equal(t, time.Second*5, backend.StartupTimeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nonexistent.yaml"))
	assert.Error(t, err)
}

func TestMergeAddsUnknownServices(t *testing.T) {
	config := Default()
	config.Merge(Config{Services: []ServiceConfig{
		{Name: "cache", Command: "redis-server", BaseURL: "http://localhost:6379"},
	}})
	require.Len(t, config.Services, 3)
	assert.Equal(t, "cache", config.Services[2].Name)
}

func TestServiceSpecErrors(t *testing.T) {
	for _, params := range []struct {
		desc    string
		service ServiceConfig
		message string
	}{
		{"unbalanced quotes", ServiceConfig{Name: "a", Command: "node 'x", BaseURL: "http://x"}, "invalid command"},
		{"no command", ServiceConfig{Name: "a", BaseURL: "http://x"}, "no command"},
		{"no URL", ServiceConfig{Name: "a", Command: "node"}, "no base URL"},
		{"bad filter", ServiceConfig{Name: "a", Command: "node", BaseURL: "http://x", OutputFilters: []string{"("}},
			"invalid output filter"},
	} {
		t.Run(params.desc, func(t *testing.T) {
			_, err := params.service.Spec()
			require.Error(t, err)
			assert.Contains(t, err.Error(), params.message)
		})
	}
}

func TestHarnessConfigReportsEveryBadService(t *testing.T) {
	config := Config{Services: []ServiceConfig{{Name: "a"}, {Name: "b"}}}
	_, err := config.HarnessConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, Duration(time.Second*90), d)

	require.NoError(t, json.Unmarshal([]byte(`2.5`), &d))
	assert.Equal(t, Duration(time.Millisecond*2500), d)

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	data, err := json.Marshal(Duration(time.Second * 15))
	require.NoError(t, err)
	assert.Equal(t, `"15s"`, string(data))
}
