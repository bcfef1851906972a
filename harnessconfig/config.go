package harnessconfig

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/linguasigna/integration-harness/framework/harness"
	"github.com/linguasigna/integration-harness/framework/helpers"
	"github.com/linguasigna/integration-harness/servicedef"
)

const (
	DefaultBackendCommand     = "node backend_server.js"
	DefaultBackendURL         = "http://localhost:3000"
	DefaultRecognitionCommand = "python3 ml_server.py"
	DefaultRecognitionURL     = "http://localhost:5000"

	defaultReadyPath = servicedef.HealthPath
)

// ServiceConfig is the configuration-file form of harness.ServiceSpec.
type ServiceConfig struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`

	// Command is either the whole command line, which is split into words with shell quoting rules,
	// or just the program if Args is given.
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Dir     string   `json:"dir,omitempty"`

	Env map[string]string `json:"env,omitempty"`

	BaseURL string `json:"baseUrl"`

	// ReadyURL defaults to BaseURL plus "/health".
	ReadyURL string `json:"readyUrl,omitempty"`

	StartupTimeout Duration `json:"startupTimeout,omitempty"`
	GraceTimeout   Duration `json:"graceTimeout,omitempty"`

	// OutputFilters are regular expressions for output lines to leave out of diagnostics.
	OutputFilters []string `json:"outputFilters,omitempty"`
	EchoOutput    bool     `json:"echoOutput,omitempty"`
}

// Config is the full harness configuration: the services to launch, the timing parameters, and the
// options passed to the test suite.
type Config struct {
	Services     []ServiceConfig `json:"services"`
	ReadyTimeout Duration        `json:"readyTimeout,omitempty"`
	PollInterval Duration        `json:"pollInterval,omitempty"`
	GraceTimeout Duration        `json:"graceTimeout,omitempty"`

	// Language is the sign language code used by the recognition test case.
	Language string `json:"language,omitempty"`

	// Extended enables the extra test cases.
	Extended bool `json:"extended,omitempty"`
}

// Default returns the configuration used when no file is given: the backend and recognition
// services from the integration-testing directory on their usual local ports.
func Default() Config {
	return Config{
		Services: []ServiceConfig{
			{
				Name:    servicedef.RoleBackend,
				Role:    servicedef.RoleBackend,
				Command: DefaultBackendCommand,
				BaseURL: DefaultBackendURL,
			},
			{
				Name:    servicedef.RoleRecognition,
				Role:    servicedef.RoleRecognition,
				Command: DefaultRecognitionCommand,
				BaseURL: DefaultRecognitionURL,
			},
		},
		ReadyTimeout: Duration(harness.DefaultReadyTimeout),
		PollInterval: Duration(harness.DefaultPollInterval),
		GraceTimeout: Duration(harness.DefaultGraceTimeout),
		Language:     string(servicedef.LanguageASL),
	}
}

// Load reads a configuration file and merges it over Default. Services in the file whose name
// matches a default service modify that service; any others are added.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config file: %w", err)
	}
	var fromFile Config
	if err := Parse(path, data, &fromFile); err != nil {
		return Config{}, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	config := Default()
	config.Merge(fromFile)
	return config, nil
}

// Merge copies every field that is set in other into c.
func (c *Config) Merge(other Config) {
	for _, s := range other.Services {
		if existing := c.Service(s.Name); existing != nil {
			existing.merge(s)
		} else {
			c.Services = append(c.Services, s)
		}
	}
	if other.ReadyTimeout != 0 {
		c.ReadyTimeout = other.ReadyTimeout
	}
	if other.PollInterval != 0 {
		c.PollInterval = other.PollInterval
	}
	if other.GraceTimeout != 0 {
		c.GraceTimeout = other.GraceTimeout
	}
	if other.Language != "" {
		c.Language = other.Language
	}
	if other.Extended {
		c.Extended = true
	}
}

// Service returns the service with the given name, or nil.
func (c *Config) Service(name string) *ServiceConfig {
	for i := range c.Services {
		if c.Services[i].Name == name {
			return &c.Services[i]
		}
	}
	return nil
}

func (s *ServiceConfig) merge(other ServiceConfig) {
	if other.Role != "" {
		s.Role = other.Role
	}
	if other.Command != "" {
		s.Command = other.Command
		s.Args = other.Args
	}
	if other.Dir != "" {
		s.Dir = other.Dir
	}
	if len(other.Env) != 0 {
		if s.Env == nil {
			s.Env = make(map[string]string)
		}
		for k, v := range other.Env {
			s.Env[k] = v
		}
	}
	if other.BaseURL != "" {
		s.BaseURL = other.BaseURL
	}
	if other.ReadyURL != "" {
		s.ReadyURL = other.ReadyURL
	}
	if other.StartupTimeout != 0 {
		s.StartupTimeout = other.StartupTimeout
	}
	if other.GraceTimeout != 0 {
		s.GraceTimeout = other.GraceTimeout
	}
	if len(other.OutputFilters) != 0 {
		s.OutputFilters = append(s.OutputFilters, other.OutputFilters...)
	}
	if other.EchoOutput {
		s.EchoOutput = true
	}
}

// HarnessConfig converts the configuration to the form used by harness.New.
func (c Config) HarnessConfig() (harness.Config, error) {
	ret := harness.Config{
		ReadyTimeout: time.Duration(c.ReadyTimeout),
		PollInterval: time.Duration(c.PollInterval),
		GraceTimeout: time.Duration(c.GraceTimeout),
	}
	var errs []error
	for _, s := range c.Services {
		spec, err := s.Spec()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ret.Services = append(ret.Services, spec)
	}
	if len(errs) != 0 {
		return harness.Config{}, errors.Join(errs...)
	}
	return ret, nil
}

// Spec converts the service configuration to a harness.ServiceSpec.
func (s ServiceConfig) Spec() (harness.ServiceSpec, error) {
	spec := harness.ServiceSpec{
		Name:           s.Name,
		Role:           s.Role,
		Dir:            s.Dir,
		BaseURL:        strings.TrimSuffix(s.BaseURL, "/"),
		ReadyURL:       s.ReadyURL,
		StartupTimeout: time.Duration(s.StartupTimeout),
		GraceTimeout:   time.Duration(s.GraceTimeout),
		EchoOutput:     s.EchoOutput,
	}

	if len(s.Args) != 0 {
		spec.Command, spec.Args = s.Command, helpers.CopyOf(s.Args)
	} else {
		words, err := shellquote.Split(s.Command)
		if err != nil {
			return spec, fmt.Errorf("invalid command for service %q: %w", s.Name, err)
		}
		if len(words) != 0 {
			spec.Command, spec.Args = words[0], words[1:]
		}
	}
	if spec.Command == "" {
		return spec, fmt.Errorf("no command was specified for service %q", s.Name)
	}

	if spec.BaseURL == "" {
		return spec, fmt.Errorf("no base URL was specified for service %q", s.Name)
	}
	if spec.ReadyURL == "" {
		spec.ReadyURL = spec.BaseURL + defaultReadyPath
	}

	for _, k := range helpers.SortedKeys(s.Env) {
		spec.Env = append(spec.Env, k+"="+s.Env[k])
	}

	for _, pattern := range s.OutputFilters {
		rx, err := regexp.Compile(pattern)
		if err != nil {
			return spec, fmt.Errorf("invalid output filter for service %q: %w", s.Name, err)
		}
		spec.OutputFilters = append(spec.OutputFilters, rx)
	}

	return spec, nil
}
