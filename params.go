package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/linguasigna/integration-harness/framework/suite"
	"github.com/linguasigna/integration-harness/harnessconfig"
	"github.com/linguasigna/integration-harness/servicedef"
)

type commandParams struct {
	configFile     string
	backendCmd     string
	recognitionCmd string
	backendURL     string
	recognitionURL string
	readyTimeout   time.Duration
	pollInterval   time.Duration
	graceTimeout   time.Duration
	language       string
	extended       bool
	filters        suite.RegexFilters
	skipFile       string
	recordFailures string
	jUnitFile      string
	jsonFile       string
	publishTargets stringList
	eventsPort     int
	debug          bool
	debugAll       bool
}

// stringList collects the values of a repeatable flag.
type stringList []string

func (l stringList) String() string { return strings.Join(l, ", ") }

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.configFile, "config", "", "YAML, JSON, or TOML file describing the services")
	fs.StringVar(&c.backendCmd, "backend-cmd", "", "command line that starts the backend service")
	fs.StringVar(&c.recognitionCmd, "recognition-cmd", "", "command line that starts the recognition service")
	fs.StringVar(&c.backendURL, "backend-url", "", "base URL of the backend service")
	fs.StringVar(&c.recognitionURL, "recognition-url", "", "base URL of the recognition service")
	fs.DurationVar(&c.readyTimeout, "ready-timeout", 0, "how long to wait for each service to become ready")
	fs.DurationVar(&c.pollInterval, "poll-interval", 0, "time between readiness checks")
	fs.DurationVar(&c.graceTimeout, "grace", 0, "how long a service may take to exit before it is killed")
	fs.StringVar(&c.language, "language", "", "sign language code for the recognition test (asl or gsl)")
	fs.BoolVar(&c.extended, "extended", false, "also run the room join and session listing tests")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-from", "", "file with test names to skip, one per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the names of failed tests to the specified path")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.jsonFile, "json", "", "write a JSON run record to the specified path")
	fs.Var(&c.publishTargets, "publish", "also store the run record at this redis://, consul://, or dynamodb:// URL")
	fs.IntVar(&c.eventsPort, "events-port", 0, "serve a live event stream of test results on this port")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return false
	}
	if c.eventsPort < 0 || c.eventsPort > 65535 {
		fmt.Fprintln(os.Stderr, "-events-port must be a valid port number")
		return false
	}
	return true
}

// applyTo overrides the loaded configuration with whatever was given on the command line.
func (c commandParams) applyTo(config *harnessconfig.Config) {
	overrideService(config, servicedef.RoleBackend, c.backendCmd, c.backendURL)
	overrideService(config, servicedef.RoleRecognition, c.recognitionCmd, c.recognitionURL)
	if c.readyTimeout != 0 {
		config.ReadyTimeout = harnessconfig.Duration(c.readyTimeout)
	}
	if c.pollInterval != 0 {
		config.PollInterval = harnessconfig.Duration(c.pollInterval)
	}
	if c.graceTimeout != 0 {
		config.GraceTimeout = harnessconfig.Duration(c.graceTimeout)
	}
	if c.language != "" {
		config.Language = c.language
	}
	if c.extended {
		config.Extended = true
	}
}

func overrideService(config *harnessconfig.Config, name, command, baseURL string) {
	if command == "" && baseURL == "" {
		return
	}
	s := config.Service(name)
	if s == nil {
		config.Services = append(config.Services, harnessconfig.ServiceConfig{Name: name, Role: name})
		s = &config.Services[len(config.Services)-1]
	}
	if command != "" {
		s.Command = command
		s.Args = nil
	}
	if baseURL != "" {
		oldBaseURL := strings.TrimSuffix(s.BaseURL, "/")
		if s.ReadyURL != "" && oldBaseURL != "" && strings.HasPrefix(s.ReadyURL, oldBaseURL) {
			s.ReadyURL = strings.TrimSuffix(baseURL, "/") + strings.TrimPrefix(s.ReadyURL, oldBaseURL)
		}
		s.BaseURL = baseURL
	}
}
