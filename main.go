package main

import (
	"bufio"
	"context"
	_ "embed" // this is required in order for go:embed to work
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/linguasigna/integration-harness/framework"
	"github.com/linguasigna/integration-harness/framework/harness"
	"github.com/linguasigna/integration-harness/framework/suite"
	"github.com/linguasigna/integration-harness/harnessconfig"
	"github.com/linguasigna/integration-harness/linguatests"
	"github.com/linguasigna/integration-harness/reportstore"
)

const publishTimeout = time.Second * 10

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("integration-harness v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	outcome, err := run(ctx, params)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !outcome.Success {
		os.Exit(1)
	}
}

func run(ctx context.Context, params commandParams) (harness.Outcome, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return harness.Outcome{}, err
		}
	}

	config := harnessconfig.Default()
	if params.configFile != "" {
		loaded, err := harnessconfig.Load(params.configFile)
		if err != nil {
			return harness.Outcome{}, err
		}
		config = loaded
	}
	params.applyTo(&config)
	harnessConfig, err := config.HarnessConfig()
	if err != nil {
		return harness.Outcome{}, err
	}

	publishers := make([]reportstore.Publisher, 0, len(params.publishTargets))
	defer func() {
		for _, p := range publishers {
			_ = p.Close()
		}
	}()
	for _, target := range params.publishTargets {
		p, err := reportstore.NewPublisher(target)
		if err != nil {
			return harness.Outcome{}, err
		}
		publishers = append(publishers, p)
	}

	mainLogger := log.New(os.Stdout, "", log.LstdFlags)
	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = mainLogger
	}

	testLoggers := []suite.TestLogger{
		suite.ConsoleTestLogger{
			Out:                  os.Stdout,
			DebugOutputOnFailure: params.debug || params.debugAll,
			DebugOutputOnSuccess: params.debugAll,
		},
	}
	var jUnitLogger *suite.JUnitTestLogger
	if params.jUnitFile != "" {
		jUnitLogger = suite.NewJUnitTestLogger(params.jUnitFile, "integration-harness", map[string]string{
			"language": config.Language,
			"filters":  params.filters.String(),
		})
		testLoggers = append(testLoggers, jUnitLogger)
	}
	var eventLogger *suite.EventStreamLogger
	if params.eventsPort != 0 {
		eventLogger = suite.NewEventStreamLogger(mainDebugLogger)
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", params.eventsPort),
			Handler:           eventLogger,
			ReadHeaderTimeout: time.Second * 5,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLogger.Printf("Event stream server failed: %s", err)
			}
		}()
		mainLogger.Printf("Serving test events at http://localhost:%d/", params.eventsPort)
		defer func() {
			eventLogger.Close()
			_ = server.Close()
		}()
		testLoggers = append(testLoggers, eventLogger)
	}

	suite.PrintFilterDescription(os.Stdout, params.filters)

	h, err := harness.New(harnessConfig, harness.WithLogger(mainLogger))
	if err != nil {
		return harness.Outcome{}, err
	}
	outcome := h.Run(ctx, linguatests.SuiteFunc(linguatests.SuiteParams{
		Language:   config.Language,
		Extended:   config.Extended,
		Filter:     params.filters.Match,
		TestLogger: suite.MultiTestLogger(testLoggers...),
	}))

	var logErr error
	if outcome.Report != nil {
		suite.PrintReport(os.Stdout, *outcome.Report)
		if jUnitLogger != nil {
			logErr = jUnitLogger.EndLog(*outcome.Report)
		}
		if eventLogger != nil {
			_ = eventLogger.EndLog(*outcome.Report)
		}
	} else if outcome.Err != nil {
		fmt.Fprintf(os.Stderr, "Tests were not run: %s\n", outcome.Err)
	}

	if err := storeRecord(params, publishers, reportstore.NewRunRecord(outcome), mainLogger); err != nil {
		return outcome, err
	}

	if logErr != nil {
		return outcome, fmt.Errorf("error writing log: %v", logErr)
	}

	if params.recordFailures != "" && outcome.Report != nil {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return outcome, fmt.Errorf("cannot create suppression file: %v", err)
		}
		for _, result := range outcome.Report.Failures() {
			fmt.Fprintln(f, result.Name)
		}
		_ = f.Close()
	}

	return outcome, nil
}

// storeRecord writes the JSON run record if requested, then publishes it. A publisher that fails is
// logged but does not fail the run.
func storeRecord(
	params commandParams,
	publishers []reportstore.Publisher,
	record reportstore.RunRecord,
	logger framework.Logger,
) error {
	if params.jsonFile != "" {
		if err := reportstore.WriteJSONFile(params.jsonFile, record); err != nil {
			return err
		}
	}
	if len(publishers) == 0 {
		return nil
	}
	// the run's own context may already be cancelled by an interrupt
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for i, p := range publishers {
		if err := p.Publish(ctx, record); err != nil {
			logger.Printf("Failed to publish run record to %s: %s", params.publishTargets[i], err)
		} else {
			logger.Printf("Published run record %s to %s", record.RunID, params.publishTargets[i])
		}
	}
	return nil
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		// Ignore blank lines
		if strings.TrimSpace(line) == "" {
			continue
		}
		escaped := "^" + regexp.QuoteMeta(strings.TrimSpace(line)) + "$"
		if err := params.filters.MustNotMatch.Set(escaped); err != nil {
			return fmt.Errorf("cannot parse suppression: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
