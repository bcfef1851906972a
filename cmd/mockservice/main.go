// Command mockservice runs one of the stand-in services from the mockservices package as a
// standalone HTTP server, so the harness can launch it in place of the real backend or recognition
// service:
//
//	integration-harness -backend-cmd "mockservice -role backend -port 3000" \
//	    -recognition-cmd "mockservice -role recognition -port 5000"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/linguasigna/integration-harness/framework"
	"github.com/linguasigna/integration-harness/mockservices"
	"github.com/linguasigna/integration-harness/servicedef"
)

func main() {
	var (
		role    string
		port    int
		delay   time.Duration
		verbose bool
	)
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&role, "role", servicedef.RoleBackend, `which service to run: "backend" or "recognition"`)
	fs.IntVar(&port, "port", 0, "port to listen on (default 3000 for backend, 5000 for recognition)")
	fs.DurationVar(&delay, "delay", mockservices.DefaultRecognitionDelay, "simulated recognition time per frame")
	fs.BoolVar(&verbose, "verbose", false, "log every request")
	_ = fs.Parse(os.Args[1:])

	logger := log.New(os.Stdout, "", log.LstdFlags)
	var debugLogger framework.Logger = framework.NullLogger()
	if verbose {
		debugLogger = logger
	}

	var handler http.Handler
	switch role {
	case servicedef.RoleBackend:
		if port == 0 {
			port = 3000
		}
		handler = mockservices.NewBackendService(debugLogger)
	case servicedef.RoleRecognition:
		if port == 0 {
			port = 5000
		}
		service, err := mockservices.NewRecognitionService(debugLogger, mockservices.RecognitionDelay(delay))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		handler = service
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", role)
		fs.Usage()
		os.Exit(1)
	}

	if err := serve(logger, role, port, handler); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(logger *log.Logger, role string, port int, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return err
	}
	server := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second * 10}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	logger.Printf("Mock %s service listening on port %d", role, port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Printf("Mock %s service shutting down", role)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
