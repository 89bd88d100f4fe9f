package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"webarchive/pkg/application"
	"webarchive/pkg/common"
	"webarchive/pkg/domain/entity"
	"webarchive/pkg/interface/cli"
	"webarchive/pkg/interface/presenter"
	"webarchive/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// Exit codes: 0 success (including legitimate empty results), 1 fatal
// error, 130 interrupted.
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	config, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if config.Version {
		fmt.Println(common.PV.String())
		return exitOK
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level: config.LogLevel,
		File:  config.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer closeLog()

	assembler := cli.NewAssembler(config)
	pipeline, m, err := assembler.AssemblePipeline(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if config.MetricsAddr != "" {
		m.Serve(ctx, config.MetricsAddr, logger)
	}

	var result *entity.PipelineResult
	var runErr error

	if config.ShowDashboard {
		result, runErr = runWithDashboard(ctx, cancel, pipeline, config.Args.Domain)
	} else {
		var progress *presenter.Progress
		if !config.NoProgress {
			progress = presenter.NewProgress(os.Stderr)
			pipeline.RegisterObserver(progress)
		}
		result, runErr = pipeline.Run(ctx, config.Args.Domain)
		if progress != nil {
			progress.Wait()
		}
	}

	if runErr != nil {
		// Both the signal handler and quitting the TUI abort via ctx.
		if errors.Is(runErr, context.Canceled) {
			return exitInterrupted
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(runErr))
		return exitError
	}

	summary := presenter.NewSummary(os.Stdout, config.Verbose)
	summary.Render(result)
	return exitOK
}

// runWithDashboard drives the pipeline under the TUI. The pipeline runs
// in the background and quits the program loop when it finishes; quitting
// the TUI early cancels the pipeline.
func runWithDashboard(ctx context.Context, cancel context.CancelFunc, pipeline *application.Pipeline, domain string) (*entity.PipelineResult, error) {
	dashboard := presenter.NewDashboard()
	pipeline.RegisterObserver(dashboard)

	p := tea.NewProgram(dashboard, tea.WithAltScreen())

	var result *entity.PipelineResult
	var runErr error
	done := make(chan struct{})
	go func() {
		result, runErr = pipeline.Run(ctx, domain)
		p.Quit()
		close(done)
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	cancel()
	<-done
	return result, runErr
}

// describe maps known error types to user-facing messages.
func describe(err error) string {
	var invalid *entity.InvalidDomainError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("invalid domain %q: expected a name like example.com", invalid.Input)
	}

	var fetch *entity.FetchError
	if errors.As(err, &fetch) {
		return fmt.Sprintf("archive query failed after %d attempts: %v", fetch.Attempts, fetch.Err)
	}

	var persist *entity.PersistenceError
	if errors.As(err, &persist) {
		return fmt.Sprintf("could not write %s output to %s: %v", persist.Format, persist.Path, persist.Err)
	}

	return err.Error()
}
