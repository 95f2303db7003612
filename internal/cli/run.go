package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/famomatic/coubdl/internal/api"
	"github.com/famomatic/coubdl/internal/archive"
	"github.com/famomatic/coubdl/internal/console"
	"github.com/famomatic/coubdl/internal/downloader"
	"github.com/famomatic/coubdl/internal/input"
	"github.com/famomatic/coubdl/internal/muxer"
	"github.com/famomatic/coubdl/internal/pipeline"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitDependency = 1 // ffmpeg missing
	ExitOptions    = 2 // invalid flags, config or inputs
	ExitRuntime    = 3 // filesystem or environment problem
	ExitDownload   = 4 // at least one item failed
	ExitInterrupt  = 5 // user interrupt
	ExitConnection = 6 // could not reach the API
)

// Run executes one invocation and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := ParseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitOptions
	}

	settings, err := BuildSettings(opts)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return ExitOptions
	}
	cons := console.NewWithWriters(settings.Quiet, stdout, stderr)

	selectors, err := Selectors(opts)
	if err != nil {
		cons.Err("error: %v", err)
		return ExitOptions
	}
	if len(selectors) == 0 {
		cons.Err("error: no inputs given, see --help")
		return ExitOptions
	}

	ff := muxer.New(settings.FFmpegPath)
	if !ff.Available() {
		cons.Err("error: ffmpeg not found; install it or point --ffmpeg-path at the binary")
		return ExitDependency
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.Duration != "" {
		if err := ff.ValidateDuration(ctx, settings.Duration); err != nil {
			cons.Err("error: %v", err)
			return ExitOptions
		}
	}

	if err := os.MkdirAll(settings.OutDir, 0o755); err != nil {
		cons.Err("error: cannot create destination directory: %v", err)
		return ExitRuntime
	}
	if err := pipeline.CheckReserved(settings.OutDir); err != nil {
		cons.Err("error: %v", err)
		return ExitRuntime
	}

	ledger, err := archive.Open(settings.ArchivePath)
	if err != nil {
		cons.Err("error: cannot open archive file: %v", err)
		return ExitRuntime
	}

	apiClient := api.New(api.Config{MaxRetries: settings.Retries})
	resolver := &input.Resolver{API: apiClient, Reposts: settings.Reposts, Console: cons}

	ids, err := resolver.Resolve(ctx, selectors, settings.Limit)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			cons.Err("aborted")
			return ExitInterrupt
		case isConnectionError(err):
			cons.Err("error: cannot connect to the server: %v", err)
			return ExitConnection
		default:
			cons.Err("error: %v", err)
			return ExitOptions
		}
	}

	if settings.WriteList != "" {
		if err := input.WriteList(settings.WriteList, ids); err != nil {
			cons.Err("error: cannot write link list: %v", err)
			return ExitRuntime
		}
		cons.Msg("Link list written to %s", settings.WriteList)
		return ExitOK
	}

	fetch := downloader.New(apiClient.HTTPClient(), downloader.Config{
		MaxRetries:     settings.Retries,
		MaxConnections: settings.Connections,
		RateLimit:      settings.RateLimit,
		Sleep:          settings.Sleep,
	})

	pipe := &pipeline.Pipeline{
		API:      apiClient,
		Fetch:    fetch,
		Mux:      ff,
		Repair:   downloader.Repair,
		Ledger:   ledger,
		Console:  cons,
		Settings: settings,
		Confirm:  confirmFunc(settings.Prompt, cons, stdin),
	}

	cons.Msg("Downloading %d coub(s)...", len(ids))
	report, err := pipe.Run(ctx, ids)
	if err != nil {
		cons.Err("error: %v", err)
		return ExitRuntime
	}

	if report.Interrupted {
		cons.Err("aborted, partial files cleaned up")
		return ExitInterrupt
	}
	if failed := report.Failed(); failed > 0 {
		cons.Err("%d of %d item(s) failed", failed, len(ids))
		return ExitDownload
	}
	cons.Msg("Done")
	return ExitOK
}

// confirmFunc builds the overwrite decision. An empty prompt answer asks
// interactively; a non-terminal stdin answers no.
func confirmFunc(prompt string, cons *console.Console, stdin io.Reader) func(string) bool {
	switch prompt {
	case "yes":
		return func(string) bool { return true }
	case "no":
		return func(string) bool { return false }
	}
	reader := bufio.NewReader(stdin)
	return func(path string) bool {
		cons.Warn("%s already exists, overwrite? [y/N]", path)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

// isConnectionError distinguishes transport-level failures from API
// responses; status errors come back as HTTPStatusError instead.
func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
