package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cdpcore/cdpcore/internal/browser"
	"github.com/cdpcore/cdpcore/internal/handler"
	"github.com/cdpcore/cdpcore/internal/wire"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	replHeadless  bool
	replPort      int
	replRemote    string
	replChrome    string
	replChromeArg []string
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive line-at-a-time harness over a live Handler",
	Long:  "repl accepts create/pages/nav/cmd/exit lines and prints each result, for manually exercising the Handler without a full automation façade.",
	RunE:  runRepl,
}

func init() {
	replCmd.Flags().BoolVar(&replHeadless, "headless", true, "Launch Chrome headless")
	replCmd.Flags().IntVar(&replPort, "port", browser.DefaultPort, "CDP remote debugging port to launch on")
	replCmd.Flags().StringVar(&replRemote, "remote", "", "Dial an existing browser-level WebSocket endpoint instead of launching one")
	replCmd.Flags().StringVar(&replChrome, "chrome", "", "Explicit Chrome binary to launch, overriding autodetection")
	replCmd.Flags().StringArrayVar(&replChromeArg, "chrome-flag", nil, "Extra Chrome command-line flag, repeatable")
	rootCmd.AddCommand(replCmd)
}

// stdio adapts the stdin/stdout pair to the single io.ReadWriter
// term.NewTerminal expects for raw-mode line editing.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func runRepl(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL, closeBrowser, err := resolveEndpoint(ctx, replRemote, replHeadless, replPort, replChrome, replChromeArg)
	if err != nil {
		return err
	}
	defer closeBrowser()

	conn, err := wire.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	cfg := handler.DefaultConfig()
	cfg.Debug = Debug
	h := handler.New(conn, cfg)
	go h.Run(ctx)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return runReplLines(ctx, h, os.Stdin)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(stdio{}, "cdpcore> ")
	for {
		line, err := t.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if done := evalLine(ctx, h, t, line); done {
			return nil
		}
	}
}

// runReplLines is the non-TTY fallback: a plain line scanner with no raw
// mode or editing, used when stdin is piped rather than a terminal.
func runReplLines(ctx context.Context, h *handler.Handler, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if done := evalLine(ctx, h, os.Stdout, scanner.Text()); done {
			return nil
		}
	}
	return scanner.Err()
}

func evalLine(ctx context.Context, h *handler.Handler, w io.Writer, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "exit", "quit":
		return true
	case "create":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: create <url>")
			return false
		}
		page, err := h.CreatePage(ctx, fields[1])
		report(w, page, err)
	case "pages":
		pages, err := h.GetPages(ctx)
		report(w, pages, err)
	case "nav":
		if len(fields) < 3 {
			fmt.Fprintln(w, "usage: nav <sessionId> <url>")
			return false
		}
		result, err := h.Navigate(ctx, fields[1], fields[2])
		report(w, result, err)
	case "cmd":
		if len(fields) < 3 {
			fmt.Fprintln(w, "usage: cmd <sessionId|-> <method> [params-json]")
			return false
		}
		sessionID := fields[1]
		if sessionID == "-" {
			sessionID = ""
		}
		var params json.RawMessage
		if len(fields) > 3 {
			params = json.RawMessage(strings.Join(fields[3:], " "))
		}
		raw, err := h.Command(ctx, sessionID, fields[2], params)
		report(w, raw, err)
	default:
		fmt.Fprintf(w, "unknown command %q\n", fields[0])
	}
	return false
}

func report(w io.Writer, v any, err error) {
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	b, mErr := json.Marshal(v)
	if mErr != nil {
		fmt.Fprintf(w, "error: %v\n", mErr)
		return
	}
	fmt.Fprintln(w, string(b))
}
