package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cdpcore/cdpcore/internal/browser"
	"github.com/cdpcore/cdpcore/internal/handler"
	"github.com/cdpcore/cdpcore/internal/wire"
	"github.com/spf13/cobra"
)

var (
	serveURL       string
	serveHeadless  bool
	servePort      int
	serveRemote    string
	serveChrome    string
	serveChromeArg []string
	serveTimeout   time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Launch or dial a browser, create a page and navigate it once",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveURL, "url", "about:blank", "URL to navigate the created page to")
	serveCmd.Flags().BoolVar(&serveHeadless, "headless", true, "Launch Chrome headless")
	serveCmd.Flags().IntVar(&servePort, "port", browser.DefaultPort, "CDP remote debugging port to launch on")
	serveCmd.Flags().StringVar(&serveRemote, "remote", "", "Dial an existing browser-level WebSocket endpoint instead of launching one")
	serveCmd.Flags().StringVar(&serveChrome, "chrome", "", "Explicit Chrome binary to launch, overriding autodetection")
	serveCmd.Flags().StringArrayVar(&serveChromeArg, "chrome-flag", nil, "Extra Chrome command-line flag, repeatable")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", handler.DefaultCommandTimeout, "Command timeout for the Handler")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL, closeBrowser, err := resolveEndpoint(ctx, serveRemote, serveHeadless, servePort, serveChrome, serveChromeArg)
	if err != nil {
		return err
	}
	defer closeBrowser()

	conn, err := wire.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	cfg := handler.DefaultConfig()
	cfg.CommandTimeout = serveTimeout
	cfg.Debug = Debug
	h := handler.New(conn, cfg)

	runErr := make(chan error, 1)
	go func() { runErr <- h.Run(ctx) }()

	page, err := h.CreatePage(ctx, serveURL)
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	debugf("SERVE", "created page targetId=%s sessionId=%s", page.TargetID, page.SessionID)

	result, err := h.Navigate(ctx, page.SessionID, serveURL)
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	out := map[string]any{
		"targetId":  page.TargetID,
		"sessionId": page.SessionID,
		"result":    result.Response,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	select {
	case <-ctx.Done():
	case err := <-runErr:
		if err != nil && err != context.Canceled {
			return fmt.Errorf("handler stopped: %w", err)
		}
	}
	return nil
}

// resolveEndpoint returns the browser-level WebSocket URL to dial, either
// from an already-running browser named by --remote or from one launched
// for the duration of this command. The returned func always tears down
// whatever it started; it is a no-op for a dialed --remote endpoint.
func resolveEndpoint(ctx context.Context, remote string, headless bool, port int, chromeBin string, chromeArgs []string) (string, func(), error) {
	if remote != "" {
		return remote, func() {}, nil
	}

	b, err := browser.Start(browser.LaunchOptions{
		Headless:   headless,
		Port:       port,
		BinaryPath: chromeBin,
		ExtraArgs:  chromeArgs,
	})
	if err != nil {
		return "", func() {}, fmt.Errorf("launch browser: %w", err)
	}
	wsURL, err := b.Endpoint(ctx)
	if err != nil {
		b.Close()
		return "", func() {}, err
	}
	return wsURL, func() { b.Close() }, nil
}
