// Command cdpcore is a minimal operational entry point for the Handler
// core: it can launch or dial a real browser and either drive one demo
// navigation (serve) or drop into an interactive line-at-a-time harness
// (repl). It is not the page-control CLI a full browser-automation tool
// would ship; that façade lives above this core and is out of scope here.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Debug enables verbose debug output, shared by every subcommand.
var Debug bool

var rootCmd = &cobra.Command{
	Use:           "cdpcore",
	Short:         "Operational harness for the cdpcore Handler",
	Long:          "cdpcore launches or dials a Chromium instance and drives its DevTools Protocol Handler core.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable verbose debug output")
}

// debugf logs a debug message gated on the --debug flag, matching the
// format the Handler itself uses for its own debug output.
func debugf(category, format string, args ...any) {
	if !Debug {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(os.Stderr, "[DEBUG] [%s] [%s] "+format+"\n", append([]any{ts, category}, args...)...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
