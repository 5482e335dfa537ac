// Package browser provides Chrome detection, launch, and target management.
package browser

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ErrChromeNotFound is returned when no Chrome binary can be located.
var ErrChromeNotFound = errors.New("chrome not found")

// chromePaths returns the list of paths to search for Chrome on the current platform.
func chromePaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/google-chrome",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
		}
	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
			"google-chrome",
			"google-chrome-stable",
			"chromium",
			"chromium-browser",
		}
	default:
		return nil
	}
}

// FindChrome searches for a Chrome or Chromium binary on the system.
// It first checks the CDPCORE_CHROME environment variable, then searches
// common installation paths for the current platform.
// Returns the path to the executable or ErrChromeNotFound.
func FindChrome() (string, error) {
	// Check environment variable first
	if envPath := os.Getenv("CDPCORE_CHROME"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		// Env var set but path invalid: fail without searching the
		// platform paths
		return "", ErrChromeNotFound
	}

	// Search common paths
	for _, path := range chromePaths() {
		found, err := exec.LookPath(path)
		if err == nil {
			return found, nil
		}
	}

	return "", ErrChromeNotFound
}

// ResolveChrome returns the Chrome binary a Handler's browser should launch.
// override, when non-empty, is an explicit path (cmd/cdpcore's --chrome
// flag) and takes precedence over CDPCORE_CHROME and the platform search
// FindChrome falls back to; it must exist or ResolveChrome fails rather than
// silently falling through to autodetection.
func ResolveChrome(override string) (string, error) {
	if override == "" {
		return FindChrome()
	}
	if _, err := os.Stat(override); err != nil {
		return "", fmt.Errorf("chrome binary %q: %w", override, err)
	}
	return override, nil
}
