package browser

import (
	"os"
	"runtime"
	"testing"
)

func TestChromePaths_ReturnsPathsForCurrentOS(t *testing.T) {
	t.Parallel()

	paths := chromePaths()

	switch runtime.GOOS {
	case "darwin", "linux":
		if len(paths) == 0 {
			t.Error("expected non-empty paths for supported OS")
		}
	default:
		if len(paths) != 0 {
			t.Errorf("expected empty paths for unsupported OS, got %d", len(paths))
		}
	}
}

func TestFindChrome_RespectsEnvVar(t *testing.T) {
	// Create a temp file to act as a fake chrome binary
	tmpFile, err := os.CreateTemp("", "fake-chrome-*")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	// Set env var
	original := os.Getenv("CDPCORE_CHROME")
	os.Setenv("CDPCORE_CHROME", tmpFile.Name())
	defer os.Setenv("CDPCORE_CHROME", original)

	path, err := FindChrome()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path != tmpFile.Name() {
		t.Errorf("expected %s, got %s", tmpFile.Name(), path)
	}
}

func TestFindChrome_EnvVarInvalidPath(t *testing.T) {
	original := os.Getenv("CDPCORE_CHROME")
	os.Setenv("CDPCORE_CHROME", "/nonexistent/path/to/chrome")
	defer os.Setenv("CDPCORE_CHROME", original)

	_, err := FindChrome()
	if err != ErrChromeNotFound {
		t.Errorf("expected ErrChromeNotFound, got %v", err)
	}
}

func TestResolveChrome_OverrideTakesPrecedence(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "fake-chrome-*")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	original := os.Getenv("CDPCORE_CHROME")
	os.Setenv("CDPCORE_CHROME", "/nonexistent/env-path")
	defer os.Setenv("CDPCORE_CHROME", original)

	path, err := ResolveChrome(tmpFile.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != tmpFile.Name() {
		t.Errorf("expected override %s, got %s", tmpFile.Name(), path)
	}
}

func TestResolveChrome_OverrideMissing(t *testing.T) {
	_, err := ResolveChrome("/nonexistent/path/to/chrome")
	if err == nil {
		t.Fatal("expected error for missing override binary")
	}
}

func TestResolveChrome_EmptyFallsBackToFindChrome(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "fake-chrome-*")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	original := os.Getenv("CDPCORE_CHROME")
	os.Setenv("CDPCORE_CHROME", tmpFile.Name())
	defer os.Setenv("CDPCORE_CHROME", original)

	path, err := ResolveChrome("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != tmpFile.Name() {
		t.Errorf("expected %s, got %s", tmpFile.Name(), path)
	}
}

func TestFindChrome_SearchesPaths(t *testing.T) {
	// Clear env var to test path search
	original := os.Getenv("CDPCORE_CHROME")
	os.Unsetenv("CDPCORE_CHROME")
	defer os.Setenv("CDPCORE_CHROME", original)

	// This test may pass or fail depending on whether Chrome is installed
	// We just verify it doesn't panic
	path, err := FindChrome()
	if err == nil {
		if path == "" {
			t.Error("found chrome but path is empty")
		}
		t.Logf("Found Chrome at: %s", path)
	} else if err != ErrChromeNotFound {
		t.Errorf("unexpected error type: %v", err)
	}
}
