package browser

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CaptureOnFailure saves a screenshot of s into dir when t fails. Capture
// problems are logged, never reported as test failures. Register it after the
// cleanup that closes the session so it runs first.
func CaptureOnFailure(t testing.TB, s *Session, dir string) {
	t.Helper()
	t.Cleanup(func() {
		if !t.Failed() {
			return
		}
		path, err := SaveScreenshot(s, dir, t.Name())
		if err != nil {
			t.Logf("could not capture failure screenshot: %v", err)
			return
		}
		t.Logf("failure screenshot saved to %s", path)
	})
}

// SaveScreenshot writes a PNG of the current page to dir/<name>.png
func SaveScreenshot(s *Session, dir, name string) (string, error) {
	png, err := s.Screenshot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, unsafeFileChars.ReplaceAllString(name, "_")+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
