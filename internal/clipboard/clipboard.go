// Package clipboard copies citation keys to the system clipboard through
// the platform's clipboard command.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// candidates lists the clipboard commands tried on each platform, in order.
var candidates = map[string][][]string{
	"darwin":  {{"pbcopy"}},
	"linux":   {{"wl-copy"}, {"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}},
	"windows": {{"clip"}},
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// command returns the first clipboard command installed on goos.
func command(goos string) ([]string, error) {
	for _, c := range candidates[goos] {
		if _, err := lookPath(c[0]); err == nil {
			return c, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	_, err := command(runtime.GOOS)
	return err == nil
}

// Copy copies the given text to the system clipboard.
// Returns ErrClipboardUnavailable if clipboard access is not available.
func Copy(text string) error {
	args, err := command(runtime.GOOS)
	if err != nil {
		return err
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// CiteKeys renders keys as a LaTeX citation list, "Key1,Key2".
func CiteKeys(keys []string) string {
	return strings.Join(keys, ",")
}
