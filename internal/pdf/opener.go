// Package pdf attaches PDF files to entries and opens them.
package pdf

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNoPDF is returned when an entry has no attached file.
var ErrNoPDF = errors.New("entry has no PDF file")

// Opener resolves attached filenames and opens them with a reader.
type Opener struct {
	pdfDir string
	reader string
}

// NewOpener creates an opener for files under pdfDir. A reader of "" or
// "default" uses the system opener.
func NewOpener(pdfDir, reader string) *Opener {
	if reader == "" {
		reader = "default"
	}
	return &Opener{
		pdfDir: pdfDir,
		reader: reader,
	}
}

// ResolvePath returns the full path of an attached file, which must exist.
func (o *Opener) ResolvePath(name string) (string, error) {
	if name == "" {
		return "", ErrNoPDF
	}

	fullPath := filepath.Join(o.pdfDir, name)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("PDF not found: %s", fullPath)
		}
		return "", fmt.Errorf("checking PDF: %w", err)
	}

	return fullPath, nil
}

// Open starts the reader on fullPath without waiting for it to exit.
func (o *Opener) Open(fullPath string) error {
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF file does not exist: %s", fullPath)
		}
		return fmt.Errorf("checking PDF file: %w", err)
	}

	cmd, err := o.Command(fullPath)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command returns the command that opens path.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	if o.reader != "default" {
		return exec.Command(o.reader, path), nil
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", path), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
}
