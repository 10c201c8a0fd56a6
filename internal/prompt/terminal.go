// Package prompt asks the user to settle merge and deduplication
// conflicts on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"golang.org/x/term"

	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "autumn"

const separator = "::::::::::::::::::::::::::::::::::::::::::::::::::::::::::::::::::::::"

// Terminal is a conflict.Decider that shows the entries involved and reads
// the answer from a line-oriented input.
type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	style string
	color bool
}

// New returns a Terminal reading from in and writing to out. Entries are
// highlighted with the given chroma style only when out is a terminal.
func New(in io.Reader, out io.Writer, style string) *Terminal {
	if style == "" {
		style = DefaultStyle
	}
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Terminal{in: bufio.NewReader(in), out: out, style: style, color: color}
}

// Choose displays the entries of q and repeats the prompt until the answer
// is one of q.Options.
func (t *Terminal) Choose(q conflict.Question) (string, error) {
	t.display(q.Labels, q.Entries)
	fmt.Fprint(t.out, q.Prompt+" ")
	for {
		answer, err := t.readLine()
		if err != nil {
			return "", err
		}
		if slices.Contains(q.Options, answer) {
			return answer, nil
		}
		fmt.Fprint(t.out, "Not a valid input.  Try again: ")
	}
}

// NewKey reads a replacement key for e. Blank answers and keys containing
// whitespace or commas are refused.
func (t *Terminal) NewKey(e *reference.Entry) (string, error) {
	fmt.Fprintf(t.out, "Enter new key for entry '%s': ", e.Key)
	for {
		key, err := t.readLine()
		if err != nil {
			return "", err
		}
		if key != "" && !strings.ContainsAny(key, " \t,{}") {
			return key, nil
		}
		fmt.Fprint(t.out, "Not a valid key.  Try again: ")
	}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input closed: %w", conflict.ErrAborted)
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) display(labels []string, entries []*reference.Entry) {
	fmt.Fprintln(t.out, separator)
	for i, e := range entries {
		if i < len(labels) {
			fmt.Fprintln(t.out, labels[i])
		}
		fmt.Fprintf(t.out, "%s\n\n", t.Highlight(e.Content))
	}
}

// Highlight renders BibTeX text with ANSI colors, or returns it unchanged
// when color is off or the style is unknown.
func (t *Terminal) Highlight(text string) string {
	if !t.color {
		return text
	}
	var b strings.Builder
	if err := quick.Highlight(&b, text, "bibtex", "terminal256", t.style); err != nil {
		return text
	}
	return b.String()
}
