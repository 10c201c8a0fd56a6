// Package conflict reconciles bibliography collections: duplicate removal
// within one collection, merging of two collections, and resolution of
// git conflict markers in the store file.
package conflict

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pcubillos/bibmanager-sub000/internal/reference"
)

var (
	// ErrInvalidChoice is returned when a Decider answers with an option
	// that was not offered.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrAborted is returned by a Decider that can no longer answer, for
	// example because its input was closed.
	ErrAborted = errors.New("decision aborted")
)

// Question is one decision point. The empty option is always the default.
type Question struct {
	Prompt  string             // e.g. "[]keep database or take [n]ew:"
	Labels  []string           // One label per entry, e.g. "DATABASE:", "NEW:"
	Entries []*reference.Entry // Entries shown to the user
	Options []string           // Accepted answers
}

// Decider answers the questions the reconciliation algorithms cannot
// settle on their own. Calls are synchronous and have no timeout.
type Decider interface {
	// Choose returns one of q.Options.
	Choose(q Question) (string, error)
	// NewKey returns a replacement citation key for e.
	NewKey(e *reference.Entry) (string, error)
}

// Defaults answers every question with its default option and refuses to
// invent keys. It is used when no user is available to ask.
type Defaults struct{}

func (Defaults) Choose(Question) (string, error) { return "", nil }

func (Defaults) NewKey(e *reference.Entry) (string, error) {
	return "", fmt.Errorf("no new key for '%s': %w", e.Key, ErrAborted)
}

// ScriptedDecider replays canned answers in order and records the
// questions it was asked.
type ScriptedDecider struct {
	Answers []string // Answers to Choose, consumed in order
	Keys    []string // Answers to NewKey, consumed in order
	Asked   []Question
}

func (s *ScriptedDecider) Choose(q Question) (string, error) {
	s.Asked = append(s.Asked, q)
	if len(s.Answers) == 0 {
		return "", fmt.Errorf("no scripted answer for %q: %w", q.Prompt, ErrAborted)
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}

func (s *ScriptedDecider) NewKey(e *reference.Entry) (string, error) {
	if len(s.Keys) == 0 {
		return "", fmt.Errorf("no scripted key for '%s': %w", e.Key, ErrAborted)
	}
	key := s.Keys[0]
	s.Keys = s.Keys[1:]
	return key, nil
}

// ask routes q to d and validates the answer.
func ask(d Decider, q Question) (string, error) {
	if d == nil {
		d = Defaults{}
	}
	answer, err := d.Choose(q)
	if err != nil {
		return "", err
	}
	if !slices.Contains(q.Options, answer) {
		return "", fmt.Errorf("%w %q, expected one of %q", ErrInvalidChoice, answer, q.Options)
	}
	return answer, nil
}

// Ordinal renders n as "1st", "2nd", "3rd", "4th", ...
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
