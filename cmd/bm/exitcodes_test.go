package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pcubillos/bibmanager-sub000/internal/ads"
	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/search"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"malformed bibtex", fmt.Errorf("reading: %w", &bibtex.MalformedEntryError{Line: 4, Reason: "Mismatched braces"}), ExitDataError},
		{"store markers", conflict.ParseError{Line: 2, Message: "nested conflict markers not allowed"}, ExitDataError},
		{"bad query", fmt.Errorf("parsing: %w", search.ErrInvalidYear), ExitDataError},
		{"ads token", fmt.Errorf("%w: no token configured", ads.ErrUnauthorized), ExitConfigError},
		{"ads forbidden", &ads.APIError{StatusCode: 403, Message: "forbidden"}, ExitConfigError},
		{"config key", fmt.Errorf("'colour' is %w", config.ErrUnknownKey), ExitConfigError},
		{"aborted", conflict.ErrAborted, ExitError},
		{"other", errors.New("disk full"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
