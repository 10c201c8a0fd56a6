package main

import (
	"errors"

	"github.com/pcubillos/bibmanager-sub000/internal/ads"
	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/search"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (uninitialized home, bad setting, missing token)
	ExitDataError   = 3 // Data error (malformed BibTeX, bad store line, bad query)
)

// exitCodeFor classifies err into one of the exit codes.
func exitCodeFor(err error) int {
	var parseErr conflict.ParseError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, bibtex.ErrMalformedEntry),
		errors.As(err, &parseErr),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrInvalidYear):
		return ExitDataError
	case ads.IsAuthError(err), errors.Is(err, config.ErrUnknownKey):
		return ExitConfigError
	}
	return ExitError
}
