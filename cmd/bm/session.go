package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/clipboard"
	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/conflict"
	"github.com/pcubillos/bibmanager-sub000/internal/export"
	"github.com/pcubillos/bibmanager-sub000/internal/logging"
	"github.com/pcubillos/bibmanager-sub000/internal/prompt"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
	"github.com/pcubillos/bibmanager-sub000/internal/storage"
)

// session carries what every command needs: the settings, the resolved
// home directory and the logger.
type session struct {
	cfg  *config.Config
	home string
	log  *slog.Logger
}

type sessionKey struct{}

// openTTY opens the controlling terminal.
var openTTY = func() (*os.File, error) { return os.Open("/dev/tty") }

func newSession(cfgPath, level string) (*session, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:  cfg,
		home: cfg.HomeDir(),
		log:  logging.New(os.Stderr, lvl),
	}, nil
}

func withSession(ctx context.Context, s *session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

// sessionFrom returns the session setup attached to cmd.
func sessionFrom(cmd *cobra.Command) *session {
	if s, ok := cmd.Context().Value(sessionKey{}).(*session); ok {
		return s
	}
	exitWithError(ExitError, "internal error: command ran without a session")
	return nil
}

// mustBeInitialized exits with a config error when the home has no store.
func (s *session) mustBeInitialized() {
	if !config.IsInitialized(s.home) {
		exitWithError(ExitConfigError, "no bm database at %s\n\nRun 'bm init' to create one.", s.home)
	}
}

// mustLoad reads the store, exits on error.
func (s *session) mustLoad() ([]*reference.Entry, bibtex.Warnings) {
	s.mustBeInitialized()
	var warn bibtex.Warnings
	entries, err := storage.ReadAll(config.StorePath(s.home), &warn)
	if err != nil {
		exitWithError(ExitDataError, "reading database: %v", err)
	}
	s.log.Debug("loaded database", "entries", len(entries), "home", s.home)
	return entries, warn
}

// save writes the store, refreshes bm.bib and reindexes. Failing to
// reindex only logs, since the index is rebuilt on demand.
func (s *session) save(entries []*reference.Entry) error {
	storePath := config.StorePath(s.home)
	if err := storage.WriteAll(storePath, entries); err != nil {
		return fmt.Errorf("writing database: %w", err)
	}
	if _, err := export.WriteFile(config.BibPath(s.home), entries, true, time.Now()); err != nil {
		return fmt.Errorf("exporting %s: %w", config.BibFile, err)
	}
	s.log.Info("saved database", "entries", len(entries))

	if err := s.reindex(storePath, entries); err != nil {
		s.log.Warn("index not refreshed", "error", err)
	}
	return nil
}

func (s *session) reindex(storePath string, entries []*reference.Entry) error {
	hash, err := storage.HashFile(storePath)
	if err != nil {
		return err
	}
	db, err := storage.OpenDB(config.DBPath(s.home))
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Rebuild(entries, hash)
}

// mustSave saves entries, exits on error.
func (s *session) mustSave(entries []*reference.Entry) {
	if err := s.save(entries); err != nil {
		exitWithError(ExitError, "%v", err)
	}
}

// mustOpenDatabase opens the query index, rebuilding it when the store
// changed since the last build. The caller must Close the returned DB.
func (s *session) mustOpenDatabase() *storage.DB {
	s.mustBeInitialized()
	db, err := storage.OpenDB(config.DBPath(s.home))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	count, rebuilt, err := db.RebuildFromJSONL(config.StorePath(s.home), false)
	if err != nil {
		db.Close()
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}
	if rebuilt {
		s.log.Debug("rebuilt index", "entries", count)
	}
	return db
}

// decider returns who answers merge questions and a func releasing it.
// With stdinBusy the terminal is opened directly, since stdin carries the
// input data; when no terminal is available every question takes its
// default.
func (s *session) decider(stdinBusy bool) (conflict.Decider, func()) {
	if !stdinBusy {
		return prompt.New(os.Stdin, os.Stderr, s.cfg.Style), func() {}
	}
	tty, err := openTTY()
	if err != nil {
		s.log.Debug("no terminal, using default answers", "error", err)
		return conflict.Defaults{}, func() {}
	}
	return prompt.New(tty, os.Stderr, s.cfg.Style), func() { tty.Close() }
}

// copyKeys puts keys on the clipboard. A missing clipboard only logs, the
// keys are in the output anyway.
func copyKeys(s *session, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := clipboard.Copy(clipboard.CiteKeys(keys)); err != nil {
		s.log.Warn("keys not copied", "error", err)
		return
	}
	s.log.Info("copied keys to clipboard", "count", len(keys))
}
