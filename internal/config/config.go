// Package config locates the bm home directory and reads the user settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	HomeDir   = ".bm"
	StoreFile = "bm.jsonl"
	BibFile   = "bm.bib"
	CacheDir  = "cache"
	DBFile    = "bm.db"
	PDFDir    = "pdf"
)

// StorePath returns the path to bm.jsonl under home.
func StorePath(home string) string {
	return filepath.Join(home, StoreFile)
}

// BibPath returns the path to the exported bm.bib under home.
func BibPath(home string) string {
	return filepath.Join(home, BibFile)
}

// CachePath returns the path to the cache directory under home.
func CachePath(home string) string {
	return filepath.Join(home, CacheDir)
}

// DBPath returns the path to the query index under home.
func DBPath(home string) string {
	return filepath.Join(home, CacheDir, DBFile)
}

// PDFPath returns the directory attached PDF files are kept in.
func PDFPath(home string) string {
	return filepath.Join(home, PDFDir)
}

// IsInitialized checks if home holds a store file.
func IsInitialized(home string) bool {
	info, err := os.Stat(StorePath(home))
	return err == nil && !info.IsDir()
}

// Init creates the home layout: the directory itself, its pdf and cache
// subdirectories, and an empty store. An existing store is left alone.
func Init(home string) error {
	for _, dir := range []string{home, PDFPath(home), CachePath(home)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if IsInitialized(home) {
		return nil
	}
	if err := os.WriteFile(StorePath(home), nil, 0644); err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
