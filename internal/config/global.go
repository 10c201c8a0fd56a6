package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "bm"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Keys lists the settable parameters, in display order.
var Keys = []string{"style", "text_editor", "pdf_reader", "paper", "ads_token", "ads_display", "home"}

// Papers lists the accepted paper sizes.
var Papers = []string{"letter", "a4"}

// ErrUnknownKey is returned by Get and Set for a key not in Keys.
var ErrUnknownKey = errors.New("not a valid bm config parameter")

// Config holds the user settings stored in config.yml.
type Config struct {
	Style      string `yaml:"style"`       // chroma style for highlighted entries
	TextEditor string `yaml:"text_editor"` // "default" uses $EDITOR
	PDFReader  string `yaml:"pdf_reader"`  // "default" uses the system opener
	Paper      string `yaml:"paper"`
	ADSToken   string `yaml:"ads_token,omitempty"`
	ADSDisplay int    `yaml:"ads_display"`
	Home       string `yaml:"home,omitempty"` // Empty means ~/.bm

	path string
}

// Default returns the settings used when config.yml is absent.
func Default() *Config {
	return &Config{
		Style:      "autumn",
		TextEditor: "default",
		PDFReader:  "default",
		Paper:      "letter",
		ADSDisplay: 20,
	}
}

// Path returns the path to config.yml.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bm/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the settings at path, or at Path() when path is empty.
// A missing file gives the defaults; keys absent from the file keep theirs.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the settings back to the file they were loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = Path()
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// HomeDir returns the bm home: BM_HOME if set, else the home setting,
// else ~/.bm.
func (c *Config) HomeDir() string {
	if env := os.Getenv("BM_HOME"); env != "" {
		return ExpandPath(env)
	}
	if c.Home != "" {
		return ExpandPath(c.Home)
	}
	return ExpandPath(filepath.Join("~", HomeDir))
}

// Token returns the ADS token, ADS_TOKEN taking precedence over the file.
func (c *Config) Token() string {
	if env := os.Getenv("ADS_TOKEN"); env != "" {
		return env
	}
	return c.ADSToken
}

// Get returns the value of key as text.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "style":
		return c.Style, nil
	case "text_editor":
		return c.TextEditor, nil
	case "pdf_reader":
		return c.PDFReader, nil
	case "paper":
		return c.Paper, nil
	case "ads_token":
		return c.ADSToken, nil
	case "ads_display":
		return strconv.Itoa(c.ADSDisplay), nil
	case "home":
		return c.HomeDir(), nil
	}
	return "", unknownKey(key)
}

// Set validates value and assigns it to key. It does not save.
func (c *Config) Set(key, value string) error {
	switch key {
	case "style":
		if !slices.Contains(styles.Names(), value) {
			return fmt.Errorf("'%s' is not a valid style option, available options are:\n%s",
				value, strings.Join(styles.Names(), ", "))
		}
		c.Style = value
	case "text_editor", "pdf_reader":
		if value != "default" {
			if _, err := exec.LookPath(value); err != nil {
				return fmt.Errorf("'%s' is not a valid command for %s", value, key)
			}
		}
		if key == "text_editor" {
			c.TextEditor = value
		} else {
			c.PDFReader = value
		}
	case "paper":
		if !slices.Contains(Papers, value) {
			return fmt.Errorf("'%s' is not a valid paper size (valid: %v)", value, Papers)
		}
		c.Paper = value
	case "ads_token":
		c.ADSToken = value
	case "ads_display":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("the ads_display value must be a positive integer")
		}
		c.ADSDisplay = n
	case "home":
		abs, err := filepath.Abs(ExpandPath(value))
		if err != nil {
			return fmt.Errorf("resolving home: %w", err)
		}
		if info, err := os.Stat(filepath.Dir(abs)); err != nil || !info.IsDir() {
			return fmt.Errorf("the home value must have an existing parent folder")
		}
		if filepath.Ext(abs) != "" {
			return fmt.Errorf("the home value cannot have a file extension")
		}
		c.Home = abs
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("'%s' is %w, the available parameters are: %s", key, ErrUnknownKey, strings.Join(Keys, ", "))
}
