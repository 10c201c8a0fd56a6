package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values, stored in
$XDG_CONFIG_HOME/bm/config.yml.

Usage:
  bm config                      # Show all settings
  bm config paper                # Get one value
  bm config paper a4             # Set a value

Keys:
  style        Pygments-style colour scheme for entries shown at prompts
  text_editor  Editor command, or "default" for $EDITOR
  pdf_reader   PDF viewer command, or "default" for the system opener
  paper        Paper size for LaTeX output (letter, a4)
  ads_token    ADS API token (ADS_TOKEN overrides it)
  ads_display  Number of ADS results shown per page
  home         bm home directory (BM_HOME overrides it)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := sessionFrom(cmd).cfg

	switch len(args) {
	case 0:
		values := make(map[string]string, len(config.Keys))
		for _, key := range config.Keys {
			values[key], _ = cfg.Get(key)
		}
		if humanOutput {
			for _, key := range config.Keys {
				fmt.Printf("%-12s %s\n", key+":", values[key])
			}
		} else {
			outputJSON(values)
		}

	case 1:
		value, err := cfg.Get(args[0])
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{args[0]: value})
		}

	case 2:
		key, value := args[0], args[1]
		if err := cfg.Set(key, value); err != nil {
			code := ExitError
			if errors.Is(err, config.ErrUnknownKey) {
				code = ExitConfigError
			}
			exitWithError(code, "%v", err)
		}
		if err := cfg.Save(); err != nil {
			exitWithError(ExitError, "saving config: %v", err)
		}
		if humanOutput {
			fmt.Printf("%s updated to: %s\n", key, value)
		} else {
			outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
		}
	}
	return nil
}
