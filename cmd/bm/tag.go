package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/reference"
	"github.com/pcubillos/bibmanager-sub000/internal/storage"
)

var (
	tagAdd    []string
	tagRemove []string
	tagFreeze string
)

func init() {
	tagCmd.Flags().StringSliceVar(&tagAdd, "add", nil, "Tags to add (comma-separated)")
	tagCmd.Flags().StringSliceVar(&tagRemove, "remove", nil, "Tags to remove (comma-separated)")
	tagCmd.Flags().StringVar(&tagFreeze, "freeze", "", "Set (true) or clear (false) the freeze flag")
	rootCmd.AddCommand(tagCmd)
}

var tagCmd = &cobra.Command{
	Use:   "tag <key>...",
	Short: "Add or remove tags of entries",
	Long: `Add or remove tags of entries, or freeze them so that ads-update
leaves them alone.

Examples:
  bm tag Hunter2007ieeeMatplotlib --add python,plotting
  bm tag SingEtal2016natHotJupiterTransmission --remove draft
  bm tag Payne1925phdStellarAtmospheres --freeze true`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTag,
}

// TagResponse is the response for the tag command.
type TagResponse struct {
	Entries []EntryView `json:"entries"`
	Missing []string    `json:"missing,omitempty"`
}

func runTag(cmd *cobra.Command, args []string) error {
	if len(tagAdd) == 0 && len(tagRemove) == 0 && tagFreeze == "" {
		exitWithError(ExitError, "nothing to do: give --add, --remove or --freeze")
	}
	var freeze *bool
	switch strings.ToLower(tagFreeze) {
	case "":
	case "true", "yes":
		freeze = new(bool)
		*freeze = true
	case "false", "no":
		freeze = new(bool)
	default:
		exitWithError(ExitError, "invalid --freeze value %q (want true or false)", tagFreeze)
	}

	s := sessionFrom(cmd)
	entries, _ := s.mustLoad()
	changed, missing := applyTags(entries, args, tagAdd, tagRemove, freeze)
	if len(changed) > 0 {
		s.mustSave(entries)
	}

	if humanOutput {
		for _, key := range missing {
			fmt.Printf("Warning: no entry with key '%s'\n", key)
		}
		for _, e := range changed {
			fmt.Printf("%s: %s\n", e.Key, strings.Join(e.Tags, " "))
		}
	} else {
		outputJSON(TagResponse{Entries: entryViews(changed, false), Missing: missing})
	}
	return nil
}

// applyTags updates the entries named by keys in place. It returns the
// entries found and the keys that matched none.
func applyTags(entries []*reference.Entry, keys, add, remove []string, freeze *bool) (changed []*reference.Entry, missing []string) {
	for _, key := range keys {
		i, ok := storage.FindByKey(entries, key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		e := entries[i]
		e.AddTags(add...)
		e.RemoveTags(remove...)
		if freeze != nil {
			e.Freeze = *freeze
		}
		changed = append(changed, e)
	}
	return changed, missing
}
