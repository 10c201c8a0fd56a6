package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/ads"
	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
)

var (
	adsTags       []string
	adsUpdateKeys bool
)

func init() {
	adsAddCmd.Flags().StringSliceVar(&adsTags, "tags", nil, "Tags added to the fetched entries (comma-separated)")
	adsUpdateCmd.Flags().BoolVar(&adsUpdateKeys, "update-keys", true, "Rewrite the year and journal of keys of entries that left arXiv")
	rootCmd.AddCommand(adsAddCmd)
	rootCmd.AddCommand(adsUpdateCmd)
}

var adsAddCmd = &cobra.Command{
	Use:   "ads-add <bibcode> <key> [<bibcode> <key>...]",
	Short: "Add entries fetched from ADS",
	Long: `Fetch BibTeX records from the NASA Astrophysics Data System and add
them under the given keys. Records already in the database by DOI or
bibcode are replaced by the fetched version.

Requires an ADS token in ADS_TOKEN (a .env file is read too) or in the
ads_token setting.

Examples:
  bm ads-add 2016Natur.529...59S SingEtal2016natHotJupiterTransmission
  bm ads-add 1925PhDT.........1P Payne1925phdStellarAtmospheres --tags stars`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("expected pairs of bibcode and key, got %d arguments", len(args))
		}
		return nil
	},
	RunE: runADSAdd,
}

var adsUpdateCmd = &cobra.Command{
	Use:   "ads-update",
	Short: "Refresh every ADS entry, replacing preprints by published versions",
	Long: `Re-fetch every entry with an ADS bibcode that is not frozen. Entries
whose arXiv preprint has been published are replaced by the published
record, keeping their PDF and tags; with --update-keys their keys get
the new year and journal code.`,
	Args: cobra.NoArgs,
	RunE: runADSUpdate,
}

// ADSResponse is the response for ads-add and ads-update.
type ADSResponse struct {
	MergeResponse
	KeyChanges   []ads.KeyChange `json:"key_changes,omitempty"`
	ArxivUpdates int             `json:"arxiv_updates"`
	Unmatched    []string        `json:"unmatched,omitempty"`
	Unexpected   []string        `json:"unexpected,omitempty"`
}

func (s *session) adsClient() *ads.Client {
	token := s.cfg.Token()
	if token == "" {
		exitWithError(ExitConfigError, "no ADS token\n\nSet ADS_TOKEN or run 'bm config ads_token <token>'.")
	}
	return ads.NewClient(ads.WithToken(token))
}

func runADSAdd(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	entries, warn := s.mustLoad()

	var req ads.Request
	for i := 0; i < len(args); i += 2 {
		req.Bibcodes = append(req.Bibcodes, args[i])
		req.Keys = append(req.Keys, args[i+1])
	}
	req.Tags = adsTags

	d, done := s.decider(false)
	defer done()
	rec, err := ads.ReconcileIncoming(cmd.Context(), s.adsClient(), entries, req, ads.Options{Decider: d})
	if err != nil {
		exitWithErr(err, "fetching from ADS")
	}
	s.mustSave(rec.Entries)
	printADSResponse(rec, warn)
	return nil
}

func runADSUpdate(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	entries, warn := s.mustLoad()

	d, done := s.decider(false)
	defer done()
	rec, err := ads.UpdateAll(cmd.Context(), s.adsClient(), entries, ads.Options{
		UpdateKeys: adsUpdateKeys,
		Decider:    d,
	})
	if err != nil {
		exitWithErr(err, "updating from ADS")
	}
	s.mustSave(rec.Entries)
	printADSResponse(rec, warn)
	return nil
}

func printADSResponse(rec *ads.Reconciliation, warn bibtex.Warnings) {
	warn = append(warn, rec.Warnings...)
	printWarnings(warn)
	if humanOutput {
		if summary := rec.Summary(); summary != "" {
			fmt.Fprint(os.Stderr, summary)
		}
		fmt.Printf("Added %d, replaced %d entries (%d in database)\n",
			len(rec.Merge.Added), len(rec.Merge.Replaced), len(rec.Entries))
		return
	}
	mr := newMergeResponse(rec.Merge, false, warn)
	mr.Total = len(rec.Entries)
	outputJSON(ADSResponse{
		MergeResponse: mr,
		KeyChanges:    rec.KeyChanges,
		ArxivUpdates:  rec.ArxivUpdates,
		Unmatched:     rec.Unmatched,
		Unexpected:    trimRecords(rec.Unexpected),
	})
}

// trimRecords keeps the first line of each record, which names it.
func trimRecords(records []string) []string {
	var out []string
	for _, r := range records {
		first, _, _ := strings.Cut(r, "\n")
		out = append(out, first)
	}
	return out
}
