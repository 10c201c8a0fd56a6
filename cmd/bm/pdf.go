package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/config"
	"github.com/pcubillos/bibmanager-sub000/internal/pdf"
	"github.com/pcubillos/bibmanager-sub000/internal/search"
)

var (
	pdfName    string
	pdfMove    bool
	pdfReplace bool
	openPrint  bool
)

func init() {
	pdfCmd.Flags().StringVar(&pdfName, "name", "", "Stored filename (default <key>.pdf)")
	pdfCmd.Flags().BoolVar(&pdfMove, "move", false, "Move the file instead of copying it")
	pdfCmd.Flags().BoolVar(&pdfReplace, "replace", false, "Overwrite an existing file of the same name")
	openCmd.Flags().BoolVar(&openPrint, "path", false, "Print the path instead of opening the file")
	rootCmd.AddCommand(pdfCmd)
	rootCmd.AddCommand(openCmd)
}

var pdfCmd = &cobra.Command{
	Use:   "pdf <key> <file>",
	Short: "Attach a PDF file to an entry",
	Long: `Attach a PDF file to an entry. The file is copied into the pdf/
folder of the bm home. When the PDF text carries a DOI that differs from
the entry's, a warning is printed.`,
	Args: cobra.ExactArgs(2),
	RunE: runPDF,
}

var openCmd = &cobra.Command{
	Use:   "open <key>",
	Short: "Open the PDF attached to an entry",
	Long: `Open the PDF attached to an entry with the pdf_reader setting, or
the system opener when it is "default".`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

// PDFResponse is the response for the pdf and open commands.
type PDFResponse struct {
	Status   string          `json:"status"`
	Key      string          `json:"key"`
	Path     string          `json:"path"`
	Warnings bibtex.Warnings `json:"warnings,omitempty"`
}

func runPDF(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	entries, _ := s.mustLoad()

	e, err := search.Find(entries, args[0], "")
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	var warn bibtex.Warnings
	dest, err := pdf.Attach(e, args[1], config.PDFPath(s.home), pdf.AttachOptions{
		Name:    pdfName,
		Move:    pdfMove,
		Replace: pdfReplace,
	}, &warn)
	if err != nil {
		if errors.Is(err, pdf.ErrExists) {
			exitWithError(ExitError, "%v (use --replace to overwrite)", err)
		}
		exitWithError(ExitError, "attaching PDF: %v", err)
	}
	s.mustSave(entries)

	printWarnings(warn)
	if humanOutput {
		fmt.Printf("Attached %s to %s\n", dest, e.Key)
	} else {
		outputJSON(PDFResponse{Status: "attached", Key: e.Key, Path: dest, Warnings: warn})
	}
	return nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	s := sessionFrom(cmd)
	entries, _ := s.mustLoad()

	e, err := search.Find(entries, args[0], "")
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	opener := pdf.NewOpener(config.PDFPath(s.home), s.cfg.PDFReader)
	path, err := opener.ResolvePath(e.PDF)
	if err != nil {
		exitWithError(ExitError, "%s: %v", e.Key, err)
	}

	if !openPrint {
		if err := opener.Open(path); err != nil {
			exitWithError(ExitError, "opening PDF: %v", err)
		}
	}

	if humanOutput {
		fmt.Println(path)
	} else {
		status := "opened"
		if openPrint {
			status = "found"
		}
		outputJSON(PDFResponse{Status: status, Key: e.Key, Path: path})
	}
	return nil
}
