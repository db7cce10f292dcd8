package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the text the chat would send for a document",
	Long: `Extract the text of a PDF or plain-text document and print it.

This is the exact text an upload in the chat view sends to the engine.

Examples:
  bankchat extract statement.pdf
  bankchat extract complaint.txt | wc -w`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	svc := newServices()

	start := time.Now()
	text, err := svc.extractor.ExtractFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	logger.Debug("extracted document", "path", args[0], "chars", len(text), "duration", time.Since(start))
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
