package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/raphaelgruber/bankchat/internal/conversation"
	"github.com/raphaelgruber/bankchat/internal/models"
	"github.com/raphaelgruber/bankchat/internal/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	analyzeFile string
	analyzeJSON bool
)

var errNoQuery = errors.New("no query: pass text, --file, or pipe text on stdin")

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze one complaint and print the result",
	Long: `Send a single complaint to the Banking AI Engine and print the analysis.

The complaint is taken from the argument, from a document given with --file,
or from standard input when it is not a terminal.

Examples:
  bankchat analyze "My card was charged twice for the same purchase"
  bankchat analyze --file statement.pdf
  bankchat analyze --json < complaint.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "analyze the text of a .pdf or .txt document")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFile != "" && len(args) > 0 {
		return errors.New("pass either text or --file, not both")
	}

	st := conversation.New(conversation.OrderArrival)
	var ex conversation.Exchange
	if analyzeFile != "" {
		_, ex = conversation.SubmitFile(st, analyzeFile)
	} else {
		query, err := queryText(cmd, args)
		if err != nil {
			return err
		}
		var ok bool
		if _, ex, ok = conversation.SubmitText(st, query); !ok {
			return errNoQuery
		}
	}

	svc := newServices()
	out := svc.chat.Run(cmd.Context(), ex)
	if out.Failed() {
		fmt.Fprintln(cmd.ErrOrStderr(), color.New(color.FgRed).Sprint(out.FailureText()))
		return fmt.Errorf("%s error: %w", out.Kind, out.Err)
	}

	w := cmd.OutOrStdout()
	if analyzeJSON {
		data, err := json.MarshalIndent(out.Result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	if color.NoColor {
		fmt.Fprintln(w, render.Plain(out.Result))
		return nil
	}
	printAnalysis(w, out.Result)
	return nil
}

// queryText returns the argument, or stdin when it is piped.
func queryText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errNoQuery
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func printAnalysis(w io.Writer, r *models.AnalysisResult) {
	if !render.HasContent(r) {
		fmt.Fprintln(w, render.EmptyText)
		return
	}

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fields := render.Fields(r)
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	for _, f := range fields {
		if f.Label == "Ticket" {
			fmt.Fprintf(w, "🎫 %s\n", boldGreen(f.Value))
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", yellow(fmt.Sprintf("%-*s", width, f.Label)), f.Value)
	}

	if s := render.Summary(r); s != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", boldCyan("Summary"), s)
	}
	if steps := render.Steps(r); len(steps) > 0 {
		fmt.Fprintf(w, "\n%s\n", boldCyan("Resolution steps"))
		for i, s := range steps {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
	if s := render.Reply(r); s != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", boldCyan("Agent reply"), strings.TrimSpace(s))
	}
	if t := render.Timing(r); t != "" {
		fmt.Fprintf(w, "\n%s\n", dim("engine time "+t))
	}
}
