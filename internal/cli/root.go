package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/mediaplan-go/internal/ingest"
	"github.com/AngelCh415/mediaplan-go/internal/models"
)

// Execute runs the offline CLI and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		var ve *ingest.ValidationError
		if errors.As(err, &ve) {
			_ = printJSON(stderr, map[string]any{"error": ve.Reason, "kind": ve.Kind, "fields": ve.Fields})
			return 2
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mediaplan",
		Short:         "Media plan analytics",
		Long:          "Computes the media plan dashboard from a JSON or XLSX file without a server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newSummaryCmd(), newPanelCmd(), newValidateCmd())
	return rootCmd
}

func load(path string) ([]models.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ingest.Parse(b, "", filepath.Base(path))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
