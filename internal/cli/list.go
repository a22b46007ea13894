package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/puzzle-labs/puzzle/internal/compose"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available pieces",
	Long:  `List the pieces in the puzzle directory with their lifecycle files and descriptions.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// pieceEntry represents a piece for display.
type pieceEntry struct {
	Name        string `json:"name"`
	Lifecycle   string `json:"lifecycle"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	entries, err := listPieces(ws.composer)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No pieces in %s.\n", filepath.Join(ws.composer.PuzzleDir, compose.PiecesDir))
		return nil
	}
	if listJSON {
		return printPiecesJSON(cmd.OutOrStdout(), entries)
	}
	return printPiecesTable(cmd.OutOrStdout(), entries)
}

// listPieces loads every piece. A piece that fails to load is listed with
// its error instead of failing the listing.
func listPieces(c *compose.Composer) ([]pieceEntry, error) {
	names, err := c.Pieces()
	if err != nil {
		return nil, err
	}
	entries := make([]pieceEntry, 0, len(names))
	for _, name := range names {
		entry := pieceEntry{Name: name}
		m, err := compose.Load(c.PieceDir(name), name, false)
		if err != nil {
			entry.Error = err.Error()
			entries = append(entries, entry)
			continue
		}
		entry.Lifecycle = lifecycleLabel(m)
		entry.Description = m.Description()
		entries = append(entries, entry)
	}
	return entries, nil
}

func lifecycleLabel(m *compose.Module) string {
	switch {
	case m.Manifest != nil && m.Script != "":
		return "yaml+go"
	case m.Script != "":
		return "go"
	case m.Manifest != nil:
		return "yaml"
	}
	return "-"
}

func printPiecesTable(w io.Writer, entries []pieceEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLIFECYCLE\tDESCRIPTION")
	for _, e := range entries {
		desc := e.Description
		if e.Error != "" {
			desc = "error: " + e.Error
		}
		if desc == "" {
			desc = "-"
		}
		lifecycle := e.Lifecycle
		if lifecycle == "" {
			lifecycle = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, lifecycle, desc)
	}
	return tw.Flush()
}

func printPiecesJSON(w io.Writer, entries []pieceEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
