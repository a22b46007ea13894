package cli

import (
	"encoding/json"
	"fmt"

	"github.com/puzzle-labs/puzzle/internal/history"
	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored variable history",
	Long:  `Print the variable records saved after each completed piece, most recent first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		defer ws.Close()

		store := history.NewStore(ws.settings.PuzzlePath(), ws.settings.History.Size)
		records, err := store.Load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if historyJSON {
			if records == nil {
				records = []history.Record{}
			}
			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling history: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No history records yet.")
			return nil
		}
		for i, r := range records {
			fmt.Fprintf(out, "Record %d: %s\n", i+1, r.Label())
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(historyCmd)
}
