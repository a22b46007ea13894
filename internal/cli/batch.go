package cli

import (
	"fmt"

	"github.com/puzzle-labs/puzzle/internal/batch"
	"github.com/puzzle-labs/puzzle/internal/vars"
	"github.com/spf13/cobra"
)

var (
	batchMessage     string
	batchMsg         string
	batchMessageFile string
	batchRead        []string
	batchVars        []string
	batchDryRun      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <pattern>",
	Short: "Run the agent once per group of matching files",
	Long: `Expand a wildcard pattern, let you pick files from the matches and run
the agent once per group with the picked files as write targets.

A path segment ending in :G groups the matches by the directory it
matched, e.g. "src/modules/*:G/**/*.ts" runs once per module. Without the
marker every file is its own group. "$" can stand in for "*" to avoid
shell expansion.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchMessage, "message", "", "Instruction sent with every group")
	f.StringVar(&batchMsg, "msg", "", "Alias for --message")
	f.StringVar(&batchMessageFile, "message-file", "", "Read the instruction from a file")
	f.StringArrayVar(&batchRead, "read", nil, "Extra read-only files or patterns (can be specified multiple times)")
	f.StringArrayVarP(&batchVars, "var", "V", nil, "Set a variable as KEY=VALUE, e.g. MSG=...")
	f.BoolVar(&batchDryRun, "dry-run", false, "Print each agent command without running it")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	overrides, err := parseAssignments(batchVars)
	if err != nil {
		return err
	}
	table := vars.NewTable()
	for _, a := range overrides {
		table.Set(a.Name, a.Value)
	}

	req := batch.Request{
		Pattern:     args[0],
		Message:     firstNonEmpty(batchMessage, batchMsg),
		MessageFile: batchMessageFile,
		ReadFiles:   batchRead,
	}
	req.FromVars(table)
	if _, err := req.Instruction(); err != nil {
		return err
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	if req.Env, err = ws.agentEnv(); err != nil {
		return err
	}

	p := &batch.Processor{
		Expander:   ws.expander,
		Prompter:   ws.prompter,
		Runtime:    ws.agentRuntime(batchDryRun, cmd.OutOrStdout()),
		RepoPath:   ws.settings.RepoPath,
		WorkingDir: ws.workDir,
		Out:        cmd.OutOrStdout(),
		Logger:     ws.logger,
	}
	summary, err := p.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	if len(summary.Processed) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nProcessed %d of %d groups.\n", len(summary.Processed), len(summary.Matched))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
