package cli

import (
	"fmt"
	"os"

	"github.com/puzzle-labs/puzzle/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	createGo      bool
	createRefs    []string
	createRefFile string
	createNoRefs  bool
	createNoAgent bool
)

var createPieceCmd = &cobra.Command{
	Use:   "create-piece [name]",
	Short: "Scaffold a new piece",
	Long: `Create pieces/<name> in the puzzle directory with template/ and extra/
folders and a lifecycle file: piece.yaml by default, piece.go with --go.

Reference files can be handed to the agent, which derives template files
with {VARIABLE} placeholders from them. References are files, directories
or globs relative to the repository root, given with --ref, read from
--ref-file (one per line, # comments) or asked for.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreatePiece,
}

func init() {
	f := createPieceCmd.Flags()
	f.BoolVar(&createGo, "go", false, "Generate piece.go instead of piece.yaml")
	f.StringArrayVar(&createRefs, "ref", nil, "Reference file, directory or glob (can be specified multiple times)")
	f.StringVar(&createRefFile, "ref-file", "", "Read references from a file")
	f.BoolVar(&createNoRefs, "no-refs", false, "Skip the reference files step")
	f.BoolVar(&createNoAgent, "no-agent", false, "Never run the agent to derive templates")
	rootCmd.AddCommand(createPieceCmd)
}

func runCreatePiece(cmd *cobra.Command, args []string) error {
	opts := scaffold.Options{Kind: scaffold.KindManifest}
	if len(args) == 1 {
		opts.Name = args[0]
		if err := scaffold.ValidateName(opts.Name); err != nil {
			return fmt.Errorf("%q: %w", opts.Name, err)
		}
	}
	if createGo {
		opts.Kind = scaffold.KindScript
	}
	refs, err := referenceOption(createRefs, createRefFile, createNoRefs)
	if err != nil {
		return err
	}
	opts.References = refs

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	w := &scaffold.Wizard{
		PuzzleDir: ws.settings.PuzzlePath(),
		RepoPath:  ws.settings.RepoPath,
		Prompter:  ws.prompter,
		Expander:  ws.expander,
		Out:       cmd.OutOrStdout(),
		Logger:    ws.logger,
	}
	if !createNoAgent {
		w.Runtime = ws.agentRuntime(false, cmd.OutOrStdout())
		if w.Env, err = ws.agentEnv(); err != nil {
			return err
		}
	}
	_, err = w.Create(cmd.Context(), opts)
	return err
}

// referenceOption returns nil when the wizard should ask for references.
func referenceOption(refs []string, refFile string, none bool) ([]string, error) {
	if none {
		return []string{}, nil
	}
	out := append([]string{}, refs...)
	if refFile != "" {
		data, err := os.ReadFile(refFile)
		if err != nil {
			return nil, fmt.Errorf("reading reference file: %w", err)
		}
		out = append(out, scaffold.ParseReferences(string(data))...)
	}
	if len(out) == 0 && refFile == "" {
		return nil, nil
	}
	return out, nil
}
