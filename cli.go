package dirorg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type cliFlags struct {
	DryRun        bool
	Yes           bool
	Style         string
	Threshold     int
	TimeoutSec    int
	Budget        int
	StdinPlan     bool
	ClipboardPlan bool
	LogFile       string
	Verbose       bool
	NoAnimation   bool
	Completion    string
}

var flags = &cliFlags{}

var rootCmd = &cobra.Command{
	Use:   "dirorg [directory]",
	Short: "Reorganize a directory tree from an AI-proposed move plan.",
	Long: `Scan a directory, ask a suggestion provider for a reorganization plan,
preview the plan, and apply it after confirmation. Every attempted action
is appended to a change log inside the directory.

Example: dirorg --dry-run=false ~/Downloads`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flags.Completion != "" {
			return handleCompletion(cmd)
		}
		return run(cmd, args)
	},
}

func run(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	cfg := LoadConfig()
	cfg.Root = abs
	if err := cfg.ApplyRootConfig(abs); err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	if cfg.PlanSource == "stdin" && !cfg.AutoConfirm && !cfg.DryRun {
		return fmt.Errorf("--stdin-plan leaves no terminal for confirmation, add --yes or --dry-run")
	}

	if err := CheckDirWritable(abs); err != nil {
		return err
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var pv *PreviewResult
	err = withSpinner("Requesting reorganization proposal...", flags.NoAnimation, func() error {
		var previewErr error
		pv, previewErr = app.Preview(ctx)
		return previewErr
	})
	if err != nil {
		return err
	}

	if len(pv.Plan.Actions) == 0 {
		fmt.Println("Nothing to do.")
		return nil
	}

	fmt.Print(pv.Rendered)

	if !cfg.DryRun && !cfg.AutoConfirm {
		if !readConfirmation(os.Stdin, os.Stdout) {
			fmt.Println("Operation cancelled.")
			return app.RecordAborted()
		}
	}

	summary, err := app.Apply(ctx, pv.Plan)
	if summary != nil {
		fmt.Print("\n" + FormatSummary(summary))
	}
	return err
}

func applyFlags(cmd *cobra.Command, cfg *Config) {
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = flags.DryRun
	}
	if cmd.Flags().Changed("threshold") {
		cfg.LargeFolderThreshold = flags.Threshold
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = time.Duration(flags.TimeoutSec) * time.Second
	}
	if cmd.Flags().Changed("budget") {
		cfg.RequestBudget = flags.Budget
	}
	if flags.Style != "" {
		cfg.Style = flags.Style
	}
	if flags.LogFile != "" {
		cfg.LogFile = flags.LogFile
	}
	cfg.AutoConfirm = flags.Yes
	cfg.Verbose = flags.Verbose

	switch {
	case flags.StdinPlan:
		cfg.PlanSource = "stdin"
	case flags.ClipboardPlan:
		cfg.PlanSource = "clipboard"
	}
}

// readConfirmation is the single suspension point between preview and
// execution: nothing mutates until this returns true.
func readConfirmation(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "\nProceed with these changes? (y/n): ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func handleCompletion(cmd *cobra.Command) error {
	switch flags.Completion {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return fmt.Errorf("unsupported shell for completion: %s", flags.Completion)
	}
}

func init() {
	rootCmd.Flags().StringVar(&flags.Completion, "completion", "", "Generate completion script")
	rootCmd.Flags().BoolVarP(&flags.DryRun, "dry-run", "n", true, "Preview and log without touching the filesystem")
	rootCmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Apply without asking for confirmation")
	rootCmd.Flags().StringVarP(&flags.Style, "style", "s", "", "Extra style hint passed to the provider")
	rootCmd.Flags().IntVar(&flags.Threshold, "threshold", DefaultThreshold, "Summarize folders with more files than this")
	rootCmd.Flags().IntVar(&flags.TimeoutSec, "timeout", int(DefaultTimeout/time.Second), "Provider timeout in seconds")
	rootCmd.Flags().IntVar(&flags.Budget, "budget", DefaultBudget, "Tree listing size budget in bytes")
	rootCmd.Flags().BoolVar(&flags.StdinPlan, "stdin-plan", false, "Read the plan JSON from stdin instead of calling the provider")
	rootCmd.Flags().BoolVar(&flags.ClipboardPlan, "clipboard-plan", false, "Read the plan JSON from the clipboard")
	rootCmd.Flags().StringVar(&flags.LogFile, "log-file", "", "Change log path (default: dirorg_changes.log in the directory)")
	rootCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Debug logging")
	rootCmd.Flags().BoolVar(&flags.NoAnimation, "no-animation", false, "Disable spinner")

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

func Execute() error {
	return rootCmd.Execute()
}
