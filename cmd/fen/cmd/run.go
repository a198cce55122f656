package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenlang/fen/internal/config"
	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/pkg/fen"
)

var evalExpr string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a Fen program",
	Long: `Parse, lower, check, emit, and execute a Fen program, printing its
final result and the elapsed wall-clock time.

Examples:
  fen run script.fen
  fen run -e "func main() -> int64 { return 1 + 1; }"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline source instead of reading from a file")
}

func runScript(_ *cobra.Command, args []string) error {
	src, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", configPath, err)
	}

	engine := fen.New(fen.WithConfig(cfg))

	start := time.Now()
	m, result, err := engine.Run(filename, src)
	elapsed := time.Since(start)

	if err != nil {
		reportError(err)
		return fmt.Errorf("run failed")
	}

	fmt.Println(m.Format(result))
	fmt.Fprintf(os.Stderr, "elapsed: %s\n", elapsed)
	return nil
}

// readSource resolves run/build's shared input convention: -e wins over a
// file argument, and at least one must be present.
func readSource(eval string, args []string) (src, filename string, err error) {
	if eval != "" {
		return eval, "<eval>", nil
	}
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		return string(content), args[0], nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e flag for inline code")
}

// reportError renders a structured diagnostic through internal/diag when
// available, falling back to err's own message for errors the pipeline
// didn't wrap in *diag.Error (e.g. I/O failures).
func reportError(err error) {
	if derr, ok := err.(*diag.Error); ok {
		fmt.Fprintln(os.Stderr, diag.Render(derr, true))
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
