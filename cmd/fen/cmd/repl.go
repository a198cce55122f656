package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/fenlang/fen/internal/config"
	"github.com/fenlang/fen/pkg/fen"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive Fen session",
	Long: `Read a line, compile it against everything entered so far, run it,
and print the result — a read-eval-print loop with no breakpoints or
stepping.`,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		startRepl(os.Stdout, cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// session accumulates every statement entered so far. The VM itself has no
// notion of a suspended, resumable call frame, so "persistent" here
// means each line recompiles and reruns the whole accumulated source rather
// than resuming a live VM — the visible effect to the user is the same: a
// binding made on one line is visible on the next.
type session struct {
	// topLevel holds whole items entered so far that must sit outside any
	// function body: imports, func decls, class decls.
	topLevel []string
	// decls holds ordinary statements (let/const/expr/assignment) that
	// belong inside main's body.
	decls []string
}

// isTopLevelItem reports whether input is a parsetree.Item rather than a
// parsetree.Statement (internal/parser/stmt.go's parseStatement has no case
// for import/func/class — those only parse at parseItem).
func isTopLevelItem(input string) bool {
	for _, kw := range []string{"import ", "func ", "class ", "extern "} {
		if strings.HasPrefix(input, kw) {
			return true
		}
	}
	return false
}

// render builds the synthetic program this session currently represents:
// every accumulated top-level item, then a single main wrapping every
// accumulated body statement plus the new one.
func (s *session) render(body string) string {
	var sb strings.Builder
	sb.WriteString("import \"io\";\n")
	for _, d := range s.topLevel {
		sb.WriteString(d)
		sb.WriteString("\n")
	}
	sb.WriteString("func main() -> unit {\n")
	for _, d := range s.decls {
		sb.WriteString(d)
		sb.WriteString("\n")
	}
	sb.WriteString(body)
	sb.WriteString("\n}\n")
	return sb.String()
}

func startRepl(out io.Writer, cfg *config.Config) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint("fen"), Version)
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))

	s := &session{}
	engine := fen.New(fen.WithConfig(cfg))

	for {
		input, err := line.Prompt("fen> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			fmt.Fprintln(out, green("goodbye"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case ":quit", ":q", ":exit":
			fmt.Fprintln(out, green("goodbye"))
			return
		case ":reset":
			s = &session{}
			fmt.Fprintln(out, dim("session cleared"))
			continue
		case ":help":
			fmt.Fprintln(out, dim(":quit, :reset, :help — everything else is Fen source"))
			continue
		}

		evalREPLLine(engine, s, input)
	}
}

func evalREPLLine(engine *fen.Engine, s *session, input string) {
	if isTopLevelItem(input) {
		trial := &session{topLevel: append(append([]string{}, s.topLevel...), input), decls: s.decls}
		if _, _, err := engine.Run("<repl>", trial.render("")); err != nil {
			reportError(err)
			return
		}
		s.topLevel = trial.topLevel
		return
	}

	isStatement := strings.HasSuffix(input, ";") || strings.HasSuffix(input, "}")

	body := input
	if !isStatement {
		body = fmt.Sprintf("println((%s) as string);", input)
	}

	src := s.render(body)
	_, _, err := engine.Run("<repl>", src)
	if err != nil {
		reportError(err)
		return
	}

	if isStatement {
		s.decls = append(s.decls, input)
	}
}
