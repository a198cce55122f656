package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/fenlang/fen/pkg/fen"
)

var buildEvalExpr string

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Compile a Fen program without running it",
	Long: `Parse, lower, check, and emit a Fen program, printing a JSON summary
of the resulting bytecode program.`,
	Args: cobra.MaximumNArgs(1),
	RunE: buildScript,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildEvalExpr, "eval", "e", "", "compile inline source instead of reading from a file")
}

func buildScript(_ *cobra.Command, args []string) error {
	src, filename, err := readSource(buildEvalExpr, args)
	if err != nil {
		return err
	}

	engine := fen.New()
	compiled, err := engine.Compile(filename, src)
	if err != nil {
		reportError(err)
		return fmt.Errorf("build failed")
	}

	summary, err := summarizeProgram(compiled)
	if err != nil {
		return fmt.Errorf("failed to render build summary: %w", err)
	}

	fmt.Println(string(pretty.Color(pretty.Pretty([]byte(summary)), nil)))
	return nil
}

// summarizeProgram builds a JSON description of compiled's bytecode program
// by setting individual fields and array elements by path (sjson), rather
// than marshaling the codegen types directly — the Program's Instruction
// interface values aren't themselves JSON-serializable.
func summarizeProgram(compiled *fen.Compiled) (string, error) {
	p := compiled.Program
	doc := "{}"
	var err error

	set := func(path string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, path, value)
	}

	set("entry_point", p.EntryPoint)
	set("constants.strings", len(p.Global.Strings))
	set("constants.functions", len(p.Global.Functions))

	for i, l := range p.Labels {
		set(fmt.Sprintf("labels.%d.name", i), l.Name)
		set(fmt.Sprintf("labels.%d.position", i), l.Position)
		set(fmt.Sprintf("labels.%d.instruction_count", i), len(l.Body))
	}

	for i, lib := range p.Libraries {
		set(fmt.Sprintf("libraries.%d.name", i), lib.Name)
		set(fmt.Sprintf("libraries.%d.is_std", i), lib.IsStd)
	}

	for i, c := range p.Classes {
		set(fmt.Sprintf("classes.%d.name", i), c.Name)
		set(fmt.Sprintf("classes.%d.fields", i), c.Fields)
		set(fmt.Sprintf("classes.%d.has_constructor", i), c.HasConstructor)
		set(fmt.Sprintf("classes.%d.constructor_arity", i), c.ConstructorArity)
		set(fmt.Sprintf("classes.%d.has_destructor", i), c.HasDestructor)
	}

	if err != nil {
		return "", err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%d label(s), %d class(es)\n",
			gjson.Get(doc, "labels.#").Int(), gjson.Get(doc, "classes.#").Int())
	}

	return doc, nil
}
