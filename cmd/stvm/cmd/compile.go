package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openplc-go/stvm/internal/bytecode"
	"github.com/openplc-go/stvm/internal/diag"
	"github.com/openplc-go/stvm/internal/semantic"
	"github.com/spf13/cobra"
)

var (
	outputFile   string
	skipAnalysis bool
	disassemble  bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [fixture.json]",
	Short: "Compile a JSON AST fixture to a container file",
	Long: `Compile a JSON-encoded AST fixture (standing in for a parser's output)
to the container bytecode format and write it as a .ipb file.

Examples:
  # Compile a fixture to a container
  stvm compile program.json

  # Compile with a custom output path
  stvm compile program.json -o out.ipb

  # Compile and print the disassembly to stderr
  stvm compile program.json --disassemble`,
	Args: cobra.ExactArgs(1),
	RunE: compileFixture,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <input>.ipb)")
	compileCmd.Flags().BoolVar(&skipAnalysis, "skip-analysis", false, "skip semantic analysis (faster but less safe)")
	compileCmd.Flags().BoolVar(&disassemble, "disassemble", false, "show disassembled bytecode after compilation")
}

func compileFixture(_ *cobra.Command, args []string) error {
	filename := args[0]

	if verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}

	lib, err := loadLibraryFixture(filename)
	if err != nil {
		return err
	}

	if !skipAnalysis {
		resolved, diags := semantic.Analyze(filename, "", lib)
		if diag.HasErrors(diags) {
			fmt.Fprint(os.Stderr, diag.FormatAll(diags, true))
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("semantic analysis failed with %d error(s)", len(diags))
		}
		lib = resolved
	} else if verbose {
		fmt.Fprintf(os.Stderr, "Semantic analysis skipped\n")
	}

	container, err := bytecode.CompileLibrary(lib)
	if err != nil {
		return fmt.Errorf("bytecode compilation failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Compilation successful\n")
		fmt.Fprintf(os.Stderr, "  Functions: %d\n", container.Header.NumFunctions)
		fmt.Fprintf(os.Stderr, "  Variables: %d\n", container.Header.NumVariables)
	}

	if disassemble {
		fmt.Fprintf(os.Stderr, "\n== Disassembled Bytecode (%s) ==\n", filename)
		if err := disassembleContainer(container, os.Stderr); err != nil {
			return err
		}
	}

	outFile := outputFile
	if outFile == "" {
		ext := filepath.Ext(filename)
		if ext != "" {
			outFile = strings.TrimSuffix(filename, ext) + ".ipb"
		} else {
			outFile = filename + ".ipb"
		}
	}

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outFile, err)
	}
	defer f.Close()

	if err := container.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write container %s: %w", outFile, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Container written to %s\n", outFile)
	} else {
		fmt.Printf("Compiled %s -> %s\n", filename, outFile)
	}

	return nil
}
