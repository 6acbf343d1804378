package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/openplc-go/stvm/internal/bytecode"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [container.ipb]",
	Short: "Disassemble a compiled container",
	Long:  `Read a compiled container file and print the disassembled bytecode for every function it contains.`,
	Args:  cobra.ExactArgs(1),
	RunE:  disasmContainer,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func disasmContainer(_ *cobra.Command, args []string) error {
	filename := args[0]

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open container %s: %w", filename, err)
	}
	defer f.Close()

	container, err := bytecode.ReadContainer(f)
	if err != nil {
		return fmt.Errorf("failed to read container %s: %w", filename, err)
	}

	fmt.Printf("container %s: %d function(s), %d variable(s)\n",
		filename, container.Header.NumFunctions, container.Header.NumVariables)

	return disassembleContainer(container, os.Stdout)
}

// disassembleContainer writes one disassembly block per function in the
// container's code section, in FuncEntry order. A Container stores every
// function's bytecode as a shared blob indexed by FuncEntry rather than
// as discrete Chunks, so each entry is wrapped in a throwaway Chunk wide
// enough for the disassembler to walk.
func disassembleContainer(container *bytecode.Container, w io.Writer) error {
	for _, fn := range container.Code.Functions {
		code, err := container.Code.GetFunctionBytecode(fn.FunctionID)
		if err != nil {
			return err
		}
		chunk := &bytecode.Chunk{
			Name:         fmt.Sprintf("function#%d", fn.FunctionID),
			NumVariables: int(fn.NumLocals),
			Code:         code,
		}
		bytecode.NewDisassembler(chunk, &container.ConstantPool, w).Disassemble()
	}
	return nil
}
