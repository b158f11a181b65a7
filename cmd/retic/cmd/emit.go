package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reticulated/retic/pkg/retic"
)

var emitOutput string

var emitCmd = &cobra.Command{
	Use:   "emit [file]",
	Short: "Compile a retic file and print the LLVM IR",
	Long: `Compile a retic program to LLVM IR and write the textual module to
stdout (or a file with -o), without invoking the native toolchain.

Examples:
  # Print the IR of a script
  retic emit script.ret

  # Write the IR to a file
  retic emit script.ret -o script.ll`,
	Args: cobra.ExactArgs(1),
	RunE: runEmit,
}

func init() {
	rootCmd.AddCommand(emitCmd)

	emitCmd.Flags().StringVarP(&emitOutput, "output", "o", "", "output file (default: stdout)")
}

func runEmit(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	module, err := compileSource(string(content), filename)
	if err != nil {
		return err
	}

	text := retic.Render(module)
	if emitOutput == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(emitOutput, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", emitOutput, err)
	}
	return nil
}
