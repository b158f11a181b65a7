package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reticulated/retic/pkg/retic"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a retic file and dump the AST",
	Long: `Parse a retic program and print the statement representations of
the resulting AST. Useful when debugging the parser or checking how
operator precedence groups an expression.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	program, err := retic.Parse(string(content))
	if err != nil {
		return err
	}

	for _, stmt := range program.Statements {
		fmt.Println(stmt.String())
	}
	return nil
}
