package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reticulated/retic/internal/errors"
	"github.com/reticulated/retic/internal/lexer"
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a retic file and dump the token stream",
	Long: `Tokenize a retic program and print one token per line, including
each token's source span. Useful when debugging the scanner.`,
	Args: cobra.ExactArgs(1),
	RunE: runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)
}

func runLex(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	input := string(content)

	l := lexer.New(input)
	for _, tok := range l.Tokenize() {
		fmt.Println(tok)
	}

	if lexErrs := l.Errors(); len(lexErrs) > 0 {
		compilerErrors := make([]*errors.CompilerError, 0, len(lexErrs))
		for _, lerr := range lexErrs {
			compilerErrors = append(compilerErrors,
				errors.NewCompilerError(lerr.Pos, lerr.Message, input, filename))
		}
		fmt.Fprint(os.Stderr, errors.FormatErrors(compilerErrors, true))
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("lexing failed with %d error(s)", len(lexErrs))
	}
	return nil
}
