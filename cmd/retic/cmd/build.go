package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/llir/llvm/ir"
	"github.com/spf13/cobra"

	"github.com/reticulated/retic/internal/codegen"
	"github.com/reticulated/retic/internal/errors"
	"github.com/reticulated/retic/internal/lexer"
	"github.com/reticulated/retic/internal/parser"
	"github.com/reticulated/retic/pkg/retic"
)

var (
	buildOutDir  string
	buildLLC     string
	buildClang   string
	buildEmitIR  bool
	buildVerbose bool
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Compile a retic file to a native executable",
	Long: `Compile a retic program to LLVM IR and drive the external native
tools to produce an executable.

The build writes three artifacts into the output directory:
  output.ll  textual LLVM IR
  output.o   object file (produced by llc)
  output     executable (produced by clang)

Examples:
  # Build a script
  retic build script.ret

  # Build into a different directory
  retic build script.ret --out-dir ./target

  # Stop after writing the IR
  retic build script.ret --emit-ir-only`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildOutDir, "out-dir", "./out", "directory for build artifacts")
	buildCmd.Flags().StringVar(&buildLLC, "llc", "llc", "llc binary to invoke")
	buildCmd.Flags().StringVar(&buildClang, "clang", "clang", "clang binary to invoke")
	buildCmd.Flags().BoolVar(&buildEmitIR, "emit-ir-only", false, "stop after writing output.ll")
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "verbose output")
}

// compileSource runs the full front end over input, printing formatted
// diagnostics for lexer errors before failing.
func compileSource(input, filename string) (*ir.Module, error) {
	l := lexer.New(input)
	p := parser.New(l)

	program, err := p.ParseProgram()

	if lexErrs := l.Errors(); len(lexErrs) > 0 {
		compilerErrors := make([]*errors.CompilerError, 0, len(lexErrs))
		for _, lerr := range lexErrs {
			compilerErrors = append(compilerErrors,
				errors.NewCompilerError(lerr.Pos, lerr.Message, input, filename))
		}
		fmt.Fprint(os.Stderr, errors.FormatErrors(compilerErrors, true))
		fmt.Fprintln(os.Stderr)
		return nil, fmt.Errorf("lexing failed with %d error(s)", len(lexErrs))
	}
	if err != nil {
		return nil, err
	}

	gen := codegen.New()
	module, err := gen.Compile(program)
	if err != nil {
		return nil, fmt.Errorf("code generation failed: %w", err)
	}
	return module, nil
}

func runBuild(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if buildVerbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}

	module, err := compileSource(string(content), filename)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(buildOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", buildOutDir, err)
	}

	irPath := filepath.Join(buildOutDir, "output.ll")
	objPath := filepath.Join(buildOutDir, "output.o")
	exePath := filepath.Join(buildOutDir, "output")

	if err := os.WriteFile(irPath, []byte(retic.Render(module)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", irPath, err)
	}
	if buildEmitIR {
		return nil
	}

	if buildVerbose {
		fmt.Fprintf(os.Stderr, "Assembling %s...\n", objPath)
	}
	llc := exec.Command(buildLLC, "-filetype=obj", "-o", objPath, irPath)
	llc.Stderr = os.Stderr
	if err := llc.Run(); err != nil {
		return fmt.Errorf("llc failed: %w", err)
	}

	if buildVerbose {
		fmt.Fprintf(os.Stderr, "Linking %s...\n", exePath)
	}
	clang := exec.Command(buildClang, objPath, "-o", exePath)
	clang.Stderr = os.Stderr
	if err := clang.Run(); err != nil {
		return fmt.Errorf("clang failed: %w", err)
	}

	return nil
}
