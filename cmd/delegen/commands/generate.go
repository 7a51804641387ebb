package commands

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/delegate"
)

var (
	generateOutput string
	generateCheck  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate SPEC",
	Short: "Generate forwarding implementations from a request file",
	Long: `Generate reads a delegation request, resolves every listed interface from its
source and emits one forwarding implementation per interface.

Without -o the generated text is written to standard output. With -o the file
is only rewritten when its content changes. --check verifies that an existing
output was generated from the current inputs and fails otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		gen := p.generator()
		specPath := args[0]

		if generateCheck {
			if generateOutput == "" {
				return errors.New("--check requires -o")
			}
			if err := gen.Check(cmd.Context(), specPath, generateOutput); err != nil {
				return err
			}
			printOK(os.Stderr, generateOutput+" is up to date")
			return nil
		}

		if generateOutput != "" {
			_, err := gen.GenerateFile(cmd.Context(), specPath, generateOutput)
			return err
		}

		request, err := os.ReadFile(specPath)
		if err != nil {
			return delerr.NewIOError(delerr.Pos{}, specPath, errors.Wrap(err, "read request"))
		}
		out, err := gen.Generate(cmd.Context(), string(request))
		if err != nil {
			var derr *delerr.Error
			if errors.As(err, &derr) && derr.Type() != delerr.TypeIO {
				return derr.InFile(specPath)
			}
			return err
		}
		_, err = cmd.OutOrStdout().Write([]byte(delegate.Header(out.Fingerprint) + "\n" + out.Text))
		return err
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file (default: standard output)")
	generateCmd.Flags().BoolVar(&generateCheck, "check", false, "Fail if the output is stale instead of writing it")
}
