package commands

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/delegate/dispatch"
)

var (
	expandTable string
	expandAttr  string
)

var expandCmd = &cobra.Command{
	Use:   "expand --table TABLE --attr ARGS [ITEM|-]",
	Short: "Expand one use site against an interface table",
	Long: `Expand builds an interface table from TABLE, then expands a single use site:
ARGS are the attribute arguments and ITEM is the annotated type declaration,
read from standard input when omitted or "-". The item is echoed, followed by
its forwarding implementation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if expandTable == "" || expandAttr == "" {
			return errors.New("--table and --attr are required")
		}
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		c, err := p.cfg.OpenCache()
		if err != nil {
			return err
		}

		tableSpec, err := os.ReadFile(expandTable)
		if err != nil {
			return delerr.NewIOError(delerr.Pos{}, expandTable, errors.Wrap(err, "read table"))
		}
		table, err := dispatch.NewTable(cmd.Context(), string(tableSpec), dispatch.Options{
			Loader:   p.loader,
			Expander: p.expander,
			Resolver: p.cfg.ResolverOptions(),
			Cache:    c,
			Settings: p.settings,
		})
		if err != nil {
			var derr *delerr.Error
			if errors.As(err, &derr) && derr.Type() != delerr.TypeIO {
				return derr.InFile(expandTable)
			}
			return err
		}

		item, err := readItem(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		out, err := table.Expand([]byte(expandAttr), item)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func readItem(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		item, err := io.ReadAll(stdin)
		return item, errors.Wrap(err, "read item from standard input")
	}
	item, err := os.ReadFile(args[0])
	if err != nil {
		return nil, delerr.NewIOError(delerr.Pos{}, args[0], errors.Wrap(err, "read item"))
	}
	return item, nil
}

func init() {
	expandCmd.Flags().StringVar(&expandTable, "table", "", "Interface table file")
	expandCmd.Flags().StringVar(&expandAttr, "attr", "", "Attribute arguments of the use site")
}
