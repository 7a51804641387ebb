package commands

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/delegate/resolver"
	"martianoff/delegen/internal/syntax"
)

// inspectReport is the YAML shape printed by `delegen inspect`.
type inspectReport struct {
	Aliases    map[string]string `yaml:"aliases"`
	Interfaces []inspectedIface  `yaml:"interfaces"`
}

type inspectedIface struct {
	Name      string   `yaml:"name"`
	Qualified string   `yaml:"qualified"`
	Params    []string `yaml:"params,omitempty"`
	Methods   []string `yaml:"methods,omitempty"`
	Other     []string `yaml:"other,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect SOURCE",
	Short: "Show the aliases and interfaces resolved from a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		src, err := os.ReadFile(args[0])
		if err != nil {
			return delerr.NewIOError(delerr.Pos{}, args[0], errors.Wrap(err, "read source"))
		}
		res, err := resolver.ResolveSource(string(src), p.cfg.ResolverOptions())
		if err != nil {
			var derr *delerr.Error
			if errors.As(err, &derr) {
				return derr.InFile(args[0])
			}
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(buildReport(res))
	},
}

func buildReport(res *resolver.Result) *inspectReport {
	report := &inspectReport{Aliases: res.Symbols.Map()}
	for _, iface := range res.Sorted() {
		entry := inspectedIface{Name: iface.Name, Qualified: iface.QualifiedName()}
		for _, param := range iface.Params() {
			text := syntax.FormatParams([]*syntax.GenericParam{param}, true)
			entry.Params = append(entry.Params, strings.TrimSuffix(strings.TrimPrefix(text, "<"), ">"))
		}
		for _, member := range iface.Trait.Members {
			switch m := member.(type) {
			case *syntax.Method:
				entry.Methods = append(entry.Methods, syntax.FormatSignature(m.Sig))
			case *syntax.AssocType:
				entry.Other = append(entry.Other, "type "+m.Name.Name)
			case *syntax.AssocConst:
				entry.Other = append(entry.Other, "const "+m.Name.Name)
			}
		}
		report.Interfaces = append(report.Interfaces, entry)
	}
	return report
}
