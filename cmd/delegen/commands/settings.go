package commands

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"martianoff/delegen/internal/config"
	"martianoff/delegen/internal/delegate"
	"martianoff/delegen/internal/delegate/expander"
	"martianoff/delegen/internal/delegate/source"
)

// pipeline holds the stages shared by every command.
type pipeline struct {
	cfg      *config.Config
	loader   source.Loader
	expander *expander.Expander
	settings string
}

// loadConfig reads the configuration file and applies command-line overrides.
func loadConfig(cmd *cobra.Command, workDir string) (*config.Config, error) {
	file := flagConfig
	if file == "" {
		file = config.Discover(workDir)
	}
	v, err := config.NewViper(file)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Unmarshal(v)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Prefix.Root = flagRoot
	}
	if flags.Changed("external") {
		cfg.Prefix.Externals = flagExternals
	}
	if flags.Changed("strict") {
		cfg.Resolver.StrictAliases = flagStrict
	}
	if flags.Changed("dir") {
		// Relative to the working directory, not to the configuration file.
		dir, err := filepath.Abs(flagDir)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve --dir %s", flagDir)
		}
		cfg.Source.Dir = dir
	}
	if flags.Changed("rev") {
		cfg.Source.Rev = flagRev
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = flagCache
	}
	return cfg, nil
}

func newPipeline(cmd *cobra.Command) (*pipeline, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "determine working directory")
	}
	cfg, err := loadConfig(cmd, workDir)
	if err != nil {
		return nil, err
	}
	p, err := cfg.Prefixer()
	if err != nil {
		return nil, err
	}

	dir := cfg.SourceDir(workDir)
	var loader source.Loader = source.NewFileLoader(dir)
	if cfg.Source.Rev != "" {
		loader = source.NewGitLoader(dir, cfg.Source.Rev)
	}
	return &pipeline{
		cfg:      cfg,
		loader:   loader,
		expander: expander.New(p),
		settings: delegate.Settings(p.Root(), cfg.Prefix.Externals, cfg.ResolverOptions()),
	}, nil
}

func (p *pipeline) generator() *delegate.Generator {
	return delegate.NewGenerator(p.loader, p.expander, p.cfg.ResolverOptions(), p.settings)
}
