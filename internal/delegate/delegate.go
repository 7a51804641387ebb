// Package delegate wires the generator stages together: request parsing,
// source loading, resolution, expansion and printing.
package delegate

import (
	"context"
	"errors"
	"strings"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/cache"
	"martianoff/delegen/internal/delegate/expander"
	"martianoff/delegen/internal/delegate/resolver"
	"martianoff/delegen/internal/delegate/source"
	"martianoff/delegen/internal/delegate/spec"
	"martianoff/delegen/internal/logger"
	"martianoff/delegen/internal/syntax"
)

// Generator runs immediate-mode generation.
type Generator struct {
	loader   source.Loader
	expander *expander.Expander
	opts     resolver.Options
	// settings is folded into every fingerprint so configuration changes
	// invalidate generated output.
	settings string
}

// NewGenerator creates a generator from its stages.
func NewGenerator(loader source.Loader, exp *expander.Expander, opts resolver.Options, settings string) *Generator {
	return &Generator{loader: loader, expander: exp, opts: opts, settings: settings}
}

// Output is the result of one generation.
type Output struct {
	Text        string
	Fingerprint string
	Interfaces  []string
}

// Generate expands the request text into forwarding implementations.
func (g *Generator) Generate(ctx context.Context, request string) (*Output, error) {
	req, err := spec.ParseRequest(request)
	if err != nil {
		return nil, err
	}
	catalogs, parts, err := LoadCatalogs(ctx, g.loader, g.opts, requestSources(req))
	if err != nil {
		return nil, err
	}
	blocks, err := g.expander.Expand(req, catalogs)
	if err != nil {
		return nil, err
	}

	parts = append(parts,
		cache.Part{Name: "request", Content: []byte(request)},
		cache.Part{Name: "settings", Content: []byte(g.settings)})
	out := &Output{
		Text:        expander.Render(blocks),
		Fingerprint: cache.Fingerprint(parts...),
	}
	for _, b := range blocks {
		out.Interfaces = append(out.Interfaces, b.Interface)
	}
	logger.Debugw("generated", "target", req.Target.Name.Name, "interfaces", out.Interfaces)
	return out, nil
}

// requestSources lists the distinct sources used by the request's references.
func requestSources(req *spec.Request) []*spec.Source {
	var out []*spec.Source
	seen := make(map[string]bool)
	for _, ref := range req.References {
		src := req.SourceFor(ref)
		if src == nil || seen[src.Key()] {
			continue
		}
		seen[src.Key()] = true
		out = append(out, src)
	}
	return out
}

// LoadCatalogs loads and resolves each source once. It also returns the
// loaded texts as fingerprint parts.
func LoadCatalogs(ctx context.Context, loader source.Loader, opts resolver.Options, sources []*spec.Source) (expander.Catalogs, []cache.Part, error) {
	catalogs := make(expander.Catalogs, len(sources))
	parts := make([]cache.Part, 0, len(sources))
	for _, src := range sources {
		if _, ok := catalogs[src.Key()]; ok {
			continue
		}
		text, err := loader.Load(ctx, src)
		if err != nil {
			return nil, nil, err
		}
		res, err := resolver.ResolveSource(text, opts)
		if err != nil {
			return nil, nil, inSource(err, src)
		}
		catalogs[src.Key()] = res
		parts = append(parts, cache.Part{Name: src.Key(), Content: []byte(text)})
	}
	return catalogs, parts, nil
}

// inSource attributes an error raised inside a source file to that file.
func inSource(err error, src *spec.Source) error {
	var derr *delerr.Error
	if src.IsInline || !errors.As(err, &derr) {
		return err
	}
	return derr.InFile(src.Path)
}

// Settings renders the configuration values that affect generated text.
func Settings(root *syntax.Path, externals []string, opts resolver.Options) string {
	var sb strings.Builder
	sb.WriteString("root=")
	sb.WriteString(syntax.FormatPath(root))
	sb.WriteString("\nexternals=")
	sb.WriteString(strings.Join(externals, ","))
	if opts.StrictAliases {
		sb.WriteString("\nstrict")
	}
	return sb.String()
}
