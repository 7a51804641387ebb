// Package expander turns a delegation request into forwarding implementation
// blocks. It is shared by immediate generation and on-demand dispatch so both
// produce the same text for the same input.
package expander

import (
	"errors"
	"strings"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/delegate/generics"
	"martianoff/delegen/internal/delegate/prefixer"
	"martianoff/delegen/internal/delegate/resolver"
	"martianoff/delegen/internal/delegate/spec"
	"martianoff/delegen/internal/logger"
	"martianoff/delegen/internal/syntax"
)

const indent = "    "

// Catalog answers interface lookups by name. *resolver.Result is a Catalog.
type Catalog interface {
	Lookup(name string) (*resolver.Interface, bool)
}

// Catalogs maps a source key (spec.Source.Key) to the interfaces it defines.
type Catalogs map[string]Catalog

// Block is one emitted forwarding implementation.
type Block struct {
	Interface string
	// Path is the prefixed interface path as written in the impl header.
	Path *syntax.Path
	Text string
}

// Expander emits forwarding implementations. It is stateless besides its
// prefixer and safe for concurrent use.
type Expander struct {
	prefixer *prefixer.Prefixer
}

// New returns an expander that anchors external paths with p.
func New(p *prefixer.Prefixer) *Expander {
	return &Expander{prefixer: p}
}

// Expand emits one block per interface reference of req, in request order.
func (e *Expander) Expand(req *spec.Request, catalogs Catalogs) ([]*Block, error) {
	seen := make(map[string]bool, len(req.References))
	blocks := make([]*Block, 0, len(req.References))
	for _, ref := range req.References {
		name := ref.Name()
		if seen[name] {
			return nil, delerr.NewDuplicateInterface(ref.Pos.Err(), name)
		}
		seen[name] = true

		var iface *resolver.Interface
		if src := req.SourceFor(ref); src != nil {
			if cat := catalogs[src.Key()]; cat != nil {
				iface, _ = cat.Lookup(name)
			}
		}
		if iface == nil {
			return nil, delerr.NewInterfaceNotFound(ref.Pos.Err(), name)
		}
		block, err := e.ExpandInterface(req, ref, iface)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// ExpandInterface emits the block for a single reference already resolved to iface.
func (e *Expander) ExpandInterface(req *spec.Request, ref *spec.Reference, iface *resolver.Interface) (*Block, error) {
	sub, err := generics.Unify(ref.Name(), iface.Params(), ref.Args())
	if err != nil {
		var derr *delerr.Error
		if errors.As(err, &derr) {
			return nil, derr.At(ref.Pos.Err())
		}
		return nil, err
	}

	var targetParams []*syntax.GenericParam
	var targetWhere *syntax.WhereClause
	if g := req.Target.Generics; g != nil {
		targetParams, targetWhere = g.Params, g.Where
	}
	params := e.prefixer.PrefixParams(generics.MergeParams(targetParams, ref.For))
	where := e.prefixer.PrefixWhere(generics.MergeWhere(targetWhere, req.Where))

	path := e.prefixer.PrefixPath(ref.Path)
	through := syntax.ClonePath(path)
	through.Last().Args = nil

	var sb strings.Builder
	if iface.Trait.Unsafe {
		sb.WriteString("unsafe ")
	}
	sb.WriteString("impl")
	sb.WriteString(syntax.FormatParams(params, false))
	sb.WriteString(" ")
	sb.WriteString(syntax.FormatPath(path))
	sb.WriteString(" for ")
	sb.WriteString(req.Target.Name.Name)
	sb.WriteString(syntax.FormatParamNames(targetParams))
	if where != nil && len(where.Predicates) > 0 {
		sb.WriteString("\n")
		sb.WriteString(syntax.FormatWhereBlock(where, indent))
	} else {
		sb.WriteString(" ")
	}
	sb.WriteString("{\n")

	if req.With != nil && *req.With != "" {
		writeIndented(&sb, *req.With, indent)
		sb.WriteString("\n")
	}

	root := e.prefixer.Root()
	sb.WriteString(indent)
	if len(root.Segments) > 0 {
		sb.WriteString(syntax.FormatPath(root))
		sb.WriteString("::")
	}
	sb.WriteString("delegate! {\n")
	sb.WriteString(indent + indent + "to " + req.To + " {\n")
	for i, m := range iface.Trait.Methods() {
		if i > 0 {
			sb.WriteString("\n")
		}
		stub := indent + indent + indent
		for _, attr := range m.Attrs {
			sb.WriteString(stub + attr.Text + "\n")
		}
		sb.WriteString(stub + "#[through(" + syntax.FormatPath(through) + ")]\n")
		sig := e.prefixer.PrefixSignature(sub.ApplySignature(m.Sig))
		sb.WriteString(stub + syntax.FormatSignature(sig) + ";\n")
	}
	sb.WriteString(indent + indent + "}\n")
	sb.WriteString(indent + "}\n")
	sb.WriteString("}\n")

	logger.Debugw("expanded interface",
		"interface", iface.QualifiedName(),
		"target", req.Target.Name.Name,
		"bindings", sub.Names())
	return &Block{Interface: ref.Name(), Path: path, Text: sb.String()}, nil
}

// Render joins blocks into one output text separated by blank lines.
func Render(blocks []*Block) string {
	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	return strings.Join(texts, "\n")
}

func writeIndented(sb *strings.Builder, text, prefix string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if line != "" {
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
}
