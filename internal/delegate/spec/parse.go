package spec

import (
	"strconv"
	"strings"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/syntax"
)

// Request keys.
const (
	KeyTarget = "target"
	KeyTo     = "to"
	KeyTraits = "traits"
	KeyWhere  = "where"
	KeyWith   = "with"
	KeySource = "source"
)

// entryParser parses the value of one key; the key token is already consumed.
type entryParser func(p *syntax.Parser) error

// parseEntries runs a comma separated `key => value` list against handlers.
// Each key may occur once; keys without a handler are rejected.
func parseEntries(p *syntax.Parser, handlers map[string]entryParser) (map[string]bool, error) {
	seen := make(map[string]bool)
	for !p.AtEOF() {
		keyTok := p.Peek()
		key, err := p.ExpectIdent()
		if err != nil {
			return nil, err
		}
		handler, ok := handlers[key.Name]
		if !ok {
			return nil, delerr.NewUnknownKey(keyTok.Pos.Err(), key.Name)
		}
		if seen[key.Name] {
			return nil, delerr.NewDuplicateKey(keyTok.Pos.Err(), key.Name)
		}
		seen[key.Name] = true
		if _, err := p.Expect("=>"); err != nil {
			return nil, err
		}
		if err := handler(p); err != nil {
			return nil, err
		}
		if p.AtEOF() {
			break
		}
		// A where-clause value consumes the separator itself.
		if !p.Eat(",") && !p.Prev().Is(",") {
			return nil, p.Errorf(p.Peek(), "expected `,` between entries, found %s", p.Peek())
		}
	}
	return seen, nil
}

func requireKeys(seen map[string]bool, keys ...string) error {
	for _, k := range keys {
		if !seen[k] {
			return delerr.NewMissingKey(k)
		}
	}
	return nil
}

// ParseRequest parses an immediate-mode request.
func ParseRequest(src string) (*Request, error) {
	p, err := syntax.NewParser(src)
	if err != nil {
		return nil, err
	}
	req := &Request{}
	seen, err := parseEntries(p, map[string]entryParser{
		KeyTarget: func(p *syntax.Parser) (err error) {
			req.Target, err = parseTarget(p)
			return err
		},
		KeyTo: func(p *syntax.Parser) (err error) {
			req.To, err = p.RawUntil(atEntryEnd)
			return err
		},
		KeyTraits: func(p *syntax.Parser) (err error) {
			req.References, err = parseReferences(p)
			return err
		},
		KeyWhere: func(p *syntax.Parser) (err error) {
			req.Where, err = parseBracedPredicates(p)
			return err
		},
		KeyWith: func(p *syntax.Parser) (err error) {
			req.With, err = parseWith(p)
			return err
		},
		KeySource: func(p *syntax.Parser) (err error) {
			req.Source, err = parseSource(p)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	if err := requireKeys(seen, KeyTarget, KeyTo, KeyTraits); err != nil {
		return nil, err
	}
	if err := checkSources(req.References, req.Source); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseTable parses an on-demand interface table.
func ParseTable(src string) (*Table, error) {
	p, err := syntax.NewParser(src)
	if err != nil {
		return nil, err
	}
	table := &Table{}
	seen, err := parseEntries(p, map[string]entryParser{
		KeyTraits: func(p *syntax.Parser) (err error) {
			table.References, err = parseReferences(p)
			return err
		},
		KeySource: func(p *syntax.Parser) (err error) {
			table.Source, err = parseSource(p)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	if err := requireKeys(seen, KeyTraits); err != nil {
		return nil, err
	}
	if err := checkSources(table.References, table.Source); err != nil {
		return nil, err
	}
	return table, nil
}

// ParseAttribute parses a use-site delegation attribute.
func ParseAttribute(src string) (*Attribute, error) {
	p, err := syntax.NewParser(src)
	if err != nil {
		return nil, err
	}
	ref, err := parseReference(p)
	if err != nil {
		return nil, err
	}
	attr := &Attribute{Reference: ref}
	if _, err := p.Expect(KeyTo); err != nil {
		return nil, err
	}
	attr.To, err = p.RawUntil(func(p *syntax.Parser) bool {
		return p.At(KeyWhere) || atWith(p)
	})
	if err != nil {
		return nil, err
	}
	if attr.Where, err = p.ParseWhereClause(); err != nil {
		return nil, err
	}
	if atWith(p) {
		p.Next()
		if attr.With, err = parseWith(p); err != nil {
			return nil, err
		}
	}
	if !p.AtEOF() {
		return nil, p.Errorf(p.Peek(), "unexpected %s in delegation attribute", p.Peek())
	}
	return attr, nil
}

// ParseTargetItem parses the item a use-site attribute is attached to and
// returns its header as a target.
func ParseTargetItem(src string) (*Target, error) {
	file, err := syntax.ParseFile(src)
	if err != nil {
		return nil, err
	}
	if len(file.Items) != 1 {
		return nil, delerr.NewSpecError(delerr.Pos{Line: 1, Column: 1},
			"delegation target must be a single struct, enum or union")
	}
	decl, ok := file.Items[0].(*syntax.TypeDecl)
	if !ok || decl.Keyword == "type" {
		return nil, delerr.NewSpecError(delerr.Pos{Line: 1, Column: 1},
			"delegation target must be a struct, enum or union")
	}
	return TargetFromDecl(decl), nil
}

func atWith(p *syntax.Parser) bool {
	return p.At(KeyWith) && p.PeekN(1).Is("{")
}

// atEntryEnd reports a separator followed by the next key or by end of input.
// Commas inside turbofish arguments of the delegation expression are kept.
func atEntryEnd(p *syntax.Parser) bool {
	if !p.At(",") {
		return false
	}
	next := p.PeekN(1)
	return next.Kind == syntax.EOF || (next.Kind == syntax.IdentTok && p.PeekN(2).Is("=>"))
}

func parseTarget(p *syntax.Parser) (*Target, error) {
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	g, err := p.ParseGenerics()
	if err != nil {
		return nil, err
	}
	if g.Where, err = p.ParseWhereClause(); err != nil {
		return nil, err
	}
	return &Target{Name: name, Generics: g}, nil
}

func parseBracedPredicates(p *syntax.Parser) (*syntax.WhereClause, error) {
	if _, err := p.Expect("{"); err != nil {
		return nil, err
	}
	wc, err := p.ParsePredicates()
	if err != nil {
		return nil, err
	}
	if _, err := p.Expect("}"); err != nil {
		return nil, err
	}
	return wc, nil
}

func parseWith(p *syntax.Parser) (*string, error) {
	if !p.At("{") {
		return nil, p.Errorf(p.Peek(), "expected `{` to open the injected block, found %s", p.Peek())
	}
	text, err := p.GroupInner()
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	return &text, nil
}

// parseReferences parses `{ entry, ... }` where an entry is a reference or a
// braced group of references, optionally followed by `from SOURCE`.
func parseReferences(p *syntax.Parser) ([]*Reference, error) {
	open, err := p.Expect("{")
	if err != nil {
		return nil, err
	}
	var refs []*Reference
	for !p.At("}") {
		var group []*Reference
		if p.Eat("{") {
			for !p.At("}") {
				ref, err := parseReference(p)
				if err != nil {
					return nil, err
				}
				group = append(group, ref)
				if !p.Eat(",") {
					break
				}
			}
			if _, err := p.Expect("}"); err != nil {
				return nil, err
			}
		} else {
			ref, err := parseReference(p)
			if err != nil {
				return nil, err
			}
			group = append(group, ref)
		}
		if p.Eat("from") {
			src, err := parseSource(p)
			if err != nil {
				return nil, err
			}
			for _, ref := range group {
				ref.Source = src
			}
		}
		refs = append(refs, group...)
		if !p.Eat(",") {
			break
		}
	}
	if _, err := p.Expect("}"); err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, delerr.NewSpecError(open.Pos.Err(), "no interfaces listed")
	}
	return refs, nil
}

func parseReference(p *syntax.Parser) (*Reference, error) {
	ref := &Reference{Pos: p.Peek().Pos}
	if p.At("for") {
		params, err := p.ParseForLifetimes()
		if err != nil {
			return nil, err
		}
		ref.For = params
	}
	path, err := p.ParsePath()
	if err != nil {
		return nil, err
	}
	ref.Path = path
	return ref, nil
}

// parseSource parses a string path literal or a braced inline source.
func parseSource(p *syntax.Parser) (*Source, error) {
	t := p.Peek()
	if p.At("{") {
		text, err := p.GroupInner()
		if err != nil {
			return nil, err
		}
		return &Source{Inline: text, IsInline: true, Pos: t.Pos}, nil
	}
	if t.Kind != syntax.LiteralTok {
		return nil, p.Errorf(t, "expected a source path or `{`, found %s", t)
	}
	path, err := unquote(t.Text)
	if err != nil {
		return nil, p.Errorf(t, "invalid source path %s: %v", t, err)
	}
	p.Next()
	return &Source{Path: path, Pos: t.Pos}, nil
}

// unquote decodes a string literal token, including raw `r#"..."#` forms.
func unquote(lit string) (string, error) {
	if strings.HasPrefix(lit, "r") {
		body := strings.Trim(lit[1:], "#")
		if len(body) < 2 || body[0] != '"' || body[len(body)-1] != '"' {
			return "", strconv.ErrSyntax
		}
		return body[1 : len(body)-1], nil
	}
	if !strings.HasPrefix(lit, `"`) {
		return "", strconv.ErrSyntax
	}
	return strconv.Unquote(lit)
}

func checkSources(refs []*Reference, fallback *Source) error {
	if fallback != nil {
		return nil
	}
	for _, ref := range refs {
		if ref.Source == nil {
			return delerr.NewSpecError(ref.Pos.Err(),
				"interface `"+ref.Name()+"` has no source; add `from` or a `source` key")
		}
	}
	return nil
}
