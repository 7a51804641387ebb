package syntax

// ParseFile parses a complete source buffer.
func ParseFile(src string) (*File, error) {
	p, err := NewParser(src)
	if err != nil {
		return nil, err
	}
	return p.ParseFile()
}

// ParseFile parses the remaining tokens as a source file.
func (p *Parser) ParseFile() (*File, error) {
	f := &File{}
	attrs, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	var outer []Attribute
	for _, a := range attrs {
		if a.Inner {
			f.Attrs = append(f.Attrs, a)
		} else {
			outer = append(outer, a)
		}
	}
	items, err := p.parseItems(outer, func(p *Parser) bool { return p.AtEOF() })
	if err != nil {
		return nil, err
	}
	f.Items = items
	return f, nil
}

func (p *Parser) parseItems(pending []Attribute, done func(p *Parser) bool) ([]Item, error) {
	var items []Item
	for {
		if p.Eat(";") {
			continue
		}
		if done(p) {
			return items, nil
		}
		if p.AtEOF() {
			return nil, p.Errorf(p.Peek(), "unexpected end of input")
		}
		attrs, err := p.parseAttrs()
		if err != nil {
			return nil, err
		}
		item, err := p.ParseItem(append(pending, attrs...))
		if err != nil {
			return nil, err
		}
		pending = nil
		items = append(items, item)
	}
}

func (p *Parser) parseVis() (string, error) {
	if !p.At("pub") {
		if p.At("crate") && !p.PeekN(1).Is("::") {
			return p.Next().Text, nil
		}
		return "", nil
	}
	start := p.Next()
	if p.At("(") {
		_, closeTok, err := p.SkipGroup()
		if err != nil {
			return "", err
		}
		return p.Text(start, closeTok), nil
	}
	return start.Text, nil
}

// ParseItem parses one item whose outer attributes are already consumed.
func (p *Parser) ParseItem(attrs []Attribute) (Item, error) {
	vis, err := p.parseVis()
	if err != nil {
		return nil, err
	}
	t := p.Peek()
	switch {
	case t.Is("mod"):
		return p.parseMod(attrs, vis)
	case t.Is("use"):
		return p.parseUse(attrs, vis)
	case t.Is("struct"), t.Is("enum"),
		t.Is("union") && p.PeekN(1).Kind == IdentTok:
		return p.parseTypeDecl(attrs, vis)
	case t.Is("type"):
		return p.parseTypeAlias(attrs, vis)
	case t.Is("trait"),
		t.Is("auto") && p.PeekN(1).Is("trait"),
		t.Is("unsafe") && (p.PeekN(1).Is("trait") || p.PeekN(1).Is("auto")):
		return p.parseTrait(attrs, vis)
	}
	return p.skipItem()
}

func (p *Parser) parseMod(attrs []Attribute, vis string) (Item, error) {
	p.Next()
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	m := &ModItem{Attrs: attrs, Vis: vis, Name: name}
	if p.Eat(";") {
		m.External = true
		return m, nil
	}
	if _, err := p.Expect("{"); err != nil {
		return nil, err
	}
	inner, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	var outer []Attribute
	for _, a := range inner {
		if !a.Inner {
			outer = append(outer, a)
		}
	}
	if m.Items, err = p.parseItems(outer, func(p *Parser) bool { return p.At("}") }); err != nil {
		return nil, err
	}
	p.Next()
	return m, nil
}

func (p *Parser) parseUse(attrs []Attribute, vis string) (Item, error) {
	kw := p.Next()
	u := &UseItem{Attrs: attrs, Vis: vis, Pos: kw.Pos}
	u.Global = p.Eat("::")
	tree, err := p.parseUseTree()
	if err != nil {
		return nil, err
	}
	u.Tree = tree
	if _, err := p.Expect(";"); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *Parser) parseUseTree() (UseTree, error) {
	if p.Eat("*") {
		return &UseGlob{}, nil
	}
	if p.Eat("{") {
		g := &UseGroup{}
		for !p.At("}") {
			tree, err := p.parseUseTree()
			if err != nil {
				return nil, err
			}
			g.Trees = append(g.Trees, tree)
			if !p.Eat(",") {
				break
			}
		}
		if _, err := p.Expect("}"); err != nil {
			return nil, err
		}
		return g, nil
	}
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	if p.Eat("::") {
		sub, err := p.parseUseTree()
		if err != nil {
			return nil, err
		}
		return &UsePath{Name: name, Tree: sub}, nil
	}
	if p.Eat("as") {
		rename, err := p.ExpectIdent()
		if err != nil {
			return nil, err
		}
		return &UseRename{Name: name, Rename: rename}, nil
	}
	return &UseName{Name: name}, nil
}

// parseTypeDecl parses a struct, enum or union declaration.
func (p *Parser) parseTypeDecl(attrs []Attribute, vis string) (Item, error) {
	kw := p.Next()
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	d := &TypeDecl{Attrs: attrs, Vis: vis, Keyword: kw.Text, Name: name}
	if d.Generics, err = p.ParseGenerics(); err != nil {
		return nil, err
	}
	if d.Generics.Where, err = p.ParseWhereClause(); err != nil {
		return nil, err
	}
	switch {
	case p.At(";") && kw.Text == "struct":
		d.Body = p.Next().Text
	case p.At("(") && kw.Text == "struct":
		open, closeTok, err := p.SkipGroup()
		if err != nil {
			return nil, err
		}
		if d.Generics.Where, err = p.ParseWhereClause(); err != nil {
			return nil, err
		}
		end, err := p.Expect(";")
		if err != nil {
			return nil, err
		}
		d.Body = p.Text(open, closeTok) + end.Text
	case p.At("{"):
		open, closeTok, err := p.SkipGroup()
		if err != nil {
			return nil, err
		}
		d.Body = p.Text(open, closeTok)
	default:
		return nil, p.Errorf(p.Peek(), "expected `{` after %s header, found %s", kw.Text, p.Peek())
	}
	return d, nil
}

func (p *Parser) parseTypeAlias(attrs []Attribute, vis string) (Item, error) {
	kw := p.Next()
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	d := &TypeDecl{Attrs: attrs, Vis: vis, Keyword: kw.Text, Name: name}
	if d.Generics, err = p.ParseGenerics(); err != nil {
		return nil, err
	}
	start := p.Peek()
	if !p.At(";") {
		if _, err := p.RawUntil(func(p *Parser) bool { return p.At(";") }); err != nil {
			return nil, err
		}
	}
	end, err := p.Expect(";")
	if err != nil {
		return nil, err
	}
	d.Body = p.Text(start, end)
	return d, nil
}

func (p *Parser) parseTrait(attrs []Attribute, vis string) (Item, error) {
	tr := &Trait{Attrs: attrs, Vis: vis}
	tr.Unsafe = p.Eat("unsafe")
	tr.Auto = p.Eat("auto")
	if _, err := p.Expect("trait"); err != nil {
		return nil, err
	}
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	tr.Name = name
	if tr.Generics, err = p.ParseGenerics(); err != nil {
		return nil, err
	}
	if p.Eat(":") {
		if tr.Supertraits, err = p.ParseBounds(); err != nil {
			return nil, err
		}
	}
	if tr.Generics.Where, err = p.ParseWhereClause(); err != nil {
		return nil, err
	}
	if _, err := p.Expect("{"); err != nil {
		return nil, err
	}
	for !p.Eat("}") {
		if p.AtEOF() {
			return nil, p.Errorf(p.Peek(), "unclosed trait `%s`", tr.Name.Name)
		}
		if p.Eat(";") {
			continue
		}
		member, err := p.parseTraitMember()
		if err != nil {
			return nil, err
		}
		tr.Members = append(tr.Members, member)
	}
	return tr, nil
}

func (p *Parser) atFnStart() bool {
	for i := 0; ; i++ {
		t := p.PeekN(i)
		switch {
		case t.Is("fn"):
			return true
		case t.Is("const"), t.Is("async"), t.Is("unsafe"), t.Is("extern"), t.Kind == LiteralTok && i > 0:
		default:
			return false
		}
	}
}

func (p *Parser) parseTraitMember() (TraitMember, error) {
	attrs, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	switch {
	case p.atFnStart():
		return p.parseMethod(attrs)
	case p.At("type"):
		return p.parseAssocType(attrs)
	case p.At("const"):
		return p.parseAssocConst(attrs)
	case p.Peek().Kind == IdentTok:
		start := p.Peek()
		if _, err := p.parsePath(false); err != nil {
			return nil, err
		}
		if !p.Eat("!") {
			break
		}
		_, end, err := p.SkipGroup()
		if err != nil {
			return nil, err
		}
		if p.At(";") {
			end = p.Next()
		}
		return &MacroMember{Text: p.Text(start, end)}, nil
	}
	return nil, p.Errorf(p.Peek(), "unexpected %s in trait body", p.Peek())
}

func (p *Parser) parseMethod(attrs []Attribute) (TraitMember, error) {
	sig, err := p.ParseSignature()
	if err != nil {
		return nil, err
	}
	m := &Method{Attrs: attrs, Sig: sig}
	if p.Eat(";") {
		return m, nil
	}
	if !p.At("{") {
		return nil, p.Errorf(p.Peek(), "expected `;` or `{`, found %s", p.Peek())
	}
	open, closeTok, err := p.SkipGroup()
	if err != nil {
		return nil, err
	}
	body := p.Text(open, closeTok)
	m.Default = &body
	return m, nil
}

// ParseSignature parses a method signature up to, not including, its body.
func (p *Parser) ParseSignature() (*Signature, error) {
	sig := &Signature{}
	sig.Const = p.Eat("const")
	sig.Async = p.Eat("async")
	sig.Unsafe = p.Eat("unsafe")
	if p.Eat("extern") {
		abi := ""
		if p.Peek().Kind == LiteralTok {
			abi = p.Next().Text
		}
		sig.ABI = &abi
	}
	if _, err := p.Expect("fn"); err != nil {
		return nil, err
	}
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	sig.Name = name
	if sig.Generics, err = p.ParseGenerics(); err != nil {
		return nil, err
	}
	if _, err := p.Expect("("); err != nil {
		return nil, err
	}
	if sig.Receiver, err = p.parseReceiver(); err != nil {
		return nil, err
	}
	if sig.Receiver != nil && !p.Eat(",") && !p.At(")") {
		return nil, p.Errorf(p.Peek(), "expected `,` or `)`, found %s", p.Peek())
	}
	for !p.At(")") {
		if _, err := p.parseAttrs(); err != nil {
			return nil, err
		}
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		sig.Params = append(sig.Params, param)
		if !p.Eat(",") {
			break
		}
	}
	if _, err := p.Expect(")"); err != nil {
		return nil, err
	}
	if p.Eat("->") {
		if sig.Output, err = p.ParseType(); err != nil {
			return nil, err
		}
	}
	if sig.Generics.Where, err = p.ParseWhereClause(); err != nil {
		return nil, err
	}
	return sig, nil
}

func (p *Parser) parseReceiver() (*Receiver, error) {
	switch {
	case p.At("&"):
		i := 1
		if p.PeekN(i).Kind == LifetimeTok {
			i++
		}
		if p.PeekN(i).Is("mut") {
			i++
		}
		if !p.PeekN(i).Is("self") {
			return nil, nil
		}
		p.Next()
		r := &Receiver{Ref: true}
		if p.Peek().Kind == LifetimeTok {
			r.Lifetime = p.parseLifetime()
		}
		r.Mut = p.Eat("mut")
		p.Next()
		return r, nil
	case p.At("self"), p.At("mut") && p.PeekN(1).Is("self"):
		r := &Receiver{Mut: p.Eat("mut")}
		p.Next()
		if p.Eat(":") {
			ty, err := p.ParseType()
			if err != nil {
				return nil, err
			}
			r.Type = ty
		}
		return r, nil
	}
	return nil, nil
}

func (p *Parser) parseParam() (*Param, error) {
	start := p.Peek()
	if _, err := p.RawUntil(func(p *Parser) bool { return p.At(":") || p.At(",") }); err != nil {
		return nil, err
	}
	pattern := p.Text(start, p.Prev())
	if _, err := p.Expect(":"); err != nil {
		return nil, err
	}
	ty, err := p.ParseType()
	if err != nil {
		return nil, err
	}
	return &Param{Pattern: pattern, Type: ty}, nil
}

func (p *Parser) parseAssocType(attrs []Attribute) (TraitMember, error) {
	p.Next()
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	at := &AssocType{Attrs: attrs, Name: name}
	if at.Generics, err = p.ParseGenerics(); err != nil {
		return nil, err
	}
	if p.Eat(":") {
		if at.Bounds, err = p.ParseBounds(); err != nil {
			return nil, err
		}
	}
	if at.Generics.Where, err = p.ParseWhereClause(); err != nil {
		return nil, err
	}
	if p.Eat("=") {
		if at.Default, err = p.ParseType(); err != nil {
			return nil, err
		}
	}
	if _, err := p.Expect(";"); err != nil {
		return nil, err
	}
	return at, nil
}

func (p *Parser) parseAssocConst(attrs []Attribute) (TraitMember, error) {
	p.Next()
	name, err := p.ExpectIdent()
	if err != nil {
		return nil, err
	}
	ac := &AssocConst{Attrs: attrs, Name: name}
	if _, err := p.Expect(":"); err != nil {
		return nil, err
	}
	if ac.Type, err = p.ParseType(); err != nil {
		return nil, err
	}
	if p.Eat("=") {
		if ac.Default, err = p.parseExprUntil(";"); err != nil {
			return nil, err
		}
	}
	if _, err := p.Expect(";"); err != nil {
		return nil, err
	}
	return ac, nil
}

// skipItem consumes an item the model does not represent: everything up to a
// `;` or a closing brace at nesting depth zero.
func (p *Parser) skipItem() (Item, error) {
	start := p.Peek()
	item := &OtherItem{Keyword: start.Text}
	for {
		t := p.Peek()
		switch {
		case t.Kind == EOF:
			return nil, p.Errorf(start, "unterminated item starting with %s", start)
		case t.Is(";"):
			p.Next()
			item.Text = p.Text(start, t)
			return item, nil
		case t.Is("{"):
			_, closeTok, err := p.SkipGroup()
			if err != nil {
				return nil, err
			}
			if !p.At(";") {
				item.Text = p.Text(start, closeTok)
				return item, nil
			}
		case isOpen(t):
			if _, _, err := p.SkipGroup(); err != nil {
				return nil, err
			}
		case isClose(t):
			return nil, p.Errorf(t, "unexpected %s", t)
		default:
			p.Next()
		}
	}
}
