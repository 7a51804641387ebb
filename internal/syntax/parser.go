package syntax

import (
	"fmt"
	"strings"

	"martianoff/delegen/delerr"

	"github.com/antlr4-go/antlr/v4"
)

// Parser is a recursive-descent parser over a token stream. Its exported
// methods are shared by the file parser and by the specification parsers,
// which embed types, generics and where-clauses in their own grammars.
type Parser struct {
	toks  []Token
	pos   int
	input *antlr.InputStream
}

// NewParser tokenizes src and returns a parser positioned at the first token.
func NewParser(src string) (*Parser, error) {
	toks, input, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return &Parser{toks: toks, input: input}, nil
}

// Peek returns the current token without consuming it.
func (p *Parser) Peek() Token {
	return p.toks[p.pos]
}

// PeekN returns the token n positions ahead of the current one.
func (p *Parser) PeekN(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

// Next consumes and returns the current token. EOF is never consumed.
func (p *Parser) Next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

// Prev returns the most recently consumed token.
func (p *Parser) Prev() Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

// AtEOF reports whether all tokens are consumed.
func (p *Parser) AtEOF() bool {
	return p.Peek().Kind == EOF
}

// At reports whether the current token is the given keyword or punctuation.
func (p *Parser) At(text string) bool {
	return p.Peek().Is(text)
}

// Eat consumes the current token if it is text.
func (p *Parser) Eat(text string) bool {
	if p.At(text) {
		p.Next()
		return true
	}
	return false
}

// Expect consumes text or fails.
func (p *Parser) Expect(text string) (Token, error) {
	if !p.At(text) {
		return Token{}, p.Errorf(p.Peek(), "expected `%s`, found %s", text, p.Peek())
	}
	return p.Next(), nil
}

// ExpectIdent consumes an identifier or fails.
func (p *Parser) ExpectIdent() (Ident, error) {
	t := p.Peek()
	if t.Kind != IdentTok {
		return Ident{}, p.Errorf(t, "expected identifier, found %s", t)
	}
	p.Next()
	return Ident{Name: t.Text, Pos: t.Pos}, nil
}

// Errorf builds a syntax error anchored at tok.
func (p *Parser) Errorf(tok Token, format string, args ...any) error {
	return delerr.NewSyntaxError(tok.Pos.Err(), fmt.Sprintf(format, args...))
}

// Text returns the verbatim source between two tokens, inclusive.
func (p *Parser) Text(from, to Token) string {
	if to.Stop < from.Start {
		return ""
	}
	return p.input.GetText(from.Start, to.Stop)
}

func isOpen(t Token) bool {
	return t.Kind == PunctTok && (t.Text == "(" || t.Text == "[" || t.Text == "{")
}

func isClose(t Token) bool {
	return t.Kind == PunctTok && (t.Text == ")" || t.Text == "]" || t.Text == "}")
}

var closerOf = map[string]string{"(": ")", "[": "]", "{": "}"}

// SkipGroup consumes a balanced delimited group starting at the current
// opening delimiter and returns its opening and closing tokens.
func (p *Parser) SkipGroup() (Token, Token, error) {
	open := p.Peek()
	if !isOpen(open) {
		return Token{}, Token{}, p.Errorf(open, "expected delimiter, found %s", open)
	}
	var stack []string
	for {
		t := p.Next()
		switch {
		case t.Kind == EOF:
			return Token{}, Token{}, p.Errorf(open, "unclosed delimiter `%s`", open.Text)
		case isOpen(t):
			stack = append(stack, closerOf[t.Text])
		case isClose(t):
			if stack[len(stack)-1] != t.Text {
				return Token{}, Token{}, p.Errorf(t, "mismatched closing delimiter `%s`", t.Text)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return open, t, nil
			}
		}
	}
}

// GroupInner consumes a balanced group and returns the verbatim text between its delimiters.
func (p *Parser) GroupInner() (string, error) {
	open, closeTok, err := p.SkipGroup()
	if err != nil {
		return "", err
	}
	if closeTok.Start <= open.Stop+1 {
		return "", nil
	}
	return p.input.GetText(open.Stop+1, closeTok.Start-1), nil
}

// RawUntil consumes tokens up to (not including) the first token at nesting
// depth zero for which stop returns true, and returns their verbatim text.
func (p *Parser) RawUntil(stop func(p *Parser) bool) (string, error) {
	first := p.Peek()
	for !p.AtEOF() && !stop(p) {
		t := p.Peek()
		if isClose(t) {
			break
		}
		if isOpen(t) {
			if _, _, err := p.SkipGroup(); err != nil {
				return "", err
			}
			continue
		}
		p.Next()
	}
	if p.pos == 0 || p.Prev().Start < first.Start {
		return "", p.Errorf(first, "expected expression, found %s", first)
	}
	return p.Text(first, p.Prev()), nil
}

// ParseType parses a type.
func (p *Parser) ParseType() (Type, error) {
	t := p.Peek()
	switch {
	case t.Is("&"):
		p.Next()
		ref := &RefType{}
		if p.Peek().Kind == LifetimeTok {
			ref.Lifetime = p.parseLifetime()
		}
		ref.Mut = p.Eat("mut")
		elem, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		ref.Elem = elem
		return ref, nil
	case t.Is("*"):
		p.Next()
		ptr := &PtrType{}
		switch {
		case p.Eat("mut"):
			ptr.Mut = true
		case p.Eat("const"):
		default:
			return nil, p.Errorf(p.Peek(), "expected `mut` or `const`, found %s", p.Peek())
		}
		elem, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		ptr.Elem = elem
		return ptr, nil
	case t.Is("["):
		return p.parseSliceOrArray()
	case t.Is("("):
		return p.parseTupleOrParen()
	case t.Is("!"):
		p.Next()
		return &NeverType{}, nil
	case t.Is("_"):
		p.Next()
		return &InferType{}, nil
	case t.Is("fn"), t.Is("unsafe"), t.Is("extern"):
		return p.parseFnType(nil)
	case t.Is("for"):
		lifetimes, err := p.ParseForLifetimes()
		if err != nil {
			return nil, err
		}
		if p.At("fn") || p.At("unsafe") || p.At("extern") {
			return p.parseFnType(lifetimes)
		}
		path, err := p.parsePath(true)
		if err != nil {
			return nil, err
		}
		return &TraitObjectType{Bounds: []Bound{&TraitBound{ForLifetimes: lifetimes, Path: path}}}, nil
	case t.Is("dyn"):
		p.Next()
		bounds, err := p.ParseBounds()
		if err != nil {
			return nil, err
		}
		return &TraitObjectType{Dyn: true, Bounds: bounds}, nil
	case t.Is("impl"):
		p.Next()
		bounds, err := p.ParseBounds()
		if err != nil {
			return nil, err
		}
		return &ImplTraitType{Bounds: bounds}, nil
	case t.Is("<"):
		return p.parseQualifiedType()
	case t.Is("::"), t.Kind == IdentTok:
		path, err := p.parsePath(true)
		if err != nil {
			return nil, err
		}
		if p.At("!") {
			p.Next()
			_, closeTok, err := p.SkipGroup()
			if err != nil {
				return nil, err
			}
			return &MacroType{Text: p.Text(t, closeTok)}, nil
		}
		return &PathType{Path: path}, nil
	}
	return nil, p.Errorf(t, "expected type, found %s", t)
}

func (p *Parser) parseSliceOrArray() (Type, error) {
	p.Next()
	elem, err := p.ParseType()
	if err != nil {
		return nil, err
	}
	if p.Eat(";") {
		length, err := p.parseExprUntil("]")
		if err != nil {
			return nil, err
		}
		if _, err := p.Expect("]"); err != nil {
			return nil, err
		}
		return &ArrayType{Elem: elem, Len: length}, nil
	}
	if _, err := p.Expect("]"); err != nil {
		return nil, err
	}
	return &SliceType{Elem: elem}, nil
}

func (p *Parser) parseTupleOrParen() (Type, error) {
	p.Next()
	if p.Eat(")") {
		return &TupleType{}, nil
	}
	first, err := p.ParseType()
	if err != nil {
		return nil, err
	}
	if p.Eat(")") {
		return &ParenType{Elem: first}, nil
	}
	elems := []Type{first}
	for p.Eat(",") {
		if p.At(")") {
			break
		}
		elem, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
	if _, err := p.Expect(")"); err != nil {
		return nil, err
	}
	return &TupleType{Elems: elems}, nil
}

func (p *Parser) parseQualifiedType() (Type, error) {
	p.Next()
	self, err := p.ParseType()
	if err != nil {
		return nil, err
	}
	q := &QSelf{Type: self}
	if p.Eat("as") {
		if q.Trait, err = p.parsePath(true); err != nil {
			return nil, err
		}
	}
	if _, err := p.Expect(">"); err != nil {
		return nil, err
	}
	if _, err := p.Expect("::"); err != nil {
		return nil, err
	}
	rest, err := p.parsePath(true)
	if err != nil {
		return nil, err
	}
	return &PathType{QSelf: q, Path: rest}, nil
}

func (p *Parser) parseFnType(lifetimes []*GenericParam) (Type, error) {
	fn := &FnType{ForLifetimes: lifetimes}
	fn.Unsafe = p.Eat("unsafe")
	if p.Eat("extern") {
		abi := ""
		if p.Peek().Kind == LiteralTok {
			abi = p.Next().Text
		}
		fn.ABI = &abi
	}
	if _, err := p.Expect("fn"); err != nil {
		return nil, err
	}
	if _, err := p.Expect("("); err != nil {
		return nil, err
	}
	for !p.At(")") {
		if p.At(".") && p.PeekN(1).Is(".") && p.PeekN(2).Is(".") {
			p.Next()
			p.Next()
			p.Next()
			fn.Variadic = true
			break
		}
		param := &FnTypeParam{}
		if (p.Peek().Kind == IdentTok) && p.PeekN(1).Is(":") {
			name := p.Next()
			param.Name = &Ident{Name: name.Text, Pos: name.Pos}
			p.Next()
		}
		ty, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		param.Type = ty
		fn.Params = append(fn.Params, param)
		if !p.Eat(",") {
			break
		}
	}
	if _, err := p.Expect(")"); err != nil {
		return nil, err
	}
	if p.Eat("->") {
		out, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		fn.Output = out
	}
	return fn, nil
}

// ParsePath parses a type-style path, including generic arguments.
func (p *Parser) ParsePath() (*Path, error) {
	return p.parsePath(true)
}

// parsePath parses `::a::b<T>::c`. With fnSugar, `Fn(A) -> B` segments are accepted.
func (p *Parser) parsePath(fnSugar bool) (*Path, error) {
	path := &Path{Pos: p.Peek().Pos}
	path.Global = p.Eat("::")
	for {
		ident, err := p.ExpectIdent()
		if err != nil {
			return nil, err
		}
		seg := &PathSegment{Ident: ident}
		if p.At("<") || (p.At("::") && p.PeekN(1).Is("<")) {
			p.Eat("::")
			if seg.Args, err = p.ParseGenericArgs(); err != nil {
				return nil, err
			}
		}
		if fnSugar && p.At("(") && seg.Args == nil {
			if seg.Fn, err = p.parseFnArgs(); err != nil {
				return nil, err
			}
		}
		path.Segments = append(path.Segments, seg)
		if !(p.At("::") && p.PeekN(1).Kind == IdentTok) {
			return path, nil
		}
		p.Next()
	}
}

func (p *Parser) parseFnArgs() (*FnArgs, error) {
	p.Next()
	fa := &FnArgs{}
	for !p.At(")") {
		ty, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		fa.Inputs = append(fa.Inputs, ty)
		if !p.Eat(",") {
			break
		}
	}
	if _, err := p.Expect(")"); err != nil {
		return nil, err
	}
	if p.Eat("->") {
		out, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		fa.Output = out
	}
	return fa, nil
}

// ParseGenericArgs parses `<...>` usage-site arguments.
func (p *Parser) ParseGenericArgs() (*GenericArgs, error) {
	open, err := p.Expect("<")
	if err != nil {
		return nil, err
	}
	args := &GenericArgs{Pos: open.Pos}
	for !p.At(">") {
		arg, err := p.parseGenericArg()
		if err != nil {
			return nil, err
		}
		args.Args = append(args.Args, arg)
		if !p.Eat(",") {
			break
		}
	}
	if _, err := p.Expect(">"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseGenericArg() (GenericArg, error) {
	t := p.Peek()
	switch {
	case t.Kind == LifetimeTok:
		return &LifetimeArg{Lifetime: p.parseLifetime()}, nil
	case t.Kind == LiteralTok, t.Is("true"), t.Is("false"):
		p.Next()
		return &ConstArg{Expr: &LitExpr{Text: t.Text}}, nil
	case t.Is("-") && p.PeekN(1).Kind == LiteralTok:
		p.Next()
		lit := p.Next()
		return &ConstArg{Expr: &LitExpr{Text: "-" + lit.Text}}, nil
	case t.Is("{"):
		_, closeTok, err := p.SkipGroup()
		if err != nil {
			return nil, err
		}
		return &ConstArg{Expr: &RawExpr{Text: p.Text(t, closeTok)}}, nil
	case t.Kind == IdentTok && p.PeekN(1).Is("="):
		p.Next()
		p.Next()
		ty, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		return &BindingArg{Ident: Ident{Name: t.Text, Pos: t.Pos}, Type: ty}, nil
	case t.Kind == IdentTok && p.PeekN(1).Is(":"):
		p.Next()
		p.Next()
		bounds, err := p.ParseBounds()
		if err != nil {
			return nil, err
		}
		return &ConstraintArg{Ident: Ident{Name: t.Text, Pos: t.Pos}, Bounds: bounds}, nil
	}
	ty, err := p.ParseType()
	if err != nil {
		return nil, err
	}
	return &TypeArg{Type: ty}, nil
}

func (p *Parser) parseLifetime() *Lifetime {
	t := p.Next()
	return &Lifetime{Name: strings.TrimPrefix(t.Text, "'"), Pos: t.Pos}
}

// ParseGenerics parses an optional `<...>` parameter list. It returns an
// empty, non-nil Generics when no list is present.
func (p *Parser) ParseGenerics() (*Generics, error) {
	g := &Generics{}
	if !p.At("<") {
		return g, nil
	}
	params, err := p.parseGenericParams()
	if err != nil {
		return nil, err
	}
	g.Params = params
	return g, nil
}

// ParseForLifetimes parses `for<'a, 'b>`.
func (p *Parser) ParseForLifetimes() ([]*GenericParam, error) {
	if _, err := p.Expect("for"); err != nil {
		return nil, err
	}
	return p.parseGenericParams()
}

func (p *Parser) parseGenericParams() ([]*GenericParam, error) {
	if _, err := p.Expect("<"); err != nil {
		return nil, err
	}
	var params []*GenericParam
	for !p.At(">") {
		if _, err := p.parseAttrs(); err != nil {
			return nil, err
		}
		param, err := p.parseGenericParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if !p.Eat(",") {
			break
		}
	}
	if _, err := p.Expect(">"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseGenericParam() (*GenericParam, error) {
	t := p.Peek()
	switch {
	case t.Kind == LifetimeTok:
		lt := p.parseLifetime()
		param := &GenericParam{Kind: LifetimeParam, Name: lt.Name, Pos: lt.Pos}
		if p.Eat(":") {
			for p.Peek().Kind == LifetimeTok {
				param.Bounds = append(param.Bounds, &LifetimeBound{Lifetime: p.parseLifetime()})
				if !p.Eat("+") {
					break
				}
			}
		}
		return param, nil
	case t.Is("const"):
		p.Next()
		name, err := p.ExpectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.Expect(":"); err != nil {
			return nil, err
		}
		ty, err := p.ParseType()
		if err != nil {
			return nil, err
		}
		param := &GenericParam{Kind: ConstParam, Name: name.Name, Pos: name.Pos, Type: ty}
		if p.Eat("=") {
			if param.DefaultExpr, err = p.parseConstValue(); err != nil {
				return nil, err
			}
		}
		return param, nil
	case t.Kind == IdentTok:
		p.Next()
		param := &GenericParam{Kind: TypeParam, Name: t.Text, Pos: t.Pos}
		var err error
		if p.Eat(":") {
			if param.Bounds, err = p.ParseBounds(); err != nil {
				return nil, err
			}
		}
		if p.Eat("=") {
			if param.Default, err = p.ParseType(); err != nil {
				return nil, err
			}
		}
		return param, nil
	}
	return nil, p.Errorf(t, "expected generic parameter, found %s", t)
}

// parseConstValue parses a const argument or default: a literal, a braced
// block or a path.
func (p *Parser) parseConstValue() (Expr, error) {
	t := p.Peek()
	switch {
	case t.Kind == LiteralTok, t.Is("true"), t.Is("false"):
		p.Next()
		return &LitExpr{Text: t.Text}, nil
	case t.Is("-") && p.PeekN(1).Kind == LiteralTok:
		p.Next()
		return &LitExpr{Text: "-" + p.Next().Text}, nil
	case t.Is("{"):
		_, closeTok, err := p.SkipGroup()
		if err != nil {
			return nil, err
		}
		return &RawExpr{Text: p.Text(t, closeTok)}, nil
	}
	path, err := p.parsePath(false)
	if err != nil {
		return nil, err
	}
	return &PathExpr{Path: path}, nil
}

// parseExprUntil parses an expression ending before the closing token text.
// Literals and paths are modelled; anything else is kept raw.
func (p *Parser) parseExprUntil(closing string) (Expr, error) {
	start := p.pos
	text, err := p.RawUntil(func(p *Parser) bool { return p.At(closing) })
	if err != nil {
		return nil, err
	}
	n := p.pos - start
	if n == 1 && p.toks[start].Kind == LiteralTok {
		return &LitExpr{Text: text}, nil
	}
	save := p.pos
	p.pos = start
	if path, perr := p.parsePath(false); perr == nil && p.pos == save {
		return &PathExpr{Path: path}, nil
	}
	p.pos = save
	return &RawExpr{Text: text}, nil
}

func (p *Parser) atBoundStart() bool {
	t := p.Peek()
	if t.Kind == LifetimeTok || t.Is("?") || t.Is("for") || t.Is("::") {
		return true
	}
	if t.Is("(") {
		return true
	}
	return t.Kind == IdentTok && !t.Is("where") && !t.Is("with")
}

// ParseBounds parses a `+` separated bound list. An empty list is valid.
func (p *Parser) ParseBounds() ([]Bound, error) {
	var bounds []Bound
	for p.atBoundStart() {
		b, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, b)
		if !p.Eat("+") {
			break
		}
	}
	return bounds, nil
}

func (p *Parser) parseBound() (Bound, error) {
	if p.Peek().Kind == LifetimeTok {
		return &LifetimeBound{Lifetime: p.parseLifetime()}, nil
	}
	if p.Eat("(") {
		b, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		if _, err := p.Expect(")"); err != nil {
			return nil, err
		}
		return b, nil
	}
	tb := &TraitBound{}
	tb.Maybe = p.Eat("?")
	if p.At("for") {
		lifetimes, err := p.ParseForLifetimes()
		if err != nil {
			return nil, err
		}
		tb.ForLifetimes = lifetimes
	}
	path, err := p.parsePath(true)
	if err != nil {
		return nil, err
	}
	tb.Path = path
	return tb, nil
}

// atPredicateStart reports whether the current token can begin a where
// predicate. `key =>` and `with {` end a clause embedded in a larger grammar.
func (p *Parser) atPredicateStart() bool {
	t := p.Peek()
	switch {
	case t.Kind == LifetimeTok:
		return true
	case t.Kind == IdentTok:
		next := p.PeekN(1)
		if next.Is("=>") || (t.Is("with") && next.Is("{")) {
			return false
		}
		return !t.Is("where")
	}
	return t.Is("for") || t.Is("(") || t.Is("&") || t.Is("[") || t.Is("*") || t.Is("<") || t.Is("::")
}

// ParseWhereClause parses an optional `where` clause; it returns nil when absent.
func (p *Parser) ParseWhereClause() (*WhereClause, error) {
	if !p.Eat("where") {
		return nil, nil
	}
	return p.ParsePredicates()
}

// ParsePredicates parses a comma separated predicate list without the `where` keyword.
func (p *Parser) ParsePredicates() (*WhereClause, error) {
	wc := &WhereClause{}
	for p.atPredicateStart() {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		wc.Predicates = append(wc.Predicates, pred)
		if !p.Eat(",") {
			break
		}
	}
	return wc, nil
}

func (p *Parser) parsePredicate() (WherePredicate, error) {
	if p.Peek().Kind == LifetimeTok {
		pred := &LifetimePredicate{Lifetime: p.parseLifetime()}
		if _, err := p.Expect(":"); err != nil {
			return nil, err
		}
		for p.Peek().Kind == LifetimeTok {
			pred.Bounds = append(pred.Bounds, p.parseLifetime())
			if !p.Eat("+") {
				break
			}
		}
		return pred, nil
	}
	pred := &TypePredicate{}
	if p.At("for") {
		lifetimes, err := p.ParseForLifetimes()
		if err != nil {
			return nil, err
		}
		pred.ForLifetimes = lifetimes
	}
	ty, err := p.ParseType()
	if err != nil {
		return nil, err
	}
	pred.Bounded = ty
	if _, err := p.Expect(":"); err != nil {
		return nil, err
	}
	if pred.Bounds, err = p.ParseBounds(); err != nil {
		return nil, err
	}
	return pred, nil
}

// parseAttrs parses outer and inner attributes.
func (p *Parser) parseAttrs() ([]Attribute, error) {
	var attrs []Attribute
	for p.At("#") {
		start := p.Next()
		inner := p.Eat("!")
		if !p.At("[") {
			return nil, p.Errorf(p.Peek(), "expected `[`, found %s", p.Peek())
		}
		_, closeTok, err := p.SkipGroup()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{Text: p.Text(start, closeTok), Inner: inner})
	}
	return attrs, nil
}

func parseAll[T any](src string, fn func(p *Parser) (T, error)) (T, error) {
	var zero T
	p, err := NewParser(src)
	if err != nil {
		return zero, err
	}
	v, err := fn(p)
	if err != nil {
		return zero, err
	}
	if !p.AtEOF() {
		return zero, p.Errorf(p.Peek(), "unexpected %s", p.Peek())
	}
	return v, nil
}

// ParseType parses src as a single type.
func ParseType(src string) (Type, error) {
	return parseAll(src, (*Parser).ParseType)
}

// ParsePath parses src as a single path.
func ParsePath(src string) (*Path, error) {
	return parseAll(src, (*Parser).ParsePath)
}

// ParseGenerics parses src as `<params> [where predicates]`.
func ParseGenerics(src string) (*Generics, error) {
	return parseAll(src, func(p *Parser) (*Generics, error) {
		g, err := p.ParseGenerics()
		if err != nil {
			return nil, err
		}
		if g.Where, err = p.ParseWhereClause(); err != nil {
			return nil, err
		}
		return g, nil
	})
}

// ParseWhere parses src as a predicate list, with or without the `where` keyword.
func ParseWhere(src string) (*WhereClause, error) {
	return parseAll(src, func(p *Parser) (*WhereClause, error) {
		p.Eat("where")
		return p.ParsePredicates()
	})
}
