// Package nixast is a tolerant Nix expression parser. It recovers the
// binding tree (attrsets, let-bindings, attrpaths) and string literals with
// their byte spans, and skips everything else. Tolerance is the point:
// scanners need the bindings of arbitrary real-world Nix files, not a full
// evaluator, and a construct the parser does not model must never abort the
// parse.
package nixast

import "sort"

type NodeKind int

const (
	// KindOther is any expression the parser does not model. Attrsets,
	// strings and lets found inside it are kept as children.
	KindOther NodeKind = iota
	KindString
	KindAttrSet
	KindLet
)

// Node is one parsed expression.
type Node struct {
	Kind NodeKind

	// KindString: literal content between the quotes and its byte span.
	Value        string
	Start, End   int
	Interpolated bool
	Line         int

	// KindAttrSet and KindLet
	Bindings []*Binding

	// KindLet body, KindOther sub-expressions
	Children []*Node
}

// Binding is one `attrpath = value;` occurrence.
type Binding struct {
	Path  []string
	Value *Node
	Line  int
}

// File is a parsed Nix source file.
type File struct {
	Root *Node
	// Comments maps 1-based line number to raw comment text (marker included).
	Comments map[int]string
}

// Parse parses Nix source tolerantly. The only hard failure is an
// unterminated string literal.
func Parse(src string) (*File, error) {
	tokens, comments, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root := p.parseValue()
	return &File{Root: root, Comments: comments}, nil
}

// Walk visits every binding in the file depth-first, in source order.
func (f *File) Walk(fn func(*Binding)) {
	walkNode(f.Root, fn)
}

func walkNode(n *Node, fn func(*Binding)) {
	if n == nil {
		return
	}
	for _, b := range n.Bindings {
		fn(b)
		walkNode(b.Value, fn)
	}
	for _, c := range n.Children {
		walkNode(c, fn)
	}
}

// Binding returns the first direct binding of an attrset/let node whose
// attrpath is exactly the given segments, or nil.
func (n *Node) Binding(segments ...string) *Binding {
	for _, b := range n.Bindings {
		if pathEqual(b.Path, segments) {
			return b
		}
	}
	return nil
}

// AttrSets returns n itself when it is an attrset, otherwise the attrsets
// directly nested in an unmodeled expression (e.g. the argument of
// `stdenv.mkDerivation { ... }`).
func (n *Node) AttrSets() []*Node {
	if n == nil {
		return nil
	}
	if n.Kind == KindAttrSet {
		return []*Node{n}
	}
	var sets []*Node
	for _, c := range n.Children {
		if c.Kind == KindAttrSet {
			sets = append(sets, c)
		}
	}
	return sets
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Edit is a span replacement against the original source.
type Edit struct {
	Start, End int
	Text       string
}

// ApplyEdits applies span replacements in descending offset order so earlier
// spans stay valid while later ones are rewritten.
func ApplyEdits(src string, edits []Edit) string {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	out := src
	for _, e := range sorted {
		out = out[:e.Start] + e.Text + out[e.End:]
	}
	return out
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.advance()
	return t
}

func (p *parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *parser) at(k tokenKind) bool { return p.peek().kind == k }

// parseValue collects expression atoms until a terminator (`;`, a closing
// delimiter, `in` or EOF). A lone atom is returned as-is; anything more
// becomes a KindOther node carrying the interesting children.
func (p *parser) parseValue() *Node {
	var children []*Node
	pendingSemis := 0 // semicolons owned by `with`/`assert` heads

	for {
		t := p.peek()
		switch t.kind {
		case tokEOF, tokRBrace, tokRParen, tokRBracket, tokIn:
			return collapse(children)
		case tokSemi:
			if pendingSemis > 0 {
				pendingSemis--
				p.advance()
				continue
			}
			return collapse(children)
		case tokString:
			p.advance()
			children = append(children, &Node{
				Kind:         KindString,
				Value:        t.text,
				Start:        t.start,
				End:          t.end,
				Interpolated: t.interpolated,
				Line:         t.line,
			})
		case tokLBrace:
			if n := p.parseBraced(); n != nil {
				children = append(children, n)
			}
		case tokRec:
			p.advance()
			if p.at(tokLBrace) {
				children = append(children, p.parseAttrSet())
			}
		case tokLet:
			children = append(children, p.parseLet())
		case tokLParen:
			p.advance()
			if inner := p.parseValue(); inner != nil {
				children = append(children, inner)
			}
			if p.at(tokRParen) {
				p.advance()
			}
		case tokLBracket:
			p.advance()
			if inner := p.parseValue(); inner != nil {
				children = append(children, inner)
			}
			if p.at(tokRBracket) {
				p.advance()
			}
		case tokIdent:
			if t.text == "with" || t.text == "assert" {
				pendingSemis++
			}
			p.advance()
		default:
			p.advance()
		}
	}
}

func collapse(children []*Node) *Node {
	switch len(children) {
	case 0:
		return &Node{Kind: KindOther}
	case 1:
		return children[0]
	default:
		return &Node{Kind: KindOther, Children: children}
	}
}

// parseBraced disambiguates `{ ... }` between an attrset and a lambda
// pattern. A pattern is followed by `:` (optionally through `@name`); its
// tokens are skipped and nil is returned so the body flows into the caller.
func (p *parser) parseBraced() *Node {
	if p.isLambdaPattern() {
		p.skipBalancedBraces()
		if p.peek().text == "@" {
			p.advance()
			if p.at(tokIdent) {
				p.advance()
			}
		}
		if p.at(tokColon) {
			p.advance()
		}
		return nil
	}
	return p.parseAttrSet()
}

func (p *parser) isLambdaPattern() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
			if depth == 0 {
				j := i + 1
				if j < len(p.tokens) && p.tokens[j].text == "@" {
					j += 2
				}
				return j < len(p.tokens) && p.tokens[j].kind == tokColon
			}
		case tokEOF:
			return false
		}
	}
	return false
}

func (p *parser) skipBalancedBraces() {
	depth := 0
	for {
		t := p.next()
		switch t.kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
			if depth == 0 {
				return
			}
		case tokEOF:
			return
		}
	}
}

func (p *parser) parseAttrSet() *Node {
	p.advance() // {
	bindings := p.parseBindings(tokRBrace)
	if p.at(tokRBrace) {
		p.advance()
	}
	return &Node{Kind: KindAttrSet, Bindings: bindings}
}

func (p *parser) parseLet() *Node {
	p.advance() // let
	bindings := p.parseBindings(tokIn)
	if p.at(tokIn) {
		p.advance()
	}
	body := p.parseValue()
	return &Node{Kind: KindLet, Bindings: bindings, Children: []*Node{body}}
}

func (p *parser) parseBindings(terminator tokenKind) []*Binding {
	var bindings []*Binding
	for {
		t := p.peek()
		if t.kind == terminator || t.kind == tokEOF {
			return bindings
		}
		switch t.kind {
		case tokInherit:
			p.skipToSemi(terminator)
		case tokIdent, tokString:
			line := t.line
			path, ok := p.parseAttrPath()
			if !ok || !p.at(tokAssign) {
				p.skipToSemi(terminator)
				continue
			}
			p.advance() // =
			value := p.parseValue()
			if p.at(tokSemi) {
				p.advance()
			}
			bindings = append(bindings, &Binding{Path: path, Value: value, Line: line})
		default:
			p.advance()
		}
	}
}

func (p *parser) parseAttrPath() ([]string, bool) {
	var path []string
	seg := p.next()
	path = append(path, seg.text)
	for p.at(tokDot) {
		p.advance()
		t := p.peek()
		if t.kind != tokIdent && t.kind != tokString {
			return nil, false
		}
		p.advance()
		path = append(path, t.text)
	}
	return path, true
}

func (p *parser) skipToSemi(terminator tokenKind) {
	depth := 0
	for {
		t := p.peek()
		switch t.kind {
		case tokEOF:
			return
		case tokLBrace, tokLParen, tokLBracket:
			depth++
		case tokRBrace, tokRParen, tokRBracket:
			if depth == 0 {
				return
			}
			depth--
		case tokSemi:
			if depth == 0 {
				p.advance()
				return
			}
		default:
			if t.kind == terminator && depth == 0 {
				return
			}
		}
		p.advance()
	}
}
