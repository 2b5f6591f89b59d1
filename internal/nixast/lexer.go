package nixast

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokAssign
	tokSemi
	tokDot
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokColon
	tokLet
	tokIn
	tokRec
	tokInherit
	tokOther
)

type token struct {
	kind tokenKind
	text string
	// for tokString: byte span of the content between the quotes
	start, end   int
	line         int
	interpolated bool
}

type lexer struct {
	src      string
	pos      int
	line     int
	tokens   []token
	comments map[int]string
}

func lex(src string) ([]token, map[int]string, error) {
	l := &lexer{src: src, line: 1, comments: make(map[int]string)}
	if err := l.run(); err != nil {
		return nil, nil, err
	}
	l.emit(token{kind: tokEOF, line: l.line})
	return l.tokens, l.comments, nil
}

func (l *lexer) emit(t token) { l.tokens = append(l.tokens, t) }

func (l *lexer) run() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			l.lexLineComment()
		case c == '/' && l.peekAt(1) == '*':
			l.lexBlockComment()
		case c == '"':
			if err := l.lexString(); err != nil {
				return err
			}
		case c == '\'' && l.peekAt(1) == '\'':
			if err := l.lexIndentedString(); err != nil {
				return err
			}
		case isIdentStart(c):
			l.lexIdent()
		case c >= '0' && c <= '9':
			l.lexNumber()
		default:
			l.lexPunct()
		}
	}
	return nil
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) lexLineComment() {
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
	if _, exists := l.comments[l.line]; !exists {
		l.comments[l.line] = l.src[start:l.pos]
	}
}

func (l *lexer) lexBlockComment() {
	start := l.pos
	startLine := l.line
	l.pos += 2
	for l.pos < len(l.src) {
		if l.src[l.pos] == '*' && l.peekAt(1) == '/' {
			l.pos += 2
			break
		}
		if l.src[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
	if _, exists := l.comments[startLine]; !exists {
		l.comments[startLine] = l.src[start:l.pos]
	}
}

func (l *lexer) lexString() error {
	startLine := l.line
	l.pos++ // opening quote
	contentStart := l.pos
	interpolated := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\':
			l.pos += 2
		case c == '$' && l.peekAt(1) == '{':
			interpolated = true
			l.skipInterpolation()
		case c == '"':
			l.emit(token{
				kind:         tokString,
				text:         l.src[contentStart:l.pos],
				start:        contentStart,
				end:          l.pos,
				line:         startLine,
				interpolated: interpolated,
			})
			l.pos++
			return nil
		case c == '\n':
			l.line++
			l.pos++
		default:
			l.pos++
		}
	}
	return fmt.Errorf("unterminated string starting at line %d", startLine)
}

func (l *lexer) lexIndentedString() error {
	startLine := l.line
	l.pos += 2
	contentStart := l.pos
	interpolated := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\'' && l.peekAt(1) == '\'':
			if l.peekAt(2) == '\'' || l.peekAt(2) == '$' {
				// escaped quote or escaped interpolation
				l.pos += 3
				continue
			}
			l.emit(token{
				kind:         tokString,
				text:         l.src[contentStart:l.pos],
				start:        contentStart,
				end:          l.pos,
				line:         startLine,
				interpolated: interpolated,
			})
			l.pos += 2
			return nil
		case c == '$' && l.peekAt(1) == '{':
			interpolated = true
			l.skipInterpolation()
		case c == '\n':
			l.line++
			l.pos++
		default:
			l.pos++
		}
	}
	return fmt.Errorf("unterminated indented string starting at line %d", startLine)
}

// skipInterpolation consumes a ${...} fragment, balancing braces and
// stepping over nested plain strings.
func (l *lexer) skipInterpolation() {
	l.pos += 2
	depth := 1
	for l.pos < len(l.src) && depth > 0 {
		switch l.src[l.pos] {
		case '{':
			depth++
			l.pos++
		case '}':
			depth--
			l.pos++
		case '"':
			l.pos++
			for l.pos < len(l.src) && l.src[l.pos] != '"' {
				if l.src[l.pos] == '\\' {
					l.pos++
				}
				if l.pos < len(l.src) && l.src[l.pos] == '\n' {
					l.line++
				}
				l.pos++
			}
			l.pos++
		case '\n':
			l.line++
			l.pos++
		default:
			l.pos++
		}
	}
}

func (l *lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	kind := tokIdent
	switch text {
	case "let":
		kind = tokLet
	case "in":
		kind = tokIn
	case "rec":
		kind = tokRec
	case "inherit":
		kind = tokInherit
	}
	l.emit(token{kind: kind, text: text, line: l.line})
}

func (l *lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9' || l.src[l.pos] == '.') {
		l.pos++
	}
	l.emit(token{kind: tokOther, text: l.src[start:l.pos], line: l.line})
}

func (l *lexer) lexPunct() {
	line := l.line
	c := l.src[l.pos]

	// two-char operators that would otherwise collide with = and .
	if two := l.src[l.pos:min(l.pos+2, len(l.src))]; len(two) == 2 {
		switch two {
		case "==", "!=", "<=", ">=", "->", "//", "++", "||", "&&":
			l.pos += 2
			l.emit(token{kind: tokOther, text: two, line: line})
			return
		}
	}

	l.pos++
	switch c {
	case '=':
		l.emit(token{kind: tokAssign, text: "=", line: line})
	case ';':
		l.emit(token{kind: tokSemi, text: ";", line: line})
	case '.':
		l.emit(token{kind: tokDot, text: ".", line: line})
	case '{':
		l.emit(token{kind: tokLBrace, text: "{", line: line})
	case '}':
		l.emit(token{kind: tokRBrace, text: "}", line: line})
	case '(':
		l.emit(token{kind: tokLParen, text: "(", line: line})
	case ')':
		l.emit(token{kind: tokRParen, text: ")", line: line})
	case '[':
		l.emit(token{kind: tokLBracket, text: "[", line: line})
	case ']':
		l.emit(token{kind: tokRBracket, text: "]", line: line})
	case ':':
		l.emit(token{kind: tokColon, text: ":", line: line})
	default:
		l.emit(token{kind: tokOther, text: string(c), line: line})
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '\''
}
