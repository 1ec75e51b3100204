package engine

import "strings"

// kwPrefix marks a keyword that preprocessSource turned into a string.
const kwPrefix = "__kw_"

// preprocessSource rewrites scene source into something zygomys accepts:
//
//  1. :keyword becomes the string "__kw_keyword". Keywords never collide
//     with user variables and need no global registration.
//  2. Hyphens inside identifiers become underscores, so
//     (def slice-depth 3) defines slice_depth. zygomys reads a bare
//     hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	p := preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.i < len(p.src) {
		switch c := p.src[p.i]; {
		case c == '"':
			p.copyQuoted('"', true)
		case c == '`':
			p.copyQuoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.i+1 < len(p.src) && p.src[p.i+1] == '=':
			p.emit(2)
		case c == ':' && p.i+1 < len(p.src) && isLetter(p.src[p.i+1]):
			p.keyword()
		case c == '-' && p.i > 0 && p.i+1 < len(p.src) &&
			isIdentChar(p.src[p.i-1]) && isLetter(p.src[p.i+1]):
			p.out.WriteByte('_')
			p.i++
		default:
			p.emit(1)
		}
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	i   int
	out strings.Builder
}

func (p *preprocessor) emit(n int) {
	n = min(n, len(p.src)-p.i)
	p.out.WriteString(p.src[p.i : p.i+n])
	p.i += n
}

// copyQuoted copies a literal delimited by q, including both delimiters.
func (p *preprocessor) copyQuoted(q byte, escapes bool) {
	p.emit(1)
	for p.i < len(p.src) && p.src[p.i] != q {
		if escapes && p.src[p.i] == '\\' {
			p.emit(2)
			continue
		}
		p.emit(1)
	}
	p.emit(1)
}

func (p *preprocessor) comment() {
	p.out.WriteString("//")
	for p.i < len(p.src) && p.src[p.i] == ';' {
		p.i++
	}
	for p.i < len(p.src) && p.src[p.i] != '\n' {
		p.emit(1)
	}
}

func (p *preprocessor) keyword() {
	j := p.i + 1
	for j < len(p.src) && isKWChar(p.src[j]) {
		j++
	}
	p.out.WriteByte('"')
	p.out.WriteString(kwPrefix)
	p.out.WriteString(p.src[p.i+1 : j])
	p.out.WriteByte('"')
	p.i = j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
