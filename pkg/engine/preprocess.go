package engine

import "strings"

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites jitter script source before handing it to
// zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords
//     never collide with user variables.
//  2. Kebab-case identifiers become snake case (set-min -> set_min),
//     since zygomys reads a hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals (double-quoted and backtick) pass through untouched.
func preprocessSource(source string) string {
	p := &preprocessor{src: source}
	p.out.Grow(len(source) + len(source)/4)
	for p.i < len(p.src) {
		switch c := p.src[p.i]; {
		case c == '"':
			p.copyString('"', true)
		case c == '`':
			p.copyString('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.keyword():
		case c == '-' && p.kebab():
		default:
			p.out.WriteByte(c)
			p.i++
		}
	}
	return p.out.String()
}

type preprocessor struct {
	src string
	i   int
	out strings.Builder
}

func (p *preprocessor) copyString(quote byte, escapes bool) {
	p.out.WriteByte(quote)
	p.i++
	for p.i < len(p.src) && p.src[p.i] != quote {
		if escapes && p.src[p.i] == '\\' && p.i+1 < len(p.src) {
			p.out.WriteString(p.src[p.i : p.i+2])
			p.i += 2
			continue
		}
		p.out.WriteByte(p.src[p.i])
		p.i++
	}
	if p.i < len(p.src) {
		p.out.WriteByte(quote)
		p.i++
	}
}

func (p *preprocessor) comment() {
	p.out.WriteString("//")
	for p.i < len(p.src) && p.src[p.i] == ';' {
		p.i++
	}
	for p.i < len(p.src) && p.src[p.i] != '\n' {
		p.out.WriteByte(p.src[p.i])
		p.i++
	}
}

// keyword rewrites a keyword at p.i and reports whether it did.
func (p *preprocessor) keyword() bool {
	if p.i+1 >= len(p.src) {
		return false
	}
	if p.src[p.i+1] == '=' {
		p.out.WriteString(":=")
		p.i += 2
		return true
	}
	if !isLetter(p.src[p.i+1]) {
		return false
	}
	j := p.i + 1
	for j < len(p.src) && isKWChar(p.src[j]) {
		j++
	}
	p.out.WriteByte('"')
	p.out.WriteString(kwPrefix)
	p.out.WriteString(p.src[p.i+1 : j])
	p.out.WriteByte('"')
	p.i = j
	return true
}

// kebab rewrites a hyphen that sits inside an identifier.
func (p *preprocessor) kebab() bool {
	if p.i == 0 || p.i+1 >= len(p.src) || !isIdentChar(p.src[p.i-1]) || !isLetter(p.src[p.i+1]) {
		return false
	}
	p.out.WriteByte('_')
	p.i++
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
