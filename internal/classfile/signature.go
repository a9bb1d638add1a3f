package classfile

import "strings"

// MapSignature rewrites every class name embedded in a field or method
// descriptor, or in a generic signature. Inner classes written as
// "Outer<..>.Inner" are mapped as "Outer$Inner". Malformed input is
// returned unchanged.
func MapSignature(sig string, mapType func(string) string) string {
	if !strings.ContainsRune(sig, 'L') {
		return sig
	}
	p := sigParser{in: sig, mapType: mapType}
	if !p.signature() || p.pos != len(p.in) {
		return sig
	}
	return p.out.String()
}

type sigParser struct {
	in      string
	pos     int
	out     strings.Builder
	mapType func(string) string
}

func (p *sigParser) peek() byte {
	if p.pos < len(p.in) {
		return p.in[p.pos]
	}
	return 0
}

func (p *sigParser) copyByte() {
	p.out.WriteByte(p.in[p.pos])
	p.pos++
}

func (p *sigParser) signature() bool {
	if p.peek() == '<' && !p.formals() {
		return false
	}
	if p.peek() == '(' {
		p.copyByte()
		for p.peek() != ')' {
			if !p.typeSig() {
				return false
			}
		}
		p.copyByte()
		if !p.typeSig() {
			return false
		}
		for p.peek() == '^' {
			p.copyByte()
			if !p.typeSig() {
				return false
			}
		}
		return true
	}
	for p.pos < len(p.in) {
		if !p.typeSig() {
			return false
		}
	}
	return true
}

// formals copies "<T:bound;U::iface;>".
func (p *sigParser) formals() bool {
	p.copyByte()
	for p.peek() != '>' {
		colon := strings.IndexByte(p.in[p.pos:], ':')
		if colon <= 0 {
			return false
		}
		p.out.WriteString(p.in[p.pos : p.pos+colon])
		p.pos += colon
		for p.peek() == ':' {
			p.copyByte()
			if c := p.peek(); c == 'L' || c == '[' || c == 'T' {
				if !p.typeSig() {
					return false
				}
			}
		}
	}
	p.copyByte()
	return true
}

func (p *sigParser) typeSig() bool {
	switch p.peek() {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		p.copyByte()
		return true
	case '[':
		p.copyByte()
		return p.typeSig()
	case 'T':
		end := strings.IndexByte(p.in[p.pos:], ';')
		if end < 0 {
			return false
		}
		p.out.WriteString(p.in[p.pos : p.pos+end+1])
		p.pos += end + 1
		return true
	case 'L':
		return p.classType()
	}
	return false
}

func (p *sigParser) ident() (string, bool) {
	end := strings.IndexAny(p.in[p.pos:], ";<.")
	if end <= 0 {
		return "", false
	}
	s := p.in[p.pos : p.pos+end]
	p.pos += end
	return s, true
}

func (p *sigParser) classType() bool {
	p.copyByte()
	name, ok := p.ident()
	if !ok {
		return false
	}
	mapped := p.mapType(name)
	p.out.WriteString(mapped)
	for {
		switch p.peek() {
		case ';':
			p.copyByte()
			return true
		case '<':
			if !p.typeArgs() {
				return false
			}
		case '.':
			p.copyByte()
			inner, ok := p.ident()
			if !ok {
				return false
			}
			full := name + "$" + inner
			mappedFull := p.mapType(full)
			if strings.HasPrefix(mappedFull, mapped+"$") {
				inner = mappedFull[len(mapped)+1:]
			}
			p.out.WriteString(inner)
			name, mapped = full, mappedFull
		default:
			return false
		}
	}
}

func (p *sigParser) typeArgs() bool {
	p.copyByte()
	for p.peek() != '>' {
		switch p.peek() {
		case 0:
			return false
		case '*':
			p.copyByte()
			continue
		case '+', '-':
			p.copyByte()
		}
		if !p.typeSig() {
			return false
		}
	}
	p.copyByte()
	return true
}
