package mapping

import "strings"

// RemapSignature rewrites every class name in a JVM descriptor or generic
// signature through mapClass. Inner class suffixes of parameterized types
// (Outer<TT;>.Inner) are rewritten to the simple name of the mapped inner
// class. Malformed input is returned unchanged.
func RemapSignature(sig string, mapClass func(string) string) string {
	if strings.IndexByte(sig, 'L') < 0 {
		return sig
	}
	p := &sigParser{s: sig, mapClass: mapClass}
	p.out.Grow(len(sig))
	if !p.run() {
		return sig
	}
	return p.out.String()
}

type sigParser struct {
	s        string
	i        int
	out      strings.Builder
	mapClass func(string) string
}

func (p *sigParser) run() bool {
	if p.peek() == '<' && !p.formalTypeParameters() {
		return false
	}
	for p.i < len(p.s) {
		if !p.any() {
			return false
		}
	}
	return true
}

func (p *sigParser) peek() byte {
	if p.i < len(p.s) {
		return p.s[p.i]
	}
	return 0
}

func (p *sigParser) copyByte() {
	p.out.WriteByte(p.s[p.i])
	p.i++
}

// any consumes one element at top level: a type or structural punctuation.
func (p *sigParser) any() bool {
	switch p.peek() {
	case 'L', 'T', '[':
		return p.typeSignature()
	default:
		p.copyByte()
		return true
	}
}

// formalTypeParameters handles <K:Ljava/lang/Object;V::Ljava/lang/Comparable;>.
func (p *sigParser) formalTypeParameters() bool {
	p.copyByte() // '<'
	for p.peek() != '>' {
		if p.i >= len(p.s) {
			return false
		}
		end := strings.IndexByte(p.s[p.i:], ':')
		if end <= 0 {
			return false
		}
		p.out.WriteString(p.s[p.i : p.i+end])
		p.i += end
		for p.peek() == ':' {
			p.copyByte()
			switch p.peek() {
			case 'L', 'T', '[':
				if !p.typeSignature() {
					return false
				}
			}
		}
	}
	p.copyByte() // '>'
	return true
}

func (p *sigParser) typeSignature() bool {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		end := strings.IndexByte(p.s[p.i:], ';')
		if end < 0 {
			return false
		}
		p.out.WriteString(p.s[p.i : p.i+end+1])
		p.i += end + 1
		return true
	case '[':
		p.copyByte()
		return p.typeSignature()
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		p.copyByte()
		return true
	default:
		return false
	}
}

func (p *sigParser) className() (string, bool) {
	start := p.i
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case '<', ';', '.':
			return p.s[start:p.i], p.i > start
		}
		p.i++
	}
	return "", false
}

func (p *sigParser) classType() bool {
	p.copyByte() // 'L'
	outer, ok := p.className()
	if !ok {
		return false
	}
	p.out.WriteString(p.mapClass(outer))

	for {
		switch p.peek() {
		case '<':
			if !p.typeArguments() {
				return false
			}
		case '.':
			p.copyByte()
			simple, ok := p.className()
			if !ok {
				return false
			}
			full := outer + "$" + simple
			p.out.WriteString(innerSimpleName(p.mapClass(outer), p.mapClass(full)))
			outer = full
		case ';':
			p.copyByte()
			return true
		default:
			return false
		}
	}
}

func (p *sigParser) typeArguments() bool {
	p.copyByte() // '<'
	for p.peek() != '>' {
		switch p.peek() {
		case 0:
			return false
		case '*':
			p.copyByte()
		case '+', '-':
			p.copyByte()
			if !p.typeSignature() {
				return false
			}
		default:
			if !p.typeSignature() {
				return false
			}
		}
	}
	p.copyByte() // '>'
	return true
}

// innerSimpleName derives the simple name used after '.' in a signature.
func innerSimpleName(mappedOuter, mappedInner string) string {
	if strings.HasPrefix(mappedInner, mappedOuter+"$") {
		return mappedInner[len(mappedOuter)+1:]
	}
	if i := strings.LastIndexAny(mappedInner, "$/"); i >= 0 {
		return mappedInner[i+1:]
	}
	return mappedInner
}
