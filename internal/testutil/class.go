package testutil

import "encoding/binary"

// Class describes a minimal class file. Methods get a one-instruction Code
// attribute so local variable tables can be attached.
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Access     uint16

	Fields  []Field
	Methods []Method

	// Refs adds member reference constants, as if the class called them.
	Refs []Ref

	// Strings adds string literal constants.
	Strings []string

	Signature   string
	SourceFile  string
	Annotations []string
	Inner       []InnerClass
}

// Field is a field declaration.
type Field struct {
	Name      string
	Desc      string
	Signature string
	Access    uint16
}

// Method is a method declaration.
type Method struct {
	Name   string
	Desc   string
	Access uint16
	Locals []Local
}

// Local is a LocalVariableTable entry covering the whole method body.
type Local struct {
	Name      string
	Desc      string
	Signature string
	Index     uint16
}

// Ref is a field or method reference constant.
type Ref struct {
	Field bool
	Owner string
	Name  string
	Desc  string
}

// InnerClass is an InnerClasses attribute entry.
type InnerClass struct {
	Inner  string
	Outer  string
	Simple string
}

// Access flags used by tests.
const (
	AccPublic = 0x0001
	AccStatic = 0x0008
)

type classPool struct {
	b     []byte
	count uint16
	index map[string]uint16
}

func (p *classPool) add(key string, entry []byte) uint16 {
	if i, ok := p.index[key]; ok {
		return i
	}
	p.b = append(p.b, entry...)
	i := p.count
	p.count++
	p.index[key] = i
	return i
}

func (p *classPool) utf8(s string) uint16 {
	e := []byte{1}
	e = binary.BigEndian.AppendUint16(e, uint16(len(s)))
	e = append(e, s...)
	return p.add("u:"+s, e)
}

func (p *classPool) class(name string) uint16 {
	n := p.utf8(name)
	return p.add("c:"+name, binary.BigEndian.AppendUint16([]byte{7}, n))
}

func (p *classPool) str(s string) uint16 {
	n := p.utf8(s)
	return p.add("s:"+s, binary.BigEndian.AppendUint16([]byte{8}, n))
}

func (p *classPool) nat(name, desc string) uint16 {
	n, d := p.utf8(name), p.utf8(desc)
	e := binary.BigEndian.AppendUint16([]byte{12}, n)
	e = binary.BigEndian.AppendUint16(e, d)
	return p.add("n:"+name+":"+desc, e)
}

func (p *classPool) ref(r Ref) uint16 {
	tag := byte(10)
	if r.Field {
		tag = 9
	}
	c, n := p.class(r.Owner), p.nat(r.Name, r.Desc)
	e := binary.BigEndian.AppendUint16([]byte{tag}, c)
	e = binary.BigEndian.AppendUint16(e, n)
	return p.add("r:"+r.Owner+"."+r.Name+r.Desc, e)
}

type buf []byte

func (b *buf) u2(v uint16) { *b = binary.BigEndian.AppendUint16(*b, v) }
func (b *buf) u4(v uint32) { *b = binary.BigEndian.AppendUint32(*b, v) }

func (b *buf) attr(p *classPool, name string, data []byte) {
	b.u2(p.utf8(name))
	b.u4(uint32(len(data)))
	*b = append(*b, data...)
}

// Bytes encodes the class as Java 8 (major 52) bytecode.
func (c Class) Bytes() []byte {
	p := &classPool{count: 1, index: map[string]uint16{}}

	super := c.Super
	if super == "" {
		super = "java/lang/Object"
	}
	access := c.Access
	if access == 0 {
		access = AccPublic
	}

	var body buf
	body.u2(access)
	body.u2(p.class(c.Name))
	body.u2(p.class(super))
	body.u2(uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		body.u2(p.class(i))
	}

	body.u2(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		body.u2(f.Access)
		body.u2(p.utf8(f.Name))
		body.u2(p.utf8(f.Desc))
		if f.Signature == "" {
			body.u2(0)
			continue
		}
		body.u2(1)
		var sig buf
		sig.u2(p.utf8(f.Signature))
		body.attr(p, "Signature", sig)
	}

	body.u2(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		body.u2(m.Access)
		body.u2(p.utf8(m.Name))
		body.u2(p.utf8(m.Desc))
		body.u2(1)

		var code buf
		code.u2(1)
		code.u2(uint16(len(m.Locals) + 1))
		code.u4(1)
		code = append(code, 0xb1) // return
		code.u2(0)

		var typed []Local
		for _, l := range m.Locals {
			if l.Signature != "" {
				typed = append(typed, l)
			}
		}
		nested := uint16(0)
		if len(m.Locals) > 0 {
			nested++
		}
		if len(typed) > 0 {
			nested++
		}
		code.u2(nested)
		if len(m.Locals) > 0 {
			var lvt buf
			lvt.u2(uint16(len(m.Locals)))
			for _, l := range m.Locals {
				lvt.u2(0)
				lvt.u2(1)
				lvt.u2(p.utf8(l.Name))
				lvt.u2(p.utf8(l.Desc))
				lvt.u2(l.Index)
			}
			code.attr(p, "LocalVariableTable", lvt)
		}
		if len(typed) > 0 {
			var lvtt buf
			lvtt.u2(uint16(len(typed)))
			for _, l := range typed {
				lvtt.u2(0)
				lvtt.u2(1)
				lvtt.u2(p.utf8(l.Name))
				lvtt.u2(p.utf8(l.Signature))
				lvtt.u2(l.Index)
			}
			code.attr(p, "LocalVariableTypeTable", lvtt)
		}
		body.attr(p, "Code", code)
	}

	for _, r := range c.Refs {
		p.ref(r)
	}
	for _, s := range c.Strings {
		p.str(s)
	}

	var attrs buf
	n := uint16(0)
	if c.Signature != "" {
		var sig buf
		sig.u2(p.utf8(c.Signature))
		attrs.attr(p, "Signature", sig)
		n++
	}
	if c.SourceFile != "" {
		var sf buf
		sf.u2(p.utf8(c.SourceFile))
		attrs.attr(p, "SourceFile", sf)
		n++
	}
	if len(c.Annotations) > 0 {
		var an buf
		an.u2(uint16(len(c.Annotations)))
		for _, a := range c.Annotations {
			an.u2(p.utf8(a))
			an.u2(0)
		}
		attrs.attr(p, "RuntimeVisibleAnnotations", an)
		n++
	}
	if len(c.Inner) > 0 {
		var ic buf
		ic.u2(uint16(len(c.Inner)))
		for _, i := range c.Inner {
			ic.u2(p.class(i.Inner))
			if i.Outer != "" {
				ic.u2(p.class(i.Outer))
			} else {
				ic.u2(0)
			}
			if i.Simple != "" {
				ic.u2(p.utf8(i.Simple))
			} else {
				ic.u2(0)
			}
			ic.u2(AccPublic | AccStatic)
		}
		attrs.attr(p, "InnerClasses", ic)
		n++
	}
	body.u2(n)
	body = append(body, attrs...)

	var out buf
	out.u4(0xCAFEBABE)
	out.u2(0)
	out.u2(52)
	out.u2(p.count)
	out = append(out, p.b...)
	out = append(out, body...)
	return out
}
