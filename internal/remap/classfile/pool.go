// Package classfile is a pure-Go remap engine operating directly on JVM
// class files. Existing constant pool entries are never modified in a way
// that changes their meaning for other users: renamed strings are appended as
// new UTF8 entries and only the referencing indices are repointed.
package classfile

import (
	"encoding/binary"
	"fmt"
)

// Constant pool tags.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

const maxPoolSize = 0xFFFF

// Constant is one constant pool slot. A and B hold index operands; Raw holds
// literal payloads (numbers, method handle kind).
type Constant struct {
	Tag  byte
	Utf8 string
	A, B uint16
	Raw  []byte
}

// Pool is a constant pool. Index 0 and the second slot of long/double
// entries are unusable placeholders with Tag 0.
type Pool struct {
	entries []Constant
	utf8    map[string]uint16
	nat     map[[2]uint16]uint16
	classes map[uint16]uint16
}

func newPool(n int) *Pool {
	return &Pool{
		entries: make([]Constant, 1, n),
		utf8:    map[string]uint16{},
		nat:     map[[2]uint16]uint16{},
		classes: map[uint16]uint16{},
	}
}

// Len returns the constant_pool_count value.
func (p *Pool) Len() int {
	return len(p.entries)
}

// At returns the entry at index i.
func (p *Pool) At(i uint16) (*Constant, error) {
	if i == 0 || int(i) >= len(p.entries) || p.entries[i].Tag == 0 {
		return nil, fmt.Errorf("invalid constant pool index %d", i)
	}
	return &p.entries[i], nil
}

// Utf8At returns the string stored at a UTF8 entry.
func (p *Pool) Utf8At(i uint16) (string, error) {
	c, err := p.At(i)
	if err != nil {
		return "", err
	}
	if c.Tag != TagUtf8 {
		return "", fmt.Errorf("constant %d is tag %d, want utf8", i, c.Tag)
	}
	return c.Utf8, nil
}

// ClassNameAt returns the internal name referenced by a Class entry.
func (p *Pool) ClassNameAt(i uint16) (string, error) {
	c, err := p.At(i)
	if err != nil {
		return "", err
	}
	if c.Tag != TagClass {
		return "", fmt.Errorf("constant %d is tag %d, want class", i, c.Tag)
	}
	return p.Utf8At(c.A)
}

// NameAndTypeAt returns the name and descriptor of a NameAndType entry.
func (p *Pool) NameAndTypeAt(i uint16) (name, desc string, err error) {
	c, err := p.At(i)
	if err != nil {
		return "", "", err
	}
	if c.Tag != TagNameAndType {
		return "", "", fmt.Errorf("constant %d is tag %d, want name and type", i, c.Tag)
	}
	if name, err = p.Utf8At(c.A); err != nil {
		return "", "", err
	}
	desc, err = p.Utf8At(c.B)
	return name, desc, err
}

func (p *Pool) add(c Constant) (uint16, error) {
	if len(p.entries) >= maxPoolSize {
		return 0, fmt.Errorf("constant pool overflow")
	}
	p.entries = append(p.entries, c)
	return uint16(len(p.entries) - 1), nil
}

// AddUtf8 returns the index of a UTF8 entry holding s, appending one when
// needed.
func (p *Pool) AddUtf8(s string) (uint16, error) {
	if i, ok := p.utf8[s]; ok {
		return i, nil
	}
	i, err := p.add(Constant{Tag: TagUtf8, Utf8: s})
	if err != nil {
		return 0, err
	}
	p.utf8[s] = i
	return i, nil
}

// AddNameAndType returns the index of a NameAndType entry for name and desc.
func (p *Pool) AddNameAndType(name, desc string) (uint16, error) {
	ni, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	di, err := p.AddUtf8(desc)
	if err != nil {
		return 0, err
	}
	key := [2]uint16{ni, di}
	if i, ok := p.nat[key]; ok {
		return i, nil
	}
	i, err := p.add(Constant{Tag: TagNameAndType, A: ni, B: di})
	if err != nil {
		return 0, err
	}
	p.nat[key] = i
	return i, nil
}

// AddClass returns the index of a Class entry for an internal name.
func (p *Pool) AddClass(name string) (uint16, error) {
	ni, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	if i, ok := p.classes[ni]; ok {
		return i, nil
	}
	i, err := p.add(Constant{Tag: TagClass, A: ni})
	if err != nil {
		return 0, err
	}
	p.classes[ni] = i
	return i, nil
}

func parsePool(r *reader) (*Pool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	if count == 0 {
		return nil, fmt.Errorf("empty constant pool")
	}
	p := newPool(count + 16)

	for i := 1; i < count; i++ {
		tag := r.u1()
		c := Constant{Tag: tag}
		switch tag {
		case TagUtf8:
			n := int(r.u2())
			c.Utf8 = string(r.bytes(n))
		case TagInteger, TagFloat:
			c.Raw = r.bytes(4)
		case TagLong, TagDouble:
			c.Raw = r.bytes(8)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			c.A = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			c.A = r.u2()
			c.B = r.u2()
		case TagMethodHandle:
			c.Raw = r.bytes(1)
			c.A = r.u2()
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
		idx := uint16(len(p.entries))
		p.entries = append(p.entries, c)

		switch tag {
		case TagUtf8:
			if _, ok := p.utf8[c.Utf8]; !ok {
				p.utf8[c.Utf8] = idx
			}
		case TagClass:
			if _, ok := p.classes[c.A]; !ok {
				p.classes[c.A] = idx
			}
		case TagNameAndType:
			key := [2]uint16{c.A, c.B}
			if _, ok := p.nat[key]; !ok {
				p.nat[key] = idx
			}
		case TagLong, TagDouble:
			p.entries = append(p.entries, Constant{})
			i++
		}
	}
	return p, nil
}

func (p *Pool) write(w *writer) {
	w.u2(uint16(len(p.entries)))
	for _, c := range p.entries[1:] {
		if c.Tag == 0 {
			continue
		}
		w.u1(c.Tag)
		switch c.Tag {
		case TagUtf8:
			w.u2(uint16(len(c.Utf8)))
			w.raw([]byte(c.Utf8))
		case TagInteger, TagFloat, TagLong, TagDouble:
			w.raw(c.Raw)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			w.u2(c.A)
		case TagMethodHandle:
			w.raw(c.Raw)
			w.u2(c.A)
		default:
			w.u2(c.A)
			w.u2(c.B)
		}
	}
}

type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.off+n > len(r.b) {
		r.err = fmt.Errorf("truncated class file at offset %d", r.off)
		return false
	}
	return true
}

func (r *reader) u1() byte {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v
}

type writer struct {
	b []byte
}

func (w *writer) u1(v byte) { w.b = append(w.b, v) }

func (w *writer) u2(v uint16) { w.b = binary.BigEndian.AppendUint16(w.b, v) }

func (w *writer) u4(v uint32) { w.b = binary.BigEndian.AppendUint32(w.b, v) }

func (w *writer) raw(v []byte) { w.b = append(w.b, v...) }

func (r *reader) put2(at int, v uint16) {
	if r.err != nil {
		return
	}
	if at < 0 || at+2 > len(r.b) {
		r.err = fmt.Errorf("patch offset %d out of range", at)
		return
	}
	binary.BigEndian.PutUint16(r.b[at:], v)
}

// peek2 reads the u2 at an absolute offset without moving.
func (r *reader) peek2(at int) uint16 {
	if r.err != nil {
		return 0
	}
	if at < 0 || at+2 > len(r.b) {
		r.err = fmt.Errorf("read offset %d out of range", at)
		return 0
	}
	return binary.BigEndian.Uint16(r.b[at:])
}
