package classfile

import (
	"fmt"
)

const magic = 0xCAFEBABE

// Attribute is an undecoded attribute. Data is owned by the ClassFile and is
// patched in place during remapping.
type Attribute struct {
	Name uint16
	Data []byte
}

// Member is a field or method declaration.
type Member struct {
	Access     uint16
	Name       uint16
	Desc       uint16
	Attributes []*Attribute
}

// ClassFile is a parsed class file. Only the structures the remapper touches
// are decoded; everything else is kept as raw bytes.
type ClassFile struct {
	Minor, Major uint16
	Pool         *Pool
	Access       uint16
	This         uint16
	Super        uint16
	Interfaces   []uint16
	Fields       []*Member
	Methods      []*Member
	Attributes   []*Attribute
}

// Parse decodes a class file.
func Parse(data []byte) (*ClassFile, error) {
	r := &reader{b: data}
	if r.u4() != magic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("bad class file magic")
	}
	cf := &ClassFile{Minor: r.u2(), Major: r.u2()}
	if r.err != nil {
		return nil, r.err
	}

	pool, err := parsePool(r)
	if err != nil {
		return nil, err
	}
	cf.Pool = pool

	cf.Access = r.u2()
	cf.This = r.u2()
	cf.Super = r.u2()
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		cf.Interfaces = append(cf.Interfaces, r.u2())
	}
	cf.Fields = parseMembers(r)
	cf.Methods = parseMembers(r)
	cf.Attributes = parseAttributes(r)
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after class file", len(data)-r.off)
	}
	return cf, nil
}

func parseMembers(r *reader) []*Member {
	n := int(r.u2())
	var out []*Member
	for i := 0; i < n && r.err == nil; i++ {
		m := &Member{Access: r.u2(), Name: r.u2(), Desc: r.u2()}
		m.Attributes = parseAttributes(r)
		out = append(out, m)
	}
	return out
}

func parseAttributes(r *reader) []*Attribute {
	n := int(r.u2())
	var out []*Attribute
	for i := 0; i < n && r.err == nil; i++ {
		name := r.u2()
		size := int(r.u4())
		raw := r.bytes(size)
		if r.err != nil {
			break
		}
		data := make([]byte, size)
		copy(data, raw)
		out = append(out, &Attribute{Name: name, Data: data})
	}
	return out
}

// Name returns the internal name of the class.
func (cf *ClassFile) Name() (string, error) {
	return cf.Pool.ClassNameAt(cf.This)
}

// SuperName returns the super class name, empty for java/lang/Object.
func (cf *ClassFile) SuperName() (string, error) {
	if cf.Super == 0 {
		return "", nil
	}
	return cf.Pool.ClassNameAt(cf.Super)
}

// InterfaceNames returns the names of directly implemented interfaces.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	out := make([]string, 0, len(cf.Interfaces))
	for _, i := range cf.Interfaces {
		name, err := cf.Pool.ClassNameAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// Bytes encodes the class file.
func (cf *ClassFile) Bytes() []byte {
	w := &writer{}
	w.u4(magic)
	w.u2(cf.Minor)
	w.u2(cf.Major)
	cf.Pool.write(w)
	w.u2(cf.Access)
	w.u2(cf.This)
	w.u2(cf.Super)
	w.u2(uint16(len(cf.Interfaces)))
	for _, i := range cf.Interfaces {
		w.u2(i)
	}
	writeMembers(w, cf.Fields)
	writeMembers(w, cf.Methods)
	writeAttributes(w, cf.Attributes)
	return w.b
}

func writeMembers(w *writer, members []*Member) {
	w.u2(uint16(len(members)))
	for _, m := range members {
		w.u2(m.Access)
		w.u2(m.Name)
		w.u2(m.Desc)
		writeAttributes(w, m.Attributes)
	}
}

func writeAttributes(w *writer, attrs []*Attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(a.Name)
		w.u4(uint32(len(a.Data)))
		w.raw(a.Data)
	}
}
