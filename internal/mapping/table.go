package mapping

import "strings"

// Pair is one class rename.
type Pair struct {
	From string
	To   string
}

// MemberKey identifies a field or method in the source namespace.
type MemberKey struct {
	Owner string
	Name  string
	Desc  string
}

// MemberPair is one field or method rename.
type MemberPair struct {
	MemberKey
	To string
}

// VarPair is one parameter or local variable rename inside a method.
// Parameters carry a StartOffset and LvtIndex of -1.
type VarPair struct {
	MemberKey
	Param       bool
	LvIndex     int
	StartOffset int
	LvtIndex    int
	To          string
}

// Matches reports whether a local variable table row describes this
// variable. Parameters match their slot from offset 0. Locals match their
// table row when one is recorded, otherwise their slot and start offset.
func (v VarPair) Matches(slot, start, row int) bool {
	switch {
	case v.Param:
		return slot == v.LvIndex && start == 0
	case v.LvtIndex >= 0:
		return row == v.LvtIndex
	default:
		return slot == v.LvIndex && (v.StartOffset < 0 || start == v.StartOffset)
	}
}

func (v VarPair) sameSlot(o VarPair) bool {
	return v.Param == o.Param && v.LvIndex == o.LvIndex &&
		v.StartOffset == o.StartOffset && v.LvtIndex == o.LvtIndex
}

// Table is an immutable rename table between two namespaces plus a
// supplementary class overlay applied on top of the primary renames.
type Table struct {
	From string
	To   string

	classes    []Pair
	classIndex map[string]string

	fields     []MemberPair
	fieldIndex map[MemberKey]string

	methods     []MemberPair
	methodIndex map[MemberKey]string

	overlay      []Pair
	overlayIndex map[string]string

	vars     []VarPair
	varIndex map[MemberKey][]int
}

// Builder accumulates renames for a Table. Later entries win over earlier
// ones for the same source name.
type Builder struct {
	t *Table
}

// NewBuilder starts a table from one namespace to another.
func NewBuilder(from, to string) *Builder {
	return &Builder{t: &Table{
		From:         from,
		To:           to,
		classIndex:   map[string]string{},
		fieldIndex:   map[MemberKey]string{},
		methodIndex:  map[MemberKey]string{},
		overlayIndex: map[string]string{},
		varIndex:     map[MemberKey][]int{},
	}}
}

// Class adds a class rename.
func (b *Builder) Class(from, to string) *Builder {
	if _, ok := b.t.classIndex[from]; !ok {
		b.t.classes = append(b.t.classes, Pair{From: from, To: to})
	} else {
		for i := range b.t.classes {
			if b.t.classes[i].From == from {
				b.t.classes[i].To = to
			}
		}
	}
	b.t.classIndex[from] = to
	return b
}

// Field adds a field rename. desc is in the source namespace.
func (b *Builder) Field(owner, name, desc, to string) *Builder {
	k := MemberKey{Owner: owner, Name: name, Desc: desc}
	if _, ok := b.t.fieldIndex[k]; !ok {
		b.t.fields = append(b.t.fields, MemberPair{MemberKey: k, To: to})
	}
	b.t.fieldIndex[k] = to
	return b
}

// Method adds a method rename. desc is in the source namespace.
func (b *Builder) Method(owner, name, desc, to string) *Builder {
	k := MemberKey{Owner: owner, Name: name, Desc: desc}
	if _, ok := b.t.methodIndex[k]; !ok {
		b.t.methods = append(b.t.methods, MemberPair{MemberKey: k, To: to})
	}
	b.t.methodIndex[k] = to
	return b
}

// Param adds a parameter rename for the method owner.name desc. lvIndex is
// the local variable slot, counting the receiver of instance methods.
func (b *Builder) Param(owner, name, desc string, lvIndex int, to string) *Builder {
	return b.addVar(VarPair{
		MemberKey:   MemberKey{Owner: owner, Name: name, Desc: desc},
		Param:       true,
		LvIndex:     lvIndex,
		StartOffset: -1,
		LvtIndex:    -1,
		To:          to,
	})
}

// Local adds a local variable rename. startOffset and lvtIndex are -1 when
// unknown.
func (b *Builder) Local(owner, name, desc string, lvIndex, startOffset, lvtIndex int, to string) *Builder {
	return b.addVar(VarPair{
		MemberKey:   MemberKey{Owner: owner, Name: name, Desc: desc},
		LvIndex:     lvIndex,
		StartOffset: startOffset,
		LvtIndex:    lvtIndex,
		To:          to,
	})
}

func (b *Builder) addVar(v VarPair) *Builder {
	for _, i := range b.t.varIndex[v.MemberKey] {
		if b.t.vars[i].sameSlot(v) {
			b.t.vars[i].To = v.To
			return b
		}
	}
	b.t.varIndex[v.MemberKey] = append(b.t.varIndex[v.MemberKey], len(b.t.vars))
	b.t.vars = append(b.t.vars, v)
	return b
}

// Overlay adds a supplementary class rename. Overlay entries match the name a
// class has after the primary renames, so they also apply to classes the
// primary table already moved.
func (b *Builder) Overlay(from, to string) *Builder {
	if _, ok := b.t.overlayIndex[from]; !ok {
		b.t.overlay = append(b.t.overlay, Pair{From: from, To: to})
	}
	b.t.overlayIndex[from] = to
	return b
}

// Build returns the table. The builder must not be used afterwards.
func (b *Builder) Build() *Table {
	t := b.t
	b.t = nil
	for i := range t.overlay {
		t.overlay[i].To = t.overlayIndex[t.overlay[i].From]
	}
	for i := range t.fields {
		t.fields[i].To = t.fieldIndex[t.fields[i].MemberKey]
	}
	for i := range t.methods {
		t.methods[i].To = t.methodIndex[t.methods[i].MemberKey]
	}
	return t
}

// WithOverlay returns a copy of t with extra overlay entries appended.
func (t *Table) WithOverlay(pairs []Pair) *Table {
	b := NewBuilder(t.From, t.To)
	for _, p := range t.classes {
		b.Class(p.From, p.To)
	}
	for _, f := range t.fields {
		b.Field(f.Owner, f.Name, f.Desc, f.To)
	}
	for _, m := range t.methods {
		b.Method(m.Owner, m.Name, m.Desc, m.To)
	}
	for _, v := range t.vars {
		b.addVar(v)
	}
	for _, p := range t.overlay {
		b.Overlay(p.From, p.To)
	}
	for _, p := range pairs {
		b.Overlay(p.From, p.To)
	}
	return b.Build()
}

// Classes returns the primary class renames in insertion order.
func (t *Table) Classes() []Pair {
	return append([]Pair(nil), t.classes...)
}

// Overlay returns the supplementary renames in insertion order.
func (t *Table) Overlay() []Pair {
	return append([]Pair(nil), t.overlay...)
}

// Fields returns the field renames in insertion order.
func (t *Table) Fields() []MemberPair {
	return append([]MemberPair(nil), t.fields...)
}

// Methods returns the method renames in insertion order.
func (t *Table) Methods() []MemberPair {
	return append([]MemberPair(nil), t.methods...)
}

// Vars returns the parameter and local variable renames in insertion order.
func (t *Table) Vars() []VarPair {
	return append([]VarPair(nil), t.vars...)
}

// MethodVars returns the parameter and local renames of one method. desc is
// in the source namespace.
func (t *Table) MethodVars(owner, name, desc string) []VarPair {
	idx := t.varIndex[MemberKey{Owner: owner, Name: name, Desc: desc}]
	if len(idx) == 0 {
		return nil
	}
	out := make([]VarPair, len(idx))
	for i, j := range idx {
		out[i] = t.vars[j]
	}
	return out
}

// Len returns the number of class renames, overlay included.
func (t *Table) Len() int {
	return len(t.classes) + len(t.overlay)
}

// MapClass returns the target name of an internal class name. Unknown
// names are returned unchanged.
func (t *Table) MapClass(name string) string {
	mapped, ok := t.classIndex[name]
	if !ok {
		mapped = name
	}
	if o, ok := t.overlayIndex[mapped]; ok {
		return o
	}
	if !ok {
		// Nested classes follow their outer class when only the outer is mapped.
		if i := strings.LastIndexByte(name, '$'); i > 0 {
			outer := t.MapClass(name[:i])
			if outer != name[:i] {
				return outer + name[i:]
			}
		}
	}
	return mapped
}

// HasClass reports whether name is renamed by the table.
func (t *Table) HasClass(name string) bool {
	return t.MapClass(name) != name
}

// MapField returns the new name of a field declared by owner.
func (t *Table) MapField(owner, name, desc string) (string, bool) {
	to, ok := t.fieldIndex[MemberKey{Owner: owner, Name: name, Desc: desc}]
	return to, ok
}

// MapMethod returns the new name of a method declared by owner.
func (t *Table) MapMethod(owner, name, desc string) (string, bool) {
	to, ok := t.methodIndex[MemberKey{Owner: owner, Name: name, Desc: desc}]
	return to, ok
}

// HasMembers reports whether the table renames any field or method.
func (t *Table) HasMembers() bool {
	return len(t.fields) > 0 || len(t.methods) > 0
}

// MapDesc rewrites class names in a field/method descriptor or a generic
// signature. Malformed input is returned unchanged.
func (t *Table) MapDesc(desc string) string {
	return RemapSignature(desc, t.MapClass)
}

// Table builds a rename table between two namespaces of the tree.
func (tr *Tree) Table(from, to string) (*Table, error) {
	fi, ok := tr.Namespace(from)
	if !ok {
		return nil, &NamespaceError{Namespace: from, Available: tr.Namespaces}
	}
	ti, ok := tr.Namespace(to)
	if !ok {
		return nil, &NamespaceError{Namespace: to, Available: tr.Namespaces}
	}

	// Member descriptors are stored in the first namespace.
	var toSource func(string) string
	if fi != 0 {
		first := make(map[string]string, len(tr.Classes))
		for _, c := range tr.Classes {
			first[c.Names[0]] = name(c.Names, fi)
		}
		toSource = func(n string) string {
			if m, ok := first[n]; ok {
				return m
			}
			return n
		}
	}

	b := NewBuilder(from, to)
	for _, c := range tr.Classes {
		src := name(c.Names, fi)
		dst := nameOr(c.Names, ti, src)
		if src != dst {
			b.Class(src, dst)
		}
		for _, f := range c.Fields {
			desc := f.Desc
			if toSource != nil {
				desc = RemapSignature(desc, toSource)
			}
			fs, fd := name(f.Names, fi), nameOr(f.Names, ti, name(f.Names, fi))
			if fs != fd {
				b.Field(src, fs, desc, fd)
			}
		}
		for _, m := range c.Methods {
			desc := m.Desc
			if toSource != nil {
				desc = RemapSignature(desc, toSource)
			}
			ms, md := name(m.Names, fi), nameOr(m.Names, ti, name(m.Names, fi))
			if ms != md {
				b.Method(src, ms, desc, md)
			}
			for _, p := range m.Params {
				if to := nameOr(p.Names, ti, ""); to != "" && to != nameOr(p.Names, fi, "") {
					b.Param(src, ms, desc, p.LvIndex, to)
				}
			}
			for _, l := range m.Locals {
				if to := nameOr(l.Names, ti, ""); to != "" && to != nameOr(l.Names, fi, "") {
					b.Local(src, ms, desc, l.LvIndex, l.StartOffset, l.LvtIndex, to)
				}
			}
		}
	}
	return b.Build(), nil
}

// nameOr returns names[i], or fallback when that column is empty.
func nameOr(names []string, i int, fallback string) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fallback
}
