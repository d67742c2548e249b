package classfile

import (
	"fmt"
	"strings"
)

type bootstrapMethod struct {
	ref  uint16
	args []uint16
}

func (c *classRemap) bootstrapMethods() ([]bootstrapMethod, error) {
	for _, a := range c.cf.Attributes {
		name, err := c.pool.Utf8At(a.Name)
		if err != nil {
			return nil, err
		}
		if name != "BootstrapMethods" {
			continue
		}
		r := &reader{b: a.Data}
		n := int(r.u2())
		out := make([]bootstrapMethod, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			bm := bootstrapMethod{ref: r.u2()}
			argc := int(r.u2())
			for j := 0; j < argc && r.err == nil; j++ {
				bm.args = append(bm.args, r.u2())
			}
			out = append(out, bm)
		}
		if r.err != nil {
			return nil, fmt.Errorf("BootstrapMethods attribute: %w", r.err)
		}
		return out, nil
	}
	return nil, nil
}

// lambdaName renames the interface method implemented by a lambda. Other
// bootstrap methods keep their call site names.
func (c *classRemap) lambdaName(bm bootstrapMethod, name, desc string) string {
	mh, err := c.pool.At(bm.ref)
	if err != nil || mh.Tag != TagMethodHandle {
		return name
	}
	ref, err := c.pool.At(mh.A)
	if err != nil || ref.Tag != TagMethodref {
		return name
	}
	bsmName, _, err := c.pool.NameAndTypeAt(ref.B)
	if err != nil || c.origClass[ref.A] != lambdaMetafactory {
		return name
	}
	if bsmName != "metafactory" && bsmName != "altMetafactory" || len(bm.args) == 0 {
		return name
	}
	mt, err := c.pool.At(bm.args[0])
	if err != nil || mt.Tag != TagMethodType {
		return name
	}
	samDesc, err := c.pool.Utf8At(mt.A)
	if err != nil {
		return name
	}
	ret := desc[strings.LastIndexByte(desc, ')')+1:]
	if !strings.HasPrefix(ret, "L") || !strings.HasSuffix(ret, ";") {
		return name
	}
	return c.h.method(ret[1:len(ret)-1], name, samDesc)
}

// remapAttributes patches attribute payloads in place. Index operands are
// repointed; payload sizes never change.
func (c *classRemap) remapAttributes(attrs []*Attribute) error {
	for _, a := range attrs {
		name, err := c.pool.Utf8At(a.Name)
		if err != nil {
			return err
		}
		r := &reader{b: a.Data}
		switch name {
		case "Signature":
			c.patchDesc(r, 0)
		case "SourceFile":
			c.sourceFile(r)
		case "InnerClasses":
			c.innerClasses(r)
		case "EnclosingMethod":
			c.enclosingMethod(r)
		case "Code":
			c.code(r)
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			c.annotations(r)
		case "RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations":
			n := int(r.u1())
			for i := 0; i < n && r.err == nil; i++ {
				c.annotations(r)
			}
		case "AnnotationDefault":
			c.elementValue(r)
		case "Record":
			c.record(r)
		}
		if r.err != nil {
			return fmt.Errorf("%s attribute: %w", name, r.err)
		}
	}
	return nil
}

// patchDesc remaps the descriptor or signature referenced by the u2 at
// offset at.
func (c *classRemap) patchDesc(r *reader, at int) {
	idx := r.peek2(at)
	if r.err != nil {
		return
	}
	s, err := c.pool.Utf8At(idx)
	if err != nil {
		r.err = err
		return
	}
	c.patchUtf8(r, at, s, c.table.MapDesc(s))
}

func (c *classRemap) patchUtf8(r *reader, at int, old, updated string) {
	if old == updated || r.err != nil {
		return
	}
	idx, err := c.pool.AddUtf8(updated)
	if err != nil {
		r.err = err
		return
	}
	r.put2(at, idx)
}

func (c *classRemap) utf8(r *reader, at int) string {
	idx := r.peek2(at)
	if r.err != nil {
		return ""
	}
	s, err := c.pool.Utf8At(idx)
	if err != nil {
		r.err = err
	}
	return s
}

func (c *classRemap) sourceFile(r *reader) {
	if !c.opts.RebuildSourceFilenames {
		return
	}
	mapped := c.mapClassConst(c.name)
	if mapped == c.name {
		return
	}
	old := c.utf8(r, 0)
	ext := ".java"
	if i := strings.LastIndexByte(old, '.'); i >= 0 {
		ext = old[i:]
	}
	c.patchUtf8(r, 0, old, outermostSimpleName(mapped)+ext)
}

// outermostSimpleName returns the simple name of the top level class
// enclosing name.
func outermostSimpleName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '$'); i > 0 {
		name = name[:i]
	}
	return name
}

// innerSimpleName derives the InnerClasses simple name of a mapped class.
func innerSimpleName(mappedOuter, mappedInner string) string {
	if mappedOuter != "" && strings.HasPrefix(mappedInner, mappedOuter+"$") {
		return mappedInner[len(mappedOuter)+1:]
	}
	if i := strings.LastIndexAny(mappedInner, "$/"); i >= 0 {
		return mappedInner[i+1:]
	}
	return mappedInner
}

func (c *classRemap) innerClasses(r *reader) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		base := r.off
		inner, outer, simple := r.peek2(base), r.peek2(base+2), r.peek2(base+4)
		r.bytes(8)
		if r.err != nil || inner == 0 || simple == 0 {
			continue
		}
		orig := c.origClass[inner]
		mapped := c.mapClassConst(orig)
		if mapped == orig {
			continue
		}
		mappedOuter := ""
		if outer != 0 {
			mappedOuter = c.mapClassConst(c.origClass[outer])
		}
		c.patchUtf8(r, base+4, c.utf8(r, base+4), innerSimpleName(mappedOuter, mapped))
	}
}

func (c *classRemap) enclosingMethod(r *reader) {
	class, method := r.peek2(0), r.peek2(2)
	if r.err != nil || method == 0 {
		return
	}
	name, desc, err := c.pool.NameAndTypeAt(method)
	if err != nil {
		r.err = err
		return
	}
	newName := c.h.method(c.origClass[class], name, desc)
	newDesc := c.table.MapDesc(desc)
	if newName == name && newDesc == desc {
		return
	}
	idx, err := c.pool.AddNameAndType(newName, newDesc)
	if err != nil {
		r.err = err
		return
	}
	r.put2(2, idx)
}

// nestedAttributes reads an attribute list whose payloads alias r's buffer.
func nestedAttributes(r *reader) []*Attribute {
	n := int(r.u2())
	var out []*Attribute
	for i := 0; i < n && r.err == nil; i++ {
		name := r.u2()
		size := int(r.u4())
		data := r.bytes(size)
		if r.err == nil {
			out = append(out, &Attribute{Name: name, Data: data})
		}
	}
	return out
}

func (c *classRemap) code(r *reader) {
	r.bytes(4) // max_stack, max_locals
	r.bytes(int(r.u4()))
	r.bytes(8 * int(r.u2()))
	nested := nestedAttributes(r)
	if r.err != nil {
		return
	}

	var tables, typeTables []*Attribute
	var rest []*Attribute
	for _, a := range nested {
		name, err := c.pool.Utf8At(a.Name)
		if err != nil {
			r.err = err
			return
		}
		switch name {
		case "LocalVariableTable":
			tables = append(tables, a)
		case "LocalVariableTypeTable":
			typeTables = append(typeTables, a)
		default:
			rest = append(rest, a)
		}
	}

	locals := newLocalRenamer(c.opts.RenameInvalidLocals)
	for _, a := range tables {
		if err := c.collectLocals(a, locals); err != nil {
			r.err = err
			return
		}
	}
	if err := locals.assign(c.pool); err != nil {
		r.err = err
		return
	}
	for _, a := range append(tables, typeTables...) {
		if err := c.patchLocals(a, locals); err != nil {
			r.err = err
			return
		}
	}
	if err := c.remapAttributes(rest); err != nil {
		r.err = err
	}
}

const localEntrySize = 10

func (c *classRemap) collectLocals(a *Attribute, locals *localRenamer) error {
	r := &reader{b: a.Data}
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		base := r.off
		key := localKey{start: r.peek2(base), length: r.peek2(base + 2), index: r.peek2(base + 8)}
		name := c.utf8(r, base+4)
		desc := c.utf8(r, base+6)
		r.bytes(localEntrySize)
		if r.err != nil {
			break
		}
		if to, ok := c.mappedLocal(key, i); ok {
			locals.addMapped(key, to, c.table.MapDesc(desc))
			continue
		}
		locals.add(key, name, c.table.MapDesc(desc))
	}
	if r.err != nil {
		return fmt.Errorf("LocalVariableTable attribute: %w", r.err)
	}
	return nil
}

// mappedLocal returns the name the mappings give to a local variable table
// row of the current method.
func (c *classRemap) mappedLocal(key localKey, row int) (string, bool) {
	for _, v := range c.vars {
		if v.Matches(int(key.index), int(key.start), row) {
			return v.To, true
		}
	}
	return "", false
}

// patchLocals remaps descriptors (or signatures) and applies mapped and
// repaired local names to a LocalVariableTable or LocalVariableTypeTable.
func (c *classRemap) patchLocals(a *Attribute, locals *localRenamer) error {
	r := &reader{b: a.Data}
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		base := r.off
		key := localKey{start: r.peek2(base), length: r.peek2(base + 2), index: r.peek2(base + 8)}
		if idx, ok := locals.renamed[key]; ok {
			r.put2(base+4, idx)
		}
		c.patchDesc(r, base+6)
		r.bytes(localEntrySize)
	}
	if r.err != nil {
		return fmt.Errorf("local variable table: %w", r.err)
	}
	return nil
}

func (c *classRemap) annotations(r *reader) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		c.annotation(r)
	}
}

func (c *classRemap) annotation(r *reader) {
	c.patchDesc(r, r.off)
	r.u2()
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		r.u2() // element name
		c.elementValue(r)
	}
}

func (c *classRemap) elementValue(r *reader) {
	tag := r.u1()
	if r.err != nil {
		return
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		r.u2()
	case 'e':
		typeAt := r.off
		typ := c.utf8(r, typeAt)
		c.patchDesc(r, typeAt)
		r.u2()
		constAt := r.off
		constName := c.utf8(r, constAt)
		if strings.HasPrefix(typ, "L") && strings.HasSuffix(typ, ";") {
			owner := typ[1 : len(typ)-1]
			c.patchUtf8(r, constAt, constName, c.h.field(owner, constName, typ))
		}
		r.u2()
	case 'c':
		c.patchDesc(r, r.off)
		r.u2()
	case '@':
		c.annotation(r)
	case '[':
		n := int(r.u2())
		for i := 0; i < n && r.err == nil; i++ {
			c.elementValue(r)
		}
	default:
		r.err = fmt.Errorf("unknown element value tag %q", tag)
	}
}

func (c *classRemap) record(r *reader) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		base := r.off
		name := c.utf8(r, base)
		desc := c.utf8(r, base+2)
		if r.err != nil {
			return
		}
		if to, ok := c.table.MapField(c.name, name, desc); ok {
			c.patchUtf8(r, base, name, to)
		}
		c.patchDesc(r, base+2)
		r.bytes(4)
		nested := nestedAttributes(r)
		if r.err != nil {
			return
		}
		if err := c.remapAttributes(nested); err != nil {
			r.err = err
		}
	}
}
