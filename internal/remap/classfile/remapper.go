package classfile

import (
	"fmt"
	"strings"

	"github.com/fukkitmc/mapjar/internal/mapping"
	"github.com/fukkitmc/mapjar/internal/remap"
)

const (
	accPrivate = 0x0002
	accStatic  = 0x0008
)

const lambdaMetafactory = "java/lang/invoke/LambdaMetafactory"

// classRemap rewrites one class in place.
type classRemap struct {
	table *mapping.Table
	h     *hierarchy
	opts  remap.Options

	cf   *ClassFile
	pool *Pool
	name string

	// origClass holds the source-namespace name of every Class constant,
	// captured before any repointing.
	origClass map[uint16]string

	// vars holds the parameter and local renames of the method whose
	// attributes are being rewritten.
	vars []mapping.VarPair
}

func newClassRemap(table *mapping.Table, h *hierarchy, opts remap.Options, cf *ClassFile) (*classRemap, error) {
	name, err := cf.Name()
	if err != nil {
		return nil, err
	}
	c := &classRemap{
		table:     table,
		h:         h,
		opts:      opts,
		cf:        cf,
		pool:      cf.Pool,
		name:      name,
		origClass: map[uint16]string{},
	}
	for i := 1; i < cf.Pool.Len(); i++ {
		if cf.Pool.entries[i].Tag != TagClass {
			continue
		}
		n, err := cf.Pool.Utf8At(cf.Pool.entries[i].A)
		if err != nil {
			return nil, err
		}
		c.origClass[uint16(i)] = n
	}
	return c, nil
}

// mapClassConst maps a Class constant value, which is an internal name or an
// array descriptor.
func (c *classRemap) mapClassConst(n string) string {
	if strings.HasPrefix(n, "[") {
		return c.table.MapDesc(n)
	}
	return c.table.MapClass(n)
}

// run rewrites the class and returns its new internal name.
func (c *classRemap) run() (string, error) {
	bootstraps, err := c.bootstrapMethods()
	if err != nil {
		return "", err
	}
	if err := c.remapPool(bootstraps); err != nil {
		return "", err
	}
	if err := c.remapMembers(c.cf.Fields, false); err != nil {
		return "", err
	}
	if err := c.remapMembers(c.cf.Methods, true); err != nil {
		return "", err
	}
	if err := c.remapAttributes(c.cf.Attributes); err != nil {
		return "", err
	}
	return c.mapClassConst(c.name), nil
}

// remapPool rewrites references held by constants. Only entries that
// existed before remapping are visited.
func (c *classRemap) remapPool(bootstraps []bootstrapMethod) error {
	p := c.pool
	n := p.Len()

	// Lambda names depend on bootstrap arguments, which are rewritten below.
	lambdas := map[int]string{}
	for i := 1; i < n; i++ {
		e := p.entries[i]
		if e.Tag != TagInvokeDynamic || int(e.A) >= len(bootstraps) {
			continue
		}
		name, desc, err := p.NameAndTypeAt(e.B)
		if err != nil {
			return err
		}
		lambdas[i] = c.lambdaName(bootstraps[e.A], name, desc)
	}

	for i := 1; i < n; i++ {
		e := p.entries[i]
		switch e.Tag {
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			owner := c.origClass[e.A]
			name, desc, err := p.NameAndTypeAt(e.B)
			if err != nil {
				return err
			}
			newName := name
			if !strings.HasPrefix(owner, "[") {
				if e.Tag == TagFieldref {
					newName = c.h.field(owner, name, desc)
				} else {
					newName = c.h.method(owner, name, desc)
				}
			}
			if err := c.repointNameAndType(i, name, desc, newName); err != nil {
				return err
			}

		case TagInvokeDynamic, TagDynamic:
			name, desc, err := p.NameAndTypeAt(e.B)
			if err != nil {
				return err
			}
			newName := name
			if l, ok := lambdas[i]; ok {
				newName = l
			}
			if err := c.repointNameAndType(i, name, desc, newName); err != nil {
				return err
			}

		case TagMethodType:
			desc, err := p.Utf8At(e.A)
			if err != nil {
				return err
			}
			if mapped := c.table.MapDesc(desc); mapped != desc {
				idx, err := p.AddUtf8(mapped)
				if err != nil {
					return err
				}
				p.entries[i].A = idx
			}
		}
	}

	for i := 1; i < n; i++ {
		if p.entries[i].Tag != TagClass {
			continue
		}
		orig := c.origClass[uint16(i)]
		mapped := c.mapClassConst(orig)
		if mapped == orig {
			continue
		}
		idx, err := p.AddUtf8(mapped)
		if err != nil {
			return err
		}
		old := p.entries[i].A
		p.entries[i].A = idx
		if p.classes[old] == uint16(i) {
			delete(p.classes, old)
		}
		if _, ok := p.classes[idx]; !ok {
			p.classes[idx] = uint16(i)
		}
	}
	return nil
}

// repointNameAndType points entry i at a NameAndType for the new name and
// remapped descriptor when either changed.
func (c *classRemap) repointNameAndType(i int, name, desc, newName string) error {
	newDesc := c.table.MapDesc(desc)
	if newName == name && newDesc == desc {
		return nil
	}
	idx, err := c.pool.AddNameAndType(newName, newDesc)
	if err != nil {
		return err
	}
	c.pool.entries[i].B = idx
	return nil
}

func (c *classRemap) remapMembers(members []*Member, methods bool) error {
	for _, m := range members {
		name, err := c.pool.Utf8At(m.Name)
		if err != nil {
			return err
		}
		desc, err := c.pool.Utf8At(m.Desc)
		if err != nil {
			return err
		}

		newName := name
		switch {
		case !methods:
			if to, ok := c.table.MapField(c.name, name, desc); ok {
				newName = to
			}
		case m.Access&(accPrivate|accStatic) != 0:
			if to, ok := c.table.MapMethod(c.name, name, desc); ok && !isSpecialMethod(name) {
				newName = to
			}
		default:
			newName = c.h.method(c.name, name, desc)
		}

		if newName != name {
			if m.Name, err = c.pool.AddUtf8(newName); err != nil {
				return err
			}
		}
		if mapped := c.table.MapDesc(desc); mapped != desc {
			if m.Desc, err = c.pool.AddUtf8(mapped); err != nil {
				return err
			}
		}
		c.vars = nil
		if methods {
			c.vars = c.table.MethodVars(c.name, name, desc)
		}
		err = c.remapAttributes(m.Attributes)
		c.vars = nil
		if err != nil {
			return fmt.Errorf("%s.%s%s: %w", c.name, name, desc, err)
		}
	}
	return nil
}
