package mapping

import (
	"bufio"
	"fmt"
	"io"
)

// WriteTiny writes t as a two-namespace Tiny v2 document. Overlay renames
// are folded into the class column so tools without overlay support see the
// effective target of every class.
func WriteTiny(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "tiny\t2\t0\t%s\t%s\n", t.From, t.To)
	fmt.Fprintf(bw, "\t%s\n", PropertyEscapedNames)

	type owner struct {
		to      string
		fields  []MemberPair
		methods []MemberPair
	}
	owners := map[string]*owner{}
	var order []string
	get := func(name string) *owner {
		o, ok := owners[name]
		if !ok {
			o = &owner{to: t.MapClass(name)}
			owners[name] = o
			order = append(order, name)
		}
		return o
	}

	for _, p := range t.classes {
		get(p.From)
	}
	for _, p := range t.overlay {
		if _, primary := t.classIndex[p.From]; !primary {
			get(p.From)
		}
	}
	for _, f := range t.fields {
		o := get(f.Owner)
		o.fields = append(o.fields, f)
	}
	for _, m := range t.methods {
		o := get(m.Owner)
		o.methods = append(o.methods, m)
	}
	// Methods that only carry variable renames still need an m line.
	vars := map[MemberKey][]VarPair{}
	for _, v := range t.vars {
		if _, ok := vars[v.MemberKey]; !ok {
			if _, renamed := t.methodIndex[v.MemberKey]; !renamed {
				o := get(v.Owner)
				o.methods = append(o.methods, MemberPair{MemberKey: v.MemberKey, To: v.Name})
			}
		}
		vars[v.MemberKey] = append(vars[v.MemberKey], v)
	}

	for _, name := range order {
		o := owners[name]
		fmt.Fprintf(bw, "c\t%s\t%s\n", escape(name), escape(o.to))
		for _, f := range o.fields {
			fmt.Fprintf(bw, "\tf\t%s\t%s\t%s\n", escape(f.Desc), escape(f.Name), escape(f.To))
		}
		for _, m := range o.methods {
			fmt.Fprintf(bw, "\tm\t%s\t%s\t%s\n", escape(m.Desc), escape(m.Name), escape(m.To))
			for _, v := range vars[m.MemberKey] {
				if v.Param {
					fmt.Fprintf(bw, "\t\tp\t%d\t\t%s\n", v.LvIndex, escape(v.To))
				} else {
					fmt.Fprintf(bw, "\t\tv\t%d\t%d\t%d\t\t%s\n", v.LvIndex, v.StartOffset, v.LvtIndex, escape(v.To))
				}
			}
		}
	}
	return bw.Flush()
}

// String renders the class renames for diagnostics.
func (t *Table) String() string {
	return fmt.Sprintf("%s -> %s (%d classes, %d fields, %d methods, %d vars, %d overlay)",
		t.From, t.To, len(t.classes), len(t.fields), len(t.methods), len(t.vars), len(t.overlay))
}
