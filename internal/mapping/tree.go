// Package mapping loads symbol rename tables from Tiny v2 mapping files.
package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PropertyEscapedNames marks a Tiny v2 file whose names use backslash escapes.
const PropertyEscapedNames = "escaped-names"

// Tree is a parsed Tiny v2 file. Names are indexed by namespace position.
type Tree struct {
	Namespaces []string
	Properties map[string]string
	Classes    []*ClassMapping
}

// ClassMapping is one "c" entry.
type ClassMapping struct {
	Names   []string
	Comment string
	Fields  []*MemberMapping
	Methods []*MemberMapping
}

// MemberMapping is one "f" or "m" entry. Desc is in the first namespace.
type MemberMapping struct {
	Desc    string
	Names   []string
	Comment string
	Params  []*VarMapping
	Locals  []*VarMapping
}

// VarMapping is a parameter ("p") or local variable ("v") entry.
type VarMapping struct {
	LvIndex     int
	StartOffset int
	LvtIndex    int
	Names       []string
	Comment     string
}

// Namespace returns the column index of ns.
func (t *Tree) Namespace(ns string) (int, bool) {
	for i, n := range t.Namespaces {
		if n == ns {
			return i, true
		}
	}
	return -1, false
}

// name returns names[i], falling back to the first namespace when the column
// is empty or missing.
func name(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

// ParseTree reads a Tiny v2 document.
func ParseTree(r io.Reader) (*Tree, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, &ParseError{Line: 1, Message: "empty mapping file"}
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	if len(header) < 5 || header[0] != "tiny" || header[1] != "2" {
		return nil, &ParseError{Line: 1, Message: "not a tiny v2 header"}
	}
	tree := &Tree{
		Namespaces: header[3:],
		Properties: map[string]string{},
	}

	var (
		lineNo  = 1
		escaped bool
		inBody  bool
		class   *ClassMapping
		member  *MemberMapping
		v       *VarMapping
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		depth := 0
		for depth < len(line) && line[depth] == '\t' {
			depth++
		}
		cols := strings.Split(line[depth:], "\t")
		if escaped {
			for i := range cols {
				cols[i] = unescape(cols[i])
			}
		}
		perr := func(format string, args ...any) error {
			return &ParseError{Line: lineNo, Message: fmt.Sprintf(format, args...)}
		}

		if !inBody && depth == 1 {
			key := cols[0]
			val := ""
			if len(cols) > 1 {
				val = cols[1]
			}
			tree.Properties[key] = val
			if key == PropertyEscapedNames {
				escaped = true
			}
			continue
		}
		inBody = true

		switch {
		case depth == 0 && cols[0] == "c":
			if len(cols) < 2 {
				return nil, perr("class entry without names")
			}
			class = &ClassMapping{Names: cols[1:]}
			member, v = nil, nil
			tree.Classes = append(tree.Classes, class)

		case depth == 1 && class != nil && (cols[0] == "f" || cols[0] == "m"):
			if len(cols) < 3 {
				return nil, perr("member entry needs a descriptor and a name")
			}
			member = &MemberMapping{Desc: cols[1], Names: cols[2:]}
			v = nil
			if cols[0] == "f" {
				class.Fields = append(class.Fields, member)
			} else {
				class.Methods = append(class.Methods, member)
			}

		case depth == 1 && class != nil && cols[0] == "c":
			class.Comment = strings.Join(cols[1:], "\t")

		case depth == 2 && member != nil && cols[0] == "p":
			if len(cols) < 2 {
				return nil, perr("parameter entry without index")
			}
			idx, err := strconv.Atoi(cols[1])
			if err != nil {
				return nil, perr("parameter index %q: %v", cols[1], err)
			}
			v = &VarMapping{LvIndex: idx, StartOffset: -1, LvtIndex: -1, Names: cols[2:]}
			member.Params = append(member.Params, v)

		case depth == 2 && member != nil && cols[0] == "v":
			if len(cols) < 4 {
				return nil, perr("local variable entry needs three indices")
			}
			nums := make([]int, 3)
			for i := range nums {
				n, err := strconv.Atoi(cols[1+i])
				if err != nil {
					return nil, perr("local variable index %q: %v", cols[1+i], err)
				}
				nums[i] = n
			}
			v = &VarMapping{LvIndex: nums[0], StartOffset: nums[1], LvtIndex: nums[2], Names: cols[4:]}
			member.Locals = append(member.Locals, v)

		case depth == 2 && member != nil && cols[0] == "c":
			member.Comment = strings.Join(cols[1:], "\t")

		case depth == 3 && v != nil && cols[0] == "c":
			v.Comment = strings.Join(cols[1:], "\t")

		default:
			// Unknown sections are skipped for forward compatibility.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading mappings: %w", err)
	}
	return tree, nil
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

var escapeReplacer = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`, "\x00", `\0`)

func escape(s string) string {
	return escapeReplacer.Replace(s)
}
