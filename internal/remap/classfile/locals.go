package classfile

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// localKey identifies one local variable table entry. LocalVariableTypeTable
// entries share the key of the LocalVariableTable entry they describe.
type localKey struct {
	start, length, index uint16
}

type localEntry struct {
	key    localKey
	name   string
	desc   string
	mapped bool
}

// localRenamer applies mapped local variable names, then replaces names that
// are not legal Java identifiers with names derived from their types.
type localRenamer struct {
	enabled bool
	entries []localEntry
	renamed map[localKey]uint16
}

func newLocalRenamer(enabled bool) *localRenamer {
	return &localRenamer{enabled: enabled, renamed: map[localKey]uint16{}}
}

func (l *localRenamer) add(key localKey, name, desc string) {
	l.entries = append(l.entries, localEntry{key: key, name: name, desc: desc})
}

// addMapped records an entry whose name comes from the mappings.
func (l *localRenamer) addMapped(key localKey, name, desc string) {
	l.entries = append(l.entries, localEntry{key: key, name: name, desc: desc, mapped: true})
}

func (l *localRenamer) assign(pool *Pool) error {
	// Mapped names claim their slots before any original name.
	used := map[string]bool{}
	claimed := map[string][]localKey{}
	keep := make([]bool, len(l.entries))
	for i, e := range l.entries {
		if !e.mapped {
			continue
		}
		if l.enabled && (!validLocalName(e.name, e.key.index) || clashes(claimed[e.name], e.key)) {
			continue
		}
		keep[i] = true
		used[e.name] = true
		claimed[e.name] = append(claimed[e.name], e.key)
		if _, done := l.renamed[e.key]; done {
			continue
		}
		idx, err := pool.AddUtf8(e.name)
		if err != nil {
			return err
		}
		l.renamed[e.key] = idx
	}
	if !l.enabled {
		return nil
	}

	// A valid name is kept unless an earlier entry for another slot with an
	// overlapping range already claimed it.
	for i, e := range l.entries {
		if e.mapped || !validLocalName(e.name, e.key.index) || clashes(claimed[e.name], e.key) {
			continue
		}
		keep[i] = true
		used[e.name] = true
		claimed[e.name] = append(claimed[e.name], e.key)
	}

	for i, e := range l.entries {
		if keep[i] {
			continue
		}
		if _, done := l.renamed[e.key]; done {
			continue
		}
		base := localBaseName(e.desc)
		name := base
		for n := 2; used[name]; n++ {
			name = base + strconv.Itoa(n)
		}
		used[name] = true
		idx, err := pool.AddUtf8(name)
		if err != nil {
			return err
		}
		l.renamed[e.key] = idx
	}
	return nil
}

// clashes reports whether key overlaps an entry for a different slot.
func clashes(keys []localKey, key localKey) bool {
	start, end := int(key.start), int(key.start)+int(key.length)
	for _, k := range keys {
		if k.index == key.index {
			continue
		}
		ks, ke := int(k.start), int(k.start)+int(k.length)
		if start < ke && ks < end {
			return true
		}
	}
	return false
}

var javaKeywords = map[string]bool{}

func init() {
	for _, k := range strings.Fields(`abstract assert boolean break byte case catch char class const
		continue default do double else enum extends final finally float for goto if implements
		import instanceof int interface long native new package private protected public return
		short static strictfp super switch synchronized this throw throws transient try void
		volatile while true false null _`) {
		javaKeywords[k] = true
	}
}

// validLocalName reports whether name may appear as a Java local. "this" is
// accepted for slot 0.
func validLocalName(name string, index uint16) bool {
	if name == "this" {
		return index == 0
	}
	if name == "" || javaKeywords[name] {
		return false
	}
	for i, r := range name {
		if r == utf8.RuneError {
			return false
		}
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' && r != '$' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return false
		}
	}
	return true
}

// localBaseName derives a variable name from a field descriptor.
func localBaseName(desc string) string {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	elem := desc[dims:]

	var base string
	switch {
	case elem == "":
		base = "var"
	case elem[0] == 'L':
		n := strings.TrimSuffix(elem[1:], ";")
		if i := strings.LastIndexAny(n, "/$"); i >= 0 {
			n = n[i+1:]
		}
		if n == "" || n[0] >= '0' && n[0] <= '9' {
			base = "var"
		} else {
			base = strings.ToLower(n[:1]) + n[1:]
		}
	default:
		base = primitiveNames[elem[0]]
		if base == "" {
			base = "var"
		}
	}
	if dims > 0 {
		base += "Array"
	}
	if javaKeywords[base] {
		base += "_"
	}
	if !validLocalName(base, 1) {
		base = "var"
	}
	return base
}

var primitiveNames = map[byte]string{
	'Z': "bl",
	'B': "b",
	'C': "c",
	'S': "s",
	'I': "i",
	'J': "l",
	'F': "f",
	'D': "d",
}
