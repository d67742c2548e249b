package classfile

import (
	"sync"

	"github.com/fukkitmc/mapjar/internal/mapping"
)

// classInfo is the part of a class the member resolver needs.
type classInfo struct {
	super      string
	interfaces []string
}

// hierarchy resolves inherited members across input and classpath classes,
// all named in the source namespace.
type hierarchy struct {
	table   *mapping.Table
	classes map[string]classInfo

	mu      sync.Mutex
	methods map[mapping.MemberKey]string
	fields  map[mapping.MemberKey]string
}

func newHierarchy(table *mapping.Table) *hierarchy {
	return &hierarchy{
		table:   table,
		classes: map[string]classInfo{},
		methods: map[mapping.MemberKey]string{},
		fields:  map[mapping.MemberKey]string{},
	}
}

// add records a class. The first definition of a name wins.
func (h *hierarchy) add(name string, info classInfo) {
	if _, ok := h.classes[name]; ok {
		return
	}
	h.classes[name] = info
}

// method returns the new name of a method referenced through owner, looking
// through super classes and interfaces when owner does not declare it.
func (h *hierarchy) method(owner, name, desc string) string {
	if !h.table.HasMembers() || isSpecialMethod(name) {
		return name
	}
	key := mapping.MemberKey{Owner: owner, Name: name, Desc: desc}
	h.mu.Lock()
	v, ok := h.methods[key]
	h.mu.Unlock()
	if ok {
		return v
	}

	v = name
	seen := map[string]bool{}
	queue := []string{owner}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if seen[c] {
			continue
		}
		seen[c] = true
		if to, ok := h.table.MapMethod(c, name, desc); ok {
			v = to
			break
		}
		if info, ok := h.classes[c]; ok {
			if info.super != "" {
				queue = append(queue, info.super)
			}
			queue = append(queue, info.interfaces...)
		}
	}

	h.mu.Lock()
	h.methods[key] = v
	h.mu.Unlock()
	return v
}

// field follows JVM field resolution: the owner, its interfaces, then its
// super class.
func (h *hierarchy) field(owner, name, desc string) string {
	if !h.table.HasMembers() {
		return name
	}
	key := mapping.MemberKey{Owner: owner, Name: name, Desc: desc}
	h.mu.Lock()
	v, ok := h.fields[key]
	h.mu.Unlock()
	if ok {
		return v
	}

	v = h.resolveField(owner, name, desc, map[string]bool{})
	if v == "" {
		v = name
	}

	h.mu.Lock()
	h.fields[key] = v
	h.mu.Unlock()
	return v
}

func (h *hierarchy) resolveField(owner, name, desc string, seen map[string]bool) string {
	if owner == "" || seen[owner] {
		return ""
	}
	seen[owner] = true
	if to, ok := h.table.MapField(owner, name, desc); ok {
		return to
	}
	info, ok := h.classes[owner]
	if !ok {
		return ""
	}
	for _, i := range info.interfaces {
		if to := h.resolveField(i, name, desc, seen); to != "" {
			return to
		}
	}
	return h.resolveField(info.super, name, desc, seen)
}

func isSpecialMethod(name string) bool {
	return name == "<init>" || name == "<clinit>"
}
