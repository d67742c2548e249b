package classfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fukkitmc/mapjar/internal/mapping"
	"github.com/fukkitmc/mapjar/internal/remap"
	"github.com/fukkitmc/mapjar/internal/testutil"
)

type memSink struct {
	mu      sync.Mutex
	classes map[string][]byte
}

func (s *memSink) WriteClass(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.classes == nil {
		s.classes = map[string][]byte{}
	}
	if _, dup := s.classes[name]; dup {
		return fmt.Errorf("duplicate %s", name)
	}
	s.classes[name] = data
	return nil
}

func (s *memSink) names() []string {
	var out []string
	for n := range s.classes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func testTable() *mapping.Table {
	return mapping.NewBuilder("official", "named").
		Class("a", "pkg/Foo").
		Class("b", "pkg/Bar").
		Class("a$c", "pkg/Foo$Child").
		Field("a", "f", "Lb;", "bar").
		Method("a", "m", "(Lb;)V", "run").
		Build()
}

func runEngine(t *testing.T, table *mapping.Table, classpath []testutil.Class, inputs ...testutil.Class) *memSink {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	var entries []testutil.Entry
	for _, c := range inputs {
		entries = append(entries, testutil.ClassEntry(c))
	}
	in := testutil.WriteJar(t, filepath.Join(dir, "in.jar"), entries...)

	s, err := New().Open(ctx, table, remap.Options{RenameInvalidLocals: true, RebuildSourceFilenames: true, Threads: 2})
	require.NoError(t, err)
	defer s.Close()

	if len(classpath) > 0 {
		var cp []testutil.Entry
		for _, c := range classpath {
			cp = append(cp, testutil.ClassEntry(c))
		}
		require.NoError(t, s.ReadClasspath(ctx, testutil.WriteJar(t, filepath.Join(dir, "cp.jar"), cp...)))
	}
	require.NoError(t, s.ReadInput(ctx, in))

	sink := &memSink{}
	require.NoError(t, s.Apply(ctx, sink))
	return sink
}

func parse(t *testing.T, data []byte) *ClassFile {
	t.Helper()
	cf, err := Parse(data)
	require.NoError(t, err)
	return cf
}

func utf8At(t *testing.T, cf *ClassFile, i uint16) string {
	t.Helper()
	s, err := cf.Pool.Utf8At(i)
	require.NoError(t, err)
	return s
}

// members returns "name desc" for each member.
func members(t *testing.T, cf *ClassFile, ms []*Member) []string {
	t.Helper()
	var out []string
	for _, m := range ms {
		out = append(out, utf8At(t, cf, m.Name)+" "+utf8At(t, cf, m.Desc))
	}
	return out
}

// refs returns "owner.name desc" for every member reference constant.
func refs(t *testing.T, cf *ClassFile) []string {
	t.Helper()
	var out []string
	for i := 1; i < cf.Pool.Len(); i++ {
		e := cf.Pool.entries[i]
		switch e.Tag {
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			owner, err := cf.Pool.ClassNameAt(e.A)
			require.NoError(t, err)
			name, desc, err := cf.Pool.NameAndTypeAt(e.B)
			require.NoError(t, err)
			out = append(out, owner+"."+name+" "+desc)
		}
	}
	sort.Strings(out)
	return out
}

func findAttr(t *testing.T, cf *ClassFile, attrs []*Attribute, name string) []byte {
	t.Helper()
	for _, a := range attrs {
		if utf8At(t, cf, a.Name) == name {
			return a.Data
		}
	}
	return nil
}

// locals returns the names in a method's local table of the given kind and
// the descriptors or signatures next to them.
func locals(t *testing.T, cf *ClassFile, m *Member, kind string) (names, types []string) {
	t.Helper()
	code := findAttr(t, cf, m.Attributes, "Code")
	require.NotNil(t, code)
	r := &reader{b: code}
	r.bytes(4)
	r.bytes(int(r.u4()))
	r.bytes(8 * int(r.u2()))
	for _, a := range nestedAttributes(r) {
		if utf8At(t, cf, a.Name) != kind {
			continue
		}
		lr := &reader{b: a.Data}
		n := int(lr.u2())
		for i := 0; i < n; i++ {
			lr.u2()
			lr.u2()
			names = append(names, utf8At(t, cf, lr.u2()))
			types = append(types, utf8At(t, cf, lr.u2()))
			lr.u2()
		}
		require.NoError(t, lr.err)
	}
	require.NoError(t, r.err)
	return names, types
}

func TestParse_RoundTripIsByteIdentical(t *testing.T) {
	c := testutil.Class{
		Name:       "x/Y",
		Interfaces: []string{"java/lang/Runnable"},
		Fields:     []testutil.Field{{Name: "count", Desc: "J"}},
		Methods: []testutil.Method{{
			Name:   "run",
			Desc:   "()V",
			Locals: []testutil.Local{{Name: "this", Desc: "Lx/Y;"}},
		}},
		Strings:    []string{"hello"},
		SourceFile: "Y.java",
	}
	data := c.Bytes()
	cf := parse(t, data)

	name, err := cf.Name()
	require.NoError(t, err)
	assert.Equal(t, "x/Y", name)
	ifaces, err := cf.InterfaceNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"java/lang/Runnable"}, ifaces)
	assert.True(t, bytes.Equal(data, cf.Bytes()))
}

func TestParse_Errors(t *testing.T) {
	valid := testutil.Class{Name: "a"}.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte{0xCA, 0xFE, 0xBA, 0xBF}, valid[4:]...)},
		{"truncated", valid[:len(valid)-3]},
		{"trailing bytes", append(append([]byte{}, valid...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestPool_AddDeduplicates(t *testing.T) {
	cf := parse(t, testutil.Class{Name: "a"}.Bytes())
	before := cf.Pool.Len()

	i, err := cf.Pool.AddUtf8("a")
	require.NoError(t, err)
	assert.Equal(t, before, cf.Pool.Len(), "existing utf8 reused")
	assert.Equal(t, "a", utf8At(t, cf, i))

	n1, err := cf.Pool.AddNameAndType("x", "I")
	require.NoError(t, err)
	n2, err := cf.Pool.AddNameAndType("x", "I")
	require.NoError(t, err)
	assert.Equal(t, n1, n2)

	c, err := cf.Pool.AddClass("a")
	require.NoError(t, err)
	assert.Equal(t, cf.This, c)
}

func TestEngine_RenamesClassesMembersAndDescriptors(t *testing.T) {
	input := testutil.Class{
		Name:       "a",
		Interfaces: []string{"b"},
		Fields: []testutil.Field{
			{Name: "f", Desc: "Lb;", Signature: "Ljava/util/List<Lb;>;"},
		},
		Methods: []testutil.Method{
			{Name: "m", Desc: "(Lb;)V"},
			{Name: "<init>", Desc: "()V"},
		},
		Refs: []testutil.Ref{
			{Owner: "a", Name: "m", Desc: "(Lb;)V"},
			{Field: true, Owner: "a", Name: "f", Desc: "Lb;"},
			{Owner: "java/lang/Object", Name: "<init>", Desc: "()V"},
		},
		Strings:     []string{"a"},
		SourceFile:  "a.java",
		Annotations: []string{"Lb;"},
		Inner:       []testutil.InnerClass{{Inner: "a$c", Outer: "a", Simple: "c"}},
	}

	sink := runEngine(t, testTable(), nil, input)
	require.Equal(t, []string{"pkg/Foo"}, sink.names())
	cf := parse(t, sink.classes["pkg/Foo"])

	ifaces, err := cf.InterfaceNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/Bar"}, ifaces)
	assert.Equal(t, []string{"bar Lpkg/Bar;"}, members(t, cf, cf.Fields))
	assert.Equal(t, []string{"run (Lpkg/Bar;)V", "<init> ()V"}, members(t, cf, cf.Methods))
	assert.Equal(t, []string{
		"java/lang/Object.<init> ()V",
		"pkg/Foo.bar Lpkg/Bar;",
		"pkg/Foo.run (Lpkg/Bar;)V",
	}, refs(t, cf))

	sig := findAttr(t, cf, cf.Fields[0].Attributes, "Signature")
	assert.Equal(t, "Ljava/util/List<Lpkg/Bar;>;", utf8At(t, cf, (&reader{b: sig}).u2()))

	sf := findAttr(t, cf, cf.Attributes, "SourceFile")
	assert.Equal(t, "Foo.java", utf8At(t, cf, (&reader{b: sf}).u2()))

	ann := &reader{b: findAttr(t, cf, cf.Attributes, "RuntimeVisibleAnnotations")}
	ann.u2()
	assert.Equal(t, "Lpkg/Bar;", utf8At(t, cf, ann.u2()))

	ic := &reader{b: findAttr(t, cf, cf.Attributes, "InnerClasses")}
	require.Equal(t, uint16(1), ic.u2())
	inner, err := cf.Pool.ClassNameAt(ic.u2())
	require.NoError(t, err)
	outer, err := cf.Pool.ClassNameAt(ic.u2())
	require.NoError(t, err)
	assert.Equal(t, "pkg/Foo$Child", inner)
	assert.Equal(t, "pkg/Foo", outer)
	assert.Equal(t, "Child", utf8At(t, cf, ic.u2()))

	var literals []string
	for i := 1; i < cf.Pool.Len(); i++ {
		if e := cf.Pool.entries[i]; e.Tag == TagString {
			literals = append(literals, utf8At(t, cf, e.A))
		}
	}
	assert.Equal(t, []string{"a"}, literals, "string literals are not renamed")
}

func TestEngine_UnmappedClassIsUnchanged(t *testing.T) {
	input := testutil.Class{
		Name:    "other/Thing",
		Methods: []testutil.Method{{Name: "go", Desc: "()V"}},
	}
	sink := runEngine(t, testTable(), nil, input)
	require.Contains(t, sink.classes, "other/Thing")
	assert.True(t, bytes.Equal(input.Bytes(), sink.classes["other/Thing"]))
}

func TestEngine_InheritedMethodNamesFromClasspath(t *testing.T) {
	table := mapping.NewBuilder("official", "named").
		Method("p", "m", "()V", "tick").
		Method("p", "s", "()V", "helper").
		Build()

	parent := testutil.Class{Name: "p", Methods: []testutil.Method{{Name: "m", Desc: "()V"}}}
	child := testutil.Class{
		Name:  "c",
		Super: "p",
		Methods: []testutil.Method{
			{Name: "m", Desc: "()V"},
			{Name: "s", Desc: "()V", Access: testutil.AccStatic},
		},
		Refs: []testutil.Ref{{Owner: "c", Name: "m", Desc: "()V"}},
	}

	sink := runEngine(t, table, []testutil.Class{parent}, child)
	require.Equal(t, []string{"c"}, sink.names(), "classpath classes are not emitted")
	cf := parse(t, sink.classes["c"])

	assert.Equal(t, []string{"tick ()V", "s ()V"}, members(t, cf, cf.Methods),
		"overrides inherit names, static methods do not")
	assert.Contains(t, refs(t, cf), "c.tick ()V")
}

func TestEngine_RenamesInvalidLocals(t *testing.T) {
	input := testutil.Class{
		Name: "a",
		Methods: []testutil.Method{{
			Name: "m",
			Desc: "(ILb;)V",
			Locals: []testutil.Local{
				{Name: "this", Desc: "La;", Index: 0},
				{Name: "if", Desc: "I", Index: 1},
				{Name: "x-y", Desc: "Lb;", Signature: "Lb;", Index: 2},
				{Name: "i", Desc: "I", Index: 3},
			},
		}},
	}

	sink := runEngine(t, testTable(), nil, input)
	cf := parse(t, sink.classes["pkg/Foo"])

	names, descs := locals(t, cf, cf.Methods[0], "LocalVariableTable")
	assert.Equal(t, []string{"this", "i2", "bar", "i"}, names)
	assert.Equal(t, []string{"Lpkg/Foo;", "I", "Lpkg/Bar;", "I"}, descs)

	typed, sigs := locals(t, cf, cf.Methods[0], "LocalVariableTypeTable")
	assert.Equal(t, []string{"bar"}, typed)
	assert.Equal(t, []string{"Lpkg/Bar;"}, sigs)
}

func TestLocalBaseName(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"I", "i"},
		{"Z", "bl"},
		{"[J", "lArray"},
		{"Ljava/lang/String;", "string"},
		{"Lpkg/Outer$Inner;", "inner"},
		{"Lpkg/Class;", "class_"},
		{"Lpkg/Outer$1;", "var"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, localBaseName(tt.desc))
		})
	}
}

func TestValidLocalName(t *testing.T) {
	assert.True(t, validLocalName("this", 0))
	assert.False(t, validLocalName("this", 1))
	assert.True(t, validLocalName("$x_1", 1))
	assert.False(t, validLocalName("1x", 1))
	assert.False(t, validLocalName("int", 1))
	assert.False(t, validLocalName("", 1))
}

func TestSession_ApplyHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteJar(t, filepath.Join(dir, "in.jar"), testutil.ClassEntry(testutil.Class{Name: "a"}))

	s, err := New().Open(context.Background(), testTable(), remap.Options{})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.ReadInput(context.Background(), in))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Apply(ctx, &memSink{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSession_RejectsDuplicateInputClasses(t *testing.T) {
	dir := t.TempDir()
	c := testutil.Class{Name: "a"}
	in := testutil.WriteJar(t, filepath.Join(dir, "in.jar"),
		testutil.Entry{Name: "a.class", Data: c.Bytes()},
		testutil.Entry{Name: "copy/a.class", Data: c.Bytes()},
	)

	s, err := New().Open(context.Background(), testTable(), remap.Options{})
	require.NoError(t, err)
	defer s.Close()
	assert.ErrorContains(t, s.ReadInput(context.Background(), in), "duplicate input class a")
}

func TestSession_ApplyAfterClose(t *testing.T) {
	s, err := New().Open(context.Background(), testTable(), remap.Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Error(t, s.Apply(context.Background(), &memSink{}))
}

func TestInnerSimpleName(t *testing.T) {
	assert.Equal(t, "Child", innerSimpleName("pkg/Foo", "pkg/Foo$Child"))
	assert.Equal(t, "Deep$Er", innerSimpleName("pkg/Foo", "pkg/Foo$Deep$Er"))
	assert.Equal(t, "Moved", innerSimpleName("pkg/Foo", "other/Bar$Moved"))
	assert.Equal(t, "Top", innerSimpleName("", "pkg/Top"))
}

func TestOutermostSimpleName(t *testing.T) {
	assert.Equal(t, "Foo", outermostSimpleName("pkg/Foo$Child"))
	assert.Equal(t, "Foo", outermostSimpleName("Foo"))
}

func TestEngine_RenamesClashingLocals(t *testing.T) {
	input := testutil.Class{
		Name: "q",
		Methods: []testutil.Method{{
			Name:   "m",
			Desc:   "(II)V",
			Access: testutil.AccStatic,
			Locals: []testutil.Local{
				{Name: "x", Desc: "I", Index: 0},
				{Name: "x", Desc: "I", Index: 1},
				{Name: "☃", Desc: "Ljava/lang/String;", Index: 2},
			},
		}},
	}

	sink := runEngine(t, testTable(), nil, input)
	cf := parse(t, sink.classes["q"])
	names, _ := locals(t, cf, cf.Methods[0], "LocalVariableTable")
	assert.Equal(t, []string{"x", "i", "string"}, names)
}

func TestEngine_AppliesMappedParameterAndLocalNames(t *testing.T) {
	table := mapping.NewBuilder("official", "named").
		Class("a", "pkg/Foo").
		Method("a", "m", "(I)V", "run").
		Param("a", "m", "(I)V", 1, "ticks").
		Local("a", "m", "(I)V", 3, -1, 3, "count").
		Build()
	input := testutil.Class{
		Name: "a",
		Methods: []testutil.Method{{
			Name: "m",
			Desc: "(I)V",
			Locals: []testutil.Local{
				{Name: "this", Desc: "La;", Index: 0},
				{Name: "i", Desc: "I", Index: 1},
				{Name: "ticks", Desc: "I", Index: 2},
				{Name: "n", Desc: "I", Index: 3},
			},
		}},
	}

	sink := runEngine(t, table, nil, input)
	cf := parse(t, sink.classes["pkg/Foo"])

	assert.Equal(t, []string{"run (I)V"}, members(t, cf, cf.Methods))
	names, _ := locals(t, cf, cf.Methods[0], "LocalVariableTable")
	assert.Equal(t, []string{"this", "ticks", "i", "count"}, names,
		"mapped names win and the displaced local is renamed from its type")
}

func TestEngine_InvalidMappedLocalNameIsRepaired(t *testing.T) {
	table := mapping.NewBuilder("official", "named").
		Param("q", "m", "(Ljava/lang/String;)V", 0, "class").
		Build()
	input := testutil.Class{
		Name: "q",
		Methods: []testutil.Method{{
			Name:   "m",
			Desc:   "(Ljava/lang/String;)V",
			Access: testutil.AccStatic,
			Locals: []testutil.Local{
				{Name: "s", Desc: "Ljava/lang/String;", Index: 0},
			},
		}},
	}

	sink := runEngine(t, table, nil, input)
	cf := parse(t, sink.classes["q"])
	names, _ := locals(t, cf, cf.Methods[0], "LocalVariableTable")
	assert.Equal(t, []string{"string"}, names)
}
