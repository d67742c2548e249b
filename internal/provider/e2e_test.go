package provider_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/depgraph"
	"github.com/fukkitmc/mapjar/internal/mapping"
	"github.com/fukkitmc/mapjar/internal/provider"
	"github.com/fukkitmc/mapjar/internal/remap"
	"github.com/fukkitmc/mapjar/internal/remap/classfile"
	mjtestutil "github.com/fukkitmc/mapjar/internal/testutil"
)

const tinyMappings = "tiny\t2\t0\tofficial\tintermediary\tnamed\n" +
	"c\tofficial/Foo\tnet/minecraft/class_1\tnamed/Bar\n" +
	"\tm\t()V\ta\tmethod_1\ttick\n"

type countingTransformer struct {
	provider.Transformer
	calls int
}

func (c *countingTransformer) Transform(ctx context.Context, job *remap.Job) error {
	c.calls++
	return c.Transformer.Transform(ctx, job)
}

type endToEnd struct {
	dir     string
	store   *mapping.Store
	adapter *remap.Adapter
	counter *countingTransformer
	graph   *depgraph.Graph
	source  string
}

func newEndToEnd(t *testing.T) *endToEnd {
	t.Helper()
	dir := t.TempDir()

	store, err := mapping.NewStore(mapping.StoreOptions{
		Path: mjtestutil.WriteFile(t, dir, "mappings.tiny", tinyMappings),
	})
	require.NoError(t, err)

	foo := mjtestutil.Class{
		Name:       "official/Foo",
		SourceFile: "Foo.java",
		Methods:    []mjtestutil.Method{{Name: "a", Desc: "()V"}},
		Refs:       []mjtestutil.Ref{{Owner: "official/Foo", Name: "a", Desc: "()V"}},
	}
	source := mjtestutil.WriteJar(t, filepath.Join(dir, "server.jar"),
		mjtestutil.Entry{Name: "META-INF/MANIFEST.MF", Data: []byte("Manifest-Version: 1.0\n")},
		mjtestutil.ClassEntry(foo),
		mjtestutil.Entry{Name: "data/minecraft/recipe.json", Data: []byte("{}")},
	)

	adapter := remap.NewAdapter(classfile.New(), 2)
	return &endToEnd{
		dir:     dir,
		store:   store,
		adapter: adapter,
		counter: &countingTransformer{Transformer: adapter},
		graph:   depgraph.New(""),
		source:  source,
	}
}

func (e *endToEnd) provider(t *testing.T, refresh bool) *provider.Provider {
	t.Helper()
	p, err := provider.New(provider.Config{
		Layout:      artifact.Layout{CacheDir: filepath.Join(e.dir, "cache")},
		Inputs:      inputs,
		Refresh:     refresh,
		Source:      provider.StaticSource(e.source),
		Mappings:    e.store,
		Transformer: e.counter,
		Materializer: &provider.RemapMaterializer{
			Transformer: e.adapter,
			Mappings:    e.store,
			From:        provider.DefaultIntermediateNamespace,
			To:          provider.DefaultTargetNamespace,
		},
		Registrar: e.graph,
	})
	require.NoError(t, err)
	return p
}

func className(t *testing.T, data []byte) string {
	t.Helper()
	cf, err := classfile.Parse(data)
	require.NoError(t, err)
	name, err := cf.Name()
	require.NoError(t, err)
	return name
}

func TestEndToEnd_RemapsAndRegisters(t *testing.T) {
	e := newEndToEnd(t)
	p := e.provider(t, false)

	res, err := p.Provide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, provider.OutcomeRebuilt, res.Outcome)

	intermediate := mjtestutil.ReadJar(t, p.Intermediate().Path)
	require.Contains(t, intermediate, "net/minecraft/class_1.class")
	assert.Equal(t, "net/minecraft/class_1", className(t, intermediate["net/minecraft/class_1.class"]))

	mapped := mjtestutil.ReadJar(t, p.Mapped().Path)
	assert.Equal(t, []string{
		"META-INF/MANIFEST.MF",
		"data/minecraft/recipe.json",
		"named/Bar.class",
	}, mjtestutil.JarNames(t, p.Mapped().Path))
	assert.Equal(t, "named/Bar", className(t, mapped["named/Bar.class"]))
	assert.Equal(t, []byte("{}"), mapped["data/minecraft/recipe.json"])

	dep, ok := e.graph.Lookup("minecraft", "mapped")
	require.True(t, ok)
	assert.Equal(t, "minecraft-1.16.5-mapped-yarn-1.16.5+build.10", dep.ID())
	assert.Equal(t, "net.minecraft:minecraft:1.16.5-mapped-yarn-1.16.5+build.10", dep.Notation())
}

func TestEndToEnd_SecondRunSkips(t *testing.T) {
	e := newEndToEnd(t)

	_, err := e.provider(t, false).Provide(context.Background())
	require.NoError(t, err)
	res, err := e.provider(t, false).Provide(context.Background())
	require.NoError(t, err)

	assert.Equal(t, provider.OutcomeSkipped, res.Outcome)
	assert.Equal(t, 1, e.counter.calls)
}

func TestEndToEnd_RefreshIsReproducible(t *testing.T) {
	e := newEndToEnd(t)
	p := e.provider(t, false)

	_, err := p.Provide(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(p.Mapped().Path)
	require.NoError(t, err)

	_, err = e.provider(t, true).Provide(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(p.Mapped().Path)
	require.NoError(t, err)

	assert.Equal(t, 2, e.counter.calls)
	assert.True(t, bytes.Equal(first, second))
}

func TestEndToEnd_UnknownNamespaceCleansUp(t *testing.T) {
	e := newEndToEnd(t)
	p, err := provider.New(provider.Config{
		Layout:                artifact.Layout{CacheDir: filepath.Join(e.dir, "cache")},
		Inputs:                inputs,
		IntermediateNamespace: "hashed",
		Source:                provider.StaticSource(e.source),
		Mappings:              e.store,
		Transformer:           e.counter,
		Materializer:          provider.CopyMaterializer{},
		Registrar:             e.graph,
	})
	require.NoError(t, err)

	_, err = p.Provide(context.Background())
	var unavailable *mapping.MappingUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Zero(t, e.counter.calls)
	assert.Empty(t, mjtestutil.ListDir(t, filepath.Join(e.dir, "cache")))
}
