package typecanon

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/typecanon/pkg/metrics"
	"github.com/i5heu/typecanon/pkg/model"
	"github.com/i5heu/typecanon/pkg/repository"
)

func quietConfig() Config {
	return Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Check: true}
}

// 0 int, 1 list = record(int, 2), 2 cons(1), then the same list again as 3, 4
var (
	listLabels = []model.Label{"int", "record", "cons", "record", "cons"}
	listSuccs  = [][]int{{}, {0, 2}, {1}, {0, 4}, {3}}
)

func TestAddGraph(t *testing.T) {
	c := New(quietConfig())

	ids, err := c.AddGraph(listLabels, listSuccs)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{0, 1, 2, 1, 2}, ids)
	assert.True(t, c.Equal(ids[1], ids[3]))
	assert.False(t, c.Equal(ids[1], ids[2]))

	sig, err := c.Signature(ids[1])
	require.NoError(t, err)
	assert.Equal(t, "record(0,cons(^[]))", sig)

	e, comp, err := c.Lookup(ids[2])
	require.NoError(t, err)
	assert.Equal(t, 1, e.Index)
	assert.True(t, comp.Recursive)

	require.NoError(t, c.Validate())
	assert.Equal(t, "repository{ids: 3, components: 2, keys: 3}", c.String())
}

func TestAddGraphRejectsMalformedGraphs(t *testing.T) {
	c := New(quietConfig())

	_, err := c.AddGraph([]model.Label{"a"}, nil)
	assert.ErrorIs(t, err, ErrGraph)

	_, err = c.AddGraph([]model.Label{"a"}, [][]int{{3}})
	assert.ErrorIs(t, err, ErrGraph)

	assert.Zero(t, c.Stats().IDs)
}

func TestUnknownID(t *testing.T) {
	c := New(quietConfig())

	_, _, err := c.Lookup(0)
	assert.ErrorIs(t, err, ErrUnknownID)

	_, err = c.Signature(5)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestAddSCCThroughCanon(t *testing.T) {
	c := New(quietConfig())
	defs := []repository.Definition{
		{Label: "int"},
		{Label: "ptr", Succs: []repository.Ref{repository.Local(0)}},
	}
	out := repository.NewMapping(len(defs))
	c.AddSCC([]int{0}, defs, out)
	c.AddSCC([]int{1}, defs, out)
	assert.Equal(t, []model.ID{0, 1}, out)
}

func TestReadersAlongsideWriter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	conf := quietConfig()
	conf.Observer = m
	c := New(conf)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				ids, err := c.AddGraph(listLabels, listSuccs)
				assert.NoError(t, err)
				assert.Equal(t, []model.ID{0, 1, 2, 1, 2}, ids)
				_ = c.Stats()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, c.Stats().IDs)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IDs))
}

func TestLookupReturnsCopy(t *testing.T) {
	c := New(quietConfig())
	ids, err := c.AddGraph(listLabels, listSuccs)
	require.NoError(t, err)

	_, comp, err := c.Lookup(ids[1])
	require.NoError(t, err)
	comp.Vertices[0].Edges[0] = model.External(ids[1])
	comp.Vertices[0].Label = "changed"

	require.NoError(t, c.Validate())
	sig, err := c.Signature(ids[1])
	require.NoError(t, err)
	assert.Equal(t, "record(0,cons(^[]))", sig)
}

func TestFingerprint(t *testing.T) {
	a := New(quietConfig())
	b := New(quietConfig())
	idsA, err := a.AddGraph(listLabels, listSuccs)
	require.NoError(t, err)
	idsB, err := b.AddGraph(listLabels[:3], listSuccs[:3])
	require.NoError(t, err)

	fps := map[uint64]model.ID{}
	for i, id := range idsA {
		fp, err := a.Fingerprint(id)
		require.NoError(t, err)
		if prev, ok := fps[fp]; ok {
			assert.Equal(t, prev, id, "definition %d", i)
		}
		fps[fp] = id
	}
	assert.Len(t, fps, 3)

	for i, id := range idsB {
		want, err := a.Fingerprint(idsA[i])
		require.NoError(t, err)
		got, err := b.Fingerprint(id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = a.Fingerprint(9)
	assert.ErrorIs(t, err, ErrUnknownID)
}
