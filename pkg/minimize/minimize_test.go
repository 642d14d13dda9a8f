package minimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/i5heu/typecanon/internal/testutil"
	"github.com/i5heu/typecanon/pkg/model"
)

func vx(label string, edges ...model.Edge) model.Vertex {
	return model.NewVertex(0, model.Label(label), edges)
}

func TestMinimizeCollapsesRedundantCycle(t *testing.T) { // A
	// a 2-cycle and a 3-cycle of one label are all the same infinite type
	vs := []model.Vertex{
		vx("L", model.Internal(1)),
		vx("L", model.Internal(0)),
		vx("L", model.Internal(3)),
		vx("L", model.Internal(4)),
		vx("L", model.Internal(2)),
	}
	p := Minimize(vs)
	assert.Equal(t, 1, p.NumBlocks())
	assert.Equal(t, 5, p.Size(0))
	assert.Equal(t, 0, p.Representative(0))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, p.Members(0))
}

func TestMinimizeKeepsExternalIDsApart(t *testing.T) { // A
	vs := []model.Vertex{
		vx("S", model.External(0)),
		vx("S", model.External(1)),
		vx("S", model.External(0)),
	}
	p := Minimize(vs)
	assert.Equal(t, 2, p.NumBlocks())
	assert.Equal(t, p.BlockOf(0), p.BlockOf(2))
	assert.NotEqual(t, p.BlockOf(0), p.BlockOf(1))
	assert.Equal(t, 3, p.Len())
}

func TestMinimizeSplitsByLabelArityAndSuccessor(t *testing.T) { // A
	vs := []model.Vertex{
		vx("L", model.Internal(1)),  // 0 -> b
		vx("M"),                     // 1
		vx("L", model.Internal(3)),  // 2 -> c
		vx("N"),                     // 3
		vx("L", model.Internal(1), model.Internal(1)),
	}
	p := Minimize(vs)
	assert.Equal(t, 5, p.NumBlocks())
	for b := 0; b < p.NumBlocks(); b++ {
		assert.Equal(t, b, p.Representative(b), "blocks are numbered by first member")
	}
}

func TestMinimizeRejectsDanglingEdges(t *testing.T) { // A
	assert.Panics(t, func() { Minimize([]model.Vertex{vx("L", model.Internal(1))}) })
}

func TestMinimizeMatchesBisimulation(t *testing.T) { // A
	maxN := 8
	if testutil.IsLongEnabled() {
		maxN = 40
	}
	rapid.Check(t, func(t *rapid.T) {
		vs := testutil.RandomVertices(t, maxN, 3)
		p := Minimize(vs)
		rel := testutil.Bisimilar(vs)

		for i := range vs {
			for j := range vs {
				if rel[i][j] != (p.BlockOf(i) == p.BlockOf(j)) {
					t.Fatalf("vertices %d and %d: bisimilar=%v, same block=%v (%v)",
						i, j, rel[i][j], p.BlockOf(i) == p.BlockOf(j), vs)
				}
			}
		}
		for b := 0; b < p.NumBlocks(); b++ {
			if p.Representative(b) != p.Members(b)[0] {
				t.Fatalf("representative of block %d is not its smallest member", b)
			}
		}
	})
}
