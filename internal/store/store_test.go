package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-mlpipeline/internal/store"
)

func TestMemoryStoreWithGraph(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore[string, string]()
	gra := graph.NewWithStore(graph.StringHash, graph.Store[string, string](st), graph.Directed(), graph.PreventCycles())

	for _, v := range []string{"download", "raw_data.parquet", "preprocess"} {
		require.NoError(t, gra.AddVertex(v))
	}

	require.NoError(t, gra.AddEdge("download", "raw_data.parquet"))
	require.NoError(t, gra.AddEdge("raw_data.parquet", "preprocess"))

	err := gra.AddEdge("preprocess", "download")
	assert.ErrorIs(t, err, graph.ErrEdgeCreatesCycle)

	preds, err := st.Predecessors("preprocess")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw_data.parquet"}, preds)

	preds, err = st.Predecessors("download")
	require.NoError(t, err)
	assert.Empty(t, preds)

	_, err = st.Predecessors("unknown")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)

	assert.ErrorIs(t, st.RemoveVertex("download"), graph.ErrVertexHasEdges)
}

func TestMemoryStoreUpdateVertex(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore[string, string]()
	require.NoError(t, st.AddVertex("download", "download", graph.VertexProperties{}))

	err := st.UpdateVertex("download", func(p *graph.VertexProperties) {
		p.Attributes["xlabel"] = "3s"
		p.Weight = 3
	})
	require.NoError(t, err)

	_, props, err := st.Vertex("download")
	require.NoError(t, err)
	assert.Equal(t, "3s", props.Attributes["xlabel"])
	assert.Equal(t, 3, props.Weight)

	assert.ErrorIs(t, st.UpdateVertex("unknown"), graph.ErrVertexNotFound)
}

func TestMemoryStoreCreatesCycle(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore[string, string]()

	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, st.AddVertex(v, v, graph.VertexProperties{}))
	}

	require.NoError(t, st.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))
	require.NoError(t, st.AddEdge("b", "c", graph.Edge[string]{Source: "b", Target: "c"}))

	ms, ok := st.(*store.MemoryStore[string, string])
	require.True(t, ok)

	cycle, err := ms.CreatesCycle("c", "a")
	require.NoError(t, err)
	assert.True(t, cycle)

	cycle, err = ms.CreatesCycle("a", "c")
	require.NoError(t, err)
	assert.False(t, cycle)

	_, err = ms.CreatesCycle("a", "unknown")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}
