package tree

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/awalterschulze/gographviz"
	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/feature"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *feature.Schema {
	s, err := feature.NewSchema(
		feature.NewContinuousFeature("x"),
		feature.NewDiscreteFeature("c", []string{"a", "b"}),
		feature.NewContinuousFeature("unused"),
	)
	require.NoError(t, err)
	return s
}

func testNodes(s *feature.Schema) []Node {
	x := s.Feature(0).(*feature.ContinuousFeature)
	c := s.Feature(1).(*feature.DiscreteFeature)
	return []Node{
		{ID: 0, ParentID: NoNode, Left: 1, Right: 2, Criterion: feature.NewContinuousCriterion(x, 0, 2.5), Reduction: 10, Count: 6, Mean: 4},
		{ID: 1, ParentID: 0, Left: NoNode, Right: NoNode, Count: 3, Mean: 1, Depth: 1},
		{ID: 2, ParentID: 0, Left: 3, Right: 4, Criterion: feature.NewDiscreteCriterion(c, 1, 1), Reduction: 2, Count: 3, Mean: 17.0 / 3, Depth: 1},
		{ID: 3, ParentID: 2, Left: NoNode, Right: NoNode, Count: 2, Mean: 5, Depth: 2},
		{ID: 4, ParentID: 2, Left: NoNode, Right: NoNode, Count: 1, Mean: 7, Depth: 2},
	}
}

func testTree(t *testing.T) *Tree {
	s := testSchema(t)
	tr, err := New(s, "y", testNodes(s))
	require.NoError(t, err)
	return tr
}

func TestNew(t *testing.T) {
	tr := testTree(t)
	require.Equal(t, 5, tr.Len())
	require.Equal(t, 3, tr.Leaves())
	require.Equal(t, 2, tr.Depth())
	require.Equal(t, "y", tr.Response())
	require.Equal(t, 6, tr.Root().Count)

	s := testSchema(t)
	cases := map[string]func([]Node) []Node{
		"no nodes":        func([]Node) []Node { return nil },
		"root parent":     func(ns []Node) []Node { ns[0].ParentID = 3; return ns },
		"wrong id":        func(ns []Node) []Node { ns[3].ID = 7; return ns },
		"leaf children":   func(ns []Node) []Node { ns[1].Left = 3; return ns },
		"child before":    func(ns []Node) []Node { ns[2].Left = 1; return ns },
		"child missing":   func(ns []Node) []Node { ns[2].Right = 9; return ns },
		"wrong parent":    func(ns []Node) []Node { ns[4].ParentID = 0; return ns },
		"disconnected":    func(ns []Node) []Node { return append(ns, Node{ID: 5, ParentID: 2, Left: NoNode, Right: NoNode}) },
		"foreign feature": func(ns []Node) []Node { ns[0].Criterion = feature.NewContinuousCriterion(feature.NewContinuousFeature("z"), 0, 1); return ns },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(s, "y", mutate(testNodes(s)))
			require.Error(t, err)
		})
	}
}

func TestPredict(t *testing.T) {
	tr := testTree(t)
	cases := []struct {
		name     string
		sample   []float64
		expected float64
	}{
		{"left leaf", []float64{1, 0, 0}, 1},
		{"threshold goes left", []float64{2.5, 1, 0}, 1},
		{"right left leaf", []float64{3, 1, 0}, 5},
		{"right right leaf", []float64{3, 0, 0}, 7},
		{"missing continuous goes right", []float64{math.NaN(), 1, 0}, 5},
		{"unseen level goes right", []float64{3, -1, 0}, 7},
		{"out of range level goes right", []float64{3, 12, 0}, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := tr.Predict(c.sample)
			require.NoError(t, err)
			require.Equal(t, c.expected, p)
		})
	}

	var sme *feature.SchemaMismatchError
	_, err := tr.Predict([]float64{1, 0})
	require.True(t, errors.As(err, &sme))
	_, err = tr.Predict([]float64{3, 0.5, 0})
	require.True(t, errors.As(err, &sme))

	p, err := tr.PredictRecord(map[string]string{"x": "4", "c": "b"})
	require.NoError(t, err)
	require.Equal(t, 5.0, p)
}

type lazySample struct {
	values    map[int]float64
	requested []int
}

func (ls *lazySample) ValueFor(column int) (float64, error) {
	ls.requested = append(ls.requested, column)
	v, ok := ls.values[column]
	if !ok {
		return 0, fmt.Errorf("no value for column %d", column)
	}
	return v, nil
}

func TestPredictSample(t *testing.T) {
	tr := testTree(t)
	s := &lazySample{values: map[int]float64{0: 1}}
	p, err := tr.PredictSample(s)
	require.NoError(t, err)
	require.Equal(t, 1.0, p)
	require.Equal(t, []int{0}, s.requested)

	_, err = tr.PredictSample(&lazySample{values: map[int]float64{0: 3}})
	require.Error(t, err)
}

func TestPredictTable(t *testing.T) {
	tr := testTree(t)
	f, err := dataset.New(tr.Schema(), "y", [][]float64{{1, 0, 0}, {3, 1, 0}}, []float64{1, 5})
	require.NoError(t, err)
	ps, err := tr.PredictTable(f)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 5}, ps)
}

func TestImportance(t *testing.T) {
	tr := testTree(t)
	importance := tr.Importance()
	require.Equal(t, []float64{10, 2, 0}, importance)
}

func TestTraverse(t *testing.T) {
	tr := testTree(t)
	var topdown, bottomup []int
	require.NoError(t, tr.Traverse(false, func(n Node) error {
		topdown = append(topdown, n.ID)
		return nil
	}))
	require.NoError(t, tr.Traverse(true, func(n Node) error {
		bottomup = append(bottomup, n.ID)
		return nil
	}))
	require.Equal(t, []int{0, 1, 2, 3, 4}, topdown)
	require.Equal(t, []int{1, 3, 4, 2, 0}, bottomup)

	stop := errors.New("stop")
	var visited int
	err := tr.Traverse(false, func(n Node) error {
		visited++
		if n.ID == 2 {
			return stop
		}
		return nil
	})
	require.Equal(t, stop, err)
	require.Equal(t, 3, visited)
}

func TestString(t *testing.T) {
	s := testTree(t).String()
	require.Contains(t, s, "[0]\n{ x <= 2.5, reduction = 10, size = 6 }")
	require.Contains(t, s, "|__[4]")
	require.Contains(t, s, "value = 7, size = 1")
}

func TestDot(t *testing.T) {
	tr := testTree(t)
	dot, err := tr.Dot()
	require.NoError(t, err)
	again, err := tr.Dot()
	require.NoError(t, err)
	require.Equal(t, dot, again)

	g, err := gographviz.Read([]byte(dot))
	require.NoError(t, err)
	require.True(t, g.Directed)
	require.Len(t, g.Nodes.Nodes, tr.Len())
	require.Len(t, g.Edges.Edges, tr.Len()-1)

	leafValues := map[string]float64{}
	for _, n := range g.Nodes.Nodes {
		label, err := strconv.Unquote(n.Attrs["label"])
		require.NoError(t, err)
		if n.Attrs["shape"] != "box" {
			continue
		}
		line := strings.SplitN(label, "\n", 2)[0]
		v, err := strconv.ParseFloat(strings.TrimPrefix(line, "value = "), 64)
		require.NoError(t, err)
		leafValues[n.Name] = v
	}
	expected := map[string]float64{}
	require.NoError(t, tr.Traverse(false, func(n Node) error {
		if n.Leaf() {
			expected[fmt.Sprintf("n%d", n.ID)] = n.Mean
		}
		return nil
	}))
	require.Equal(t, expected, leafValues)

	branches := map[string]string{}
	for _, e := range g.Edges.Edges {
		branches[e.Src+"->"+e.Dst] = e.Attrs["label"]
	}
	require.Equal(t, `"true"`, branches["n0->n1"])
	require.Equal(t, `"false"`, branches["n0->n2"])
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	tr := testTree(t)
	s := NewMemoryStore()
	defer s.Close(ctx)

	id, err := s.Create(ctx, tr)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Same(t, tr, got)

	got, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Store(ctx, "fixed", tr))
	got, err = s.Get(ctx, "fixed")
	require.NoError(t, err)
	require.Same(t, tr, got)

	require.NoError(t, s.Delete(ctx, id))
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Create(cctx, tr)
	require.Error(t, err)
}
