/*
Package regtree grows CART regression trees: binary decision trees that
predict a numeric response by greedily splitting the training rows on the
feature test that most reduces the sum of squared deviations of their
responses.

Nodes are split best first: among all the nodes waiting to be split, the
one whose best split has the highest reduction is split first, ties going
to the node created first. When the node budget runs out, the tree has the
splits with the highest reductions available at each step, and growing
with a larger budget only adds splits to it.
*/
package regtree

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/feature"
	"github.com/pbanos/regtree/queue"
	"github.com/pbanos/regtree/stats"
	"github.com/pbanos/regtree/tree"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Grower grows trees with a fixed set of parameters. It holds no state
// between growths, so it can be used to grow several trees at the same time.
type Grower struct {
	params Params
}

/*
New takes the growth parameters and returns a Grower that uses them, or an
*InvalidParameterError if they are not valid.
*/
func New(p Params) (*Grower, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Pruner == nil {
		p.Pruner = NoPruner()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Features != nil {
		p.Features = append([]int{}, p.Features...)
	}
	return &Grower{p}, nil
}

/*
Fit grows a tree from the given table with DefaultParams.
*/
func Fit(t dataset.Table) (*tree.Tree, error) {
	return FitWith(context.Background(), t, DefaultParams())
}

/*
FitLimited grows a tree from the given table with DefaultParams but the
given maximum depth and number of nodes.
*/
func FitLimited(t dataset.Table, maxDepth, maxNodes int) (*tree.Tree, error) {
	p := DefaultParams()
	p.MaxDepth = maxDepth
	p.MaxNodes = maxNodes
	return FitWith(context.Background(), t, p)
}

/*
FitWith grows a tree from the given table with the given parameters.
*/
func FitWith(ctx context.Context, t dataset.Table, p Params) (*tree.Tree, error) {
	g, err := New(p)
	if err != nil {
		return nil, err
	}
	return g.Grow(ctx, t)
}

// Params returns the parameters of the grower.
func (gr *Grower) Params() Params {
	return gr.params
}

/*
Grow takes a context and a table and returns a tree grown from its rows to
predict their responses. It returns an *InsufficientDataError if the table
has fewer than twice MinLeafSize rows, an *InvalidParameterError if the
eligible features are not columns of the table schema, a wrapped
*feature.SchemaMismatchError if a value does not belong to its feature or a
response is not a finite number, and the context error if it is cancelled
before the tree is complete.

Growing the same table with the same parameters always produces the same
tree, whatever the parallelism.
*/
func (gr *Grower) Grow(ctx context.Context, t dataset.Table) (*tree.Tree, error) {
	p := gr.params
	if t.Len() < 2*p.MinLeafSize {
		return nil, &InsufficientDataError{t.Len(), p.MinLeafSize}
	}
	features, err := p.eligibleFeatures(t.Schema())
	if err != nil {
		return nil, err
	}
	g, err := newGrowth(ctx, t, &gr.params, features)
	if err != nil {
		return nil, err
	}
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	root, _ := g.arena.reserve(tree.NoNode, 0, 1)
	if err = g.develop(root, 0, rows); err != nil {
		return nil, err
	}
	for next := g.frontier.Peek(); next != nil; next = g.frontier.Peek() {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		left, ok := g.arena.reserve(next.NodeID, next.Depth+1, 2)
		if !ok {
			g.logger.Debug("node budget exhausted",
				zap.Int("nodes", g.arena.len()),
				zap.Int("pending", g.frontier.Count()),
				zap.Int("next node", next.NodeID),
				zap.Float64("next reduction", next.Reduction),
			)
			break
		}
		task := g.frontier.Pull()
		right := left + 1
		leftRows, rightRows := g.partition(task)
		g.arena.update(task.NodeID, func(n *tree.Node) {
			n.Left = left
			n.Right = right
			n.Criterion = task.Criterion
			n.Reduction = task.Reduction
		})
		g.logger.Debug("split node",
			zap.Int("node", task.NodeID),
			zap.Int("depth", task.Depth),
			zap.Stringer("criterion", task.Criterion),
			zap.Float64("reduction", task.Reduction),
			zap.Int("left", len(leftRows)),
			zap.Int("right", len(rightRows)),
		)
		eg := &errgroup.Group{}
		eg.Go(func() error {
			return g.develop(left, task.Depth+1, leftRows)
		})
		eg.Go(func() error {
			return g.develop(right, task.Depth+1, rightRows)
		})
		if err = eg.Wait(); err != nil {
			return nil, err
		}
	}
	result, err := tree.New(t.Schema(), t.Response(), g.arena.nodes)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("grew tree", zap.Int("nodes", result.Len()), zap.Int("leaves", result.Leaves()), zap.Int("depth", result.Depth()))
	return result, nil
}

// growth is the state of a single Grow call.
type growth struct {
	ctx      context.Context
	schema   *feature.Schema
	params   *Params
	pruner   Pruner
	logger   *zap.Logger
	features []int
	columns  [][]float64
	targets  []float64
	arena    *arena
	frontier queue.Queue
}

/*
newGrowth caches the eligible columns and the responses of the table. It
returns a wrapped *feature.SchemaMismatchError for the first value of a
cached column that its feature does not accept and for the first response
that is not a finite number.
*/
func newGrowth(ctx context.Context, t dataset.Table, p *Params, features []int) (*growth, error) {
	s := t.Schema()
	columns := make([][]float64, s.Len())
	for _, c := range features {
		f := s.Feature(c)
		values := make([]float64, t.Len())
		for r := range values {
			values[r] = t.Value(r, c)
			if err := f.Valid(values[r]); err != nil {
				return nil, fmt.Errorf("row #%d: %w", r, &feature.SchemaMismatchError{Expected: s.Len(), Got: s.Len(), Feature: f.Name(), Reason: err.Error()})
			}
		}
		columns[c] = values
	}
	targets := dataset.Targets(t)
	for r, y := range targets {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("row #%d: %w", r, &feature.SchemaMismatchError{Expected: s.Len(), Got: s.Len(), Feature: t.Response(), Reason: fmt.Sprintf("response expects a finite value, got %v", y)})
		}
	}
	return &growth{
		ctx:      ctx,
		schema:   s,
		params:   p,
		pruner:   p.Pruner,
		logger:   p.Logger,
		features: features,
		columns:  columns,
		targets:  targets,
		arena:    &arena{max: p.MaxNodes, lock: &sync.Mutex{}},
		frontier: queue.New(),
	}, nil
}

/*
develop computes the statistics of the node with the given ID from its rows
and, unless a stopping rule applies, searches its best split and pushes it to
the frontier.
*/
func (g *growth) develop(id, depth int, rows []int) error {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = g.targets[r]
	}
	total := stats.Of(values)
	g.arena.update(id, func(n *tree.Node) {
		n.Count = total.Count
		n.Mean = total.Mean()
		n.SS = total.SS()
	})
	if len(rows) < 2*g.params.MinLeafSize || depth >= g.params.MaxDepth || total.Constant() || !g.arena.affords(2) {
		return nil
	}
	split, err := g.findSplit(rows, total)
	if err != nil || split == nil {
		return err
	}
	g.frontier.Push(&queue.Task{
		NodeID:    id,
		Depth:     depth,
		Rows:      rows,
		Criterion: split.Criterion,
		Reduction: split.Reduction,
	})
	return nil
}

// partition splits the rows of a task keeping their order.
func (g *growth) partition(task *queue.Task) ([]int, []int) {
	column := task.Criterion.Column()
	values := g.columns[column]
	sample := make([]float64, g.schema.Len())
	left := make([]int, 0, len(task.Rows))
	right := make([]int, 0, len(task.Rows))
	for _, r := range task.Rows {
		sample[column] = values[r]
		if task.Criterion.SatisfiedBy(sample) {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

/*
arena holds the nodes of a growing tree and enforces the node budget. It is
the only state shared by concurrent node developments.
*/
type arena struct {
	nodes []tree.Node
	max   int
	lock  *sync.Mutex
}

/*
reserve appends n nodes with the given parent and depth and returns the ID
of the first one, or false if that would exceed the node budget.
*/
func (a *arena) reserve(parent, depth, n int) (int, bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if len(a.nodes)+n > a.max {
		return 0, false
	}
	first := len(a.nodes)
	for i := 0; i < n; i++ {
		a.nodes = append(a.nodes, tree.Node{
			ID:       first + i,
			ParentID: parent,
			Left:     tree.NoNode,
			Right:    tree.NoNode,
			Depth:    depth,
		})
	}
	return first, true
}

func (a *arena) affords(n int) bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.nodes)+n <= a.max
}

func (a *arena) update(id int, f func(*tree.Node)) {
	a.lock.Lock()
	defer a.lock.Unlock()
	f(&a.nodes[id])
}

func (a *arena) len() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.nodes)
}
