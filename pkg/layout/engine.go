package layout

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/errors"
	"github.com/matzehuels/modelgraph/pkg/model"
	"github.com/matzehuels/modelgraph/pkg/observability"
)

// SubgraphPadding is the margin between a subgraph's box and its members.
const SubgraphPadding = 20.0

// Strategy is the two-phase layout contract: Prepare once, then Run.
type Strategy interface {
	Prepare(g *diagram.MainGraph, cfg Config, dims DimensionProvider) error
	Run(ctx context.Context, createNewGraph bool) (*diagram.MainGraph, error)
	RunGeneralizationLayout(ctx context.Context, createNewGraph bool) (*diagram.MainGraph, error)
	Stop()
}

// Engine implements [Strategy] over a registry of backends keyed by
// algorithm.
//
// An Engine serves one prepared graph at a time and is not safe for
// concurrent Run calls.
type Engine struct {
	backends map[Algorithm]Backend
	logger   *log.Logger

	g        *diagram.MainGraph
	cfg      Config
	dims     DimensionProvider
	prepared bool
	stopped  atomic.Bool
}

var _ Strategy = (*Engine)(nil)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBackend registers b for algorithm a, replacing the default.
func WithBackend(a Algorithm, b Backend) EngineOption {
	return func(e *Engine) { e.backends[a] = b }
}

// NewEngine returns an engine with the random backend and the Graphviz
// backend for the layered, force and stress algorithms.
func NewEngine(opts ...EngineOption) *Engine {
	gv := NewGraphviz()
	e := &Engine{
		backends: map[Algorithm]Backend{
			AlgorithmRandom:  NewRandom(),
			AlgorithmLayered: gv,
			AlgorithmForce:   gv,
			AlgorithmStress:  gv,
		},
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare validates cfg and binds the engine to g. Invalid configuration
// is rejected here, before any backend runs.
func (e *Engine) Prepare(g *diagram.MainGraph, cfg Config, dims DimensionProvider) error {
	if g == nil {
		return errors.New(errors.ErrCodeInvalidInput, "layout: nil graph")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	blocks := []Block{cfg.Main}
	if cfg.General != nil {
		blocks = append(blocks, *cfg.General)
	}
	for _, b := range blocks {
		if _, ok := e.backends[b.Algorithm]; !ok {
			return errors.New(errors.ErrCodeInvalidAlgorithm, "no backend registered for %q", b.Algorithm)
		}
	}
	if dims == nil {
		dims = DefaultDimensions{}
	}
	e.g, e.cfg, e.dims = g, cfg, dims
	e.prepared = true
	return nil
}

// Stop marks the engine stopped. In-flight backend calls are not
// interrupted; every later call fails.
func (e *Engine) Stop() { e.stopped.Store(true) }

// Run lays out the prepared graph and returns the positioned graph: the
// prepared instance, or a deep copy when createNewGraph is set.
//
// With a considered general block in double-run mode, subgraph interiors
// are laid out first and the main graph then treats each subgraph as one
// sized box. Otherwise the main block lays out every entity node of the
// flattened graph.
//
// Positions are written only after every backend call succeeded.
func (e *Engine) Run(ctx context.Context, createNewGraph bool) (*diagram.MainGraph, error) {
	g, err := e.target(createNewGraph)
	if err != nil {
		return nil, err
	}
	p := newPlan()
	switch {
	case e.cfg.generalEnabled() && e.cfg.General.DoubleRun:
		err = e.doubleRun(ctx, g, p)
	case e.cfg.Main.ShouldBeConsidered:
		err = e.flat(ctx, g, p)
	}
	if err != nil {
		return nil, err
	}
	p.apply(g)
	return g, nil
}

// RunGeneralizationLayout lays out only the interiors of subgraphs with the
// general block. Subgraphs without a position are lined up left to right.
func (e *Engine) RunGeneralizationLayout(ctx context.Context, createNewGraph bool) (*diagram.MainGraph, error) {
	g, err := e.target(createNewGraph)
	if err != nil {
		return nil, err
	}
	if !e.cfg.generalEnabled() {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "general layout block is not enabled")
	}
	p := newPlan()
	inner, err := e.interiors(ctx, g, p)
	if err != nil {
		return nil, err
	}

	cursor := 0.0
	for _, gid := range g.Subgraphs(diagram.MainGraphID) {
		in := inner[gid]
		pos := model.Position{X: cursor}
		if v := g.GraphAt(gid).Visual; v != nil {
			pos = v.Position
		}
		p.setGraph(gid, pos, in.width(), in.height())
		cursor = max(cursor, pos.X+in.width()+e.cfg.General.InLayerGap)
	}
	e.resolve(g, inner, p)
	p.apply(g)
	return g, nil
}

func (e *Engine) target(createNewGraph bool) (*diagram.MainGraph, error) {
	if e.stopped.Load() {
		return nil, errors.New(errors.ErrCodeLayoutStopped, "layout engine stopped")
	}
	if !e.prepared {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layout engine not prepared")
	}
	if createNewGraph {
		return e.g.Clone(), nil
	}
	return e.g, nil
}

// =============================================================================
// Run modes
// =============================================================================

func (e *Engine) flat(ctx context.Context, g *diagram.MainGraph, p *plan) error {
	sb := newScopeBuilder(diagram.MainGraphName, e.cfg.Main, e.cfg.Seed)
	for _, nid := range g.AllNodes() {
		if g.NodeAt(nid).IsDummy() {
			continue
		}
		sb.addItem(e.nodeItem(g, nid))
	}
	// Split halves stand in for the edge they were split from.
	for _, eid := range g.AllEdges() {
		root := g.EdgeAt(g.Root(eid))
		sb.addLink(root.ID, root.Type, root.Start, root.End)
	}

	pos, err := e.layout(ctx, sb.scope)
	if err != nil {
		return err
	}
	p.laidOut(sb.scope)
	for _, it := range sb.scope.Items {
		p.setNode(it.Endpoint.Node(), pos[it.ID], it.Width, it.Height)
	}
	p.fitGraphs(g)
	return nil
}

func (e *Engine) doubleRun(ctx context.Context, g *diagram.MainGraph, p *plan) error {
	inner, err := e.interiors(ctx, g, p)
	if err != nil {
		return err
	}

	sb := newScopeBuilder(diagram.MainGraphName, e.cfg.Main, e.cfg.Seed)
	e.addMembers(g, sb, diagram.MainGraphID, inner)
	e.addOwnedLinks(g, sb, diagram.MainGraphID)

	var pos Positions
	if e.cfg.Main.ShouldBeConsidered {
		if pos, err = e.layout(ctx, sb.scope); err != nil {
			return err
		}
		p.laidOut(sb.scope)
	} else {
		pos = lineUp(sb.scope.Items, e.cfg.Main.InLayerGap)
	}
	for _, it := range sb.scope.Items {
		p.set(it.Endpoint, pos[it.ID], it.Width, it.Height)
	}
	e.resolve(g, inner, p)
	return nil
}

// interior is the laid-out content of one subgraph in backend coordinates.
type interior struct {
	items []Item
	pos   Positions
	box   diagram.Rect
}

func (in *interior) width() float64  { return in.box.W + 2*SubgraphPadding }
func (in *interior) height() float64 { return in.box.H + 2*SubgraphPadding }

// interiors lays out every subgraph with the general block, nested
// subgraphs before their parents.
func (e *Engine) interiors(ctx context.Context, g *diagram.MainGraph, p *plan) (map[diagram.GraphID]*interior, error) {
	out := make(map[diagram.GraphID]*interior)
	for gid := diagram.GraphID(g.GraphCount() - 1); gid > diagram.MainGraphID; gid-- {
		gr := g.GraphAt(gid)
		sb := newScopeBuilder(gr.ID, *e.cfg.General, e.cfg.Seed+uint64(gid))
		e.addMembers(g, sb, gid, out)
		e.addOwnedLinks(g, sb, gid)

		pos, err := e.layout(ctx, sb.scope)
		if err != nil {
			return nil, err
		}
		p.laidOut(sb.scope)
		out[gid] = &interior{items: sb.scope.Items, pos: pos, box: bounds(sb.scope.Items, pos)}
	}
	return out, nil
}

// resolve translates interiors into their subgraph's box, parents first.
// Every subgraph must already have a planned position.
func (e *Engine) resolve(g *diagram.MainGraph, inner map[diagram.GraphID]*interior, p *plan) {
	for gid := diagram.GraphID(1); int(gid) < g.GraphCount(); gid++ {
		in, ok := inner[gid]
		if !ok {
			continue
		}
		v, ok := p.visuals[diagram.GraphEndpoint(gid)]
		if !ok {
			continue
		}
		for _, it := range in.items {
			rel := in.pos[it.ID]
			abs := model.Position{
				X: v.Position.X + SubgraphPadding + rel.X - in.box.X,
				Y: v.Position.Y + SubgraphPadding + rel.Y - in.box.Y,
			}
			p.set(it.Endpoint, abs, it.Width, it.Height)
		}
	}
}

func (e *Engine) addMembers(g *diagram.MainGraph, sb *scopeBuilder, gid diagram.GraphID, inner map[diagram.GraphID]*interior) {
	for _, ep := range g.Members(gid) {
		if !ep.IsGraph() {
			if !g.NodeAt(ep.Node()).IsDummy() {
				sb.addItem(e.nodeItem(g, ep.Node()))
			}
			continue
		}
		it := Item{ID: g.GraphAt(ep.Graph()).ID, Endpoint: ep, Width: 2 * SubgraphPadding, Height: 2 * SubgraphPadding}
		if in, ok := inner[ep.Graph()]; ok {
			it.Width, it.Height = in.width(), in.height()
		}
		if v := g.GraphAt(ep.Graph()).Visual; v != nil {
			it.Position, it.HasPosition, it.Anchored = v.Position, true, v.Anchored
		}
		sb.addItem(it)
	}
}

func (e *Engine) addOwnedLinks(g *diagram.MainGraph, sb *scopeBuilder, gid diagram.GraphID) {
	for _, eid := range g.AllEdges() {
		ed := g.EdgeAt(eid)
		if ed.Owner == gid {
			sb.addLink(ed.ID, ed.Type, ed.Start, ed.End)
		}
	}
}

func (e *Engine) nodeItem(g *diagram.MainGraph, nid diagram.NodeID) Item {
	n := g.NodeAt(nid)
	w, h := e.dims.Dimensions(n)
	it := Item{ID: n.ID, Endpoint: diagram.NodeEndpoint(nid), Width: w, Height: h}
	if n.Visual != nil {
		it.Position, it.HasPosition, it.Anchored = n.Visual.Position, true, n.Visual.Anchored
	}
	return it
}

// layout runs one backend call and checks that it placed every item.
func (e *Engine) layout(ctx context.Context, s Scope) (Positions, error) {
	if e.stopped.Load() {
		return nil, errors.New(errors.ErrCodeLayoutStopped, "layout engine stopped")
	}
	b := e.backends[s.Block.Algorithm]
	alg := string(s.Block.Algorithm)

	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, alg, len(s.Items))
	pos, err := b.Layout(ctx, s)
	elapsed := time.Since(start)
	observability.Layout().OnLayoutComplete(ctx, alg, elapsed, err)

	if err != nil {
		code := errors.ErrCodeLayoutFailed
		if ctx.Err() == context.DeadlineExceeded {
			code = errors.ErrCodeTimeout
		}
		e.logger.Warn("layout failed", "graph", s.Name, "backend", b.Name(), "algorithm", alg, "err", err)
		return nil, errors.Wrap(code, err, "%s layout of %s", alg, s.Name)
	}
	for _, it := range s.Items {
		if _, ok := pos[it.ID]; !ok {
			return nil, errors.New(errors.ErrCodeLayoutFailed, "%s backend returned no position for %s", b.Name(), it.ID)
		}
	}
	e.logger.Debug("computed layout",
		"graph", s.Name, "algorithm", alg, "items", len(s.Items), "links", len(s.Links), "duration", elapsed)
	return pos, nil
}

// lineUp keeps positioned items in place and lines up the rest.
func lineUp(items []Item, gap float64) Positions {
	pos := make(Positions, len(items))
	cursor := 0.0
	for _, it := range items {
		if it.HasPosition {
			pos[it.ID] = it.Position
			continue
		}
		pos[it.ID] = model.Position{X: cursor}
		cursor += it.Width + gap
	}
	return pos
}

// =============================================================================
// Plan
// =============================================================================

// plan accumulates positions so a failed run leaves the graph untouched.
type plan struct {
	visuals map[diagram.Endpoint]diagram.Visual

	// cleared holds ids of edges whose waypoints are dropped on apply.
	cleared map[string]bool
}

func newPlan() *plan {
	return &plan{
		visuals: make(map[diagram.Endpoint]diagram.Visual),
		cleared: make(map[string]bool),
	}
}

// laidOut records a successful backend call. The random backend has no
// notion of routing, so every edge it saw loses its waypoints.
func (p *plan) laidOut(s Scope) {
	if s.Block.Algorithm != AlgorithmRandom {
		return
	}
	for _, l := range s.Links {
		p.cleared[l.ID] = true
	}
}

func (p *plan) set(ep diagram.Endpoint, pos model.Position, w, h float64) {
	p.visuals[ep] = diagram.Visual{Position: pos, Width: w, Height: h}
}

func (p *plan) setNode(n diagram.NodeID, pos model.Position, w, h float64) {
	p.set(diagram.NodeEndpoint(n), pos, w, h)
}

func (p *plan) setGraph(gid diagram.GraphID, pos model.Position, w, h float64) {
	p.set(diagram.GraphEndpoint(gid), pos, w, h)
}

// fitGraphs sizes every subgraph to enclose its planned members, nested
// subgraphs first.
func (p *plan) fitGraphs(g *diagram.MainGraph) {
	for gid := diagram.GraphID(g.GraphCount() - 1); gid > diagram.MainGraphID; gid-- {
		first := true
		var box diagram.Rect
		for _, ep := range g.Members(gid) {
			v, ok := p.visuals[ep]
			if !ok {
				continue
			}
			r := v.Rect()
			if first {
				box, first = r, false
				continue
			}
			x0, y0 := min(box.X, r.X), min(box.Y, r.Y)
			x1, y1 := max(box.X+box.W, r.X+r.W), max(box.Y+box.H, r.Y+r.H)
			box = diagram.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
		}
		if first {
			continue
		}
		p.setGraph(gid,
			model.Position{X: box.X - SubgraphPadding, Y: box.Y - SubgraphPadding},
			box.W+2*SubgraphPadding, box.H+2*SubgraphPadding)
	}
}

// apply writes planned visuals. Anchored nodes and graphs keep their
// position. Edges touching a moved endpoint lose their waypoints, as do
// edges seen by the random backend, including the halves of split edges.
func (p *plan) apply(g *diagram.MainGraph) {
	moved := make(map[diagram.Endpoint]bool, len(p.visuals))
	for ep, v := range p.visuals {
		if cur := g.VisualOf(ep); cur != nil && cur.Anchored {
			continue
		}
		g.SetVisual(ep, v)
		moved[ep] = true
	}
	for _, eid := range g.AllEdges() {
		ed := g.EdgeAt(eid)
		if moved[ed.Start] || moved[ed.End] || p.cleared[ed.ID] || p.cleared[g.EdgeAt(g.Root(eid)).ID] {
			ed.Waypoints = nil
		}
	}
}
