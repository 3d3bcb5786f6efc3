package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/errors"
	"github.com/matzehuels/modelgraph/pkg/extract"
	"github.com/matzehuels/modelgraph/pkg/model"
)

func TestPrepareRejectsInvalidConfig(t *testing.T) {
	g := newGraph(t, []string{"A"}, nil, nil)

	tests := []struct {
		name string
		cfg  func(*Config)
		want errors.Code
	}{
		{"unknown algorithm", func(c *Config) { c.Main.Algorithm = "spiral" }, errors.ErrCodeInvalidAlgorithm},
		{"unknown subset", func(c *Config) { c.General.ConstrainedNodes = "SOME" }, errors.ErrCodeInvalidSubset},
		{"unknown direction", func(c *Config) { c.Main.Direction = "NORTH" }, errors.ErrCodeInvalidConfig},
		{"negative gap", func(c *Config) { c.Main.LayerGap = -1 }, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBackend{}
			e := NewEngine(
				WithBackend(AlgorithmLayered, fake),
				WithBackend(AlgorithmRandom, fake),
			)
			cfg := DefaultConfig()
			tt.cfg(&cfg)

			err := e.Prepare(g, cfg, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("Prepare() error = %v, want code %s", err, tt.want)
			}
			if len(fake.calls) != 0 {
				t.Errorf("backend called %d times before validation failed", len(fake.calls))
			}
			if _, err := e.Run(context.Background(), false); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Run() after failed Prepare error = %v, want %s", err, errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestRunFlatUsesOriginEdges(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "D"}, [][2]string{{"B", "A"}}, [][2]string{{"D", "B"}})
	if _, err := g.GroupGeneralizations(diagram.MainGraphID); err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}

	fake := &fakeBackend{}
	e := NewEngine(WithBackend(AlgorithmLayered, fake))
	cfg := DefaultConfig()
	cfg.General = nil
	if err := e.Prepare(g, cfg, nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := e.Run(context.Background(), false); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(fake.calls) != 1 {
		t.Fatalf("backend calls = %d, want 1", len(fake.calls))
	}
	s := fake.calls[0]
	if len(s.Items) != 3 {
		t.Errorf("items = %d, want 3 entity nodes", len(s.Items))
	}
	ids := make(map[string]bool)
	for _, l := range s.Links {
		ids[l.ID] = true
	}
	if !ids["r0"] || !ids["g0"] || len(s.Links) != 2 {
		t.Errorf("links = %v, want origin edges g0 and r0", s.Links)
	}

	sg, _ := g.Graph("subgraph-0")
	if sg.Visual == nil {
		t.Fatal("subgraph has no visual after flat run")
	}
	for _, id := range []string{"A", "B"} {
		n, _ := g.Node(id)
		r := n.Visual.Rect()
		box := sg.Visual.Rect()
		if r.X < box.X || r.Y < box.Y || r.X+r.W > box.X+box.W || r.Y+r.H > box.Y+box.H {
			t.Errorf("%s rect %+v outside subgraph box %+v", id, r, box)
		}
	}
}

func TestRunDoubleRun(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "C", "D"}, [][2]string{{"B", "A"}, {"C", "A"}}, [][2]string{{"D", "B"}})
	if _, err := g.GroupGeneralizations(diagram.MainGraphID); err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}

	main := &fakeBackend{}
	general := &fakeBackend{}
	e := NewEngine(
		WithBackend(AlgorithmLayered, main),
		WithBackend(AlgorithmRandom, general),
	)
	cfg := DefaultConfig()
	cfg.General.Algorithm = AlgorithmRandom
	if err := e.Prepare(g, cfg, nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := e.Run(context.Background(), false); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(general.calls) != 1 || len(general.calls[0].Items) != 3 {
		t.Fatalf("general calls = %+v, want one call with 3 items", general.calls)
	}
	if len(main.calls) != 1 {
		t.Fatalf("main calls = %d, want 1", len(main.calls))
	}
	ms := main.calls[0]
	if len(ms.Items) != 2 {
		t.Fatalf("main items = %d, want D and subgraph-0", len(ms.Items))
	}
	var sgItem Item
	for _, it := range ms.Items {
		if it.ID == "subgraph-0" {
			sgItem = it
		}
	}
	// Fake general layout spreads 3 items of 220 width by 100 px.
	wantW := 200 + DefaultNodeWidth + 2*SubgraphPadding
	if sgItem.Width != wantW {
		t.Errorf("subgraph width = %v, want %v", sgItem.Width, wantW)
	}
	if len(ms.Links) != 1 || ms.Links[0].ID != "r0#0" {
		t.Errorf("main links = %+v, want the outer half r0#0", ms.Links)
	}

	sg, _ := g.Graph("subgraph-0")
	box := sg.Visual.Rect()
	for _, id := range []string{"A", "B", "C"} {
		n, _ := g.Node(id)
		r := n.Visual.Rect()
		if r.X < box.X || r.Y < box.Y || r.X+r.W > box.X+box.W+1e-9 || r.Y+r.H > box.Y+box.H+1e-9 {
			t.Errorf("%s rect %+v outside subgraph box %+v", id, r, box)
		}
	}
}

func TestRunFailureLeavesGraphUntouched(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "C"}, [][2]string{{"B", "A"}}, nil)
	if _, err := g.GroupGeneralizations(diagram.MainGraphID); err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}

	// The interior succeeds, the main layout fails.
	fake := &fakeBackend{failOn: 2}
	e := NewEngine(WithBackend(AlgorithmLayered, fake))
	if err := e.Prepare(g, DefaultConfig(), nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	_, err := e.Run(context.Background(), false)
	if !errors.Is(err, errors.ErrCodeLayoutFailed) {
		t.Fatalf("Run() error = %v, want %s", err, errors.ErrCodeLayoutFailed)
	}
	if got := positionsOf(g); len(got) != 0 {
		t.Errorf("positions after failed run = %v, want none", got)
	}
}

func TestRunCreateNewGraph(t *testing.T) {
	g := newGraph(t, []string{"A", "B"}, nil, [][2]string{{"A", "B"}})
	e := NewEngine()
	cfg := DefaultConfig()
	cfg.Main.Algorithm = AlgorithmRandom
	if err := e.Prepare(g, cfg, nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	out, err := e.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out == g {
		t.Fatal("Run(createNewGraph=true) returned the prepared graph")
	}
	if len(positionsOf(g)) != 0 {
		t.Error("prepared graph was positioned")
	}
	if len(positionsOf(out)) != 2 {
		t.Errorf("positioned nodes = %d, want 2", len(positionsOf(out)))
	}
}

func TestRandomIdempotentOnAnchoredNodes(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "C"}, [][2]string{{"B", "A"}}, [][2]string{{"C", "A"}})
	want := map[string]model.Position{"A": {X: 1, Y: 2}, "B": {X: 30, Y: 40}, "C": {X: 500, Y: 600}}
	for id, p := range want {
		ep, _ := g.EndpointOf(id)
		g.SetVisual(ep, diagram.Visual{Position: p, Width: 100, Height: 50, Anchored: true})
	}

	e := NewEngine()
	cfg := DefaultConfig()
	cfg.Main.Algorithm = AlgorithmRandom
	cfg.General = nil
	if err := e.Prepare(g, cfg, nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	for run := range 2 {
		if _, err := e.Run(context.Background(), false); err != nil {
			t.Fatalf("run %d: Run() error = %v", run, err)
		}
		got := positionsOf(g)
		for id, p := range want {
			if got[id] != p {
				t.Errorf("run %d: %s = %v, want %v", run, id, got[id], p)
			}
		}
	}
}

func TestRunGeneralizationLayout(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "D"}, [][2]string{{"B", "A"}}, [][2]string{{"D", "B"}})
	if _, err := g.GroupGeneralizations(diagram.MainGraphID); err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}
	fake := &fakeBackend{}
	e := NewEngine(WithBackend(AlgorithmLayered, fake))
	if err := e.Prepare(g, DefaultConfig(), nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := e.RunGeneralizationLayout(context.Background(), false); err != nil {
		t.Fatalf("RunGeneralizationLayout() error = %v", err)
	}
	if len(fake.calls) != 1 {
		t.Errorf("backend calls = %d, want 1", len(fake.calls))
	}
	got := positionsOf(g)
	if _, ok := got["D"]; ok {
		t.Error("D is outside every subgraph but was positioned")
	}
	if _, ok := got["A"]; !ok {
		t.Error("A was not positioned")
	}

	cfg := DefaultConfig()
	cfg.General = nil
	if err := e.Prepare(g, cfg, nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := e.RunGeneralizationLayout(context.Background(), false); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("RunGeneralizationLayout() without general block error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestStop(t *testing.T) {
	g := newGraph(t, []string{"A"}, nil, nil)
	e := NewEngine()
	if err := e.Prepare(g, DefaultConfig(), nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	e.Stop()
	if _, err := e.Run(context.Background(), false); !errors.Is(err, errors.ErrCodeLayoutStopped) {
		t.Errorf("Run() after Stop error = %v, want %s", err, errors.ErrCodeLayoutStopped)
	}
}

func TestDefaultDimensions(t *testing.T) {
	n := &diagram.Node{ID: "a"}
	w, h := DefaultDimensions{}.Dimensions(n)
	if w != 220 || h != 60 {
		t.Errorf("Dimensions() = %v, %v; want 220, 60", w, h)
	}
	n.Visual = &diagram.Visual{Width: 10, Height: 12}
	w, h = DefaultDimensions{}.Dimensions(n)
	if w != 10 || h != 12 {
		t.Errorf("Dimensions() with visual = %v, %v; want 10, 12", w, h)
	}
}

func TestConstrainedNodesFiltersLinks(t *testing.T) {
	m := model.SemanticModel{ID: "m", Entities: map[string]model.Entity{
		"A":  {ID: "A", Type: model.TypeClass},
		"B":  {ID: "B", Type: model.TypeClass},
		"C":  {ID: "C", Type: model.TypeClass},
		"P":  {ID: "P", Type: model.TypeClassProfile, Profiling: []string{"A"}},
		"g0": {ID: "g0", Type: model.TypeGeneralization, Child: "B", Parent: "A"},
		"r0": {ID: "r0", Type: model.TypeRelationship, Ends: []model.RelationshipEnd{{Concept: "C"}, {Concept: "A"}}},
	}}
	g := diagram.Build(extract.Extract([]model.SemanticModel{m}), nil)

	tests := []struct {
		subset Subset
		want   map[string]diagram.EdgeType
	}{
		{SubsetAll, map[string]diagram.EdgeType{
			"g0": diagram.EdgeGeneralization, "r0": diagram.EdgeRelationship, "P-profile-A": diagram.EdgeProfile,
		}},
		{SubsetGeneralization, map[string]diagram.EdgeType{"g0": diagram.EdgeGeneralization}},
		{SubsetProfile, map[string]diagram.EdgeType{"P-profile-A": diagram.EdgeProfile}},
	}
	for _, tt := range tests {
		t.Run(string(tt.subset), func(t *testing.T) {
			fake := &fakeBackend{}
			e := NewEngine(WithBackend(AlgorithmLayered, fake))
			cfg := DefaultConfig()
			cfg.General = nil
			cfg.Main.ConstrainedNodes = tt.subset
			if err := e.Prepare(g, cfg, nil); err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}
			if _, err := e.Run(context.Background(), true); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			s := fake.calls[0]
			if len(s.Items) != 4 {
				t.Errorf("items = %d, want every node regardless of subset", len(s.Items))
			}
			got := make(map[string]diagram.EdgeType, len(s.Links))
			for _, l := range s.Links {
				got[l.ID] = l.Type
			}
			if len(got) != len(tt.want) {
				t.Errorf("links = %v, want %v", got, tt.want)
			}
			for id, typ := range tt.want {
				if gotTyp, ok := got[id]; !ok || gotTyp != typ {
					t.Errorf("link %s = %v (present %v), want %v", id, gotTyp, ok, typ)
				}
			}
		})
	}
}

func TestRandomClearsWaypoints(t *testing.T) {
	g := newGraph(t, []string{"A", "B", "C"}, [][2]string{{"B", "A"}}, [][2]string{{"C", "A"}})
	for i, id := range []string{"A", "B", "C"} {
		ep, _ := g.EndpointOf(id)
		g.SetVisual(ep, diagram.Visual{Position: model.Position{X: float64(300 * i)}, Width: 100, Height: 50, Anchored: true})
	}
	for _, id := range []string{"g0", "r0"} {
		ed, ok := g.Edge(id)
		if !ok {
			t.Fatalf("edge %s not found", id)
		}
		ed.Waypoints = []model.Position{{X: 10, Y: 10}, {X: 20, Y: 20}}
	}

	e := NewEngine()
	cfg := DefaultConfig()
	cfg.Main.Algorithm = AlgorithmRandom
	cfg.General = nil
	if err := e.Prepare(g, cfg, nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := e.Run(context.Background(), false); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, id := range []string{"g0", "r0"} {
		ed, _ := g.Edge(id)
		if len(ed.Waypoints) != 0 {
			t.Errorf("%s waypoints = %v, want none after a random layout", id, ed.Waypoints)
		}
	}

	// A Graphviz-backed run with every node anchored moves nothing and
	// leaves waypoints alone.
	ed, _ := g.Edge("r0")
	ed.Waypoints = []model.Position{{X: 5, Y: 5}}
	fake := &fakeBackend{}
	e = NewEngine(WithBackend(AlgorithmLayered, fake))
	cfg = DefaultConfig()
	cfg.General = nil
	if err := e.Prepare(g, cfg, nil); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := e.Run(context.Background(), false); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ed, _ := g.Edge("r0"); len(ed.Waypoints) != 1 {
		t.Errorf("r0 waypoints = %v, want them kept", ed.Waypoints)
	}
}
