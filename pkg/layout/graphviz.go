package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/modelgraph/pkg/model"
)

// pointsPerInch converts between Graphviz inches and diagram points.
const pointsPerInch = 72.0

// plainFormat is Graphviz's line-oriented layout dump.
const plainFormat = graphviz.Format("plain")

// Graphviz runs the layered, force and stress algorithms through the
// Graphviz dot, fdp/sfdp and neato engines.
type Graphviz struct{}

// NewGraphviz returns a Graphviz backend.
func NewGraphviz() *Graphviz { return &Graphviz{} }

// Name implements [Backend].
func (*Graphviz) Name() string { return "graphviz" }

// Layout implements [Backend].
func (b *Graphviz) Layout(ctx context.Context, s Scope) (Positions, error) {
	if len(s.Items) == 0 {
		return Positions{}, nil
	}
	engine, err := GraphvizEngine(s.Block)
	if err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(ToDOT(s)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	gv.SetLayout(engine)
	var buf bytes.Buffer
	if err := gv.Render(ctx, g, plainFormat, &buf); err != nil {
		return nil, fmt.Errorf("%s layout: %w", engine, err)
	}
	return ParsePlain(buf.Bytes(), s)
}

// GraphvizEngine maps a block to the Graphviz engine implementing its algorithm.
func GraphvizEngine(b Block) (graphviz.Layout, error) {
	switch b.Algorithm {
	case AlgorithmLayered:
		return graphviz.DOT, nil
	case AlgorithmForce:
		if b.ForceAlgorithm == ForceSFDP {
			return graphviz.SFDP, nil
		}
		return graphviz.FDP, nil
	case AlgorithmStress:
		return graphviz.NEATO, nil
	}
	return "", fmt.Errorf("no graphviz engine for algorithm %q", b.Algorithm)
}

func rankdir(d Direction) string {
	switch d {
	case DirectionUp:
		return "BT"
	case DirectionLeft:
		return "RL"
	case DirectionRight:
		return "LR"
	}
	return "TB"
}

func inches(points float64) string {
	return strconv.FormatFloat(points/pointsPerInch, 'f', 4, 64)
}

func pts(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ToDOT renders a scope as a DOT digraph. Items are named n0, n1, ... in
// scope order and drawn as fixed-size boxes in inches. Anchored items are
// pinned at their center, also in inches, for the engines that honor pos.
func ToDOT(s Scope) string {
	b := s.Block
	pinning := b.Algorithm == AlgorithmForce || b.Algorithm == AlgorithmStress

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  graph [splines=false, overlap=false")
	if pinning {
		// Keep pinned coordinates in the output frame.
		buf.WriteString(", notranslate=true")
	}
	switch b.Algorithm {
	case AlgorithmLayered:
		fmt.Fprintf(&buf, ", rankdir=%s", rankdir(b.Direction))
		if b.LayerGap > 0 {
			fmt.Fprintf(&buf, ", ranksep=%s", inches(b.LayerGap))
		}
		if b.InLayerGap > 0 {
			fmt.Fprintf(&buf, ", nodesep=%s", inches(b.InLayerGap))
		}
	case AlgorithmForce:
		if b.EdgeLength > 0 {
			fmt.Fprintf(&buf, ", K=%s", inches(b.EdgeLength))
		}
		if b.MinDistanceBetweenNodes > 0 {
			fmt.Fprintf(&buf, ", sep=\"+%s\"", pts(b.MinDistanceBetweenNodes))
		}
		fmt.Fprintf(&buf, ", start=%d", s.Seed%(1<<31))
	case AlgorithmStress:
		buf.WriteString(", mode=major")
		if b.MinDistanceBetweenNodes > 0 {
			fmt.Fprintf(&buf, ", sep=\"+%s\"", pts(b.MinDistanceBetweenNodes))
		}
		fmt.Fprintf(&buf, ", start=%d", s.Seed%(1<<31))
	}
	buf.WriteString("];\n")
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n\n")

	for i, it := range s.Items {
		fmt.Fprintf(&buf, "  n%d [width=%s, height=%s", i, inches(it.Width), inches(it.Height))
		if pinning && it.Anchored && it.HasPosition {
			// Graphviz y grows upwards.
			cx := it.Position.X + it.Width/2
			cy := -(it.Position.Y + it.Height/2)
			fmt.Fprintf(&buf, ", pos=\"%s,%s!\", pin=true", inches(cx), inches(cy))
		}
		buf.WriteString("];\n")
	}

	if len(s.Links) > 0 {
		buf.WriteString("\n")
	}
	for _, l := range s.Links {
		fmt.Fprintf(&buf, "  n%d -> n%d", l.Source, l.Target)
		if b.Algorithm == AlgorithmStress && b.EdgeLength > 0 {
			fmt.Fprintf(&buf, " [len=%s]", inches(b.EdgeLength))
		}
		buf.WriteString(";\n")
	}
	buf.WriteString("}\n")
	return buf.String()
}

// ParsePlain reads Graphviz plain output produced for s and returns item
// positions. Centers in inches with y up become top-left corners in points
// with y down. Without anchored items the result is shifted so the layout
// starts at the origin. Otherwise it is shifted so the first anchored item
// lands on its position, and every anchored item keeps its position exactly.
func ParsePlain(data []byte, s Scope) (Positions, error) {
	centers := make(map[int]model.Position, len(s.Items))
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "node" {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("malformed plain node line %q", sc.Text())
		}
		name := strings.Trim(fields[1], `"`)
		idx, err := strconv.Atoi(strings.TrimPrefix(name, "n"))
		if err != nil || !strings.HasPrefix(name, "n") || idx < 0 || idx >= len(s.Items) {
			return nil, fmt.Errorf("unknown node %q in plain output", name)
		}
		x, errX := strconv.ParseFloat(fields[2], 64)
		y, errY := strconv.ParseFloat(fields[3], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("bad coordinates in %q", sc.Text())
		}
		centers[idx] = model.Position{X: x * pointsPerInch, Y: -y * pointsPerInch}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read plain output: %w", err)
	}
	if len(centers) != len(s.Items) {
		return nil, fmt.Errorf("plain output has %d of %d nodes", len(centers), len(s.Items))
	}

	pos := make(Positions, len(s.Items))
	anchor := -1
	for i, it := range s.Items {
		c := centers[i]
		pos[it.ID] = model.Position{X: c.X - it.Width/2, Y: c.Y - it.Height/2}
		if anchor < 0 && it.Anchored && it.HasPosition {
			anchor = i
		}
	}

	var dx, dy float64
	if anchor < 0 {
		box := bounds(s.Items, pos)
		dx, dy = -box.X, -box.Y
	} else {
		a := s.Items[anchor]
		dx, dy = a.Position.X-pos[a.ID].X, a.Position.Y-pos[a.ID].Y
	}
	for _, it := range s.Items {
		if it.Anchored && it.HasPosition {
			pos[it.ID] = it.Position
			continue
		}
		p := pos[it.ID]
		pos[it.ID] = model.Position{X: p.X + dx, Y: p.Y + dy}
	}
	return pos, nil
}
