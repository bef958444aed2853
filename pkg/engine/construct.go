package engine

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/curvekit/pkg/graph"
	"github.com/chazu/curvekit/pkg/kernel"
	"github.com/chazu/curvekit/pkg/kernel/curves"
)

// builtin is the zygomys user function signature.
type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// wrap prefixes builtin errors with the script-level name. Names arrive
// with underscores; the message uses the kebab-case the script was
// written in.
func wrap(script string, fn builtin) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		out, err := fn(env, name, args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", script, err)
		}
		return out, nil
	}
}

// registerCurveBuiltins installs the curve constructors and the nodes
// that name, transform, trim and group them.
func (s *session) registerCurveBuiltins(env *zygo.Zlisp) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", wrap("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	}))

	// -----------------------------------------------------------------------
	// (line (vec3 0 0 0) (vec3 10 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("line", wrap("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("requires two end points, got %d arguments", len(args))
		}
		a, err := toVec3(args[0])
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		b, err := toVec3(args[1])
		if err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
		return &sexpCurve{
			data:  graph.CurveData{Prim: graph.PrimLine, Points: []v3.Vec{a, b}},
			curve: curves.NewLine(a, b),
		}, nil
	}))

	// -----------------------------------------------------------------------
	// (arc :center (vec3 0 0 0) :normal (vec3 0 0 1) :radius 5 :start 0 :sweep 90)
	// Angles are in degrees.
	// -----------------------------------------------------------------------
	env.AddFunction("arc", wrap("arc", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return circular(parseArgs(args), graph.PrimArc)
	}))

	// -----------------------------------------------------------------------
	// (circle :center (vec3 0 0 0) :normal (vec3 0 0 1) :radius 5 :start 0)
	// -----------------------------------------------------------------------
	env.AddFunction("circle", wrap("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return circular(parseArgs(args), graph.PrimCircle)
	}))

	// -----------------------------------------------------------------------
	// (helix :center (vec3 0 0 0) :radius 2 :pitch 1 :turns 3)
	// -----------------------------------------------------------------------
	env.AddFunction("helix", wrap("helix", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		d := graph.CurveData{Prim: graph.PrimHelix}
		var err error
		if d.Center, err = pa.vec("center", v3.Vec{}); err != nil {
			return nil, err
		}
		if d.Radius, err = pa.float("radius", 1); err != nil {
			return nil, err
		}
		if d.Pitch, err = pa.float("pitch", 1); err != nil {
			return nil, err
		}
		if d.Turns, err = pa.float("turns", 1); err != nil {
			return nil, err
		}
		return &sexpCurve{data: d, curve: curves.NewHelix(d.Center, d.Radius, d.Pitch, d.Turns)}, nil
	}))

	// -----------------------------------------------------------------------
	// (bezier :degree 3 :points (list (vec3 ...) ...) :weights (list 1 1 1 1))
	// -----------------------------------------------------------------------
	env.AddFunction("bezier", wrap("bezier", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		d := graph.CurveData{Prim: graph.PrimBezier}
		v, ok := pa.kw["points"]
		if !ok {
			return nil, fmt.Errorf("requires :points")
		}
		items, err := sexpListToSlice(v)
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		for i, item := range items {
			p, err := toVec3(item)
			if err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			d.Points = append(d.Points, p)
		}
		if v, ok := pa.kw["weights"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return nil, fmt.Errorf("weights: %w", err)
			}
			for i, item := range items {
				w, err := toFloat64(item)
				if err != nil {
					return nil, fmt.Errorf("weight %d: %w", i, err)
				}
				d.Weights = append(d.Weights, w)
			}
		}
		deg, err := pa.float("degree", float64(len(d.Points)-1))
		if err != nil {
			return nil, err
		}
		d.Degree = int(deg)
		b, err := curves.NewBezier(d.Degree, d.Points, d.Weights)
		if err != nil {
			return nil, err
		}
		return &sexpCurve{data: d, curve: b}, nil
	}))

	// -----------------------------------------------------------------------
	// (defcurve "rim" (circle :radius 2))
	// -----------------------------------------------------------------------
	env.AddFunction("defcurve", wrap("defcurve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("requires a name and a curve expression")
		}
		curveName, err := toString(args[0])
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		if s.g.Lookup(curveName) != nil {
			return nil, fmt.Errorf("%q already defined", curveName)
		}
		switch body := args[1].(type) {
		case *sexpCurve:
			n := s.bind(curveName, body)
			return &sexpNodeRef{id: n.ID, name: curveName}, nil
		default:
			return nil, fmt.Errorf("expected curve expression, got %T (%s)", args[1], args[1].SexpString(nil))
		}
	}))

	// -----------------------------------------------------------------------
	// (curve "rim")
	// -----------------------------------------------------------------------
	env.AddFunction("curve", wrap("curve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("requires a name argument")
		}
		curveName, err := toString(args[0])
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		n := s.g.Lookup(curveName)
		if n == nil {
			return nil, fmt.Errorf("no curve named %q", curveName)
		}
		return &sexpNodeRef{id: n.ID, name: curveName}, nil
	}))

	// -----------------------------------------------------------------------
	// (translate (curve "base") (vec3 0 6 0) :name "lid")
	// -----------------------------------------------------------------------
	env.AddFunction("translate", wrap("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return nil, fmt.Errorf("requires a curve and an offset")
		}
		offset, err := toVec3(pa.positional[1])
		if err != nil {
			return nil, fmt.Errorf("offset: %w", err)
		}
		return s.transform(pa, graph.TransformData{Translation: offset})
	}))

	// -----------------------------------------------------------------------
	// (rotate (curve "base") :x 0 :y 0 :z 90 :name "turned")
	// Angles are in degrees, applied about X then Y then Z.
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", wrap("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("requires a curve")
		}
		var r [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := pa.float(axis, 0)
			if err != nil {
				return nil, err
			}
			r[i] = degrees(f)
		}
		return s.transform(pa, graph.TransformData{Rotation: v3.Vec{X: r[0], Y: r[1], Z: r[2]}})
	}))

	// -----------------------------------------------------------------------
	// (trim (curve "rim") :from 0 :to 0.5 :name "half")
	// -----------------------------------------------------------------------
	env.AddFunction("trim", wrap("trim", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("requires a curve")
		}
		child, err := s.toCurveNode(pa.positional[0])
		if err != nil {
			return nil, err
		}
		lo, hi, err := kernel.Domain(child.Curve)
		if err != nil {
			return nil, err
		}
		from, err := pa.float("from", lo)
		if err != nil {
			return nil, err
		}
		to, err := pa.float("to", hi)
		if err != nil {
			return nil, err
		}
		t, err := curves.NewTrimmed(child.Curve, from, to)
		if err != nil {
			return nil, err
		}
		nodeName, err := pa.str("name")
		if err != nil {
			return nil, err
		}
		return s.derive(graph.NodeTrim, nodeName, child, graph.TrimData{From: from, To: to}, t)
	}))

	// -----------------------------------------------------------------------
	// (group "profile" (curve "rim") (curve "base") ...)
	// -----------------------------------------------------------------------
	env.AddFunction("group", wrap("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("requires a name argument")
		}
		groupName, err := toString(args[0])
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		if s.g.Lookup(groupName) != nil {
			return nil, fmt.Errorf("%q already defined", groupName)
		}
		var children []graph.NodeID
		for i := 1; i < len(args); i++ {
			switch c := args[i].(type) {
			case *sexpNodeRef:
				children = append(children, c.id)
			case *sexpCurve:
				children = append(children, s.bind("", c).ID)
			default:
				return nil, fmt.Errorf("child %d: expected node reference, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
		}
		id := graph.NewNodeID("group/" + groupName)
		s.g.AddNode(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     groupName,
			Children: children,
			Data:     graph.GroupData{},
		})
		s.g.AddRoot(id)
		return &sexpNodeRef{id: id, name: groupName}, nil
	}))
}

// circular builds an arc or circle from keyword arguments.
func circular(pa kwArgs, prim graph.PrimitiveKind) (zygo.Sexp, error) {
	d := graph.CurveData{Prim: prim}
	var err error
	if d.Center, err = pa.vec("center", v3.Vec{}); err != nil {
		return nil, err
	}
	if d.Normal, err = pa.vec("normal", v3.Vec{Z: 1}); err != nil {
		return nil, err
	}
	if d.Normal.Length() == 0 {
		return nil, fmt.Errorf("normal must be non-zero")
	}
	if d.Radius, err = pa.float("radius", 1); err != nil {
		return nil, err
	}
	start, err := pa.float("start", 0)
	if err != nil {
		return nil, err
	}
	d.Start = degrees(start)
	d.Sweep = 2 * math.Pi
	if prim == graph.PrimArc {
		sweep, err := pa.float("sweep", 90)
		if err != nil {
			return nil, err
		}
		d.Sweep = degrees(sweep)
	}
	return &sexpCurve{data: d, curve: curves.NewArc(d.Center, d.Normal, d.Radius, d.Start, d.Sweep)}, nil
}

// transform adds a transform node over the first positional argument.
func (s *session) transform(pa kwArgs, td graph.TransformData) (zygo.Sexp, error) {
	child, err := s.toCurveNode(pa.positional[0])
	if err != nil {
		return nil, err
	}
	nodeName, err := pa.str("name")
	if err != nil {
		return nil, err
	}
	return s.derive(graph.NodeTransform, nodeName, child, td, curves.NewTransformed(child.Curve, td.Matrix()))
}
