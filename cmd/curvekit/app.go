package main

import (
	"log/slog"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/curvekit/pkg/engine"
	"github.com/chazu/curvekit/pkg/graph"
	"github.com/chazu/curvekit/pkg/kernel"
	"github.com/chazu/curvekit/pkg/kernel/sdfx"
	"github.com/chazu/curvekit/pkg/tessellate"
)

// App runs the script pipeline: source -> engine -> graph -> queries and
// approximations.
type App struct {
	engine *engine.Engine
	log    *slog.Logger
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	Node    string `json:"node,omitempty"`
}

// PolylineData is one approximated curve.
type PolylineData struct {
	Name     string       `json:"name"`
	Segments int          `json:"segments"`
	Arcs     int          `json:"arcs"`
	Points   [][3]float64 `json:"points"`
	Tube     *kernel.Mesh `json:"tube,omitempty"`
}

// Result is the full output of one command.
type Result struct {
	Queries   []engine.QueryRecord `json:"queries"`
	Polylines []PolylineData       `json:"polylines,omitempty"`
	Errors    []EvalErrorData      `json:"errors"`
	Warnings  []EvalErrorData      `json:"warnings"`
}

// OK reports whether the run produced no errors.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// NewApp creates an App from resolved settings.
func NewApp(s settings, log *slog.Logger) *App {
	return &App{
		engine: engine.NewEngine(s.Hull, engine.WithTimeout(s.Timeout)),
		log:    log,
	}
}

// evaluate runs source and converts errors and warnings. It returns the
// engine result only when evaluation succeeded.
func (a *App) evaluate(source string) (Result, *engine.EvalResult) {
	result := Result{
		Queries:  []engine.QueryRecord{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	res, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result, nil
	}

	result.Queries = append(result.Queries, res.Queries...)
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Message, Node: nodeLabel(w.NodeID)})
	}
	if !res.OK() {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Message: e.Message, Node: nodeLabel(e.NodeID)})
		}
		return result, nil
	}
	a.log.Debug("evaluated script", "nodes", res.Graph.NodeCount(), "queries", len(res.Queries))
	return result, res
}

// Evaluate runs source and returns its query records.
func (a *App) Evaluate(source string) Result {
	result, _ := a.evaluate(source)
	return result
}

// Tessellate runs source and approximates every curve it defines. A
// positive tubeRadius also sweeps each approximation into a mesh.
func (a *App) Tessellate(source string, opts tessellate.Options, tubeRadius float64) Result {
	result, res := a.evaluate(source)
	if res == nil {
		return result
	}

	approx, err := tessellate.Tessellate(res.Graph, opts)
	if err != nil {
		a.log.Error("tessellate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	var meshes []*kernel.Mesh
	if tubeRadius > 0 {
		meshes, err = tessellate.Tubes(approx, sdfx.New(tubeRadius))
		if err != nil {
			result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
			return result
		}
	}

	for i, ap := range approx {
		pl := PolylineData{
			Name:     ap.Name,
			Segments: ap.SegmentCount(),
			Arcs:     ap.ArcCount(),
			Points:   triples(ap.Points()),
		}
		if meshes != nil {
			pl.Tube = meshes[i]
		}
		result.Polylines = append(result.Polylines, pl)
	}
	return result
}

func triples(pts []v3.Vec) [][3]float64 {
	out := make([][3]float64, len(pts))
	for i, p := range pts {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

// nodeLabel names a node for messages, empty for graph-level findings.
func nodeLabel(id graph.NodeID) string {
	if id.IsZero() {
		return ""
	}
	return id.Short()
}
