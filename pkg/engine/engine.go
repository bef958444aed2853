// Package engine provides the Lisp evaluation engine for curvekit.
// It wraps zygomys in a sandboxed environment: scripts build a CurveGraph
// with curve builtins and run hull queries against it, each query leaving
// a QueryRecord.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/curvekit/pkg/graph"
	"github.com/chazu/curvekit/pkg/hull"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code, or a blocking
// validation finding.
type EvalError struct {
	Line    int          `json:"line,omitempty"`
	Col     int          `json:"col,omitempty"`
	Message string       `json:"message"`
	NodeID  graph.NodeID `json:"nodeId,omitempty"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Message string       `json:"message"`
	NodeID  graph.NodeID `json:"nodeId,omitempty"`
}

// EvalResult bundles the full output of an evaluation. Graph is nil when
// Errors is non-empty; Queries holds the records made before the failure.
type EvalResult struct {
	Graph    *graph.CurveGraph `json:"graph,omitempty"`
	Queries  []QueryRecord     `json:"queries"`
	Errors   []EvalError       `json:"errors,omitempty"`
	Warnings []EvalWarning     `json:"warnings,omitempty"`
}

// OK reports whether the evaluation produced no errors.
func (r *EvalResult) OK() bool { return len(r.Errors) == 0 }

// Engine wraps the zygomys interpreter for curvekit evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	cfg     hull.Config
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout replaces EvalTimeout for this engine.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine creates a new Engine whose hulls use cfg.
func NewEngine(cfg hull.Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, timeout: EvalTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs script source and returns the graph and query records.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns a result with a graph and no errors
//   - On parse/eval/validation failure: returns a result whose Errors is
//     non-empty, and nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + error
func (e *Engine) Evaluate(source string) (*EvalResult, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res := e.evaluate(source)
		ch <- evalResult{result: res}
	}()

	return e.waitWithTimeout(ch, gen)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) *EvalResult {
	s := newSession(e.cfg)

	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return &EvalResult{Graph: s.g}
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	s.registerBuiltins(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Queries: s.queries, Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return &EvalResult{Queries: s.queries, Errors: parseZygomysError(err)}
	}

	s.finalizeRoots()
	res := &EvalResult{Queries: s.queries}
	vr := graph.ValidateAll(s.g)
	for _, w := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, NodeID: w.NodeID})
	}
	if !vr.OK() {
		for _, ve := range vr.Errors {
			res.Errors = append(res.Errors, EvalError{Message: ve.Message, NodeID: ve.NodeID})
		}
		return res
	}
	res.Graph = s.g
	return res
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
