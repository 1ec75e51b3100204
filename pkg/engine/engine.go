// Package engine evaluates scene scripts. Scripts are Lisp run in a fresh
// zygomys sandbox with the scene forms installed; the result is a
// scene.Scene.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/scene"
)

// EvalError is a parse, runtime or validation error in user code. Line is
// zero when the position is unknown.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	Layer   string `json:"layer,omitempty"`
}

func (e EvalError) Error() string {
	msg := e.Message
	if e.Layer != "" {
		msg = fmt.Sprintf("layer %q: %s", e.Layer, msg)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// EvalWarning is a problem that does not stop the scene from building.
type EvalWarning struct {
	Message string `json:"message"`
	Layer   string `json:"layer,omitempty"`
}

// EvalResult is the full output of Run. Scene is nil whenever Errors is
// not empty.
type EvalResult struct {
	Scene    *scene.Scene
	Errors   []EvalError
	Warnings []EvalWarning
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout replaces EvalTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Engine evaluates scripts. It is safe for concurrent use; each call gets
// its own sandbox, and only the most recent call's result is returned.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Timeout is the evaluation limit in force.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Evaluate runs source and returns the scene it describes.
//
//   - On success: scene, nil, nil
//   - On a script or validation error: nil, errors, nil
//   - On timeout, panic or a superseded call: nil, nil, error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	res, err := e.Run(source)
	return res.Scene, res.Errors, err
}

// Run is Evaluate plus validation warnings.
func (e *Engine) Run(source string) (EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		res := e.evaluate(source)
		ch <- evalResult{res: res}
	}()

	res, err := waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
	if err != nil {
		logging.WithComponent("engine").Warn("evaluation failed", "generation", gen, "err", err)
		return EvalResult{}, err
	}
	logging.WithComponent("engine").Debug("evaluated",
		"generation", gen,
		"elapsed", time.Since(start),
		"errors", len(res.Errors),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// evaluate runs source in a fresh sandbox and validates the scene it
// builds.
func (e *Engine) evaluate(source string) EvalResult {
	s := scene.New()
	if strings.TrimSpace(source) == "" {
		return EvalResult{Scene: s}
	}

	// The sandbox has no filesystem or system access.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return EvalResult{Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return EvalResult{Errors: parseZygomysError(err)}
	}

	v := scene.ValidateAll(s)
	res := EvalResult{Scene: s}
	for _, w := range v.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, Layer: w.Layer})
	}
	if !v.OK() {
		res.Scene = nil
		for _, ve := range v.Errors {
			res.Errors = append(res.Errors, EvalError{Message: ve.Message, Layer: ve.Layer})
		}
	}
	return res
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError turns a zygomys error into an EvalError, pulling out
// the line number when the message has one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
