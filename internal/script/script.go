// Package script runs Lua review rules over tracked changes.
//
// A rules file defines a global function decide(change) that returns
// "accept", "reject" or nil for each change. The change is a table with the
// fields id, kind, title, author, date, parent, preview and length.
//
//	function decide(change)
//	  if change.author == "bot" then return "reject" end
//	  if change.kind == "format-change" then return "accept" end
//	end
//
// Rules run in a sandbox with only the base, table, string and math
// libraries; file loading functions are removed.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/redline/internal/engine"
)

// DefaultTimeout bounds one call of decide.
const DefaultTimeout = time.Second

// Errors returned by rules.
var (
	ErrNoDecide    = errors.New("rules do not define decide")
	ErrBadDecision = errors.New("decide returned an invalid decision")
	ErrClosed      = errors.New("rules are closed")
)

// Decision is the outcome of a rule for one change.
type Decision int

// Decisions.
const (
	Skip Decision = iota
	Accept
	Reject
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	default:
		return "skip"
	}
}

// Option configures Rules.
type Option func(*Rules)

// WithTimeout sets the time limit of one decide call.
func WithTimeout(d time.Duration) Option {
	return func(r *Rules) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger receiving log() calls from the rules.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rules) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Rules is a loaded rules script.
//
// gopher-lua states are not goroutine-safe; Rules serializes calls.
type Rules struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	logger  *slog.Logger
	closed  bool
}

func newRules(opts []Option) *Rules {
	r := &Rules{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("log", L.NewFunction(r.luaLog))
	r.L = L
	return r
}

// LoadFile loads the rules in the file at path.
func LoadFile(path string, opts ...Option) (*Rules, error) {
	r := newRules(opts)
	if err := r.L.DoFile(path); err != nil {
		r.L.Close()
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	return r.checked()
}

// LoadString loads rules from source code.
func LoadString(code string, opts ...Option) (*Rules, error) {
	r := newRules(opts)
	if err := r.L.DoString(code); err != nil {
		r.L.Close()
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return r.checked()
}

func (r *Rules) checked() (*Rules, error) {
	if r.L.GetGlobal("decide").Type() != lua.LTFunction {
		r.L.Close()
		return nil, ErrNoDecide
	}
	return r, nil
}

// Decide runs decide for change c.
func (r *Rules) Decide(ctx context.Context, c engine.ChangeInfo) (Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Skip, ErrClosed
	}
	fn := r.L.GetGlobal("decide")
	if fn.Type() != lua.LTFunction {
		return Skip, ErrNoDecide
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	if err := r.call(fn, r.changeTable(c)); err != nil {
		return Skip, fmt.Errorf("decide change %d: %w", c.ID, err)
	}
	ret := r.L.Get(-1)
	r.L.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return Skip, nil
	case lua.LString:
		switch string(v) {
		case "accept":
			return Accept, nil
		case "reject":
			return Reject, nil
		case "skip", "":
			return Skip, nil
		}
	}
	return Skip, fmt.Errorf("%w: change %d: %s", ErrBadDecision, c.ID, ret.String())
}

// call invokes fn with one argument and one result, converting panics
// inside the interpreter to errors.
func (r *Rules) call(fn lua.LValue, arg lua.LValue) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()
	return r.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, arg)
}

func (r *Rules) changeTable(c engine.ChangeInfo) *lua.LTable {
	t := r.L.NewTable()
	t.RawSetString("id", lua.LNumber(c.ID))
	t.RawSetString("kind", lua.LString(c.Kind.String()))
	t.RawSetString("title", lua.LString(c.Title))
	t.RawSetString("author", lua.LString(c.Author))
	t.RawSetString("date", lua.LString(c.Date))
	t.RawSetString("parent", lua.LNumber(c.Parent))
	t.RawSetString("preview", lua.LString(c.Preview))
	t.RawSetString("length", lua.LNumber(c.Length))
	return t
}

func (r *Rules) luaLog(L *lua.LState) int {
	r.logger.Info(L.CheckString(1), "source", "rules")
	return 0
}

// Plan runs decide for every change and returns the accept (true) or
// reject (false) decisions. Skipped changes are left out.
func (r *Rules) Plan(ctx context.Context, changes []engine.ChangeInfo) (map[engine.ChangeID]bool, error) {
	out := make(map[engine.ChangeID]bool)
	for _, c := range changes {
		d, err := r.Decide(ctx, c)
		if err != nil {
			return nil, err
		}
		switch d {
		case Accept:
			out[c.ID] = true
		case Reject:
			out[c.ID] = false
		}
		r.logger.Debug("rule decision", "change", c.ID, "decision", d)
	}
	return out, nil
}

// Close releases the Lua state.
func (r *Rules) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.L.Close()
		r.closed = true
	}
	return nil
}
