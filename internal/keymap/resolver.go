package keymap

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
)

// Binding contexts. Global keys always resolve; playback keys resolve only
// while something is queued.
const (
	Global   = "global"
	Playback = "playback"
)

// ErrConflict is returned when one key would resolve to two actions.
var ErrConflict = errors.New("keymap: conflicting binding")

// Resolver maps key presses to actions within a set of active contexts.
type Resolver struct {
	scopes map[string]map[string]Action // context -> key -> action
}

// NewResolver indexes bindings by context. A key may not name two actions
// in the same context, and a context key may not shadow a global one.
func NewResolver(bindings []Binding) (*Resolver, error) {
	r := &Resolver{scopes: make(map[string]map[string]Action)}
	for _, b := range bindings {
		scope := r.scopes[b.Context]
		if scope == nil {
			scope = make(map[string]Action)
			r.scopes[b.Context] = scope
		}
		for _, k := range b.Keys {
			if prev, ok := scope[k]; ok && prev != b.Action {
				return nil, errors.Wrapf(ErrConflict, "%q is bound to %s and %s in %s", k, prev, b.Action, b.Context)
			}
			scope[k] = b.Action
		}
	}
	for ctx, scope := range r.scopes {
		if ctx == Global {
			continue
		}
		for k, a := range scope {
			if g, ok := r.scopes[Global][k]; ok && g != a {
				return nil, errors.Wrapf(ErrConflict, "%q in %s shadows global %s", k, ctx, g)
			}
		}
	}
	return r, nil
}

// Default returns the resolver for Bindings.
func Default() *Resolver {
	r, err := NewResolver(Bindings)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the action bound to key in the first active context that
// binds it, or the empty action. Global is always active.
func (r *Resolver) Resolve(key string, active ...string) Action {
	if a, ok := r.scopes[Global][key]; ok {
		return a
	}
	for _, ctx := range active {
		if a, ok := r.scopes[ctx][key]; ok {
			return a
		}
	}
	return ""
}

// ResolveKey is Resolve for a key press.
func (r *Resolver) ResolveKey(msg tea.KeyMsg, active ...string) Action {
	return r.Resolve(msg.String(), active...)
}
