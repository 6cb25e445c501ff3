// Package savebar coordinates which of several independently-rendered
// forms currently owns the single save action a persistent page footer
// exposes. Exactly one form is mounted and in focus at a time, so the
// protocol is a single replaceable slot, not a stack or a broadcast
// channel.
package savebar

import (
	"reflect"
	"sync"
)

// State is what the footer reads before enabling its button.
type State struct {
	IsValid      bool
	IsSubmitting bool
}

// Getters supply the registered form's validity and submitting state.
// Either may be nil; the defaults are valid and not submitting.
type Getters struct {
	IsValid      func() bool
	IsSubmitting func() bool
}

// Registry is the single-slot holder. It has two states: unregistered
// (initial) and registered (holding one handler plus getters). Mounting
// a new form replaces the prior registration unconditionally; that is
// the normal path, not an error.
type Registry struct {
	mu         sync.Mutex
	registered bool
	handler    func()
	getters    Getters
	version    uint64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register installs the handler and getters, replacing any prior
// registration. The version only advances when the handler or either
// getter identity differs from the previous registration, so a no-op
// re-registration never causes dependents to re-render.
func (r *Registry) Register(handler func(), getters Getters) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := !r.registered ||
		funcPtr(r.handler) != funcPtr(handler) ||
		funcPtr(r.getters.IsValid) != funcPtr(getters.IsValid) ||
		funcPtr(r.getters.IsSubmitting) != funcPtr(getters.IsSubmitting)

	r.registered = true
	r.handler = handler
	r.getters = getters
	if changed {
		r.version++
	}
}

// Unregister empties the slot; it no-ops when already empty.
func (r *Registry) Unregister() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.registered {
		return
	}
	r.registered = false
	r.handler = nil
	r.getters = Getters{}
	r.version++
}

// Trigger invokes the registered handler. With nothing registered it
// does nothing; it never panics. The handler runs outside the lock so it
// may re-register or unregister.
func (r *Registry) Trigger() {
	r.mu.Lock()
	handler := r.handler
	r.mu.Unlock()

	if handler != nil {
		handler()
	}
}

// ReadState computes the footer's view of the active form. Defaults are
// valid and not submitting, used when nothing is registered, a getter is
// nil, or a getter panics — the read path never propagates a panic.
func (r *Registry) ReadState() State {
	r.mu.Lock()
	getters := r.getters
	r.mu.Unlock()

	return State{
		IsValid:      safeGet(getters.IsValid, true),
		IsSubmitting: safeGet(getters.IsSubmitting, false),
	}
}

// Version reports the registration version; dependents compare it to
// cheaply detect change.
func (r *Registry) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

func safeGet(get func() bool, fallback bool) (out bool) {
	if get == nil {
		return fallback
	}
	defer func() {
		if recover() != nil {
			out = fallback
		}
	}()
	return get()
}

// funcPtr yields an identity for a function value; nil funcs map to 0.
func funcPtr(f any) uintptr {
	v := reflect.ValueOf(f)
	if !v.IsValid() || v.IsNil() {
		return 0
	}
	return v.Pointer()
}
