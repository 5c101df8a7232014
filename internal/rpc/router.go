package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Routes maps a procedure's local name to the procedure.
type Routes map[string]Procedure

// Router is the lookup table from qualified names to procedures.
type Router struct {
	procedures map[string]Procedure
}

func NewRouter() *Router {
	return &Router{procedures: make(map[string]Procedure)}
}

// Group registers routes under prefix as "prefix.name". Duplicate names panic.
func (r *Router) Group(prefix string, routes Routes) *Router {
	for name, p := range routes {
		full := prefix + "." + name
		if _, exists := r.procedures[full]; exists {
			panic(fmt.Sprintf("rpc: procedure %q registered twice", full))
		}
		r.procedures[full] = p
	}
	return r
}

func (r *Router) Lookup(name string) (Procedure, bool) {
	p, ok := r.procedures[name]
	return p, ok
}

// Names lists registered procedures in lexical order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named procedure. Every returned error is an *Error.
func (r *Router) Call(ctx context.Context, name string, raw json.RawMessage) (result any, err error) {
	p, ok := r.procedures[name]
	if !ok {
		return nil, Errorf(CodeNotFound, "no procedure named %q", name)
	}
	return p.Invoke(ctx, raw)
}

// Invoke applies the access guard, then validation, then the handler.
func (p Procedure) Invoke(ctx context.Context, raw json.RawMessage) (result any, err error) {
	if p.Access == Protected && Caller(ctx) == nil {
		return nil, Errorf(CodeUnauthenticated, "login required")
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = &Error{Code: CodeInternal, Message: "internal error", Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	out, err := p.call(ctx, raw)
	if err != nil {
		return nil, AsError(err)
	}
	return out, nil
}
