package rpc

import (
	"context"
	"encoding/json"
)

type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

type Access int

const (
	Public Access = iota
	// Protected procedures reject anonymous callers before their input is read.
	Protected
)

func (a Access) String() string {
	if a == Protected {
		return "protected"
	}
	return "public"
}

// Handler is the business logic of a procedure.
type Handler[In, Out any] func(ctx context.Context, in In) (Out, error)

// Procedure is one named entry of the router.
type Procedure struct {
	Kind   Kind
	Access Access
	call   func(ctx context.Context, raw json.RawMessage) (any, error)
}

// Empty is the input of procedures that take none.
type Empty struct{}

// Success is the {"success": bool} result shared by several mutations.
type Success struct {
	Success bool `json:"success"`
}

func Query[In, Out any](access Access, h Handler[In, Out]) Procedure {
	return newProcedure(KindQuery, access, h)
}

func Mutation[In, Out any](access Access, h Handler[In, Out]) Procedure {
	return newProcedure(KindMutation, access, h)
}

func newProcedure[In, Out any](kind Kind, access Access, h Handler[In, Out]) Procedure {
	return Procedure{
		Kind:   kind,
		Access: access,
		call: func(ctx context.Context, raw json.RawMessage) (any, error) {
			in, err := Parse[In](raw)
			if err != nil {
				return nil, err
			}
			return h(ctx, in)
		},
	}
}
