package transport

import (
	"context"

	"github.com/arfordweb/redux-auto-api/pkg/collection"
)

// Params are GET query parameters.
type Params map[string]string

// Response is the transport outcome handed back to the sequencer.
type Response struct {
	// Data holds the response records in state shape.
	Data []collection.Resource

	// Raw is the decoded wire payload before normalization, when the
	// transport has one. It travels on actions as ResponseData.
	Raw any
}

// Transport performs the four CRUD calls against a remote API.
type Transport interface {
	Get(ctx context.Context, endpoint string, params Params) (Response, error)
	Post(ctx context.Context, endpoint string, payload any) (Response, error)
	Patch(ctx context.Context, endpoint string, payload any) (Response, error)
	Delete(ctx context.Context, endpoint string, payload any) (Response, error)
}

// Func is a single operation's transport function.
type Func func(ctx context.Context, endpoint string, payload any) (Response, error)

// Funcs assembles a Transport from individual functions. Nil functions are
// reported as configuration errors when the client is constructed, so each
// field used by an enabled operation must be set.
type Funcs struct {
	GetFunc    Func
	PostFunc   Func
	PatchFunc  Func
	DeleteFunc Func
}

func (f Funcs) Get(ctx context.Context, endpoint string, params Params) (Response, error) {
	return f.GetFunc(ctx, endpoint, params)
}

func (f Funcs) Post(ctx context.Context, endpoint string, payload any) (Response, error) {
	return f.PostFunc(ctx, endpoint, payload)
}

func (f Funcs) Patch(ctx context.Context, endpoint string, payload any) (Response, error) {
	return f.PatchFunc(ctx, endpoint, payload)
}

func (f Funcs) Delete(ctx context.Context, endpoint string, payload any) (Response, error) {
	return f.DeleteFunc(ctx, endpoint, payload)
}
