// Package idgen supplies placeholder ids for resources that have not been
// created on the server yet. The generator is injected as configuration so
// tests can use deterministic ids.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces placeholder resource ids.
type Generator interface {
	NextID() string
}

// GeneratorFunc adapts a plain function to a Generator.
type GeneratorFunc func() string

func (f GeneratorFunc) NextID() string {
	return f()
}

// UUID returns a generator backed by random UUIDs. This is the default.
func UUID() Generator {
	return GeneratorFunc(uuid.NewString)
}

// Sequential returns a generator producing "<prefix>1", "<prefix>2", …
// IDs are monotonically increasing and never reused; generation is safe
// for concurrent use.
func Sequential(prefix string) Generator {
	var counter uint64
	return GeneratorFunc(func() string {
		return fmt.Sprintf("%s%d", prefix, atomic.AddUint64(&counter, 1))
	})
}
