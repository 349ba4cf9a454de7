package search

import (
	"sync"

	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/resolve"
)

// Processor receives the distinct found entities after every completed
// search. Implementations register at startup; there is no discovery
// mechanism. A processor must not retain the slice past the call.
type Processor interface {
	Name() string
	Process(found []resolve.Entity) error
}

var (
	processorMu sync.RWMutex
	processors  []Processor
)

// RegisterProcessor adds a post-processor. Names are unique; a second
// registration under the same name is rejected.
func RegisterProcessor(p Processor) error {
	if p == nil || p.Name() == "" {
		return refserrors.NewValidationError("processor", "missing name")
	}

	processorMu.Lock()
	defer processorMu.Unlock()

	for _, have := range processors {
		if have.Name() == p.Name() {
			return refserrors.NewValidationError("processor", "duplicate name "+p.Name())
		}
	}
	processors = append(processors, p)
	return nil
}

// Processors returns a snapshot of the registered post-processors in
// registration order.
func Processors() []Processor {
	processorMu.RLock()
	defer processorMu.RUnlock()

	out := make([]Processor, len(processors))
	copy(out, processors)
	return out
}

// resetProcessors clears the registry; tests only.
func resetProcessors() {
	processorMu.Lock()
	defer processorMu.Unlock()
	processors = nil
}
