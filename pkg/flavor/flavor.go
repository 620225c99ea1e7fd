// Package flavor detects which optional ML framework integrations are usable
// in the current environment. Flavors register in a fixed order; detection
// probes each one once and absorbs missing-dependency failures, so an
// environment with no frameworks installed still yields a working core with
// an empty supported list.
package flavor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/newronai/newron-go/pkg/logging"
)

// ErrDependencyAbsent is the sentinel a probe returns when the flavor's
// underlying dependency is not installed. Detection swallows it; any other
// probe error is recorded as a fault and logged, and the flavor is excluded
// from the supported list either way.
var ErrDependencyAbsent = errors.New("flavor: dependency absent")

// Flavor is one optional framework integration.
type Flavor interface {
	// Name is the flavor's public name, e.g. "sklearn".
	Name() string
	// Probe reports whether the integration is usable. A nil return means
	// supported; ErrDependencyAbsent means the dependency is missing.
	Probe(ctx context.Context) error
}

// Registry holds flavors in declaration order and runs detection exactly once.
type Registry struct {
	mu      sync.Mutex
	flavors []Flavor

	detectOnce sync.Once
	supported  []string
	byName     map[string]Flavor
	faults     map[string]error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a flavor. Order of registration is the order flavors appear
// in Supported. Registering after detection has run, or registering a
// duplicate name, panics.
func (r *Registry) Register(f Flavor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byName != nil {
		panic(fmt.Sprintf("flavor: Register(%q) after detection", f.Name()))
	}
	for _, existing := range r.flavors {
		if existing.Name() == f.Name() {
			panic(fmt.Sprintf("flavor: flavor %q already registered", f.Name()))
		}
	}

	r.flavors = append(r.flavors, f)
}

// detect probes every registered flavor. Runs at most once per registry;
// later calls reuse the first result, so the supported list is stable for
// the life of the process.
func (r *Registry) detect(ctx context.Context) {
	r.detectOnce.Do(func() {
		r.mu.Lock()
		flavors := make([]Flavor, len(r.flavors))
		copy(flavors, r.flavors)
		r.mu.Unlock()

		log := logging.For("flavor")
		byName := make(map[string]Flavor, len(flavors))
		faults := map[string]error{}
		var supported []string

		for _, f := range flavors {
			err := f.Probe(ctx)
			switch {
			case err == nil:
				supported = append(supported, f.Name())
				byName[f.Name()] = f
			case errors.Is(err, ErrDependencyAbsent):
				// Missing dependency is the expected case for an
				// uninstalled integration; stay quiet.
			default:
				faults[f.Name()] = err
				log.Warn("flavor probe failed", "flavor", f.Name(), "error", err)
			}
		}

		r.mu.Lock()
		r.supported = supported
		r.byName = byName
		r.faults = faults
		r.mu.Unlock()
	})
}

// Supported returns the names of usable flavors in registration order,
// running detection on first call.
func (r *Registry) Supported(ctx context.Context) []string {
	r.detect(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.supported))
	copy(out, r.supported)

	return out
}

// Capability returns the named flavor if detection found it usable.
func (r *Registry) Capability(ctx context.Context, name string) (Flavor, bool) {
	r.detect(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.byName[name]

	return f, ok
}

// DetectErrors returns probe failures other than missing dependencies, keyed
// by flavor name. Empty when every absent flavor was simply not installed.
func (r *Registry) DetectErrors(ctx context.Context) map[string]error {
	r.detect(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]error, len(r.faults))
	for k, v := range r.faults {
		out[k] = v
	}

	return out
}
