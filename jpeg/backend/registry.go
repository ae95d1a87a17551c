package backend

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/cocosip/jpegcore/internal/options"
)

// EnvVar names the environment variable honoured by WithEnv.
const EnvVar = "JPEGCORE_BACKEND"

var (
	// ErrUnknownBackend is returned for a name no variant is registered under.
	ErrUnknownBackend = errors.New("backend: unknown backend")

	// ErrUnsupported is returned when a variant's CPU probe fails.
	ErrUnsupported = errors.New("backend: not supported on this CPU")
)

// variant is a registered accelerated backend and its CPU probe.
type variant struct {
	backend Backend
	lanes   int
	probe   func() bool

	once sync.Once
	err  error
}

// check runs the probe once. A panicking probe counts as unsupported.
func (v *variant) check() error {
	v.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				v.err = fmt.Errorf("%w: %s probe panicked: %v", ErrUnsupported, v.backend.Name(), r)
			}
		}()
		if !v.probe() {
			v.err = fmt.Errorf("%w: %s", ErrUnsupported, v.backend.Name())
		}
	})
	return v.err
}

var (
	registryMu sync.RWMutex
	registry   []*variant
)

// register adds an accelerated variant. Called from the per-arch init
// functions; the registry is kept sorted widest first.
func register(b Backend, lanes int, probe func() bool) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry = append(registry, &variant{backend: b, lanes: lanes, probe: probe})
	slices.SortStableFunc(registry, func(x, y *variant) int {
		return y.lanes - x.lanes
	})
}

func variants() []*variant {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Clone(registry)
}

// Available returns the names of the backends usable on this CPU, widest
// first. The portable backend is always last.
func Available() []string {
	var names []string
	for _, v := range variants() {
		if v.check() == nil {
			names = append(names, v.backend.Name())
		}
	}
	return append(names, NamePortable)
}

// Registered returns the names of all variants compiled into this binary,
// including ones the CPU does not support. The portable backend is last.
func Registered() []string {
	var names []string
	for _, v := range variants() {
		names = append(names, v.backend.Name())
	}
	return append(names, NamePortable)
}

// Lookup returns the backend registered under name if the CPU supports it.
func Lookup(name string) (Backend, error) {
	if name == NamePortable {
		return Portable(), nil
	}
	for _, v := range variants() {
		if v.backend.Name() != name {
			continue
		}
		if err := v.check(); err != nil {
			return nil, err
		}
		return v.backend, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

type selectConfig struct {
	name      string
	selfCheck bool
	useEnv    bool
	corpus    *Corpus
}

// Option configures Select.
type Option = options.Option[*selectConfig]

// WithName forces the backend registered under name.
func WithName(name string) Option {
	return options.NoError(func(c *selectConfig) {
		c.name = name
	})
}

// WithPortable forces the portable backend.
func WithPortable() Option {
	return WithName(NamePortable)
}

// WithSelfCheck verifies an accelerated candidate against the portable
// backend before accepting it.
func WithSelfCheck() Option {
	return options.NoError(func(c *selectConfig) {
		c.selfCheck = true
	})
}

// WithCorpus sets the corpus used by WithSelfCheck. Defaults to
// DefaultCorpus.
func WithCorpus(corpus *Corpus) Option {
	return options.NoError(func(c *selectConfig) {
		c.corpus = corpus
	})
}

// WithEnv lets the EnvVar environment variable name the backend. An
// explicit WithName takes precedence.
func WithEnv() Option {
	return options.NoError(func(c *selectConfig) {
		c.useEnv = true
	})
}

// Selection records which backend Select chose and why.
type Selection struct {
	Backend Backend

	// Requested is the name asked for through WithName or the environment,
	// empty for automatic selection.
	Requested string

	// Fallback is set when the portable backend was chosen because the
	// requested or preferred variant was rejected. Reason says why.
	Fallback bool
	Reason   string
}

// Select picks the backend for one encoding session: the requested one if
// given, otherwise the widest variant the CPU supports. Any failure falls
// back to the portable backend and is recorded in the Selection.
func Select(opts ...Option) Selection {
	cfg := &selectConfig{}
	_ = options.Apply(cfg, opts...)

	if cfg.name == "" && cfg.useEnv {
		cfg.name = os.Getenv(EnvVar)
	}

	sel := Selection{Requested: cfg.name}
	fallback := func(err error) Selection {
		sel.Backend = Portable()
		sel.Fallback = true
		sel.Reason = err.Error()
		return sel
	}

	var candidate Backend
	if cfg.name != "" {
		b, err := Lookup(cfg.name)
		if err != nil {
			return fallback(err)
		}
		candidate = b
	} else {
		candidate = Portable()
		var firstErr error
		for _, v := range variants() {
			if err := v.check(); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			candidate = v.backend
			firstErr = nil
			break
		}
		if firstErr != nil {
			return fallback(firstErr)
		}
	}

	if cfg.selfCheck && candidate.Name() != NamePortable {
		corpus := cfg.corpus
		if corpus == nil {
			corpus = DefaultCorpus()
		}
		if err := Verify(candidate, corpus); err != nil {
			return fallback(err)
		}
	}

	sel.Backend = candidate
	return sel
}
