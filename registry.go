package hxhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// ProfilePath is where Handler serves the latest profile envelope.
const ProfilePath = "/_profile"

// Registry holds component definitions by name and serves them over HTTP,
// creating a fresh Runtime for every request.
type Registry struct {
	mu      sync.RWMutex
	mux     *http.ServeMux
	defs    map[string]*Def
	cfg     Config
	log     zerolog.Logger
	rec     *Recorder
	encoder *Encoder
	profile string

	// Props derives the props for a root mount from the request.
	// The default passes nil, giving the definition's zero props.
	Props func(r *http.Request, def *Def) (any, error)

	// OnError is called when a request fails.
	// Customize this to handle errors appropriately for your application.
	OnError func(http.ResponseWriter, *http.Request, error)

	// OnRootError is installed as the root recovery policy of every
	// request runtime. nil lets root failures reach OnError.
	OnRootError func(ctx context.Context, vm *VM, err error) error
}

// NewRegistry creates a registry configured by cfg. Profiling requires a
// usable profile key; NewRegistry panics otherwise.
func NewRegistry(cfg Config, logger zerolog.Logger) *Registry {
	reg := &Registry{
		mux:  http.NewServeMux(),
		defs: make(map[string]*Def),
		cfg:  cfg,
		log:  logger,
	}
	if cfg.Profile.Enabled && !cfg.Production {
		enc, err := NewEncoder([]byte(cfg.Profile.Key))
		if err != nil {
			panic(fmt.Sprintf("hxhook: failed to create profile encoder: %v", err))
		}
		reg.encoder = enc
		reg.rec = NewRecorder()
		reg.mux.HandleFunc("GET "+ProfilePath, reg.serveProfile)
	}
	reg.mux.HandleFunc("GET /{name}", reg.serveComponent)

	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		if IsNotFound(err) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if cfg.Production {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_ = ErrorComponent(err).Render(r.Context(), w)
	}
	return reg
}

// Add registers definitions with the registry.
// Panics if a definition has no name or constructor, or if its name is taken.
func (reg *Registry) Add(defs ...*Def) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, def := range defs {
		if def == nil || def.Name == "" {
			panic("hxhook: definition must have a name")
		}
		if def.Construct == nil {
			panic(fmt.Sprintf("hxhook: definition %q has no constructor", def.Name))
		}
		if _, exists := reg.defs[def.Name]; exists {
			panic(fmt.Sprintf("hxhook: name collision for %q", def.Name))
		}
		reg.defs[def.Name] = def
	}
}

// Lookup returns the definition registered under name.
func (reg *Registry) Lookup(name string) (*Def, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	def, ok := reg.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return def, nil
}

// NewRuntime creates a runtime configured like the ones Handler uses.
func (reg *Registry) NewRuntime() *Runtime {
	opts := reg.cfg.Options(reg.log, reg.rec)
	opts.OnRootError = reg.OnRootError
	return NewRuntime(opts)
}

// Recorder returns the shared profile recorder, or nil when profiling is off.
func (reg *Registry) Recorder() *Recorder {
	return reg.rec
}

// Encoder returns the profile encoder, or nil when profiling is off.
func (reg *Registry) Encoder() *Encoder {
	return reg.encoder
}

// Handler returns the HTTP handler serving GET /{name} for every
// registered definition.
func (reg *Registry) Handler() http.Handler {
	return reg.mux
}

func (reg *Registry) serveComponent(w http.ResponseWriter, r *http.Request) {
	def, err := reg.Lookup(r.PathValue("name"))
	if err != nil {
		reg.OnError(w, r, err)
		return
	}

	var props any
	if reg.Props != nil {
		if props, err = reg.Props(r, def); err != nil {
			reg.OnError(w, r, err)
			return
		}
	}

	rt := reg.NewRuntime()
	ctx := WithRuntime(r.Context(), rt)
	root, err := rt.Mount(ctx, nil, def, props)
	if err != nil {
		reg.OnError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = rt.RenderTree(ctx, &buf, root)
	reg.snapshotProfile()
	if err != nil {
		reg.OnError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if IsHTMX(r) {
		w.Header().Set("Vary", "HX-Request")
	}
	_, _ = buf.WriteTo(w)
}

// snapshotProfile seals everything recorded since the last snapshot.
func (reg *Registry) snapshotProfile() {
	if reg.rec == nil {
		return
	}
	p := reg.rec.Drain()
	envelope, err := EncodeProfile(reg.encoder, p, reg.cfg.Profile.Sensitive)
	if err != nil {
		reg.log.Error().Err(err).Msg("profile encode failed")
		return
	}
	reg.mu.Lock()
	reg.profile = envelope
	reg.mu.Unlock()
}

func (reg *Registry) serveProfile(w http.ResponseWriter, r *http.Request) {
	reg.mu.RLock()
	envelope := reg.profile
	reg.mu.RUnlock()
	if envelope == "" {
		http.Error(w, "No profile recorded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(envelope))
}
