package engine

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/store"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Form is one live form instance: a document, its value store and the
// conditional tree interpreted from both. Public methods are safe for
// concurrent use.
type Form struct {
	mu sync.Mutex

	registry  *registry.Registry
	logger    *zap.Logger
	evaluator visibility.Evaluator
	store     *store.Store
	maxPasses int

	doc  schema.Document
	root *instance
	// mounted maps field ids to the mounted instances declaring them, in
	// mount order. The first owner serves props and bindings.
	mounted map[string][]*instance

	warnings         map[string]string
	fieldErrors      map[string]string
	validationErrors map[string]string
	submitted        bool
	closed           bool

	staleMu sync.Mutex
	stale   map[*instance]struct{}
}

// New interprets doc and mounts every initially visible node.
func New(doc schema.Document, options ...Option) (*Form, error) {
	if _, err := schema.ParseRestoreMode(string(doc.RestoreMode)); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	f := &Form{
		mounted:          make(map[string][]*instance),
		fieldErrors:      make(map[string]string),
		validationErrors: make(map[string]string),
		stale:            make(map[*instance]struct{}),
		maxPasses:        defaultMaxPasses,
	}
	for _, option := range options {
		if option != nil {
			option(f)
		}
	}
	f.applyDefaults()

	f.doc = doc.Clone()
	f.root = &instance{
		id:      doc.ID,
		node:    f.doc.Root(),
		alive:   true,
		mounted: true,
		applied: true,
		resolution: registry.Resolution{
			Capability: registry.CapabilityElement,
			Descriptor: registry.Descriptor{Component: "Form", Container: true},
		},
	}
	f.rebuild()
	return f, nil
}

func (f *Form) applyDefaults() {
	if f.registry == nil {
		f.registry = registry.Default()
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	if f.evaluator == nil {
		f.evaluator = visibility.Standard()
	}
	if f.store == nil {
		f.store = store.New(store.WithLogger(f.logger))
	}
	if f.warnings == nil {
		f.warnings = make(map[string]string)
	}
}

// rebuild re-interprets the whole document and drains cascades. Callers hold
// f.mu.
func (f *Form) rebuild() {
	fx := newEffects()
	f.build(f.root, fx)
	f.apply(fx)
	f.flush()
}

// Document returns a copy of the interpreted document.
func (f *Form) Document() schema.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Clone()
}

// UpdateSchema replaces the document. Instances whose id and tag survive keep
// their mount state; retained fields whose schema changed are reconciled
// against their new options after every unmount has been restored.
func (f *Form) UpdateSchema(doc schema.Document) error {
	if _, err := schema.ParseRestoreMode(string(doc.RestoreMode)); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.doc = doc.Clone()
	f.root.id = doc.ID
	f.root.node = f.doc.Root()
	f.rebuild()
	return nil
}

// SetOverrides replaces the document's override map and re-interprets.
func (f *Form) SetOverrides(overrides map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.doc.Overrides, _ = schema.CloneValue(overrides).(map[string]any)
	f.rebuild()
	return nil
}

// SetWarnings replaces the per-field warning messages.
func (f *Form) SetWarnings(warnings map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = copyMessages(warnings)
}

// Value returns the stored value for id.
func (f *Form) Value(id string) (any, bool) {
	return f.store.Get(id)
}

// SetValue writes a value programmatically. Unmounted ids may be written; the
// value is picked up when the field mounts.
func (f *Form) SetValue(id string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	return f.write(id, value)
}

// write stores a value, revalidates after a submit attempt and drains
// visibility changes. Callers hold f.mu.
func (f *Form) write(id string, value any) error {
	if owners := f.mounted[id]; len(owners) > 0 && !owners[0].holdsValue() {
		return fmt.Errorf("engine: field %q holds no value", id)
	}
	f.store.Set(id, value)
	delete(f.fieldErrors, id)
	if f.submitted {
		f.validate(id)
	}
	f.flush()
	return nil
}

// Values returns the values of every registered field.
func (f *Form) Values() map[string]any {
	return f.store.ActiveValues()
}

// Snapshot returns every stored value, registered or not. It is the state a
// draft needs to resume the form later.
func (f *Form) Snapshot() map[string]any {
	return f.store.Values()
}

// ActiveIDs returns the registered field ids in sorted order.
func (f *Form) ActiveIDs() []string {
	return f.store.ActiveIDs()
}

// Reset restores every registered field to its declared default, or clears it
// when none is declared, and forgets submit state.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	for _, id := range f.store.ActiveIDs() {
		if value, ok := f.doc.Default(id); ok {
			f.store.Set(id, value)
		} else {
			f.store.Delete(id)
		}
	}
	f.submitted = false
	f.fieldErrors = make(map[string]string)
	f.validationErrors = make(map[string]string)
	f.flush()
	return nil
}

// Close tears down the form. Watchers are cancelled and the store stops
// accepting writes; values are left as they are.
func (f *Form) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	var teardown func(inst *instance)
	teardown = func(inst *instance) {
		for _, child := range inst.children {
			teardown(child)
		}
		inst.stopWatching()
		inst.alive = false
	}
	teardown(f.root)
	f.store.Close()
	return nil
}

func copyMessages(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	maps.Copy(out, in)
	return out
}

func sortedIDs(m map[string][]*instance) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
