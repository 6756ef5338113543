package engine

import "github.com/goliatone/go-formengine/pkg/schema"

// ChangeEvent is the payload leaf widgets hand to OnChange.
type ChangeEvent struct {
	Target ChangeTarget
}

// ChangeTarget carries the new value of a change event.
type ChangeTarget struct {
	Value any
}

// FieldProps is what a leaf widget receives.
type FieldProps struct {
	ID       string
	Schema   *schema.Node
	Value    any
	OnChange func(ChangeEvent) error
	Error    string
	Warning  string
}

// Binding is a leaf's handle on its store entry. It is tied to one mount of
// the field: once the field unmounts every write through the binding is
// dropped with ErrUnmounted, so late callbacks of asynchronous work cannot
// write stale values.
type Binding struct {
	form       *Form
	inst       *instance
	generation uint64
}

// Bind returns a binding for the mounted field id.
func (f *Form) Bind(id string) (*Binding, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.owner(id)
	if !ok {
		return nil, false
	}
	return f.bind(inst), true
}

func (f *Form) bind(inst *instance) *Binding {
	return &Binding{form: f, inst: inst, generation: inst.generation}
}

// owner returns the instance serving id. Callers hold f.mu.
func (f *Form) owner(id string) (*instance, bool) {
	if f.closed {
		return nil, false
	}
	owners := f.mounted[id]
	if len(owners) == 0 {
		return nil, false
	}
	return owners[0], true
}

// Props returns the leaf props of the mounted field id.
func (f *Form) Props(id string) (FieldProps, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.owner(id)
	if !ok {
		return FieldProps{}, false
	}
	return f.props(inst, f.bind(inst)), true
}

func (f *Form) props(inst *instance, b *Binding) FieldProps {
	props := FieldProps{
		ID:       inst.id,
		Schema:   inst.node.Clone(),
		OnChange: b.OnChange,
		Error:    f.errorFor(inst.id),
		Warning:  f.warnings[inst.id],
	}
	if inst.holdsValue() {
		props.Value, _ = f.store.Get(inst.id)
	}
	return props
}

func (f *Form) errorFor(id string) string {
	if message, ok := f.fieldErrors[id]; ok {
		return message
	}
	return f.validationErrors[id]
}

// ID returns the bound field id.
func (b *Binding) ID() string {
	return b.inst.id
}

// Active reports whether the mount the binding was created for is current.
func (b *Binding) Active() bool {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	return b.current()
}

func (b *Binding) current() bool {
	return b.inst.alive && b.inst.applied && b.inst.generation == b.generation
}

func (b *Binding) check() error {
	if b.form.closed {
		return ErrClosed
	}
	if !b.current() {
		return ErrUnmounted
	}
	return nil
}

// Commit writes value through to the store.
func (b *Binding) Commit(value any) error {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	if err := b.check(); err != nil {
		return err
	}
	return b.form.write(b.inst.id, value)
}

// Update reads the bound value and writes fn's result under one lock. An
// error from fn leaves the store untouched.
func (b *Binding) Update(fn func(current any) (any, error)) error {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	if err := b.check(); err != nil {
		return err
	}
	current, _ := b.form.store.Get(b.inst.id)
	next, err := fn(current)
	if err != nil {
		return err
	}
	return b.form.write(b.inst.id, next)
}

// OnChange implements the leaf write channel.
func (b *Binding) OnChange(event ChangeEvent) error {
	return b.Commit(event.Target.Value)
}

// SetError surfaces a leaf-level failure (e.g. a failed upload) as the
// field's error state. An empty message clears it.
func (b *Binding) SetError(message string) error {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	if err := b.check(); err != nil {
		return err
	}
	if message == "" {
		delete(b.form.fieldErrors, b.inst.id)
		return nil
	}
	b.form.fieldErrors[b.inst.id] = message
	return nil
}

// Props returns the current leaf props for the bound field.
func (b *Binding) Props() (FieldProps, error) {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	if err := b.check(); err != nil {
		return FieldProps{}, err
	}
	return b.form.props(b.inst, b), nil
}
