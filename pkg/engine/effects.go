package engine

import (
	"reflect"
	"slices"

	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// effects collects the side effects of one interpretation pass. They are
// applied together so every unmount (and its restore) runs before any
// reconciliation or mount of the same pass.
type effects struct {
	touched    []*instance
	seen       map[*instance]struct{}
	reconciles []*instance
}

func newEffects() *effects {
	return &effects{seen: make(map[*instance]struct{})}
}

func (fx *effects) touch(inst *instance) {
	if _, ok := fx.seen[inst]; ok {
		return
	}
	fx.seen[inst] = struct{}{}
	fx.touched = append(fx.touched, inst)
}

func (fx *effects) reconcile(inst *instance) {
	fx.reconciles = append(fx.reconciles, inst)
}

func (f *Form) apply(fx *effects) {
	for _, inst := range fx.touched {
		if inst.applied && !inst.mounted {
			f.unmount(inst)
		}
	}
	for _, inst := range fx.reconciles {
		if inst.applied && inst.mounted && inst.alive {
			f.reconcile(inst)
		}
	}
	for _, inst := range fx.touched {
		if !inst.applied && inst.mounted && inst.alive {
			f.mount(inst)
		}
	}
}

func (f *Form) mount(inst *instance) {
	inst.applied = true
	inst.generation++
	f.logger.Debug("engine: mount", zap.String("node", describe(inst)))
	if !inst.isField() {
		return
	}

	owners := f.mounted[inst.id]
	f.mounted[inst.id] = append(owners, inst)
	if len(owners) > 0 || !inst.holdsValue() {
		return
	}
	f.store.RegisterActive(inst.id)
	if value, ok := f.store.Get(inst.id); ok && value != nil {
		return
	}
	if value, ok := f.doc.Default(inst.id); ok {
		f.store.Set(inst.id, value)
	}
}

func (f *Form) unmount(inst *instance) {
	inst.applied = false
	inst.generation++
	f.logger.Debug("engine: unmount", zap.String("node", describe(inst)))
	if !inst.isField() {
		return
	}

	owners := slices.DeleteFunc(f.mounted[inst.id], func(owner *instance) bool { return owner == inst })
	if len(owners) > 0 {
		f.mounted[inst.id] = owners
		return
	}
	delete(f.mounted, inst.id)
	delete(f.fieldErrors, inst.id)
	delete(f.validationErrors, inst.id)
	if !inst.holdsValue() {
		return
	}
	f.restore(inst.id)
	f.store.UnregisterActive(inst.id)
}

// restore applies the document's restore mode to an unmounting field.
func (f *Form) restore(id string) {
	switch f.doc.RestoreMode {
	case schema.RestoreUserInput:
		return
	case schema.RestoreDefault:
		if value, ok := f.doc.Default(id); ok {
			f.store.Set(id, value)
			return
		}
		f.store.Delete(id)
	default:
		value, ok := f.store.Get(id)
		if !ok || value == nil {
			return
		}
		f.store.Set(id, emptyLike(value))
	}
}

// reconcile lets the field's descriptor sanitise a retained value after its
// schema changed, e.g. dropping a selection whose option was removed.
func (f *Form) reconcile(inst *instance) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("engine: reconcile failed",
				zap.String("id", inst.id),
				zap.Any("panic", r),
			)
		}
	}()
	value, ok := f.store.Get(inst.id)
	if !ok || value == nil {
		return
	}
	next, changed := inst.resolution.Descriptor.Reconcile(inst.node, value)
	if !changed {
		return
	}
	f.logger.Debug("engine: reconciled value",
		zap.String("id", inst.id),
		zap.Any("from", value),
		zap.Any("to", next),
	)
	f.store.Set(inst.id, next)
}

// markStale queues an instance whose dependencies changed. It runs inside
// store watchers and must not take the form lock.
func (f *Form) markStale(inst *instance) {
	f.staleMu.Lock()
	defer f.staleMu.Unlock()
	f.stale[inst] = struct{}{}
}

func (f *Form) takeStale() []*instance {
	f.staleMu.Lock()
	defer f.staleMu.Unlock()
	if len(f.stale) == 0 {
		return nil
	}
	out := make([]*instance, 0, len(f.stale))
	for inst := range f.stale {
		out = append(out, inst)
	}
	f.stale = make(map[*instance]struct{})
	slices.SortFunc(out, func(a, b *instance) int { return comparePaths(a.path, b.path) })
	return out
}

// flush drains re-evaluations caused by value changes, including cascades
// where a restore changes another rule's dependency.
func (f *Form) flush() {
	for pass := 0; pass < f.maxPasses; pass++ {
		stale := f.takeStale()
		if len(stale) == 0 {
			return
		}
		fx := newEffects()
		for _, inst := range stale {
			f.reevaluate(inst, fx)
		}
		f.apply(fx)
	}
	if leftover := f.takeStale(); len(leftover) > 0 {
		ids := make([]string, 0, len(leftover))
		for _, inst := range leftover {
			ids = append(ids, inst.id)
		}
		f.logger.Warn("engine: visibility rules oscillate, giving up",
			zap.Int("passes", f.maxPasses),
			zap.Strings("ids", ids),
		)
	}
}

// emptyLike returns the empty equivalent of a value's type: "" for strings,
// an empty list for lists, false for booleans, a map of emptied members for
// composite values and nil otherwise.
func emptyLike(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string:
		return ""
	case bool:
		return false
	case []any:
		return []any{}
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, member := range typed {
			out[key] = emptyLike(member)
		}
		return out
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return []any{}
	case reflect.String:
		return ""
	default:
		return nil
	}
}
