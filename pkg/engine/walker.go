package engine

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/overrides"
	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// build interprets the children of a container instance, reusing previous
// child instances by id and recording mount transitions in fx.
func (f *Form) build(parent *instance, fx *effects) {
	children := overrides.Apply(parent.node.Children, f.doc.Overrides)

	previous := make(map[string]*instance, len(parent.children))
	for _, child := range parent.children {
		if child.bare {
			f.retire(child, fx)
			continue
		}
		if duplicate, ok := previous[child.id]; ok {
			f.retire(duplicate, fx)
		}
		previous[child.id] = child
	}

	parent.text, parent.hasText = "", false
	next := make([]*instance, 0, len(children.Entries))

	switch children.Kind {
	case schema.ChildrenText:
		parent.text, parent.hasText = children.Text, true
	case schema.ChildrenNone, schema.ChildrenInvalid:
		next = append(next, f.placeholder(parent, len(next), fx))
	case schema.ChildrenNodes:
		for _, entry := range children.Entries {
			if entry.Node == nil {
				continue
			}
			if child := f.buildChild(parent, previous, entry, len(next), fx); child != nil {
				next = append(next, child)
			}
		}
	}

	for _, child := range parent.children {
		if stale, ok := previous[child.id]; ok && stale == child {
			f.retire(child, fx)
		}
	}
	parent.children = next
}

// buildChild interprets one child entry. A panic anywhere in the child's
// interpretation is contained and replaced by an unsupported placeholder.
func (f *Form) buildChild(parent *instance, previous map[string]*instance, entry schema.Entry, index int, fx *effects) (child *instance) {
	var claimed *instance
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("engine: child interpretation failed",
				zap.String("id", entry.ID),
				zap.Any("panic", r),
			)
			if claimed != nil {
				f.retire(claimed, fx)
			}
			child = f.placeholder(parent, index, fx)
			child.id = entry.ID
		}
	}()

	resolution := f.registry.Resolve(entry.Node)
	if resolution.Silent {
		return nil
	}

	inst, reused := previous[entry.ID]
	if reused && !sameResolution(inst.resolution, resolution) {
		reused = false
	}
	if reused {
		delete(previous, entry.ID)
		claimed = inst
	} else {
		inst = &instance{id: entry.ID, parent: parent, alive: true, resolution: resolution}
		claimed = inst
		if resolution.Capability == registry.CapabilityUnsupported {
			f.logger.Warn("engine: unsupported node rendered as placeholder",
				zap.String("id", entry.ID),
				zap.String("tag", resolution.Tag),
			)
		}
	}

	nodeChanged := reused && !reflect.DeepEqual(inst.node, entry.Node)
	inst.node = entry.Node
	inst.resolution = resolution
	inst.path = childPath(parent.path, index)

	if !reused || !reflect.DeepEqual(inst.rawShowIf, entry.Node.ShowIf) {
		f.watch(inst)
	}

	visible := parent.mounted && f.visible(inst)
	f.transition(inst, visible, fx)
	if visible && nodeChanged && inst.holdsValue() && resolution.Descriptor.Reconcile != nil {
		fx.reconcile(inst)
	}

	if inst.isContainer() {
		f.build(inst, fx)
	}
	return inst
}

// placeholder creates a bare unsupported child for a missing or malformed
// children collection.
func (f *Form) placeholder(parent *instance, index int, fx *effects) *instance {
	inst := &instance{
		parent: parent,
		path:   childPath(parent.path, index),
		bare:   true,
		alive:  true,
	}
	f.transition(inst, parent.mounted, fx)
	return inst
}

// watch (re)parses the instance's showIf and subscribes to its dependencies.
func (f *Form) watch(inst *instance) {
	inst.stopWatching()
	inst.rawShowIf = schema.CloneValue(inst.node.ShowIf)
	inst.rule, inst.ruleErr = nil, nil
	if !inst.node.HasShowIf() {
		return
	}

	rule, err := visibility.ParseRule(inst.node.ShowIf)
	if err != nil {
		inst.ruleErr = err
		f.logger.Warn("engine: invalid showIf hides node",
			zap.String("id", inst.id),
			zap.Error(err),
		)
		return
	}
	inst.rule = rule
	if deps := rule.Dependencies(); len(deps) > 0 {
		inst.cancelWatch = f.store.Watch(deps, func(string, any) {
			f.markStale(inst)
		})
	}
}

// visible evaluates the instance's own rule, ignoring its ancestors.
func (f *Form) visible(inst *instance) (ok bool) {
	if inst.bare {
		return true
	}
	if inst.ruleErr != nil {
		return false
	}
	if len(inst.rule) == 0 {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("engine: showIf evaluation failed",
				zap.String("id", inst.id),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()
	return f.evaluator.Eval(inst.rule, f.values())
}

func (f *Form) transition(inst *instance, visible bool, fx *effects) {
	if inst.mounted == visible {
		return
	}
	inst.mounted = visible
	fx.touch(inst)
}

// retire removes an instance and its subtree from the tree.
func (f *Form) retire(inst *instance, fx *effects) {
	for _, child := range inst.children {
		f.retire(child, fx)
	}
	inst.children = nil
	inst.mounted = false
	fx.touch(inst)
	inst.stopWatching()
	inst.alive = false
}

// reevaluate recomputes an instance's visibility after one of its
// dependencies changed. Containers re-walk their subtree so descendants
// follow the new state.
func (f *Form) reevaluate(inst *instance, fx *effects) {
	if !inst.alive {
		return
	}
	visible := inst.parent.mounted && f.visible(inst)
	if visible == inst.mounted {
		return
	}
	f.transition(inst, visible, fx)
	if inst.isContainer() {
		f.build(inst, fx)
	}
}

func (f *Form) values() visibility.Values {
	return visibility.ValuesFunc(f.store.Get)
}

func describe(inst *instance) string {
	if inst.bare {
		return "placeholder"
	}
	return fmt.Sprintf("%s %q", inst.kind(), inst.id)
}
