package engine

import (
	"github.com/goliatone/go-formengine/pkg/validation"
)

// Submission is the outcome of a submit action.
type Submission struct {
	// Values maps every registered field id to its current value.
	Values map[string]any `json:"values"`
	// Errors maps failing field ids to their messages.
	Errors map[string]string `json:"errors,omitempty"`
}

// Submit validates every registered field and snapshots their values. The
// returned error aggregates field failures and wraps validation.ErrInvalid.
func (f *Form) Submit() (Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return Submission{}, ErrClosed
	}
	f.flush()

	f.submitted = true
	f.validationErrors = make(map[string]string)
	for _, id := range sortedIDs(f.mounted) {
		f.validate(id)
	}

	errs := make(map[string]string)
	for _, id := range sortedIDs(f.mounted) {
		if message := f.errorFor(id); message != "" {
			errs[id] = message
		}
	}
	submission := Submission{Values: f.store.ActiveValues()}
	if len(errs) > 0 {
		submission.Errors = errs
	}
	return submission, validation.Join(errs)
}

// Validate reports the current validation message for every registered field
// without marking the form as submitted.
func (f *Form) Validate() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for _, id := range sortedIDs(f.mounted) {
		inst := f.mounted[id][0]
		if !inst.holdsValue() {
			continue
		}
		value, _ := f.store.Get(id)
		if message, ok := validation.Validate(inst.node, value, f.values()); !ok {
			out[id] = message
		}
	}
	return out
}

// validate refreshes the validation error of one mounted field. Callers hold
// f.mu.
func (f *Form) validate(id string) {
	inst, ok := f.owner(id)
	if !ok || !inst.holdsValue() {
		return
	}
	value, _ := f.store.Get(id)
	if message, ok := validation.Validate(inst.node, value, f.values()); !ok {
		f.validationErrors[id] = message
		return
	}
	delete(f.validationErrors, id)
}
