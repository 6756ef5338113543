// Package engine interprets a form document into a live render tree.
//
// A Form walks the document's sections, resolves every child through the type
// registry, and gates each one behind a conditional instance whose showIf rule
// is evaluated against the form's value store. Instances watch only the field
// ids their rule depends on, so a value change re-evaluates exactly the
// conditionals that read it. Mount and unmount transitions register fields,
// seed them from declared defaults, and apply the document's restore policy.
//
// Every schema or value change is applied in one ordered batch: unmounts (with
// their restores) first, then option reconciliation of retained fields, then
// mounts. Cascades caused by restores are drained before a public call
// returns.
package engine
