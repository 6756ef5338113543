// Package validation checks field values against the rules declared in a
// node's validation attribute and lints whole form documents.
package validation
