package registry

import (
	"strings"
	"sync"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry holding every built-in tag plus the
// bundled custom extensions. Callers that register their own tags should
// Clone it first.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// NewDefault returns a private copy of Default.
func NewDefault() *Registry {
	return Default().Clone()
}

func registerBuiltins(r *Registry) {
	for _, tag := range []string{
		"TEXT-FIELD", "EMAIL-FIELD", "NUMERIC-FIELD", "TEXTAREA", "CONTACT-FIELD",
		"DATE-FIELD", "DATE-RANGE-FIELD", "TIME-FIELD", "UNIT-NUMBER-FIELD",
		"SWITCH", "LOCATION-FIELD", "HISTOGRAM-SLIDER", "SELECT-HISTOGRAM",
		"E-SIGNATURE-FIELD",
	} {
		r.MustRegister(ClassBuiltinField, tag, Descriptor{})
	}
	for _, tag := range []string{"FILE-UPLOAD", "IMAGE-UPLOAD"} {
		r.MustRegister(ClassBuiltinField, tag, Descriptor{})
	}
	for _, tag := range []string{"SELECT", "RADIO"} {
		r.MustRegister(ClassBuiltinField, tag, Descriptor{Reconcile: ReconcileSingleOption})
	}
	for _, tag := range []string{"MULTI-SELECT", "CHECKBOX", "CHIPS"} {
		r.MustRegister(ClassBuiltinField, tag, Descriptor{Reconcile: ReconcileMultiOption})
	}
	r.MustRegister(ClassBuiltinField, "RANGE-SELECT", Descriptor{Reconcile: ReconcileRangeOption})
	r.MustRegister(ClassBuiltinField, "SUBMIT", Descriptor{Component: "Submit", ValueLess: true})
	r.MustRegister(ClassBuiltinField, "RESET", Descriptor{Component: "Reset", ValueLess: true})

	for _, tag := range []string{
		"SECTION", "ACCORDION", "ALERT", "GRID", "POPOVER", "TAB", "TAB-ITEM",
		"ORDERED-LIST", "UNORDERED-LIST", "LIST-ITEM",
		"TEXT-D1", "TEXT-D2", "TEXT-H1", "TEXT-H2", "TEXT-H3", "TEXT-H4",
		"TEXT-H5", "TEXT-H6", "TEXT-BODY", "TEXT-BODYSMALL", "TEXT-XSMALL",
	} {
		r.MustRegister(ClassBuiltinElement, tag, Descriptor{Container: true})
	}
	for _, tag := range []string{"DIVIDER", "IMAGE"} {
		r.MustRegister(ClassBuiltinElement, tag, Descriptor{})
	}
	for _, tag := range []string{
		"DIV", "SPAN", "HEADER", "FOOTER", "P",
		"H1", "H2", "H3", "H4", "H5", "H6", "UL", "OL", "LI",
	} {
		r.MustRegister(ClassBuiltinElement, tag, Descriptor{
			Component: "Wrapper",
			HTMLTag:   strings.ToLower(tag),
			Container: true,
		})
	}

	r.MustRegister(ClassCustomField, "FILTER-ITEM-CHECKBOX", Descriptor{Reconcile: ReconcileMultiOption})
	r.MustRegister(ClassCustomElement, "FILTER", Descriptor{Container: true})
	r.MustRegister(ClassCustomElement, "FILTER-ITEM", Descriptor{Container: true})
}
