package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm     ChromeClass = "formengine-form"
	ClassHeader   ChromeClass = "formengine-header"
	ClassSection  ChromeClass = "formengine-section"
	ClassFieldset ChromeClass = "formengine-fieldset"
	ClassActions  ChromeClass = "formengine-actions"
	ClassErrors   ChromeClass = "formengine-errors"
	ClassGrid     ChromeClass = "formengine-grid"
)

// ChromeClasses lets callers replace the default chrome classes. Empty
// entries keep the defaults.
type ChromeClasses struct {
	Form     string
	Header   string
	Section  string
	Fieldset string
	Actions  string
	Errors   string
	Grid     string
}

func (c ChromeClasses) resolve() map[string]any {
	pick := func(override string, fallback ChromeClass) string {
		if cleaned := sanitizeClassList(override); cleaned != "" {
			return cleaned
		}
		return string(fallback)
	}
	return map[string]any{
		"form":     pick(c.Form, ClassForm),
		"header":   pick(c.Header, ClassHeader),
		"section":  pick(c.Section, ClassSection),
		"fieldset": pick(c.Fieldset, ClassFieldset),
		"actions":  pick(c.Actions, ClassActions),
		"errors":   pick(c.Errors, ClassErrors),
		"grid":     pick(c.Grid, ClassGrid),
	}
}
