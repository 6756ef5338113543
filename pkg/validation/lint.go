package validation

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Severity grades lint issues.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue represents a schema problem with location metadata.
type Issue struct {
	Path     string   `json:"path,omitempty"`
	Field    string   `json:"field,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Result captures lint outcomes. Valid is false when any error-level issue
// was found; warnings alone keep the document valid.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Lint inspects a form document for problems the engine tolerates at runtime
// (placeholders, skipped holes, ignored rules) so authors can fix them early.
func Lint(doc schema.Document, reg *registry.Registry) Result {
	if reg == nil {
		reg = registry.Default()
	}
	l := &linter{reg: reg, fields: make(map[string]string), ids: make(map[string]struct{})}
	l.children("sections", doc.Sections)

	for _, id := range sortedKeys(doc.DefaultValues) {
		if _, ok := l.fields[id]; !ok {
			l.add(Issue{Path: "defaultValues/" + id, Field: id, Severity: SeverityWarning, Message: "default value for unknown field"})
		}
	}
	for _, id := range sortedKeys(doc.Overrides) {
		if _, ok := l.ids[id]; !ok {
			l.add(Issue{Path: "overrides/" + id, Field: id, Severity: SeverityWarning, Message: "override targets unknown node"})
		}
	}

	result := Result{Valid: true, Issues: l.issues}
	for _, issue := range l.issues {
		if issue.Severity == SeverityError {
			result.Valid = false
			break
		}
	}
	return result
}

type linter struct {
	reg    *registry.Registry
	fields map[string]string
	ids    map[string]struct{}
	issues []Issue
}

func (l *linter) add(issue Issue) {
	l.issues = append(l.issues, issue)
}

func (l *linter) children(path string, children schema.Children) {
	switch children.Kind {
	case schema.ChildrenText, schema.ChildrenNone:
		return
	case schema.ChildrenInvalid:
		l.add(Issue{Path: path, Severity: SeverityError, Message: "children must be an object, array or text"})
		return
	}
	for _, entry := range children.Entries {
		entryPath := path + "/" + escape(entry.ID)
		l.ids[entry.ID] = struct{}{}
		if entry.Node == nil {
			l.add(Issue{Path: entryPath, Field: entry.ID, Severity: SeverityWarning, Message: "empty or non-object child is skipped"})
			continue
		}
		l.node(entryPath, entry.ID, entry.Node)
	}
}

func (l *linter) node(path, id string, node *schema.Node) {
	resolution := l.reg.Resolve(node)
	switch {
	case resolution.Capability == registry.CapabilityUnsupported && resolution.Silent:
		l.add(Issue{Path: path, Field: id, Severity: SeverityWarning, Message: "referenceKey " + strings.ToLower(resolution.Tag) + " is not registered and renders nothing"})
	case resolution.Capability == registry.CapabilityUnsupported && resolution.Tag == "":
		l.add(Issue{Path: path, Field: id, Severity: SeverityError, Message: "node has neither uiType nor referenceKey"})
	case resolution.Capability == registry.CapabilityUnsupported:
		l.add(Issue{Path: path, Field: id, Severity: SeverityError, Message: "unsupported uiType " + strings.ToLower(resolution.Tag)})
	case resolution.Capability == registry.CapabilityField && !resolution.Descriptor.ValueLess:
		if previous, dup := l.fields[id]; dup {
			l.add(Issue{Path: path, Field: id, Severity: SeverityError, Message: "duplicate field id, first declared at " + previous})
		} else {
			l.fields[id] = path
		}
	}

	if node.HasShowIf() {
		rule, err := visibility.ParseRule(node.ShowIf)
		if err != nil {
			l.add(Issue{Path: path + "/showIf", Field: id, Severity: SeverityError, Message: strings.TrimPrefix(err.Error(), "visibility: ")})
		} else {
			for _, predicate := range rule {
				for _, ref := range sortedKeys(predicate) {
					for _, condition := range predicate[ref] {
						l.operators(path+"/showIf/"+escape(ref), id, condition)
					}
				}
			}
		}
	}

	rules, err := Rules(node)
	if err != nil {
		l.add(Issue{Path: path + "/" + AttrValidation, Field: id, Severity: SeverityError, Message: strings.TrimPrefix(err.Error(), "validation: ")})
	} else {
		for _, rule := range rules {
			l.operators(path+"/"+AttrValidation, id, rule)
		}
	}

	if resolution.Capability == registry.CapabilityElement && resolution.Descriptor.Container {
		l.children(path+"/children", node.Children)
	}
}

func (l *linter) operators(path, id string, condition visibility.Condition) {
	for _, key := range sortedKeys(condition) {
		if key == keyErrorMessage || leafKey(key) || visibility.IsOperator(key) {
			continue
		}
		l.add(Issue{Path: path, Field: id, Severity: SeverityWarning, Message: "unknown operator " + key + " is ignored"})
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// escape applies JSON Pointer escaping to a path segment.
func escape(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	return strings.ReplaceAll(segment, "/", "~1")
}
