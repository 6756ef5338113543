package schema

// Merge returns a copy of the node with override deep-merged into it. The
// receiver is never modified. Scalars and arrays from the override replace
// the node's values; nested maps merge key by key; keyed children merge by
// child id with unknown ids appended in key order.
func (n *Node) Merge(override map[string]any) *Node {
	if n == nil {
		return NodeFromMap(override)
	}
	out := n.Clone()
	if len(override) == 0 {
		return out
	}

	for _, key := range sortedKeys(override) {
		value := override[key]
		switch key {
		case KeyUIType:
			if text, ok := value.(string); ok {
				out.UIType = text
			}
		case KeyReferenceKey:
			if text, ok := value.(string); ok {
				out.ReferenceKey = text
			}
		case KeyShowIf:
			out.ShowIf = CloneValue(value)
		case KeyChildren:
			out.Children = mergeChildren(out.Children, value)
		default:
			if out.Attributes == nil {
				out.Attributes = make(map[string]any)
			}
			out.Attributes[key] = mergeValue(out.Attributes[key], value)
		}
	}
	return out
}

func mergeChildren(base Children, override any) Children {
	switch typed := override.(type) {
	case map[string]any:
		if base.Kind != ChildrenNodes {
			return childrenFromValue(typed)
		}
		merged := base.Clone()
		seen := make(map[string]struct{}, len(merged.Entries))
		for i, entry := range merged.Entries {
			seen[entry.ID] = struct{}{}
			patch, ok := typed[entry.ID].(map[string]any)
			if !ok {
				continue
			}
			if entry.Node == nil {
				merged.Entries[i].Node = NodeFromMap(patch)
				continue
			}
			merged.Entries[i].Node = entry.Node.Merge(patch)
		}
		for _, id := range sortedKeys(typed) {
			if _, exists := seen[id]; exists {
				continue
			}
			merged.Entries = append(merged.Entries, Entry{ID: id, Node: nodeFromValue(typed[id])})
		}
		return merged
	case nil:
		return base
	default:
		return childrenFromValue(CloneValue(typed))
	}
}

func mergeValue(base, override any) any {
	baseMap, baseOK := base.(map[string]any)
	overrideMap, overrideOK := override.(map[string]any)
	if !baseOK || !overrideOK {
		return CloneValue(override)
	}
	out := cloneMap(baseMap)
	if out == nil {
		out = make(map[string]any, len(overrideMap))
	}
	for key, value := range overrideMap {
		out[key] = mergeValue(out[key], value)
	}
	return out
}

// MergeMaps deep-merges override into a copy of base.
func MergeMaps(base, override map[string]any) map[string]any {
	merged, _ := mergeValue(base, override).(map[string]any)
	if merged == nil && base != nil {
		return cloneMap(base)
	}
	return merged
}
