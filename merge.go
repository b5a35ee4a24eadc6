package meta

// MergeDecoratorOptions composes two decorator records, stronger first:
// explicit settings on strong win, missing data is filled from weak, and
// attrs merge key by key. Both inputs stay untouched. Combined with
// ResolveAll this lets callers fold per-group hits into one effective profile
// instead of taking the first hit.
func MergeDecoratorOptions(strong, weak *DecoratorOptions) *DecoratorOptions {
	if strong == nil {
		return weak.Clone()
	}
	if weak == nil {
		return strong.Clone()
	}

	out := strong.Clone()
	if out.Enabled == nil && weak.Enabled != nil {
		enabled := *weak.Enabled
		out.Enabled = &enabled
	}
	if len(weak.Attrs) > 0 {
		if out.Attrs == nil {
			out.Attrs = make(map[string]any, len(weak.Attrs))
		}
		for key, value := range weak.Attrs {
			if _, ok := out.Attrs[key]; !ok {
				out.Attrs[key] = value
			}
		}
	}
	return out
}

// MergeResolutions folds gated per-group resolutions (strongest first, as
// returned by ResolveAll) into a single record. Only found resolutions
// contribute; the result is nil when none were found.
func MergeResolutions(resolutions []Resolution) *DecoratorOptions {
	var merged *DecoratorOptions
	for _, resolution := range resolutions {
		if !resolution.Found() {
			continue
		}
		merged = MergeDecoratorOptions(merged, resolution.Options)
	}
	return merged
}
