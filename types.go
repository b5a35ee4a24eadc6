package meta

// Target is an opaque handle to a class or type in the host's object model.
// The resolver never inspects it beyond passing it to the Store and using it
// as a map key, so hosts should supply comparable values (pointers, names,
// reflect.Type, ...).
type Target = any

// DecoratorOptions is the configuration record a decorator attaches to a
// class, property, or accessor. Beyond Enabled the contents are opaque to the
// resolver. Enabled is a tri-state: nil means the decorator never declared it.
type DecoratorOptions struct {
	Enabled *bool          `json:"enabled,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Enable returns options with Enabled explicitly set, keeping call sites free
// of &bool plumbing.
func (o DecoratorOptions) Enable(enabled bool) *DecoratorOptions {
	out := o.Clone()
	out.Enabled = &enabled
	return out
}

// IsEnabled reports whether the options carry an explicit Enabled = true.
func (o *DecoratorOptions) IsEnabled() bool {
	return o != nil && o.Enabled != nil && *o.Enabled
}

// Clone returns a detached copy so gate overrides never mutate stored
// options.
func (o *DecoratorOptions) Clone() *DecoratorOptions {
	if o == nil {
		return nil
	}
	out := &DecoratorOptions{Attrs: copyAttrs(o.Attrs)}
	if o.Enabled != nil {
		enabled := *o.Enabled
		out.Enabled = &enabled
	}
	return out
}

// Decorators maps concrete keys to decorator options for a single target. A
// key present with a nil value marks the decorator as explicitly cleared,
// which is distinct from the key being absent.
type Decorators map[string]*DecoratorOptions

func (d Decorators) clone() Decorators {
	if len(d) == 0 {
		return nil
	}
	out := make(Decorators, len(d))
	for key, options := range d {
		out[key] = options.Clone()
	}
	return out
}

// ResolutionState tags the outcome of a resolution call.
type ResolutionState int

const (
	// ResolutionMissing means no decorator was registered for any candidate
	// key along the inheritance chain.
	ResolutionMissing ResolutionState = iota
	// ResolutionFiltered means a decorator was located but withheld: the
	// enable/disable gate turned it off, it never declared Enabled, or it was
	// explicitly cleared.
	ResolutionFiltered
	// ResolutionFound means the decorator options are visible to the caller.
	ResolutionFound
)

func (s ResolutionState) String() string {
	switch s {
	case ResolutionFound:
		return "found"
	case ResolutionFiltered:
		return "filtered"
	default:
		return "missing"
	}
}

// Resolution is the tagged result of Resolve. Options is non-nil only when
// State is ResolutionFound; Key and Group identify the concrete key that
// matched.
type Resolution struct {
	State   ResolutionState
	Options *DecoratorOptions
	Key     string
	Group   string
}

// Found reports whether decorator options are available on the resolution.
func (r Resolution) Found() bool {
	return r.State == ResolutionFound
}

func copyAttrs(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
