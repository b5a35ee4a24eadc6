package meta

import (
	"regexp"
	"strings"
)

// KeyNamespace is the leading segment of every concrete metadata key. It keeps
// decorator metadata from colliding with other reflect-style side tables the
// host may populate.
const KeyNamespace = "jackson"

// DefaultContextGroup names the fallback configuration profile. It always
// participates in resolution, tried after any caller-declared groups.
const DefaultContextGroup = "default"

// contextGroupPattern constrains explicitly supplied context group names to
// word characters so group boundaries inside concrete keys stay unambiguous.
var contextGroupPattern = regexp.MustCompile(`^[\w]+$`)

// KeyOption configures key construction.
type KeyOption func(*keyConfig)

type keyConfig struct {
	group    string
	groupSet bool
	groups   []string
	prefix   string
	suffix   string
}

// WithContextGroup builds the key against the named configuration profile
// instead of DefaultContextGroup. The name is validated on use.
func WithContextGroup(group string) KeyOption {
	return func(cfg *keyConfig) {
		cfg.group = group
		cfg.groupSet = true
	}
}

// WithContextGroups sets the ordered profiles BuildKeys expands over. It is
// ignored by BuildKey.
func WithContextGroups(groups ...string) KeyOption {
	return func(cfg *keyConfig) {
		cfg.groups = append([]string(nil), groups...)
	}
}

// WithKeyPrefix inserts a qualifier segment between the context group and the
// logical key.
func WithKeyPrefix(prefix string) KeyOption {
	return func(cfg *keyConfig) {
		cfg.prefix = prefix
	}
}

// WithKeySuffix appends a qualifier segment after the logical key.
func WithKeySuffix(suffix string) KeyOption {
	return func(cfg *keyConfig) {
		cfg.suffix = suffix
	}
}

func applyKeyOptions(opts []KeyOption) keyConfig {
	cfg := keyConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// BuildKey constructs the concrete, namespaced form of logicalKey:
//
//	jackson:<group>:[<prefix>:]<logicalKey>[:<suffix>]
//
// The group defaults to DefaultContextGroup. An explicitly supplied group must
// match ^[\w]+$; otherwise BuildKey returns a *ValidationError before any
// formatting happens. The function is pure: identical inputs yield identical
// output.
func BuildKey(logicalKey string, opts ...KeyOption) (string, error) {
	cfg := applyKeyOptions(opts)
	return buildKey(logicalKey, cfg)
}

// BuildKeys expands logicalKey into one concrete key per context group
// declared via WithContextGroups, preserving order. Without groups it returns
// exactly one key built against DefaultContextGroup. A validation failure on
// any group fails the whole call; no partial results are returned.
func BuildKeys(logicalKey string, opts ...KeyOption) ([]string, error) {
	cfg := applyKeyOptions(opts)
	if len(cfg.groups) == 0 {
		single := cfg
		single.group = ""
		single.groupSet = false
		key, err := buildKey(logicalKey, single)
		if err != nil {
			return nil, err
		}
		return []string{key}, nil
	}

	keys := make([]string, 0, len(cfg.groups))
	for _, group := range cfg.groups {
		each := cfg
		each.group = group
		each.groupSet = true
		key, err := buildKey(logicalKey, each)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// IsConcreteKey reports whether key is already fully namespaced, meaning key
// expansion can be skipped during resolution.
func IsConcreteKey(key string) bool {
	return strings.HasPrefix(key, KeyNamespace+":")
}

func buildKey(logicalKey string, cfg keyConfig) (string, error) {
	group := DefaultContextGroup
	if cfg.groupSet {
		if !contextGroupPattern.MatchString(cfg.group) {
			return "", invalidContextGroup(cfg.group)
		}
		group = cfg.group
	}

	var b strings.Builder
	b.Grow(len(KeyNamespace) + len(group) + len(cfg.prefix) + len(logicalKey) + len(cfg.suffix) + 4)
	b.WriteString(KeyNamespace)
	b.WriteByte(':')
	b.WriteString(group)
	b.WriteByte(':')
	if cfg.prefix != "" {
		b.WriteString(cfg.prefix)
		b.WriteByte(':')
	}
	b.WriteString(logicalKey)
	if cfg.suffix != "" {
		b.WriteByte(':')
		b.WriteString(cfg.suffix)
	}
	return b.String(), nil
}
