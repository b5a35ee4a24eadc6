// Package registry provides a mutex-guarded, in-memory implementation of the
// meta.Store capability for hosts that do not expose a native
// annotation/attribute side table, and for tests that need a controllable
// store.
//
// Responsibilities:
//   - Registry persists key -> options entries per target, type-scoped and
//     member-scoped, plus the parent relation and identity the resolver walks.
//   - The core meta package stays store-agnostic; any host registry that
//     satisfies meta.Store can replace this one.
//
// Data flow:
//
//	Register/RegisterMember/SetParent -> Registry -> meta.NewResolver(registry)
package registry
