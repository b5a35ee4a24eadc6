package meta

// Store is the host-owned metadata capability the resolver reads from. The
// resolver treats it as read-only: concurrent Resolve calls are safe as long
// as nobody mutates the store or the target graph underneath them.
//
// Get performs a single key/target/member lookup. member == "" means a
// type-scoped lookup on target itself; ancestor walking for the store-backed
// path, if any, is the store's own contract. A hit may carry nil options when
// the host recorded the decorator as explicitly cleared.
type Store interface {
	Get(key string, target Target, member string) (*DecoratorOptions, bool)
	ParentOf(target Target) (Target, bool)
	Identity(target Target) string
}
