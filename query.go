package swapchain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iov-one/swapchain/errors"
)

// Query modifiers follow the path after a "?". A key query returns the
// record stored under the exact key, a prefix query every record whose key
// starts with the data.
const (
	KeyQueryMod    = ""
	PrefixQueryMod = "prefix"
)

// Model is a key with its value, as returned by a query.
type Model struct {
	Key   []byte
	Value []byte
}

func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}

// QueryHandler serves the queries of one path, like "/escrows" or
// "/escrows/maker".
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRegister is provided by every extension that exposes state.
type QueryRegister func(QueryRouter)

// QueryRouter maps query paths to their handlers.
type QueryRouter struct {
	routes map[string]QueryHandler
}

func NewQueryRouter() QueryRouter {
	return QueryRouter{
		routes: make(map[string]QueryHandler, 10),
	}
}

func (r QueryRouter) RegisterAll(qr ...QueryRegister) {
	for _, q := range qr {
		q(r)
	}
}

// Register panics on a path that is not absolute, carries a modifier or was
// already taken.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if !strings.HasPrefix(path, "/") || strings.Contains(path, "?") {
		panic(fmt.Sprintf("invalid query path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("query path already registered: %s", path))
	}
	r.routes[path] = h
}

// Handler returns nil for an unknown path.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}

// Route resolves a request path such as "/escrows?prefix" into its handler
// and modifier.
func (r QueryRouter) Route(reqPath string) (QueryHandler, string, error) {
	path, mod := splitQueryPath(reqPath)
	h, ok := r.routes[path]
	if !ok {
		return nil, "", errors.Wrapf(errors.ErrNotFound,
			"unknown query path %q, want one of %s", path, strings.Join(r.Paths(), ", "))
	}
	switch mod {
	case KeyQueryMod, PrefixQueryMod:
		return h, mod, nil
	default:
		return nil, "", errors.Wrapf(errors.ErrInvalidInput, "unknown query modifier %q", mod)
	}
}

// Paths lists the registered paths in order.
func (r QueryRouter) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func splitQueryPath(path string) (string, string) {
	chunks := strings.SplitN(path, "?", 2)
	if len(chunks) == 2 {
		return chunks[0], chunks[1]
	}
	return path, KeyQueryMod
}
