package store

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Watcher receives the id and new value of a changed field. Watchers run
// synchronously on the goroutine that performed the write, after the store
// lock has been released.
type Watcher func(id string, value any)

// Store is scoped to one form instance. The zero value is not usable; call New.
type Store struct {
	mu        sync.Mutex
	values    map[string]any
	active    map[string]struct{}
	watchers  map[string]map[uint64]Watcher
	nextWatch uint64
	closed    bool
	logger    *zap.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithLogger attaches a logger for debug tracing of writes.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithValues seeds the store with initial values. Seeded ids are not
// registered; registration follows mounting.
func WithValues(values map[string]any) Option {
	return func(s *Store) {
		for id, value := range values {
			s.values[id] = deepCopy(value)
		}
	}
}

// New constructs an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		values:   make(map[string]any),
		active:   make(map[string]struct{}),
		watchers: make(map[string]map[uint64]Watcher),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns a copy of the value stored under id. Ids that are not stored
// directly are resolved as dotted paths into composite values
// ("range.from", "files.0").
func (s *Store) Get(id string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.values[id]; ok {
		return deepCopy(value), true
	}
	if !strings.Contains(id, ".") {
		return nil, false
	}
	value, ok := getPath(s.values, id)
	if !ok {
		return nil, false
	}
	return deepCopy(value), true
}

// Has reports whether a value is stored under id.
func (s *Store) Has(id string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[id]
	return ok
}

// Set writes value under id and notifies watchers when the stored value
// changed. It reports whether a change happened.
func (s *Store) Set(id string, value any) bool {
	if s == nil || id == "" {
		return false
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	previous, existed := s.values[id]
	if existed && reflect.DeepEqual(previous, value) {
		s.mu.Unlock()
		return false
	}
	s.values[id] = deepCopy(value)
	notify := s.watchersFor(id)
	s.mu.Unlock()

	s.logger.Debug("store: set", zap.String("id", id), zap.Any("value", value))
	dispatch(notify, id, value)
	return true
}

// Delete removes the value stored under id, notifying watchers with nil.
func (s *Store) Delete(id string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.values[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.values, id)
	notify := s.watchersFor(id)
	s.mu.Unlock()

	s.logger.Debug("store: delete", zap.String("id", id))
	dispatch(notify, id, nil)
	return true
}

// RegisterActive marks id as a mounted field.
func (s *Store) RegisterActive(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[id] = struct{}{}
}

// UnregisterActive removes id from the mounted set.
func (s *Store) UnregisterActive(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// IsActive reports whether id is currently mounted.
func (s *Store) IsActive(id string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// ActiveIDs returns the mounted ids in sorted order.
func (s *Store) ActiveIDs() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Values returns a deep copy of every stored value, mounted or not.
func (s *Store) Values() map[string]any {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.values))
	for id, value := range s.values {
		out[id] = deepCopy(value)
	}
	return out
}

// ActiveValues returns a deep copy of the values of mounted ids. Mounted ids
// without a stored value map to nil.
func (s *Store) ActiveValues() map[string]any {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.active))
	for id := range s.active {
		out[id] = deepCopy(s.values[id])
	}
	return out
}

// Watch subscribes fn to writes of any of ids. The returned function cancels
// the subscription and is safe to call more than once.
func (s *Store) Watch(ids []string, fn Watcher) (cancel func()) {
	if s == nil || fn == nil || len(ids) == 0 {
		return func() {}
	}
	s.mu.Lock()
	s.nextWatch++
	token := s.nextWatch
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
		if s.watchers[id] == nil {
			s.watchers[id] = make(map[uint64]Watcher)
		}
		s.watchers[id][token] = fn
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, id := range unique {
				delete(s.watchers[id], token)
				if len(s.watchers[id]) == 0 {
					delete(s.watchers, id)
				}
			}
		})
	}
}

// Close drops all watchers and rejects further writes.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.watchers = make(map[string]map[uint64]Watcher)
	s.active = make(map[string]struct{})
}

// watchersFor collects watchers of id and of any dotted parent/child id so
// rules on "range.from" observe writes to "range". Callers hold s.mu.
func (s *Store) watchersFor(id string) []Watcher {
	if len(s.watchers) == 0 {
		return nil
	}
	var tokens []uint64
	byToken := make(map[uint64]Watcher)
	for watched, subs := range s.watchers {
		if watched != id && !strings.HasPrefix(watched, id+".") && !strings.HasPrefix(id, watched+".") {
			continue
		}
		for token, fn := range subs {
			if _, seen := byToken[token]; seen {
				continue
			}
			byToken[token] = fn
			tokens = append(tokens, token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	out := make([]Watcher, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, byToken[token])
	}
	return out
}

func dispatch(watchers []Watcher, id string, value any) {
	for _, fn := range watchers {
		fn(id, deepCopy(value))
	}
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

func getPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	current := any(root)
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}
