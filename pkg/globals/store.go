package globals

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type listener struct {
	key      Key
	onChange func()
}

// Store is safe for concurrent use. The zero value is a detached store: it
// has no host, Subscribe is a no-op and Snapshot always returns nil.
type Store struct {
	mu        sync.RWMutex
	attached  bool
	host      Globals
	snapshots map[Key]interface{}
	listeners map[uint64]listener
	nextID    uint64
}

// NewStore attaches a store to a host whose initial globals are host. A nil
// host means the widget is embedded somewhere that injected nothing.
func NewStore(host Globals) *Store {
	return &Store{
		attached:  true,
		host:      cloneGlobals(host),
		snapshots: map[Key]interface{}{},
		listeners: map[uint64]listener{},
	}
}

// Subscribe registers onChange for changes to key and returns a function that
// removes the registration. The returned function may be called repeatedly.
func (s *Store) Subscribe(key Key, onChange func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return func() {}
	}

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener{key: key, onChange: onChange}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Dispatch delivers a set-globals event to every current listener.
func (s *Store) Dispatch(event SetGlobalsEvent) {
	s.mu.RLock()
	current := make([]listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		current = append(current, l)
	}
	s.mu.RUnlock()

	for _, l := range current {
		s.handleSetGlobal(l, event)
	}
}

func (s *Store) handleSetGlobal(l listener, event SetGlobalsEvent) {
	value, ok := event.Globals[l.key]
	if !ok {
		logrus.WithField("key", l.key).Debug("Global not present in event, skipping")
		return
	}

	s.mu.Lock()
	s.snapshots[l.key] = deepClone(value)
	s.mu.Unlock()

	logrus.WithField("key", l.key).Debug("Cached new global snapshot")
	if l.onChange != nil {
		l.onChange()
	}
}

// Snapshot returns the last value cached for key, the host's initial value
// when no event has carried key yet, or nil.
func (s *Store) Snapshot(key Key) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil
	}
	if value, ok := s.snapshots[key]; ok {
		return value
	}
	if s.host == nil {
		return nil
	}
	return s.host[key]
}

// Hosted reports whether a host injected any globals at all.
func (s *Store) Hosted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attached && s.host != nil
}

// Listeners reports how many subscriptions are registered.
func (s *Store) Listeners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *Store) Theme() string {
	theme, _ := s.Snapshot(KeyTheme).(string)
	return theme
}

func (s *Store) DisplayMode() string {
	mode, _ := s.Snapshot(KeyDisplayMode).(string)
	return mode
}

// MaxHeight returns the host's height limit in pixels, if it set one.
func (s *Store) MaxHeight() (float64, bool) {
	switch v := s.Snapshot(KeyMaxHeight).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func (s *Store) ToolOutput() interface{} {
	return s.Snapshot(KeyToolOutput)
}

func cloneGlobals(g Globals) Globals {
	if g == nil {
		return nil
	}
	out := make(Globals, len(g))
	for k, v := range g {
		out[k] = deepClone(v)
	}
	return out
}

func deepClone(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = deepClone(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = deepClone(item)
		}
		return out
	case Globals:
		return cloneGlobals(v)
	case time.Time:
		return time.Unix(0, v.UnixNano()).In(v.Location())
	default:
		return v
	}
}
