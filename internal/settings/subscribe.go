package settings

import (
	"sort"
	"sync"
)

const allSettings Name = ""

// Subscription is the handle returned by Subscribe. Close unregisters the callback.
type Subscription struct {
	store *Store
	name  Name
	id    uint64
	once  sync.Once
}

// Close unregisters the callback. It is safe to call more than once.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.unsubscribe(sub.name, sub.id)
	})
}

// Subscribe registers cb for changes of name, whether set directly or by a rule
func (s *Store) Subscribe(name Name, cb Callback) (*Subscription, error) {
	if _, ok := Lookup(name); !ok {
		return nil, unknown(name)
	}
	return s.subscribe(name, cb), nil
}

// SubscribeAll registers cb for changes of every user-visible setting
func (s *Store) SubscribeAll(cb Callback) *Subscription {
	return s.subscribe(allSettings, cb)
}

func (s *Store) subscribe(name Name, cb Callback) *Subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	if s.subs[name] == nil {
		s.subs[name] = make(map[uint64]Callback)
	}
	s.subs[name][s.nextID] = cb
	return &Subscription{store: s, name: name, id: s.nextID}
}

func (s *Store) unsubscribe(name Name, id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	delete(s.subs[name], id)
	if len(s.subs[name]) == 0 {
		delete(s.subs, name)
	}
}

// callbacks returns the registered callbacks for name in registration order
func (s *Store) callbacks(name Name) []Callback {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ids := make([]uint64, 0, len(s.subs[name])+len(s.subs[allSettings]))
	byID := make(map[uint64]Callback, cap(ids))
	for _, key := range []Name{name, allSettings} {
		for id, cb := range s.subs[key] {
			ids = append(ids, id)
			byID[id] = cb
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Callback, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

// notify runs callbacks outside s.mu so they may read or write the store.
// Internal settings are never reported.
func (s *Store) notify(cause Name, changes []Change) {
	for _, c := range changes {
		if byName[c.Name].Internal {
			continue
		}
		c.Old, c.New = cloneValue(c.Old), cloneValue(c.New)
		for _, cb := range s.callbacks(c.Name) {
			cb(c)
		}
	}
	if len(changes) > 0 {
		s.logger.Debug("settings changed", "cause", cause, "changes", len(changes))
	}
}
