package realtime

import (
	"sync"

	id "bridges/pkg/domain"
)

// room is the member set for one identity or topic. A room that becomes
// empty is marked dead and removed from the registry; writers that observe
// a dead room retry against a fresh one.
type room struct {
	mu      sync.Mutex
	members map[id.ConnectionID]*Session
	dead    bool
}

// registry maps a key to its room without a global lock.
type registry struct {
	rooms sync.Map
}

func (r *registry) add(key string, s *Session) {
	for {
		v, _ := r.rooms.LoadOrStore(key, &room{members: make(map[id.ConnectionID]*Session)})
		rm := v.(*room)
		rm.mu.Lock()
		if rm.dead {
			rm.mu.Unlock()
			continue
		}
		rm.members[s.ConnectionID] = s
		rm.mu.Unlock()
		return
	}
}

func (r *registry) remove(key string, connID id.ConnectionID) {
	v, ok := r.rooms.Load(key)
	if !ok {
		return
	}
	rm := v.(*room)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.members, connID)
	if len(rm.members) == 0 && !rm.dead {
		rm.dead = true
		r.rooms.CompareAndDelete(key, rm)
	}
}

// snapshot copies the members so callers can deliver without holding the
// room lock.
func (r *registry) snapshot(key string) []*Session {
	v, ok := r.rooms.Load(key)
	if !ok {
		return nil
	}
	rm := v.(*room)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	out := make([]*Session, 0, len(rm.members))
	for _, s := range rm.members {
		out = append(out, s)
	}
	return out
}

func (r *registry) len() int {
	n := 0
	r.rooms.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func userKey(userID id.UserID) string {
	return "user:" + userID.String()
}
