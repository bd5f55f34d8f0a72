package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"ai_blog_post_writer/generator"
)

// sessionStore keeps sessions in memory; idle sessions expire after ttl.
type sessionStore struct {
	items *cache.Cache
}

func newStore(ttl time.Duration) *sessionStore {
	return &sessionStore{items: cache.New(ttl, 2*ttl)}
}

func (s *sessionStore) create(agent *generator.Agent) *generator.Session {
	sess := generator.NewSession(uuid.NewString(), agent)
	s.items.SetDefault(sess.ID, sess)
	return sess
}

// get also refreshes the expiry.
func (s *sessionStore) get(id string) (*generator.Session, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*generator.Session)
	if ok {
		s.items.SetDefault(id, sess)
	}
	return sess, ok
}

func (s *sessionStore) count() int { return s.items.ItemCount() }
