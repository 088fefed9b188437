package game

import (
	"strings"
	"sync"

	"github.com/jason-s-yu/blackjack/internal/models"
	"github.com/jason-s-yu/blackjack/internal/random"
)

const (
	// CodeLength is the length of a game id.
	CodeLength = 4
	// SecretLength is the length of a player secret.
	SecretLength = 32

	maxCreateAttempts = 64
)

// Store is the registry of live sessions. Sessions are never evicted; they
// live as long as the process.
type Store struct {
	mu    sync.RWMutex
	games map[string]*Session
	rand  random.Random
	opts  []Option
}

// NewStore creates an empty registry. opts are applied to every session it
// creates.
func NewStore(r random.Random, opts ...Option) *Store {
	if r == nil {
		r = random.New()
	}
	return &Store{
		games: make(map[string]*Session),
		rand:  r,
		opts:  opts,
	}
}

// NewPlayer builds a player with a fresh secret.
func (s *Store) NewPlayer(name string) *models.Player {
	return models.NewPlayer(name, s.rand.String(SecretLength, random.Alphabet))
}

// Create opens a session owned by a new player called ownerName. Ids that
// collide with a live session are redrawn.
func (s *Store) Create(ownerName string) (*Session, *models.Player, error) {
	if strings.TrimSpace(ownerName) == "" {
		return nil, nil, models.ErrInvalidName
	}
	owner := s.NewPlayer(ownerName)

	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := s.rand.String(CodeLength, random.Alphabet)
		if _, taken := s.games[id]; taken {
			continue
		}
		opts := append([]Option{WithRandom(s.rand)}, s.opts...)
		sess := NewSession(id, owner, opts...)
		s.games[id] = sess
		return sess, owner, nil
	}
	return nil, nil, models.ErrIDSpaceExhausted
}

// Get looks up a session by id.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.games[id]
	return sess, ok
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Close ends the snapshot stream of every session.
func (s *Store) Close() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.games {
		sess.Close()
	}
}
