package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/blackjack/internal/broadcast"
	"github.com/jason-s-yu/blackjack/internal/historian"
	"github.com/jason-s-yu/blackjack/internal/models"
	"github.com/jason-s-yu/blackjack/internal/random"
	"github.com/jason-s-yu/blackjack/internal/syncx"
)

// recordTimeout bounds how long a Dispatch waits on the historian.
const recordTimeout = 2 * time.Second

// Session holds the entire state for a single game instance in memory.
//
// Every read-modify-write of the roster, deck, turn pointer and started flag
// happens inside mu. The lock is reentrant through the context returned by
// mu.Lock, so exported methods may call each other while already holding it.
// Viewers never touch these fields; they observe the published GameState.
type Session struct {
	ID    string
	Owner string

	mu          *syncx.ReentrantMutex
	players     []*models.Player
	deck        *Deck
	started     bool
	current     string
	actionIndex int

	// snapshot is the last published state. It is only replaced, never
	// mutated, and only while mu is held.
	snapshot models.GameState
	state    *broadcast.Latest[models.GameState]

	rand     random.Random
	recorder historian.Recorder
	logger   *logrus.Entry
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder sends accepted actions to rec.
func WithRecorder(rec historian.Recorder) Option {
	return func(s *Session) { s.recorder = rec }
}

// WithLogger sets the base log entry. The session adds its own id field.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Session) { s.logger = l }
}

// WithRandom sets the source used to shuffle the deck.
func WithRandom(r random.Random) Option {
	return func(s *Session) { s.rand = r }
}

// WithDeck replaces the shuffled deck, mostly for tests that need a known
// deal.
func WithDeck(d *Deck) Option {
	return func(s *Session) { s.deck = d }
}

// NewSession seats owner and publishes the initial, unstarted snapshot.
func NewSession(id string, owner *models.Player, opts ...Option) *Session {
	s := &Session{
		ID:       id,
		Owner:    owner.Name,
		mu:       syncx.NewReentrantMutex(),
		players:  []*models.Player{owner},
		current:  owner.Name,
		recorder: historian.NopRecorder{},
		logger:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = random.New()
	}
	if s.deck == nil {
		s.deck = NewDeck(s.rand)
	}
	s.logger = s.logger.WithField("game", id)

	s.snapshot = models.NewGameState(id, owner.Name)
	s.snapshot.Players[0].Online = owner.Online()
	s.state = broadcast.New(s.snapshot)
	return s
}

// State returns the latest published snapshot.
func (s *Session) State() models.GameState {
	st, _ := s.state.Load()
	return st
}

// Subscribe attaches a viewer. The first value it reads is the latest
// snapshot.
func (s *Session) Subscribe() *broadcast.Subscription[models.GameState] {
	return s.state.Subscribe()
}

// Close ends the snapshot stream for every subscriber.
func (s *Session) Close() {
	s.state.Close()
}

// updateState derives the next snapshot from the current one and publishes
// it. Callers must hold mu.
func (s *Session) updateState(fn func(st *models.GameState)) {
	next := s.snapshot.Clone()
	fn(&next)
	s.snapshot = next
	s.state.Publish(next)
}

func (s *Session) indexOf(p *models.Player) int {
	for i, q := range s.players {
		if q == p {
			return i
		}
	}
	return -1
}

func (s *Session) findByName(name string) (int, *models.Player) {
	for i, p := range s.players {
		if p.Name == name {
			return i, p
		}
	}
	return -1, nil
}

// PlayerByName returns the seated player with that name.
func (s *Session) PlayerByName(ctx context.Context, name string) (*models.Player, error) {
	var found *models.Player
	err := s.mu.Do(ctx, func(ctx context.Context) error {
		if _, p := s.findByName(name); p != nil {
			found = p
			return nil
		}
		return fmt.Errorf("%w: %s", models.ErrPlayerNotFound, name)
	})
	return found, err
}

// PlayerBySecret returns the seated player holding secret.
func (s *Session) PlayerBySecret(ctx context.Context, secret string) (*models.Player, error) {
	var found *models.Player
	err := s.mu.Do(ctx, func(ctx context.Context) error {
		for _, p := range s.players {
			if p.HasSecret(secret) {
				found = p
				return nil
			}
		}
		return models.ErrPlayerNotFound
	})
	return found, err
}

// AddPlayer seats p. It reports false, leaving the roster untouched, when the
// name or secret is already in use. Players may join after the game started;
// they are not dealt in.
func (s *Session) AddPlayer(ctx context.Context, p *models.Player) (bool, error) {
	added := false
	err := s.mu.Do(ctx, func(ctx context.Context) error {
		for _, q := range s.players {
			if q.Name == p.Name || q.HasSecret(p.Secret) {
				return nil
			}
		}
		s.players = append(s.players, p)
		s.updateState(func(st *models.GameState) {
			st.Players = append(st.Players, models.PlayerState{Name: p.Name, Online: p.Online()})
		})
		added = true
		s.logger.WithField("player", p.Name).Info("player joined")
		return nil
	})
	return added, err
}

// SetOnline publishes p's online flag. Players no longer on the roster are
// ignored.
func (s *Session) SetOnline(ctx context.Context, p *models.Player, connected bool) error {
	return s.mu.Do(ctx, func(ctx context.Context) error {
		if s.indexOf(p) < 0 {
			return nil
		}
		s.updateState(func(st *models.GameState) {
			for i := range st.Players {
				if st.Players[i].Name == p.Name {
					st.Players[i].Online = connected
				}
			}
		})
		return nil
	})
}

// Attach makes link p's live connection, cancelling any connection it
// replaces. A player reconnecting to a started game is sent their hand again.
func (s *Session) Attach(ctx context.Context, p *models.Player, link *models.Link) error {
	return s.mu.Do(ctx, func(ctx context.Context) error {
		if s.indexOf(p) < 0 {
			return fmt.Errorf("%w: %s", models.ErrPlayerNotFound, p.Name)
		}
		if prev := p.SwapLink(link); prev != nil && prev.Cancel != nil {
			prev.Cancel()
		}
		if err := s.SetOnline(ctx, p, true); err != nil {
			return err
		}
		if s.started {
			s.sendHand(p)
		}
		s.logger.WithFields(logrus.Fields{"player": p.Name, "conn": link.ID}).Debug("link attached")
		return nil
	})
}

// Detach clears link from p and publishes p as offline. If p has already
// reconnected over a newer link, nothing changes.
func (s *Session) Detach(ctx context.Context, p *models.Player, link *models.Link) error {
	return s.mu.Do(ctx, func(ctx context.Context) error {
		if !p.ClearLink(link) {
			return nil
		}
		s.logger.WithFields(logrus.Fields{"player": p.Name, "conn": link.ID}).Debug("link detached")
		return s.SetOnline(ctx, p, false)
	})
}

// RemovePlayer takes p off the roster and closes its connection. If p held
// the turn, it passes to the player seated after them.
func (s *Session) RemovePlayer(ctx context.Context, p *models.Player) error {
	return s.mu.Do(ctx, func(ctx context.Context) error {
		idx := s.indexOf(p)
		if idx < 0 {
			return nil
		}

		current := s.current
		if current == p.Name {
			current = ""
			if len(s.players) > 1 {
				current = s.players[(idx+1)%len(s.players)].Name
			}
		}
		s.players = append(s.players[:idx:idx], s.players[idx+1:]...)
		s.current = current

		if l := p.SwapLink(nil); l != nil && l.Cancel != nil {
			l.Cancel()
		}

		s.updateState(func(st *models.GameState) {
			kept := st.Players[:0]
			for _, ps := range st.Players {
				if ps.Name != p.Name {
					kept = append(kept, ps)
				}
			}
			st.Players = kept
			st.CurrentPlayer = current
		})
		s.logger.WithField("player", p.Name).Info("player left")
		return nil
	})
}

// Dispatch applies a client action. Actions whose preconditions do not hold
// (wrong secret, wrong turn, already started, too few players) are ignored
// without error. The only errors are a cancelled ctx and an action type the
// session cannot route.
func (s *Session) Dispatch(ctx context.Context, action models.GameAction) error {
	var rec *historian.ActionRecord
	err := s.mu.Do(ctx, func(ctx context.Context) error {
		var actor *models.Player
		switch action.Type {
		case models.ActionStartGame:
			actor = s.startGame(ctx, action.Player)
		case models.ActionHit, models.ActionStand:
			actor = s.takeTurn(action)
		default:
			return fmt.Errorf("%w: %s", models.ErrUnknownAction, action.Type)
		}
		if actor != nil {
			s.actionIndex++
			rec = &historian.ActionRecord{
				ID:          uuid.New(),
				GameID:      s.ID,
				ActionIndex: s.actionIndex,
				Actor:       actor.Name,
				ActionType:  string(action.Type),
				Timestamp:   time.Now().UnixMilli(),
			}
		}
		return nil
	})
	if err != nil || rec == nil {
		return err
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.recorder.Record(rctx, *rec); err != nil {
		s.logger.WithError(err).WithField("index", rec.ActionIndex).Warn("failed to record action")
	}
	return nil
}

// startGame deals two cards to everyone and hands the turn to the player
// after the owner. It returns the owner when the game started.
func (s *Session) startGame(ctx context.Context, secret string) *models.Player {
	owner, err := s.PlayerByName(ctx, s.Owner)
	if err != nil || !owner.HasSecret(secret) {
		return nil
	}
	if s.started || len(s.players) < 2 {
		return nil
	}
	if s.deck.Len() < 2*len(s.players) {
		s.logger.WithField("players", len(s.players)).Warn("not enough cards to deal")
		return nil
	}

	next := s.players[(s.indexOf(owner)+1)%len(s.players)]
	s.started = true
	s.current = next.Name
	for _, p := range s.players {
		c1, _ := s.deck.Pop()
		c2, _ := s.deck.Pop()
		p.Deal(c1, c2)
	}
	s.updateState(func(st *models.GameState) {
		st.Started = true
		st.CurrentPlayer = next.Name
	})
	for _, p := range s.players {
		s.sendHand(p)
	}
	s.logger.WithField("first", next.Name).Info("game started")
	return owner
}

// takeTurn records the current player's hit or stand and passes the turn on.
func (s *Session) takeTurn(action models.GameAction) *models.Player {
	if !s.started {
		return nil
	}
	idx, cur := s.findByName(s.current)
	if cur == nil || !cur.HasSecret(action.Player) {
		return nil
	}

	next := s.players[(idx+1)%len(s.players)]
	label := string(action.Type)
	s.current = next.Name
	s.updateState(func(st *models.GameState) {
		for i := range st.Players {
			if st.Players[i].Name == cur.Name {
				st.Players[i].LastAction = &label
			}
		}
		st.CurrentPlayer = next.Name
	})
	return cur
}

// sendHand privately delivers p's hand if p is connected. Send never blocks,
// so this is safe under mu.
func (s *Session) sendHand(p *models.Player) {
	link := p.Link()
	if link == nil {
		return
	}
	if err := link.Send(p.Message()); err != nil {
		s.logger.WithError(err).WithField("player", p.Name).Warn("failed to send hand")
	}
}
