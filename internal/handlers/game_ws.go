package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jason-s-yu/blackjack/internal/broadcast"
	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/jason-s-yu/blackjack/internal/middleware"
	"github.com/jason-s-yu/blackjack/internal/models"
)

const (
	pingPeriod   = 15 * time.Second
	pingTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Second
	outboxSize   = 16
)

// GameWSHandler upgrades the request to the live channel of one player in one
// game. Snapshots of the game and the player's private messages are written
// out; inbound frames are parsed as actions and dispatched to the game.
func (s *Server) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, secret := vars["id"], vars["secret"]

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.Logger.WithError(err).WithField("game", gameID).Warn("WebSocket accept error")
		return
	}
	defer c.CloseNow()

	sess, ok := s.Store.Get(gameID)
	if !ok {
		reject(r.Context(), c, InvalidGameIDError, fmt.Sprintf("No game found for id %s", gameID))
		return
	}
	p, err := sess.PlayerBySecret(r.Context(), secret)
	if err != nil {
		reject(r.Context(), c, InvalidPlayerSecretError, fmt.Sprintf("No player found for id %s", secret))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn := &connection{
		ws:     c,
		outbox: make(chan any, outboxSize),
		cancel: cancel,
		logger: s.Logger.WithFields(logrus.Fields{"game": sess.ID, "player": p.Name}),
	}
	link := models.NewLink(conn, cancel)
	conn.logger = conn.logger.WithField("conn", link.ID)

	sub := sess.Subscribe()
	if err := sess.Attach(ctx, p, link); err != nil {
		conn.logger.WithError(err).Warn("failed to attach player")
		c.Close(websocket.StatusTryAgainLater, "Could not join the game")
		return
	}
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, sess.ID, p.Name)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		conn.writeLoop(ctx, sub)
	}()
	go func() {
		defer wg.Done()
		conn.pingLoop(ctx)
	}()

	limiter := rate.NewLimiter(rate.Every(s.cfg.ActionRate), s.cfg.ActionBurst)
	readErr := conn.readLoop(ctx, sess, limiter)

	cancel()
	wg.Wait()
	if err := sess.Detach(context.Background(), p, link); err != nil {
		conn.logger.WithError(err).Warn("failed to detach player")
	}
	if websocket.CloseStatus(readErr) != -1 || errors.Is(readErr, context.Canceled) {
		readErr = nil
	}
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, sess.ID, p.Name, readErr)
	c.Close(websocket.StatusNormalClosure, "")
}

// reject sends a single error message and closes the channel with code.
func reject(ctx context.Context, c *websocket.Conn, code websocket.StatusCode, msg string) {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = wsjson.Write(wctx, c, models.NewErrorMessage(msg))
	c.Close(code, msg)
}

// connection is the transport behind one player's link. Send only queues;
// writeLoop owns the socket's write side.
type connection struct {
	ws     *websocket.Conn
	outbox chan any
	cancel context.CancelFunc
	logger *logrus.Entry
}

// Send queues msg for delivery without blocking.
func (c *connection) Send(msg any) error {
	select {
	case c.outbox <- msg:
		return nil
	default:
		return models.ErrOutboxFull
	}
}

func (c *connection) write(ctx context.Context, msg any) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, c.ws, msg)
}

// writeLoop forwards the newest snapshot and any private messages until ctx
// ends, the game closes or a write fails.
func (c *connection) writeLoop(ctx context.Context, sub *broadcast.Subscription[models.GameState]) {
	defer c.cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.outbox:
			if err := c.write(ctx, msg); err != nil {
				c.logger.WithError(err).Debug("write failed")
				return
			}
		case <-sub.Ready():
			st, ok, err := sub.TryNext()
			if err != nil {
				return
			}
			if !ok {
				continue
			}
			if err := c.write(ctx, st); err != nil {
				c.logger.WithError(err).Debug("write failed")
				return
			}
		}
	}
}

// pingLoop keeps the connection alive and drops it when the peer stops
// answering.
func (c *connection) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.ws.Ping(pctx)
			cancel()
			if err != nil {
				c.logger.WithError(err).Debug("ping failed")
				c.cancel()
				return
			}
		}
	}
}

// readLoop dispatches inbound actions until the socket closes or ctx ends.
// A frame that is not a valid action is answered with an error message and
// the connection stays open.
func (c *connection) readLoop(ctx context.Context, sess *game.Session, limiter *rate.Limiter) error {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			c.reply(models.NewErrorMessage("Only text frames are accepted"))
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		action, err := models.ParseAction(data)
		if err != nil {
			c.logger.WithError(err).Debug("rejected frame")
			c.reply(models.NewErrorMessage(err.Error()))
			continue
		}
		if err := sess.Dispatch(ctx, action); err != nil {
			if errors.Is(err, models.ErrUnknownAction) {
				c.reply(models.NewErrorMessage(err.Error()))
				continue
			}
			return err
		}
	}
}

func (c *connection) reply(msg models.ErrorMessage) {
	if err := c.Send(msg); err != nil {
		c.logger.WithError(err).Warn("dropped error reply")
	}
}
