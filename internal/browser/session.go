package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Session is a single DevTools websocket connection to a page target.
// Commands may be issued from any goroutine; responses are matched by id.
type Session struct {
	cfg    SessionConfig
	logger *slog.Logger
	conn   *websocket.Conn

	nextID atomic.Int64

	// Write serialization
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan message
	closed  bool
	err     error // terminal read error

	done     chan struct{}
	doneOnce sync.Once
	cancel   context.CancelFunc
	group    *errgroup.Group
}

// Dial connects to the page target at cfg.URL and starts the read and
// keepalive loops.
func Dial(ctx context.Context, cfg SessionConfig, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial devtools: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(loopCtx)

	s := &Session{
		cfg:     cfg,
		logger:  logger,
		conn:    conn,
		pending: make(map[int64]chan message),
		done:    make(chan struct{}),
		cancel:  cancel,
		group:   group,
	}

	group.Go(s.readLoop)
	group.Go(func() error { return s.keepaliveLoop(gctx) })

	logger.Debug("devtools session opened", "url", cfg.URL)
	return s, nil
}

// Call sends method with params and decodes the response result into out
// (which may be nil). It returns a *CDPError for protocol-level failures.
func (s *Session) Call(ctx context.Context, method string, params, out any) error {
	id := s.nextID.Add(1)
	ch := make(chan message, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	data, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	if err := s.write(data); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return s.closeErr()
	}
}

// Close stops the loops and closes the connection. It is safe to call more
// than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.finish()

	s.writeMu.Lock()
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.writeMu.Unlock()

	err := s.conn.Close()
	s.group.Wait()

	s.logger.Debug("devtools session closed", "url", s.cfg.URL)
	return err
}

func (s *Session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// finish unblocks every waiting Call.
func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Session) closeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil && !s.closed {
		return fmt.Errorf("%w: %v", ErrClosed, s.err)
	}
	return ErrClosed
}

// readLoop dispatches responses to their waiting Call.
func (s *Session) readLoop() error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closing := s.closed
			if !closing {
				s.err = err
			}
			s.mu.Unlock()

			s.finish()
			if closing {
				return nil
			}
			s.logger.Warn("devtools read failed", "error", err)
			return err
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("devtools message undecodable", "error", err)
			continue
		}

		if msg.ID == 0 {
			// Events are not subscribed to beyond what Chrome sends by default.
			continue
		}

		s.mu.Lock()
		ch, ok := s.pending[msg.ID]
		s.mu.Unlock()
		if !ok {
			s.logger.Debug("devtools response without caller", "id", msg.ID)
			continue
		}
		ch <- msg
	}
}

// keepaliveLoop pings the endpoint until the session is closed.
func (s *Session) keepaliveLoop(ctx context.Context) error {
	if s.cfg.PingInterval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(s.cfg.WriteTimeout))
			s.writeMu.Unlock()
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Debug("failed to send ping", "error", err)
			}
		}
	}
}
