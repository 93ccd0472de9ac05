package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to read the next ping from the server before the
	// connection is considered dead. The server pings every 30s.
	readWait = 75 * time.Second

	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// Subscriber keeps a List in sync with one filtered realtime feed. Unlike a
// bare subscription it redials after a dropped connection and refetches the
// rows it may have missed.
type Subscriber[T Row] struct {
	URL   string // ws(s)://host/api/realtime?table=...&filter=...
	Token string
	List  *List[T]

	// Resync, when set, is called after every successful dial and its result
	// replaces the list content.
	Resync func(ctx context.Context) ([]T, error)
	// OnChange, when set, is called after each applied change.
	OnChange func(Message)

	MinBackoff time.Duration
	MaxBackoff time.Duration
	Dialer     *websocket.Dialer
}

// Run consumes the feed until ctx is cancelled.
func (s *Subscriber[T]) Run(ctx context.Context) error {
	minB, maxB := s.MinBackoff, s.MaxBackoff
	if minB <= 0 {
		minB = defaultMinBackoff
	}
	if maxB < minB {
		maxB = defaultMaxBackoff
	}

	backoff := minB
	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = minB
		}
		log.Warn().Err(err).Dur("retry_in", backoff).Str("url", s.URL).Msg("realtime: connection lost")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
		if backoff > maxB {
			backoff = maxB
		}
	}
}

// session dials once and reads until the connection fails. connected reports
// whether the dial succeeded.
func (s *Subscriber[T]) session(ctx context.Context) (connected bool, err error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	if s.Token != "" {
		header.Set("Authorization", "Bearer "+s.Token)
	}

	conn, resp, err := dialer.DialContext(ctx, s.URL, header)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	// The server subscribes before answering the upgrade, so changes made
	// during the refetch are already queued for this connection.
	if s.Resync != nil {
		rows, err := s.Resync(ctx)
		if err != nil {
			return true, fmt.Errorf("resync: %w", err)
		}
		s.List.Replace(rows)
	}

	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return true, errors.New("server closed the connection")
			}
			return true, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warn().Err(err).Msg("realtime: undecodable message")
			continue
		}
		if err := s.List.Apply(msg); err != nil {
			log.Warn().Err(err).Msg("realtime: change not applied")
			continue
		}
		if s.OnChange != nil {
			s.OnChange(msg)
		}
	}
}
