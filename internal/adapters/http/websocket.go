package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/estatemap/internal/adapters/nats"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Session string `json:"session"` // evaluation session id (required)
	Channel string `json:"channel"` // "selection" | "reports" (default: selection)
}

var (
	errInvalidSession = errors.New("session must be a non-empty id without '.', '*', '>' or spaces")
	errUnknownChannel = errors.New("unknown channel")
)

// wsSubject maps a channel and session to the NATS subject carrying its
// events. The session is used as one literal subject token, so clients can
// only follow sessions they name.
func wsSubject(channel, session string) (string, error) {
	if session == "" || strings.ContainsAny(session, ".*> \t\r\n") {
		return "", errInvalidSession
	}
	switch channel {
	case "", "selection":
		return natsadapter.SubjectSelectionPrefix + session, nil
	case "reports":
		return natsadapter.SubjectReportReady + session, nil
	}
	return "", fmt.Errorf("%w: %s", errUnknownChannel, channel)
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// evaluation events from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","session":"<id>","channel":"reports"}
// Connecting with ?session=<id> subscribes to both channels of that session.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event stream unavailable"})
			return
		}

		remoteAddr := c.RemoteAddr().String()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subscribe := func(subject string) error {
			s, err := nc.Subscribe(subject, func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				return err
			}
			subs[subject] = s
			return nil
		}

		if session := c.Query("session"); session != "" {
			for _, channel := range []string{"selection", "reports"} {
				subject, err := wsSubject(channel, session)
				if err != nil {
					_ = writeJSON(map[string]string{"error": err.Error()})
					return
				}
				if err := subscribe(subject); err != nil {
					slog.Error("ws session subscribe failed", "subject", subject, "error", err)
					return
				}
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, err := wsSubject(m.Channel, m.Session)
			if err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				if err := subscribe(subject); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
