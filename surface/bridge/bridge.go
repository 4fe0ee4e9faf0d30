// Package bridge exposes the messaging surface over a websocket. A
// browser driver connects to /bridge and executes DOM-level commands;
// the daemon side implements surface.Surface by sending one command
// frame per call and waiting for the correlated response.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lindenrealty/rentscreen/extract"
	"github.com/lindenrealty/rentscreen/surface"
)

var ErrCallTimeout = errors.New("bridge: driver did not answer in time")

const defaultCallTimeout = 30 * time.Second

type Bridge struct {
	logger      *slog.Logger
	callTimeout time.Duration
	upgrader    websocket.Upgrader

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	pending map[string]chan responseFrame
}

func New(logger *slog.Logger, callTimeout time.Duration) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Bridge{
		logger:      logger,
		callTimeout: callTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The driver is a browser extension; the page origin is not
			// meaningful for a localhost control socket.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pending: map[string]chan responseFrame{},
	}
}

// Connected reports whether a driver is currently attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// ServeHTTP upgrades the request and attaches the driver. A new
// connection replaces the previous one; only a single driver serves
// commands at a time.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("bridge_upgrade_failed", "error", err.Error())
		return
	}

	b.mu.Lock()
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.conn = conn
	b.mu.Unlock()
	b.logger.Info("driver_connected", "remote_addr", conn.RemoteAddr().String())

	b.readLoop(conn)
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer func() {
		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
		_ = conn.Close()
		b.failPending(conn)
		b.logger.Info("driver_disconnected")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame responseFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			b.logger.Warn("bridge_frame_invalid", "error", err.Error())
			continue
		}
		b.mu.Lock()
		ch, ok := b.pending[frame.ID]
		if ok {
			delete(b.pending, frame.ID)
		}
		b.mu.Unlock()
		if !ok {
			b.logger.Debug("bridge_frame_unmatched", "frame_id", frame.ID)
			continue
		}
		ch <- frame
	}
}

// failPending unblocks callers waiting on a driver that went away.
func (b *Bridge) failPending(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.pending {
		select {
		case ch <- responseFrame{ID: id, OK: false, Error: "driver_disconnected"}:
		default:
		}
		delete(b.pending, id)
	}
}

func (b *Bridge) call(ctx context.Context, op string, payload any) (json.RawMessage, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil, surface.ErrNoDriver
	}

	frame := commandFrame{ID: uuid.NewString(), Op: op}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		frame.Payload = raw
	}

	ch := make(chan responseFrame, 1)
	b.mu.Lock()
	b.pending[frame.ID] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, frame.ID)
		b.mu.Unlock()
	}()

	b.writeMu.Lock()
	err := conn.WriteJSON(frame)
	b.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write bridge command: %w", err)
	}

	timer := time.NewTimer(b.callTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s", ErrCallTimeout, op)
	case resp := <-ch:
		if !resp.OK {
			code := strings.TrimSpace(resp.Error)
			if code == "" {
				code = "unknown_error"
			}
			if code == errSendUnavailable {
				return nil, surface.ErrSendUnavailable
			}
			if code == "driver_disconnected" {
				return nil, surface.ErrNoDriver
			}
			return nil, fmt.Errorf("bridge %s failed: %s", op, code)
		}
		return resp.Payload, nil
	}
}

func (b *Bridge) ListThreads(ctx context.Context) ([]surface.Thread, error) {
	raw, err := b.call(ctx, opListThreads, nil)
	if err != nil {
		return nil, err
	}
	var threads []surface.Thread
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &threads); err != nil {
			return nil, fmt.Errorf("decode thread list: %w", err)
		}
	}
	return threads, nil
}

func (b *Bridge) FocusedThread(ctx context.Context) (surface.Thread, bool, error) {
	raw, err := b.call(ctx, opFocusedThread, nil)
	if err != nil {
		return surface.Thread{}, false, err
	}
	var out focusedThreadResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return surface.Thread{}, false, fmt.Errorf("decode focused thread: %w", err)
		}
	}
	if !out.Present {
		return surface.Thread{}, false, nil
	}
	var thread surface.Thread
	if err := json.Unmarshal(out.Thread, &thread); err != nil {
		return surface.Thread{}, false, fmt.Errorf("decode focused thread: %w", err)
	}
	return thread, true, nil
}

func (b *Bridge) Focus(ctx context.Context, id string) error {
	_, err := b.call(ctx, opFocus, focusPayload{ThreadID: id})
	return err
}

func (b *Bridge) ReadRegion(ctx context.Context) (extract.Region, error) {
	raw, err := b.call(ctx, opReadRegion, nil)
	if err != nil {
		return extract.Region{}, err
	}
	var region extract.Region
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &region); err != nil {
			return extract.Region{}, fmt.Errorf("decode message region: %w", err)
		}
	}
	return region, nil
}

func (b *Bridge) InsertReply(ctx context.Context, text string) error {
	_, err := b.call(ctx, opInsertReply, insertReplyPayload{Text: text})
	return err
}

func (b *Bridge) Send(ctx context.Context) error {
	_, err := b.call(ctx, opSend, nil)
	return err
}
