package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AudioClientInterface defines the interface for audio service operations.
// This allows for mocking in tests.
//
// Every mutating call returns the confirmed post-command snapshot so the
// daemon can feed it back as an observation.
type AudioClientInterface interface {
	GetDefaultSink() (string, error)
	GetSnapshot() (AudioSnapshot, error)
	SetVolume(percent int) (AudioSnapshot, error)
	SetMute(mute bool) (AudioSnapshot, error)
	ToggleMute() (AudioSnapshot, error)

	Close() error
}

// AudioClient manages WebSocket communication with the audio service bridge.
// The bridge speaks a JSON request/response protocol: commands are either a
// bare string ("GetSnapshot") or a single-key object ({"SetVolume": 40}),
// and responses echo the command name with a result and value.
type AudioClient struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	logger      *slog.Logger
	readTimeout time.Duration
}

// NewAudioClient creates a new audio service client and establishes the
// initial connection.
func NewAudioClient(wsURL string, logger *slog.Logger, readTimeout int) (*AudioClient, error) {
	if _, err := url.Parse(wsURL); err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}

	client := &AudioClient{
		url:         wsURL,
		logger:      logger,
		readTimeout: time.Duration(readTimeout) * time.Millisecond,
	}

	if err := client.connectWithRetry(); err != nil {
		return nil, err
	}

	return client, nil
}

// connect establishes a WebSocket connection to the audio service
func (c *AudioClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	u, err := url.Parse(c.url)
	if err != nil {
		return fmt.Errorf("invalid ws url: %w", err)
	}

	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}

	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		return err
	}

	c.conn = conn
	return nil
}

// connectWithRetry attempts to connect with backoff
func (c *AudioClient) connectWithRetry() error {
	var lastErr error
	for attempt := 0; attempt < 10; attempt++ {
		err := c.connect()
		if err == nil {
			c.logger.Info("connected to audio service", "url", c.url)
			return nil
		}
		lastErr = err
		c.logger.Warn("connection failed; retrying...", "error", err, "attempt", attempt+1)
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("failed to connect after 10 attempts: %w", lastErr)
}

// ensureConnected checks connection and reconnects if necessary
func (c *AudioClient) ensureConnected() error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.logger.Warn("connection lost; reconnecting...")
	return c.connectWithRetry()
}

// sendAndRead sends a command and waits for its response
func (c *AudioClient) sendAndRead(v any, timeout time.Duration) ([]byte, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("no websocket connection")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn = nil // Mark connection as broken
		return nil, err
	}

	c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer c.conn.SetReadDeadline(time.Time{})

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		c.conn = nil // Mark connection as broken
		return nil, err
	}

	return message, nil
}

// Close closes the WebSocket connection
func (c *AudioClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

// snapshotPayload is the wire form of a sink snapshot.
type snapshotPayload struct {
	Volume int    `json:"volume"`
	Muted  bool   `json:"muted"`
	SinkID string `json:"sink_id"`
}

func (p snapshotPayload) toSnapshot() AudioSnapshot {
	return AudioSnapshot{Volume: p.Volume, Muted: p.Muted, SinkID: p.SinkID}.Clamped()
}

// GetDefaultSink queries the service for the default sink id.
// An empty id means no sink is currently available.
func (c *AudioClient) GetDefaultSink() (string, error) {
	response, err := c.sendAndRead("GetDefaultSink", c.readTimeout)
	if err != nil {
		return "", fmt.Errorf("get default sink: %w", err)
	}

	var resp struct {
		GetDefaultSink struct {
			Result string `json:"result"`
			Value  string `json:"value"`
		} `json:"GetDefaultSink"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse GetDefaultSink response", "error", err)
		return "", err
	}

	c.logger.Debug("GetDefaultSink", "sink_id", resp.GetDefaultSink.Value)

	return resp.GetDefaultSink.Value, nil
}

// GetSnapshot queries the service for the current sink state.
func (c *AudioClient) GetSnapshot() (AudioSnapshot, error) {
	response, err := c.sendAndRead("GetSnapshot", c.readTimeout)
	if err != nil {
		return AudioSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	var resp struct {
		GetSnapshot struct {
			Result string          `json:"result"`
			Value  snapshotPayload `json:"value"`
		} `json:"GetSnapshot"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse GetSnapshot response", "error", err)
		return AudioSnapshot{}, err
	}

	snap := resp.GetSnapshot.Value.toSnapshot()
	c.logger.Debug("GetSnapshot", "volume", snap.Volume, "muted", snap.Muted, "sink_id", snap.SinkID)

	return snap, nil
}

// SetVolume sets the sink volume and returns the confirmed snapshot.
func (c *AudioClient) SetVolume(percent int) (AudioSnapshot, error) {
	cmd := map[string]any{"SetVolume": percent}

	response, err := c.sendAndRead(cmd, c.readTimeout)
	if err != nil {
		return AudioSnapshot{}, fmt.Errorf("set volume: %w", err)
	}

	var resp struct {
		SetVolume struct {
			Result string          `json:"result"`
			Value  snapshotPayload `json:"value"`
		} `json:"SetVolume"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse SetVolume response", "error", err)
		return AudioSnapshot{}, err
	}

	snap := resp.SetVolume.Value.toSnapshot()
	c.logger.Debug("SetVolume", "target", percent, "result", resp.SetVolume.Result, "volume", snap.Volume)

	return snap, nil
}

// SetMute sets the mute state and returns the confirmed snapshot.
func (c *AudioClient) SetMute(mute bool) (AudioSnapshot, error) {
	cmd := map[string]any{"SetMute": mute}

	response, err := c.sendAndRead(cmd, c.readTimeout)
	if err != nil {
		return AudioSnapshot{}, fmt.Errorf("set mute: %w", err)
	}

	var resp struct {
		SetMute struct {
			Result string          `json:"result"`
			Value  snapshotPayload `json:"value"`
		} `json:"SetMute"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse SetMute response", "error", err)
		return AudioSnapshot{}, err
	}

	snap := resp.SetMute.Value.toSnapshot()
	c.logger.Debug("SetMute", "mute", mute, "result", resp.SetMute.Result)

	return snap, nil
}

// ToggleMute flips the mute state and returns the confirmed snapshot.
func (c *AudioClient) ToggleMute() (AudioSnapshot, error) {
	response, err := c.sendAndRead("ToggleMute", c.readTimeout)
	if err != nil {
		return AudioSnapshot{}, fmt.Errorf("toggle mute: %w", err)
	}

	var resp struct {
		ToggleMute struct {
			Result string          `json:"result"`
			Value  snapshotPayload `json:"value"`
		} `json:"ToggleMute"`
	}

	if err := json.Unmarshal(response, &resp); err != nil {
		c.logger.Warn("failed to parse ToggleMute response", "error", err)
		return AudioSnapshot{}, err
	}

	snap := resp.ToggleMute.Value.toSnapshot()
	c.logger.Debug("ToggleMute", "muted", snap.Muted, "result", resp.ToggleMute.Result)

	return snap, nil
}

// runAudioSubscription opens a dedicated connection to the audio service,
// subscribes to sink change notifications, and pushes every notification into
// the daemon event channel as an AudioSnapshotObserved.
//
// The command client keeps its own connection; mixing a free-running read
// pump with request/response reads on one socket would race the deadlines.
func runAudioSubscription(ctx context.Context, wsURL string, events chan<- Event, logger *slog.Logger) error {
	backoff := 500 * time.Millisecond
	const maxBackoff = 10 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := runAudioSubscriptionOnce(ctx, wsURL, events, logger)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("audio subscription lost; reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func runAudioSubscriptionOnce(ctx context.Context, wsURL string, events chan<- Event, logger *slog.Logger) error {
	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}

	conn, _, err := d.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial audio service: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`"Subscribe"`)); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	logger.Info("audio subscription established", "url", wsURL)

	// Unblock the read loop on shutdown.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read notification: %w", err)
		}

		var note struct {
			SinkChanged *snapshotPayload `json:"SinkChanged"`
		}
		if err := json.Unmarshal(message, &note); err != nil {
			logger.Warn("failed to parse notification", "error", err)
			continue
		}
		if note.SinkChanged == nil {
			// Subscribe ack or unrelated notification.
			continue
		}

		select {
		case events <- AudioSnapshotObserved{
			Snapshot: note.SinkChanged.toSnapshot(),
			At:       time.Now(),
		}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
