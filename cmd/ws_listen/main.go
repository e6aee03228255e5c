package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ws_listen subscribes to the barpill state stream and prints every message.
// Useful for debugging the daemon without a bar attached: you can watch the
// pill frames animate as raw numbers.

func main() {
	var (
		wsURL  = flag.String("ws", "ws://127.0.0.1:3001/state", "barpill state websocket URL")
		frames = flag.Bool("frames", false, "print every frame message (noisy; off by default)")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	// Handle shutdown
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Mutex to protect concurrent writes to websocket
	var writeMu sync.Mutex

	// The daemon pings us; answer pongs happen inside gorilla automatically,
	// but keep our own read deadline fresh as well.
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	// Message reading loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}

			if messageType != websocket.TextMessage {
				continue
			}
			handleMessage(message, *frames)
		}
	}()

	// Wait for shutdown signal or connection close
	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// handleMessage decodes a state envelope and prints a compact line per event.
func handleMessage(message []byte, printFrames bool) {
	var env struct {
		Type string          `json:"type"`
		Ts   *time.Time      `json:"ts"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &env); err != nil {
		fmt.Printf("[TEXT] %s\n", string(message))
		return
	}

	switch env.Type {
	case "state_init":
		pretty, _ := json.MarshalIndent(json.RawMessage(env.Data), "", "  ")
		fmt.Printf("[INIT]\n%s\n\n", string(pretty))

	case "frame":
		if !printFrames {
			return
		}
		var f struct {
			PillWidth   float64 `json:"pill_width"`
			PillOpacity float64 `json:"pill_opacity"`
			IconGlyph   string  `json:"icon_glyph"`
			LabelText   string  `json:"label_text"`
		}
		if err := json.Unmarshal(env.Data, &f); err != nil {
			fmt.Printf("[FRAME] %s\n", string(env.Data))
			return
		}
		fmt.Printf("[FRAME] width=%.1f opacity=%.2f label=%s\n", f.PillWidth, f.PillOpacity, f.LabelText)

	case "volume_changed":
		var v struct {
			Volume int `json:"volume"`
		}
		if err := json.Unmarshal(env.Data, &v); err == nil {
			fmt.Printf("[VOLUME] %d%%\n", v.Volume)
		}

	case "mute_changed":
		var m struct {
			Muted bool `json:"muted"`
		}
		if err := json.Unmarshal(env.Data, &m); err == nil {
			status := "UNMUTED"
			if m.Muted {
				status = "MUTED"
			}
			fmt.Printf("[MUTE] %s\n", status)
		}

	default:
		pretty, _ := json.MarshalIndent(json.RawMessage(env.Data), "", "  ")
		fmt.Printf("[%s]\n%s\n\n", env.Type, string(pretty))
	}
}
