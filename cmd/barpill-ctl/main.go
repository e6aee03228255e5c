package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
)

// ============================================================================
// barpill-ctl - Command-line IPC Client
// ============================================================================
// This tool sends widget actions to the barpill daemon via IPC. It is what
// the bar's click/scroll bindings call, and doubles as a scripting surface.
//
// Usage:
//   barpill-ctl click
//   barpill-ctl mixer
//   barpill-ctl scroll-up
//   barpill-ctl scroll-down
//   barpill-ctl set-volume 40
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/barpill.sock)
// ============================================================================

// Action types (duplicated from the daemon package for a standalone binary)
type Action interface{}

type PrimaryClick struct{}

type SecondaryClick struct{}

type Scroll struct {
	Steps int `json:"steps"`
}

type SetVolumeAbsolute struct {
	Percent int    `json:"percent"`
	Origin  string `json:"origin"`
}

// ActionEnvelope wraps actions for JSON
type ActionEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := "/tmp/barpill.sock"

	// Parse arguments
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Check for -socket flag
	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Parse command
	var action Action

	switch args[0] {
	case "click", "mute", "toggle-mute":
		action = PrimaryClick{}

	case "mixer", "open-mixer":
		action = SecondaryClick{}

	case "scroll-up", "up":
		action = Scroll{Steps: 1}

	case "scroll-down", "down":
		action = Scroll{Steps: -1}

	case "scroll":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: scroll requires a step count\n")
			os.Exit(1)
		}
		steps, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid step count: %v\n", err)
			os.Exit(1)
		}
		action = Scroll{Steps: steps}

	case "set-volume", "set":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: set-volume requires a percentage\n")
			os.Exit(1)
		}
		percent, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid percentage: %v\n", err)
			os.Exit(1)
		}
		action = SetVolumeAbsolute{Percent: percent, Origin: "barpill-ctl"}

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	// Send action
	if err := sendAction(socketPath, action); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func sendAction(socketPath string, action Action) error {
	// Connect to socket
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	// Marshal action
	data, err := marshalAction(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	// Send action (line-delimited JSON)
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send action: %w", err)
	}

	// Read response
	var response IPCResponse
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	// Check response status
	if response.Status == "error" {
		return fmt.Errorf("daemon error: %s", response.Error)
	}

	return nil
}

func marshalAction(action Action) ([]byte, error) {
	var env ActionEnvelope

	switch a := action.(type) {
	case PrimaryClick:
		env.Type = "primary_click"

	case SecondaryClick:
		env.Type = "secondary_click"

	case Scroll:
		env.Type = "scroll"
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal Scroll: %w", err)
		}
		env.Data = data

	case SetVolumeAbsolute:
		env.Type = "set_volume_absolute"
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal SetVolumeAbsolute: %w", err)
		}
		env.Data = data

	default:
		return nil, fmt.Errorf("unknown action type: %T", action)
	}

	return json.Marshal(env)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `barpill-ctl - Control the barpill daemon via IPC

Usage:
  barpill-ctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/barpill.sock)

Commands:
  click, mute             Primary click (toggle mute)
  mixer, open-mixer       Secondary click (launch mixer application)
  scroll-up, up           Scroll one detent up
  scroll-down, down       Scroll one detent down
  scroll <steps>          Scroll by a signed number of detents
  set-volume, set <pct>   Set absolute volume percentage (0-100)
  help, -h, --help        Show this help message

Examples:
  barpill-ctl mute
  barpill-ctl set-volume 40
  barpill-ctl -socket /run/user/1000/barpill.sock scroll-up
`)
}
