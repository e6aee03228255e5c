package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("barpill v%s\n", version)
	fmt.Println("Status-bar volume pill widget controller daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  barpill [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that drives a status-bar volume widget: it watches the audio")
	fmt.Println("  service for sink changes, debounces them, animates a pill (expand,")
	fmt.Println("  hold, collapse) and publishes render frames over a WebSocket state")
	fmt.Println("  stream. The bar forwards pointer input back over a Unix socket.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (flags override file values)")
	fmt.Println()
	fmt.Println("  -audio-ws-url string")
	fmt.Println("        Audio service websocket URL (default \"ws://127.0.0.1:4713\")")
	fmt.Println()
	fmt.Println("  -audio-ws-timeout-ms int")
	fmt.Printf("        Timeout for websocket responses in ms (default %d)\n", defaultReadTimeoutMS)
	fmt.Println()
	fmt.Println("  -quiet-window-ms int")
	fmt.Printf("        Debounce quiet window for audio changes in ms (default %d)\n", defaultQuietWindowMS)
	fmt.Println()
	fmt.Println("  -expand-ms int")
	fmt.Printf("        Pill expand/collapse ramp duration in ms (default %d)\n", defaultExpandMS)
	fmt.Println()
	fmt.Println("  -hold-ms int")
	fmt.Printf("        Pill hold duration at full width in ms (default %d)\n", defaultHoldMS)
	fmt.Println()
	fmt.Println("  -step-percent int")
	fmt.Printf("        Volume change per scroll detent (default %d)\n", defaultStepPercent)
	fmt.Println()
	fmt.Println("  -low-threshold int")
	fmt.Printf("        Volume below which the low icon is shown (default %d)\n", defaultLowThreshold)
	fmt.Println()
	fmt.Println("  -update-hz int")
	fmt.Printf("        Tick loop frequency in Hz (default %d)\n", defaultUpdateHz)
	fmt.Println()
	fmt.Println("  -mixer-command string")
	fmt.Printf("        External mixer application (default %q)\n", defaultMixerCommand)
	fmt.Println()
	fmt.Println("  -input-device string")
	fmt.Println("        Linux input event device for media keys (disabled by default)")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (default \"/tmp/barpill.sock\")")
	fmt.Println()
	fmt.Println("  -state-ws-port int")
	fmt.Println("        State websocket listener port (default 3001)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start daemon with default settings")
	fmt.Println("  barpill")
	fmt.Println()
	fmt.Println("  # Use a config file and enable media keys")
	fmt.Println("  barpill -config ~/.config/barpill/config.yaml -input-device /dev/input/event3")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Media keys require read access to the input device (add user to 'input' group)")
	fmt.Println("  - The bar subscribes to ws://127.0.0.1:<state-ws-port>/state")
	fmt.Println()
}

func main() {
	// Check for version/help flags early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	// Parse command-line flags. Flags act as overrides on top of the config
	// file; only flags the user actually set are applied.
	var (
		configPath = flag.String("config", "", "Path to YAML config file")

		audioWsURL     = flag.String("audio-ws-url", "", "Audio service websocket URL")
		audioTimeoutMS = flag.Int("audio-ws-timeout-ms", 0, "Timeout in milliseconds for reading websocket responses")

		quietWindowMS = flag.Int("quiet-window-ms", 0, "Debounce quiet window in ms")
		expandMS      = flag.Int("expand-ms", 0, "Pill ramp duration in ms")
		holdMS        = flag.Int("hold-ms", 0, "Pill hold duration in ms")
		stepPercent   = flag.Int("step-percent", 0, "Volume change per scroll detent")
		lowThreshold  = flag.Int("low-threshold", -1, "Volume below which the low icon is shown")
		updateHz      = flag.Int("update-hz", 0, "Tick loop frequency in Hz")

		mixerCommand = flag.String("mixer-command", "", "External mixer application")
		inputDevice  = flag.String("input-device", "", "Linux input event device for media keys")

		ipcSocketPath = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		stateWSPort   = flag.Int("state-ws-port", 0, "State websocket listener port")

		logLevelStr = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Load config: defaults, then file, then flag overrides.
	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "audio-ws-url":
			overrides.AudioWsURL = audioWsURL
		case "audio-ws-timeout-ms":
			overrides.AudioTimeoutMS = audioTimeoutMS
		case "quiet-window-ms":
			overrides.QuietWindowMS = quietWindowMS
		case "expand-ms":
			overrides.ExpandMS = expandMS
		case "hold-ms":
			overrides.HoldMS = holdMS
		case "step-percent":
			overrides.StepPercent = stepPercent
		case "low-threshold":
			overrides.LowThreshold = lowThreshold
		case "update-hz":
			overrides.UpdateHz = updateHz
		case "mixer-command":
			overrides.MixerCommand = mixerCommand
		case "input-device":
			overrides.InputDevice = inputDevice
		case "ipc-socket":
			overrides.IPCSocketPath = ipcSocketPath
		case "state-ws-port":
			overrides.StateWSPort = stateWSPort
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)

	widgetCfg := cfg.ToWidgetConfig()

	// Shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Central event bus into the daemon loop.
	events := make(chan Event, 64)

	// Audio service command client.
	client, err := NewAudioClient(cfg.Audio.WsURL, logger, cfg.Audio.TimeoutMS)
	if err != nil {
		logger.Error("failed to connect to audio service", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	// Prime the widget with the current sink state before the first push
	// notification. A failure here is not fatal; the subscription will
	// deliver the state as soon as the service responds.
	if snap, err := client.GetSnapshot(); err != nil {
		logger.Warn("could not get initial audio snapshot", "error", err)
	} else {
		events <- AudioSnapshotObserved{Snapshot: snap, At: time.Now()}
	}

	mixer := NewMixerLauncher(cfg.Mixer, events, logger)

	// State WS server: hub + broadcaster + HTTP listener.
	broadcasts := make(chan StateBroadcast, 128)
	wsServer := NewServer(logger, events, ServerConfig{})
	mux := http.NewServeMux()
	wsServer.Register(mux, "/state")

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.StateWS.Port),
		Handler: mux,
	}

	state := NewWidgetState()

	logger.Info("starting barpill", "version", version,
		"audio_ws", cfg.Audio.WsURL,
		"ipc_socket", cfg.IPC.SocketPath,
		"state_ws_port", cfg.StateWS.Port,
		"update_hz", cfg.Widget.UpdateHz,
		"quiet_window_ms", cfg.Widget.QuietWindowMS,
		"expand_ms", cfg.Widget.ExpandMS,
		"hold_ms", cfg.Widget.HoldMS)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runDaemon(gctx, events, client, mixer, widgetCfg, state, cfg.Widget.UpdateHz, broadcasts, logger)
		return nil
	})

	g.Go(func() error {
		return runIPCServer(gctx, cfg.IPC.SocketPath, events, logger)
	})

	g.Go(func() error {
		wsServer.Hub().Run(gctx)
		return nil
	})

	g.Go(func() error {
		RunBroadcaster(gctx, wsServer.Hub(), broadcasts, logger)
		return nil
	})

	g.Go(func() error {
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := runAudioSubscription(gctx, cfg.Audio.WsURL, events, logger)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if len(cfg.Input.Devices) > 0 {
		g.Go(func() error {
			err := runMediaKeyInput(gctx, cfg.Input.Devices, events, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("barpill stopped")
}
