// Macro - input repeater
// Captures one key or mouse button and presses it again on a fixed interval
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"macro/internal/api"
	"macro/internal/capture"
	"macro/internal/config"
	"macro/internal/console"
	"macro/internal/i18n"
	"macro/internal/input"
	"macro/internal/playback"
	"macro/internal/session"
	"macro/internal/tray"
)

var (
	version    = "0.1.0"
	showVer    = flag.Bool("version", false, "Show version")
	configPath = flag.String("config", "", "Path to config file (default: per-user config dir)")
	headless   = flag.Bool("headless", false, "Use the console instead of the system tray")
	interval   = flag.String("interval", "1", "Seconds between presses, used by the tray and as console default")
	delay      = flag.String("delay", "0", "Seconds to wait before the first press")
	lang       = flag.String("lang", "", "Label language (en, pt, es); default follows the system locale")
	initConfig = flag.Bool("init-config", false, "Write a default config file and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("macro version %s\n", version)
		return
	}

	// Initialize config
	cfgMgr, err := config.NewManager(*configPath)
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	if *initConfig {
		if err := cfgMgr.Save(); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Wrote default config to %s\n", cfgMgr.Path())
		return
	}

	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}
	cfg := cfgMgr.Get()

	language := *lang
	if language == "" {
		language = cfg.General.Language
	}
	tr := i18n.Detect(language)
	log.Printf("Labels: %s", tr.Lang())

	runService(cfg, tr)
}

func runService(cfg config.Config, tr *i18n.Translator) {
	log.Println("Macro starting...")

	switch runtime.GOOS {
	case "darwin":
		log.Println("Note: capturing and pressing keys requires Accessibility permission")
	case "linux":
		log.Println("Note: input capture and injection require an X11 session")
	}

	device := input.Device{Listener: input.NewHook(), Emitter: input.NewInjector()}
	ctrl := session.New(
		capture.New(device),
		playback.NewLoop(device),
		session.WithTranslator(tr.T),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start API server if enabled
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(ctrl, cfg.API.Token)
		ctrl.Observe(apiServer)
		go func() {
			if err := apiServer.Start(cfg.API.Addr); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	// Front end
	var (
		runFrontEnd  func()
		stopFrontEnd func()
	)
	if *headless || !cfg.General.TrayEnabled {
		con := console.New(ctrl, os.Stdout, *interval, *delay)
		ctrl.Observe(con)
		runFrontEnd = func() {
			if err := con.Run(ctx, os.Stdin); err != nil {
				log.Printf("Console: %v", err)
			}
		}
		stopFrontEnd = cancel
	} else {
		t := tray.New("Macro")
		menu := tray.NewMenu(t, ctrl, tr.T, *interval, *delay, t.Stop)
		ctrl.Observe(menu)
		runFrontEnd = t.Run
		stopFrontEnd = t.Stop
	}

	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		if err := ctrl.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Session: %v", err)
		}
	}()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		stopFrontEnd()
	}()

	log.Println("Macro running. Press Ctrl+C to stop.")
	runFrontEnd()

	// Stops any capture or playback run and waits for it
	cancel()
	<-sessionDone

	if apiServer != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelShutdown()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API shutdown error: %v", err)
		}
	}
	log.Println("Macro stopped")
}
