package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/rillfeed/rill/internal/api"
	"github.com/rillfeed/rill/internal/config"
	"github.com/rillfeed/rill/internal/log"
	"github.com/rillfeed/rill/internal/media"
	"github.com/rillfeed/rill/internal/player"
	"github.com/rillfeed/rill/internal/service"
	"github.com/rillfeed/rill/internal/store"
	"github.com/rillfeed/rill/internal/tui"
	"github.com/rillfeed/rill/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	// Handle version flag
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("rill %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting rill", "version", Version)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("rill needs an interactive terminal")
	}

	// Check if configured
	if !cfg.IsConfigured() {
		return runSetupFlow(cfg)
	}

	// Create the API client and the on-disk cache behind it
	client := api.NewClient(cfg.Server.URL, cfg.Server.Token, cfg.Server.ClientID, logger)

	feedStore, err := store.NewFeedStore(config.CachePath(), cfg.Server.URL)
	if err != nil {
		logger.Warn("cache unavailable, running without persistence", "error", err)
		feedStore, _ = store.NewFeedStore("", cfg.Server.URL)
	}
	defer feedStore.Close()

	feedSvc := service.NewFeedService(client, feedStore, cfg.UI.EntryLimit, cfg.UI.CacheMaxAge, logger)

	// Playback: one mpv resource per engine, plus a yt-dlp resolving one
	audioRes := player.New(player.Options{
		Command:   cfg.Player.Command,
		Args:      cfg.Player.Args,
		SocketDir: cfg.Player.SocketDir,
		AudioOnly: true,
		Logger:    logger,
	})
	videoRes := player.New(player.Options{
		Command:   cfg.Player.Command,
		Args:      cfg.Player.Args,
		SocketDir: cfg.Player.SocketDir,
		Logger:    logger,
	})
	youtubeRes := player.NewYouTube(player.New(player.Options{
		Command:   cfg.Player.Command,
		Args:      cfg.Player.Args,
		SocketDir: cfg.Player.SocketDir,
		Logger:    logger,
	}), logger)

	audio := media.NewAudioEngine(audioRes, logger)
	video := media.NewVideoEngine(videoRes, youtubeRes, logger)
	media.Wire(media.NewCoordinator(), audio, video)

	// Session snapshots flow to the TUI over one buffered channel
	sessionCh := make(chan tui.SessionUpdate, 16)
	audio.Subscribe(tui.NewChannelObserver("audio", sessionCh))
	video.Subscribe(tui.NewChannelObserver("video", sessionCh))

	model := tui.NewModel(feedSvc, audio, video, sessionCh, cfg.Playback.RecentLimit, cfg.UI.ShowRead)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	// Engines stop on quit, but a crash path can leave players behind
	audio.Stop()
	video.Stop()

	logger.Info("shutting down")
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to rill!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var serverURL string
	for {
		fmt.Print("Enter your feed server URL (e.g., https://reader.example.com): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimRight(strings.TrimSpace(input), "/")
		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}
		if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
			serverURL = "https://" + serverURL
		}
		break
	}

	fmt.Print("Enter your API token (input hidden): ")
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return fmt.Errorf("API token cannot be empty")
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = token

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(styles.SuccessStyle.Render("✓ Configuration saved!"))
	fmt.Println()
	fmt.Println("Run rill again to start the application.")

	return nil
}
