package main

import (
	"flag"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Fizmath/Agentic-RAG-APP/internal/api"
	"github.com/Fizmath/Agentic-RAG-APP/internal/config"
	"github.com/Fizmath/Agentic-RAG-APP/internal/notify"
	"github.com/Fizmath/Agentic-RAG-APP/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, serverURL string
	var debug bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragtui/config.yaml if not provided)")
	flag.StringVar(&serverURL, "server", "", "Backend base URL (overrides config and RAG_SERVER_URL)")
	flag.BoolVar(&debug, "debug", false, "Write diagnostics to ragtui.log")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if env := os.Getenv("RAG_SERVER_URL"); env != "" {
		cfg.Server.URL = env
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}

	// The terminal belongs to the TUI; diagnostics go to a file or nowhere.
	if debug {
		f, err := tea.LogToFile("ragtui.log", "ragtui")
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	client := api.NewClient(api.Config{
		BaseURL: cfg.Server.URL,
		Timeout: time.Duration(cfg.Server.TimeoutSecs) * time.Second,
	})
	feed := notify.NewFeed(cfg.Notify.MaxVisible, time.Duration(cfg.Notify.ExpirySecs)*time.Second)

	m := tui.New(client, cfg.Server.DebugPointsLimit, feed)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
