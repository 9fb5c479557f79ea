package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gnemet/listview"
	"github.com/gnemet/listview/database/sessionpool"
	"github.com/gnemet/listview/database/spstore"
	"github.com/gnemet/listview/internal/viewdef"
)

type Config struct {
	Application struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Author  string `yaml:"author"`
	} `yaml:"application"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database []struct {
		Name     string `yaml:"name"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		Schema   string `yaml:"schema"`
		Default  bool   `yaml:"default"`
	} `yaml:"database"`
	Pool struct {
		MaxConnections int    `yaml:"max_connections"`
		IdleTimeout    string `yaml:"idle_timeout"`
		MaxLifetime    string `yaml:"max_lifetime"`
	} `yaml:"pool"`
	Sessions struct {
		MaxSessions int    `yaml:"max_sessions"`
		IdleTimeout string `yaml:"idle_timeout"`
		AbsTimeout  string `yaml:"abs_timeout"`
	} `yaml:"sessions"`
	Views struct {
		Path           string `yaml:"path"`
		ContainerWidth int    `yaml:"container_width"`
		IconField      string `yaml:"icon_field"`
	} `yaml:"views"`
}

func loadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) connString() (string, error) {
	for _, d := range c.Database {
		if d.Default {
			schema := d.Schema
			if schema == "" {
				schema = "public"
			}
			return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable search_path=%s,public",
				d.Host, d.Port, d.User, d.Password, d.Database, schema), nil
		}
	}
	return "", fmt.Errorf("no default database configured")
}

func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// loadLayouts reads every view definition under dir, keyed by list title.
func loadLayouts(dir string) (map[string]listview.Props, error) {
	layouts := make(map[string]listview.Props)
	if dir == "" {
		return layouts, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := viewdef.FormatOf(e.Name()); err != nil {
			continue
		}
		def, err := viewdef.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := layouts[def.List]; dup {
			slog.Warn("Duplicate view definition, keeping the first", "list", def.List, "file", e.Name())
			continue
		}
		layouts[def.List] = def.Props(nil)
		slog.Info("Loaded view definition", "list", def.List, "file", e.Name())
	}
	return layouts, nil
}

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	connStr, err := cfg.connString()
	if err != nil {
		slog.Error("Invalid database config", "error", err)
		os.Exit(1)
	}

	maxConns := cfg.Pool.MaxConnections
	if maxConns == 0 {
		maxConns = 10
	}
	store, err := spstore.Open(connStr, maxConns,
		duration(cfg.Pool.IdleTimeout, 5*time.Minute),
		duration(cfg.Pool.MaxLifetime, time.Hour))
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sessions := sessionpool.New(cfg.Sessions.MaxSessions,
		duration(cfg.Sessions.IdleTimeout, 15*time.Minute),
		duration(cfg.Sessions.AbsTimeout, 4*time.Hour))
	defer sessions.Close()

	layouts, err := loadLayouts(cfg.Views.Path)
	if err != nil {
		slog.Error("Failed to load view definitions", "error", err)
		os.Exit(1)
	}

	handler := listview.NewHandler(store, sessions)
	handler.ContainerWidth = cfg.Views.ContainerWidth
	handler.IconFieldName = cfg.Views.IconField
	handler.Layouts = layouts

	mux := http.NewServeMux()
	mux.Handle("/items", handler)
	api := &pickerAPI{source: store}
	mux.HandleFunc("GET /lists", api.lists)
	mux.HandleFunc("GET /fields", api.fields)
	mux.HandleFunc("POST /fields/reorder", api.reorder)
	mux.HandleFunc("POST /fields/toggle", api.toggle)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":     cfg.Application.Name,
			"version":  cfg.Application.Version,
			"sessions": sessions.Len(),
		})
	})

	port := strings.TrimSpace(cfg.Server.Port)
	if port == "" {
		port = "8080"
	}
	slog.Info("List view server starting", "name", cfg.Application.Name, "port", port, "layouts", len(layouts))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
