package main

import (
	"flag"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/nlwealth/advisorforms/internal/api"
	"github.com/nlwealth/advisorforms/internal/config"
	"github.com/nlwealth/advisorforms/internal/db"
	"github.com/nlwealth/advisorforms/internal/middleware"
	"github.com/nlwealth/advisorforms/internal/notify"
	"github.com/nlwealth/advisorforms/internal/services"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("ADVISOR_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var store api.Store
	if cfg.SQLitePath != "" {
		store, err = db.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		log.Printf("using sqlite store at %s", cfg.SQLitePath)
	} else {
		store = api.NewMemoryStore()
		log.Printf("using in-memory store (set sqlite_path for persistence)")
	}

	var sink services.NotificationSink
	switch cfg.Notify.Mode {
	case "smtp":
		sink = notify.SMTPSink{Addr: cfg.Notify.SMTPAddr, From: cfg.Notify.From, To: cfg.Notify.To}
	default:
		sink = notify.LogSink{}
	}

	if err := seed(store, cfg); err != nil {
		log.Fatalf("seed: %v", err)
	}

	authn := middleware.NewAuthenticator([]byte(cfg.JWTSecret))
	router := api.NewRouter(store, api.Options{
		Authn:           authn,
		Notifier:        sink,
		LinkSecret:      []byte(cfg.JWTSecret),
		ScoreThresholds: cfg.ScoreThresholds,
		BaseURL:         cfg.BaseURL,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", router.Handler())

	// Frontend serving strategy (priority):
	// 1) Static files if ADVISOR_STATIC_DIR is set (fullstack image)
	// 2) Dev proxy if ADVISOR_DEV_FRONTEND_URL is set
	if staticDir := os.Getenv("ADVISOR_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	} else if devURL := os.Getenv("ADVISOR_DEV_FRONTEND_URL"); devURL != "" {
		if u, err := url.Parse(devURL); err == nil {
			mux.Handle("/", httputil.NewSingleHostReverseProxy(u))
		} else {
			log.Printf("invalid ADVISOR_DEV_FRONTEND_URL=%q: %v", devURL, err)
		}
	}

	log.Printf("AdvisorForms server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
