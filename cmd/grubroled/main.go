// Command grubroled wires every package in this module into the
// dependency graph spec.md §2 describes: config -> cache -> model client
// -> classifiers -> providers -> enrichment -> session -> orchestrator.
// It exposes the minimum HTTP surface needed to exercise that graph end
// to end (one search endpoint, one WebSocket upgrade) — the full REST
// API and its request/response contracts are out of scope (spec.md §1);
// this file exists to prove the wiring compiles and runs, not to be a
// production HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shacharon/grubroute/classifiers/gate"
	"github.com/shacharon/grubroute/classifiers/intent"
	"github.com/shacharon/grubroute/classifiers/route"
	"github.com/shacharon/grubroute/config"
	"github.com/shacharon/grubroute/enrichment"
	"github.com/shacharon/grubroute/internal/cache"
	"github.com/shacharon/grubroute/internal/logging"
	"github.com/shacharon/grubroute/modelclient"
	"github.com/shacharon/grubroute/orchestrator"
	"github.com/shacharon/grubroute/providers"
	"github.com/shacharon/grubroute/providers/geocode"
	"github.com/shacharon/grubroute/providers/places"
	"github.com/shacharon/grubroute/providers/search"
	"github.com/shacharon/grubroute/session"
	"github.com/shacharon/grubroute/types"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app, err := wire(cfg, logger)
	if err != nil {
		logger.Fatal("wire failed", zap.Error(err))
	}
	defer app.cacheMgr.Close()
	defer app.enrichment.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/search", app.handleSearch)
	mux.HandleFunc("/ws", app.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.WSPort),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// app holds every wired dependency the HTTP handlers need.
type app struct {
	cfg          *config.Config
	cacheMgr     *cache.Manager
	orchestrator *orchestrator.Orchestrator
	enrichment   *enrichment.Service
	manager      *session.Manager
	hub          *session.Hub
	logger       *zap.Logger
}

// wire builds the full dependency graph in this order: cache.Manager ->
// modelclient.Client -> classifiers -> places/geocode clients -> session
// manager/hub -> search engine and enrichment service -> orchestrator.
// The hub is built before the enrichment service because the service
// publishes its patches through it.
func wire(cfg *config.Config, logger *zap.Logger) (*app, error) {
	cacheMgr, err := cache.NewManager(cache.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DefaultTTL:   time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("cache manager: %w", err)
	}

	modelCfg := modelclient.Config{
		APIKey:  cfg.ModelClient.APIKey,
		BaseURL: cfg.ModelClient.BaseURL,
		Model:   cfg.ModelClient.Model,
		Timeout: cfg.ModelClient.Timeout,
	}
	client := modelclient.New(modelCfg, logger)

	gateClassifier := gate.New(client, logger)
	intentClassifier := intent.New(client, cacheMgr, logger)
	routeClassifier := route.New(client, logger)

	placesClient := places.New(providers.PlacesConfig{
		APIKey:  cfg.Places.APIKey,
		BaseURL: cfg.Places.BaseURL,
		Timeout: cfg.Places.Timeout,
	}, cacheMgr, logger)
	geocodeClient := geocode.New(providers.GeocodeConfig{
		APIKey:  cfg.Geocode.APIKey,
		BaseURL: cfg.Geocode.BaseURL,
		Timeout: cfg.Geocode.Timeout,
	}, cacheMgr, logger)

	manager := session.NewManager(cfg.Features.WSRequireAuth, logger)
	hub := session.NewHub(manager, logger)
	go evictBacklogsPeriodically(hub)

	searchProvider := search.Select(
		search.BraveConfig{APIKey: cfg.Brave.APIKey, BaseURL: cfg.Brave.BaseURL, Timeout: cfg.Brave.Timeout},
		search.GoogleCSEConfig{APIKey: cfg.GoogleCSE.APIKey, SearchEngineID: cfg.GoogleCSE.SearchEngineID, BaseURL: cfg.GoogleCSE.BaseURL, Timeout: cfg.GoogleCSE.Timeout},
		logger,
	)
	searchByProvider := map[types.DeliveryProvider]enrichment.SearchProvider{
		types.ProviderWolt:     searchProvider,
		types.ProviderTenBis:   searchProvider,
		types.ProviderMishloha: searchProvider,
	}
	enabled := map[types.DeliveryProvider]bool{
		types.ProviderWolt:     cfg.Features.EnableWoltEnrichment,
		types.ProviderTenBis:   cfg.Features.EnableTenBisEnrichment,
		types.ProviderMishloha: cfg.Features.EnableMishlohaEnrichment,
	}
	enrichmentService := enrichment.NewService(enabled, cacheMgr, searchByProvider, hub, logger)

	orch := orchestrator.New(
		gateClassifier,
		intentClassifier,
		routeClassifier,
		placesClient,
		geocodeClient,
		enrichmentService,
		hub,
		cfg.Stages,
		logger,
	)

	return &app{
		cfg:          cfg,
		cacheMgr:     cacheMgr,
		orchestrator: orch,
		enrichment:   enrichmentService,
		manager:      manager,
		hub:          hub,
		logger:       logger,
	}, nil
}

func evictBacklogsPeriodically(hub *session.Hub) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		hub.EvictExpired(time.Now())
	}
}

// handleSearch runs one request through the orchestrator synchronously
// and registers the job's owner so subsequent WebSocket subscriptions
// (and any enrichment patches that land before one attaches) can be
// authorized and replayed.
func (a *app) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	a.manager.RegisterOwner(req.RequestID, types.OwnerRecord{OwnerSessionID: req.SessionID})

	resp := a.orchestrator.Run(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleWebSocket upgrades the connection and dispatches subscribe,
// unsubscribe, and pong frames into the session hub until the client
// disconnects or the heartbeat declares it dead.
func (a *app) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}

	connID := uuid.NewString()
	conn := session.NewConn(connID, ws, a.logger)
	done := make(chan struct{})
	hb := session.NewHeartbeat(conn, a.cfg.Server.HeartbeatInterval, a.cfg.Server.IdleTimeout, func() {
		a.manager.RemoveSubscriber(conn)
		close(done)
	}, a.logger)
	go hb.Run(done)

	identity := identityFromRequest(r)
	ctx := r.Context()
	for {
		msg, err := conn.Read(ctx)
		if err != nil {
			_ = conn.Close()
			return
		}
		hb.Touch()

		switch msg.Type {
		case session.MsgPong:
			hb.Pong()
		case session.MsgSubscribe:
			ack, nackReason := a.hub.Subscribe(conn, msg.Channel, msg.RequestID, identity)
			if ack {
				_ = conn.Send(session.Message{Type: session.MsgSubAck, Channel: msg.Channel, RequestID: msg.RequestID})
			} else {
				_ = conn.Send(session.Message{Type: session.MsgSubNack, Channel: msg.Channel, RequestID: msg.RequestID, Reason: nackReason})
			}
		case session.MsgUnsubscribe:
			a.hub.Unsubscribe(conn, msg.Channel, msg.RequestID)
		}
	}
}

// identityFromRequest reads the caller's identity from whatever
// upstream auth middleware attached. No such middleware is in scope
// here (spec.md §1 non-goals), so unauthenticated connections are
// treated as the documented anonymous identity — only ever accepted
// when ws_require_auth is false.
func identityFromRequest(r *http.Request) session.Identity {
	return session.Identity{
		UserID:    r.Header.Get("X-User-Id"),
		SessionID: firstNonEmpty(r.Header.Get("X-Session-Id"), "anonymous"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
