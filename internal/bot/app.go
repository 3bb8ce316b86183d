// Package bot wires the store, the research client, the payment bridge and
// the feature machines onto the telegram core and the webhook server.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/scholarbot/core/logger"
	tg "github.com/m3rciful/scholarbot/core/telegram"
	"github.com/m3rciful/scholarbot/core/telegram/commands"
	"github.com/m3rciful/scholarbot/core/telegram/helpers"
	"github.com/m3rciful/scholarbot/core/telegram/router"
	"github.com/m3rciful/scholarbot/core/telegram/sender"
	"github.com/m3rciful/scholarbot/core/telegram/state"
	"github.com/m3rciful/scholarbot/internal/access"
	"github.com/m3rciful/scholarbot/internal/config"
	"github.com/m3rciful/scholarbot/internal/features"
	"github.com/m3rciful/scholarbot/internal/files"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/metrics"
	"github.com/m3rciful/scholarbot/internal/payment"
	"github.com/m3rciful/scholarbot/internal/research"
	"github.com/m3rciful/scholarbot/internal/store"
	"github.com/m3rciful/scholarbot/internal/webhook"

	tele "gopkg.in/telebot.v4"
)

// App is the assembled bot process.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	store    *store.Store
	admin    AdminStore
	syncer   PlanSyncer
	gate     *access.Gate
	payments *payment.Switch
	flows    *flow.Controller
	registry *tg.Registry

	dispatcher *sender.Dispatcher
	notifier   *notifier
	server     *webhook.Server

	memSessions *state.MemoryStore[flow.Data]
	redis       *redis.Client

	bot atomic.Pointer[tele.Bot]
}

// New builds every component from cfg on top of an open database.
func New(ctx context.Context, cfg *config.Config, db *sqlx.DB) (*App, error) {
	st := store.New(db)
	payments := payment.NewSwitch(cfg.Payments.On())
	gate := access.NewGate(cfg.Telegram.AdminID, st, payments)

	rc, err := NewResearch(ctx, cfg.Research)
	if err != nil {
		return nil, err
	}

	storage, err := files.NewS3Storage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("bot: file storage: %w", err)
	}
	if storage == nil {
		logger.Info(ctx, logger.CompFiles, "storage.disabled")
	}

	bridge := payment.NewBridge(payment.BridgeOptions{
		Gateway:     payment.NewPaystack(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, 30*time.Second),
		Plans:       st,
		Switch:      payments,
		Currency:    cfg.Paystack.Currency,
		CallbackURL: cfg.Paystack.CallbackURL,
	})

	a := &App{
		cfg:      cfg,
		db:       db,
		store:    st,
		admin:    st,
		syncer:   bridge,
		gate:     gate,
		payments: payments,
		registry: tg.NewRegistry(),
	}

	sessions, err := a.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	a.flows, err = flow.NewController(sessions, features.Machines(features.Deps{
		Research:       rc,
		Store:          st,
		Documents:      files.NewService(storage),
		Checkout:       bridge,
		Payments:       payments,
		Subscribed:     gate.RequireSubscription,
		PaymentTimeout: cfg.Sessions.PaymentTimeout,
	})...)
	if err != nil {
		return nil, fmt.Errorf("bot: flows: %w", err)
	}

	a.dispatcher = sender.NewDispatcher(sender.Options{
		MaxRetries: 3,
		Observe:    metrics.ObserveOutbound,
	})
	a.notifier = &notifier{dispatcher: a.dispatcher}

	checks := map[string]webhook.Check{"db": db.PingContext}
	if storage != nil {
		checks["storage"] = storage.Health
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	a.server = webhook.NewServer(cfg.HTTP, webhook.NewHandler(cfg.Paystack.SecretKey, st, a.notifier), checks)

	a.register()
	return a, nil
}

// NewResearch builds the completion client: Groq first, Gemini second, and
// the public search backends.
func NewResearch(ctx context.Context, cfg config.ResearchConfig) (*research.Client, error) {
	var providers []research.Provider
	if cfg.GroqAPIKey != "" {
		providers = append(providers, research.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel,
			&http.Client{Timeout: cfg.Timeout}))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := research.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("bot: gemini: %w", err)
		}
		providers = append(providers, gemini)
	}
	searchers := []research.Searcher{
		research.NewWikipedia(research.WikipediaURL, cfg.SearchTimeout),
		research.NewDuckDuckGo(research.DuckDuckGoURL, cfg.SearchTimeout),
		research.NewOpenAlex(research.OpenAlexURL, cfg.SearchTimeout),
	}
	if cfg.SearxURL != "" {
		searchers = append(searchers, research.NewSearXNG(cfg.SearxURL, cfg.SearchTimeout))
	}
	return research.NewClient(research.Options{
		Providers:  providers,
		Searchers:  searchers,
		Timeout:    cfg.Timeout,
		MaxHistory: cfg.MaxHistory,
	}), nil
}

func (a *App) sessionStore(ctx context.Context) (state.Store[flow.Data], error) {
	s := a.cfg.Sessions
	if s.Backend == config.SessionBackendRedis {
		client, err := state.NewRedisClient(ctx, s.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("bot: sessions: %w", err)
		}
		a.redis = client
		logger.Info(ctx, logger.CompSessions, "backend", slog.String("backend", s.Backend))
		return state.NewRedisStore[flow.Data](client, state.RedisOptions{Prefix: "scholarbot:session:", IdleTTL: s.IdleTTL}), nil
	}
	a.memSessions = state.NewMemoryStore[flow.Data](nil, s.IdleTTL)
	logger.Info(ctx, logger.CompSessions, "backend", slog.String("backend", config.SessionBackendMemory))
	return a.memSessions, nil
}

func (a *App) files() Downloader {
	if b := a.bot.Load(); b != nil {
		return b
	}
	return nil
}

func (a *App) register() {
	r := a.registry
	r.RegisterCommand("/start", commands.Command{Handler: a.onStart, Description: "Open the main menu"})
	r.RegisterCommand("/help", commands.Command{Handler: a.onHelp, Description: "How to use the bot"})
	r.RegisterCommand("/cancel", commands.Command{Handler: a.onCancel, Description: "Cancel the current conversation"})
	r.RegisterCommand("/admin", commands.Command{Handler: a.onAdmin, Description: "Admin panel", AdminOnly: true})

	r.MustRegisterCallback(features.BackToMenu, a.onBackToMenu)
	r.MustRegisterCallback(features.MenuHelp, a.onHelp)
	for _, m := range a.flows.Machines() {
		if m.Entry != "" {
			r.MustRegisterCallback(m.Entry, a.enter(m.Feature))
		}
	}
	for token, kind := range features.FlowButtons {
		r.MustRegisterCallback(token, a.flowButton(kind))
	}

	r.MustRegisterCallback(features.MenuAdmin, a.adminOnly(a.onAdmin))
	r.MustRegisterCallback(AdminDashboard, a.adminOnly(a.onAdminDashboard))
	r.MustRegisterCallback(AdminUsers, a.adminOnly(a.onAdminUsers))
	r.MustRegisterCallback(AdminPricing, a.adminOnly(a.onAdminPricing))
	r.MustRegisterCallback(AdminSyncPlans, a.adminOnly(a.onAdminSyncPlans))
	r.MustRegisterCallback(AdminPayments, a.adminOnly(a.onAdminPayments))
	r.MustRegisterCallback(AdminTogglePayments, a.adminOnly(a.onAdminTogglePayments))
	r.MustRegisterCallback(AdminClose, a.adminOnly(a.onAdminClose))
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	fb := fallbacks{app: a}
	router.SetSummaryObserver(metrics.ObserveHandler)

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		IsAdmin: a.gate.IsAdmin,
		OnAdminReject: func(c tele.Context) error {
			return helpers.SendText(c, access.DeniedText)
		},
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{NotFound: fb.UnknownCallback()}))
	routes = append(routes, router.TextRoutes(conversation{app: a}, a.registry, router.TextOptions{
		UnknownText:     fb.UnknownText(),
		UnknownDocument: fb.UnknownDocument(),
	})...)

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, fb.RateLimited()),
		Routes:      routes,
		OnBot: func(b *tele.Bot) {
			a.bot.Store(b)
			a.notifier.setBot(b)
		},
		OnStart: a.start,
		OnStop:  a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, _ tg.Runtime) error {
	if a.memSessions != nil {
		go a.memSessions.RunJanitor(ctx, time.Minute)
	}
	if err := a.server.Start(ctx); err != nil {
		return fmt.Errorf("bot: webhook server: %w", err)
	}
	return nil
}

func (a *App) stop(ctx context.Context, _ tg.Runtime) error {
	err := a.server.Shutdown(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompHTTP, "shutdown", slog.String("err", err.Error()))
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if cerr := a.db.Close(); cerr != nil {
		logger.Warn(ctx, logger.CompDB, "close", slog.String("err", cerr.Error()))
	}
	return err
}
