package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/medbook/internal/admin"
	"github.com/mmcdole/medbook/internal/api"
	"github.com/mmcdole/medbook/internal/appointment"
	"github.com/mmcdole/medbook/internal/auth"
	"github.com/mmcdole/medbook/internal/chat"
	"github.com/mmcdole/medbook/internal/config"
	"github.com/mmcdole/medbook/internal/doctor"
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/log"
	"github.com/mmcdole/medbook/internal/metrics"
	"github.com/mmcdole/medbook/internal/notification"
	"github.com/mmcdole/medbook/internal/order"
	"github.com/mmcdole/medbook/internal/pharmacy"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
	"github.com/mmcdole/medbook/internal/store"
	"github.com/mmcdole/medbook/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `usage: medbook <command> [flags]

commands:
  login                  sign in
  register               create an account and sign in
  logout                 sign out and clear cached data
  refresh                renew the session token
  whoami                 show the signed-in user
  appointments           list appointments (--tab, or --patient/--doctor for staff)
  show <id>              show an appointment (--watch to follow its status)
  book                   book an appointment
  cancel <id>            cancel an appointment
  accept <id>            accept a booking (doctor)
  reject <id>            reject a booking (doctor)
  status <id>            update status or payment of an appointment
  notifications          list notifications (--watch, --read <id>, --read-all, --delete <id>)
  orders                 list pharmacy orders
  order <id>             show an order (--shipping-fee, --cancel)
  pay <id>               pay an order
  products [query]       list or search the pharmacy catalogue
  product <id>           show a product
  buy <id>               order a product (--qty, --address)
  doctors                list doctors (--search, --category)
  doctor <id>            show a doctor profile (--bio, --fee, --specialty to update)
  chat [id]              list conversations or a thread (--watch, --send text)
  admin <panel>          stats, users, appointments, activate|deactivate|delete-user <id>
  tui                    interactive terminal UI
`

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if showVersion {
		fmt.Printf("medbook %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", domain.UserMessage(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := log.Setup(cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting medbook", "version", Version)

	if !cfg.IsConfigured() {
		if err := runSetupFlow(cfg); err != nil {
			return err
		}
	}

	if len(args) == 0 {
		args = []string{"tui"}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Metrics.Listen != "" {
		shutdown := serveMetrics(cfg.Metrics.Listen, a.recorder, logger)
		defer shutdown()
	}

	return a.dispatch(ctx, args[0], args[1:])
}

// app holds the wired services for one process
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	cache    *query.Client
	recorder *metrics.Recorder
	out      io.Writer

	// program is set while the TUI owns the terminal
	program atomic.Pointer[tea.Program]

	auth          *auth.Service
	appointments  *appointment.Service
	orders        *order.Service
	pharmacy      *pharmacy.Service
	notifications *notification.Service
	chat          *chat.Service
	doctors       *doctor.Service
	admin         *admin.Service
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.Open(cfg.Storage.DataDir, cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	recorder := metrics.NewRecorder(nil)

	session := auth.NewSession(st, logger)

	client := api.NewClient(cfg.API.BaseURL,
		api.WithSession(session),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		api.WithLogger(logger),
		api.WithRecorder(recorder),
	)

	cacheOpts := []query.Option{
		query.WithStaleTime(cfg.Cache.StaleTime),
		query.WithGCTime(cfg.Cache.GCTime),
		query.WithLogger(logger),
		query.WithRecorder(recorder),
		query.WithDependencies(resource.Dependencies()),
	}
	if cfg.Cache.Persist {
		cacheOpts = append(cacheOpts, query.WithPersister(st))
	}
	cache := query.New(cacheOpts...)

	a := &app{
		cfg:           cfg,
		logger:        logger,
		store:         st,
		cache:         cache,
		recorder:      recorder,
		out:           os.Stdout,
		auth:          auth.NewService(client, session, cache, logger),
		appointments:  appointment.NewService(client, cache, logger),
		orders:        order.NewService(client, cache, logger),
		pharmacy:      pharmacy.NewService(client, client, cache, logger),
		notifications: notification.NewService(client, cache, cfg.Polling.UnreadInterval, logger),
		chat:          chat.NewService(client, cache, cfg.Polling.ChatInterval, logger),
		doctors:       doctor.NewService(client, cache, logger),
		admin:         admin.NewService(client, cache, logger),
	}
	session.OnExpired(a.sessionExpired)
	return a, nil
}

// sessionExpired tells the user the server rejected their token. While the TUI
// owns the terminal the notice goes through the program instead of stderr.
func (a *app) sessionExpired() {
	if p := a.program.Load(); p != nil {
		p.Send(tui.SessionExpiredMsg{})
		return
	}
	fmt.Fprintln(os.Stderr, "Your session has expired. Run 'medbook login' to sign in again.")
}

// Close stops background fetches and releases the store
func (a *app) Close() {
	a.cache.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "tui":
		return a.runTUI()
	}

	if !a.auth.Session().IsAuthenticated() {
		return errors.New("not signed in, run 'medbook login'")
	}

	switch cmd {
	case "refresh":
		return a.refresh(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "appointments":
		return a.listAppointments(ctx, args)
	case "show":
		return a.showAppointment(ctx, args)
	case "book":
		return a.book(ctx, args)
	case "cancel":
		return a.cancel(ctx, args)
	case "accept":
		return a.accept(ctx, args)
	case "reject":
		return a.reject(ctx, args)
	case "status":
		return a.updateStatus(ctx, args)
	case "notifications":
		return a.listNotifications(ctx, args)
	case "orders":
		return a.listOrders(ctx, args)
	case "order":
		return a.showOrder(ctx, args)
	case "pay":
		return a.pay(ctx, args)
	case "products":
		return a.products(ctx, args)
	case "product":
		return a.showProduct(ctx, args)
	case "buy":
		return a.buy(ctx, args)
	case "doctors":
		return a.listDoctors(ctx, args)
	case "doctor":
		return a.showDoctor(ctx, args)
	case "chat":
		return a.chatCmd(ctx, args)
	case "admin":
		return a.adminCmd(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// runSetupFlow asks for the API address on first run
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to medbook!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter the booking API URL (e.g., https://api.example.com/api): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		baseURL := strings.TrimSpace(input)
		if baseURL == "" {
			fmt.Println("API URL cannot be empty. Please try again.")
			continue
		}
		cfg.API.BaseURL = baseURL
		break
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	return nil
}

// serveMetrics exposes the Prometheus handler until the returned func is called
func serveMetrics(addr string, rec *metrics.Recorder, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
