package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yerzhan-k/bizbot-go/internal/aggregator"
	"github.com/yerzhan-k/bizbot-go/internal/ai"
	"github.com/yerzhan-k/bizbot-go/internal/bus"
	"github.com/yerzhan-k/bizbot-go/internal/config"
	"github.com/yerzhan-k/bizbot-go/internal/convo"
	"github.com/yerzhan-k/bizbot-go/internal/notify"
	"github.com/yerzhan-k/bizbot-go/internal/platform"
	redisconn "github.com/yerzhan-k/bizbot-go/internal/redis"
	"github.com/yerzhan-k/bizbot-go/internal/responder"
	"github.com/yerzhan-k/bizbot-go/internal/store"
	"github.com/yerzhan-k/bizbot-go/internal/transport/queue"
	"github.com/yerzhan-k/bizbot-go/internal/transport/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the message aggregation pipeline",
	RunE:  runServe,
}

var (
	serveConfigPath string
	serveDev        bool
)

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Config file path")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "Run with an in-memory store instead of Postgres")
	rootCmd.AddCommand(serveCmd)
}

// stores bundles every persistence interface the pipeline touches.
type stores struct {
	users     store.UserStore
	sessions  store.SessionStore
	messages  store.MessageStore
	knowledge store.KnowledgeStore
	platforms store.PlatformStore
	close     func() error
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// AI backends
	models := ai.NewRegistry()
	if cfg.AI.OpenAIKey != "" {
		models.Register(store.ModelGPT, ai.NewOpenAIClient(cfg.AI.OpenAIKey, cfg.AI.OpenAIModel))
		log.Println("[Serve] GPT backend enabled")
	}
	if cfg.AI.GeminiKey != "" {
		models.Register(store.ModelGemini, ai.NewGeminiClient(cfg.AI.GeminiKey))
		log.Println("[Serve] Gemini backend enabled")
	}

	resolver := convo.NewResolver(st.users, st.sessions, st.messages)
	resp := responder.New(st.users, st.knowledge, resolver, models)

	msgBus := bus.NewMessageBus()
	go msgBus.DispatchOutbound(ctx)

	// One deliverer per (transport, platform): bursts go to the responder,
	// replies go back out tagged with the transport they arrived on.
	makeDeliverer := func(transport string, pf store.Platform) aggregator.Deliverer {
		return func(key bus.ConvKey, fragments []string, combined string) {
			resp.Respond(context.Background(), key.OwnerID, key.ChatUserID, pf, fragments, combined,
				func(chatUserID, text string, ownerID int64) {
					msgBus.PublishOutbound(bus.OutboundMessage{
						Transport:  transport,
						Platform:   pf,
						OwnerID:    ownerID,
						ChatUserID: chatUserID,
						Text:       text,
					})
				})
		}
	}

	hub := notify.NewHub()

	var buffers []*aggregator.Buffer
	var stoppers []func()

	// Stream transport (Redis Streams)
	if cfg.Redis.Enabled {
		client, err := redisconn.Connect(ctx, redisconn.Config{
			URL:      cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer client.Close()

		for _, pf := range []store.Platform{store.PlatformTelegram, store.PlatformWhatsApp} {
			pub := stream.NewPublisher(client, pf)
			msgBus.Subscribe("stream", pf, func(m bus.OutboundMessage) {
				pub.SendToUser(m.ChatUserID, m.Text, m.OwnerID)
			})

			buf := aggregator.New(makeDeliverer("stream", pf))
			buffers = append(buffers, buf)

			consumer := stream.NewConsumer(client, pf, buf, hub, st.platforms)
			consumer.Start(ctx)
			stoppers = append(stoppers, consumer.Stop)
			log.Printf("[Serve] stream consumer started for %s", pf)
		}
	}

	// Queue transport (Kafka)
	if cfg.Kafka.Enabled {
		for _, pf := range []store.Platform{store.PlatformTelegram, store.PlatformWhatsApp} {
			pub := queue.NewPublisher(cfg.Kafka.Brokers, pf)
			msgBus.Subscribe("queue", pf, func(m bus.OutboundMessage) {
				pub.SendToUser(m.ChatUserID, m.Text, m.OwnerID)
			})

			buf := aggregator.New(makeDeliverer("queue", pf))
			buffers = append(buffers, buf)

			consumer := queue.NewConsumer(cfg.Kafka.Brokers, pf, buf)
			consumer.Start(ctx)
			stoppers = append(stoppers, consumer.Stop)
			closer := pub
			stoppers = append(stoppers, func() { closer.Close() })
			log.Printf("[Serve] queue consumer started for %s", pf)
		}
	}

	if !cfg.Redis.Enabled && !cfg.Kafka.Enabled {
		return fmt.Errorf("no transport enabled; enable redis and/or kafka in config")
	}

	// Platform lifecycle services behind the control endpoint.
	platforms := platform.NewRegistry()
	platforms.Register(platform.NewTelegram(cfg.Bridges.TelegramURL, st.platforms, st.sessions))
	platforms.Register(platform.NewWhatsApp(cfg.Bridges.WhatsAppURL, st.platforms, st.sessions))

	srv := notifyServer(cfg.Notify.Addr, hub, platforms)
	go func() {
		log.Printf("[Serve] notification hub listening on %s", cfg.Notify.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Serve] ❌ hub server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down...")

	cancel()
	for _, stop := range stoppers {
		stop()
	}
	for _, buf := range buffers {
		buf.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	return nil
}

// openStores picks Postgres or the in-memory store for dev runs.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if serveDev || cfg.Postgres.DSN == "" {
		log.Println("[Serve] ⚠️ using in-memory store (no DSN configured)")
		mem := store.NewMemory()
		return stores{
			users: mem, sessions: mem, messages: mem,
			knowledge: mem, platforms: mem,
			close: func() error { return nil },
		}, nil
	}

	pg, err := store.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return stores{}, fmt.Errorf("postgres connect: %w", err)
	}
	return stores{
		users: pg, sessions: pg, messages: pg,
		knowledge: pg, platforms: pg,
		close: pg.Close,
	}, nil
}

// notifyServer exposes the WebSocket hub plus the thin platform control
// endpoints used by the dashboard backend.
func notifyServer(addr string, hub *notify.Hub, platforms *platform.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)

	control := func(action func(platform.Service, context.Context, int64, string) error) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			pf := store.Platform(r.URL.Query().Get("platform"))
			userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
			if err != nil {
				http.Error(w, "missing or invalid userId", http.StatusBadRequest)
				return
			}
			svc, err := platforms.For(pf)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := action(svc, r.Context(), userID, r.URL.Query().Get("apiToken")); err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}

	mux.HandleFunc("/platforms/start", control(func(svc platform.Service, ctx context.Context, userID int64, token string) error {
		return svc.Start(ctx, userID, token)
	}))
	mux.HandleFunc("/platforms/stop", control(func(svc platform.Service, ctx context.Context, userID int64, _ string) error {
		return svc.Stop(ctx, userID)
	}))

	return &http.Server{Addr: addr, Handler: mux}
}
