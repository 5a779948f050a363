// Package catalogservice boots the lorekeep HTTP service: config, store,
// upstream catalog client, LLM provider, background scoring worker and router.
package catalogservice

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/api"
	"github.com/lorekeep/lorekeep/internal/catalog"
	"github.com/lorekeep/lorekeep/internal/config"
	"github.com/lorekeep/lorekeep/internal/eval"
	"github.com/lorekeep/lorekeep/internal/generation"
	"github.com/lorekeep/lorekeep/internal/jobs"
	"github.com/lorekeep/lorekeep/internal/llm/openai"
	"github.com/lorekeep/lorekeep/internal/logger"
	"github.com/lorekeep/lorekeep/internal/notes"
	"github.com/lorekeep/lorekeep/internal/search"
	"github.com/lorekeep/lorekeep/internal/store/factory"
)

// Run starts the lorekeep HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("lorekeep")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	// Root context bound to SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}

	source := catalog.NewGraphQLClient(cfg.CatalogURL, cfg.ProviderTimeout, log)
	provider := openai.New(openai.Config{
		BaseURL:        cfg.OpenAIBaseURL,
		APIKey:         cfg.OpenAIAPIKey,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Timeout:        cfg.ProviderTimeout,
	})

	queue := jobs.NewQueue(log)
	generator := generation.NewService(source, provider, eval.New(log), st, queue, log)
	noteSvc := notes.NewService(st.Notes(), generator, log)
	engine := search.NewEngine(st.SearchIndex(), provider, log)

	worker := jobs.NewWorker(queue, generator, cfg.JobPollInterval, log)
	worker.Start()
	defer worker.Stop()

	router := api.NewRouter(api.Deps{
		Store:       st,
		Catalog:     source,
		Notes:       noteSvc,
		Generator:   generator,
		Search:      engine,
		CORSOrigins: cfg.CORSOriginList(),
		Log:         log,
	})

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}
