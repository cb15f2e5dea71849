package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deepgram/grokgate/internal/api/v1/handlers"
	v1mware "github.com/deepgram/grokgate/internal/api/v1/middleware"
	"github.com/deepgram/grokgate/internal/config"
	"github.com/deepgram/grokgate/internal/logger"
	"github.com/deepgram/grokgate/internal/services"
	"github.com/deepgram/grokgate/pkg/httpext"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envFile string
	host    string
	port    int
)

var rootCmd = &cobra.Command{
	Use:   "grokgate",
	Short: "OpenAI-compatible chat completions in front of Grok",
	Long: `grokgate serves the OpenAI chat completions API and forwards every
conversation turn to Grok, streaming the reply back as chat completion chunks.`,
	PersistentPreRun: loadEnvFile,
	RunE:             serve,
	SilenceUsage:     true,
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "file to load environment variables from")
	rootCmd.Flags().StringVar(&host, "host", "", "listen host (overrides HOST)")
	rootCmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadEnvFile(cmd *cobra.Command, _ []string) {
	if err := godotenv.Load(envFile); err != nil {
		if cmd.Flags().Changed("env-file") {
			log.Warn().Err(err).Str("file", envFile).Msg("Failed to load env file")
			return
		}
		log.Debug().Msg("No .env file found, using environment variables")
	}
}

func serve(cmd *cobra.Command, _ []string) error {
	logger.Setup(config.GetLogConfig())

	serverConfig := config.GetServerConfig()
	if cmd.Flags().Changed("host") {
		serverConfig.Host = host
	}
	if cmd.Flags().Changed("port") {
		serverConfig.Port = port
	}

	svcs, err := services.InitializeServices()
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		return err
	}

	server := &http.Server{
		Addr:              serverConfig.Addr(),
		Handler:           setupRouter(svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			svcs.Shutdown()
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", serverConfig.ShutdownTimeout).Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Streams still open after shutdown timeout, cancelling")
		svcs.Shutdown()
		_ = server.Close()
		return nil
	}

	svcs.Shutdown()
	log.Info().Msg("Server stopped")
	return nil
}

func setupRouter(svcs *services.Services) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	r.Use(v1mware.RequestLog(svcs.GetMetrics()), v1mware.CORS)

	if m := svcs.GetMetrics(); m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	handlers.RegisterV1Routes(r, svcs)
	return r
}
