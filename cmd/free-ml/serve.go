package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/drakos74/free-ml/internal/pipeline"
	"github.com/drakos74/free-ml/internal/profile"
	"github.com/drakos74/free-ml/internal/server"
	"github.com/drakos74/free-ml/internal/session"
	json_storage "github.com/drakos74/free-ml/internal/storage/file/json"
	"github.com/drakos74/free-ml/internal/storage/sqlite"
	"github.com/drakos74/free-ml/internal/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const evictInterval = time.Minute

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
	cmd.Flags().Int("port", 6090, "port to listen on")
	cmd.Flags().String("root", "", "directory of the session workspaces")
	cmd.Flags().Bool("debug", false, "log every request")
	a.bind(cmd, "server.port", "port")
	a.bind(cmd, "storage.root", "root")
	a.bind(cmd, "server.debug", "debug")
	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	cfg := a.cfg
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := json_storage.NewWorkspace(cfg.Storage.Root)
	if err != nil {
		return err
	}
	runs, err := sqlite.Open(filepath.Join(ws.Root(), sqlite.DefaultFile))
	if err != nil {
		return err
	}
	defer runs.Close()

	reports, err := profile.NewCache(cfg.Profile.CacheSize)
	if err != nil {
		return fmt.Errorf("could not create report cache: %w", err)
	}

	sessions := session.NewManager(ws, cfg.Session.MaxAge)
	go sessions.Run(ctx, evictInterval)

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("could not generate session secret: %w", err)
		}
		log.Warn().Msg("no session secret configured, cookies will not survive a restart")
	}

	h := web.New(pipeline.New(sessions, runs, reports, cfg.Pipeline()), web.Config{
		Title:    "free-ml",
		Secret:   secret,
		MaxAge:   cfg.Session.MaxAge,
		MaxBytes: cfg.Upload.MaxBytes,
		Debug:    cfg.Server.Debug,
	})

	srv := server.NewServer("free-ml", cfg.Server.Port).
		Errors(web.Status).
		Add(h.Routes()...)
	if cfg.Server.Debug {
		srv = srv.Debug()
	}
	log.Info().
		Str("root", ws.Root()).
		Dur("max-age", cfg.Session.MaxAge).
		Int64("max-bytes", cfg.Upload.MaxBytes).
		Msg("serving sessions")
	return srv.Run(ctx)
}
