package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"gnotes/internal/config"
	"gnotes/internal/data"
	"gnotes/internal/hasher"
	"gnotes/internal/store"
	"gnotes/internal/web"
)

func main() {
	setupLogging()

	cmd := &cli.Command{
		Name:  "gnotes",
		Usage: "Personal note-taking web service with shareable links",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: runServe,
			},
			{
				Name:      "user-add",
				Usage:     "Create a user from the terminal",
				ArgsUsage: "<username>",
				Action:    runUserAdd,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", "err", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, _ *cli.Command) error {
	cfg := config.Load()

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := web.NewServer(cfg, data.New(st))
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runUserAdd(ctx context.Context, cmd *cli.Command) error {
	username := strings.TrimSpace(cmd.Args().First())
	if username == "" {
		return errors.New("usage: gnotes user-add <username>")
	}
	cfg := config.Load()

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	db := data.New(st)

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password must not be empty")
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	digest, err := hasher.Hash(password, cfg.ModernHash)
	if err != nil {
		return err
	}
	if err := db.CreateUser(ctx, username, digest); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "created user %s\n", username)
	return nil
}

func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pass)), nil
}
