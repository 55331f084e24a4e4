package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/app"
	"github.com/photostream/photostream-api/internal/config"
	"github.com/photostream/photostream-api/internal/domain/auth"
	"github.com/photostream/photostream-api/internal/pkg/database"
	"github.com/photostream/photostream-api/internal/pkg/logger"
	"github.com/photostream/photostream-api/internal/pkg/validator"
)

const usage = `usage: photostream-admin <command> [flags]

commands:
  create-creator -email E -username U -password P
  clear-cache
  migrate up|down`

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "admin"})

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "create-creator":
		err = createCreator(ctx, cfg, os.Args[2:])
	case "clear-cache":
		err = clearCache(ctx, cfg)
	case "migrate":
		err = migrate(cfg, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

// parseCreator reads and validates create-creator flags with the same rules
// as public registration.
func parseCreator(args []string) (*auth.RegisterRequest, error) {
	fs := flag.NewFlagSet("create-creator", flag.ContinueOnError)
	req := &auth.RegisterRequest{}
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Username, "username", "", "public username")
	fs.StringVar(&req.Password, "password", "", "initial password")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if errs := validator.Validate(req); errs != nil {
		parts := make([]string, 0, len(errs))
		for field, msg := range errs {
			parts = append(parts, field+": "+msg)
		}
		return nil, fmt.Errorf("invalid creator: %s", strings.Join(parts, "; "))
	}
	return req, nil
}

func createCreator(ctx context.Context, cfg *config.Config, args []string) error {
	req, err := parseCreator(args)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	identity, err := application.Auth.CreateCreator(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", identity.ID.String()).Str("username", identity.Username).Msg("Creator created")
	return nil
}

func clearCache(ctx context.Context, cfg *config.Config) error {
	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	if !application.Cache.Enabled() {
		return errors.New("cache is not reachable")
	}
	removed := application.Photos.FlushCache(ctx)
	log.Info().Int("keys", removed).Msg("Photo cache cleared")
	return nil
}

func migrate(cfg *config.Config, args []string) error {
	if len(args) != 1 || (args[0] != "up" && args[0] != "down") {
		return errors.New("migrate expects up or down")
	}

	mg, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer mg.Close()

	if args[0] == "up" {
		return mg.Up()
	}
	if err := mg.Down(); err != nil {
		return err
	}
	log.Info().Msg("Rolled back one migration")
	return nil
}
