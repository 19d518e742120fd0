// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agora-social/agora/internal/api"
	"github.com/agora-social/agora/internal/app"
	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/config"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/profile"
	"github.com/agora-social/agora/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = time.Minute

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	timeout time.Duration
}

// Fixtures is the seed file layout.
type Fixtures struct {
	Accounts []AccountFixture `yaml:"accounts"`
}

// AccountFixture is one account with its optional profile and posts.
type AccountFixture struct {
	Name     string          `yaml:"name"`
	Email    string          `yaml:"email"`
	Password string          `yaml:"password"`
	Profile  *ProfileFixture `yaml:"profile"`
	Posts    []string        `yaml:"posts"`
}

// ProfileFixture is a profile plus its experience and education entries.
type ProfileFixture struct {
	profile.UpsertInput `yaml:",inline"`
	Experience          []profile.ExperienceInput `yaml:"experience"`
	Education           []profile.EducationInput  `yaml:"education"`
}

// seedServices are the services the seeder drives.
type seedServices struct {
	auth     api.AuthService
	tokens   api.TokenVerifier
	posts    api.PostService
	profiles api.ProfileService
}

// seedReport counts what a seed run did.
type seedReport struct {
	Created int
	Skipped int
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load accounts, profiles and posts from a fixture file",
		Long: `Creates accounts, profiles and posts described in a YAML fixture file.
Accounts whose email is already registered are skipped, so the command can be
run repeatedly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runSeed(cmd, appCfg, cfg, nil)
		},
	}

	cmd.Flags().StringVar(&cfg.file, "file", "", "YAML fixture file")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for the whole seed run (e.g., 30s, 1m)")
	_ = cmd.MarkFlagRequired("file") //nolint:errcheck // flag is registered above
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runSeed(cmd *cobra.Command, appCfg *config.Config, cfg *seedConfig, deps *SeedDeps) error {
	if deps == nil {
		deps = &SeedDeps{}
	}
	if deps.DatabaseFactory == nil {
		deps.DatabaseFactory = defaultDatabaseFactory
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = defaultMigratorFactory
	}

	fixtures, err := loadFixtures(cfg.file)
	if err != nil {
		return err
	}
	if err := appCfg.Validate(true); err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := deps.DatabaseFactory(ctx, appCfg.DatabaseURL, store.ConnectOptions{Attempts: appCfg.DBConnectAttempts})
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	migrator, closeMigrator, err := openMigrator(deps.MigratorFactory, appCfg.DatabaseURL)
	if err != nil {
		return err
	}
	_, err = applyMigrations(migrator)
	closeMigrator()
	if err != nil {
		return err
	}

	agora, err := app.New(db, app.OptionsFromConfig(appCfg))
	if err != nil {
		return err
	}

	report, err := seedAccounts(ctx, seedServices{
		auth:     agora.Auth,
		tokens:   agora.Tokens,
		posts:    agora.Posts,
		profiles: agora.Profiles,
	}, fixtures, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	cmd.Printf("Seeding complete: %d created, %d skipped\n", report.Created, report.Skipped)
	return nil
}

// loadFixtures reads and decodes a fixture file.
func loadFixtures(path string) (*Fixtures, error) {
	if path == "" {
		return nil, oops.Code("SEED_FILE_REQUIRED").Errorf("--file is required")
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, oops.Code("SEED_FILE_INVALID").With("path", path).Wrap(err)
	}
	var fixtures Fixtures
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, oops.Code("SEED_FILE_INVALID").With("path", path).Wrap(err)
	}
	return &fixtures, nil
}

// seedAccounts registers every fixture account and fills in its content.
// Accounts whose email is taken are left untouched.
func seedAccounts(ctx context.Context, svc seedServices, fixtures *Fixtures, out io.Writer) (seedReport, error) {
	var report seedReport
	for _, fx := range fixtures.Accounts {
		token, err := svc.auth.Register(ctx, auth.RegisterInput{
			Name:     fx.Name,
			Email:    fx.Email,
			Password: fx.Password,
		})
		if errors.Is(err, apperr.ErrDuplicate) {
			report.Skipped++
			_, _ = fmt.Fprintf(out, "Skipping %s: already registered\n", fx.Email)
			continue
		}
		if err != nil {
			return report, oops.With("email", fx.Email).Wrap(err)
		}
		actor, err := svc.tokens.Verify(token)
		if err != nil {
			return report, oops.With("email", fx.Email).Wrap(err)
		}

		if err := seedContent(ctx, svc, actor, fx); err != nil {
			return report, oops.With("email", fx.Email).Wrap(err)
		}

		report.Created++
		_, _ = fmt.Fprintf(out, "Created %s\n", fx.Email)
		slog.InfoContext(ctx, "seeded account", "account_id", actor, "posts", len(fx.Posts))
	}
	return report, nil
}

func seedContent(ctx context.Context, svc seedServices, actor ulid.ULID, fx AccountFixture) error {
	if fx.Profile != nil {
		if _, err := svc.profiles.Upsert(ctx, actor, fx.Profile.UpsertInput); err != nil {
			return err
		}
		for _, exp := range fx.Profile.Experience {
			if _, err := svc.profiles.AddExperience(ctx, actor, exp); err != nil {
				return err
			}
		}
		for _, edu := range fx.Profile.Education {
			if _, err := svc.profiles.AddEducation(ctx, actor, edu); err != nil {
				return err
			}
		}
	}
	for _, text := range fx.Posts {
		if _, err := svc.posts.Create(ctx, actor, post.CreateInput{Text: text}); err != nil {
			return err
		}
	}
	return nil
}
