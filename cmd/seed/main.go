package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"quddle-backend/pkg/config"
	"quddle-backend/pkg/database"
	"quddle-backend/pkg/identity"
	"quddle-backend/pkg/jwt"
	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/s3"

	"gorm.io/gorm"
)

const systemUserName = "Quddle"

type demoUser struct {
	email    string
	name     string
	password string
	phone    string
}

var demoUsers = []demoUser{
	{"alice@test.com", "Alice", "password123", "+971500000001"},
	{"bob@test.com", "Bob", "password123", "+971500000002"},
	{"charlie@test.com", "Charlie", "password123", "+971500000003"},
}

func main() {
	demo := flag.Bool("demo", false, "also create demo users with funded wallets")
	buckets := flag.Bool("buckets", false, "create missing S3 buckets (MinIO)")
	flag.Parse()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seedSystemAccount(ctx, db, cfg.SystemUserID, log); err != nil {
		log.Error("Failed to seed system account: %v", err)
		os.Exit(1)
	}

	if *demo {
		if err := seedDemoUsers(ctx, db, cfg, log); err != nil {
			log.Error("Failed to seed demo users: %v", err)
			os.Exit(1)
		}
	}

	if *buckets {
		s3Client, err := s3.NewClient(cfg)
		if err != nil {
			log.Error("Failed to create S3 client: %v", err)
			os.Exit(1)
		}
		if err := s3Client.EnsureBuckets(ctx); err != nil {
			log.Error("Failed to create buckets: %v", err)
			os.Exit(1)
		}
		log.Info("Buckets ready: %s, %s, %s", s3Client.Main, s3Client.Ads, s3Client.Processed)
	}

	log.Info("Database seeded successfully!")
}

// seedSystemAccount creates the fee collector's profile and its zero balance
// wallet. Safe to run repeatedly.
func seedSystemAccount(ctx context.Context, db *gorm.DB, systemUserID string, log *logger.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO users (id, name, created_at, updated_at) VALUES (?, ?, NOW(), NOW())
			 ON CONFLICT (id) DO NOTHING`,
			systemUserID, systemUserName,
		).Error; err != nil {
			return fmt.Errorf("insert system user: %w", err)
		}

		res := tx.Exec(
			`INSERT INTO wallets (user_id, balance, created_at, updated_at) VALUES (?, 0, NOW(), NOW())
			 ON CONFLICT (user_id) DO NOTHING`,
			systemUserID,
		)
		if res.Error != nil {
			return fmt.Errorf("insert system wallet: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			log.Info("System wallet for %s already exists, skipping", systemUserID)
		} else {
			log.Info("Created system wallet for %s", systemUserID)
		}
		return nil
	})
}

func seedDemoUsers(ctx context.Context, db *gorm.DB, cfg *config.Config, log *logger.Logger) error {
	provider := identity.NewLocalProvider(identity.NewGormStore(db), jwt.NewService(cfg.JWTSecret), nil, log)

	for _, u := range demoUsers {
		ident, _, err := provider.Register(ctx, u.email, u.password, map[string]string{"name": u.name})
		if errors.Is(err, identity.ErrEmailTaken) {
			log.Info("User %s already exists, skipping", u.email)
			continue
		}
		if err != nil {
			log.Error("Failed to create user %s: %v", u.email, err)
			continue
		}

		if err := db.WithContext(ctx).Exec(
			`INSERT INTO users (id, name, phone, created_at, updated_at) VALUES (?, ?, ?, NOW(), NOW())
			 ON CONFLICT DO NOTHING`,
			ident.ID, u.name, u.phone,
		).Error; err != nil {
			return fmt.Errorf("insert profile for %s: %w", u.email, err)
		}

		if err := db.WithContext(ctx).Exec(
			`INSERT INTO wallets (user_id, balance, created_at, updated_at) VALUES (?, ?, NOW(), NOW())
			 ON CONFLICT (user_id) DO NOTHING`,
			ident.ID, cfg.WalletStartingBalance.StringFixed(2),
		).Error; err != nil {
			return fmt.Errorf("insert wallet for %s: %w", u.email, err)
		}

		log.Info("Created user: %s (%s) with %s in wallet", u.name, u.email, cfg.WalletStartingBalance.StringFixed(2))
	}
	return nil
}
