package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"notification-hub/internal/config"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/repository"
	pg "notification-hub/internal/infra/db/postgres"
)

// schema is applied idempotently so a fresh database can be bootstrapped
// without a separate migration tool.
const schema = `
CREATE TABLE IF NOT EXISTS users (
  id          TEXT PRIMARY KEY,
  username    TEXT NOT NULL UNIQUE,
  daily_limit INT  NOT NULL DEFAULT 10 CHECK (daily_limit >= 0),
  is_admin    BOOLEAN NOT NULL DEFAULT FALSE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS messages (
  id         TEXT PRIMARY KEY,
  user_id    TEXT NOT NULL REFERENCES users(id),
  content    VARCHAR(4000) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_messages_user_created ON messages (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS message_deliveries (
  id                TEXT PRIMARY KEY,
  message_id        TEXT NOT NULL REFERENCES messages(id),
  seq               INT  NOT NULL,
  platform          TEXT NOT NULL,
  destination       TEXT NOT NULL,
  status            TEXT NOT NULL,
  provider_response JSONB,
  error_message     TEXT,
  sent_at           TIMESTAMPTZ,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (message_id, seq)
);

CREATE TABLE IF NOT EXISTS daily_message_counts (
  user_id TEXT NOT NULL REFERENCES users(id),
  day     DATE NOT NULL,
  count   INT  NOT NULL DEFAULT 0 CHECK (count >= 0),
  PRIMARY KEY (user_id, day)
);
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	username := flag.String("username", "", "user to create (optional)")
	limit := flag.Int("limit", 10, "daily message limit for the new user")
	admin := flag.Bool("admin", false, "grant admin to the new user")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("schema applied")

	if *username == "" {
		return
	}

	users := pg.NewPostgresUserRepo(pool)
	if existing, err := users.FindByUsername(ctx, repository.NoTX, *username); err == nil {
		fmt.Printf("user %s already present (limit=%d, admin=%v). No changes.\n",
			existing.Username, existing.DailyLimit, existing.IsAdmin)
		return
	}

	u, err := model.NewUser("", *username, *limit)
	if err != nil {
		log.Fatalf("new user: %v", err)
	}
	u.IsAdmin = *admin
	if err := users.Save(ctx, repository.NoTX, u); err != nil {
		log.Fatalf("save user: %v", err)
	}
	fmt.Printf("created user %s (id=%s, limit=%d, admin=%v)\n", u.Username, u.ID, u.DailyLimit, u.IsAdmin)
}
