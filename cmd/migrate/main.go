package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/estatemap/internal/adapters/postgres"
	"github.com/samirrijal/estatemap/internal/pkg/config"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("estatemap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	ups, err := upFiles(migrationsDir)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		if err := migrateUp(ctx, db, ups); err != nil {
			log.Fatal(err)
		}
		log.Println("all migrations applied")
	case "down":
		if err := migrateDown(ctx, db, ups); err != nil {
			log.Fatal(err)
		}
		log.Println("migrations rolled back")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// upFiles lists forward migrations in name order.
func upFiles(dir string) ([]string, error) {
	all, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	ups := slices.DeleteFunc(all, func(f string) bool { return strings.HasSuffix(f, ".down.sql") })
	slices.Sort(ups)
	return ups, nil
}

func downFile(up string) string {
	return strings.TrimSuffix(up, ".sql") + ".down.sql"
}

func applied(ctx context.Context, db *postgres.DB) (map[string]bool, error) {
	rows, err := db.Pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

func migrateUp(ctx context.Context, db *postgres.DB, files []string) error {
	if len(files) == 0 {
		return nil
	}

	// The first migration creates schema_migrations and is idempotent.
	if err := execFile(ctx, db, files[0], filepath.Base(files[0]), true); err != nil {
		return err
	}

	done, err := applied(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}

	for _, f := range files[1:] {
		name := filepath.Base(f)
		if done[name] {
			fmt.Printf("--  %s (already applied)\n", f)
			continue
		}
		if err := execFile(ctx, db, f, name, true); err != nil {
			return err
		}
	}
	return nil
}

func migrateDown(ctx context.Context, db *postgres.DB, files []string) error {
	done, err := applied(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}

	for i := len(files) - 1; i >= 0; i-- {
		name := filepath.Base(files[i])
		if !done[name] {
			continue
		}
		down := downFile(files[i])
		if _, err := os.Stat(down); err != nil {
			fmt.Printf("--  %s (no down migration)\n", files[i])
			continue
		}
		if err := execFile(ctx, db, down, name, false); err != nil {
			return err
		}
	}
	return nil
}

// execFile runs one SQL file and records or forgets name in the same
// transaction.
func execFile(ctx context.Context, db *postgres.DB, path, name string, up bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return err
		}
		if up {
			_, err = tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
		} else {
			_, err = tx.Exec(ctx, `DELETE FROM schema_migrations WHERE name = $1`, name)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}

	fmt.Printf("OK  %s\n", path)
	return nil
}
