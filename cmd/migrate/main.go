// Command migrate applies the SQL migrations in migrations/ to the
// database pointed at by DB_DSN.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	dir := flag.String("dir", "migrations", "migrations directory")
	down := flag.Bool("down", false, "roll back all migrations instead of applying them")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout))
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logger.Error("DB_DSN is required")
		os.Exit(1)
	}

	m, err := migrate.New("file://"+*dir, dsn)
	if err != nil {
		logger.Error("opening migrations", "err", err)
		os.Exit(1)
	}
	defer m.Close()

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("running migrations", "err", err)
		os.Exit(1)
	}

	logger.Info("migrations complete")
}
