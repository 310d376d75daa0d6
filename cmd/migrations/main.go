package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/sqldb"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var dbType, dbURL string
	var down bool

	flag.StringVar(&dbType, "db-type", envOr("DATABASE_TYPE", "sqlite"), "Database type (sqlite or postgres)")
	flag.StringVar(&dbURL, "db-url", envOr("DATABASE_URL", "file:livepoll.db"), "Database URL")
	flag.BoolVar(&down, "down", false, "Run the down migration instead")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("a migration name is required.")
	}
	migrationName := flag.Arg(0)

	dialect, err := sqldb.ParseDialect(dbType)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sqldb.Open(ctx, dialect, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	fileContent, err := sqldb.MigrationContent(dialect, migrationName, down)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := db.ExecContext(ctx, string(fileContent)); err != nil {
		log.Fatalf("Failed to execute SQL file: %v", err)
	}

	fmt.Println("Migration file executed successfully.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
