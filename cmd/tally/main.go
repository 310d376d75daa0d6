package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/sqldb"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var dbType, dbURL, pollID string

	flag.StringVar(&dbType, "db-type", os.Getenv("DATABASE_TYPE"), "Database type (sqlite or postgres)")
	flag.StringVar(&dbURL, "db-url", os.Getenv("DATABASE_URL"), "Database URL")
	flag.StringVar(&pollID, "poll", "", "Poll ID")
	flag.Parse()

	if pollID == "" {
		log.Fatal("a poll id is required (-poll)")
	}
	if dbType == "" {
		dbType = "sqlite"
	}
	if dbURL == "" {
		dbURL = "file:livepoll.db"
	}

	dialect, err := sqldb.ParseDialect(dbType)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqldb.Open(ctx, dialect, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	tallyService := services.NewTallyService(sqldb.NewPollRepository(db), sqldb.NewTallyRepository(db))

	entries, err := tallyService.Tally(ctx, pollID)
	if err != nil {
		log.Fatalf("Error tallying poll %s: %v", pollID, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		log.Fatal(err)
	}
}
