package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/sqldb"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
	"github.com/vncsmyrnk/livepoll/internal/platform/metrics"
)

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var (
		dbType, dbURL              string
		pollID, questionID, option string
		voters, repeat             int
	)

	flag.StringVar(&dbType, "db-type", os.Getenv("DATABASE_TYPE"), "Database type (sqlite or postgres)")
	flag.StringVar(&dbURL, "db-url", os.Getenv("DATABASE_URL"), "Database URL")
	flag.StringVar(&pollID, "poll", "", "Poll ID")
	flag.StringVar(&questionID, "question", "", "Question ID (empty for single-question polls)")
	flag.StringVar(&option, "option", "", "Option ID")
	flag.IntVar(&voters, "voters", 10, "Number of distinct voters")
	flag.IntVar(&repeat, "repeat", 1, "Attempts per voter")
	flag.Parse()

	if pollID == "" || option == "" {
		log.Fatal("-poll and -option are required")
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sqldb.Open(ctx, dialect, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	pollRepo := sqldb.NewPollRepository(db)
	voteService := services.NewVoteService(pollRepo, sqldb.NewVoteRepository(db), nopNotifier{}, metrics.New(nil), logger)

	log.Printf("Casting votes: %d voters x %d attempts", voters, repeat)

	var accepted, rejected atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(32)
	for v := 0; v < voters; v++ {
		identity := domain.Identity{
			Token:       fmt.Sprintf("%032x", v),
			Fingerprint: fmt.Sprintf("generator-%d", v),
		}
		for r := 0; r < repeat; r++ {
			g.Go(func() error {
				err := voteService.Vote(gctx, ports.VoteInput{
					PollID:     pollID,
					QuestionID: questionID,
					OptionID:   option,
					Identity:   identity,
				})
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, domain.ErrStoreFailure):
					return err
				default:
					rejected.Add(1)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Error generating votes: %v", err)
	}

	log.Printf("Vote generation completed: %d accepted, %d rejected", accepted.Load(), rejected.Load())
}
