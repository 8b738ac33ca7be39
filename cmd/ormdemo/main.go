package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ormcore/internal/bootstrap"
	"ormcore/internal/domain"
	"ormcore/internal/infrastructure/logx"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, cleanup, err := bootstrap.InitFactory(ctx)
	if err != nil {
		log.Fatal("init factory", zap.Error(err))
	}
	defer cleanup()

	if err := run(ctx, f, log); err != nil {
		log.Error("demo failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}

	families, err := f.Registry.Gather()
	if err != nil {
		log.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		log.Info("metric", zap.String("name", mf.GetName()), zap.Int("series", len(mf.GetMetric())))
	}
}

// run walks one author through schedule, commit, mutate, commit, delete,
// commit, each phase in its own unit of work.
func run(ctx context.Context, f *bootstrap.Factory, log *zap.Logger) error {
	s := f.New()
	author := &domain.Author{Name: "Ursula K. Le Guin"}
	book := &domain.Book{Title: "A Wizard of Earthsea", Status: domain.BookStatusDraft, Tags: []string{"fantasy"}}
	review := &domain.Review{Rating: 5, Body: "Still the best."}
	book.WriteBy(s.EntityRegistry(), author)
	review.About(s.EntityRegistry(), book)
	for _, e := range []any{author, book, review} {
		if err := s.ScheduleForInsertion(e); err != nil {
			return err
		}
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}
	log.Info("demo.inserted",
		zap.Int64("author_id", author.ID),
		zap.String("book_id", book.ID),
		zap.Int64("review_id", review.ID),
	)

	s = f.New()
	loaded, err := s.Books.Find(ctx, book.ID)
	if err != nil {
		return err
	}
	loaded.Tags = append(loaded.Tags, "classic")
	loaded.Publish(time.Now())
	if err := s.Commit(ctx); err != nil {
		return err
	}
	log.Info("demo.updated", zap.String("book_id", loaded.ID), zap.Strings("tags", loaded.Tags))

	s = f.New()
	reviews, err := s.Reviews.ListByBook(ctx, book.ID)
	if err != nil {
		return err
	}
	for _, r := range reviews {
		if err := s.ScheduleForDeletion(r); err != nil {
			return err
		}
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}
	if _, err := s.Reviews.Find(ctx, review.ID); !errors.Is(err, domain.ErrNotFound) {
		return errors.New("review still present after delete")
	}
	log.Info("demo.deleted", zap.Int("reviews", len(reviews)))
	return nil
}
