package persistence

import (
	"context"
	"database/sql"
	"time"

	"PlinkoCore/internal/game"
	"PlinkoCore/internal/ledger"
	"PlinkoCore/internal/observability"

	"github.com/rs/zerolog"
)

// Record is one unit of settled state handed to the worker.
type Record struct {
	Game     *GameRow
	Journals []JournalRow
}

// Worker drains the persist channel and batch-writes to Postgres. The engine
// sends blocking, so a stalled database applies backpressure to settlement
// instead of losing records.
type Worker struct {
	writer       *Writer
	input        chan Record
	batchSize    int
	flushTimeout time.Duration
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

func NewWorker(db *sql.DB, queueSize, batchSize int, flushTimeout time.Duration, metrics *observability.Metrics, logger zerolog.Logger) *Worker {
	return &Worker{
		writer:       NewWriter(db),
		input:        make(chan Record, queueSize),
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// RecordGame queues a game snapshot for persistence.
func (w *Worker) RecordGame(g *game.Game) {
	row := GameRowFrom(g)
	w.input <- Record{Game: &row}
}

// RecordBatch queues a settlement batch's journals for persistence.
func (w *Worker) RecordBatch(b *ledger.Batch) {
	w.input <- Record{Journals: JournalRowsFrom(b)}
}

// Run loops until ctx is cancelled, flushing when a batch fills or the flush
// timeout expires. The final drain runs on a background context so shutdown
// does not drop queued records.
func (w *Worker) Run(ctx context.Context) error {
	games := make([]GameRow, 0, w.batchSize)
	journals := make([]JournalRow, 0, w.batchSize*2)

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(games) > 0 || len(journals) > 0 {
				if err := w.flush(context.Background(), games, journals); err != nil {
					w.logger.Error().Err(err).Msg("final flush failed")
				}
			}
			return ctx.Err()

		case rec := <-w.input:
			games, journals = accumulate(games, journals, rec)
			if len(games)+len(journals) >= w.batchSize {
				w.flushWithRetry(ctx, games, journals)
				games = games[:0]
				journals = journals[:0]
				timer.Reset(w.flushTimeout)
			}

		case <-timer.C:
			if len(games) > 0 || len(journals) > 0 {
				w.flushWithRetry(ctx, games, journals)
				games = games[:0]
				journals = journals[:0]
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

// accumulate folds a record into the pending batch. A game appearing twice in
// one batch (opened then resolved before a flush) keeps only the newest row;
// a multi-row upsert cannot touch the same key twice.
func accumulate(games []GameRow, journals []JournalRow, rec Record) ([]GameRow, []JournalRow) {
	if rec.Game != nil {
		replaced := false
		for i := range games {
			if games[i].GameID == rec.Game.GameID {
				games[i] = *rec.Game
				replaced = true
				break
			}
		}
		if !replaced {
			games = append(games, *rec.Game)
		}
	}
	journals = append(journals, rec.Journals...)
	return games, journals
}

// flushWithRetry retries with exponential backoff until the write succeeds or
// the context is cancelled; records are never dropped mid-run.
func (w *Worker) flushWithRetry(ctx context.Context, games []GameRow, journals []JournalRow) {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			w.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Int("games", len(games)).
				Int("journals", len(journals)).
				Msg("persistence retry")
			select {
			case <-ctx.Done():
				if err := w.flush(context.Background(), games, journals); err != nil {
					w.logger.Error().Err(err).Msg("final flush on shutdown failed")
				}
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := w.flush(ctx, games, journals)
		if err == nil {
			return
		}
		w.metrics.PersistErrors.WithLabelValues("retry").Inc()
		w.logger.Error().Err(err).Msg("persistence flush failed")
	}
}

// flush writes both row kinds in one transaction.
func (w *Worker) flush(ctx context.Context, games []GameRow, journals []JournalRow) error {
	start := time.Now()

	tx, err := w.writer.db.BeginTx(ctx, nil)
	if err != nil {
		w.metrics.PersistErrors.WithLabelValues("tx_begin").Inc()
		return err
	}
	defer tx.Rollback()

	if err := w.writer.WriteGameBatch(ctx, tx, games); err != nil {
		w.metrics.PersistErrors.WithLabelValues("write_games").Inc()
		return err
	}
	if err := w.writer.WriteJournalBatch(ctx, tx, journals); err != nil {
		w.metrics.PersistErrors.WithLabelValues("write_journals").Inc()
		return err
	}
	if err := tx.Commit(); err != nil {
		w.metrics.PersistErrors.WithLabelValues("tx_commit").Inc()
		return err
	}

	w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
	w.metrics.PersistGamesWritten.Add(float64(len(games)))
	w.metrics.PersistJournalsWritten.Add(float64(len(journals)))
	return nil
}
