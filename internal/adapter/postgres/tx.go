package postgres

import (
	"context"
	"time"

	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/Temutjin2k/ride-bidding/pkg/trm"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// TxorDB returns the transaction started by trm, or the pool.
func TxorDB(ctx context.Context, db *pgxpool.Pool) Querier {
	if tx := trm.TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// observe records duration and result of one repository call: defer observe(...)(&err)
func observe(service, operation string) func(err *error) {
	start := time.Now()
	return func(err *error) {
		metrics.RecordDatabaseQuery(service, operation, *err, time.Since(start))
	}
}
