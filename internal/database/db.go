package database

import (
	"context"

	"github.com/uptrace/bun"
)

type Queries interface {
	AccountQueries
	CharacterQueries
	ClassQueries
	PvPRankQueries
	ServerQueries
	SpecializationQueries
}

type Tx interface {
	Queries
}

type DB interface {
	Queries
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type queriesImpl struct {
	db bun.IDB
}

type DBImpl struct {
	db *bun.DB
	queriesImpl
}

func (d *DBImpl) BunDB() *bun.DB {
	return d.db
}

func (d *DBImpl) Close() error {
	return d.db.Close()
}

type TXImpl struct {
	tx *bun.Tx
	queriesImpl
}

func (d *DBImpl) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return d.db.RunInTx(ctx, nil, func(ctx context.Context, bunTx bun.Tx) error {
		tx := &TXImpl{
			tx:          &bunTx,
			queriesImpl: queriesImpl{db: bunTx},
		}
		return fn(ctx, tx)
	})
}

// runInTx lets query helpers that need several statements join the caller's
// transaction when there is one, and open their own otherwise.
func (q *queriesImpl) runInTx(ctx context.Context, fn func(ctx context.Context, tx *queriesImpl) error) error {
	if _, ok := q.db.(bun.Tx); ok {
		return fn(ctx, q)
	}

	return q.db.RunInTx(ctx, nil, func(ctx context.Context, bunTx bun.Tx) error {
		return fn(ctx, &queriesImpl{db: bunTx})
	})
}

func NewDB(db *bun.DB) *DBImpl {
	return &DBImpl{
		db:          db,
		queriesImpl: queriesImpl{db: db},
	}
}

var (
	_ DB = (*DBImpl)(nil)
	_ Tx = (*TXImpl)(nil)
)
