package monitor

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"fxbot/internal/models"
	"fxbot/pkg/db"
)

// Journal is the optional relational copy of the trade history. The
// JSON store stays authoritative; the journal exists for ad-hoc SQL.
type Journal interface {
	Insert(ctx context.Context, trade models.TradeRecord) error
}

type PgJournal struct {
	tm db.TxManager
}

const createJournalSQL = `
CREATE TABLE IF NOT EXISTS trade_journal (
	id  TEXT PRIMARY KEY,
	ts  TIMESTAMPTZ NOT NULL,
	pnl DOUBLE PRECISION NOT NULL
)`

const insertJournalSQL = `
INSERT INTO trade_journal (id, ts, pnl) VALUES ($1, $2, $3)
ON CONFLICT (id) DO NOTHING`

func NewPgJournal(ctx context.Context, tm db.TxManager) (*PgJournal, error) {
	j := &PgJournal{tm: tm}
	err := tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, createJournalSQL)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "init trade journal")
	}
	return j, nil
}

// Insert is idempotent per trade id, matching the monitor's seen-set.
func (j *PgJournal) Insert(ctx context.Context, trade models.TradeRecord) error {
	err := j.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertJournalSQL, trade.ID, trade.Time, trade.Pnl)
		return err
	})
	return errors.Wrapf(err, "journal insert %s", trade.ID)
}
