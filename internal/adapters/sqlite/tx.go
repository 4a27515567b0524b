package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"catalogsync/internal/ports"
)

// pairTx wraps the transaction of one batch insert
type pairTx struct {
	tx *sql.Tx
}

// insert adds pairs with a single multi-row statement, skipping rows that
// already exist, and returns how many were new
func (t *pairTx) insert(ctx context.Context, pairs []ports.HandlePair) (int, error) {
	var b strings.Builder
	b.WriteString(`INSERT INTO sync_pair (id_sync_item_1, id_sync_item_2) VALUES `)

	args := make([]any, 0, 2*len(pairs))
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?)")
		args = append(args, p.First, p.Second)
	}
	b.WriteString(` ON CONFLICT DO NOTHING`)

	res, err := t.tx.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Commit commits the transaction
func (t *pairTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *pairTx) Rollback() error {
	return t.tx.Rollback()
}
