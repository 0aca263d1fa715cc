package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/biblioteca-api/internal/application/lending"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

// Ensure TxRunner implements lending.TxRunner.
var _ lending.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// El coordinador de préstamos lo usa para que la escritura en el libro mayor
// y el update condicional de stock queden en la misma transacción: si el
// decremento falla, el registro creado se revierte con el Rollback y nunca
// queda colgado.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledger repository.BorrowRecordRepository,
	stock repository.StockMutator,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ledger := NewBorrowRecordRepository(tx)
	stock := NewBookRepository(tx)

	if err := fn(ledger, stock); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
