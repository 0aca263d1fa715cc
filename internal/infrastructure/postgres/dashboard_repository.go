package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

var _ repository.DashboardRepository = (*DashboardRepo)(nil)

// DashboardRepo consultas agregadas para el panel de administración.
type DashboardRepo struct {
	q Querier
}

// NewDashboardRepository construye el adaptador de estadísticas.
func NewDashboardRepository(q Querier) *DashboardRepo {
	return &DashboardRepo{q: q}
}

// CountUsers devuelve la cantidad total de usuarios.
func (r *DashboardRepo) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM users`)
}

// CountBooks devuelve la cantidad total de libros del catálogo.
func (r *DashboardRepo) CountBooks(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM books`)
}

// CountBorrowRecords devuelve la cantidad total de registros de préstamo
// (abiertos y cerrados: el historial es append-only).
func (r *DashboardRepo) CountBorrowRecords(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM borrow_records`)
}

// BorrowsPerDay agrupa préstamos por fecha de inicio en el rango [from, to].
// Los días sin préstamos no aparecen; el usecase rellena los ceros.
func (r *DashboardRepo) BorrowsPerDay(ctx context.Context, from, to time.Time) ([]repository.DailyBorrowCount, error) {
	query := `
		SELECT borrow_date::date AS day, count(*)
		FROM borrow_records
		WHERE borrow_date >= $1 AND borrow_date < $2
		GROUP BY day ORDER BY day`
	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("borrows per day: %w", err)
	}
	defer rows.Close()

	var counts []repository.DailyBorrowCount
	for rows.Next() {
		var c repository.DailyBorrowCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, fmt.Errorf("scan daily borrow count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily borrow counts: %w", err)
	}
	return counts, nil
}

func (r *DashboardRepo) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
