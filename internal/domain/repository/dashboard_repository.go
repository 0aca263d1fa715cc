package repository

import (
	"context"
	"time"
)

// DailyBorrowCount cantidad de préstamos iniciados en una fecha.
type DailyBorrowCount struct {
	Date  time.Time
	Count int64
}

// DashboardRepository define el puerto de consultas agregadas para el panel
// de administración. Solo lecturas.
type DashboardRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountBooks(ctx context.Context) (int64, error)
	CountBorrowRecords(ctx context.Context) (int64, error)
	// BorrowsPerDay agrupa préstamos por fecha de inicio en el rango [from, to].
	BorrowsPerDay(ctx context.Context, from, to time.Time) ([]DailyBorrowCount, error)
}
