// Package analytics contiene los casos de uso del panel de administración:
// contadores globales y la serie diaria de préstamos.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/tu-usuario/biblioteca-api/internal/application/dto"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

const dashboardSeriesDays = 8 // días de la serie diaria (incluye hoy)

const dateLayout = "2006-01-02"

// DashboardUseCase genera las estadísticas del panel.
//
// Fuente de datos: DashboardRepository (consultas read-only agregadas).
// No accede directamente a las tablas; delega todo en el repositorio.
type DashboardUseCase struct {
	repo repository.DashboardRepository
	now  func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(repo repository.DashboardRepository) *DashboardUseCase {
	return &DashboardUseCase{repo: repo, now: time.Now}
}

// WithClock reemplaza el reloj (solo tests).
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetStats construye el DashboardStatsResponse.
//
// Cuatro llamadas en paralelo:
//  1. CountUsers          → UserCount
//  2. CountBooks          → BookCount
//  3. CountBorrowRecords  → LendRecordCount
//  4. BorrowsPerDay       → DailyLendRecords (últimos 8 días, huecos en cero)
func (uc *DashboardUseCase) GetStats(ctx context.Context) (*dto.DashboardStatsResponse, error) {
	now := uc.now()
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		Add(24*time.Hour - time.Nanosecond)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(dashboardSeriesDays - 1))

	type countResult struct {
		n   int64
		err error
	}
	type seriesResult struct {
		days []repository.DailyBorrowCount
		err  error
	}

	usersCh := make(chan countResult, 1)
	booksCh := make(chan countResult, 1)
	recordsCh := make(chan countResult, 1)
	seriesCh := make(chan seriesResult, 1)

	go func() {
		n, err := uc.repo.CountUsers(ctx)
		usersCh <- countResult{n, err}
	}()
	go func() {
		n, err := uc.repo.CountBooks(ctx)
		booksCh <- countResult{n, err}
	}()
	go func() {
		n, err := uc.repo.CountBorrowRecords(ctx)
		recordsCh <- countResult{n, err}
	}()
	go func() {
		days, err := uc.repo.BorrowsPerDay(ctx, dayStart, dayEnd)
		seriesCh <- seriesResult{days, err}
	}()

	users := <-usersCh
	books := <-booksCh
	records := <-recordsCh
	series := <-seriesCh

	if users.err != nil {
		return nil, fmt.Errorf("dashboard: conteo de usuarios: %w", users.err)
	}
	if books.err != nil {
		return nil, fmt.Errorf("dashboard: conteo de libros: %w", books.err)
	}
	if records.err != nil {
		return nil, fmt.Errorf("dashboard: conteo de préstamos: %w", records.err)
	}
	if series.err != nil {
		return nil, fmt.Errorf("dashboard: serie diaria: %w", series.err)
	}

	return &dto.DashboardStatsResponse{
		UserCount:        users.n,
		BookCount:        books.n,
		LendRecordCount:  records.n,
		DailyLendRecords: fillDailySeries(series.days, dayStart, dashboardSeriesDays),
	}, nil
}

// fillDailySeries proyecta los conteos agrupados sobre una ventana continua de
// días: los días sin préstamos salen con cero, no ausentes.
func fillDailySeries(days []repository.DailyBorrowCount, from time.Time, n int) []dto.DailyLendRecord {
	byDate := make(map[string]int64, len(days))
	for _, d := range days {
		byDate[d.Date.Format(dateLayout)] = d.Count
	}
	series := make([]dto.DailyLendRecord, 0, n)
	for i := 0; i < n; i++ {
		date := from.AddDate(0, 0, i).Format(dateLayout)
		series = append(series, dto.DailyLendRecord{Date: date, Count: byDate[date]})
	}
	return series
}
