package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
)

func openRecord(borrowedAgo time.Duration, renewTimes int) *entity.BorrowRecord {
	return &entity.BorrowRecord{
		ID:         "rec-1",
		UserID:     "user-1",
		BookID:     "book-1",
		BorrowDate: time.Now().Add(-borrowedAgo),
		Status:     entity.StatusLent,
		RenewTimes: renewTimes,
	}
}

// Un préstamo de hace 31 días con periodo de 30 está vencido; uno de hace 29 no.
func TestIsOverdue_LimiteDe30Dias(t *testing.T) {
	p := DefaultPolicy()
	now := time.Now()

	vencido := openRecord(31*24*time.Hour, 0)
	assert.True(t, p.IsOverdue(vencido, now), "préstamo de hace 31 días debe estar vencido")

	vigente := openRecord(29*24*time.Hour, 0)
	assert.False(t, p.IsOverdue(vigente, now), "préstamo de hace 29 días no debe estar vencido")
}

// Un registro ya devuelto nunca cuenta como vencido, sin importar la fecha.
func TestIsOverdue_DevueltoNoVence(t *testing.T) {
	p := DefaultPolicy()
	rec := openRecord(90*24*time.Hour, 0)
	devuelto := time.Now()
	rec.Status = entity.StatusReturned
	rec.ReturnDate = &devuelto

	assert.False(t, p.IsOverdue(rec, time.Now()))
}

func TestDueDate_SumaLoanDays(t *testing.T) {
	p := Policy{LoanDays: 15}
	borrow := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 16, 10, 0, 0, 0, time.UTC), p.DueDate(borrow))
}

func TestRemainingRenewals_NoNegativo(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.RemainingRenewals(openRecord(0, 0)))
	assert.Equal(t, 1, p.RemainingRenewals(openRecord(0, 2)))
	// renew_times por encima del máximo (datos antiguos) no debe dar negativo
	assert.Equal(t, 0, p.RemainingRenewals(openRecord(0, 5)))
}

func TestCanRenew_RespetaLimiteYVencimiento(t *testing.T) {
	now := time.Now()

	p := DefaultPolicy()
	assert.True(t, p.CanRenew(openRecord(0, 2), now), "con renovaciones disponibles debe permitir")
	assert.False(t, p.CanRenew(openRecord(0, 3), now), "al llegar al máximo debe rechazar")

	// Con AllowRenewOverdue=false un préstamo vencido no puede renovarse
	estricta := DefaultPolicy()
	estricta.AllowRenewOverdue = false
	assert.False(t, estricta.CanRenew(openRecord(31*24*time.Hour, 0), now))
	assert.True(t, p.CanRenew(openRecord(31*24*time.Hour, 0), now),
		"la política por defecto permite renovar vencidos")
}
