package lending

import (
	"time"

	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
)

// Valores por defecto de la política de préstamos.
const (
	DefaultLoanDays     = 30
	DefaultMaxRenewals  = 3
	DefaultStockRetries = 3
)

// Policy parametriza las reglas de préstamo. La fecha de vencimiento es
// derivada (BorrowDate + LoanDays), no se persiste.
type Policy struct {
	LoanDays          int  // días de préstamo antes del vencimiento
	MaxRenewals       int  // renovaciones permitidas por préstamo
	StockRetries      int  // reintentos ante conflicto de versión en stock
	AllowRenewOverdue bool // si un préstamo vencido aún puede renovarse
}

// DefaultPolicy devuelve la política con los valores por defecto.
// AllowRenewOverdue es true: el comportamiento histórico del sistema no
// bloqueaba la renovación de préstamos vencidos.
func DefaultPolicy() Policy {
	return Policy{
		LoanDays:          DefaultLoanDays,
		MaxRenewals:       DefaultMaxRenewals,
		StockRetries:      DefaultStockRetries,
		AllowRenewOverdue: true,
	}
}

// DueDate calcula la fecha de vencimiento de un préstamo.
func (p Policy) DueDate(borrowDate time.Time) time.Time {
	return borrowDate.AddDate(0, 0, p.LoanDays)
}

// IsOverdue indica si un préstamo abierto está vencido en el instante now.
// Un registro devuelto nunca está vencido.
func (p Policy) IsOverdue(record *entity.BorrowRecord, now time.Time) bool {
	if !record.IsOpen() {
		return false
	}
	return now.After(p.DueDate(record.BorrowDate))
}

// RemainingRenewals devuelve cuántas renovaciones le quedan al préstamo.
func (p Policy) RemainingRenewals(record *entity.BorrowRecord) int {
	remaining := p.MaxRenewals - record.RenewTimes
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanRenew valida la renovación contra la política. Devuelve false cuando se
// agotaron las renovaciones o cuando el préstamo está vencido y la política no
// permite renovar vencidos.
func (p Policy) CanRenew(record *entity.BorrowRecord, now time.Time) bool {
	if record.RenewTimes >= p.MaxRenewals {
		return false
	}
	if !p.AllowRenewOverdue && p.IsOverdue(record, now) {
		return false
	}
	return true
}
