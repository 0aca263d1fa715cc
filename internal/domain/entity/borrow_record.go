package entity

import "time"

// Estados de un registro de préstamo.
const (
	StatusLent     = "borrowed"
	StatusReturned = "returned"
)

// BorrowRecord representa un préstamo de un libro a un usuario.
// El historial es append-only: un registro nace con StatusLent y solo pasa a
// StatusReturned en la devolución; nunca se borra en la operación normal.
// ISBN y Username son copias desnormalizadas para consultas y reportes; la
// fuente de verdad siguen siendo Book y User.
type BorrowRecord struct {
	ID         string
	UserID     string
	BookID     string
	BorrowDate time.Time
	ReturnDate *time.Time // nil mientras el préstamo esté abierto
	Status     string
	ISBN       string
	Username   string
	RenewTimes int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsOpen indica si el préstamo sigue abierto (no devuelto).
func (r *BorrowRecord) IsOpen() bool {
	return r != nil && r.Status == StatusLent
}
