package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
)

// BorrowRecordRepository define el puerto de persistencia para el libro mayor
// de préstamos (DIP).
type BorrowRecordRepository interface {
	// Create persiste un registro abierto. La unicidad de (book_id, user_id)
	// con status abierto se garantiza en la capa de almacenamiento (índice
	// parcial), no solo en la lógica de aplicación; una violación devuelve
	// domain.ErrDuplicateBorrow.
	Create(ctx context.Context, record *entity.BorrowRecord) error
	// FindOpen devuelve el registro abierto de (book, user), o nil si no existe.
	FindOpen(ctx context.Context, bookID, userID string) (*entity.BorrowRecord, error)
	// Close marca el registro como devuelto con return_date = now.
	Close(ctx context.Context, recordID string, now time.Time) error
	// Delete elimina un registro; solo se usa para compensar un préstamo cuyo
	// decremento de stock no pudo confirmarse (fuera de transacción).
	Delete(ctx context.Context, recordID string) error
	// Renew reinicia borrow_date (el reloj de vencimiento) e incrementa renew_times.
	Renew(ctx context.Context, recordID string, now time.Time) error
	ListOpenByUser(ctx context.Context, userID string) ([]*entity.BorrowRecord, error)
	ListOpenByUserAndBooks(ctx context.Context, bookIDs []string, userID string) ([]*entity.BorrowRecord, error)
	// Search pagina el historial con filtros opcionales por username/isbn
	// (LIKE) y userID (igualdad), ordenado por updated_at desc.
	Search(ctx context.Context, username, isbn, userID string, limit, offset int) ([]*entity.BorrowRecord, int, error)
}
