package repository

import (
	"context"

	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
)

// BookRepository define el puerto de persistencia para el catálogo de libros (DIP).
type BookRepository interface {
	Create(ctx context.Context, book *entity.Book) error
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	Update(ctx context.Context, book *entity.Book) error
	Delete(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, ids []string) error
	// Search pagina el catálogo con filtros opcionales por título e ISBN
	// (LIKE sobre columnas normalizadas), ordenado por updated_at desc.
	Search(ctx context.Context, title, isbn string, limit, offset int) ([]*entity.Book, int, error)
	FindAllByIDIn(ctx context.Context, ids []string) ([]*entity.Book, error)
}

// StockMutator expone la mutación condicional de stock (bloqueo optimista).
// Cada operación es un único write condicionado por la versión observada:
// si la versión almacenada cambió, devuelve domain.ErrVersionConflict y el
// caller relee y reintenta. Decrement además exige stock > 0 y devuelve
// domain.ErrOutOfStock cuando no quedan ejemplares.
type StockMutator interface {
	DecrementStock(ctx context.Context, bookID string, expectedVersion int) error
	IncrementStock(ctx context.Context, bookID string, expectedVersion int) error
}
