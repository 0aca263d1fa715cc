package lending

import (
	"context"

	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

// CatalogReader lectura del catálogo que consume el coordinador: el libro con
// su (stock, version) vigente y los metadatos en lote para el resumen del
// lector. Lo implementa postgres.BookRepo.
type CatalogReader interface {
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	FindAllByIDIn(ctx context.Context, ids []string) ([]*entity.Book, error)
}

// BorrowerDirectory lectura de usuarios (para las copias desnormalizadas del
// registro de préstamo).
type BorrowerDirectory interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// EligibilityChecker predicado de habilitación para préstamos. La
// representación del rol queda del lado del componente de identidad; el
// coordinador solo consume el booleano.
type EligibilityChecker interface {
	IsEligibleBorrower(ctx context.Context, userID string) (bool, error)
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando el
// libro mayor y el mutador de stock atados a esa tx. Garantiza que el registro
// de préstamo y el update condicional de stock queden ambos confirmados o
// ambos revertidos: nunca un estado a medio aplicar visible desde afuera.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledger repository.BorrowRecordRepository,
		stock repository.StockMutator,
	) error) error
}
