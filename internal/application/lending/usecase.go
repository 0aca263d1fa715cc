package lending

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tu-usuario/biblioteca-api/internal/application/dto"
	"github.com/tu-usuario/biblioteca-api/internal/domain"
	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
	"github.com/tu-usuario/biblioteca-api/internal/domain/lending"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

// UseCase coordina préstamos, devoluciones y renovaciones.
//
// El recurso caliente es la fila del libro (stock, version): nunca se bloquea
// durante toda la operación. Cada intento es una transacción corta que escribe
// el libro mayor y aplica el update condicional de stock con la versión
// observada; un conflicto de versión revierte el intento completo y se vuelve
// a leer, hasta agotar el bound de reintentos de la política.
type UseCase struct {
	catalog   CatalogReader
	ledger    repository.BorrowRecordRepository
	borrowers BorrowerDirectory
	check     EligibilityChecker
	tx        TxRunner
	policy    lending.Policy
	now       func() time.Time
}

// NewUseCase construye el coordinador. El reloj es inyectable para los tests
// de vencimiento.
func NewUseCase(
	catalog CatalogReader,
	ledger repository.BorrowRecordRepository,
	borrowers BorrowerDirectory,
	check EligibilityChecker,
	tx TxRunner,
	policy lending.Policy,
) *UseCase {
	return &UseCase{
		catalog:   catalog,
		ledger:    ledger,
		borrowers: borrowers,
		check:     check,
		tx:        tx,
		policy:    policy,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (solo tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// Borrow presta un libro al usuario.
//
// Validaciones deterministas primero (habilitación, duplicado, existencia,
// stock); después el ciclo crear-registro + decrementar-stock dentro de una
// transacción por intento. ErrVersionConflict relee y reintenta;
// ErrOutOfStock dentro de la transacción revierte el registro recién creado
// y se reporta como agotado; reintentos agotados se reportan como
// domain.ErrConflict.
func (uc *UseCase) Borrow(ctx context.Context, bookID, userID string) (*entity.BorrowRecord, error) {
	user, err := uc.requireEligible(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Chequeo previo de duplicado; la carrera restante la cierra el índice
	// único parcial del libro mayor.
	open, err := uc.ledger.FindOpen(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, domain.ErrDuplicateBorrow
	}

	book, err := uc.catalog.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrNotFound
	}

	for attempt := 0; attempt < uc.retries(); attempt++ {
		if book.Stock <= 0 {
			return nil, domain.ErrOutOfStock
		}

		now := uc.now()
		record := &entity.BorrowRecord{
			ID:         uuid.New().String(),
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: now,
			Status:     entity.StatusLent,
			ISBN:       book.ISBN,
			Username:   user.Username,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		version := book.Version

		err = uc.tx.Run(ctx, func(ledger repository.BorrowRecordRepository, stock repository.StockMutator) error {
			if err := ledger.Create(ctx, record); err != nil {
				return err
			}
			return stock.DecrementStock(ctx, bookID, version)
		})
		switch {
		case err == nil:
			return record, nil
		case errors.Is(err, domain.ErrVersionConflict):
			log.Debug().Str("book_id", bookID).Int("attempt", attempt+1).
				Msg("conflicto de versión al prestar, releyendo stock")
			book, err = uc.catalog.GetByID(ctx, bookID)
			if err != nil {
				return nil, err
			}
			if book == nil {
				return nil, domain.ErrNotFound
			}
		default:
			// ErrOutOfStock, ErrDuplicateBorrow o fallo de infraestructura:
			// la transacción ya revirtió el registro.
			return nil, err
		}
	}
	return nil, domain.ErrConflict
}

// Return devuelve un libro. Si el usuario no tiene ese préstamo abierto es un
// no-op exitoso (idempotente: un reintento de red del cliente no puede fallar
// ni acreditar stock dos veces).
func (uc *UseCase) Return(ctx context.Context, bookID, userID string) (*entity.BorrowRecord, error) {
	if _, err := uc.requireEligible(ctx, userID); err != nil {
		return nil, err
	}

	book, err := uc.catalog.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrNotFound
	}

	record, err := uc.ledger.FindOpen(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	for attempt := 0; attempt < uc.retries(); attempt++ {
		now := uc.now()
		version := book.Version

		err = uc.tx.Run(ctx, func(ledger repository.BorrowRecordRepository, stock repository.StockMutator) error {
			if err := ledger.Close(ctx, record.ID, now); err != nil {
				return err
			}
			return stock.IncrementStock(ctx, bookID, version)
		})
		switch {
		case err == nil:
			record.Status = entity.StatusReturned
			record.ReturnDate = &now
			record.UpdatedAt = now
			return record, nil
		case errors.Is(err, domain.ErrVersionConflict):
			log.Debug().Str("book_id", bookID).Int("attempt", attempt+1).
				Msg("conflicto de versión al devolver, releyendo stock")
			book, err = uc.catalog.GetByID(ctx, bookID)
			if err != nil {
				return nil, err
			}
			if book == nil {
				return nil, domain.ErrNotFound
			}
		default:
			return nil, err
		}
	}
	return nil, domain.ErrConflict
}

// Renew renueva un préstamo: reinicia el reloj de vencimiento e incrementa el
// contador. No toca stock. Sin préstamo abierto es un no-op exitoso, con las
// renovaciones agotadas devuelve ErrRenewalLimit, y si la política no permite
// renovar vencidos, ErrOverdueNoRenewal.
func (uc *UseCase) Renew(ctx context.Context, bookID, userID string) (*entity.BorrowRecord, error) {
	if _, err := uc.requireEligible(ctx, userID); err != nil {
		return nil, err
	}

	book, err := uc.catalog.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrNotFound
	}

	record, err := uc.ledger.FindOpen(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	now := uc.now()
	if record.RenewTimes >= uc.policy.MaxRenewals {
		return nil, domain.ErrRenewalLimit
	}
	if !uc.policy.CanRenew(record, now) {
		return nil, domain.ErrOverdueNoRenewal
	}

	if err := uc.ledger.Renew(ctx, record.ID, now); err != nil {
		return nil, err
	}
	record.BorrowDate = now
	record.RenewTimes++
	record.UpdatedAt = now
	return record, nil
}

// BorrowerSnapshot arma el resumen del lector: cantidad de préstamos abiertos
// y el subconjunto vencido enriquecido con metadatos del catálogo (consulta en
// lote, sin N+1) y la fecha de vencimiento derivada.
func (uc *UseCase) BorrowerSnapshot(ctx context.Context, userID string) (*dto.BorrowerSnapshotResponse, error) {
	records, err := uc.ledger.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &dto.BorrowerSnapshotResponse{
		OpenCount: len(records),
		Overdue:   []dto.OverdueBook{},
	}
	if len(records) == 0 {
		return snapshot, nil
	}

	now := uc.now()
	var overdue []*entity.BorrowRecord
	for _, rec := range records {
		if uc.policy.IsOverdue(rec, now) {
			overdue = append(overdue, rec)
		}
	}
	if len(overdue) == 0 {
		return snapshot, nil
	}

	bookIDs := make([]string, 0, len(overdue))
	for _, rec := range overdue {
		bookIDs = append(bookIDs, rec.BookID)
	}
	books, err := uc.catalog.FindAllByIDIn(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	bookByID := make(map[string]*entity.Book, len(books))
	for _, b := range books {
		bookByID[b.ID] = b
	}

	for _, rec := range overdue {
		item := dto.OverdueBook{
			BookID:            rec.BookID,
			ISBN:              rec.ISBN,
			BorrowDate:        rec.BorrowDate,
			DueDate:           uc.policy.DueDate(rec.BorrowDate),
			RemainingRenewals: uc.policy.RemainingRenewals(rec),
		}
		if b := bookByID[rec.BookID]; b != nil {
			item.Title = b.Title
			item.Author = b.Author
		}
		snapshot.Overdue = append(snapshot.Overdue, item)
	}
	return snapshot, nil
}

// Policy expone la política vigente (la usan los listados para derivar
// vencimientos y renovaciones restantes con los mismos parámetros).
func (uc *UseCase) Policy() lending.Policy {
	return uc.policy
}

// requireEligible valida que el usuario exista y esté habilitado para
// préstamos; devuelve el usuario para las copias desnormalizadas.
func (uc *UseCase) requireEligible(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.borrowers.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	ok, err := uc.check.IsEligibleBorrower(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrIneligible
	}
	return user, nil
}

func (uc *UseCase) retries() int {
	if uc.policy.StockRetries < 1 {
		return 1
	}
	return uc.policy.StockRetries
}
