package lending_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applending "github.com/tu-usuario/biblioteca-api/internal/application/lending"
	"github.com/tu-usuario/biblioteca-api/internal/domain"
	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
	"github.com/tu-usuario/biblioteca-api/internal/domain/lending"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
//
// memDB emula la semántica del almacenamiento real: update condicional de
// stock por versión, índice único parcial sobre (book_id, user_id) abiertos, y
// transacciones con rollback (snapshot/restore bajo el mismo mutex). Las
// operaciones internas van sin lock; los adaptadores públicos toman el mutex,
// y el txRunner lo retiene durante todo el callback para emular el aislamiento
// de una transacción.
// ──────────────────────────────────────────────────────────────────────────────

type memDB struct {
	mu      sync.Mutex
	books   map[string]*entity.Book
	records map[string]*entity.BorrowRecord
	users   map[string]*entity.User
}

func newMemDB() *memDB {
	return &memDB{
		books:   make(map[string]*entity.Book),
		records: make(map[string]*entity.BorrowRecord),
		users:   make(map[string]*entity.User),
	}
}

func (db *memDB) snapshot() (map[string]*entity.Book, map[string]*entity.BorrowRecord) {
	books := make(map[string]*entity.Book, len(db.books))
	for k, v := range db.books {
		cp := *v
		books[k] = &cp
	}
	records := make(map[string]*entity.BorrowRecord, len(db.records))
	for k, v := range db.records {
		cp := *v
		records[k] = &cp
	}
	return books, records
}

func (db *memDB) getBook(id string) *entity.Book {
	if b, ok := db.books[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

func (db *memDB) findOpen(bookID, userID string) *entity.BorrowRecord {
	for _, rec := range db.records {
		if rec.BookID == bookID && rec.UserID == userID && rec.Status == entity.StatusLent {
			cp := *rec
			return &cp
		}
	}
	return nil
}

func (db *memDB) createRecord(rec *entity.BorrowRecord) error {
	if db.findOpen(rec.BookID, rec.UserID) != nil {
		return domain.ErrDuplicateBorrow
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	cp := *rec
	db.records[rec.ID] = &cp
	return nil
}

func (db *memDB) decrement(bookID string, expectedVersion int) error {
	b, ok := db.books[bookID]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	if b.Stock <= 0 {
		return domain.ErrOutOfStock
	}
	b.Stock--
	b.Version++
	return nil
}

func (db *memDB) increment(bookID string, expectedVersion int) error {
	b, ok := db.books[bookID]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	b.Stock++
	b.Version++
	return nil
}

// openRecordCount cuenta préstamos abiertos de un libro (para el invariante de
// conservación).
func (db *memDB) openRecordCount(bookID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, rec := range db.records {
		if rec.BookID == bookID && rec.Status == entity.StatusLent {
			n++
		}
	}
	return n
}

// ── adaptadores: catálogo, directorio, libro mayor y stock ────────────────────

type memCatalog struct{ db *memDB }

func (c *memCatalog) GetByID(_ context.Context, id string) (*entity.Book, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	return c.db.getBook(id), nil
}

func (c *memCatalog) FindAllByIDIn(_ context.Context, ids []string) ([]*entity.Book, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	var books []*entity.Book
	for _, id := range ids {
		if b := c.db.getBook(id); b != nil {
			books = append(books, b)
		}
	}
	return books, nil
}

type memDirectory struct{ db *memDB }

func (d *memDirectory) GetByID(_ context.Context, id string) (*entity.User, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	if u, ok := d.db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type memEligibility struct{ db *memDB }

func (e *memEligibility) IsEligibleBorrower(_ context.Context, userID string) (bool, error) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	u := e.db.users[userID]
	return u.IsLector(), nil
}

// memLedger versión con lock (uso directo del coordinador, fuera de tx).
type memLedger struct{ db *memDB }

func (l *memLedger) Create(_ context.Context, rec *entity.BorrowRecord) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return l.db.createRecord(rec)
}

func (l *memLedger) FindOpen(_ context.Context, bookID, userID string) (*entity.BorrowRecord, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return l.db.findOpen(bookID, userID), nil
}

func (l *memLedger) Close(_ context.Context, recordID string, now time.Time) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	return closeRecord(l.db, recordID, now)
}

func (l *memLedger) Delete(_ context.Context, recordID string) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	delete(l.db.records, recordID)
	return nil
}

func (l *memLedger) Renew(_ context.Context, recordID string, now time.Time) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	rec, ok := l.db.records[recordID]
	if !ok || rec.Status != entity.StatusLent {
		return domain.ErrNotFound
	}
	rec.BorrowDate = now
	rec.RenewTimes++
	rec.UpdatedAt = now
	return nil
}

func (l *memLedger) ListOpenByUser(_ context.Context, userID string) ([]*entity.BorrowRecord, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	var out []*entity.BorrowRecord
	for _, rec := range l.db.records {
		if rec.UserID == userID && rec.Status == entity.StatusLent {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (l *memLedger) ListOpenByUserAndBooks(_ context.Context, bookIDs []string, userID string) ([]*entity.BorrowRecord, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	ids := make(map[string]bool, len(bookIDs))
	for _, id := range bookIDs {
		ids[id] = true
	}
	var out []*entity.BorrowRecord
	for _, rec := range l.db.records {
		if rec.UserID == userID && rec.Status == entity.StatusLent && ids[rec.BookID] {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (l *memLedger) Search(_ context.Context, _, _, _ string, _, _ int) ([]*entity.BorrowRecord, int, error) {
	return nil, 0, nil
}

func closeRecord(db *memDB, recordID string, now time.Time) error {
	rec, ok := db.records[recordID]
	if !ok || rec.Status != entity.StatusLent {
		return domain.ErrNotFound
	}
	rec.Status = entity.StatusReturned
	rec.ReturnDate = &now
	rec.UpdatedAt = now
	return nil
}

// ── variantes sin lock para dentro de la transacción ─────────────────────────

type txLedger struct{ db *memDB }

func (l *txLedger) Create(_ context.Context, rec *entity.BorrowRecord) error {
	return l.db.createRecord(rec)
}
func (l *txLedger) FindOpen(_ context.Context, bookID, userID string) (*entity.BorrowRecord, error) {
	return l.db.findOpen(bookID, userID), nil
}
func (l *txLedger) Close(_ context.Context, recordID string, now time.Time) error {
	return closeRecord(l.db, recordID, now)
}
func (l *txLedger) Delete(_ context.Context, recordID string) error {
	delete(l.db.records, recordID)
	return nil
}
func (l *txLedger) Renew(_ context.Context, recordID string, now time.Time) error {
	rec, ok := l.db.records[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.BorrowDate = now
	rec.RenewTimes++
	return nil
}
func (l *txLedger) ListOpenByUser(_ context.Context, _ string) ([]*entity.BorrowRecord, error) {
	return nil, nil
}
func (l *txLedger) ListOpenByUserAndBooks(_ context.Context, _ []string, _ string) ([]*entity.BorrowRecord, error) {
	return nil, nil
}
func (l *txLedger) Search(_ context.Context, _, _, _ string, _, _ int) ([]*entity.BorrowRecord, int, error) {
	return nil, 0, nil
}

type txStock struct{ db *memDB }

func (s *txStock) DecrementStock(_ context.Context, bookID string, expectedVersion int) error {
	return s.db.decrement(bookID, expectedVersion)
}
func (s *txStock) IncrementStock(_ context.Context, bookID string, expectedVersion int) error {
	return s.db.increment(bookID, expectedVersion)
}

// memTxRunner retiene el mutex durante el callback y revierte con
// snapshot/restore si fn falla, igual que el Rollback real.
type memTxRunner struct{ db *memDB }

func (r *memTxRunner) Run(_ context.Context, fn func(repository.BorrowRecordRepository, repository.StockMutator) error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	books, records := r.db.snapshot()
	if err := fn(&txLedger{db: r.db}, &txStock{db: r.db}); err != nil {
		r.db.books = books
		r.db.records = records
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado del escenario
// ──────────────────────────────────────────────────────────────────────────────

const (
	lectorID = "user-lector"
	adminID  = "user-admin"
	bookID   = "book-1"
)

func seedDB(stock int) *memDB {
	db := newMemDB()
	db.books[bookID] = &entity.Book{
		ID: bookID, Title: "Cien años de soledad", Author: "G. García Márquez",
		ISBN: "978-0307474728", Stock: stock, Version: 0,
	}
	db.users[lectorID] = &entity.User{ID: lectorID, Username: "maria", Role: entity.RoleLector}
	db.users[adminID] = &entity.User{ID: adminID, Username: "root", Role: entity.RoleAdmin}
	return db
}

func newUseCase(db *memDB, policy lending.Policy) *applending.UseCase {
	return applending.NewUseCase(
		&memCatalog{db: db},
		&memLedger{db: db},
		&memDirectory{db: db},
		&memEligibility{db: db},
		&memTxRunner{db: db},
		policy,
	)
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrow
// ──────────────────────────────────────────────────────────────────────────────

// Préstamo exitoso: stock baja de 3 a 2, versión sube, queda un registro abierto.
func TestBorrow_Exitoso(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())

	rec, err := uc.Borrow(context.Background(), bookID, lectorID)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, entity.StatusLent, rec.Status)
	assert.Equal(t, "maria", rec.Username, "el registro guarda la copia desnormalizada del username")
	assert.Equal(t, "978-0307474728", rec.ISBN)
	assert.Equal(t, 0, rec.RenewTimes)

	book := db.books[bookID]
	assert.Equal(t, 2, book.Stock)
	assert.Equal(t, 1, book.Version, "cada mutación confirmada incrementa la versión")
	assert.Equal(t, 1, db.openRecordCount(bookID))
}

// Sin stock no se presta y no queda ningún registro.
func TestBorrow_SinStock(t *testing.T) {
	db := seedDB(0)
	uc := newUseCase(db, lending.DefaultPolicy())

	rec, err := uc.Borrow(context.Background(), bookID, lectorID)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Nil(t, rec)
	assert.Equal(t, 0, db.books[bookID].Stock)
	assert.Equal(t, 0, db.openRecordCount(bookID))
}

// No se permite tener dos préstamos abiertos del mismo libro.
func TestBorrow_Duplicado(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())

	_, err := uc.Borrow(context.Background(), bookID, lectorID)
	require.NoError(t, err)

	_, err = uc.Borrow(context.Background(), bookID, lectorID)
	assert.ErrorIs(t, err, domain.ErrDuplicateBorrow)
	assert.Equal(t, 2, db.books[bookID].Stock, "el duplicado no debe tocar stock")
}

// Un admin no es lector: no puede tomar préstamos.
func TestBorrow_NoElegible(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())

	_, err := uc.Borrow(context.Background(), bookID, adminID)
	assert.ErrorIs(t, err, domain.ErrIneligible)

	_, err = uc.Borrow(context.Background(), bookID, "user-fantasma")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestBorrow_LibroInexistente(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())

	_, err := uc.Borrow(context.Background(), "book-fantasma", lectorID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Return
// ──────────────────────────────────────────────────────────────────────────────

// Devolver dos veces: la segunda es no-op exitoso y no acredita stock de más.
func TestReturn_Idempotente(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())
	ctx := context.Background()

	_, err := uc.Borrow(ctx, bookID, lectorID)
	require.NoError(t, err)
	require.Equal(t, 2, db.books[bookID].Stock)

	rec, err := uc.Return(ctx, bookID, lectorID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entity.StatusReturned, rec.Status)
	assert.NotNil(t, rec.ReturnDate)
	assert.Equal(t, 3, db.books[bookID].Stock)

	// Segunda devolución: no-op, mismo estado final
	rec, err = uc.Return(ctx, bookID, lectorID)
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 3, db.books[bookID].Stock, "una devolución duplicada no puede acreditar stock dos veces")
	assert.Equal(t, 0, db.openRecordCount(bookID))
}

// Devolver sin haber prestado: no-op exitoso.
func TestReturn_SinPrestamo(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())

	rec, err := uc.Return(context.Background(), bookID, lectorID)
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 3, db.books[bookID].Stock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Renew
// ──────────────────────────────────────────────────────────────────────────────

// Escenario completo del ciclo: 3 renovaciones permitidas, la cuarta rechaza,
// y la devolución cierra el registro y repone stock.
func TestRenew_CicloCompleto(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())
	ctx := context.Background()

	_, err := uc.Borrow(ctx, bookID, lectorID)
	require.NoError(t, err)
	require.Equal(t, 2, db.books[bookID].Stock)

	for i := 1; i <= 3; i++ {
		antes := time.Now()
		rec, err := uc.Renew(ctx, bookID, lectorID)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, i, rec.RenewTimes)
		assert.False(t, rec.BorrowDate.Before(antes), "renovar reinicia el reloj de vencimiento")
	}

	_, err = uc.Renew(ctx, bookID, lectorID)
	assert.ErrorIs(t, err, domain.ErrRenewalLimit)

	assert.Equal(t, 2, db.books[bookID].Stock, "renovar nunca toca stock")

	rec, err := uc.Return(ctx, bookID, lectorID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReturned, rec.Status)
	assert.Equal(t, 3, db.books[bookID].Stock)
}

// Renovar sin préstamo abierto (nunca prestado o ya devuelto): no-op exitoso.
func TestRenew_SinPrestamoAbierto(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())
	ctx := context.Background()

	rec, err := uc.Renew(ctx, bookID, lectorID)
	assert.NoError(t, err)
	assert.Nil(t, rec)

	_, err = uc.Borrow(ctx, bookID, lectorID)
	require.NoError(t, err)
	_, err = uc.Return(ctx, bookID, lectorID)
	require.NoError(t, err)

	rec, err = uc.Renew(ctx, bookID, lectorID)
	assert.NoError(t, err, "renovar un préstamo ya devuelto es no-op, no error")
	assert.Nil(t, rec)
}

// Con la política estricta un préstamo vencido no se renueva.
func TestRenew_VencidoConPoliticaEstricta(t *testing.T) {
	db := seedDB(3)
	policy := lending.DefaultPolicy()
	policy.AllowRenewOverdue = false
	uc := newUseCase(db, policy)
	ctx := context.Background()

	_, err := uc.Borrow(ctx, bookID, lectorID)
	require.NoError(t, err)

	// Adelantar el reloj 31 días
	uc.WithClock(func() time.Time { return time.Now().AddDate(0, 0, 31) })

	_, err = uc.Renew(ctx, bookID, lectorID)
	assert.ErrorIs(t, err, domain.ErrOverdueNoRenewal)
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshot del lector
// ──────────────────────────────────────────────────────────────────────────────

// Un préstamo de hace 31 días aparece en vencidos; uno de hace 29 no.
func TestBorrowerSnapshot_Vencidos(t *testing.T) {
	db := seedDB(3)
	db.books["book-2"] = &entity.Book{ID: "book-2", Title: "Rayuela", Author: "J. Cortázar", ISBN: "978-8437604572", Stock: 1}
	uc := newUseCase(db, lending.DefaultPolicy())

	now := time.Now()
	db.records["r1"] = &entity.BorrowRecord{
		ID: "r1", UserID: lectorID, BookID: bookID, ISBN: "978-0307474728",
		BorrowDate: now.AddDate(0, 0, -31), Status: entity.StatusLent, RenewTimes: 1,
	}
	db.records["r2"] = &entity.BorrowRecord{
		ID: "r2", UserID: lectorID, BookID: "book-2", ISBN: "978-8437604572",
		BorrowDate: now.AddDate(0, 0, -29), Status: entity.StatusLent,
	}

	snap, err := uc.BorrowerSnapshot(context.Background(), lectorID)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.OpenCount)
	require.Len(t, snap.Overdue, 1, "solo el préstamo de 31 días está vencido")
	overdue := snap.Overdue[0]
	assert.Equal(t, bookID, overdue.BookID)
	assert.Equal(t, "Cien años de soledad", overdue.Title)
	assert.Equal(t, 2, overdue.RemainingRenewals)
	assert.Equal(t, overdue.BorrowDate.AddDate(0, 0, 30), overdue.DueDate)
}

// Sin préstamos: resumen vacío, no error.
func TestBorrowerSnapshot_SinPrestamos(t *testing.T) {
	db := seedDB(3)
	uc := newUseCase(db, lending.DefaultPolicy())

	snap, err := uc.BorrowerSnapshot(context.Background(), lectorID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.OpenCount)
	assert.Empty(t, snap.Overdue)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// N préstamos concurrentes contra stock=1: exactamente uno gana, el stock
// nunca baja de cero y se conserva stock + préstamos abiertos.
func TestBorrow_ConcurrenciaStockUno(t *testing.T) {
	const n = 16
	db := seedDB(1)
	for i := 0; i < n; i++ {
		id := string(rune('a'+i)) + "-lector"
		db.users[id] = &entity.User{ID: id, Username: id, Role: entity.RoleLector}
	}
	uc := newUseCase(db, lending.DefaultPolicy())

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a'+i)) + "-lector"
			_, results[i] = uc.Borrow(context.Background(), bookID, id)
		}(i)
	}
	wg.Wait()

	exitos := 0
	for _, err := range results {
		switch {
		case err == nil:
			exitos++
		case errors.Is(err, domain.ErrOutOfStock), errors.Is(err, domain.ErrConflict):
			// rechazos esperados bajo contención
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, exitos, "con stock=1 exactamente un préstamo debe ganar")
	assert.Equal(t, 0, db.books[bookID].Stock)
	assert.GreaterOrEqual(t, db.books[bookID].Stock, 0, "el stock nunca es negativo")
	assert.Equal(t, 1, db.openRecordCount(bookID), "conservación: stock + abiertos = provisión inicial")
}

// Dos intentos concurrentes del mismo lector: uno gana, el otro recibe
// duplicado (lo garantiza la unicidad del almacenamiento, no el orden).
func TestBorrow_ConcurrenciaMismoLector(t *testing.T) {
	db := seedDB(5)
	uc := newUseCase(db, lending.DefaultPolicy())

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = uc.Borrow(context.Background(), bookID, lectorID)
		}(i)
	}
	wg.Wait()

	exitos, duplicados := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			exitos++
		case errors.Is(err, domain.ErrDuplicateBorrow):
			duplicados++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, exitos)
	assert.Equal(t, 1, duplicados)
	assert.Equal(t, 4, db.books[bookID].Stock)
	assert.Equal(t, 1, db.openRecordCount(bookID))
}

// Préstamos y devoluciones concurrentes sobre varios lectores: al final se
// cumple la conservación stock + abiertos = provisión inicial.
func TestLending_ConservacionBajoCarga(t *testing.T) {
	const n = 10
	db := seedDB(4)
	for i := 0; i < n; i++ {
		id := string(rune('a'+i)) + "-lector"
		db.users[id] = &entity.User{ID: id, Username: id, Role: entity.RoleLector}
	}
	uc := newUseCase(db, lending.Policy{LoanDays: 30, MaxRenewals: 3, StockRetries: 10, AllowRenewOverdue: true})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a'+i)) + "-lector"
			ctx := context.Background()
			if _, err := uc.Borrow(ctx, bookID, id); err == nil {
				if i%2 == 0 {
					_, _ = uc.Return(ctx, bookID, id)
				}
			}
		}(i)
	}
	wg.Wait()

	book := db.books[bookID]
	assert.GreaterOrEqual(t, book.Stock, 0)
	assert.Equal(t, 4, book.Stock+db.openRecordCount(bookID),
		"conservación: stock + préstamos abiertos = provisión inicial")
}

// ──────────────────────────────────────────────────────────────────────────────
// Reintentos por conflicto de versión (mutador inyectable)
// ──────────────────────────────────────────────────────────────────────────────

// conflictTxRunner fuerza ErrVersionConflict en los primeros fallos y después
// delega en el runner real, para recorrer el camino de reintento en forma
// determinista.
type conflictTxRunner struct {
	inner     *memTxRunner
	conflicts int
	calls     int
}

func (r *conflictTxRunner) Run(ctx context.Context, fn func(repository.BorrowRecordRepository, repository.StockMutator) error) error {
	r.calls++
	if r.calls <= r.conflicts {
		return domain.ErrVersionConflict
	}
	return r.inner.Run(ctx, fn)
}

func newUseCaseWithTx(db *memDB, policy lending.Policy, tx applending.TxRunner) *applending.UseCase {
	return applending.NewUseCase(
		&memCatalog{db: db},
		&memLedger{db: db},
		&memDirectory{db: db},
		&memEligibility{db: db},
		tx,
		policy,
	)
}

// Dos conflictos y después éxito: el préstamo entra en el tercer intento.
func TestBorrow_ReintentaTrasConflicto(t *testing.T) {
	db := seedDB(2)
	tx := &conflictTxRunner{inner: &memTxRunner{db: db}, conflicts: 2}
	uc := newUseCaseWithTx(db, lending.DefaultPolicy(), tx)

	rec, err := uc.Borrow(context.Background(), bookID, lectorID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, 1, db.books[bookID].Stock)
	assert.Equal(t, 1, db.openRecordCount(bookID))
}

// Conflictos persistentes: se agota el bound y sale ErrConflict sin dejar
// ningún registro colgado ni stock descontado.
func TestBorrow_AgotaReintentos(t *testing.T) {
	db := seedDB(2)
	tx := &conflictTxRunner{inner: &memTxRunner{db: db}, conflicts: 100}
	uc := newUseCaseWithTx(db, lending.DefaultPolicy(), tx)

	_, err := uc.Borrow(context.Background(), bookID, lectorID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, tx.calls, "el bound por defecto es 3 intentos")
	assert.Equal(t, 2, db.books[bookID].Stock)
	assert.Equal(t, 0, db.openRecordCount(bookID), "sin decremento confirmado no puede quedar registro")
}

// La devolución también reintenta y, agotado el bound, el préstamo sigue
// abierto y el stock intacto (sin estados a medias).
func TestReturn_AgotaReintentos(t *testing.T) {
	db := seedDB(2)
	uc := newUseCase(db, lending.DefaultPolicy())
	ctx := context.Background()

	_, err := uc.Borrow(ctx, bookID, lectorID)
	require.NoError(t, err)

	tx := &conflictTxRunner{inner: &memTxRunner{db: db}, conflicts: 100}
	ucConflicto := newUseCaseWithTx(db, lending.DefaultPolicy(), tx)

	_, err = ucConflicto.Return(ctx, bookID, lectorID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, db.books[bookID].Stock, "sin incremento confirmado el stock no cambia")
	assert.Equal(t, 1, db.openRecordCount(bookID), "el préstamo sigue abierto")
}

// Carrera perdedora: otro lector agota el stock entre la lectura y la
// transacción; el decremento devuelve agotado y el registro creado se
// revierte con la transacción.
func TestBorrow_RollbackConStockAgotadoEnTx(t *testing.T) {
	db := seedDB(1)
	db.users["otro-lector"] = &entity.User{ID: "otro-lector", Username: "pedro", Role: entity.RoleLector}
	uc := newUseCase(db, lending.DefaultPolicy())
	ctx := context.Background()

	// El rival se lleva el último ejemplar
	_, err := uc.Borrow(ctx, bookID, "otro-lector")
	require.NoError(t, err)

	_, err = uc.Borrow(ctx, bookID, lectorID)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 0, db.books[bookID].Stock)
	assert.Equal(t, 1, db.openRecordCount(bookID), "solo el registro del ganador puede quedar abierto")
}
