package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/biblioteca-api/internal/domain"
	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
	"github.com/tu-usuario/biblioteca-api/pkg/textutil"
)

var _ repository.BookRepository = (*BookRepo)(nil)
var _ repository.StockMutator = (*BookRepo)(nil)

const bookColumns = `id, title, author, publisher, isbn, stock, version, publish_time, price, created_at, updated_at`

// BookRepo implementación de BookRepository y StockMutator sobre PostgreSQL
// (usable con pool o tx).
type BookRepo struct {
	q Querier
}

// NewBookRepository construye el adaptador de catálogo. Pasar pool o tx (Querier).
func NewBookRepository(q Querier) *BookRepo {
	return &BookRepo{q: q}
}

// Create persiste un libro nuevo. Version inicia en 0. title_norm guarda el
// título plegado (sin diacríticos, en minúsculas) para la búsqueda.
func (r *BookRepo) Create(ctx context.Context, book *entity.Book) error {
	query := `
		INSERT INTO books (id, title, title_norm, author, publisher, isbn, stock, version, publish_time, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		book.ID, book.Title, textutil.Fold(book.Title), book.Author, book.Publisher, book.ISBN,
		book.Stock, book.PublishTime, book.Price, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetByID obtiene un libro por ID (incluye stock y version vigentes).
func (r *BookRepo) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	var b entity.Book
	err := r.q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.Publisher, &b.ISBN, &b.Stock, &b.Version,
		&b.PublishTime, &b.Price, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

// Update actualiza los metadatos de un libro. No toca stock ni version: esas
// columnas solo las muta el update condicional de DecrementStock/IncrementStock.
func (r *BookRepo) Update(ctx context.Context, book *entity.Book) error {
	query := `
		UPDATE books SET title = $2, title_norm = $3, author = $4, publisher = $5, isbn = $6, publish_time = $7, price = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		book.ID, book.Title, textutil.Fold(book.Title), book.Author, book.Publisher, book.ISBN,
		book.PublishTime, book.Price, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// Delete elimina un libro del catálogo.
func (r *BookRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// DeleteBatch elimina varios libros en una sola sentencia.
func (r *BookRepo) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `DELETE FROM books WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete books batch: %w", err)
	}
	return nil
}

// Search pagina el catálogo con filtros opcionales por título e ISBN,
// ordenado por updated_at desc. El filtro de título compara contra la columna
// plegada (title_norm), así "garcia" encuentra "García". Devuelve además el
// total para los metadatos de página.
func (r *BookRepo) Search(ctx context.Context, title, isbn string, limit, offset int) ([]*entity.Book, int, error) {
	where := ` WHERE ($1 = '' OR title_norm LIKE $2) AND ($3 = '' OR isbn ILIKE $4)`
	args := []any{title, likePattern(textutil.Fold(title)), isbn, likePattern(isbn)}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	query := `SELECT ` + bookColumns + ` FROM books` + where +
		` ORDER BY updated_at DESC LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	books, err := scanBooks(rows)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// FindAllByIDIn obtiene en lote los libros con los IDs dados.
func (r *BookRepo) FindAllByIDIn(ctx context.Context, ids []string) ([]*entity.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find books by ids: %w", err)
	}
	defer rows.Close()
	return scanBooks(rows)
}

// DecrementStock descuenta un ejemplar con bloqueo optimista: un único UPDATE
// condicionado por la versión observada y por stock > 0. Si no afecta filas,
// relee el libro para distinguir la causa:
//   - no existe            -> domain.ErrNotFound
//   - stock agotado        -> domain.ErrOutOfStock (terminal, no se reintenta)
//   - versión distinta     -> domain.ErrVersionConflict (el caller relee y reintenta)
func (r *BookRepo) DecrementStock(ctx context.Context, bookID string, expectedVersion int) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE books SET stock = stock - 1, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND stock > 0`,
		bookID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	return r.classifyStockFailure(ctx, bookID, expectedVersion, true)
}

// IncrementStock repone un ejemplar con bloqueo optimista. Sin tope superior:
// una devolución siempre procede en cuanto la versión coincide.
func (r *BookRepo) IncrementStock(ctx context.Context, bookID string, expectedVersion int) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE books SET stock = stock + 1, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`,
		bookID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	return r.classifyStockFailure(ctx, bookID, expectedVersion, false)
}

// classifyStockFailure traduce un update condicional sin filas afectadas al
// error de dominio que corresponde.
func (r *BookRepo) classifyStockFailure(ctx context.Context, bookID string, expectedVersion int, decrement bool) error {
	book, err := r.GetByID(ctx, bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return domain.ErrNotFound
	}
	if book.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	if decrement && book.Stock <= 0 {
		return domain.ErrOutOfStock
	}
	// La versión coincide y el stock alcanzaba: el update debió aplicar.
	return domain.ErrVersionConflict
}

func scanBooks(rows pgx.Rows) ([]*entity.Book, error) {
	var books []*entity.Book
	for rows.Next() {
		var b entity.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.Publisher, &b.ISBN, &b.Stock, &b.Version,
			&b.PublishTime, &b.Price, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}
