package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/biblioteca-api/internal/domain"
	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

var _ repository.BorrowRecordRepository = (*BorrowRecordRepo)(nil)

const borrowRecordColumns = `id, user_id, book_id, borrow_date, return_date, status, isbn, username, renew_times, created_at, updated_at`

// BorrowRecordRepo implementación del libro mayor de préstamos sobre
// PostgreSQL (usable con pool o tx).
type BorrowRecordRepo struct {
	q Querier
}

// NewBorrowRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBorrowRecordRepository(q Querier) *BorrowRecordRepo {
	return &BorrowRecordRepo{q: q}
}

// Create persiste un registro de préstamo abierto. El índice parcial único
// sobre (book_id, user_id) WHERE status = 'borrowed' cierra la carrera entre
// dos intentos concurrentes del mismo usuario: exactamente uno inserta, el
// otro recibe domain.ErrDuplicateBorrow.
func (r *BorrowRecordRepo) Create(ctx context.Context, record *entity.BorrowRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	query := `
		INSERT INTO borrow_records (id, user_id, book_id, borrow_date, return_date, status, isbn, username, renew_times, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		record.ID, record.UserID, record.BookID, record.BorrowDate, record.ReturnDate,
		record.Status, record.ISBN, record.Username, record.RenewTimes,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateBorrow
		}
		return fmt.Errorf("insert borrow record: %w", err)
	}
	return nil
}

// FindOpen devuelve el registro abierto de (book, user), o nil si no existe.
func (r *BorrowRecordRepo) FindOpen(ctx context.Context, bookID, userID string) (*entity.BorrowRecord, error) {
	query := `SELECT ` + borrowRecordColumns + `
		FROM borrow_records WHERE book_id = $1 AND user_id = $2 AND status = $3`
	var rec entity.BorrowRecord
	err := r.q.QueryRow(ctx, query, bookID, userID, entity.StatusLent).Scan(
		&rec.ID, &rec.UserID, &rec.BookID, &rec.BorrowDate, &rec.ReturnDate,
		&rec.Status, &rec.ISBN, &rec.Username, &rec.RenewTimes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open borrow record: %w", err)
	}
	return &rec, nil
}

// Close marca el registro como devuelto.
func (r *BorrowRecordRepo) Close(ctx context.Context, recordID string, now time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE borrow_records SET return_date = $2, status = $3, updated_at = $2
		WHERE id = $1 AND status = $4`,
		recordID, now, entity.StatusReturned, entity.StatusLent,
	)
	if err != nil {
		return fmt.Errorf("close borrow record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un registro. Solo lo usa la compensación del coordinador
// cuando el decremento de stock no pudo confirmarse.
func (r *BorrowRecordRepo) Delete(ctx context.Context, recordID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM borrow_records WHERE id = $1`, recordID)
	if err != nil {
		return fmt.Errorf("delete borrow record: %w", err)
	}
	return nil
}

// Renew reinicia el reloj de vencimiento (borrow_date = now) e incrementa el
// contador de renovaciones. No toca stock.
func (r *BorrowRecordRepo) Renew(ctx context.Context, recordID string, now time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE borrow_records SET borrow_date = $2, renew_times = renew_times + 1, updated_at = $2
		WHERE id = $1 AND status = $3`,
		recordID, now, entity.StatusLent,
	)
	if err != nil {
		return fmt.Errorf("renew borrow record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOpenByUser devuelve todos los préstamos abiertos de un usuario.
func (r *BorrowRecordRepo) ListOpenByUser(ctx context.Context, userID string) ([]*entity.BorrowRecord, error) {
	query := `SELECT ` + borrowRecordColumns + `
		FROM borrow_records WHERE user_id = $1 AND status = $2 ORDER BY borrow_date`
	rows, err := r.q.Query(ctx, query, userID, entity.StatusLent)
	if err != nil {
		return nil, fmt.Errorf("list open borrow records: %w", err)
	}
	defer rows.Close()
	return scanBorrowRecords(rows)
}

// ListOpenByUserAndBooks devuelve los préstamos abiertos del usuario entre los
// libros dados (consulta en lote para evitar N+1 al anotar listados).
func (r *BorrowRecordRepo) ListOpenByUserAndBooks(ctx context.Context, bookIDs []string, userID string) ([]*entity.BorrowRecord, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + borrowRecordColumns + `
		FROM borrow_records WHERE book_id = ANY($1) AND user_id = $2 AND status = $3`
	rows, err := r.q.Query(ctx, query, bookIDs, userID, entity.StatusLent)
	if err != nil {
		return nil, fmt.Errorf("list open borrow records by books: %w", err)
	}
	defer rows.Close()
	return scanBorrowRecords(rows)
}

// Search pagina el historial con filtros opcionales por username/isbn (LIKE) y
// userID (igualdad), ordenado por updated_at desc.
func (r *BorrowRecordRepo) Search(ctx context.Context, username, isbn, userID string, limit, offset int) ([]*entity.BorrowRecord, int, error) {
	where := ` WHERE ($1 = '' OR username ILIKE $2) AND ($3 = '' OR isbn ILIKE $4) AND ($5 = '' OR user_id::text = $5)`
	args := []any{username, likePattern(username), isbn, likePattern(isbn), userID}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM borrow_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count borrow records: %w", err)
	}

	query := `SELECT ` + borrowRecordColumns + ` FROM borrow_records` + where +
		` ORDER BY updated_at DESC LIMIT $6 OFFSET $7`
	rows, err := r.q.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search borrow records: %w", err)
	}
	defer rows.Close()

	records, err := scanBorrowRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func scanBorrowRecords(rows pgx.Rows) ([]*entity.BorrowRecord, error) {
	var records []*entity.BorrowRecord
	for rows.Next() {
		var rec entity.BorrowRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.BookID, &rec.BorrowDate, &rec.ReturnDate,
			&rec.Status, &rec.ISBN, &rec.Username, &rec.RenewTimes,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan borrow record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate borrow records: %w", err)
	}
	return records, nil
}
