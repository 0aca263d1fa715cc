package usecase

import (
	"context"

	"github.com/tu-usuario/biblioteca-api/internal/application/dto"
	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
	"github.com/tu-usuario/biblioteca-api/internal/domain/lending"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

// RecordUseCase listados del historial de préstamos. Solo lecturas: las
// mutaciones del libro mayor pasan por el coordinador de préstamos.
type RecordUseCase struct {
	records repository.BorrowRecordRepository
	books   repository.BookRepository
	users   repository.UserRepository
	policy  lending.Policy
}

// NewRecordUseCase construye el caso de uso.
func NewRecordUseCase(
	records repository.BorrowRecordRepository,
	books repository.BookRepository,
	users repository.UserRepository,
	policy lending.Policy,
) *RecordUseCase {
	return &RecordUseCase{records: records, books: books, users: users, policy: policy}
}

// Search pagina el historial con filtros opcionales por username e ISBN, y
// enriquece cada fila con el título del libro, el apodo del usuario y los
// campos derivados de la política (vencimiento, renovaciones restantes).
// Las consultas de enriquecimiento van en lote, no por fila.
func (uc *RecordUseCase) Search(ctx context.Context, username, isbn string, page dto.PageRequest) (*dto.RecordSearchResponse, error) {
	return uc.search(ctx, username, isbn, "", page)
}

// SearchByUser pagina el historial de un solo usuario (vista del lector).
func (uc *RecordUseCase) SearchByUser(ctx context.Context, userID string, page dto.PageRequest) (*dto.RecordSearchResponse, error) {
	return uc.search(ctx, "", "", userID, page)
}

func (uc *RecordUseCase) search(ctx context.Context, username, isbn, userID string, page dto.PageRequest) (*dto.RecordSearchResponse, error) {
	page.DefaultPage()
	records, total, err := uc.records.Search(ctx, username, isbn, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	titles, nicks, err := uc.enrichment(ctx, records)
	if err != nil {
		return nil, err
	}

	items := make([]dto.RecordSearchItem, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.RecordSearchItem{
			ID:                rec.ID,
			Title:             titles[rec.BookID],
			ISBN:              rec.ISBN,
			Username:          rec.Username,
			NickName:          nicks[rec.UserID],
			BorrowDate:        rec.BorrowDate,
			ReturnDate:        rec.ReturnDate,
			DueDate:           uc.policy.DueDate(rec.BorrowDate),
			Status:            rec.Status,
			RemainingRenewals: uc.policy.RemainingRenewals(rec),
		})
	}
	return &dto.RecordSearchResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// enrichment resuelve en lote los títulos de libros y apodos de usuarios
// referidos por la página de registros.
func (uc *RecordUseCase) enrichment(ctx context.Context, records []*entity.BorrowRecord) (map[string]string, map[string]string, error) {
	if len(records) == 0 {
		return nil, nil, nil
	}

	bookIDs := make([]string, 0, len(records))
	userIDs := make([]string, 0, len(records))
	seenBooks := make(map[string]bool)
	seenUsers := make(map[string]bool)
	for _, rec := range records {
		if !seenBooks[rec.BookID] {
			seenBooks[rec.BookID] = true
			bookIDs = append(bookIDs, rec.BookID)
		}
		if !seenUsers[rec.UserID] {
			seenUsers[rec.UserID] = true
			userIDs = append(userIDs, rec.UserID)
		}
	}

	books, err := uc.books.FindAllByIDIn(ctx, bookIDs)
	if err != nil {
		return nil, nil, err
	}
	titles := make(map[string]string, len(books))
	for _, b := range books {
		titles[b.ID] = b.Title
	}

	users, err := uc.users.FindAllByIDIn(ctx, userIDs)
	if err != nil {
		return nil, nil, err
	}
	nicks := make(map[string]string, len(users))
	for _, u := range users {
		nicks[u.ID] = u.NickName
	}
	return titles, nicks, nil
}
