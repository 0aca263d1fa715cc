package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/biblioteca-api/internal/application/dto"
	"github.com/tu-usuario/biblioteca-api/internal/domain"
	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
	"github.com/tu-usuario/biblioteca-api/pkg/textutil"
)

const publishTimeLayout = "2006-01-02"

// BookUseCase casos de uso CRUD del catálogo de libros. Stock y Version no se
// tocan acá: el stock solo se mueve por préstamos y devoluciones (el stock
// inicial se fija al crear).
type BookUseCase struct {
	repo    repository.BookRepository
	records repository.BorrowRecordRepository
}

// NewBookUseCase construye el caso de uso.
func NewBookUseCase(repo repository.BookRepository, records repository.BorrowRecordRepository) *BookUseCase {
	return &BookUseCase{repo: repo, records: records}
}

// Create da de alta un libro con su provisión inicial de ejemplares.
func (uc *BookUseCase) Create(ctx context.Context, in dto.CreateBookRequest) (*dto.BookResponse, error) {
	title := textutil.Clean(in.Title)
	author := textutil.Clean(in.Author)
	isbn := textutil.CleanISBN(in.ISBN)
	if title == "" || author == "" || isbn == "" || in.Stock < 0 {
		return nil, domain.ErrInvalidInput
	}
	publishTime, err := parsePublishTime(in.PublishTime)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	book := &entity.Book{
		ID:          uuid.New().String(),
		Title:       title,
		Author:      author,
		Publisher:   textutil.Clean(in.Publisher),
		ISBN:        isbn,
		Stock:       in.Stock,
		Version:     0,
		PublishTime: publishTime,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, book); err != nil {
		return nil, err
	}
	return toBookResponse(book), nil
}

// GetByID obtiene un libro por ID, o nil si no existe.
func (uc *BookUseCase) GetByID(ctx context.Context, id string) (*dto.BookResponse, error) {
	book, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, nil
	}
	return toBookResponse(book), nil
}

// Update actualiza metadatos de un libro. No permite modificar Stock ni
// Version: esas columnas solo las muta el flujo de préstamos.
func (uc *BookUseCase) Update(ctx context.Context, id string, in dto.UpdateBookRequest) (*dto.BookResponse, error) {
	book, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, nil
	}
	if in.Title != nil {
		title := textutil.Clean(*in.Title)
		if title == "" {
			return nil, domain.ErrInvalidInput
		}
		book.Title = title
	}
	if in.Author != nil {
		book.Author = textutil.Clean(*in.Author)
	}
	if in.Publisher != nil {
		book.Publisher = textutil.Clean(*in.Publisher)
	}
	if in.ISBN != nil {
		isbn := textutil.CleanISBN(*in.ISBN)
		if isbn == "" {
			return nil, domain.ErrInvalidInput
		}
		book.ISBN = isbn
	}
	if in.PublishTime != nil {
		publishTime, err := parsePublishTime(*in.PublishTime)
		if err != nil {
			return nil, err
		}
		book.PublishTime = publishTime
	}
	if in.Price != nil {
		book.Price = *in.Price
	}
	book.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, book); err != nil {
		return nil, err
	}
	return toBookResponse(book), nil
}

// Delete elimina un libro del catálogo.
func (uc *BookUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// DeleteBatch elimina varios libros en una operación.
func (uc *BookUseCase) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return domain.ErrInvalidInput
	}
	return uc.repo.DeleteBatch(ctx, ids)
}

// Search pagina el catálogo con filtros opcionales por título e ISBN.
func (uc *BookUseCase) Search(ctx context.Context, title, isbn string, page dto.PageRequest) (*dto.BookListResponse, error) {
	page.DefaultPage()
	books, total, err := uc.repo.Search(ctx, textutil.Clean(title), textutil.CleanISBN(isbn), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, *toBookResponse(b))
	}
	return &dto.BookListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// SearchForBorrower pagina el catálogo anotando cada libro con el estado de
// préstamo del usuario que consulta (una sola consulta en lote al libro mayor,
// sin N+1).
func (uc *BookUseCase) SearchForBorrower(ctx context.Context, userID, title, isbn string, page dto.PageRequest) (*dto.BorrowableBookListResponse, error) {
	page.DefaultPage()
	books, total, err := uc.repo.Search(ctx, textutil.Clean(title), textutil.CleanISBN(isbn), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	borrowed := make(map[string]bool)
	if len(books) > 0 {
		ids := make([]string, 0, len(books))
		for _, b := range books {
			ids = append(ids, b.ID)
		}
		open, err := uc.records.ListOpenByUserAndBooks(ctx, ids, userID)
		if err != nil {
			return nil, err
		}
		for _, rec := range open {
			borrowed[rec.BookID] = true
		}
	}

	items := make([]dto.BorrowableBookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, dto.BorrowableBookResponse{
			BookResponse: *toBookResponse(b),
			Borrowed:     borrowed[b.ID],
		})
	}
	return &dto.BorrowableBookListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

func parsePublishTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(publishTimeLayout, s)
	if err != nil {
		return time.Time{}, domain.ErrInvalidInput
	}
	return t, nil
}

func toBookResponse(b *entity.Book) *dto.BookResponse {
	if b == nil {
		return nil
	}
	publishTime := ""
	if !b.PublishTime.IsZero() {
		publishTime = b.PublishTime.Format(publishTimeLayout)
	}
	return &dto.BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		ISBN:        b.ISBN,
		Stock:       b.Stock,
		PublishTime: publishTime,
		Price:       b.Price,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
