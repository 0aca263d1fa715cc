package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBookRequest entrada para dar de alta un libro.
type CreateBookRequest struct {
	Title       string          `json:"title" validate:"required,min=1,max=200"`
	Author      string          `json:"author" validate:"required,min=1,max=200"`
	Publisher   string          `json:"publisher"`
	ISBN        string          `json:"isbn" validate:"required"`
	Stock       int             `json:"stock" validate:"min=0"`
	PublishTime string          `json:"publish_time"` // formato 2006-01-02
	Price       decimal.Decimal `json:"price"`
}

// UpdateBookRequest entrada para actualizar metadatos (sin Stock ni Version:
// el stock solo se mueve por préstamos y devoluciones).
type UpdateBookRequest struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Author      *string          `json:"author"`
	Publisher   *string          `json:"publisher"`
	ISBN        *string          `json:"isbn"`
	PublishTime *string          `json:"publish_time"`
	Price       *decimal.Decimal `json:"price"`
}

// BookResponse salida de un libro del catálogo.
type BookResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Publisher   string          `json:"publisher"`
	ISBN        string          `json:"isbn"`
	Stock       int             `json:"stock"`
	PublishTime string          `json:"publish_time"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BorrowableBookResponse libro anotado con el estado de préstamo del usuario
// que consulta (listado del lector).
type BorrowableBookResponse struct {
	BookResponse
	Borrowed bool `json:"borrowed"`
}

// BookListResponse lista paginada de libros.
type BookListResponse struct {
	Items []BookResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// BorrowableBookListResponse lista paginada de libros con estado de préstamo.
type BorrowableBookListResponse struct {
	Items []BorrowableBookResponse `json:"items"`
	Page  PageResponse             `json:"page"`
}
