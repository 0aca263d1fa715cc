package dto

import "time"

// BorrowRequest entrada para prestar, devolver o renovar un libro.
// El user_id sale del token; solo se acepta en el body para compatibilidad
// con clientes administrativos.
type BorrowRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

// BorrowRecordResponse salida de un registro de préstamo.
type BorrowRecordResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	BookID     string     `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	DueDate    time.Time  `json:"due_date"`
	Status     string     `json:"status"`
	ISBN       string     `json:"isbn"`
	Username   string     `json:"username"`
	RenewTimes int        `json:"renew_times"`
}

// OverdueBook libro vencido dentro del resumen del lector.
type OverdueBook struct {
	BookID            string    `json:"book_id"`
	Title             string    `json:"title"`
	Author            string    `json:"author"`
	ISBN              string    `json:"isbn"`
	BorrowDate        time.Time `json:"borrow_date"`
	DueDate           time.Time `json:"due_date"`
	RemainingRenewals int       `json:"remaining_renewals"`
}

// BorrowerSnapshotResponse resumen de préstamos de un lector: cantidad de
// préstamos abiertos y el subconjunto vencido, enriquecido con metadatos del
// catálogo.
type BorrowerSnapshotResponse struct {
	OpenCount int           `json:"open_count"`
	Overdue   []OverdueBook `json:"overdue"`
}

// RecordSearchItem fila del listado administrativo de préstamos: combina el
// registro con el título del libro, el apodo del usuario y los campos
// derivados (vencimiento y renovaciones restantes).
type RecordSearchItem struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	ISBN              string     `json:"isbn"`
	Username          string     `json:"username"`
	NickName          string     `json:"nick_name"`
	BorrowDate        time.Time  `json:"borrow_date"`
	ReturnDate        *time.Time `json:"return_date,omitempty"`
	DueDate           time.Time  `json:"due_date"`
	Status            string     `json:"status"`
	RemainingRenewals int        `json:"remaining_renewals"`
}

// RecordSearchResponse lista paginada de préstamos.
type RecordSearchResponse struct {
	Items []RecordSearchItem `json:"items"`
	Page  PageResponse       `json:"page"`
}
