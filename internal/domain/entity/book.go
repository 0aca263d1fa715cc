package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book representa un libro del catálogo.
// Stock es la cantidad de ejemplares disponibles para préstamo; Version es el
// contador de bloqueo optimista: solo crece, y toda mutación de Stock pasa por
// el update condicional del repositorio (nunca por un Update genérico).
type Book struct {
	ID          string
	Title       string
	Author      string
	Publisher   string
	ISBN        string
	Stock       int
	Version     int
	PublishTime time.Time // solo fecha (DATE en la BD)
	Price       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
