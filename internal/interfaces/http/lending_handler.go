package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/biblioteca-api/internal/application/dto"
	applending "github.com/tu-usuario/biblioteca-api/internal/application/lending"
	"github.com/tu-usuario/biblioteca-api/internal/domain"
	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
)

// LendingHandler maneja el ciclo de préstamo del lector autenticado:
// prestar, devolver, renovar y el resumen de préstamos.
type LendingHandler struct {
	uc *applending.UseCase
}

// NewLendingHandler construye el handler.
func NewLendingHandler(uc *applending.UseCase) *LendingHandler {
	return &LendingHandler{uc: uc}
}

// Borrow godoc
// @Summary      Prestar un libro
// @Tags         lending
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BorrowRequest  true  "book_id"
// @Success      201   {object}  dto.BorrowRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/my/borrows [post]
func (h *LendingHandler) Borrow(c *fiber.Ctx) error {
	var in dto.BorrowRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.BookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "book_id es requerido"})
	}
	record, err := h.uc.Borrow(c.UserContext(), in.BookID, GetUserID(c))
	if err != nil {
		return lendingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.toRecordResponse(record))
}

// Return godoc
// @Summary      Devolver un libro
// @Tags         lending
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BorrowRequest  true  "book_id"
// @Success      200   {object}  dto.BorrowRecordResponse
// @Success      204   "sin préstamo abierto; la devolución es idempotente"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/my/returns [post]
func (h *LendingHandler) Return(c *fiber.Ctx) error {
	var in dto.BorrowRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.BookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "book_id es requerido"})
	}
	record, err := h.uc.Return(c.UserContext(), in.BookID, GetUserID(c))
	if err != nil {
		return lendingError(c, err)
	}
	if record == nil {
		// Idempotente: sin préstamo abierto no hay nada que devolver.
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(h.toRecordResponse(record))
}

// Renew godoc
// @Summary      Renovar un préstamo
// @Tags         lending
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BorrowRequest  true  "book_id"
// @Success      200   {object}  dto.BorrowRecordResponse
// @Success      204   "sin préstamo abierto; la renovación es idempotente"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/my/renewals [post]
func (h *LendingHandler) Renew(c *fiber.Ctx) error {
	var in dto.BorrowRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.BookID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "book_id es requerido"})
	}
	record, err := h.uc.Renew(c.UserContext(), in.BookID, GetUserID(c))
	if err != nil {
		return lendingError(c, err)
	}
	if record == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(h.toRecordResponse(record))
}

// Snapshot godoc
// @Summary      Resumen de préstamos del lector
// @Tags         lending
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BorrowerSnapshotResponse
// @Router       /api/my/borrows/summary [get]
func (h *LendingHandler) Snapshot(c *fiber.Ctx) error {
	out, err := h.uc.BorrowerSnapshot(c.UserContext(), GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

func (h *LendingHandler) toRecordResponse(r *entity.BorrowRecord) dto.BorrowRecordResponse {
	return dto.BorrowRecordResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		BorrowDate: r.BorrowDate,
		ReturnDate: r.ReturnDate,
		DueDate:    h.uc.Policy().DueDate(r.BorrowDate),
		Status:     r.Status,
		ISBN:       r.ISBN,
		Username:   r.Username,
		RenewTimes: r.RenewTimes,
	}
}

// lendingError traduce los errores de dominio del ciclo de préstamo a HTTP.
func lendingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "USER_NOT_FOUND", Message: "usuario no encontrado"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "BOOK_NOT_FOUND", Message: "libro no encontrado"})
	case errors.Is(err, domain.ErrIneligible):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "NOT_A_READER", Message: "solo los lectores pueden tomar préstamos"})
	case errors.Is(err, domain.ErrOutOfStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "OUT_OF_STOCK", Message: "no hay ejemplares disponibles"})
	case errors.Is(err, domain.ErrDuplicateBorrow):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_BORROWED", Message: "el usuario ya tiene este libro en préstamo"})
	case errors.Is(err, domain.ErrRenewalLimit):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RENEWAL_LIMIT", Message: "se alcanzó el máximo de renovaciones"})
	case errors.Is(err, domain.ErrOverdueNoRenewal):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "OVERDUE", Message: "préstamo vencido, no se permite renovar"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia, reintente la operación"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
