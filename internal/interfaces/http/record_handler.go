package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/biblioteca-api/internal/application/dto"
	"github.com/tu-usuario/biblioteca-api/internal/application/usecase"
)

// RecordHandler maneja los listados del historial de préstamos.
type RecordHandler struct {
	uc *usecase.RecordUseCase
}

// NewRecordHandler construye el handler.
func NewRecordHandler(uc *usecase.RecordUseCase) *RecordHandler {
	return &RecordHandler{uc: uc}
}

// Search godoc
// @Summary      Buscar préstamos (admin)
// @Tags         records
// @Security     Bearer
// @Produce      json
// @Param        username  query  string  false  "Filtro por username"
// @Param        isbn      query  string  false  "Filtro por ISBN"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200       {object}  dto.RecordSearchResponse
// @Router       /api/records [get]
func (h *RecordHandler) Search(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	out, err := h.uc.Search(c.UserContext(), c.Query("username"), c.Query("isbn"), page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// MyRecords godoc
// @Summary      Historial de préstamos del lector autenticado
// @Tags         records
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.RecordSearchResponse
// @Router       /api/my/records [get]
func (h *RecordHandler) MyRecords(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	out, err := h.uc.SearchByUser(c.UserContext(), GetUserID(c), page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}
