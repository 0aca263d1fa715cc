package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los errores de negocio son deterministas y se devuelven tal cual al caller;
// ErrVersionConflict es transitorio y solo lo reintenta el coordinador de préstamos.
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrUserNotFound     = errors.New("usuario no encontrado")
	ErrUsernameTaken    = errors.New("el nombre de usuario ya está registrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrIneligible       = errors.New("el usuario no tiene rol de lector")
	ErrOutOfStock       = errors.New("no hay ejemplares disponibles")
	ErrDuplicateBorrow  = errors.New("el usuario ya tiene este libro en préstamo")
	ErrRenewalLimit     = errors.New("se alcanzó el máximo de renovaciones")
	ErrOverdueNoRenewal = errors.New("préstamo vencido, no se permite renovar")
	ErrVersionConflict  = errors.New("conflicto de versión en el stock")
	ErrConflict         = errors.New("conflicto de concurrencia, reintente la operación")
)
