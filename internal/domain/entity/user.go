package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin  = "admin"
	RoleLector = "lector"
)

// User representa un usuario del sistema (administrador o lector).
// Solo los lectores pueden tomar libros en préstamo.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	NickName     string
	Role         string // admin, lector
	Email        string
	Phone        string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsLector indica si el usuario tiene rol de lector (habilitado para préstamos).
func (u *User) IsLector() bool {
	return u != nil && u.Role == RoleLector
}

// IsAdmin indica si el usuario tiene rol de administrador.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
