package repository

import (
	"context"

	"github.com/tu-usuario/biblioteca-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, ids []string) error
	FindAllByIDIn(ctx context.Context, ids []string) ([]*entity.User, error)
	// Search pagina usuarios con filtros opcionales por nick_name, phone y
	// email (LIKE), ordenado por updated_at desc.
	Search(ctx context.Context, name, phone, email string, limit, offset int) ([]*entity.User, int, error)
}
