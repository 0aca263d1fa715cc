package lending

import (
	"context"

	"github.com/tu-usuario/biblioteca-api/internal/domain/repository"
)

var _ EligibilityChecker = (*ReaderEligibility)(nil)

// ReaderEligibility implementa EligibilityChecker sobre el repositorio de
// usuarios: un usuario puede tomar préstamos si existe y tiene rol de lector.
type ReaderEligibility struct {
	users repository.UserRepository
}

// NewReaderEligibility construye el verificador de habilitación.
func NewReaderEligibility(users repository.UserRepository) *ReaderEligibility {
	return &ReaderEligibility{users: users}
}

// IsEligibleBorrower devuelve true si el usuario existe y es lector.
func (e *ReaderEligibility) IsEligibleBorrower(ctx context.Context, userID string) (bool, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsLector(), nil
}
