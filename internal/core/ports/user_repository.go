package ports

import (
	"context"

	"github.com/vetrix/clinic-system/internal/core/domain"
)

// UserRepository is the persistence collaborator owning principal records.
// Email and username lookups are case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
