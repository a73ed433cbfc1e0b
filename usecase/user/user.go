package user

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
	"github.com/fastygo/tasktracker/usecase"
)

type UseCase struct {
	users    repository.UserRepository
	activity usecase.ActivityRecorder
	logger   *zap.Logger
}

func New(users repository.UserRepository, activity usecase.ActivityRecorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		activity: activity,
		logger:   logger,
	}
}

func (uc *UseCase) ListAll(ctx context.Context) ([]domain.User, error) {
	return uc.users.FindAll(ctx)
}

// GetByID returns nil without an error when the user does not exist.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return uc.users.FindByID(ctx, id)
}

func (uc *UseCase) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return uc.users.FindByUsername(ctx, username)
}

// Search matches usernames containing term, ignoring case. A blank term matches nothing.
func (uc *UseCase) Search(ctx context.Context, term string) ([]domain.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.User{}, nil
	}
	return uc.users.SearchByUsername(ctx, term)
}

func (uc *UseCase) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return uc.users.ExistsByUsername(ctx, username)
}

func (uc *UseCase) ExistsByID(ctx context.Context, id string) (bool, error) {
	return uc.users.ExistsByID(ctx, id)
}

// Create ignores any supplied identifier. Blank usernames skip the uniqueness check.
func (uc *UseCase) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	user.ID = ""

	if strings.TrimSpace(user.Username) != "" {
		taken, err := uc.users.ExistsByUsername(ctx, user.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrUsernameTaken
		}
	}

	created, err := uc.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, domain.ActionCreated, created)
	return created, nil
}

// Update overwrites username, email and role of an existing user.
func (uc *UseCase) Update(ctx context.Context, id string, patch *domain.User) (*domain.User, error) {
	if patch == nil {
		return nil, domain.ErrInvalidPayload
	}

	exists, err := uc.users.ExistsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, userNotFound(id)
	}

	original, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, userNotFound(id)
	}

	if patch.Username != original.Username {
		taken, err := uc.users.ExistsByUsername(ctx, patch.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrUsernameTaken
		}
	}

	original.Username = patch.Username
	original.Email = patch.Email
	original.Role = patch.Role

	updated, err := uc.users.Update(ctx, original)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, domain.ActionUpdated, updated)
	return updated, nil
}

// Delete reports whether a user was removed. A missing user is not an error.
func (uc *UseCase) Delete(ctx context.Context, id string) (bool, error) {
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	if err := uc.users.Delete(ctx, user); err != nil {
		return false, err
	}
	uc.logger.Info("user deleted", zap.String("user_id", user.ID))
	uc.record(ctx, domain.ActionDeleted, user)
	return true, nil
}

func (uc *UseCase) record(ctx context.Context, action string, user *domain.User) {
	usecase.RecordActivity(ctx, uc.activity, uc.logger, domain.Activity{
		Entity:   domain.EntityUser,
		Action:   action,
		EntityID: user.ID,
		Summary:  user.Username,
		Attributes: map[string]string{
			"role": user.Role,
		},
	})
}

func userNotFound(id string) error {
	return domain.Errorf(domain.ErrCodeNotFound, "user not found with ID: %s", id)
}
