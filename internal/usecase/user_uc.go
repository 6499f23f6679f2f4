package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/repository"
	"invoiceflow/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes account registration and credential checks. Token
// issuance lives in the web layer.
type UserUseCase interface {
	Register(ctx context.Context, email, name, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	userLog := logger.With().Str("component", "UserUC").Logger()
	return &userUC{users: users, log: &userLog}
}

func (uc *userUC) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	defer logging.TraceDuration(uc.log, "UserUC.Register")()

	if len(password) < 8 {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := uc.users.FindByEmail(ctx, repository.NoTX, email); err == nil {
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser(uuid.NewString(), email, name, string(hash))
	if err != nil {
		return nil, err
	}
	if err := uc.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (uc *userUC) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := uc.users.FindByEmail(ctx, repository.NoTX, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (uc *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	return uc.users.FindByID(ctx, repository.NoTX, id)
}
