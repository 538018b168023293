package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	store        repository.Store
	cascade      *CascadeCoordinator
	logger       *zap.Logger
	passwordCost int
}

func NewUserService(store repository.Store, cascade *CascadeCoordinator, logger *zap.Logger) *UserService {
	return &UserService{
		store:        store,
		cascade:      cascade,
		logger:       logger.With(zap.String("component", "user_service")),
		passwordCost: bcrypt.DefaultCost,
	}
}

// WithPasswordCost overrides the bcrypt cost used for new password hashes.
func (s *UserService) WithPasswordCost(cost int) *UserService {
	s.passwordCost = cost
	return s
}

// Register creates a self-service account with the user role.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	req = req.Normalized()
	if err := model.Validate(req); err != nil {
		return nil, err
	}
	return s.create(ctx, req.Name, req.Email, req.Password, req.Gender, model.RoleUser, true)
}

// CreateUser is the admin variant of Register; role and active flag may be set.
func (s *UserService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	req = req.Normalized()
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return s.create(ctx, req.Name, req.Email, req.Password, req.Gender, role, active)
}

func (s *UserService) create(ctx context.Context, name, email, password, gender string, role model.Role, active bool) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, apperror.Failed(err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Gender:       gender,
		Active:       active,
		Role:         role,
	}
	if err := s.store.Users().CreateUser(ctx, user); err != nil {
		return nil, apperror.Failed(duplicateAs(err, apperror.ErrEmailTaken))
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords both
// yield apperror.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	req = req.Normalized()
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Failed(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperror.ErrInactiveAccount
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperror.Failed(notFoundAs(err, apperror.ErrUserNotFound))
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.store.Users().ListUsers(ctx)
	if err != nil {
		return nil, apperror.Failed(err)
	}
	return users, nil
}

func (s *UserService) UpdateUser(ctx context.Context, userID string, patch model.UpdateUserRequest) (*model.User, error) {
	patch = patch.Normalized()
	if err := model.Validate(patch); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperror.Failed(notFoundAs(err, apperror.ErrUserNotFound))
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Gender != nil {
		user.Gender = *patch.Gender
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Active != nil {
		user.Active = *patch.Active
	}

	if err := s.store.Users().UpdateUser(ctx, user); err != nil {
		err = notFoundAs(err, apperror.ErrUserNotFound)
		return nil, apperror.Failed(duplicateAs(err, apperror.ErrEmailTaken))
	}

	s.logger.Info("user updated", zap.String("user_id", user.ID))
	return user, nil
}

// SetRefreshToken stores a digest of token; an empty token signs the user out.
func (s *UserService) SetRefreshToken(ctx context.Context, userID, token string) error {
	user, err := s.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return apperror.Failed(notFoundAs(err, apperror.ErrUserNotFound))
	}

	user.RefreshToken = ""
	if token != "" {
		user.RefreshToken = digest(token)
	}
	if err := s.store.Users().UpdateUser(ctx, user); err != nil {
		return apperror.Failed(notFoundAs(err, apperror.ErrUserNotFound))
	}
	return nil
}

// VerifyRefreshToken returns the user when token is the one last issued.
func (s *UserService) VerifyRefreshToken(ctx context.Context, userID, token string) (*model.User, error) {
	user, err := s.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.ErrInvalidRefreshToken
		}
		return nil, apperror.Failed(err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(digest(token))) != 1 {
		return nil, apperror.ErrInvalidRefreshToken
	}
	if !user.Active {
		return nil, apperror.ErrInactiveAccount
	}
	return user, nil
}

// DeleteUser removes the user together with all of their bookings.
func (s *UserService) DeleteUser(ctx context.Context, userID string) (*model.CascadeResult, error) {
	return s.cascade.OnDeleteUser(ctx, userID)
}

// DeleteAllUsers removes every account with the user role; admins are kept.
func (s *UserService) DeleteAllUsers(ctx context.Context) (*model.CascadeResult, error) {
	return s.cascade.OnDeleteUsersByRole(ctx, model.RoleUser)
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
