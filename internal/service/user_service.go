package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/auth"
	"github.com/example/assetdesk/internal/models"
	"github.com/example/assetdesk/internal/repository"
)

const invalidCredentials = "invalid username or password"

type RegisterInput struct {
	FullName string
	Username string
	Password string
}

// UserInput creates or edits an account. An empty Password on update keeps the current one.
type UserInput struct {
	FullName string
	Username string
	Password string
	Role     models.Role
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UserService handles registration, login and admin account management.
type UserService struct {
	users  *repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	log    *slog.Logger
}

func NewUserService(users *repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, log *slog.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens, log: log}
}

// Register creates a self-service account, which always has the user role.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, UserInput{
		FullName: in.FullName,
		Username: in.Username,
		Password: in.Password,
		Role:     models.RoleUser,
	})
}

// Login verifies credentials and issues a bearer token. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, apperrors.NewUnauthorizedError(invalidCredentials)
		}
		return nil, err
	}
	if err := s.hasher.Verify(password, u.Password); err != nil {
		return nil, apperrors.NewUnauthorizedError(invalidCredentials)
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", "user_id", u.ID, "role", u.Role)
	return &LoginResult{Token: token, User: u}, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// Create lets an admin add an account with any valid role.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in UserInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	if in.FullName == "" || in.Username == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("fullName, username and password are required")
	}
	if !in.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", string(in.Role))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username: in.Username,
		Password: hash,
		FullName: in.FullName,
		Role:     in.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update edits an account. Admins cannot change their own role.
func (s *UserService) Update(ctx context.Context, actor Actor, id uint, in UserInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	if in.FullName == "" || in.Username == "" {
		return nil, apperrors.NewValidationError("fullName and username are required")
	}
	if !in.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", string(in.Role))
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if id == actor.UserID && in.Role != u.Role {
		return nil, apperrors.NewValidationError("cannot change your own role")
	}

	taken, err := s.users.UsernameTaken(ctx, in.Username, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.NewConflictError("username already taken")
	}

	u.FullName = in.FullName
	u.Username = in.Username
	u.Role = in.Role
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes an account other than the caller's own.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if id == actor.UserID {
		return apperrors.NewValidationError("cannot delete your own account")
	}
	return s.users.Delete(ctx, id)
}

// EnsureAdmin creates the admin account, or promotes and resets an existing one with the same username.
func (s *UserService) EnsureAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.users.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if !apperrors.IsNotFoundError(err) {
			return nil, err
		}
		return s.create(ctx, UserInput{FullName: in.FullName, Username: in.Username, Password: in.Password, Role: models.RoleAdmin})
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		fullName = existing.FullName
	}
	return s.Update(ctx, Actor{}, existing.ID, UserInput{
		FullName: fullName,
		Username: existing.Username,
		Password: in.Password,
		Role:     models.RoleAdmin,
	})
}
