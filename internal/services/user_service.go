package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
)

// profile fields a user may not change on their own record
var protectedProfileFields = []string{"id", "email", "role", "created_at"}

type UserService struct {
	userRepo models.UserRepo
	store    models.Store
	logger   *slog.Logger
}

func NewUserService(userRepo models.UserRepo, store models.Store, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		userRepo: userRepo,
		store:    store,
		logger:   logger,
	}
}

func (us *UserService) CreateUser(ctx context.Context, user *models.User) (interface{}, error) {
	if err := validateInput(user); err != nil {
		return nil, err
	}
	if !helpers.IsPasswordStrong(user.Password) {
		return nil, models.Invalid("password is not strong enough")
	}
	switch user.Role {
	case "":
		user.Role = models.RoleUser
	case models.RoleUser, models.RoleVendor:
	default:
		return nil, models.Invalid("role %q cannot be chosen at signup", user.Role)
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	return us.userRepo.CreateUser(ctx, user)
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (interface{}, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, models.Invalid("invalid email format")
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return nil, models.Invalid("invalid password format")
	}
	response, err := us.userRepo.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %v", err)
	}
	return response, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (interface{}, error) {
	if refreshToken == "" {
		return nil, models.Invalid("refresh token is required")
	}
	response, err := us.userRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %v", err)
	}
	return response, nil
}

func (us *UserService) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	return us.userRepo.GetUser(ctx, id, accessToken)
}

// ListUsers is the admin directory, optionally narrowed to one role.
func (us *UserService) ListUsers(ctx context.Context, p models.Principal, role models.Role, accessToken string) ([]models.User, error) {
	if !p.IsAdmin() {
		return nil, models.NotAuthorized("only admins can list users")
	}
	if role != "" && !models.ValidRole(role) {
		return nil, models.Invalid("unrecognized role %q", role)
	}
	return us.userRepo.ListUsers(ctx, models.UserFilter{Role: role}, accessToken)
}

// Contacts lists every other user, for starting a conversation.
func (us *UserService) Contacts(ctx context.Context, p models.Principal, accessToken string) ([]models.User, error) {
	if p.ID == uuid.Nil {
		return nil, models.NotAuthorized("authentication required")
	}
	return us.userRepo.ListUsers(ctx, models.UserFilter{ExcludeID: p.ID}, accessToken)
}

// UpdateProfile lets a user edit their own profile, or an admin any
// profile. Role changes go through UpdateRole.
func (us *UserService) UpdateProfile(ctx context.Context, p models.Principal, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.User, error) {
	if !p.Is(id) && !p.IsAdmin() {
		return nil, models.NotAuthorized("access denied")
	}
	for _, f := range protectedProfileFields {
		delete(fields, f)
	}
	if len(fields) == 0 {
		return nil, models.Invalid("no fields to update")
	}
	fields["updated_at"] = time.Now()
	return us.userRepo.UpdateUser(ctx, fields, id, accessToken)
}

func (us *UserService) UpdateRole(ctx context.Context, p models.Principal, id uuid.UUID, role models.Role, accessToken string) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, models.NotAuthorized("only admins can change roles")
	}
	if !models.ValidRole(role) {
		return nil, models.Invalid("unrecognized role %q", role)
	}
	user, err := us.userRepo.UpdateUser(ctx, map[string]interface{}{
		"role":       role,
		"updated_at": time.Now(),
	}, id, accessToken)
	if err != nil {
		return nil, err
	}
	us.logger.Info("User role changed", "user_id", id, "role", role, "admin_id", p.ID)
	return user, nil
}

// DeleteUser removes the events the user organizes (with their proposals),
// keeps the user's own proposals readable with the vendor reference nulled,
// and finally drops the profile. The data cleanup is keyed by user id, so a
// failed delete can be retried.
func (us *UserService) DeleteUser(ctx context.Context, p models.Principal, id uuid.UUID, accessToken string) error {
	if !p.IsAdmin() {
		return models.NotAuthorized("only admins can delete users")
	}
	if id == uuid.Nil {
		return models.Invalid("invalid user id")
	}

	var eventsRemoved int
	var proposalsRemoved, proposalsDetached int64
	err := us.store.WithTransaction(ctx, func(ctx context.Context) error {
		eventIDs, err := us.store.DeleteEventsByOrganizer(ctx, id)
		if err != nil {
			return err
		}
		eventsRemoved = len(eventIDs)
		if proposalsRemoved, err = us.store.DeleteProposalsByEvents(ctx, eventIDs...); err != nil {
			return err
		}
		proposalsDetached, err = us.store.DetachVendor(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clean up user data: %w", err)
	}

	if err := us.userRepo.DeleteUser(ctx, id, accessToken); err != nil {
		return err
	}
	us.logger.Info("User deleted",
		"user_id", id,
		"admin_id", p.ID,
		"events_removed", eventsRemoved,
		"proposals_removed", proposalsRemoved,
		"proposals_detached", proposalsDetached,
	)
	return nil
}
