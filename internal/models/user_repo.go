package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

const profileColumns = "id,email,username,fullname,role,location,bio,phone_number,avatar_url,created_at,updated_at"

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (interface{}, error)
	AuthenticateUser(ctx context.Context, email, password string) (interface{}, error)
	RefreshToken(ctx context.Context, refreshToken string) (interface{}, error)
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error)
	UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error
	ListUsers(ctx context.Context, filter UserFilter, accessToken string) ([]User, error)
}

// UserFilter narrows ListUsers. Zero values match everyone.
type UserFilter struct {
	Role      Role
	ExcludeID uuid.UUID
}

func ConvertToUser(raw map[string]interface{}) (*User, error) {
	userBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw user: %v", err)
	}

	user := &User{}
	if err := json.Unmarshal(userBytes, user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to user struct: %v", err)
	}
	return user, nil
}

func (su *SupabaseRepo) clientFor(accessToken string) (*supabase.Client, error) {
	if accessToken == "" {
		return su.supabaseClient, nil
	}
	client, err := su.GetAuthenticatedClient(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticated client: %v", err)
	}
	return client, nil
}

func (su *SupabaseRepo) CreateUser(ctx context.Context, user *User) (interface{}, error) {
	signup := types.SignupRequest{
		Email:    user.Email,
		Password: user.Password,
		Data: map[string]interface{}{
			"username": user.Username,
			"fullname": user.FullName,
			"role":     user.Role,
		},
	}

	res, err := su.supabaseClient.Auth.Signup(signup)
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errMsg, "already registered"):
			return nil, Invalid("email already in use")
		case strings.Contains(errMsg, "null value in column"):
			if strings.Contains(errMsg, "username") {
				return nil, Invalid("username is required")
			}
			return nil, Invalid("required field is missing")
		case strings.Contains(errMsg, "unique constraint"):
			return nil, Invalid("user already exists")
		case strings.Contains(errMsg, "invalid input syntax"):
			return nil, Invalid("invalid input format")
		}
		return nil, fmt.Errorf("failed to create user")
	}
	return res, nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (interface{}, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %v", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (interface{}, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %v", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, Invalid("invalid user id")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, status, err := client.From(ProfileTable).
		Select(profileColumns, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get user by ID: %v", err)
	}

	// Supabase returns an array even for single results
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user rows: %v", err)
	}
	if len(users) == 0 {
		return nil, NotFound("user %s not found", id)
	}
	if len(users) > 1 {
		return nil, fmt.Errorf("multiple users found for ID %s", id)
	}
	return &users[0], nil
}

func (su *SupabaseRepo) ListUsers(ctx context.Context, filter UserFilter, accessToken string) ([]User, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	query := client.From(ProfileTable).Select(profileColumns, "", false)
	if filter.Role != "" {
		query = query.Eq("role", string(filter.Role))
	}
	if filter.ExcludeID != uuid.Nil {
		query = query.Neq("id", filter.ExcludeID.String())
	}
	raw, status, err := query.Order("created_at", nil).Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to list users: %v", err)
	}

	users := []User{}
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user rows: %v", err)
	}
	return users, nil
}

func (su *SupabaseRepo) UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, Invalid("invalid user id")
	}
	if len(fields) == 0 {
		return nil, Invalid("no fields to update")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, count, err := client.From(ProfileTable).
		Update(fields, "", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %v", err)
	}
	if count == 0 {
		return nil, NotFound("user %s not found", id)
	}

	var rawUsers []map[string]interface{}
	if err := json.Unmarshal(raw, &rawUsers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated user: %v", err)
	}
	if len(rawUsers) == 0 {
		return nil, fmt.Errorf("no user data returned after update")
	}
	return ConvertToUser(rawUsers[0])
}

func (su *SupabaseRepo) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	if id == uuid.Nil {
		return Invalid("invalid user id")
	}
	client, err := su.clientFor(accessToken)
	if err != nil {
		return err
	}

	_, count, err := client.From(ProfileTable).Delete("", "exact").Eq("id", id.String()).Execute()
	if err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}
	if count == 0 {
		return NotFound("user %s not found", id)
	}
	return nil
}
