package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"buildtrack/models"
	"buildtrack/repository"
	"buildtrack/utils"
)

const recentLoginsLimit = 10

// UserService covers authentication and user administration.
type UserService struct {
	store     *repository.Store
	activity  *ActivityService
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewUserService(store *repository.Store, activity *ActivityService, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		store:     store,
		activity:  activity,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Login checks the credentials of an active user and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.ValidatePassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return "", nil, ErrAccountDisabled
	}

	token, err := utils.GenerateJWT(s.jwtSecret, u.ID, string(u.Role), s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	now := s.now()
	if err := s.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		return "", nil, fmt.Errorf("record login: %w", err)
	}
	u.LastLogin = &now
	return token, u, nil
}

// CallerFor resolves a verified token subject to the active user behind it.
func (s *UserService) CallerFor(ctx context.Context, userID string) (Caller, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Caller{}, ErrUnauthorized
		}
		return Caller{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return Caller{}, ErrAccountDisabled
	}
	return NewCaller(u), nil
}

func (s *UserService) Me(ctx context.Context, c Caller) (*models.User, error) {
	u, err := s.store.GetUser(ctx, c.UserID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	return u, nil
}

// Register creates a user. Only admins may register users.
func (s *UserService) Register(ctx context.Context, c Caller, in models.RegisterInput) (*models.User, error) {
	if err := Authorize(c, AdminOnly...); err != nil {
		return nil, err
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "user",
		Name:        "user.registered",
		Description: fmt.Sprintf("User %s registered as %s", u.Email, u.Role),
		EntityID:    u.ID,
	})
	return u, nil
}

// CreateAdmin bootstraps an administrator outside any request.
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, models.RegisterInput{Name: name, Email: email, Password: password, Role: models.RoleAdmin})
}

func (s *UserService) create(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	var fields []FieldError
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "Name is required"})
	}
	if !strings.Contains(in.Email, "@") {
		fields = append(fields, FieldError{Field: "email", Message: "Valid email is required"})
	}
	if len(in.Password) < 6 {
		fields = append(fields, FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	taken, err := s.store.EmailTaken(ctx, in.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, Invalid("email", "Email already registered")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	role := in.Role
	if role == "" {
		role = models.RoleViewer
	}
	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Phone:        in.Phone,
		Company:      in.Company,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	u.AssignedProjects = []string{}
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, c Caller, in models.ChangePasswordInput) error {
	u, err := s.store.GetUser(ctx, c.UserID)
	if err != nil {
		return lookupErr(err, "User")
	}
	if !utils.ValidatePassword(u.PasswordHash, in.CurrentPassword) {
		return Invalid("currentPassword", "Current password is incorrect")
	}
	if len(in.NewPassword) < 6 {
		return Invalid("newPassword", "Password must be at least 6 characters")
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	if err := s.store.SaveUser(ctx, u); err != nil {
		return lookupErr(err, "User")
	}
	return nil
}

func (s *UserService) List(ctx context.Context, c Caller) ([]models.User, error) {
	if err := Authorize(c, AdminOnly...); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, c Caller, userID string) (*models.User, error) {
	if err := Authorize(c, AdminOnly...); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	return u, nil
}

// Update changes profile fields and role. Passwords never change here.
func (s *UserService) Update(ctx context.Context, c Caller, userID string, in models.UserUpdateInput) (*models.User, error) {
	u, err := s.Get(ctx, c, userID)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		taken, err := s.store.EmailTaken(ctx, *in.Email, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, Invalid("email", "Email already registered")
		}
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		if *in.Role != models.RoleAdmin {
			if err := s.guardLastAdmin(ctx, u, "Cannot demote the last admin user"); err != nil {
				return nil, err
			}
		}
		u.Role = *in.Role
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Company != nil {
		u.Company = *in.Company
	}
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, lookupErr(err, "User")
	}
	return u, nil
}

// guardLastAdmin refuses to remove u from the active admins when it is the only one.
func (s *UserService) guardLastAdmin(ctx context.Context, u *models.User, msg string) error {
	if u.Role != models.RoleAdmin || !u.IsActive {
		return nil
	}
	n, err := s.store.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return &RuleError{Message: msg}
	}
	return nil
}

// AssignProjects replaces the user's project assignments. Unknown project ids are rejected.
func (s *UserService) AssignProjects(ctx context.Context, c Caller, userID string, projectIDs []string) ([]string, error) {
	u, err := s.Get(ctx, c, userID)
	if err != nil {
		return nil, err
	}
	if projectIDs == nil {
		return nil, Invalid("projectIds", "Project IDs must be an array")
	}
	for _, pid := range projectIDs {
		if _, err := s.store.GetProject(ctx, pid); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, Invalid("projectIds", "Unknown project "+pid)
			}
			return nil, err
		}
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		return tx.ReplaceAssignments(ctx, u.ID, projectIDs)
	})
	if err != nil {
		return nil, err
	}
	fresh, err := s.store.GetUser(ctx, u.ID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "user",
		Name:        "user.assigned",
		Description: fmt.Sprintf("%s assigned to %d project(s)", u.Email, len(fresh.AssignedProjects)),
		EntityID:    u.ID,
	})
	return fresh.AssignedProjects, nil
}

// ToggleStatus flips the user's active flag and returns the new value.
func (s *UserService) ToggleStatus(ctx context.Context, c Caller, userID string) (bool, error) {
	u, err := s.Get(ctx, c, userID)
	if err != nil {
		return false, err
	}
	if err := s.guardLastAdmin(ctx, u, "Cannot deactivate the last admin user"); err != nil {
		return false, err
	}
	u.IsActive = !u.IsActive
	if err := s.store.SaveUser(ctx, u); err != nil {
		return false, lookupErr(err, "User")
	}
	return u.IsActive, nil
}

// Delete removes a user. The last admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, c Caller, userID string) error {
	u, err := s.Get(ctx, c, userID)
	if err != nil {
		return err
	}
	if err := s.guardLastAdmin(ctx, u, "Cannot delete the last admin user"); err != nil {
		return err
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		return tx.DeleteUser(ctx, u.ID)
	})
	if err != nil {
		return lookupErr(err, "User")
	}
	s.activity.Record(ctx, c, Activity{
		Context:     "user",
		Name:        "user.deleted",
		Description: "User " + u.Email + " deleted",
		EntityID:    u.ID,
	})
	return nil
}

// Stats counts users by state and role and lists the latest logins.
func (s *UserService) Stats(ctx context.Context, c Caller) (*models.UserStats, error) {
	users, err := s.List(ctx, c)
	if err != nil {
		return nil, err
	}
	st := &models.UserStats{
		Total:        len(users),
		ByRole:       make(map[models.Role]int),
		RecentLogins: []models.User{},
	}
	for _, u := range users {
		if u.IsActive {
			st.Active++
		} else {
			st.Inactive++
		}
		st.ByRole[u.Role]++
		if u.LastLogin != nil {
			st.RecentLogins = append(st.RecentLogins, u)
		}
	}
	sort.SliceStable(st.RecentLogins, func(i, j int) bool {
		return st.RecentLogins[i].LastLogin.After(*st.RecentLogins[j].LastLogin)
	})
	if len(st.RecentLogins) > recentLoginsLimit {
		st.RecentLogins = st.RecentLogins[:recentLoginsLimit]
	}
	return st, nil
}
