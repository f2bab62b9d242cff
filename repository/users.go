package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"buildtrack/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := s.conn(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser loads a user with assigned project ids.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := s.loadAssignments(ctx, []*models.User{&u}); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return nil, notFound(err)
	}
	if err := s.loadAssignments(ctx, []*models.User{&u}); err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailTaken reports whether another user already owns email.
func (s *Store) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var n int64
	q := s.conn(ctx).Model(&models.User{}).Where("email = ?", strings.ToLower(strings.TrimSpace(email)))
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

// ListUsers returns users newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := s.conn(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ptrs := make([]*models.User, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := s.loadAssignments(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsersByRole returns active users holding any of the given roles.
func (s *Store) ListUsersByRole(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	var out []models.User
	if err := s.conn(ctx).Where("role IN ? AND is_active = ?", roles, true).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return out, nil
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res := s.conn(ctx).Model(u).Select("*").Omit("created_at").Updates(u)
	if res.Error != nil {
		return fmt.Errorf("save user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login", at).Error; err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.conn(ctx).Where("user_id = ?", id).Delete(&models.UserProject{}).Error; err != nil {
		return fmt.Errorf("delete user assignments: %w", err)
	}
	res := s.conn(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountActiveAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

// ReplaceAssignments sets the user's assigned projects to exactly projectIDs.
func (s *Store) ReplaceAssignments(ctx context.Context, userID string, projectIDs []string) error {
	if err := s.conn(ctx).Where("user_id = ?", userID).Delete(&models.UserProject{}).Error; err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	if len(projectIDs) == 0 {
		return nil
	}
	now := time.Now()
	seen := make(map[string]bool, len(projectIDs))
	rows := make([]models.UserProject, 0, len(projectIDs))
	for _, pid := range projectIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		rows = append(rows, models.UserProject{UserID: userID, ProjectID: pid, CreatedAt: now})
	}
	if err := s.conn(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("assign projects: %w", err)
	}
	return nil
}

// AssignProject adds a single assignment if it is not already present.
func (s *Store) AssignProject(ctx context.Context, userID, projectID string) error {
	row := models.UserProject{UserID: userID, ProjectID: projectID, CreatedAt: time.Now()}
	if err := s.conn(ctx).Where(models.UserProject{UserID: userID, ProjectID: projectID}).
		FirstOrCreate(&row).Error; err != nil {
		return fmt.Errorf("assign project: %w", err)
	}
	return nil
}

// ProjectMembers returns the users assigned to a project.
func (s *Store) ProjectMembers(ctx context.Context, projectID string) ([]models.User, error) {
	var out []models.User
	err := s.conn(ctx).
		Joins("JOIN user_projects ON user_projects.user_id = users.id").
		Where("user_projects.project_id = ? AND users.is_active = ?", projectID, true).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	return out, nil
}

func (s *Store) loadAssignments(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	byID := make(map[string]*models.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		byID[u.ID] = u
		u.AssignedProjects = []string{}
	}
	var rows []models.UserProject
	if err := s.conn(ctx).Where("user_id IN ?", ids).Order("created_at").Find(&rows).Error; err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}
	for _, r := range rows {
		if u := byID[r.UserID]; u != nil {
			u.AssignedProjects = append(u.AssignedProjects, r.ProjectID)
		}
	}
	return nil
}
