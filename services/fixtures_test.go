package services

import (
	"context"
	"io"
	"testing"
	"time"

	"buildtrack/models"
	"buildtrack/repository"
	"buildtrack/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, storage.AutoMigrate(db))
	return repository.New(db)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func adminCaller() Caller {
	return Caller{UserID: "admin-1", Name: "Admin", Role: models.RoleAdmin, AssignedProjects: map[string]bool{}}
}

func callerWith(role models.Role, projectIDs ...string) Caller {
	assigned := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		assigned[id] = true
	}
	return Caller{UserID: string(role) + "-1", Name: string(role), Role: role, AssignedProjects: assigned}
}

func seedProject(t *testing.T, s *repository.Store, budget float64) *models.Project {
	t.Helper()
	p := &models.Project{
		Name:        "Gulshan Residence",
		Location:    datatypes.NewJSONType(models.Location{Address: "Plot 14", City: "Karachi"}),
		TotalBudget: budget,
	}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func ptr[T any](v T) *T {
	return &v
}

func paymentInput(projectID string, amount float64, status models.PaymentStatus) models.PaymentInput {
	return models.PaymentInput{
		ProjectID:   projectID,
		Type:        ptr(models.PaymentContractor),
		PaymentTo:   ptr("Al-Noor Builders"),
		Amount:      ptr(amount),
		PaymentDate: ptr(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
		Status:      ptr(status),
	}
}
