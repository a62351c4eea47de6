package users

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
)

func setupUsersTestDB(t *testing.T) (*gorm.DB, Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	svc, err := NewService(NewRepository(db), logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return db, svc
}

func strPtr(s string) *string {
	return &s
}

func TestGetUser(t *testing.T) {
	db, svc := setupUsersTestDB(t)
	user := &models.User{Email: "maria@example.com", PasswordHash: "x", FirstName: "María"}
	require.NoError(t, db.Create(user).Error)

	found, err := svc.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found.Email != "maria@example.com" {
		t.Fatalf("unexpected user %q", found.Email)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	db, svc := setupUsersTestDB(t)
	user := &models.User{
		Email:        "maria@example.com",
		PasswordHash: "x",
		FirstName:    "María",
		LastName:     "Pérez",
		Phone:        "+58 412 5550123",
	}
	require.NoError(t, db.Create(user).Error)

	updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		Phone:   strPtr("+58 424 5559876"),
		Address: strPtr("Calle 5, San Benito"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != "+58 424 5559876" || updated.Address != "Calle 5, San Benito" {
		t.Fatalf("fields not updated: %+v", updated)
	}
	if updated.FirstName != "María" || updated.LastName != "Pérez" {
		t.Fatalf("untouched fields must survive: %+v", updated)
	}
}

func TestFindByEmailIsCaseInsensitive(t *testing.T) {
	db, _ := setupUsersTestDB(t)
	repo := NewRepository(db)
	require.NoError(t, db.Create(&models.User{Email: "maria@example.com", PasswordHash: "x"}).Error)

	found, err := repo.FindByEmail(context.Background(), "  MARIA@example.COM ")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Email != "maria@example.com" {
		t.Fatalf("unexpected user %q", found.Email)
	}
}
