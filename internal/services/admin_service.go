package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kaushalvasoya/homeco-real-estate/internal/auth"
	"github.com/kaushalvasoya/homeco-real-estate/internal/db"
	"github.com/kaushalvasoya/homeco-real-estate/internal/models"
)

// IAdminService defines lookup and bootstrap operations on admin credentials.
type IAdminService interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	Create(ctx context.Context, email, password string) (*models.Admin, error)
	EnsureIndexes(ctx context.Context) error
}

const adminsCollection = "admins"

type adminService struct {
	db *mongo.Database
}

// NewAdminService creates a new AdminService.
func NewAdminService(database *mongo.Database) IAdminService {
	return &adminService{db: database}
}

// EnsureIndexes creates the unique email index that enforces the
// one-admin-per-email invariant.
func (s *adminService) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(adminsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create admin email index: %w", err)
	}
	return nil
}

// FindByEmail looks up an admin credential. Returns mongo.ErrNoDocuments
// when no admin has that email.
func (s *adminService) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.Collection(adminsCollection).FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding admin by email: %w", err)
	}
	return &admin, nil
}

// Create hashes the password and inserts a new admin credential. It fails
// with ErrAdminExists when the email is already registered, whether found
// up front or raced into the unique index.
func (s *adminService) Create(ctx context.Context, email, password string) (*models.Admin, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	if _, err := s.FindByEmail(ctx, email); err == nil {
		return nil, ErrAdminExists
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		ID:           primitive.NewObjectID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	insert := func() error {
		_, err := s.db.Collection(adminsCollection).InsertOne(ctx, admin)
		return err
	}
	if err := insert(); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrAdminExists
		}
		return nil, fmt.Errorf("failed to insert admin: %w", err)
	}

	return admin, nil
}
