package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kaushalvasoya/homeco-real-estate/internal/config"
	"github.com/kaushalvasoya/homeco-real-estate/internal/models"
	"github.com/kaushalvasoya/homeco-real-estate/internal/storage"
)

// PropertyInput carries the typed fields of a property create request.
// Numeric coercion from form values happens at the transport boundary.
type PropertyInput struct {
	Title        string
	Location     string
	Price        float64
	ContactPhone string
	Bedrooms     int
	Bathrooms    int
	Area         float64
	Description  string
	Category     models.Category
}

// IPropertyService defines the interface for property-listing operations.
type IPropertyService interface {
	List(ctx context.Context, category, search string) ([]models.Property, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	Create(ctx context.Context, in PropertyInput, images []models.PropertyImage) (*models.Property, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}, newImages []models.PropertyImage) (*models.Property, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
}

const propertiesCollection = "properties"

// propertyService implements IPropertyService on MongoDB.
type propertyService struct {
	db      *mongo.Database
	cfg     *config.Config
	storage storage.ImageStorage
	// releaseRetry, when set, schedules a deferred retry for an image whose
	// inline release failed during Delete. Failures never abort the delete.
	releaseRetry func(key string)
}

// NewPropertyService creates a new PropertyService. The storage adapter is
// used to release remote images on delete; releaseRetry may be nil.
func NewPropertyService(db *mongo.Database, cfg *config.Config, store storage.ImageStorage, releaseRetry func(key string)) IPropertyService {
	return &propertyService{db: db, cfg: cfg, storage: store, releaseRetry: releaseRetry}
}

// List returns listings newest first, capped at the configured page size.
// An empty or "all" category means no category filter; search matches
// title or location case-insensitively.
func (s *propertyService) List(ctx context.Context, category, search string) ([]models.Property, error) {
	filter := bson.M{}

	if category != "" && category != "all" {
		normalized, _ := models.NormalizeCategory(category)
		filter["category"] = normalized
	}

	if search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"location": pattern},
		}
	}

	limit := s.cfg.PropertyPageSize
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(propertiesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.Property{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	return results, nil
}

// GetByID finds a single property. Returns mongo.ErrNoDocuments when absent.
func (s *propertyService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	var property models.Property
	err := s.db.Collection(propertiesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding property %s: %w", id.Hex(), err)
	}
	return &property, nil
}

// Create inserts a new property. Images arrive already uploaded, in
// submission order.
func (s *propertyService) Create(ctx context.Context, in PropertyInput, images []models.PropertyImage) (*models.Property, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	category, recognized := models.NormalizeCategory(string(in.Category))
	if !recognized && in.Category != "" {
		log.Printf("Unrecognized property category %q, defaulting to %s", in.Category, category)
	}

	if images == nil {
		images = []models.PropertyImage{}
	}

	now := time.Now().UTC()
	property := &models.Property{
		ID:           primitive.NewObjectID(),
		Title:        in.Title,
		Location:     in.Location,
		Price:        in.Price,
		ContactPhone: in.ContactPhone,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		Area:         in.Area,
		Description:  in.Description,
		Category:     category,
		Images:       images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.db.Collection(propertiesCollection).InsertOne(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to insert property: %w", err)
	}
	return property, nil
}

// Update applies a partial update: only supplied fields change, and new
// images are appended to the existing list, never replacing it.
func (s *propertyService) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}, newImages []models.PropertyImage) (*models.Property, error) {
	allowed := bson.M{}
	for key, value := range updates {
		switch key {
		case "title", "location", "price", "contact_phone", "bedrooms", "bathrooms", "area", "description":
			allowed[key] = value
		case "category":
			raw, _ := value.(string)
			normalized, recognized := models.NormalizeCategory(raw)
			if !recognized && raw != "" {
				log.Printf("Unrecognized property category %q on update, defaulting to %s", raw, normalized)
			}
			allowed[key] = normalized
		default:
			return nil, fmt.Errorf("%w: field %q cannot be updated", ErrValidation, key)
		}
	}
	allowed["updated_at"] = time.Now().UTC()

	update := bson.M{"$set": allowed}
	if len(newImages) > 0 {
		update["$push"] = bson.M{"images": bson.M{"$each": newImages}}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Property
	err := s.db.Collection(propertiesCollection).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update property %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

// Delete removes the record, then releases each remote image best-effort.
// Per-image failures are logged (and retried in the background when a
// retry hook is wired) without aborting the deletion.
func (s *propertyService) Delete(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	property, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Collection(propertiesCollection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return nil, fmt.Errorf("failed to delete property %s: %w", id.Hex(), err)
	}

	for _, img := range property.Images {
		if img.Key == "" {
			continue
		}
		if err := s.storage.Release(ctx, img.Key); err != nil {
			log.Printf("Failed to release image %s for deleted property %s: %v", img.Key, id.Hex(), err)
			if s.releaseRetry != nil {
				s.releaseRetry(img.Key)
			}
		}
	}

	return property, nil
}
