package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category classifies a property listing.
type Category string

const (
	CategoryCommercial Category = "Commercial"
	CategoryHouse      Category = "House"
	CategoryApartment  Category = "Apartment"
	CategoryLand       Category = "Land"
)

// DefaultCategory is applied when a write supplies no category or an
// unrecognized one.
const DefaultCategory = CategoryHouse

// NormalizeCategory folds arbitrary input onto one of the four canonical
// category values. Matching is case-insensitive; anything unrecognized
// (including the empty string) becomes DefaultCategory. The second return
// value reports whether the input was recognized.
func NormalizeCategory(raw string) (Category, bool) {
	// Legacy data sets stored lowercase values, so fold case before matching.
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "commercial":
		return CategoryCommercial, true
	case "house":
		return CategoryHouse, true
	case "apartment":
		return CategoryApartment, true
	case "land":
		return CategoryLand, true
	case "":
		return DefaultCategory, true
	}
	return DefaultCategory, false
}

// PropertyImage is one remotely hosted image. Key is the deletion handle
// (the object key on the image host); URL is the stable public URL.
type PropertyImage struct {
	URL string `bson:"url" json:"url"`
	Key string `bson:"key" json:"public_id"`
}

// Property represents a real-estate listing. Images preserve insertion
// order; the first image is the cover shown in listings.
type Property struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Location     string             `bson:"location" json:"location"`
	Price        float64            `bson:"price" json:"price"`
	ContactPhone string             `bson:"contact_phone" json:"contactPhone"`
	Bedrooms     int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms    int                `bson:"bathrooms" json:"bathrooms"`
	Area         float64            `bson:"area" json:"area"`
	Description  string             `bson:"description" json:"description"`
	Category     Category           `bson:"category" json:"category"`
	Images       []PropertyImage    `bson:"images" json:"images"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}
