package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kaushalvasoya/homeco-real-estate/internal/models"
	"github.com/kaushalvasoya/homeco-real-estate/internal/services"
	"github.com/kaushalvasoya/homeco-real-estate/internal/storage"
)

// PropertyHandler handles REST requests for property listings.
type PropertyHandler struct {
	propertyService services.IPropertyService
	imageStorage    storage.ImageStorage
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(propertyService services.IPropertyService, imageStorage storage.ImageStorage) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		imageStorage:    imageStorage,
	}
}

// List handles GET /api/properties with optional category and q filters.
func (h *PropertyHandler) List(c *gin.Context) {
	category := c.Query("category")
	search := c.Query("q")

	properties, err := h.propertyService.List(c.Request.Context(), category, search)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		return
	}
	c.JSON(http.StatusOK, properties)
}

// GetByID handles GET /api/properties/:id.
func (h *PropertyHandler) GetByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "Property not found"})
		return
	}

	property, err := h.propertyService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, property)
}

// Create handles POST /api/properties (multipart: fields + images[]).
// Title and a parseable price are required; images are uploaded before the
// record is persisted, in submission order.
func (h *PropertyHandler) Create(c *gin.Context) {
	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "title is required"})
		return
	}

	priceRaw, ok := c.GetPostForm("price")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "price is required"})
		return
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(priceRaw), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "price must be a number"})
		return
	}

	input := services.PropertyInput{
		Title:        title,
		Location:     c.PostForm("location"),
		Price:        price,
		ContactPhone: c.PostForm("contactPhone"),
		Bedrooms:     coerceInt(c.PostForm("bedrooms")),
		Bathrooms:    coerceInt(c.PostForm("bathrooms")),
		Area:         coerceFloat(c.PostForm("area")),
		Description:  c.PostForm("description"),
		Category:     models.Category(c.PostForm("category")),
	}

	images, err := h.uploadFormImages(c)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Upload error"})
		return
	}

	property, err := h.propertyService.Create(c.Request.Context(), input, images)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, property)
}

// Update handles PUT /api/properties/:id. The route accepts either a JSON
// body or multipart form data with optional new images; both shapes are
// normalized into one partial-update map, so only supplied fields change
// and new images are appended.
func (h *PropertyHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "Property not found"})
		return
	}

	var updates map[string]interface{}
	var newImages []models.PropertyImage

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		updates = updatesFromForm(c)
		newImages, err = h.uploadFormImages(c)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Upload error"})
			return
		}
	} else {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid request body"})
			return
		}
		updates = updatesFromJSON(body)
	}

	property, err := h.propertyService.Update(c.Request.Context(), id, updates, newImages)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"msg": "Property not found"})
		case errors.Is(err, services.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, property)
}

// Delete handles DELETE /api/properties/:id.
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "Property not found"})
		return
	}

	if _, err := h.propertyService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Property deleted", "id": id.Hex()})
}

// uploadFormImages uploads every file under the images[] form field and
// returns the resulting records in submission order. Any upload failure
// aborts the whole batch.
func (h *PropertyHandler) uploadFormImages(c *gin.Context) ([]models.PropertyImage, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// No multipart body at all means no images.
		return nil, nil
	}

	files := form.File["images"]
	if len(files) == 0 {
		return nil, nil
	}

	images := make([]models.PropertyImage, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		img, err := h.imageStorage.Upload(c.Request.Context(), data, fh.Filename, contentType)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file %s: %w", fh.Filename, err)
	}
	return data, nil
}

// updatesFromForm collects only the form fields actually supplied.
func updatesFromForm(c *gin.Context) map[string]interface{} {
	updates := map[string]interface{}{}
	if v, ok := c.GetPostForm("title"); ok {
		updates["title"] = v
	}
	if v, ok := c.GetPostForm("location"); ok {
		updates["location"] = v
	}
	if v, ok := c.GetPostForm("price"); ok {
		updates["price"] = coerceFloat(v)
	}
	if v, ok := c.GetPostForm("contactPhone"); ok {
		updates["contact_phone"] = v
	}
	if v, ok := c.GetPostForm("bedrooms"); ok {
		updates["bedrooms"] = coerceInt(v)
	}
	if v, ok := c.GetPostForm("bathrooms"); ok {
		updates["bathrooms"] = coerceInt(v)
	}
	if v, ok := c.GetPostForm("area"); ok {
		updates["area"] = coerceFloat(v)
	}
	if v, ok := c.GetPostForm("description"); ok {
		updates["description"] = v
	}
	if v, ok := c.GetPostForm("category"); ok {
		updates["category"] = v
	}
	return updates
}

// updatesFromJSON maps the JSON request shape onto store field names,
// keeping only recognized fields that were actually present.
func updatesFromJSON(body map[string]interface{}) map[string]interface{} {
	updates := map[string]interface{}{}
	for key, value := range body {
		switch key {
		case "title", "location", "description":
			updates[key] = asString(value)
		case "contactPhone":
			updates["contact_phone"] = asString(value)
		case "price":
			updates["price"] = coerceFloatValue(value)
		case "area":
			updates["area"] = coerceFloatValue(value)
		case "bedrooms":
			updates["bedrooms"] = int(coerceFloatValue(value))
		case "bathrooms":
			updates["bathrooms"] = int(coerceFloatValue(value))
		case "category":
			updates["category"] = asString(value)
		}
	}
	return updates
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// coerceFloat parses a form value, treating anything non-numeric as 0.
func coerceFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}

func coerceInt(raw string) int {
	return int(coerceFloat(raw))
}

// coerceFloatValue handles both JSON numbers and numeric strings.
func coerceFloatValue(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		return coerceFloat(val)
	case int:
		return float64(val)
	}
	return 0
}
