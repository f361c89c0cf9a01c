package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kaushalvasoya/homeco-real-estate/internal/api/handlers"
	"github.com/kaushalvasoya/homeco-real-estate/internal/models"
	"github.com/kaushalvasoya/homeco-real-estate/internal/services"
)

func setupPropertyRouter(svc *MockPropertyService, store *MockImageStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewPropertyHandler(svc, store)
	r := gin.New()
	r.GET("/api/properties", handler.List)
	r.GET("/api/properties/:id", handler.GetByID)
	r.POST("/api/properties", handler.Create)
	r.PUT("/api/properties/:id", handler.Update)
	r.DELETE("/api/properties/:id", handler.Delete)
	return r
}

func TestPropertyHandler_List(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	expected := []models.Property{
		{ID: primitive.NewObjectID(), Title: "Lake House", Category: models.CategoryHouse},
		{ID: primitive.NewObjectID(), Title: "Downtown Office", Category: models.CategoryCommercial},
	}
	mockSvc.On("List", mock.Anything, "all", "lake").Return(expected, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/properties?category=all&q=lake", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got []models.Property
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "Lake House", got[0].Title)
	mockSvc.AssertExpectations(t)
}

func TestPropertyHandler_GetByID_Success(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	id := primitive.NewObjectID()
	expected := &models.Property{ID: id, Title: "Lake House", Price: 500000}
	mockSvc.On("GetByID", mock.Anything, id).Return(expected, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/properties/"+id.Hex(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got models.Property
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, expected.Title, got.Title)
	mockSvc.AssertExpectations(t)
}

func TestPropertyHandler_GetByID_NotFound(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	id := primitive.NewObjectID()
	mockSvc.On("GetByID", mock.Anything, id).Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/properties/"+id.Hex(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Property not found", resp["msg"])
	mockSvc.AssertExpectations(t)
}

func TestPropertyHandler_GetByID_InvalidHex(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/properties/not-a-hex-id", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertNotCalled(t, "GetByID")
}

func multipartBody(t *testing.T, fields map[string]string, images map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		assert.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range images {
		fw, err := mw.CreateFormFile("images", name)
		assert.NoError(t, err)
		_, err = fw.Write(data)
		assert.NoError(t, err)
	}
	assert.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestPropertyHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockPropertyService)
	mockStorage := new(MockImageStorage)
	r := setupPropertyRouter(mockSvc, mockStorage)

	uploaded := models.PropertyImage{URL: "https://img.example.com/properties/a_front.jpg", Key: "properties/a_front.jpg"}
	mockStorage.On("Upload", mock.Anything, []byte("jpegdata"), "front.jpg", mock.Anything).Return(uploaded, nil)

	created := &models.Property{
		ID:       primitive.NewObjectID(),
		Title:    "Lake House",
		Price:    500000,
		Category: models.CategoryHouse,
		Images:   []models.PropertyImage{uploaded},
	}
	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in services.PropertyInput) bool {
		return in.Title == "Lake House" && in.Price == 500000 && in.Bedrooms == 3
	}), []models.PropertyImage{uploaded}).Return(created, nil)

	body, contentType := multipartBody(t, map[string]string{
		"title":    "Lake House",
		"price":    "500000",
		"bedrooms": "3",
	}, map[string][]byte{"front.jpg": []byte("jpegdata")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/properties", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got models.Property
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Images, 1)
	mockSvc.AssertExpectations(t)
	mockStorage.AssertExpectations(t)
}

func TestPropertyHandler_Create_MissingTitle(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	body, contentType := multipartBody(t, map[string]string{"price": "100"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/properties", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Create")
}

func TestPropertyHandler_Create_BadPrice(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	body, contentType := multipartBody(t, map[string]string{
		"title": "Lake House",
		"price": "half a million",
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/properties", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Create")
}

func TestPropertyHandler_Create_UploadFailure(t *testing.T) {
	mockSvc := new(MockPropertyService)
	mockStorage := new(MockImageStorage)
	r := setupPropertyRouter(mockSvc, mockStorage)

	mockStorage.On("Upload", mock.Anything, mock.Anything, "front.jpg", mock.Anything).
		Return(models.PropertyImage{}, assert.AnError)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Lake House",
		"price": "500000",
	}, map[string][]byte{"front.jpg": []byte("jpegdata")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/properties", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockSvc.AssertNotCalled(t, "Create")
	mockStorage.AssertExpectations(t)
}

func TestPropertyHandler_Update_JSONPartial(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	id := primitive.NewObjectID()
	updated := &models.Property{ID: id, Title: "Renovated Lake House", ContactPhone: "555-0100"}
	mockSvc.On("Update", mock.Anything, id, map[string]interface{}{
		"title":         "Renovated Lake House",
		"contact_phone": "555-0100",
		"price":         float64(550000),
	}, []models.PropertyImage(nil)).Return(updated, nil)

	payload := []byte(`{"title":"Renovated Lake House","contactPhone":"555-0100","price":550000}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/properties/"+id.Hex(), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestPropertyHandler_Update_MultipartWithImages(t *testing.T) {
	mockSvc := new(MockPropertyService)
	mockStorage := new(MockImageStorage)
	r := setupPropertyRouter(mockSvc, mockStorage)

	id := primitive.NewObjectID()
	uploaded := models.PropertyImage{URL: "https://img.example.com/properties/b_back.jpg", Key: "properties/b_back.jpg"}
	mockStorage.On("Upload", mock.Anything, []byte("backdata"), "back.jpg", mock.Anything).Return(uploaded, nil)

	updated := &models.Property{ID: id, Title: "Lake House", Images: []models.PropertyImage{uploaded}}
	mockSvc.On("Update", mock.Anything, id, map[string]interface{}{
		"description": "Now with a dock",
	}, []models.PropertyImage{uploaded}).Return(updated, nil)

	body, contentType := multipartBody(t, map[string]string{
		"description": "Now with a dock",
	}, map[string][]byte{"back.jpg": []byte("backdata")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/properties/"+id.Hex(), body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
	mockStorage.AssertExpectations(t)
}

func TestPropertyHandler_Update_NotFound(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	id := primitive.NewObjectID()
	mockSvc.On("Update", mock.Anything, id, mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/properties/"+id.Hex(), bytes.NewReader([]byte(`{"title":"x"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestPropertyHandler_Delete_Success(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	id := primitive.NewObjectID()
	deleted := &models.Property{ID: id, Title: "Lake House"}
	mockSvc.On("Delete", mock.Anything, id).Return(deleted, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/properties/"+id.Hex(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id.Hex(), resp["id"])
	mockSvc.AssertExpectations(t)
}

func TestPropertyHandler_Delete_NotFound(t *testing.T) {
	mockSvc := new(MockPropertyService)
	r := setupPropertyRouter(mockSvc, new(MockImageStorage))

	id := primitive.NewObjectID()
	mockSvc.On("Delete", mock.Anything, id).Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/properties/"+id.Hex(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}
