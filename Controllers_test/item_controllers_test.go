package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/controllers"
	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/utils"
)

func setupTestDBForItems(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:itemdb?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Item{}, &models.ItemSize{}); err != nil {
		t.Fatal(err)
	}
	db.Where("1 = 1").Delete(&models.ItemSize{})
	db.Where("1 = 1").Delete(&models.Item{})
	return db
}

func setupItemRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	itemCtrl := controllers.NewItemController(db)
	router.POST("/items", itemCtrl.AddItems)
	router.GET("/items", itemCtrl.GetAllItems)
	router.DELETE("/items", itemCtrl.DeleteItems)
	return router
}

func postItems(router *gin.Engine, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", "/items", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBulkAddAndListItems(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForItems(t)
	router := setupItemRouter(db)

	w := postItems(router, []map[string]interface{}{
		{
			"item_name":  "Espresso",
			"price":      2.5,
			"img_url":    "https://cdn.example.com/espresso.png",
			"item_group": "coffee",
			"available_sizes": []map[string]interface{}{
				{"size": "double", "price": 3.5},
			},
		},
		{
			"item_name":  "Croissant",
			"price":      3.0,
			"img_url":    "https://cdn.example.com/croissant.png",
			"item_group": "bakery",
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	req, _ := http.NewRequest("GET", "/items", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	assert.Len(t, items, 2)
}

func TestAddDuplicateItemConflicts(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForItems(t)
	router := setupItemRouter(db)

	item := map[string]interface{}{
		"item_name":  "Flat White",
		"price":      3.2,
		"img_url":    "https://cdn.example.com/flatwhite.png",
		"item_group": "coffee",
	}
	assert.Equal(t, http.StatusCreated, postItems(router, []map[string]interface{}{item}).Code)

	// Same name again.
	assert.Equal(t, http.StatusConflict, postItems(router, []map[string]interface{}{item}).Code)

	// Different name, same image URL.
	item["item_name"] = "Flat Black"
	assert.Equal(t, http.StatusConflict, postItems(router, []map[string]interface{}{item}).Code)

	var count int64
	db.Model(&models.Item{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAddDuplicateWithinBatchConflicts(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForItems(t)
	router := setupItemRouter(db)

	item := map[string]interface{}{
		"item_name":  "Cold Brew",
		"price":      3.4,
		"img_url":    "https://cdn.example.com/coldbrew.png",
		"item_group": "coffee",
	}

	// The same item twice in one batch is a 409, not a constraint blowup.
	w := postItems(router, []map[string]interface{}{item, item})
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	db.Model(&models.Item{}).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteItemsRequiresFilter(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForItems(t)
	router := setupItemRouter(db)

	req, _ := http.NewRequest("DELETE", "/items", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusCreated, postItems(router, []map[string]interface{}{{
		"item_name":  "Scone",
		"price":      2.0,
		"img_url":    "https://cdn.example.com/scone.png",
		"item_group": "bakery",
	}}).Code)

	req, _ = http.NewRequest("DELETE", "/items?item_group=bakery", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Item{}).Count(&count)
	assert.Zero(t, count)
}
