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

func setupConfigRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open("file:configdb?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.CafeConfig{}); err != nil {
		t.Fatal(err)
	}
	db.Where("1 = 1").Delete(&models.CafeConfig{})

	gin.SetMode(gin.TestMode)
	router := gin.Default()
	cfgCtrl := controllers.NewConfigController(db)
	router.POST("/config", cfgCtrl.AddConfig)
	router.POST("/config/:restaurant", cfgCtrl.AddConfig)
	router.PUT("/config", cfgCtrl.UpdateConfig)
	router.PUT("/config/:restaurant", cfgCtrl.UpdateConfig)
	router.GET("/config", cfgCtrl.GetConfig)
	router.GET("/config/:restaurant", cfgCtrl.GetConfig)
	router.DELETE("/config", cfgCtrl.DeleteConfig)
	router.DELETE("/config/:restaurant", cfgCtrl.DeleteConfig)
	return router, db
}

func doJSON(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestConfigLifecycle(t *testing.T) {
	router, _ := setupConfigRouter(t)

	cfg := map[string]interface{}{
		"restaurant": "wow-cafe",
		"roles":      []string{"admin", "staff", "customer"},
	}

	assert.Equal(t, http.StatusOK, doJSON(router, "POST", "/config", cfg).Code)

	// Duplicate restaurant conflicts.
	assert.Equal(t, http.StatusConflict, doJSON(router, "POST", "/config", cfg).Code)

	w := doJSON(router, "GET", "/config/wow-cafe", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "wow-cafe", data["restaurant"])

	cfg["roles"] = []string{"admin", "deliveryMan"}
	assert.Equal(t, http.StatusOK, doJSON(router, "PUT", "/config", cfg).Code)

	assert.Equal(t, http.StatusOK, doJSON(router, "DELETE", "/config/wow-cafe", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, "GET", "/config/wow-cafe", nil).Code)
}

func TestConfigPathSegmentRules(t *testing.T) {
	router, _ := setupConfigRouter(t)

	cfg := map[string]interface{}{
		"restaurant": "side-cafe",
		"roles":      []string{"admin"},
	}

	// POST and PUT reject a restaurant path segment.
	assert.Equal(t, http.StatusNotFound, doJSON(router, "POST", "/config/side-cafe", cfg).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, "PUT", "/config/side-cafe", cfg).Code)

	// GET and DELETE require it.
	assert.Equal(t, http.StatusNotFound, doJSON(router, "GET", "/config", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, "DELETE", "/config", nil).Code)

	// Updating an unknown restaurant is a 404.
	assert.Equal(t, http.StatusNotFound, doJSON(router, "PUT", "/config", cfg).Code)
}
