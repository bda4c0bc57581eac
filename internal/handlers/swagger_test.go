package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pricewatch/search-service/docs" // Import generated docs
)

// TestSwaggerDependenciesImportable verifies that swaggo packages can be imported
// and that the gin-swagger handler can be created.
func TestSwaggerDependenciesImportable(t *testing.T) {
	handler := ginSwagger.WrapHandler(swaggerFiles.Handler)
	assert.NotNil(t, handler, "ginSwagger.WrapHandler should return a non-nil handler")
}

// TestSwaggerRouteRegistration verifies that swagger routes can be registered on a Gin router.
func TestSwaggerRouteRegistration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	assert.NotPanics(t, func() {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}, "Registering swagger handler should not panic")

	routes := router.Routes()
	found := false
	for _, route := range routes {
		if route.Path == "/swagger/*any" && route.Method == "GET" {
			found = true
			break
		}
	}
	assert.True(t, found, "Swagger route should be registered")
}

func setupSwaggerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return router
}

// TestSwaggerUIEndpoint verifies that /swagger/index.html serves the Swagger UI HTML page.
func TestSwaggerUIEndpoint(t *testing.T) {
	router := setupSwaggerRouter()

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Swagger UI should return 200 OK")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html", "Swagger UI should return HTML content")

	body := w.Body.String()
	assert.Contains(t, body, "swagger", "Response should contain swagger reference")
}

// TestSwaggerJSONEndpoint verifies that /swagger/doc.json serves the OpenAPI spec.
func TestSwaggerJSONEndpoint(t *testing.T) {
	router := setupSwaggerRouter()

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Swagger JSON should return 200 OK")
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json", "Swagger JSON should return JSON content")

	var spec map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &spec)
	require.NoError(t, err, "Response should be valid JSON")

	assert.Equal(t, "2.0", spec["swagger"], "Swagger spec should be version 2.0")

	info, ok := spec["info"].(map[string]interface{})
	require.True(t, ok, "Spec should have info section")
	assert.Equal(t, "Search Service API", info["title"], "API title should match")
	assert.Equal(t, "1.0", info["version"], "API version should match")

	assert.Equal(t, "/", spec["basePath"], "BasePath should be /")

	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok, "Spec should have paths section")
	assert.Greater(t, len(paths), 0, "Spec should have at least one path")
}

// TestSwaggerSpecEndpoints verifies that the OpenAPI spec contains expected endpoints.
func TestSwaggerSpecEndpoints(t *testing.T) {
	router := setupSwaggerRouter()

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var spec map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &spec)
	require.NoError(t, err)

	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)

	expectedEndpoints := []string{
		"/api/v1/search",
		"/health",
		"/internal/admin/sources",
		"/internal/admin/sources/{id}",
		"/internal/jobs/{jobId}",
	}

	for _, endpoint := range expectedEndpoints {
		_, exists := paths[endpoint]
		assert.True(t, exists, "Endpoint %s should be documented in OpenAPI spec", endpoint)
	}
}

// TestSwaggerSpecDefinitions verifies that the OpenAPI spec contains expected type definitions.
func TestSwaggerSpecDefinitions(t *testing.T) {
	router := setupSwaggerRouter()

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var spec map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &spec)
	require.NoError(t, err)

	definitions, ok := spec["definitions"].(map[string]interface{})
	require.True(t, ok, "Spec should have definitions section")

	expectedDefinitions := []string{
		"handlers.SearchRequest",
		"handlers.CreateSourceRequest",
		"types.SearchResponse",
		"types.Source",
		"types.ScrapeJob",
	}

	for _, def := range expectedDefinitions {
		_, exists := definitions[def]
		assert.True(t, exists, "Definition %s should exist in OpenAPI spec", def)
	}
}
