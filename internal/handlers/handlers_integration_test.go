package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test_jwt_secret"

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		DSN:    database.InMemorySQLiteDSN(uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })

	logger := zerolog.Nop()

	productService := services.NewProductService(repositories.NewGORMProductRepository(db), logger, nil, nil)
	authService := services.NewAuthService(repositories.NewGORMUserRepository(db), logger, testJWTSecret)

	validate := handlers.NewValidator()
	productHandler := handlers.NewProductHandler(productService, validate)
	authHandler := handlers.NewAuthHandler(authService, validate)

	app := fiber.New(fiber.Config{UnescapePath: true})
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1, middleware.AuthRequired(authService, logger))

	return app, authService
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// loginAs registers a user and returns a token for it.
func loginAs(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	decode(t, resp, &loginResp)
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func chairPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Wooden Chair",
		"description": "Solid oak",
		"price":       79.9,
		"stock":       12,
		"sizes":       []string{"S", "M"},
		"gender":      "unisex",
		"tags":        []string{"furniture"},
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, authService := setupApp(t)

	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}

	resp := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", userToRegister, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp map[string]interface{}
	decode(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	registered, ok := registerResp["user"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, registered, "password")

	// Test Duplicate Registration (username)
	resp = doRequest(t, app, http.MethodPost, "/api/v1/auth/register", userToRegister, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Test Login
	resp = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "testuser",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decode(t, resp, &loginResp)

	claims, err := authService.ValidateToken(loginResp["token"])
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])
	assert.Contains(t, claims, "user_id")

	// Test wrong password
	resp = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "testuser",
		"password": "not-the-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRegisterValidation(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "x",
		"email":    "not-an-email",
		"password": "123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "Validation failed", body["message"])
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "Email")
}

func TestProductLifecycle(t *testing.T) {
	app, _ := setupApp(t)
	token := loginAs(t, app, "editor")

	// --- POST /products ---
	resp := doRequest(t, app, http.MethodPost, "/api/v1/products", chairPayload(), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decode(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Wooden Chair", created.Title)
	assert.Equal(t, "wooden-chair", created.Slug)
	assert.True(t, decimal.RequireFromString("79.9").Equal(created.Price))

	// --- GET /products/:term by id and by slug, no token needed ---
	for _, term := range []string{created.ID, "wooden-chair", "WOODEN-CHAIR"} {
		resp = doRequest(t, app, http.MethodGet, "/api/v1/products/"+term, nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, term)
		var fetched models.Product
		decode(t, resp, &fetched)
		assert.Equal(t, created.ID, fetched.ID, term)
	}

	// --- GET /products ---
	resp = doRequest(t, app, http.MethodGet, "/api/v1/products?limit=5&offset=0", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decode(t, resp, &products)
	assert.Len(t, products, 1)

	// --- PATCH /products/:id ---
	resp = doRequest(t, app, http.MethodPatch, "/api/v1/products/"+created.ID, map[string]interface{}{
		"stock": 0,
		"title": "Oak Chair",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Product
	decode(t, resp, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Oak Chair", updated.Title)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "Solid oak", updated.Description)
	assert.Equal(t, "wooden-chair", updated.Slug)

	// --- DELETE /products/:id ---
	resp = doRequest(t, app, http.MethodDelete, "/api/v1/products/"+created.ID, nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var deleteResp map[string]string
	decode(t, resp, &deleteResp)
	assert.Contains(t, deleteResp["message"], "deleted successfully")

	// Verify deletion
	resp = doRequest(t, app, http.MethodGet, "/api/v1/products/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/products/"+created.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductErrors(t *testing.T) {
	app, _ := setupApp(t)
	token := loginAs(t, app, "editor")

	resp := doRequest(t, app, http.MethodPost, "/api/v1/products", chairPayload(), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// duplicate title, other case
	dup := chairPayload()
	dup["title"] = "WOODEN CHAIR"
	dup["slug"] = "another-chair"
	resp = doRequest(t, app, http.MethodPost, "/api/v1/products", dup, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var conflict map[string]interface{}
	decode(t, resp, &conflict)
	assert.Equal(t, float64(http.StatusBadRequest), conflict["statusCode"])
	assert.NotEmpty(t, conflict["message"])

	// unknown term
	resp = doRequest(t, app, http.MethodGet, "/api/v1/products/desk", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var missing map[string]interface{}
	decode(t, resp, &missing)
	assert.Contains(t, missing["message"], "desk")

	// update of an unknown id
	resp = doRequest(t, app, http.MethodPatch, "/api/v1/products/"+uuid.NewString(), map[string]interface{}{"stock": 1}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// malformed id
	resp = doRequest(t, app, http.MethodPatch, "/api/v1/products/not-a-uuid", map[string]interface{}{"stock": 1}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var invalid map[string]interface{}
	decode(t, resp, &invalid)
	assert.Equal(t, "Validation failed (uuid is expected): not-a-uuid", invalid["message"])

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/products/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// invalid payloads
	bad := chairPayload()
	bad["title"] = "Bench"
	bad["price"] = -1
	resp = doRequest(t, app, http.MethodPost, "/api/v1/products", bad, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad = chairPayload()
	bad["title"] = "Bench"
	bad["gender"] = "robot"
	resp = doRequest(t, app, http.MethodPost, "/api/v1/products", bad, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/products?limit=1000", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductWritesRequireAuth(t *testing.T) {
	app, _ := setupApp(t)

	// reads are public
	resp := doRequest(t, app, http.MethodGet, "/api/v1/products", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decode(t, resp, &products)
	assert.Empty(t, products)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/products", chairPayload(), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/products", chairPayload(), "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	id := uuid.NewString()
	resp = doRequest(t, app, http.MethodPatch, "/api/v1/products/"+id, map[string]interface{}{"stock": 1}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/products/"+id, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProductLookupByEscapedTitle(t *testing.T) {
	app, _ := setupApp(t)
	token := loginAs(t, app, "editor")

	resp := doRequest(t, app, http.MethodPost, "/api/v1/products", chairPayload(), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decode(t, resp, &created)

	for _, path := range []string{
		"/api/v1/products/Wooden%20Chair",
		"/api/v1/products/wooden%20chair",
		"/api/v1/products/" + strings.ToUpper(created.ID),
	} {
		resp = doRequest(t, app, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		var fetched models.Product
		decode(t, resp, &fetched)
		assert.Equal(t, created.ID, fetched.ID, path)
	}
}

func TestProductBlankTitleRejected(t *testing.T) {
	app, _ := setupApp(t)
	token := loginAs(t, app, "editor")

	blank := chairPayload()
	blank["title"] = "   "
	resp := doRequest(t, app, http.MethodPost, "/api/v1/products", blank, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/products", nil, "")
	var products []models.Product
	decode(t, resp, &products)
	assert.Empty(t, products)
}
