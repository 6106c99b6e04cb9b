package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claro-app/claro-server/internal/database"
	"github.com/claro-app/claro-server/internal/models"
	pkgauth "github.com/claro-app/claro-server/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiddlewareTest(t *testing.T) (*database.Database, *pkgauth.JWTManager, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(t.TempDir())
	require.NoError(t, err)

	jwtManager := pkgauth.NewJWTManager("test-secret", time.Hour)

	router := gin.New()
	router.Use(Middleware(db, jwtManager))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("userID")})
	})

	return db, jwtManager, router
}

func TestMiddleware(t *testing.T) {
	db, jwtManager, router := setupMiddlewareTest(t)

	user := &models.User{Email: "alice@example.com", Name: "Alice", Password: "x"}
	require.NoError(t, db.CreateUser(user))

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Access token required")
	})

	t.Run("non-bearer header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic abc123")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		forged := pkgauth.NewJWTManager("other-secret", time.Hour)
		token, err := forged.Generate(user.ID, user.Email, user.Name, string(user.Role))
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token for deleted user", func(t *testing.T) {
		ghost := &models.User{Email: "ghost@example.com", Name: "Ghost", Password: "x"}
		require.NoError(t, db.CreateUser(ghost))
		token, err := jwtManager.Generate(ghost.ID, ghost.Email, ghost.Name, string(ghost.Role))
		require.NoError(t, err)
		require.NoError(t, db.Delete(&models.User{}, ghost.ID).Error)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		// A stale token is reported differently from a forged one.
		assert.Contains(t, w.Body.String(), "User not found")
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := jwtManager.Generate(user.ID, user.Email, user.Name, string(user.Role))
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMiddlewareStoreOutage(t *testing.T) {
	db, jwtManager, router := setupMiddlewareTest(t)

	user := &models.User{Email: "alice@example.com", Name: "Alice", Password: "x"}
	require.NoError(t, db.CreateUser(user))
	token, err := jwtManager.Generate(user.ID, user.Email, user.Name, string(user.Role))
	require.NoError(t, err)

	require.NoError(t, db.Exec("DROP TABLE users").Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	// A broken store is not a revoked principal.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "User not found")
}
