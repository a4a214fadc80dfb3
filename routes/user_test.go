package routes

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkhilmaram/pizza2/storage"
	"github.com/dkhilmaram/pizza2/utils"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/stretchr/testify/require"
)

// buildUserApp wires the auth routes the way main.go does, backed by an
// in-memory database and a miniredis refresh-token store.
func buildUserApp(t *testing.T) *iris.Application {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refreshsecret")
	setupTestDB(t)

	mr := miniredis.RunT(t)
	storage.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte("testsecret"))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte("refreshsecret"))
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} { return new(jwt.Claims) })
	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		if err := ctx.ReadJSON(&tokenInput); err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", Register)
		user.Post("/login", Login)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/me", accessTokenVerifierMiddleware, GetMe)
	}

	require.NoError(t, app.Build())
	return app
}

type authResponse struct {
	ID           uint   `json:"ID"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func registerTestUser(t *testing.T, app *iris.Application) authResponse {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/user/register", "", iris.Map{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "supersecret",
		"city":     "Naples",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var out authResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	app := buildUserApp(t)

	reg := registerTestUser(t, app)
	require.NotZero(t, reg.ID)
	require.Equal(t, "alice@example.com", reg.Email) // stored lowercased
	require.Equal(t, "user", reg.Role)
	require.NotEmpty(t, reg.AccessToken)
	require.NotEmpty(t, reg.RefreshToken)

	// Duplicate email is rejected
	resp := doJSON(t, app, http.MethodPost, "/api/user/register", "", iris.Map{
		"name":     "Alice again",
		"email":    "alice@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	// Wrong password
	resp = doJSON(t, app, http.MethodPost, "/api/user/login", "", iris.Map{
		"email":    "alice@example.com",
		"password": "wrongwrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	// Right password
	resp = doJSON(t, app, http.MethodPost, "/api/user/login", "", iris.Map{
		"email":    "alice@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var login authResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))
	require.Equal(t, reg.ID, login.ID)
	require.NotEmpty(t, login.AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	app := buildUserApp(t)

	for name, body := range map[string]iris.Map{
		"missing email":  {"name": "A", "password": "supersecret"},
		"bad email":      {"name": "A", "email": "not-an-email", "password": "supersecret"},
		"short password": {"name": "A", "email": "a@x.com", "password": "short"},
	} {
		resp := doJSON(t, app, http.MethodPost, "/api/user/register", "", body)
		require.Equal(t, http.StatusBadRequest, resp.Code, name)
	}
}

func TestGetMe(t *testing.T) {
	app := buildUserApp(t)
	reg := registerTestUser(t, app)

	resp := doJSON(t, app, http.MethodGet, "/api/user/me", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var out struct {
		User struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, "Alice", out.User.Name)
	require.Equal(t, "alice@example.com", out.User.Email)

	resp = doJSON(t, app, http.MethodGet, "/api/user/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	app := buildUserApp(t)
	reg := registerTestUser(t, app)

	// iat has second granularity; without this the rotated token can come out
	// byte-identical to the one being consumed.
	time.Sleep(1100 * time.Millisecond)

	resp := doJSON(t, app, http.MethodPost, "/api/user/refresh", "", iris.Map{"refreshToken": reg.RefreshToken})
	require.Equal(t, http.StatusOK, resp.Code)
	var rotated struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rotated))
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEmpty(t, rotated.RefreshToken)
	require.NotEqual(t, reg.RefreshToken, rotated.RefreshToken)

	// The consumed token was removed from the allow-list
	resp = doJSON(t, app, http.MethodPost, "/api/user/refresh", "", iris.Map{"refreshToken": reg.RefreshToken})
	require.Equal(t, http.StatusNotFound, resp.Code)
}
