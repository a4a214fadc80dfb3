package routes

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dkhilmaram/pizza2/utils"
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/stretchr/testify/require"
)

func buildFavoritesApp(t *testing.T) *iris.Application {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	setupTestDB(t)

	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte("testsecret"))
	authMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	favorites := app.Party("/api/favorites", authMiddleware)
	{
		favorites.Get("/", GetFavorites)
		favorites.Post("/", AddFavorite)
		favorites.Delete("/{pizzaId}", RemoveFavorite)
	}

	require.NoError(t, app.Build())
	return app
}

func listFavorites(t *testing.T, app *iris.Application, token string) []map[string]interface{} {
	t.Helper()
	resp := doJSON(t, app, http.MethodGet, "/api/favorites", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestFavoritesLifecycle(t *testing.T) {
	app := buildFavoritesApp(t)
	u := seedUser(t, "Alice", "alice@example.com", "user")
	token := signTestToken(t, u)

	require.Empty(t, listFavorites(t, app, token))

	pizza := iris.Map{"id": "margherita", "name": "Margherita", "price": 9.5}
	resp := doJSON(t, app, http.MethodPost, "/api/favorites", token, pizza)
	require.Equal(t, http.StatusCreated, resp.Code)

	favs := listFavorites(t, app, token)
	require.Len(t, favs, 1)
	require.Equal(t, "margherita", favs[0]["id"])
	require.Equal(t, "Margherita", favs[0]["name"])

	// Re-adding the same pizza refreshes the snapshot instead of duplicating
	pizza["price"] = 10.0
	resp = doJSON(t, app, http.MethodPost, "/api/favorites", token, pizza)
	require.Equal(t, http.StatusCreated, resp.Code)
	favs = listFavorites(t, app, token)
	require.Len(t, favs, 1)
	require.Equal(t, 10.0, favs[0]["price"])

	resp = doJSON(t, app, http.MethodDelete, "/api/favorites/margherita", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Empty(t, listFavorites(t, app, token))
}

func TestAddFavoriteRequiresID(t *testing.T) {
	app := buildFavoritesApp(t)
	u := seedUser(t, "Alice", "alice@example.com", "user")

	resp := doJSON(t, app, http.MethodPost, "/api/favorites", signTestToken(t, u), iris.Map{"name": "No ID"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestFavoritesArePerUser(t *testing.T) {
	app := buildFavoritesApp(t)
	alice := seedUser(t, "Alice", "alice@example.com", "user")
	bob := seedUser(t, "Bob", "bob@example.com", "user")

	resp := doJSON(t, app, http.MethodPost, "/api/favorites", signTestToken(t, alice), iris.Map{"id": "diavola", "name": "Diavola"})
	require.Equal(t, http.StatusCreated, resp.Code)

	require.Len(t, listFavorites(t, app, signTestToken(t, alice)), 1)
	require.Empty(t, listFavorites(t, app, signTestToken(t, bob)))
}
