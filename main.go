package main

import (
	"log"
	"os"

	"github.com/dkhilmaram/pizza2/routes"
	"github.com/dkhilmaram/pizza2/storage"
	"github.com/dkhilmaram/pizza2/utils"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS for the React frontend
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/me", accessTokenVerifierMiddleware, routes.GetMe)
	}

	reviews := app.Party("/api/reviews")
	{
		reviews.Get("/ratings", routes.GetRatings)
		reviews.Post("/ratings", accessTokenVerifierMiddleware, routes.CreateOrUpdateRating)
		reviews.Get("/ratings/mine", accessTokenVerifierMiddleware, routes.GetMyRating)
		reviews.Get("/comments", routes.GetComments)
		reviews.Post("/comments", accessTokenVerifierMiddleware, routes.AddComment)
		reviews.Put("/comments/{commentId:uint}", accessTokenVerifierMiddleware, routes.UpdateComment)
		reviews.Delete("/comments/{commentId:uint}", accessTokenVerifierMiddleware, routes.DeleteComment)
		reviews.Post("/comments/{commentId:uint}/replies", accessTokenVerifierMiddleware, routes.ReplyToComment)
	}

	favorites := app.Party("/api/favorites", accessTokenVerifierMiddleware)
	{
		favorites.Get("/", routes.GetFavorites)
		favorites.Post("/", routes.AddFavorite)
		favorites.Delete("/{pizzaId}", routes.RemoveFavorite)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Get("/reviews", routes.AdminListReviews)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🍕 server listening on port", port)
	app.Listen(":" + port)
}
