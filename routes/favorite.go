package routes

import (
	"encoding/json"
	"net/http"

	"github.com/dkhilmaram/pizza2/models"
	"github.com/dkhilmaram/pizza2/storage"
	"github.com/dkhilmaram/pizza2/utils"
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm/clause"
)

// GetFavorites returns the caller's favorited pizzas in the shape the menu
// frontend renders: the saved snapshot with its id folded back in.
func GetFavorites(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var favorites []models.Favorite
	if err := storage.DB.Where("user_id = ?", claims.ID).Order("id ASC").Find(&favorites).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "Failed to fetch favorites")
		return
	}

	pizzaList := []map[string]interface{}{}
	for _, fav := range favorites {
		pizza := map[string]interface{}{}
		if len(fav.PizzaData) > 0 {
			if err := json.Unmarshal(fav.PizzaData, &pizza); err != nil {
				continue
			}
		}
		pizza["id"] = fav.PizzaID
		pizzaList = append(pizzaList, pizza)
	}

	ctx.JSON(pizzaList)
}

// AddFavorite upserts a pizza into the caller's favorites, keyed on
// (user, pizzaID). Re-adding refreshes the stored snapshot.
func AddFavorite(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	// Arbitrary menu payload, decoded without the struct validator.
	raw, err := ctx.GetBody()
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_payload", "Invalid pizza data")
		return
	}
	var pizza map[string]interface{}
	if err := json.Unmarshal(raw, &pizza); err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_payload", "Invalid pizza data")
		return
	}

	pizzaID, _ := pizza["id"].(string)
	if pizzaID == "" {
		pizzaID, _ = pizza["_id"].(string)
	}
	if pizzaID == "" {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_payload", "Invalid pizza data")
		return
	}

	data, err := json.Marshal(pizza)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	favorite := models.Favorite{
		UserID:    claims.ID,
		PizzaID:   pizzaID,
		PizzaData: data,
	}
	err = storage.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "pizza_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pizza_data", "updated_at"}),
	}).Create(&favorite).Error
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "Failed to add favorite")
		return
	}

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(iris.Map{"message": "Favorite added"})
}

// RemoveFavorite deletes one pizza from the caller's favorites.
func RemoveFavorite(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	pizzaID := ctx.Params().Get("pizzaId")

	// Hard delete, so re-adding the same pizza hits the upsert path cleanly.
	if err := storage.DB.Unscoped().Where("user_id = ? AND pizza_id = ?", claims.ID, pizzaID).
		Delete(&models.Favorite{}).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", "Failed to remove favorite")
		return
	}

	ctx.JSON(iris.Map{"message": "Favorite removed"})
}
