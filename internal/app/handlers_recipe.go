package app

import (
	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/services"
	apperrors "github.com/ak/griddle/internal/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *Application) listRecipes(c *gin.Context) {
	recipes, err := a.recipes.List(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, recipes)
}

func (a *Application) createRecipe(c *gin.Context) {
	var req services.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		serviceError(c, apperrors.Validation(err.Error()))
		return
	}

	recipe, err := a.recipes.Create(c.Request.Context(), req)
	if err != nil {
		serviceError(c, err)
		return
	}

	a.logger.WithRecipe(recipe.ID.Hex()).Info("Recipe created", zap.String("name", recipe.Name))
	createdResponse(c, recipe)
}

func (a *Application) getRecipe(c *gin.Context) {
	id, ok := getObjectID(c, "id")
	if !ok {
		return
	}

	recipe, err := a.recipes.GetByID(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, recipe)
}

func (a *Application) updateRecipe(c *gin.Context) {
	id, ok := getObjectID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		serviceError(c, apperrors.Validation(err.Error()))
		return
	}

	recipe, err := a.recipes.Update(c.Request.Context(), id, req)
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, recipe)
}

func (a *Application) deleteRecipe(c *gin.Context) {
	id, ok := getObjectID(c, "id")
	if !ok {
		return
	}

	if err := a.recipes.Delete(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}

	a.logger.WithRecipe(id.Hex()).Info("Recipe deleted")
	successResponse(c, gin.H{"deleted": true})
}

func (a *Application) getCurrentRecipe(c *gin.Context) {
	recipe, err := a.recipes.Current(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, recipe)
}

type setCurrentRecipeRequest struct {
	RecipeID string `json:"recipe_id" binding:"required"`
}

func (a *Application) setCurrentRecipe(c *gin.Context) {
	var req setCurrentRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		serviceError(c, apperrors.Validation(err.Error()))
		return
	}

	id, err := parseObjectID(req.RecipeID)
	if err != nil {
		serviceError(c, apperrors.InvalidInput("invalid recipe_id"))
		return
	}

	if err := a.recipes.SetCurrent(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, gin.H{"current_recipe_id": req.RecipeID})
}

// resetRecommendations discards learned timings for a recipe and re-seeds
// defaults for the whole dial.
func (a *Application) resetRecommendations(c *gin.Context) {
	id, ok := getObjectID(c, "id")
	if !ok {
		return
	}

	if _, err := a.recipes.GetByID(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}

	if err := a.engine.ResetRecipeRecommendations(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}

	a.logger.WithRecipe(id.Hex()).Info("Recommendations reset")
	successResponse(c, gin.H{"reset": true})
}

func (a *Application) listRecommendations(c *gin.Context) {
	id, ok := getObjectID(c, "id")
	if !ok {
		return
	}

	recommendations, err := a.engine.ListRecommendations(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, recommendations)
}

func (a *Application) getRecommendation(c *gin.Context) {
	id, ok := getObjectID(c, "id")
	if !ok {
		return
	}
	temp, ok := getTemperature(c, "temperature")
	if !ok {
		return
	}
	if !models.ValidTemperature(temp) {
		serviceError(c, apperrors.InvalidInput("temperature must be between 1 and 9"))
		return
	}

	recommendation, err := a.engine.GetRecommendation(c.Request.Context(), id, temp)
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, recommendation)
}
