package app

import (
	"strconv"

	"github.com/ak/griddle/internal/domain/services"
	apperrors "github.com/ak/griddle/internal/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// resolveRecipeID reads the recipe_id query parameter, falling back to the
// current recipe when it is absent.
func (a *Application) resolveRecipeID(c *gin.Context) (primitive.ObjectID, bool) {
	if raw := c.Query("recipe_id"); raw != "" {
		id, err := parseObjectID(raw)
		if err != nil {
			serviceError(c, apperrors.InvalidInput("invalid recipe_id"))
			return primitive.NilObjectID, false
		}
		return id, true
	}

	recipe, err := a.recipes.Current(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return primitive.NilObjectID, false
	}
	return recipe.ID, true
}

func (a *Application) listHistory(c *gin.Context) {
	recipeID, ok := a.resolveRecipeID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			serviceError(c, apperrors.InvalidInput("invalid limit"))
			return
		}
		limit = parsed
	}

	records, err := a.history.List(c.Request.Context(), recipeID, limit)
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, records)
}

func (a *Application) recordCook(c *gin.Context) {
	var req services.RecordCookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		serviceError(c, apperrors.Validation(err.Error()))
		return
	}

	if req.RecipeID.IsZero() {
		recipe, err := a.recipes.Current(c.Request.Context())
		if err != nil {
			serviceError(c, err)
			return
		}
		req.RecipeID = recipe.ID
	}

	record, err := a.history.Record(c.Request.Context(), req)
	if err != nil {
		serviceError(c, err)
		return
	}

	a.logger.WithRecipe(req.RecipeID.Hex()).Info("Cook recorded",
		zap.Int("temperature", req.Temperature),
		zap.String("rating", string(req.Rating)))
	createdResponse(c, record)
}

func (a *Application) clearHistory(c *gin.Context) {
	recipeID, ok := a.resolveRecipeID(c)
	if !ok {
		return
	}

	deleted, err := a.history.Clear(c.Request.Context(), recipeID)
	if err != nil {
		serviceError(c, err)
		return
	}

	a.logger.WithRecipe(recipeID.Hex()).Info("History cleared", zap.Int64("deleted", deleted))
	successResponse(c, gin.H{"deleted": deleted})
}

func (a *Application) deleteHistoryRecord(c *gin.Context) {
	id, ok := getObjectID(c, "id")
	if !ok {
		return
	}

	if err := a.history.Delete(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, gin.H{"deleted": true})
}

// getStatistics returns per-recipe aggregates when recipe_id is given and
// the global aggregates otherwise.
func (a *Application) getStatistics(c *gin.Context) {
	if raw := c.Query("recipe_id"); raw != "" {
		id, err := parseObjectID(raw)
		if err != nil {
			serviceError(c, apperrors.InvalidInput("invalid recipe_id"))
			return
		}
		stats, err := a.stats.Get(c.Request.Context(), id)
		if err != nil {
			serviceError(c, err)
			return
		}
		successResponse(c, stats)
		return
	}

	stats, err := a.stats.Global(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, stats)
}
