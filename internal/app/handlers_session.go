package app

import (
	"github.com/ak/griddle/internal/domain/models"
	apperrors "github.com/ak/griddle/internal/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type startSessionRequest struct {
	RecipeID    string `json:"recipe_id"`
	Temperature int    `json:"temperature" binding:"required"`
}

func (a *Application) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		serviceError(c, apperrors.Validation(err.Error()))
		return
	}

	recipeID, err := a.recipeIDOrCurrent(c, req.RecipeID)
	if err != nil {
		serviceError(c, err)
		return
	}

	status, err := a.sessions.Start(c.Request.Context(), recipeID, req.Temperature)
	if err != nil {
		serviceError(c, err)
		return
	}

	a.logger.WithSession(status.ID).Info("Cook session started",
		zap.String("recipe_id", recipeID.Hex()),
		zap.Int("temperature", req.Temperature))
	createdResponse(c, status)
}

func (a *Application) getSession(c *gin.Context) {
	status, err := a.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, status)
}

func (a *Application) flipSession(c *gin.Context) {
	status, err := a.sessions.Flip(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, status)
}

func (a *Application) finishSession(c *gin.Context) {
	status, err := a.sessions.Finish(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, status)
}

type rateSessionRequest struct {
	Rating models.Rating `json:"rating" binding:"required"`
}

func (a *Application) rateSession(c *gin.Context) {
	var req rateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		serviceError(c, apperrors.Validation(err.Error()))
		return
	}

	id := c.Param("id")
	result, err := a.sessions.Rate(c.Request.Context(), id, req.Rating)
	if err != nil {
		serviceError(c, err)
		return
	}

	a.logger.WithSession(id).Info("Cook session rated", zap.String("rating", string(req.Rating)))
	successResponse(c, result)
}

func (a *Application) cancelSession(c *gin.Context) {
	id := c.Param("id")
	if err := a.sessions.Cancel(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}

	a.logger.WithSession(id).Info("Cook session cancelled")
	successResponse(c, gin.H{"cancelled": true})
}

func (a *Application) recipeIDOrCurrent(c *gin.Context, raw string) (primitive.ObjectID, error) {
	if raw != "" {
		id, err := parseObjectID(raw)
		if err != nil {
			return primitive.NilObjectID, apperrors.InvalidInput("invalid recipe_id")
		}
		return id, nil
	}
	recipe, err := a.recipes.Current(c.Request.Context())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return recipe.ID, nil
}
