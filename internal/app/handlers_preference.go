package app

import (
	apperrors "github.com/ak/griddle/internal/pkg/errors"
	"github.com/gin-gonic/gin"
)

func (a *Application) getPreference(c *gin.Context) {
	key := c.Param("key")
	pref, err := a.repos.Preference.Get(c.Request.Context(), key)
	if err != nil {
		serviceError(c, err)
		return
	}
	if pref == nil {
		serviceError(c, apperrors.NotFound("preference"))
		return
	}
	successResponse(c, pref)
}

type setPreferenceRequest struct {
	Value string `json:"value" binding:"required"`
}

func (a *Application) setPreference(c *gin.Context) {
	var req setPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		serviceError(c, apperrors.Validation(err.Error()))
		return
	}

	key := c.Param("key")
	if err := a.repos.Preference.Set(c.Request.Context(), key, req.Value); err != nil {
		serviceError(c, err)
		return
	}
	successResponse(c, gin.H{"key": key, "value": req.Value})
}
