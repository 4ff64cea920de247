package handlers

import (
	"github.com/geocoder89/quickhire/internal/http/middlewares"
	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/gin-gonic/gin"
)

// actorFrom reads the caller established by RequireAuth. Routes without it
// get an empty actor, which the service rejects as unauthenticated.
func actorFrom(ctx *gin.Context) marketplace.Actor {
	id, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)
	return marketplace.Actor{UserID: id, Role: role}
}
