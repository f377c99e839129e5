package middleware

import (
	"net/http"
	"strings"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Auth validates the bearer token and sets user_id on the context for handlers
// downstream.
func Auth() gin.HandlerFunc {
	unauthorized := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

	return func(ctx *gin.Context) {
		authorization := ctx.Request.Header.Get("Authorization")
		if authorization == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}
		parts := strings.SplitN(authorization, "Bearer ", 2)
		if len(parts) != 2 || parts[1] == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		var claims model.UserClaims
		token, err := jwt.ParseWithClaims(parts[1], &claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(configuration.C.App.SecretKey), nil
		})
		if err != nil || !token.Valid {
			logger.GetLogger().WithField("error", err).Warn("Invalid token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		ctx.Set("user_id", claims.Issuer)
		ctx.Next()
	}
}
