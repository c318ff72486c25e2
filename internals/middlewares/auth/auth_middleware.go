package auth

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	authModel "schoolku_backend/internals/features/users/auth/model"
	helper "schoolku_backend/internals/helpers"
)

const expirySkew = 30 * time.Second

// AuthMiddleware verifies the access token, rejects blacklisted tokens and
// disabled accounts, then stores the identity in Locals.
func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}

		if c.Locals("token_checked") == nil {
			var existing authModel.TokenBlacklistModel
			err := db.WithContext(c.UserContext()).
				Where("token = ?", tokenString).
				Take(&existing).Error
			if err == nil {
				log.Println("[AUTH] blacklisted token rejected")
				return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Token is blacklisted")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Println("[AUTH] blacklist lookup failed:", err)
				return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
			}
			c.Locals("token_checked", true)
		}

		claims, err := parseAccessToken(tokenString, configs.JWTSecret)
		if err != nil {
			log.Println("[AUTH]", err)
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}
		if err := validateTokenExpiry(claims, expirySkew); err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		userID, err := extractUserID(claims)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}

		if err := ensureUserActive(db.WithContext(c.UserContext()), userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - User not found")
			}
			return helper.JsonError(c, fiber.StatusForbidden, "This user account has been disabled.")
		}

		c.Locals(helper.LocUserID, userID.String())
		c.Locals(helper.LocRawToken, tokenString)
		c.Locals("jwt_claims", claims)
		storeBasicClaimsToLocals(c, claims)
		return c.Next()
	}
}

// parseAccessToken checks the signature and the token type. Expiry is
// validated separately with a small skew.
func parseAccessToken(tokenString, secret string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is empty")
	}
	claims := jwt.MapClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true, ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}); err != nil {
		return nil, err
	}
	if typ, ok := claims["typ"].(string); ok && typ != "access" {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}
