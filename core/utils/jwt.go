package utils

import (
	stdErrors "errors"
	"glee-scheduler/core/config"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	Scope  string    `json:"scope"`
	jwt.RegisteredClaims
}

func jwtSecret() ([]byte, *errors.AppError) {
	cfg, ok := config.GetSafe()
	if !ok || cfg.JWT.Secret == "" {
		return nil, errors.NewAppError(errors.ErrInternalServer, "JWT secret not configured", nil)
	}
	return []byte(cfg.JWT.Secret), nil
}

func GenerateToken(userID uuid.UUID, role, scope string, ttl time.Duration) (string, error) {
	secret, appErr := jwtSecret()
	if appErr != nil {
		return "", appErr
	}

	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		Role:   role,
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.Get().JWT.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ValidateAndParseToken(tokenString string) (*TokenClaims, error) {
	secret, appErr := jwtSecret()
	if appErr != nil {
		return nil, appErr
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if stdErrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAppError(errors.ErrTokenExpired, "Token has expired", err)
		}
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "Invalid token", err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "Invalid token", nil)
	}
	if claims.Scope != constants.ScopeTokenAccess {
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "Token is not an access token", nil)
	}
	return claims, nil
}

func GetTokenFromHeader(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errors.NewAppError(errors.ErrMissingAuthorizationHeader, "Missing authorization header", nil)
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", errors.NewAppError(errors.ErrInvalidTokenFormat, "Invalid authorization header", nil)
	}
	return strings.TrimSpace(token), nil
}

// ClaimsFromContext returns the authenticated caller, if any.
func ClaimsFromContext(c echo.Context, key string) (*TokenClaims, bool) {
	claims, ok := c.Get(key).(*TokenClaims)
	return claims, ok && claims != nil
}
