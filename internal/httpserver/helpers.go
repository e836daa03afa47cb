package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shopcore/marketplace/internal/service"
)

// GetID extracts the user id from the access-token cookie. Token issuing and
// refreshing live upstream; this only reads the subject claim.
func GetID(c echo.Context, jwtSecret []byte) (uuid.UUID, error) {
	cookie, err := c.Cookie("accessToken")
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}
	tokenString := cookie.Value
	if tokenString == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid subject claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid subject claim")
	}

	return userID, nil
}

// httpError maps the engine's error taxonomy onto stable HTTP outcomes so
// the client can tell "sold out" from "coupon invalid" without seeing
// rollback details.
func httpError(err error) *echo.HTTPError {
	var it *service.InvalidTransitionError
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrInvalidCouponCode),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponUsageLimitReached),
		errors.Is(err, service.ErrCouponMinimumNotMet):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrOrderNumberCollision),
		errors.As(err, &it):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
