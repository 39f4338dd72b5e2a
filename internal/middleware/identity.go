package middleware

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// subjectID reads the numeric user id from the sub claim.  Tokens minted
// by utils.NewAccessToken carry it as a decimal string; older tokens may
// carry a JSON number.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		return n, err == nil && n != 0
	case float64:
		return uint64(v), v > 0
	}
	return 0, false
}

// currentUserID returns the authenticated user id as a string for keying,
// or "anon".
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case uint64:
		if v != 0 {
			return strconv.FormatUint(v, 10)
		}
	case string:
		if v != "" {
			return v
		}
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return "anon"
}
