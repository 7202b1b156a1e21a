package middleware

import "github.com/labstack/echo/v4"

// Subject returns the token subject stored by JWTAuth, or "anon" when the
// request is not authenticated.
func Subject(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
