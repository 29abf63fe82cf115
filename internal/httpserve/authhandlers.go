package httpserve

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const sessionName = "draftpress_session"

// requireAuth admits requests carrying a valid bearer token or an
// authenticated session cookie.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := bearerToken(c); token != "" {
			if err := s.auth.VerifyToken(token); err == nil {
				return next(c)
			}
		}
		if sess, err := session.Get(sessionName, c); err == nil {
			if token, ok := sess.Values["token"].(string); ok {
				if err := s.auth.VerifyToken(token); err == nil {
					return next(c)
				}
			}
		}
		return respondError(c, http.StatusUnauthorized, "authentication required")
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := s.auth.VerifyPassword(req.Password); err != nil {
		log.Warn().Str("ip", c.RealIP()).Msg("failed login attempt")
		return respondError(c, http.StatusUnauthorized, "invalid password")
	}

	token, err := s.auth.GenerateToken()
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "could not create session")
	}

	if sess, err := session.Get(sessionName, c); err == nil {
		sess.Options = &sessions.Options{
			Path:     "/",
			MaxAge:   24 * 60 * 60,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		sess.Values["token"] = token
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn().Err(err).Msg("session save failed")
		}
	}
	return respondOK(c, map[string]string{"token": token})
}

func (s *Server) handleLogout(c echo.Context) error {
	if sess, err := session.Get(sessionName, c); err == nil {
		sess.Options = &sessions.Options{Path: "/", MaxAge: -1}
		delete(sess.Values, "token")
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn().Err(err).Msg("session save failed")
		}
	}
	return respondOK(c, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return respondOK(c, map[string]string{"status": "ok"})
}
