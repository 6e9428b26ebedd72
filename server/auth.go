package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mlmentor/mlmentor/store"
)

const (
	tokenLifetime = 7 * 24 * time.Hour

	userIDContextKey = "mlmentor.user-id"
)

type loginRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// login signs a student in by username plus short access code. An unknown
// username registers on first login; a known one must present the same code.
func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Code) < 4 {
		return echo.NewHTTPError(http.StatusBadRequest, "username and a code of at least 4 characters are required")
	}

	ctx := c.Request().Context()
	user, err := s.Store.GetUser(ctx, &store.FindUser{Username: &req.Username})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to look up user")
	}

	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Code), bcrypt.DefaultCost)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to hash code")
		}
		user, err = s.Store.CreateUser(ctx, &store.User{
			Username:  req.Username,
			CodeHash:  string(hash),
			CreatedTs: time.Now().Unix(),
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user")
		}
	} else if bcrypt.CompareHashAndPassword([]byte(user.CodeHash), []byte(req.Code)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "wrong access code")
	}

	token, err := s.signToken(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to sign token")
	}
	return c.JSON(http.StatusOK, &loginResponse{Token: token, Username: user.Username})
}

func (s *Server) signToken(user *store.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(int(user.ID)),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// jwtMiddleware authenticates bearer tokens and stores the user ID on the
// request context.
func (s *Server) jwtMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(s.secret), nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
		}
		userID, err := strconv.Atoi(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
		}

		c.Set(userIDContextKey, int32(userID))
		return next(c)
	}
}

func currentUserID(c echo.Context) int32 {
	id, _ := c.Get(userIDContextKey).(int32)
	return id
}
