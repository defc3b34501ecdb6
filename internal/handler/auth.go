package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/moto-auction/internal/model"
	"github.com/iliyamo/moto-auction/internal/store"
	"github.com/iliyamo/moto-auction/internal/utils"
)

// AuthHandler issues access tokens against stored user records. Full
// registration, password reset and session management belong to the
// marketplace's identity service; this handler exists so the auction API is
// usable standalone with real role-checked tokens.
type AuthHandler struct {
	Store        store.Store
	JWTSecret    string
	AccessTTLMin int
	BcryptCost   int
	Now          func() time.Time // clock shared with the engine
}

// NewAuthHandler constructs an AuthHandler over the given store. Callers
// that care about timestamp consistency set Now to the engine clock.
func NewAuthHandler(st store.Store, secret string, ttlMin, bcryptCost int) *AuthHandler {
	if st == nil {
		panic("nil store passed to NewAuthHandler")
	}
	return &AuthHandler{
		Store:        st,
		JWTSecret:    secret,
		AccessTTLMin: ttlMin,
		BcryptCost:   bcryptCost,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// Token handles POST /v1/auth/token. It exchanges email and password for a
// signed access token carrying the user's id and role.
func (h *AuthHandler) Token(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil || body.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	u, err := h.Store.GetUserByEmail(c.Request().Context(), body.Email)
	if err != nil {
		// Indistinguishable from a bad password on purpose.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !utils.CheckPassword(u.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, u.ID, u.Role, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp.Format(time.RFC3339),
		"role":         u.Role,
	})
}

// Register handles POST /v1/auth/register. It bootstraps a user with one of
// the known roles; dealers and traders self-select at signup in this
// deployment.
func (h *AuthHandler) Register(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil || body.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	switch body.Role {
	case model.RoleDealer, model.RoleTrader:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be DEALER or TRADER"})
	}
	if _, err := h.Store.GetUserByEmail(c.Request().Context(), body.Email); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}
	hash, err := utils.HashPassword(body.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hash password"})
	}
	u := &model.User{
		Email:        body.Email,
		PasswordHash: hash,
		Role:         body.Role,
		CreatedAt:    h.Now(),
	}
	if err := h.Store.CreateUser(c.Request().Context(), u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": u.ID, "role": u.Role})
}
