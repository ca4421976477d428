package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/movie-booking/internal/config"
    "github.com/iliyamo/movie-booking/internal/middleware"
    "github.com/iliyamo/movie-booking/internal/model"
    "github.com/iliyamo/movie-booking/internal/utils"
)

// UserStore is the users storage used by the account endpoints.
type UserStore interface {
    Create(ctx context.Context, email, name, password string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
    UpdateProfile(ctx context.Context, id uint64, name, email string) error
}

// TokenStore persists refresh tokens by hash.
type TokenStore interface {
    StoreRefresh(ctx context.Context, t model.RefreshToken) error
    ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name" validate:"required,max=255"`
    Email    string `json:"email" validate:"required,email,max=254"`
    Password string `json:"password" validate:"required,min=8,max=72"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type profileReq struct {
    Name  string `json:"name" validate:"required,max=255"`
    Email string `json:"email" validate:"required,email,max=254"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID       uint64 `json:"id"`
    Email    string `json:"email"`
    Name     string `json:"name"`
    IsActive bool   `json:"is_active"`
    IsStaff  bool   `json:"is_staff"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, Email: u.Email, Name: u.Name, IsActive: u.IsActive, IsStaff: u.IsStaff}
}

// issue creates and stores a fresh access/refresh pair for u.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.IsStaff, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, model.RefreshToken{
        UserID:    u.ID,
        TokenHash: utils.HashRefreshRaw(refresh.Raw),
        ExpiresAt: refresh.Exp,
    }); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Register creates an account and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.TrimSpace(req.Email)
    if err := c.Validate(&req); err != nil {
        return respondError(c, err)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Email, req.Name, req.Password, h.Cfg.BcryptCost)
    if errors.Is(err, utils.ErrPasswordTooLong) {
        return respondError(c, model.NewValidationError("password", "must be at most 72 bytes"))
    }
    if err != nil {
        return respondError(c, err)
    }
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return respondError(c, err)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return respondError(c, err)
    }
    log.Info().Uint64("user_id", uid).Msg("user registered")
    return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.  Inactive
// accounts are refused.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    if err := c.Validate(&req); err != nil {
        return respondError(c, err)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return respondError(c, err)
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if !u.IsActive {
        return respondError(c, model.ErrInactiveAccount)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := dbContext(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash, time.Now().UTC())
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return respondError(c, err)
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return respondError(c, err)
    }
    if !u.IsActive {
        return respondError(c, model.ErrInactiveAccount)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// Logout revokes one session when a refresh_token is posted, or every
// session of the caller when only a valid Bearer access token is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
    var uid uint64
    if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
        if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
            uid = claims.UserID
        }
    }
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := dbContext(c)
    defer cancel()

    switch {
    case refreshToken != "":
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash, time.Now().UTC()); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return respondError(c, err)
        }
    case uid != 0:
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return respondError(c, err)
        }
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    p := middleware.PrincipalFrom(c)
    if p == nil {
        return respondError(c, model.ErrNotAuthenticated)
    }
    return c.JSON(http.StatusOK, userPart{ID: p.UserID, Email: p.Email, Name: p.Name, IsActive: p.IsActive, IsStaff: p.IsStaff})
}

// UpdateMe edits the caller's name and email.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
    p := middleware.PrincipalFrom(c)
    if p == nil {
        return respondError(c, model.ErrNotAuthenticated)
    }
    var req profileReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.TrimSpace(req.Email)
    if err := c.Validate(&req); err != nil {
        return respondError(c, err)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    if err := h.Users.UpdateProfile(ctx, p.UserID, req.Name, req.Email); err != nil {
        return respondError(c, err)
    }
    u, err := h.Users.GetByID(ctx, p.UserID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}
