package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel matching
	"net/http" // HTTP status codes and primitives
	"strconv"  // session keys are decimal user IDs
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/swasthya/internal/config"     // app configuration
	"github.com/iliyamo/swasthya/internal/logging"    // structured logging
	"github.com/iliyamo/swasthya/internal/middleware" // bearer token helpers
	"github.com/iliyamo/swasthya/internal/model"      // user rows
	"github.com/iliyamo/swasthya/internal/repository" // DB repositories
	"github.com/iliyamo/swasthya/internal/service"    // OTP delivery
	"github.com/iliyamo/swasthya/internal/session"    // citizen profile store
	"github.com/iliyamo/swasthya/internal/utils"      // helper functions (hashing, token issuing)
)

const (
	notAvailable    = "Not Available"
	defaultLanguage = "English / हिंदी"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Sessions session.Store
	OTP      service.OTPService
	Log      logging.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, s session.Store, otp service.OTPService, log logging.Logger) *AuthHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Sessions: s, OTP: otp, Log: log}
}

// ----- DTOs -----

type otpReq struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}
// OTP and password are checked by the handler, in that order, so they
// carry no validate tags.
type signupReq struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}
type loginReq struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type forgotOTPReq struct {
	Phone string `json:"phone" validate:"required"`
}
type resetReq struct {
	Phone    string `json:"phone" validate:"required"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}
type profileResp struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}

func sessionKey(uid uint64) string { return strconv.FormatUint(uid, 10) }

// SignupOTP: validate name/phone and send the signup code.
func (h *AuthHandler) SignupOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name, req.Phone = strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please enter name and mobile number"})
	}
	if err := h.OTP.Send(c.Request().Context(), repository.NormalizePhone(req.Phone), service.PurposeSignup); err != nil {
		h.Log.WithError(err).Error("auth: send signup otp")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not send OTP"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"step": "otp"})
}

// Signup: check OTP, then password strength, then create the user and
// return tokens immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name, req.Phone, req.OTP = strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone), strings.TrimSpace(req.OTP)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please enter name and mobile number"})
	}
	if err := h.OTP.Verify(repository.NormalizePhone(req.Phone), req.OTP); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid OTP"})
	}
	if !utils.IsStrongPassword(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be 8+ characters with uppercase, number & special character"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Phone, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPhoneExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "mobile number already registered"})
		case repository.IsConflict(err):
			return c.JSON(http.StatusConflict, echo.Map{"error": "name already exists"})
		}
		h.Log.WithError(err).Error("auth: create user")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u := model.User{ID: uid, Name: req.Name, Phone: repository.NormalizePhone(req.Phone), IsActive: true}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please enter name and password"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByName(ctx, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}

	resp, err := h.issue(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// ForgotOTP: send a reset code to the registered number.
func (h *AuthHandler) ForgotOTP(c echo.Context) error {
	var req forgotOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Enter registered mobile number"})
	}
	if err := h.OTP.Send(c.Request().Context(), repository.NormalizePhone(req.Phone), service.PurposeReset); err != nil {
		h.Log.WithError(err).Error("auth: send reset otp")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not send OTP"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"step": "otp"})
}

// ResetPassword: check OTP, then strength, then replace the password and
// sign the user out everywhere.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Phone, req.OTP = strings.TrimSpace(req.Phone), strings.TrimSpace(req.OTP)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Enter registered mobile number"})
	}
	phone := repository.NormalizePhone(req.Phone)
	if err := h.OTP.Verify(phone, req.OTP); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid OTP"})
	}
	if !utils.IsStrongPassword(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password does not meet security rules"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "mobile number not registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, req.Password, h.Cfg.BcryptCost); err != nil {
		h.Log.WithError(err).WithField("user_id", u.ID).Error("auth: update password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		h.Log.WithError(err).WithField("user_id", u.ID).Warn("auth: revoke after reset")
	}
	_ = h.Sessions.Clear(ctx, sessionKey(u.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successful"})
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	// revoke before issuing: a concurrent refresh with the same token loses here
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrInvalidRefresh) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		h.Log.WithError(err).WithField("user_id", userID).Error("auth: revoke on refresh")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	resp, err := h.issue(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes a specific refresh token when one is sent in the body,
// otherwise every refresh token of the bearer.  The session profile is
// cleared in both cases.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if raw, ok := middleware.BearerToken(c); ok {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw); err == nil {
			uid = claims.UserID
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		owner, err := h.Tokens.ValidateRefresh(ctx, hash)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrInvalidRefresh) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		_ = h.Sessions.Clear(ctx, sessionKey(owner))
		return c.NoContent(http.StatusNoContent)
	}

	if uid != 0 {
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		_ = h.Sessions.Clear(ctx, sessionKey(uid))
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Profile: GET /v1/profile (protected).  Served from the session store; a
// miss is filled from the users table and written back.
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, ok := middleware.UID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Sessions.Get(ctx, sessionKey(uid))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			h.Log.WithError(err).Warn("auth: session read failed, using database")
		}
		u, err := h.Users.GetByID(ctx, uid)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
		}
		p = session.Profile{UserID: u.ID, Name: u.Name, Phone: u.Phone, Language: defaultLanguage}
		if err := h.Sessions.Set(ctx, sessionKey(uid), p); err != nil {
			h.Log.WithError(err).Warn("auth: session write failed")
		}
	}

	return c.JSON(http.StatusOK, profileResp{
		Name:     orNotAvailable(p.Name),
		Phone:    orNotAvailable(p.Phone),
		Language: orDefault(p.Language, defaultLanguage),
	})
}

// issue creates an access/refresh pair, stores the refresh hash and
// refreshes the session profile.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Name, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, errors.New("issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, errors.New("issue refresh failed")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		h.Log.WithError(err).Error("auth: store refresh token")
		return authResp{}, errors.New("save refresh failed")
	}
	p := session.Profile{UserID: u.ID, Name: u.Name, Phone: u.Phone, Language: defaultLanguage}
	if err := h.Sessions.Set(ctx, sessionKey(u.ID), p); err != nil {
		h.Log.WithError(err).Warn("auth: session write failed")
	}
	return authResp{
		User:    userPart{ID: u.ID, Name: u.Name, Phone: u.Phone},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

func orNotAvailable(s string) string { return orDefault(s, notAvailable) }

func orDefault(s, d string) string {
	if strings.TrimSpace(s) == "" {
		return d
	}
	return s
}
