package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onform/training-backend/internal/auth"
	"github.com/onform/training-backend/internal/config"
	"github.com/onform/training-backend/internal/middleware"
	"github.com/onform/training-backend/internal/model"
	"github.com/onform/training-backend/internal/queue"
	"github.com/onform/training-backend/internal/repository"
	"github.com/onform/training-backend/internal/service"
)

// AuthHandler bundles dependencies for the credential lifecycle
// endpoints: registration, login, token refresh and revocation,
// password recovery, email verification and OTP.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Tokens   *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, accounts *repository.AccountRepo, tokens *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Tokens: tokens}
}

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Nombre      string `json:"nombre"`
	Apellidos   string `json:"apellidos"`
	Role        string `json:"role"`
	TOSAccepted bool   `json:"tos_accepted"`
	TOSVersion  string `json:"tos_version"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type passwordChangeReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
type emailReq struct {
	Email string `json:"email"`
}
type resetConfirmReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
type verifyConfirmReq struct {
	Token string `json:"token"`
}
type otpVerifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type meUpdateReq struct {
	Email     *string `json:"email"`
	Nombre    *string `json:"nombre"`
	Apellidos *string `json:"apellidos"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID         uint64    `json:"id"`
	Email      string    `json:"email"`
	Nombre     string    `json:"nombre"`
	Apellidos  string    `json:"apellidos"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func userOut(acc model.Account, role auth.Role) userPart {
	nombre, apellidos := splitName(acc.FullName)
	return userPart{
		ID:         acc.ID,
		Email:      acc.EmailOrEmpty(),
		Nombre:     nombre,
		Apellidos:  apellidos,
		Role:       string(role),
		IsActive:   acc.IsActive,
		IsVerified: acc.IsVerified,
		CreatedAt:  acc.CreatedAt,
	}
}

// issuePair creates an access token plus a stored refresh token for the
// account, capturing client metadata from the request.
func (h *AuthHandler) issuePair(ctx context.Context, c echo.Context, acc model.Account, role auth.Role) (authResp, error) {
	accessTok, err := auth.NewAccessToken(h.Cfg.JWTSecret, acc.ID, acc.EmailOrEmpty(), role, acc.TokenVersion, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refreshTok, err := auth.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.Store(ctx, acc.ID, auth.HashRefreshRaw(refreshTok.Raw),
		c.Request().UserAgent(), c.RealIP(), refreshTok.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userOut(acc, role),
		Access:  tokenPart{Token: accessTok.Token, Expires: accessTok.Exp},
		Refresh: tokenPart{Token: refreshTok.Raw, Expires: refreshTok.Exp}, // raw back to client
	}, nil
}

// publishMail hands an email job to the broker without blocking the
// request. Failures are logged inside the publisher and never surfaced:
// the user-facing operation already succeeded.
func publishMail(ev queue.MailRequestedEvent) {
	go func() { _ = service.PublishMailRequested(context.Background(), ev) }()
}

// Register creates the account with its role and profile links, sends a
// verification email and returns a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	role := auth.RoleTrainer
	if req.Role != "" {
		parsed, ok := auth.ParseRole(req.Role)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role, allowed: admin, trainer, athlete"})
		}
		role = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accountID, err := h.Accounts.Create(ctx, repository.CreateParams{
		Email:       req.Email,
		Password:    req.Password,
		Nombre:      req.Nombre,
		Apellidos:   req.Apellidos,
		Role:        role,
		BcryptCost:  h.Cfg.BcryptCost,
		TOSAccepted: req.TOSAccepted,
		TOSVersion:  req.TOSVersion,
	})
	if err != nil {
		return fail(c, err)
	}
	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return fail(c, err)
	}

	resp, err := h.issuePair(ctx, c, acc, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	h.sendVerificationMail(acc)

	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials under the lockout policy and returns a new
// token pair. The lockout check runs before the password check, so a
// locked account is rejected with 429 regardless of the password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.Authenticate(ctx, req.Email, req.Password, h.lockoutPolicy())
	if err != nil {
		return fail(c, err)
	}
	if !acc.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is deactivated"})
	}
	role, err := h.Accounts.PrimaryRole(ctx, acc.ID)
	if err != nil {
		return fail(c, err)
	}

	resp, err := h.issuePair(ctx, c, acc, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates the presented refresh token: exactly one of two
// concurrent calls with the same token succeeds, the other gets 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	oldHash := auth.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	newTok, err := auth.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	accountID, err := h.Tokens.Rotate(ctx, oldHash, auth.HashRefreshRaw(newTok.Raw),
		c.Request().UserAgent(), c.RealIP(), newTok.Exp)
	if err != nil {
		return fail(c, err)
	}

	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil || !acc.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account not allowed"})
	}
	role, err := h.Accounts.PrimaryRole(ctx, acc.ID)
	if err != nil {
		return fail(c, err)
	}
	accessTok, err := auth.NewAccessToken(h.Cfg.JWTSecret, acc.ID, acc.EmailOrEmpty(), role, acc.TokenVersion, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userOut(acc, role),
		Access:  tokenPart{Token: accessTok.Token, Expires: accessTok.Exp},
		Refresh: tokenPart{Token: newTok.Raw, Expires: newTok.Exp},
	})
}

// RefreshAccess validates a refresh token and returns a new access
// token WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := auth.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accountID, err := h.Tokens.FindValid(ctx, hash)
	if err != nil {
		return fail(c, err)
	}
	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil || !acc.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account not allowed"})
	}
	role, err := h.Accounts.PrimaryRole(ctx, acc.ID)
	if err != nil {
		return fail(c, err)
	}
	accessTok, err := auth.NewAccessToken(h.Cfg.JWTSecret, acc.ID, acc.EmailOrEmpty(), role, acc.TokenVersion, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: accessTok.Token, Expires: accessTok.Exp},
	})
}

// Logout revokes refresh tokens. With a refresh_token in the body, that
// single session ends; with a valid bearer token and no body token,
// every session of the caller is revoked.
func (h *AuthHandler) Logout(c echo.Context) error {
	var accountID uint64
	hasBearer := false
	if header := c.Request().Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if claims, err := auth.VerifyAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(header, "Bearer ")); err == nil {
			accountID = claims.AccountID
			hasBearer = true
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := auth.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.FindValid(ctx, hash); err != nil {
			return fail(c, err)
		}
		if err := h.Tokens.Revoke(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	if hasBearer {
		if err := h.Tokens.RevokeAllForAccount(ctx, accountID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByID(ctx, ident.AccountID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, userOut(acc, ident.Role))
}

// UpdateMe changes email and/or name. Email collisions with another
// account surface as 409.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req meUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByID(ctx, ident.AccountID)
	if err != nil {
		return fail(c, err)
	}

	var fullName *string
	if req.Nombre != nil || req.Apellidos != nil {
		nombre, apellidos := splitName(acc.FullName)
		if req.Nombre != nil {
			nombre = *req.Nombre
		}
		if req.Apellidos != nil {
			apellidos = *req.Apellidos
		}
		merged := strings.TrimSpace(nombre + " " + apellidos)
		fullName = &merged
	}
	if err := h.Accounts.UpdateProfile(ctx, ident.AccountID, req.Email, fullName); err != nil {
		return fail(c, err)
	}
	acc, err = h.Accounts.GetByID(ctx, ident.AccountID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, userOut(acc, ident.Role))
}

// DeleteMe soft-deletes the caller's account: deactivate, free the
// email for re-registration, detach profiles, revoke everything.
func (h *AuthHandler) DeleteMe(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.SoftDelete(ctx, ident.AccountID); err != nil {
		return fail(c, err)
	}
	if err := h.Accounts.BumpTokenVersion(ctx, ident.AccountID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account deactivated"})
}

// ChangePassword verifies the current password, sets the new one, bumps
// token_version and revokes all refresh tokens so every other session
// ends immediately.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req passwordChangeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByID(ctx, ident.AccountID)
	if err != nil {
		return fail(c, err)
	}
	if !auth.VerifyPassword(acc.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password is incorrect"})
	}
	if err := h.Accounts.SetPassword(ctx, acc.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return fail(c, err)
	}
	if err := h.Accounts.BumpTokenVersion(ctx, acc.ID); err != nil {
		return fail(c, err)
	}
	if err := h.Tokens.RevokeAllForAccount(ctx, acc.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed successfully"})
}

// ForgotPassword issues a scoped reset token. The response shape never
// reveals whether the email exists; in development the token is echoed
// for testing.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	generic := echo.Map{"message": "if the email exists, a reset link has been sent"}

	acc, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, generic)
		}
		return fail(c, err)
	}

	token, err := auth.NewScopedToken(h.Cfg.JWTSecret, acc.ID, acc.EmailOrEmpty(),
		auth.ScopePasswordReset, time.Duration(h.Cfg.ResetTTLMin)*time.Minute)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	link := strings.TrimRight(h.Cfg.FrontendResetURL, "/") + "?token=" + token
	publishMail(queue.MailRequestedEvent{
		Kind:     queue.MailKindPasswordReset,
		To:       acc.EmailOrEmpty(),
		Subject:  "Password reset instructions",
		BodyText: "You requested to reset your password.\n\nUse the following link, or paste the token in the app:\n" + link + "\n\nIf you didn't request this, please ignore this email.",
	})

	if h.Cfg.IsDevelopment() {
		return c.JSON(http.StatusOK, echo.Map{"message": "password reset token generated", "reset_token": token})
	}
	return c.JSON(http.StatusOK, generic)
}

// ResetPassword consumes a scope=password_reset token. A token minted
// for any other purpose is rejected even when its signature is valid.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetConfirmReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	claims, err := auth.VerifyScopedToken(h.Cfg.JWTSecret, req.Token, auth.ScopePasswordReset)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByID(ctx, claims.AccountID)
	if err != nil || acc.Email == nil || *acc.Email != claims.Subject {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token or user"})
	}
	if err := h.Accounts.SetPassword(ctx, acc.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return fail(c, err)
	}
	if err := h.Accounts.BumpTokenVersion(ctx, acc.ID); err != nil {
		return fail(c, err)
	}
	if err := h.Tokens.RevokeAllForAccount(ctx, acc.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password has been reset successfully"})
}

// VerifyEmail consumes a scope=email_verification token.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyConfirmReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	claims, err := auth.VerifyScopedToken(h.Cfg.JWTSecret, req.Token, auth.ScopeEmailVerification)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByID(ctx, claims.AccountID)
	if err != nil || acc.Email == nil || *acc.Email != claims.Subject {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token or user"})
	}
	if err := h.Accounts.MarkVerified(ctx, acc.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// ResendVerification re-sends the verification link. Success-shaped
// regardless of whether the email exists or is already verified.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err == nil && !acc.IsVerified {
		h.sendVerificationMail(acc)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "if the email exists, a verification link has been sent"})
}

// RequestOTP issues a 6-digit single-use verification code. The stored
// value is a hash; the plaintext only travels in the email.
func (h *AuthHandler) RequestOTP(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	generic := echo.Map{"message": "if the email exists, a code has been sent"}

	acc, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, generic)
		}
		return fail(c, err)
	}

	code, err := auth.NewOTPCode(6)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}
	expires := time.Now().UTC().Add(time.Duration(h.Cfg.OTPTTLMin) * time.Minute)
	if err := h.Accounts.SetOTP(ctx, acc.ID, auth.HashOTP(code), expires); err != nil {
		return fail(c, err)
	}

	publishMail(queue.MailRequestedEvent{
		Kind:     queue.MailKindOTP,
		To:       acc.EmailOrEmpty(),
		Subject:  "Your verification code",
		BodyText: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, h.Cfg.OTPTTLMin),
	})
	return c.JSON(http.StatusOK, generic)
}

// VerifyOTP consumes a pending code: wrong, expired or already-used
// codes are indistinguishable 401s.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req otpVerifyReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired code"})
		}
		return fail(c, err)
	}
	if err := h.Accounts.ConsumeOTP(ctx, acc.ID, auth.HashOTP(req.Code)); err != nil {
		if errors.Is(err, repository.ErrInvalidCredential) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired code"})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

func (h *AuthHandler) lockoutPolicy() repository.LockoutPolicy {
	return repository.LockoutPolicy{
		MaxAttempts: h.Cfg.LockoutMaxAttempts,
		Duration:    time.Duration(h.Cfg.LockoutMinutes) * time.Minute,
	}
}

func (h *AuthHandler) sendVerificationMail(acc model.Account) {
	token, err := auth.NewScopedToken(h.Cfg.JWTSecret, acc.ID, acc.EmailOrEmpty(),
		auth.ScopeEmailVerification, time.Duration(h.Cfg.VerifyTTLHours)*time.Hour)
	if err != nil {
		return
	}
	link := strings.TrimRight(h.Cfg.FrontendVerifyURL, "/") + "?token=" + token
	publishMail(queue.MailRequestedEvent{
		Kind:     queue.MailKindVerification,
		To:       acc.EmailOrEmpty(),
		Subject:  "Verify your email address",
		BodyText: "Welcome! Please confirm your email address:\n" + link + "\n\nThe link expires in " + fmt.Sprintf("%d", h.Cfg.VerifyTTLHours) + " hours.",
	})
}
