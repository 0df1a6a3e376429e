package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	httperrors "github.com/dropDatabas3/pressgate/internal/http/errors"
	mw "github.com/dropDatabas3/pressgate/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/pressgate/internal/jwt"
	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	"github.com/dropDatabas3/pressgate/internal/security/password"
	tokens "github.com/dropDatabas3/pressgate/internal/security/token"
	"github.com/dropDatabas3/pressgate/internal/store/core"
)

// AuthDeps contiene las dependencias del controller de autenticación.
type AuthDeps struct {
	Repo        core.Repository
	Issuer      *jwtx.Issuer
	Revoked     *tokens.RevocationList
	Policy      password.Policy
	HashParams  password.Params
	DefaultRole string
	AutoLogin   bool
}

// AuthController maneja register, login y logout.
type AuthController struct {
	deps AuthDeps
}

func NewAuthController(deps AuthDeps) *AuthController {
	return &AuthController{deps: deps}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type registerResponse struct {
	User  userResponse   `json:"user"`
	Token *tokenResponse `json:"token,omitempty"`
}

// Register maneja POST /v1/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Register"))

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("username y password son obligatorios"))
		return
	}

	// Paso 1: política de contraseñas.
	if ok, reasons := c.deps.Policy.Validate(req.Password); !ok {
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(strings.Join(reasons, ", ")))
		return
	}

	// Paso 2: hash + rol por defecto.
	hash, err := password.Hash(c.deps.HashParams, req.Password)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	role, err := c.deps.Repo.GetRoleBySlug(ctx, c.deps.DefaultRole)
	if err != nil {
		log.Error("default role missing", logger.Role(c.deps.DefaultRole), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	// Paso 3: crear usuario.
	user, err := c.deps.Repo.CreateUser(ctx, req.Username, hash, role.ID)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			httperrors.WriteError(w, httperrors.ErrUsernameTaken)
			return
		}
		log.Error("create user failed", logger.Err(err))
		httperrors.WriteError(w, mapStoreError(err))
		return
	}
	log.Info("user registered", logger.UserID(user.ID), logger.Username(user.Username))

	resp := registerResponse{User: userResponse{ID: user.ID, Username: user.Username, Role: role.Slug}}

	// Paso 4: auto-login opcional.
	if c.deps.AutoLogin {
		tok, err := c.issueFor(user, role)
		if err != nil {
			log.Error("auto-login issue failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
			return
		}
		resp.Token = tok
	}

	writeJSON(w, http.StatusCreated, resp)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login maneja POST /v1/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Login"))

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("username y password son obligatorios"))
		return
	}

	user, err := c.deps.Repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		// Mismo error para usuario inexistente y contraseña errónea.
		log.Debug("login failed: unknown user", logger.Username(req.Username))
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		return
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		log.Debug("login failed: bad password", logger.UserID(user.ID))
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		return
	}

	role, err := c.deps.Repo.GetRoleByID(ctx, user.RoleID)
	if err != nil {
		log.Error("role lookup failed", logger.UserID(user.ID), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	tok, err := c.issueFor(user, role)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	log.Info("login ok", logger.UserID(user.ID), logger.Role(role.Slug))

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tok)
}

// Logout maneja POST /v1/auth/logout (requiere auth).
// Revoca el jti del token presentado hasta su expiración natural.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Logout"))

	claims := mw.GetClaims(ctx)
	jti := mw.ClaimString(claims, "jti")
	if jti == "" {
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)
		return
	}

	exp := time.Now().Add(c.deps.Issuer.AccessTTL)
	if v, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(v), 0)
	}

	if err := c.deps.Revoked.Revoke(ctx, jti, exp); err != nil {
		log.Error("revoke failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
		return
	}
	log.Info("token revoked", logger.String("jti", jti))

	w.WriteHeader(http.StatusNoContent)
}

// issueFor firma un access token con claims informativas de usuario y rol.
// La autorización NUNCA se decide sobre estas claims: cada request re-resuelve
// el rol y los permisos contra el store.
func (c *AuthController) issueFor(user *core.User, role *core.Role) (*tokenResponse, error) {
	token, _, exp, err := c.deps.Issuer.IssueAccess(user.ID, map[string]any{
		"username": user.Username,
		"role":     role.Slug,
	})
	if err != nil {
		return nil, err
	}
	return &tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(exp).Seconds()),
	}, nil
}
