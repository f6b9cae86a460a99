package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catlog/internal/domain"
	"catlog/internal/service"
)

// UserHandler holds dependencies for account and profile endpoints.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	jwtServ  *service.JWTService
}

// NewUserHandler creates a UserHandler with its dependencies.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
		jwtServ:  jwtServ,
	}
}

// professionalRequest carries the credential fields a request may attach
// when the account claims professional status.
type professionalRequest struct {
	ReferenceNumber  string `json:"reference_number"`
	RCVSEmail        string `json:"rcvs_email"`
	RegistrationDate string `json:"registration_date"`
	Location         string `json:"location"`
	FieldOfWork      string `json:"field_of_work"`
}

func (r professionalRequest) toInput() (service.ProfessionalInput, error) {
	regDate, err := parseDate(r.RegistrationDate)
	if err != nil {
		return service.ProfessionalInput{}, err
	}
	return service.ProfessionalInput{
		ReferenceNumber:  r.ReferenceNumber,
		RCVSEmail:        r.RCVSEmail,
		RegistrationDate: regDate,
		Location:         r.Location,
		FieldOfWork:      r.FieldOfWork,
	}, nil
}

// parseDate parses an optional YYYY-MM-DD value.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Register handles POST /register.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Username        string               `json:"username" binding:"required"`
		Email           string               `json:"email" binding:"required,email"`
		Password        string               `json:"password" binding:"required"`
		Password2       string               `json:"password2" binding:"required"`
		VetProfessional bool                 `json:"vet_professional"`
		Professional    *professionalRequest `json:"professional"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	input := service.RegisterInput{
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.Password2,
	}
	if req.VetProfessional && req.Professional != nil {
		prof, err := req.Professional.toInput()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "registration_date must be YYYY-MM-DD"})
			return
		}
		input.Professional = &prof
	}

	user, err := h.userServ.Register(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken),
			errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrPasswordMismatch),
			errors.Is(err, service.ErrWeakPassword),
			errors.Is(err, service.ErrReferenceFormat),
			errors.Is(err, service.ErrReferenceNotFound),
			errors.Is(err, service.ErrEmailDomain),
			errors.Is(err, service.ErrFutureDate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login handles POST /auth/token.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": tokens})
}

// RefreshToken handles POST /auth/token/refresh.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	tokens, err := h.jwtServ.RefreshPair(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout handles POST /auth/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	_ = h.jwtServ.RevokeRefresh(req.RefreshToken)
	c.Status(http.StatusNoContent)
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userServ.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetProfile handles GET /users/:id.
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userServ.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetMyProfile handles GET /profile for the authenticated user.
func (h *UserHandler) GetMyProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	profile, err := h.userServ.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// EditProfile handles PUT /edit-profile.
func (h *UserHandler) EditProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Username        *string              `json:"username"`
		Email           *string              `json:"email"`
		FirstName       *string              `json:"first_name"`
		LastName        *string              `json:"last_name"`
		Bio             *string              `json:"bio"`
		ProfileImage    *string              `json:"profile_image"`
		DateOfBirth     *string              `json:"date_of_birth"`
		VetProfessional *bool                `json:"vet_professional"`
		Professional    *professionalRequest `json:"professional"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid edit profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	input := service.UpdateProfileInput{
		Username:        req.Username,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Bio:             req.Bio,
		ProfileImage:    req.ProfileImage,
		VetProfessional: req.VetProfessional,
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_of_birth must be YYYY-MM-DD"})
			return
		}
		input.DateOfBirth = dob
	}
	if req.Professional != nil {
		prof, err := req.Professional.toInput()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "registration_date must be YYYY-MM-DD"})
			return
		}
		input.Professional = &prof
	}

	user, codeSent, err := h.userServ.UpdateProfile(c.Request.Context(), claims.UserID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		case errors.Is(err, service.ErrUsernameTaken),
			errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrReferenceFormat),
			errors.Is(err, service.ErrReferenceNotFound),
			errors.Is(err, service.ErrEmailDomain),
			errors.Is(err, service.ErrFutureDate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrIssueCooldown):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		default:
			h.logger.Error("edit profile failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not edit profile"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "verification_code_sent": codeSent})
}

// ToggleFollow handles POST /follow/:id.
func (h *UserHandler) ToggleFollow(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	status, err := h.userServ.ToggleFollow(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		default:
			h.logger.Error("toggle follow failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle follow"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *UserHandler) issueTokens(user domain.User) (service.TokenPair, error) {
	if h.jwtServ == nil {
		return service.TokenPair{}, errors.New("jwt not configured")
	}
	return h.jwtServ.GeneratePair(user)
}
