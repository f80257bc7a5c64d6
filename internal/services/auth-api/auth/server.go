package auth

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	authx "github.com/NordCoder/Gatekeeper/internal/auth"
	"github.com/NordCoder/Gatekeeper/internal/obs"
)

type Server struct {
	uc       *Usecase
	validate *validator.Validate
	log      *zap.Logger
}

func NewServer(uc *Usecase, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{uc: uc, validate: v, log: log.With(zap.String("component", "auth.http"))}
}

// Mount registers the auth routes under /api/auth.
func (s *Server) Mount(r gin.IRouter) {
	g := r.Group("/api/auth")
	g.POST("/register", s.register)
	g.POST("/login", s.login)
	g.POST("/logout", s.logout)
	g.GET("/users/:id", s.getUser)
	g.POST("/refresh", s.refresh)
	g.PATCH("/verify/:token", s.verify)
	g.POST("/forgot_password", s.forgotPassword)
	g.PATCH("/password_reset", s.passwordReset)
	g.PATCH("/password_update", s.passwordUpdate)
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !s.bind(c, &req) {
		return
	}
	acc, _, err := s.uc.Register(c.Request.Context(), RegisterInput{
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bind(c, &req) {
		return
	}
	pair, err := s.uc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

func (s *Server) logout(c *gin.Context) {
	var req tokenRequest
	if !s.bind(c, &req) {
		return
	}
	if err := s.uc.Logout(c.Request.Context(), req.Token); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Message: "Successfully logged out"})
}

func (s *Server) getUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Kind:   "validation_error",
			Detail: "invalid request",
			Fields: map[string]string{"id": "uuid"},
		})
		return
	}
	acc, err := s.uc.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (s *Server) refresh(c *gin.Context) {
	var req tokenRequest
	if !s.bind(c, &req) {
		return
	}
	access, err := s.uc.Refresh(c.Request.Context(), req.Token)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenPairResponse{AccessToken: access, RefreshToken: req.Token})
}

func (s *Server) verify(c *gin.Context) {
	if err := s.uc.Verify(c.Request.Context(), c.Param("token")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Message: "Successfully verified"})
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !s.bind(c, &req) {
		return
	}
	if _, err := s.uc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Message: "Email with reset token successfully sent"})
}

func (s *Server) passwordReset(c *gin.Context) {
	tok, ok := s.queryToken(c)
	if !ok {
		return
	}
	var req passwordResetRequest
	if !s.bind(c, &req) {
		return
	}
	err := s.uc.ResetPassword(c.Request.Context(), tok, PasswordResetInput{
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Message: "Password successfully reset"})
}

func (s *Server) passwordUpdate(c *gin.Context) {
	tok, ok := s.queryToken(c)
	if !ok {
		return
	}
	var req passwordUpdateRequest
	if !s.bind(c, &req) {
		return
	}
	err := s.uc.PasswordUpdate(c.Request.Context(), tok, PasswordUpdateInput{
		OldPassword:     req.OldPassword,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Message: "Password successfully updated"})
}

func (s *Server) queryToken(c *gin.Context) (string, bool) {
	tok := c.Query("token")
	if tok == "" {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Kind:   "validation_error",
			Detail: "invalid request",
			Fields: map[string]string{"token": "required"},
		})
		return "", false
	}
	return tok, true
}

// bind decodes the JSON body into req and validates it. A failed
// password confirmation is reported as passwords_did_not_match.
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Kind: "bad_request", Detail: "malformed JSON body"})
		return false
	}
	err := s.validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.fail(c, err)
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "eqfield" {
			s.fail(c, authx.ErrPasswordsDidNotMatch)
			return false
		}
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, errorResponse{Kind: "validation_error", Detail: "invalid request", Fields: fields})
	return false
}

func (s *Server) fail(c *gin.Context, err error) {
	var de *authx.Error
	if errors.As(err, &de) {
		c.JSON(statusFor(de.Kind), errorResponse{Kind: string(de.Kind), Detail: de.Message})
		return
	}
	obs.WithTrace(c.Request.Context(), s.log).Error("request failed",
		zap.String("route", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Kind: "internal", Detail: "internal server error"})
}

func statusFor(k authx.Kind) int {
	switch k {
	case authx.KindAuthFailed, authx.KindIncorrectEmailOrPassword:
		return http.StatusUnauthorized
	case authx.KindEmailNotVerified:
		return http.StatusForbidden
	case authx.KindUserNotFound:
		return http.StatusNotFound
	case authx.KindEmailAlreadyRegistered, authx.KindUsernameAlreadyTaken:
		return http.StatusConflict
	case authx.KindOldPasswordIncorrect:
		return http.StatusBadRequest
	case authx.KindPasswordsDidNotMatch:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
