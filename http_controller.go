package accounts

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AccountsControllerRoutes holds the mount points for the JSON surface.
type AccountsControllerRoutes struct {
	Register           string
	Login              string
	TokenRefresh       string
	VerifyEmail        string
	ResendVerification string
	ForgotPassword     string
	ResetPassword      string
	ValidateResetToken string
	ChangePassword     string
	AdminUsers         string
}

// AccountsController binds payloads, dispatches to the handlers, and maps
// rich errors onto HTTP statuses. Routing and middleware remain the host
// application's concern.
type AccountsController struct {
	Debug          bool
	Logger         Logger
	Repo           RepositoryManager
	Routes         *AccountsControllerRoutes
	Auther         *Auther
	Register       *RegisterHandler
	Verify         *VerifyEmailHandler
	Resend         *ResendVerificationHandler
	ResetInit      *InitializePasswordResetHandler
	ResetValidate  *ValidateResetTokenHandler
	ResetFinalize  *FinalizePasswordResetHandler
	PasswordChange *ChangePasswordHandler
	Admin          *AdminHandler
	ErrorHandler   func(router.Context, error) error
}

type AccountsControllerOption func(*AccountsController) *AccountsController

// NewAccountsController builds a controller; Repo and Auther are mandatory.
func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrorHandler,
		Routes: &AccountsControllerRoutes{
			Register:           "/register",
			Login:              "/login",
			TokenRefresh:       "/token/refresh",
			VerifyEmail:        "/verify-email",
			ResendVerification: "/resend-verification",
			ForgotPassword:     "/forgot-password",
			ResetPassword:      "/reset-password",
			ValidateResetToken: "/validate-reset-token",
			ChangePassword:     "/change-password",
			AdminUsers:         "/admin/users",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in accounts controller...")
	}

	if c.Register == nil {
		c.Register = NewRegisterHandler(c.Repo)
	}
	if c.Verify == nil {
		c.Verify = NewVerifyEmailHandler(c.Repo)
	}
	if c.Resend == nil {
		c.Resend = NewResendVerificationHandler(c.Repo)
	}
	if c.ResetInit == nil {
		c.ResetInit = NewInitializePasswordResetHandler(c.Repo)
	}
	if c.ResetValidate == nil {
		c.ResetValidate = NewValidateResetTokenHandler(c.Repo)
	}
	if c.ResetFinalize == nil {
		c.ResetFinalize = NewFinalizePasswordResetHandler(c.Repo)
	}
	if c.PasswordChange == nil {
		c.PasswordChange = NewChangePasswordHandler(c.Repo)
	}
	if c.Admin == nil {
		c.Admin = NewAdminHandler(c.Repo)
	}

	return c
}

// WithRepositoryManager sets the repository manager.
func WithRepositoryManager(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

// WithAuther sets the session issuer.
func WithAuther(auther *Auther) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Auther = auther
		return c
	}
}

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// RegisterAccountRoutes mounts the JSON operation surface on the router.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountsControllerOption) {
	controller := NewAccountsController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.TokenRefresh, controller.TokenRefreshPost)
	app.Post(controller.Routes.VerifyEmail, controller.VerifyEmailPost)
	app.Post(controller.Routes.ResendVerification, controller.ResendVerificationPost)
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost)
	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost)
	app.Post(controller.Routes.ValidateResetToken, controller.ValidateResetTokenPost)
	app.Post(controller.Routes.ChangePassword, controller.ChangePasswordPost)

	app.Get(controller.Routes.AdminUsers, controller.AdminListGet)
	app.Get(fmt.Sprintf("%s/:id", controller.Routes.AdminUsers), controller.AdminDetailGet)
	app.Put(fmt.Sprintf("%s/:id", controller.Routes.AdminUsers), controller.AdminDetailPut)
	app.Delete(fmt.Sprintf("%s/:id", controller.Routes.AdminUsers), controller.AdminDetailDelete)
}

// RegisterRequest payload
type RegisterRequest struct {
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.ConfirmPassword, validation.Required),
	)
}

func (a *AccountsController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	resp, err := a.Register.Execute(ctx.Context(), RegisterMessage{
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"message": "verification code sent",
		"account": resp.Account.Summary(),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountsController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	result, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// TokenRefreshRequest payload
type TokenRefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

func (a *AccountsController) TokenRefreshPost(ctx router.Context) error {
	payload := new(TokenRefreshRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	result, err := a.Auther.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// VerifyEmailRequest payload
type VerifyEmailRequest struct {
	Email string `form:"email" json:"email"`
	Code  string `form:"code" json:"code"`
}

// Validate will run validation rules
func (r VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required),
	)
}

func (a *AccountsController) VerifyEmailPost(ctx router.Context) error {
	payload := new(VerifyEmailRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	resp, err := a.Verify.Execute(ctx.Context(), VerifyEmailMessage{
		Email: payload.Email,
		Code:  payload.Code,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "email verified",
		"account": resp.Account.Summary(),
	})
}

func (a *AccountsController) ResendVerificationPost(ctx router.Context) error {
	payload := new(struct {
		Email string `form:"email" json:"email"`
	})
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if _, err := a.Resend.Execute(ctx.Context(), ResendVerificationMessage{Email: payload.Email}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "verification code sent",
	})
}

func (a *AccountsController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(struct {
		Email string `form:"email" json:"email"`
	})
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if _, err := a.ResetInit.Execute(ctx.Context(), InitializePasswordResetMessage{Email: payload.Email}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	// same body whether or not the account exists
	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "if the email exists, a reset link has been sent",
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountsController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if _, err := a.ResetFinalize.Execute(ctx.Context(), FinalizePasswordResetMessage{
		Token:           payload.Token,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "password has been reset",
	})
}

func (a *AccountsController) ValidateResetTokenPost(ctx router.Context) error {
	payload := new(struct {
		Token string `form:"token" json:"token"`
	})
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	resp, err := a.ResetValidate.Execute(ctx.Context(), ValidateResetTokenMessage{Token: payload.Token})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"valid": resp.Valid,
		"email": resp.Email,
	})
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (a *AccountsController) ChangePasswordPost(ctx router.Context) error {
	actor, err := a.actorFromRequest(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(ChangePasswordRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.PasswordChange.Execute(ctx.Context(), ChangePasswordMessage{
		Actor:           actor,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
		ConfirmPassword: payload.ConfirmPassword,
	}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "password updated",
	})
}

func (a *AccountsController) AdminListGet(ctx router.Context) error {
	actor, err := a.actorFromRequest(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	summaries, err := a.Admin.List(ctx.Context(), actor)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, summaries)
}

func (a *AccountsController) AdminDetailGet(ctx router.Context) error {
	actor, err := a.actorFromRequest(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	summary, err := a.Admin.Get(ctx.Context(), actor, ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, summary)
}

func (a *AccountsController) AdminDetailPut(ctx router.Context) error {
	actor, err := a.actorFromRequest(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(AdminUpdateMessage)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}
	payload.ID = ctx.Param("id")

	summary, err := a.Admin.Update(ctx.Context(), actor, *payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, summary)
}

func (a *AccountsController) AdminDetailDelete(ctx router.Context) error {
	actor, err := a.actorFromRequest(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Admin.Delete(ctx.Context(), actor, ctx.Param("id")); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "account deleted",
	})
}

// bind fills the payload and then validates it, so the rules always see the
// bound values.
func (a *AccountsController) bind(ctx router.Context, payload any) error {
	if err := ctx.Bind(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse request payload")
	}

	if a.Debug {
		a.Logger.Debug("payload: %s", print.MaybePrettyJSON(payload))
	}

	if v, ok := payload.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid request payload")
		}
	}

	return nil
}

// actorFromRequest resolves the bearer token into an Account that gets
// threaded explicitly through the handlers.
func (a *AccountsController) actorFromRequest(ctx router.Context) (*Account, error) {
	header := ctx.Header("Authorization")
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if raw == "" {
		return nil, ErrSessionMalformed
	}

	return a.Auther.AccountFromToken(ctx.Context(), raw)
}

func defaultErrorHandler(ctx router.Context, err error) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ctx.JSON(statusForCategory(rich.Category), map[string]any{
			"error": rich.Message,
			"code":  rich.TextCode,
		})
	}

	return ctx.JSON(router.StatusInternalServerError, map[string]any{
		"error": "internal server error",
	})
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryConflict:
		return router.StatusConflict
	case goerrors.CategoryRateLimit:
		return router.StatusTooManyRequests
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	default:
		return router.StatusInternalServerError
	}
}
