package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type AuthController struct {
	auth         *services.AuthService
	cookieSecure bool
}

func NewAuthController(auth *services.AuthService, cookieSecure bool) *AuthController {
	return &AuthController{auth: auth, cookieSecure: cookieSecure}
}

// Signup handles POST /signup.
func (c *AuthController) Signup(cx *ctx.Context) {
	var in services.SignupInput
	if err := cx.Bind(&in); err != nil {
		cx.Fail(err, "Internal Server Error")
		return
	}

	token, err := c.auth.Signup(cx.Context(), in)
	if err != nil {
		cx.Fail(err, "Internal Server Error")
		return
	}

	cx.Log().Info("user signed up", "email", in.Email)
	cx.SetToken(token, c.auth.TokenTTL(), c.cookieSecure)
	cx.Created(tokenResponse{Message: "User created successfully", Token: "Bearer " + token})
}

// Signin handles POST /signin.
func (c *AuthController) Signin(cx *ctx.Context) {
	var in services.SigninInput
	if err := cx.Bind(&in); err != nil {
		cx.Fail(err, "Internal Server Error")
		return
	}

	token, err := c.auth.Signin(cx.Context(), in)
	if err != nil {
		cx.Fail(err, "Internal Server Error")
		return
	}

	cx.SetToken(token, c.auth.TokenTTL(), c.cookieSecure)
	cx.OK(tokenResponse{Message: "Signin successful", Token: "Bearer " + token})
}

// Profile handles GET /profile. It reads the cookie only and answers null
// when there is none.
func (c *AuthController) Profile(cx *ctx.Context) {
	claims, err := c.auth.Profile(cx.Cookie(ctx.TokenCookie))
	if err != nil {
		cx.Fail(err, "Internal Server Error")
		return
	}
	if claims == nil {
		cx.OK(nil)
		return
	}
	cx.OK(claims)
}

// Signout handles POST /signout.
func (c *AuthController) Signout(cx *ctx.Context) {
	cx.ClearToken(c.cookieSecure)
	cx.Message(http.StatusOK, "Signed out")
}
