package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yummyfi/yummyfi-backend/middlewares"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/utils"
)

type UserController struct {
	Auth *services.AuthService
}

func NewUserController(auth *services.AuthService) *UserController {
	return &UserController{Auth: auth}
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	sess, err := uc.Auth.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login success", sess)
}

func (uc *UserController) Logout(c *gin.Context) {
	if err := uc.Auth.SignOut(middlewares.CurrentToken(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logout success", nil)
}

// GetProfile -> identity behind the current token
func (uc *UserController) GetProfile(c *gin.Context) {
	id, _ := middlewares.CurrentIdentity(c)
	utils.RespondJSON(c, http.StatusOK, "Profile", id)
}
