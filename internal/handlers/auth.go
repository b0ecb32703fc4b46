package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
	"github.com/taskbid/taskbid-api/internal/services/sessions"
	"github.com/taskbid/taskbid-api/internal/utils"
)

type AuthHandler struct {
	DB         *gorm.DB
	Sessions   *sessions.Service
	Secret     string
	ExpiresMin int
}

func NewAuthHandler(db *gorm.DB, sess *sessions.Service, secret string, expiresMin int) *AuthHandler {
	return &AuthHandler{DB: db, Sessions: sess, Secret: secret, ExpiresMin: expiresMin}
}

func (h *AuthHandler) Routes(r fiber.Router, requireJWT fiber.Handler, attachLocals fiber.Handler) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", requireJWT, attachLocals, h.Logout)
}

func (h *AuthHandler) tokenTTL() time.Duration {
	return time.Duration(h.ExpiresMin) * time.Minute
}

type registerRequest struct {
	Names     string `json:"names" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Telephone string `json:"telephone" validate:"omitempty,min=8"`
}

// Register creates a FREELANCER account with its freelancer profile and
// returns a ready-to-use token. Admin accounts are seeded, not registered.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	req.Names = strings.TrimSpace(req.Names)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := checkStruct(req); errs != nil {
		return validationFail(c, errs)
	}

	var existing models.User
	err := h.DB.Select("id").Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "User already exists"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondErr(c, err)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return respondErr(c, err)
	}

	user := models.User{
		Names:    req.Names,
		Email:    req.Email,
		Password: hashed,
		Role:     models.RoleFreelancer,
	}
	freelancer := models.Freelancer{Telephone: req.Telephone}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		freelancer.UserID = user.ID
		return tx.Create(&freelancer).Error
	})
	if err != nil {
		return respondErr(c, err)
	}
	user.Freelancer = &freelancer

	if err := h.Sessions.CreateOrRefresh(c.Context(), user.ID, h.tokenTTL()); err != nil {
		return respondErr(c, err)
	}

	token, err := utils.SignJWT(h.Secret, user.ID.String(), string(user.Role), freelancer.ID.String(), h.ExpiresMin)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"data": fiber.Map{
			"user":         userView(&user),
			"access_token": token,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := checkStruct(req); errs != nil {
		return validationFail(c, errs)
	}

	var user models.User
	err := h.DB.Preload("Freelancer").Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
		}
		return respondErr(c, err)
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	fid := ""
	if user.Freelancer != nil {
		fid = user.Freelancer.ID.String()
	}

	if err := h.Sessions.CreateOrRefresh(c.Context(), user.ID, h.tokenTTL()); err != nil {
		return respondErr(c, err)
	}

	token, err := utils.SignJWT(h.Secret, user.ID.String(), string(user.Role), fid, h.ExpiresMin)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{"access_token": token})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := localUserID(c)
	if err != nil {
		return respondErr(c, err)
	}

	if err := h.Sessions.Invalidate(c.Context(), userID, h.tokenTTL()); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
