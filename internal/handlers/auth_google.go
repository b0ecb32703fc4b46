package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
	"github.com/taskbid/taskbid-api/internal/services/sessions"
	"github.com/taskbid/taskbid-api/internal/utils"
)

// GoogleOAuthHandler signs freelancers in with a Google account. First-time
// logins get a FREELANCER user plus freelancer profile; the callback redirects
// to the frontend with a bearer token.
type GoogleOAuthHandler struct {
	DB              *gorm.DB
	Sessions        *sessions.Service
	JWTSecret       string
	ExpiresMin      int
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func (h *GoogleOAuthHandler) Routes(r fiber.Router) {
	r.Get("/google", h.GoogleStart)
	r.Get("/google/callback", h.GoogleCallback)
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	st := randomState(32)

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    st,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})

	authURL := h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline)
	return c.Redirect(authURL, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing code/state"})
	}

	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid state"})
	}

	tok, err := h.oauthCfg().Exchange(c.Context(), code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to exchange code"})
	}

	client := h.oauthCfg().Client(c.Context(), tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to fetch userinfo"})
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to decode userinfo"})
	}

	email := strings.ToLower(strings.TrimSpace(gu.Email))
	name := strings.TrimSpace(gu.Name)
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Email not found from Google"})
	}

	var user models.User
	err = h.DB.Preload("Freelancer").Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondErr(c, err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		// password column is not null; this one is never used for manual login
		hashed, hashErr := utils.HashPassword(randomState(24))
		if hashErr != nil {
			return respondErr(c, hashErr)
		}

		user = models.User{
			Names:    name,
			Email:    email,
			Password: hashed,
			Role:     models.RoleFreelancer,
		}
		freelancer := models.Freelancer{}

		txErr := h.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			freelancer.UserID = user.ID
			return tx.Create(&freelancer).Error
		})
		if txErr != nil {
			return respondErr(c, txErr)
		}
		user.Freelancer = &freelancer
	} else if name != "" && user.Names != name {
		user.Names = name
		_ = h.DB.Save(&user).Error
	}

	fid := ""
	if user.Freelancer != nil {
		fid = user.Freelancer.ID.String()
	}

	ttl := time.Duration(h.ExpiresMin) * time.Minute
	if err := h.Sessions.CreateOrRefresh(c.Context(), user.ID, ttl); err != nil {
		return respondErr(c, err)
	}

	jwtToken, err := utils.SignJWT(h.JWTSecret, user.ID.String(), string(user.Role), fid, h.ExpiresMin)
	if err != nil {
		return respondErr(c, err)
	}

	c.Cookie(&fiber.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1, HTTPOnly: true, SameSite: "Lax"})

	redirectURL := h.FrontendBaseURL + "/auth/callback?token=" + url.QueryEscape(jwtToken)
	return c.Redirect(redirectURL, http.StatusTemporaryRedirect)
}
