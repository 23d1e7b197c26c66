package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/config"
	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
)

type AuthHandler struct {
	UserRepo repository.UserRepositoryInterface
	Cfg      config.Config
}

func NewAuthHandler(userRepo repository.UserRepositoryInterface, cfg config.Config) *AuthHandler {
	return &AuthHandler{UserRepo: userRepo, Cfg: cfg}
}

type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	user, err := h.UserRepo.GetByUsername(payload.Username)
	if err != nil {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}

	if !user.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}

	expirationTime := time.Now().Add(time.Duration(h.Cfg.JWTExpirationHours) * time.Hour)
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(user.ID),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "attendsysbackend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.Cfg.JWTSecret))
	if err != nil {
		log.Printf("auth: failed to sign token for user %d: %v", user.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "token_error", "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expirationTime,
	})
}

type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    *string `json:"email,omitempty"`
}

// Register creates a new account. Only admins may create teacher or admin
// accounts; the route is guarded accordingly in main.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload: "+err.Error())
		return
	}

	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" || strings.TrimSpace(payload.Name) == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "Username, password, and name are required")
		return
	}

	if payload.Role == "" {
		payload.Role = models.RoleStudent
	}
	if !models.ValidRole(payload.Role) {
		WriteAPIError(w, http.StatusBadRequest, "invalid_role", "Role must be admin, teacher, or student")
		return
	}

	if _, err := h.UserRepo.GetByUsername(payload.Username); err == nil {
		WriteAPIError(w, http.StatusConflict, "username_taken", "Username is already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("auth: failed to check username %s: %v", payload.Username, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to create account")
		return
	}

	user := models.User{
		Username: payload.Username,
		Name:     strings.TrimSpace(payload.Name),
		Role:     payload.Role,
		Email:    payload.Email,
	}
	if err := user.SetPassword(payload.Password); err != nil {
		log.Printf("auth: failed to hash password for %s: %v", payload.Username, err)
		WriteAPIError(w, http.StatusInternalServerError, "hash_error", "Failed to create account")
		return
	}

	if err := h.UserRepo.Create(&user); err != nil {
		log.Printf("auth: failed to create user %s: %v", payload.Username, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Me returns the authenticated user from the request context.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
