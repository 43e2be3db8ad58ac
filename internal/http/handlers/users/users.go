package users

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/dropzone-service/internal/config"
	"github.com/princekumarofficial/dropzone-service/internal/http/middleware"
	"github.com/princekumarofficial/dropzone-service/internal/storage"
	"github.com/princekumarofficial/dropzone-service/internal/types/users"
	"github.com/princekumarofficial/dropzone-service/internal/utils/jwt"
	"github.com/princekumarofficial/dropzone-service/internal/utils/password"
	"github.com/princekumarofficial/dropzone-service/internal/utils/response"
)

func decodeAndValidate(r *http.Request, dst interface{}) (int, interface{}) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return http.StatusBadRequest, response.GeneralError(err)
	}

	if err := validator.New().Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return http.StatusBadRequest, response.ValidationError(ve)
		}
		return http.StatusBadRequest, response.GeneralError(err)
	}
	return 0, nil
}

// SignUp handles user registration
// @Summary Register a new user
// @Description Register a new user account with the configured default role
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignUpRequest true "User registration details"
// @Success 201 {object} map[string]string "User created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 409 {object} response.Response "Email already registered"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /signup [post]
func SignUp(store storage.Storage, cfg config.Auth) http.HandlerFunc {
	role := users.Role(cfg.DefaultRole)
	if !role.Valid() {
		role = users.RoleSubscriber
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var signupReq users.SignUpRequest
		if status, body := decodeAndValidate(r, &signupReq); status != 0 {
			response.WriteJSON(w, status, body)
			return
		}

		hashedPassword, err := password.HashPassword(signupReq.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		userID, err := store.CreateUser(signupReq.Email, hashedPassword, role)
		if errors.Is(err, storage.ErrDuplicateEmail) {
			response.WriteJSON(w, http.StatusConflict, response.GeneralError(err))
			return
		}
		if err != nil {
			slog.Error("Failed to create user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create user")))
			return
		}
		slog.Info("User created", slog.String("user_id", userID), slog.String("role", string(role)))

		response.WriteJSON(w, http.StatusCreated, map[string]string{
			"id":   userID,
			"role": string(role),
		})
	}
}

// Login handles user authentication
// @Summary Authenticate a user
// @Description Authenticate a user, return a JWT and set it as the auth_token cookie
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignInRequest true "User login details"
// @Success 200 {object} map[string]string "User authenticated successfully with token"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Router /login [post]
func Login(store storage.Storage, jwtSecret string, cfg config.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signinReq users.SignInRequest
		if status, body := decodeAndValidate(r, &signinReq); status != 0 {
			response.WriteJSON(w, status, body)
			return
		}

		user, err := store.GetUserByEmail(signinReq.Email)
		if err != nil {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}

		if !password.CheckPasswordHash(signinReq.Password, user.Password) {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid email or password")))
			return
		}

		token, err := jwt.CreateToken(user.ID, string(user.Role), jwtSecret, cfg.TokenTTL)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(cfg.TokenTTL),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"user_id": user.ID,
			"role":    string(user.Role),
			"token":   token,
		})
	}
}
