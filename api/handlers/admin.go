package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/idltd/CCTV-Log/api"
	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/models"
)

var errInvalidCredentials = errors.New("invalid credentials")

// Reviewer is the slice of the registry client the admin handler needs
type Reviewer interface {
	ListPending(ctx context.Context) ([]models.Camera, error)
	ReviewPending(ctx context.Context, id string, approve bool) error
}

// Admin handles the registry curation endpoints. These are for the
// registry maintainer, not normal users, and sit behind a separate JWT
// login.
type Admin struct {
	Client Reviewer
}

// AdminLoginHandler exchanges the admin credentials for a short-lived JWT
func (a Admin) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminEmail == "" || adminHash == "" || body.Email != adminEmail {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errInvalidCredentials)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(adminHash), []byte(body.Password)); err != nil {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errInvalidCredentials)
		return
	}

	claims := jwt.MapClaims{
		"sub": body.Email,
		"adm": true,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(12 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("ADMIN_JWT_SECRET")))
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("admin logged in", "email", body.Email)
	b, _ := json.Marshal(map[string]string{"token": signed})
	w.Write(b)
}

// AdminOnly gates a handler behind the admin JWT
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		header := r.Header.Get("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == "" || raw == header {
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errInvalidCredentials)
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(os.Getenv("ADMIN_JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errInvalidCredentials)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["adm"] != true {
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errInvalidCredentials)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// PendingCamerasHandler lists the registry's pending contribution queue
func (a Admin) PendingCamerasHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cameras, err := a.Client.ListPending(ctx)
	if err != nil {
		config.ErrorStatus("failed to list pending cameras", http.StatusBadGateway, w, err)
		return
	}
	if cameras == nil {
		cameras = []models.Camera{}
	}

	b, err := json.Marshal(cameras)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReviewPendingCameraHandler approves or rejects a pending camera
func (a Admin) ReviewPendingCameraHandler(w http.ResponseWriter, r *http.Request) {
	pendingID := mux.Vars(r)["pending_id"]

	var body struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Client.ReviewPending(ctx, pendingID, body.Approve); err != nil {
		config.ErrorStatus("failed to review pending camera", http.StatusBadGateway, w, err)
		return
	}

	zap.S().Infow("pending camera reviewed", "pendingID", pendingID, "approved", body.Approve)
	w.WriteHeader(http.StatusNoContent)
}
