package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"

	"github.com/Haisyam/SiMETA/internal/models"
)

const sessionCookie = "session_token"

// we are doing this to avoid collision with libraries
type contextKey string

const userKey contextKey = "sessionUser"

// sessionUser is the identity carried through the request context once
// the session cookie has been verified.
type sessionUser struct {
	ID    uuid.UUID
	Email string
}

func userFrom(r *http.Request) (sessionUser, bool) {
	u, ok := r.Context().Value(userKey).(sessionUser)
	return u, ok
}

// requireAuth guards the /app routes: no valid session means a
// redirect to /login, never an error page.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := h.sessionFromCookie(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectAuthed inverts the guard for /login and /register: a user
// with a live session lands on /app instead of the form.
func (h *Handler) redirectAuthed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.sessionFromCookie(r); ok {
			http.Redirect(w, r, "/app", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionFromCookie verifies the session token cookie. Any failure is
// treated as "no session".
func (h *Handler) sessionFromCookie(r *http.Request) (sessionUser, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return sessionUser{}, false
	}

	claims, err := h.verifyToken(cookie.Value)
	if err != nil {
		return sessionUser{}, false
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return sessionUser{}, false
	}

	return sessionUser{ID: id, Email: claims.Email}, true
}

func (h *Handler) setSession(w http.ResponseWriter, u models.User) error {
	token, err := h.generateJWT(u)
	if err != nil {
		return err
	}

	//token is ready - set cookie
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true, //not visible to JS [IMP for security]
		//Secure: true,//enable it for HTTPS in production
	})
	return nil
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true, //js cant touch it
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	// clear session cookies
	h.clearSession(w)

	//clear gothic session
	if err := gothic.Logout(w, r); err != nil {
		slog.Debug("gothic_logout_skipped", "error", err)
	}
	h.addFlash(w, r, "Kamu sudah logout.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) beginGoogleAuth(w http.ResponseWriter, r *http.Request) {
	//gothic look for provider query by default
	//forcing to use google
	q := r.URL.Query()
	q.Add("provider", "google")
	r.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(w, r)
}

func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, "Login Google gagal", err.Error(), "/login")
		return
	}

	u, err := h.users.EnsureOAuthUser(r.Context(), gothUser.Email)
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, "Login Google gagal", err.Error(), "/login")
		return
	}

	//auth success - issue jwt and set cookie
	if err := h.setSession(w, u); err != nil {
		slog.Error("jwt_generation_failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Login Google gagal", "gagal membuat sesi", "/login")
		return
	}

	h.addFlash(w, r, "Selamat datang kembali!")
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// HELPER FUNCTION
func (h *Handler) generateJWT(u models.User) (string, error) {
	expireTime := time.Now().Add(24 * time.Hour)

	claims := &models.Claims{
		UserID: u.ID.String(),
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expireTime),
		},
	}

	//create the token using hs256 algo
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	//sign with the secret key and return
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// HELPER FUNCTION
func (h *Handler) verifyToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.cfg.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, err
	}

	return claims, nil
}
