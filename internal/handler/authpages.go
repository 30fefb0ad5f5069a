package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Haisyam/SiMETA/internal/repository"
)

const (
	minPasswordLen = 6
	confirmTTL     = 24 * time.Hour
	resetTTL       = time.Hour
)

// validatePassword applies the local rules checked before any remote
// call: minimum length and matching confirmation.
func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password minimal %d karakter", minPasswordLen)
	}
	if password != confirm {
		return errors.New("konfirmasi password tidak sama")
	}
	return nil
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", map[string]any{"Email": ""})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	u, err := h.users.Authenticate(r.Context(), email, password)
	if err != nil {
		h.render(w, r, "login.html", map[string]any{
			"Error": err.Error(),
			"Email": email,
		})
		return
	}

	if err := h.setSession(w, u); err != nil {
		slog.Error("jwt_generation_failed", "error", err)
		h.render(w, r, "login.html", map[string]any{
			"Error": "gagal membuat sesi, coba lagi",
			"Email": email,
		})
		return
	}

	h.addFlash(w, r, "Selamat datang kembali!")
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", map[string]any{"Email": ""})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	fail := func(msg string) {
		h.render(w, r, "register.html", map[string]any{
			"Error": msg,
			"Email": email,
		})
	}

	//local validation happens before any database write
	if !h.cfg.DomainAllowed(email) {
		fail("Email tidak diizinkan. Gunakan email @gmail.com")
		return
	}
	if err := validatePassword(password, confirm); err != nil {
		fail(err.Error())
		return
	}

	u, err := h.users.Create(r.Context(), email, password)
	if err != nil {
		fail(err.Error())
		return
	}

	token, err := h.tokens.Issue(r.Context(), u.ID, repository.PurposeConfirm, confirmTTL)
	if err != nil {
		fail(err.Error())
		return
	}

	link := h.cfg.BaseURL + "/confirm?token=" + token
	err = h.mailer.Send(u.Email, "Konfirmasi akun SiMETA",
		"Halo! Klik link berikut untuk mengaktifkan akun kamu:\n\n"+link)
	if err != nil {
		slog.Error("confirmation_mail_failed", "email", u.Email, "error", err)
		fail("gagal mengirim email konfirmasi, coba lagi")
		return
	}

	http.Redirect(w, r, "/registered", http.StatusSeeOther)
}

func (h *Handler) registeredPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "registered.html", nil)
}

func (h *Handler) confirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := h.tokens.Consume(r.Context(), token, repository.PurposeConfirm)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Link tidak valid",
			"Link konfirmasi sudah dipakai atau kedaluwarsa.", "/login")
		return
	}

	if err := h.users.Confirm(r.Context(), userID); err != nil {
		h.renderError(w, r, http.StatusInternalServerError, "Konfirmasi gagal", err.Error(), "/login")
		return
	}

	h.addFlash(w, r, "Akun aktif! Silakan login.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) forgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "forgot_password.html", map[string]any{"Email": ""})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	if !h.cfg.DomainAllowed(email) {
		h.render(w, r, "forgot_password.html", map[string]any{
			"Error": "Email tidak diizinkan. Gunakan email @gmail.com",
			"Email": email,
		})
		return
	}

	// Unknown accounts get the same toast; the response never reveals
	// whether the email is registered.
	if u, err := h.users.GetByEmail(r.Context(), email); err == nil {
		token, err := h.tokens.Issue(r.Context(), u.ID, repository.PurposeReset, resetTTL)
		if err != nil {
			h.renderError(w, r, http.StatusInternalServerError, "Gagal mengirim link", err.Error(), "/forgot-password")
			return
		}
		link := h.cfg.BaseURL + "/reset-password?token=" + token
		err = h.mailer.Send(u.Email, "Reset password SiMETA",
			"Klik link berikut untuk mengganti password kamu (berlaku 1 jam):\n\n"+link)
		if err != nil {
			slog.Error("reset_mail_failed", "email", u.Email, "error", err)
			h.renderError(w, r, http.StatusInternalServerError, "Gagal mengirim link", err.Error(), "/forgot-password")
			return
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.renderError(w, r, http.StatusInternalServerError, "Gagal mengirim link", err.Error(), "/forgot-password")
		return
	}

	h.addFlash(w, r, "Link reset dikirim ke email kamu")
	http.Redirect(w, r, "/forgot-password", http.StatusSeeOther)
}

func (h *Handler) resetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if token == "" {
		h.render(w, r, "reset_password.html", map[string]any{"Invalid": true})
		return
	}
	if _, err := h.tokens.Peek(r.Context(), token, repository.PurposeReset); err != nil {
		h.render(w, r, "reset_password.html", map[string]any{"Invalid": true})
		return
	}

	h.render(w, r, "reset_password.html", map[string]any{"Token": token})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	if err := validatePassword(password, confirm); err != nil {
		h.render(w, r, "reset_password.html", map[string]any{
			"Error": err.Error(),
			"Token": token,
		})
		return
	}

	userID, err := h.tokens.Consume(r.Context(), token, repository.PurposeReset)
	if err != nil {
		h.render(w, r, "reset_password.html", map[string]any{"Invalid": true})
		return
	}

	if err := h.users.UpdatePassword(r.Context(), userID, password); err != nil {
		h.renderError(w, r, http.StatusInternalServerError, "Reset gagal", err.Error(), "/login")
		return
	}

	// force a fresh login with the new password
	h.clearSession(w)
	h.addFlash(w, r, "Password diperbarui, silakan login ulang.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
