package handler

import (
	"context"
	"database/sql"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/Haisyam/SiMETA/internal/config"
	"github.com/Haisyam/SiMETA/internal/mail"
	mw "github.com/Haisyam/SiMETA/internal/middleware"
	"github.com/Haisyam/SiMETA/internal/models"
)

// TaskStore is what the handlers need from the task repository.
type TaskStore interface {
	FetchTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	AddTask(ctx context.Context, t models.Task) error
	UpdateTask(ctx context.Context, t models.Task) error
	DeleteTask(ctx context.Context, id int, userID uuid.UUID) error
}

// UserStore is what the handlers need from the user repository.
type UserStore interface {
	Create(ctx context.Context, email, password string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	Confirm(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, newPassword string) error
	EnsureOAuthUser(ctx context.Context, email string) (models.User, error)
}

// TokenStore issues and redeems single-use confirmation/reset tokens.
type TokenStore interface {
	Issue(ctx context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error)
	Peek(ctx context.Context, token, purpose string) (uuid.UUID, error)
	Consume(ctx context.Context, token, purpose string) (uuid.UUID, error)
}

type Handler struct {
	tasks   TaskStore
	users   UserStore
	tokens  TokenStore
	mailer  mail.Mailer
	cfg     *config.Config
	flash   *sessions.CookieStore
	tmplDir string
	db      *sql.DB // optional, used by /healthz
}

func NewHandler(cfg *config.Config, tasks TaskStore, users UserStore, tokens TokenStore, mailer mail.Mailer, tmplDir string) *Handler {
	store := sessions.NewCookieStore([]byte(cfg.JWTSecret))
	store.Options.Path = "/"
	store.Options.HttpOnly = true

	return &Handler{
		tasks:   tasks,
		users:   users,
		tokens:  tokens,
		mailer:  mailer,
		cfg:     cfg,
		flash:   store,
		tmplDir: tmplDir,
	}
}

// SetDB wires the database for the health check.
func (h *Handler) SetDB(db *sql.DB) { h.db = db }

// Routes builds the full router. CSRF protection wraps the returned
// handler in main so tests can drive the routes directly.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Metrics)
	r.Use(mw.RequestLogger)

	//redirect any root to login or the app depending on session
	r.Get("/", h.home)

	//forms that flip to /app when a session is already present
	r.Group(func(r chi.Router) {
		r.Use(h.redirectAuthed)
		r.Get("/login", h.loginPage)
		r.Post("/login", h.login)
		r.Get("/register", h.registerPage)
		r.Post("/register", h.register)
	})

	//always rendered, session or not
	r.Get("/registered", h.registeredPage)
	r.Get("/confirm", h.confirmEmail)
	r.Get("/forgot-password", h.forgotPasswordPage)
	r.Post("/forgot-password", h.forgotPassword)
	r.Get("/reset-password", h.resetPasswordPage)
	r.Post("/reset-password", h.resetPassword)
	r.Post("/logout", h.logout)
	r.Post("/theme", h.toggleTheme)

	if h.cfg.GoogleEnabled() {
		r.Get("/auth/google", h.beginGoogleAuth)
		r.Get("/auth/google/callback", h.googleCallback)
	}

	//only a user with a valid session cookie can reach these
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/app", h.appPage)
		r.Post("/tasks", h.createTask)
		r.Post("/tasks/{id}", h.updateTask)
		r.Post("/tasks/{id}/delete", h.deleteTask)
	})

	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", mw.MetricsHandler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return r
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessionFromCookie(r); ok {
		http.Redirect(w, r, "/app", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("ok"))
}

// render parses base.html plus one page template and executes the
// "base" layout. Flash toasts, theme and the CSRF field are injected
// for every page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["CSRFField"] = csrf.TemplateField(r)
	data["Theme"] = themeFrom(r)
	data["GoogleEnabled"] = h.cfg.GoogleEnabled()
	if _, ok := data["Toast"]; !ok {
		data["Toast"] = h.popFlash(w, r)
	}

	tmpl, err := h.parse(page)
	if err != nil {
		slog.Error("template_parse_failed", "page", page, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		slog.Error("template_exec_failed", "page", page, "error", err)
	}
}

func (h *Handler) parse(page string) (*template.Template, error) {
	return template.ParseFiles(
		filepath.Join(h.tmplDir, "base.html"),
		filepath.Join(h.tmplDir, page),
	)
}

// renderError is the blocking error dialog: the backend message shown
// verbatim with a way back.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, title, message, backURL string) {
	w.WriteHeader(status)
	h.render(w, r, "error.html", map[string]any{
		"Title":   title,
		"Message": message,
		"BackURL": backURL,
	})
}

const flashSession = "simeta_flash"

func (h *Handler) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	sess, _ := h.flash.Get(r, flashSession)
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		slog.Error("flash_save_failed", "error", err)
	}
}

func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) string {
	sess, _ := h.flash.Get(r, flashSession)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := sess.Save(r, w); err != nil {
		slog.Error("flash_save_failed", "error", err)
	}
	msg, _ := flashes[0].(string)
	return msg
}

func themeFrom(r *http.Request) string {
	if c, err := r.Cookie("theme"); err == nil && c.Value == "light" {
		return "light"
	}
	return "dark"
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	next := "light"
	if themeFrom(r) == "light" {
		next = "dark"
	}
	http.SetCookie(w, &http.Cookie{
		Name:   "theme",
		Value:  next,
		Path:   "/",
		MaxAge: 86400 * 365,
	})

	target := r.Header.Get("Referer")
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// tzOffset reads the browser's minutes-west-of-UTC offset, set by a
// one-line script in the layout, mirroring getTimezoneOffset().
func tzOffset(r *http.Request) int {
	c, err := r.Cookie("tzoff")
	if err != nil {
		return 0
	}
	off, err := strconv.Atoi(c.Value)
	if err != nil {
		return 0
	}
	return off
}
