package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/Haisyam/SiMETA/internal/config"
	"github.com/Haisyam/SiMETA/internal/handler"
	"github.com/Haisyam/SiMETA/internal/mail"
	"github.com/Haisyam/SiMETA/internal/repository"
)

func setupSlog() {
	//Json handler that writes to standard out
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug, //log debug and above
		AddSource: true,            //adds file name and line number
	})

	//Intialise new logger and set it as default for the server
	logger := slog.New(h)
	slog.SetDefault(logger)
}

func initDB(dburl string) *sql.DB {
	db, err := sql.Open("pgx", dburl)
	if err != nil {
		slog.Error("database_initialization_failed", "error", err)
		os.Exit(1)
	}

	//check if connection is alive
	if err := db.Ping(); err != nil {
		slog.Error("database_connection_ping_failed", "error", err)
		os.Exit(1)
	}

	slog.Info("database_initialization_success")

	return db
}

/*
gothic will create temp cookie using key it will store it for sometime
and when user complete login it will compare it to make sure login
process was completed from this app only \
Protection from cross site request forgery
*/
func setupGothic(cfg *config.Config) {
	if !cfg.GoogleEnabled() {
		slog.Info("google_oauth_disabled")
		return
	}

	goth.UseProviders(
		google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, "email", "profile"),
	)

	maxAge := 86400 * 30 //30 days
	isProd := false      //set to true for https

	store := sessions.NewCookieStore([]byte(cfg.JWTSecret))
	store.MaxAge(maxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = isProd

	gothic.Store = store
}

func newMailer(cfg *config.Config) mail.Mailer {
	if cfg.SMTPAddr == "" {
		slog.Info("mailer_log_only")
		return mail.LogMailer{}
	}
	return &mail.SMTPMailer{
		Addr: cfg.SMTPAddr,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}
}

func main() {

	//structured logging
	setupSlog()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	db := initDB(cfg.DBURL)
	defer db.Close()

	users, err := repository.NewUserRepo(db)
	if err != nil {
		slog.Error("repository_creation_failed", "repo", "users", "error", err)
		os.Exit(1)
	}
	tasks, err := repository.NewTaskRepo(db)
	if err != nil {
		slog.Error("repository_creation_failed", "repo", "tasks", "error", err)
		os.Exit(1)
	}
	tokens, err := repository.NewTokenRepo(db)
	if err != nil {
		slog.Error("repository_creation_failed", "repo", "tokens", "error", err)
		os.Exit(1)
	}

	//authentication
	setupGothic(cfg)

	h := handler.NewHandler(cfg, tasks, users, tokens, newMailer(cfg), "templates")
	h.SetDB(db)

	//routing plus CSRF protection over every form
	protect := csrf.Protect(
		[]byte(cfg.CSRFKey),
		csrf.Secure(false), //set to true for https
		csrf.Path("/"),
	)
	srv := protect(h.Routes())

	slog.Info("server_starting", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv); err != nil {
		slog.Error("server_start_failed", "error", err)
		os.Exit(1)
	}
}
