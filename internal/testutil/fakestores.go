// Package testutil provides in-memory fakes for the handler store
// interfaces so HTTP flows can be tested without a database.
package testutil

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Haisyam/SiMETA/internal/models"
	"github.com/Haisyam/SiMETA/internal/repository"
)

// FakeTaskStore keeps tasks in a slice and counts write calls so tests
// can assert that no write happened.
type FakeTaskStore struct {
	Tasks  []models.Task
	nextID int

	FetchErr error

	AddCalls    int
	UpdateCalls int
	DeleteCalls int
}

func NewFakeTaskStore() *FakeTaskStore {
	return &FakeTaskStore{nextID: 1}
}

// Seed inserts a task directly, assigning the next id.
func (s *FakeTaskStore) Seed(t models.Task) models.Task {
	t.ID = s.nextID
	s.nextID++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.Tasks = append(s.Tasks, t)
	return t
}

func (s *FakeTaskStore) FetchTasks(_ context.Context, userID uuid.UUID) ([]models.Task, error) {
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	var out []models.Task
	for _, t := range s.Tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *FakeTaskStore) AddTask(_ context.Context, t models.Task) error {
	s.AddCalls++
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = time.Now()
	s.Tasks = append(s.Tasks, t)
	return nil
}

func (s *FakeTaskStore) UpdateTask(_ context.Context, upd models.Task) error {
	s.UpdateCalls++
	for i, t := range s.Tasks {
		if t.ID == upd.ID && t.UserID == upd.UserID {
			upd.CreatedAt = t.CreatedAt
			s.Tasks[i] = upd
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *FakeTaskStore) DeleteTask(_ context.Context, id int, userID uuid.UUID) error {
	s.DeleteCalls++
	for i, t := range s.Tasks {
		if t.ID == id && t.UserID == userID {
			s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// FakeUserStore mirrors UserRepo semantics, including its sentinel
// errors, with plaintext passwords.
type FakeUserStore struct {
	Users     map[string]models.User
	Passwords map[string]string

	CreateCalls int
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{
		Users:     map[string]models.User{},
		Passwords: map[string]string{},
	}
}

// SeedUser adds a confirmed account and returns it.
func (s *FakeUserStore) SeedUser(email, password string) models.User {
	u := models.User{ID: uuid.New(), Email: normalize(email), Confirmed: true}
	s.Users[u.Email] = u
	s.Passwords[u.Email] = password
	return u
}

func (s *FakeUserStore) Create(_ context.Context, email, password string) (models.User, error) {
	s.CreateCalls++
	email = normalize(email)
	if _, ok := s.Users[email]; ok {
		return models.User{}, repository.ErrEmailTaken
	}
	u := models.User{ID: uuid.New(), Email: email}
	s.Users[email] = u
	s.Passwords[email] = password
	return u, nil
}

func (s *FakeUserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := s.Users[normalize(email)]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *FakeUserStore) Authenticate(_ context.Context, email, password string) (models.User, error) {
	email = normalize(email)
	u, ok := s.Users[email]
	if !ok || s.Passwords[email] != password {
		return models.User{}, repository.ErrInvalidCredentials
	}
	if !u.Confirmed {
		return models.User{}, repository.ErrNotConfirmed
	}
	return u, nil
}

func (s *FakeUserStore) Confirm(_ context.Context, id uuid.UUID) error {
	for email, u := range s.Users {
		if u.ID == id {
			u.Confirmed = true
			s.Users[email] = u
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *FakeUserStore) UpdatePassword(_ context.Context, id uuid.UUID, newPassword string) error {
	for email, u := range s.Users {
		if u.ID == id {
			s.Passwords[email] = newPassword
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *FakeUserStore) EnsureOAuthUser(ctx context.Context, email string) (models.User, error) {
	if u, err := s.GetByEmail(ctx, email); err == nil {
		return u, nil
	}
	u, err := s.Create(ctx, email, uuid.NewString())
	if err != nil {
		return models.User{}, err
	}
	return u, s.Confirm(ctx, u.ID)
}

// FakeTokenStore keeps issued tokens in memory.
type FakeTokenStore struct {
	Tokens map[string]FakeToken
}

type FakeToken struct {
	UserID    uuid.UUID
	Purpose   string
	ExpiresAt time.Time
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{Tokens: map[string]FakeToken{}}
}

func (s *FakeTokenStore) Issue(_ context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	s.Tokens[token] = FakeToken{UserID: userID, Purpose: purpose, ExpiresAt: time.Now().Add(ttl)}
	return token, nil
}

func (s *FakeTokenStore) Peek(_ context.Context, token, purpose string) (uuid.UUID, error) {
	tk, ok := s.Tokens[token]
	if !ok || tk.Purpose != purpose || time.Now().After(tk.ExpiresAt) {
		return uuid.Nil, sql.ErrNoRows
	}
	return tk.UserID, nil
}

func (s *FakeTokenStore) Consume(ctx context.Context, token, purpose string) (uuid.UUID, error) {
	userID, err := s.Peek(ctx, token, purpose)
	if err != nil {
		return uuid.Nil, err
	}
	delete(s.Tokens, token)
	return userID, nil
}

// FakeMailer records every message instead of sending it.
type FakeMailer struct {
	Sent []SentMail
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *FakeMailer) Send(to, subject, body string) error {
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
