package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/Haisyam/SiMETA/internal/models"
	"github.com/Haisyam/SiMETA/internal/taskview"
)

var statusLabels = map[string]string{
	models.StatusTodo:       "Todo",
	models.StatusInProgress: "In Progress",
	models.StatusDone:       "Done",
}

// taskCard is one rendered card: the task plus everything the template
// needs precomputed (countdown badge, localized due strings).
type taskCard struct {
	models.Task
	DueDisplay  string
	DueInput    string
	Label       string
	ShowOverdue bool
	ShowUrgent  bool
	StatusLabel string
}

func (h *Handler) appPage(w http.ResponseWriter, r *http.Request) {
	u, ok := userFrom(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	var fetchErr string
	tasks, err := h.tasks.FetchTasks(r.Context(), u.ID)
	if err != nil {
		slog.Error("task_fetch_failed", "user", u.ID, "error", err)
		fetchErr = err.Error()
		tasks = nil
	}

	q := r.URL.Query()
	filters := taskview.ParseFilters(q.Get("status"), q.Get("sort"), q.Get("search"))
	visible := taskview.Apply(tasks, filters)
	stats := taskview.Count(tasks)

	returnTo := "/app"
	if r.URL.RawQuery != "" {
		returnTo += "?" + r.URL.RawQuery
	}
	data := map[string]any{
		"UserEmail": u.Email,
		"Filters":   filters,
		"Stats":     stats,
		"Cards":     buildCards(visible, tzOffset(r), time.Now()),
		"HasTasks":  len(tasks) > 0,
		"Error":     fetchErr,
		"ReturnURL": returnTo,
	}

	//check if we have htmx request - only swap the task list
	if r.Header.Get("HX-Request") == "true" {
		data["CSRFField"] = csrf.TemplateField(r)
		tmpl, err := h.parse("tasks.html")
		if err != nil {
			slog.Error("template_parse_failed", "page", "tasks.html", "error", err)
			http.Error(w, "template error", http.StatusInternalServerError)
			return
		}
		if err := tmpl.ExecuteTemplate(w, "task-list", data); err != nil {
			slog.Error("template_exec_failed", "page", "task-list", "error", err)
			return
		}
		//stats ride along out of band so the counters stay current
		data["OOB"] = true
		if err := tmpl.ExecuteTemplate(w, "stats-container", data); err != nil {
			slog.Error("template_exec_failed", "page", "stats-container", "error", err)
		}
		return
	}

	h.render(w, r, "tasks.html", data)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	u, ok := userFrom(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	t, err := parseTaskForm(r)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Tambah tugas gagal", err.Error(), "/app")
		return
	}
	t.UserID = u.ID

	if err := h.tasks.AddTask(r.Context(), t); err != nil {
		h.renderError(w, r, http.StatusInternalServerError, "Tambah tugas gagal", err.Error(), "/app")
		return
	}

	h.addFlash(w, r, "Tugas baru ditambahkan")
	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	u, ok := userFrom(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Update gagal", "id tugas tidak valid", "/app")
		return
	}

	t, err := parseTaskForm(r)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Update gagal", err.Error(), "/app")
		return
	}
	t.ID = id
	t.UserID = u.ID

	if err := h.tasks.UpdateTask(r.Context(), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.renderError(w, r, http.StatusNotFound, "Update gagal", "tugas tidak ditemukan", "/app")
			return
		}
		h.renderError(w, r, http.StatusInternalServerError, "Update gagal", err.Error(), "/app")
		return
	}

	h.addFlash(w, r, "Tugas diperbarui")
	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

// deleteTask trusts the POST: the explicit confirmation dialog runs in
// the browser before the form is submitted.
func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	u, ok := userFrom(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Gagal menghapus", "id tugas tidak valid", "/app")
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), id, u.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.renderError(w, r, http.StatusNotFound, "Gagal menghapus", "tugas tidak ditemukan", "/app")
			return
		}
		h.renderError(w, r, http.StatusInternalServerError, "Gagal menghapus", err.Error(), "/app")
		return
	}

	h.addFlash(w, r, "Tugas dihapus")
	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

// parseTaskForm validates and converts the create/edit form. Title,
// course and due date are required; the due date arrives as a
// datetime-local value interpreted with the browser's tz offset.
func parseTaskForm(r *http.Request) (models.Task, error) {
	title := strings.TrimSpace(r.FormValue("title"))
	course := strings.TrimSpace(r.FormValue("course"))
	due := r.FormValue("due_date")

	if title == "" || course == "" || due == "" {
		return models.Task{}, errors.New("judul, mata kuliah, dan deadline wajib diisi")
	}

	offset := tzOffset(r)
	if v := r.FormValue("tz_offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	dueAt, err := parseDueDate(due, offset)
	if err != nil {
		return models.Task{}, errors.New("format deadline tidak valid")
	}

	status := r.FormValue("status")
	if !models.ValidStatus(status) {
		status = models.StatusTodo
	}

	return models.Task{
		Title:   title,
		Course:  course,
		DueDate: dueAt,
		Notes:   strings.TrimSpace(r.FormValue("notes")),
		Status:  status,
	}, nil
}

const dtLocalLayout = "2006-01-02T15:04"

// parseDueDate converts a datetime-local value plus getTimezoneOffset()
// minutes into an absolute UTC instant.
func parseDueDate(value string, offsetMin int) (time.Time, error) {
	t, err := time.Parse(dtLocalLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(time.Duration(offsetMin) * time.Minute).UTC(), nil
}

// localInputValue is the inverse of parseDueDate, used to pre-populate
// the edit form.
func localInputValue(t time.Time, offsetMin int) string {
	return t.UTC().Add(-time.Duration(offsetMin) * time.Minute).Format(dtLocalLayout)
}

func localDisplay(t time.Time, offsetMin int) string {
	return t.UTC().Add(-time.Duration(offsetMin) * time.Minute).Format("02 Jan 2006 15:04")
}

func buildCards(tasks []models.Task, offsetMin int, now time.Time) []taskCard {
	cards := make([]taskCard, 0, len(tasks))
	for _, t := range tasks {
		cd := taskview.CountdownAt(t, now)
		pending := t.Status != models.StatusDone
		cards = append(cards, taskCard{
			Task:        t,
			DueDisplay:  localDisplay(t.DueDate, offsetMin),
			DueInput:    localInputValue(t.DueDate, offsetMin),
			Label:       cd.Label,
			ShowOverdue: cd.Overdue && pending,
			ShowUrgent:  cd.Urgent && pending,
			StatusLabel: statusLabels[t.Status],
		})
	}
	return cards
}

// returnURL keeps the active filter query across the post-write
// redirect. Only same-app paths are accepted.
func returnURL(r *http.Request) string {
	v := r.FormValue("return")
	if strings.HasPrefix(v, "/app") {
		return v
	}
	return "/app"
}
