package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/miyobam/myb/internal/catalog"
	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/router"
	"github.com/miyobam/myb/internal/session"
)

// requireAdmin は管理者権限を確認する。権限がなければホームへ戻す。
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request, state *session.State) bool {
	if state.IsAdmin() {
		return true
	}
	state.Notices().Error(model.NewAdminRequiredError().Message)
	h.redirect(w, r, string(router.PageHome))
	return false
}

// ApproveStory は審査待ちのストーリーを承認して公開する。
func (h *Handler) ApproveStory(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	if !h.requireAdmin(w, r, state) {
		return
	}
	storyID := chi.URLParam(r, "storyID")
	ctx := h.backendContext(r, state)

	if _, err := h.stories.ApproveStory(ctx, storyID); err != nil {
		h.fail(state, err)
	} else {
		state.Notices().Success("Story approved and published.")
	}
	h.redirect(w, r, "admin-approve")
}

// RejectStory はストーリーを理由付きで却下する。
func (h *Handler) RejectStory(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	if !h.requireAdmin(w, r, state) {
		return
	}
	storyID := chi.URLParam(r, "storyID")
	reason := strings.TrimSpace(r.PostFormValue("reason"))
	ctx := h.backendContext(r, state)

	if _, err := h.stories.RejectStory(ctx, storyID, reason); err != nil {
		h.fail(state, err)
	} else {
		state.Notices().Info("Story rejected.")
	}
	h.redirect(w, r, "admin-approve")
}

// DeleteStory はストーリーを完全に削除する。
func (h *Handler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	if !h.requireAdmin(w, r, state) {
		return
	}
	storyID := chi.URLParam(r, "storyID")
	ctx := h.backendContext(r, state)

	if _, err := h.stories.DeleteStory(ctx, storyID); err != nil {
		h.fail(state, err)
	} else {
		state.Notices().Info("Story deleted.")
	}
	h.redirect(w, r, "admin-pdf-manage")
}

// ResolveReport は通報を処理済みまたは却下にする。
func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	if !h.requireAdmin(w, r, state) {
		return
	}
	reportID := chi.URLParam(r, "reportID")
	status := model.ReportStatus(r.PostFormValue("status"))
	ctx := h.backendContext(r, state)

	reports, err := h.stories.ListReports(ctx)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, "admin-reports")
		return
	}

	var target *model.StoryReport
	for i := range reports {
		if reports[i].ID == reportID {
			target = &reports[i]
			break
		}
	}
	if target == nil {
		state.Notices().Error("That report no longer exists.")
		h.redirect(w, r, "admin-reports")
		return
	}

	if _, err := h.stories.ResolveReport(ctx, *target, status); err != nil {
		h.fail(state, err)
	} else {
		state.Notices().Success("Report " + string(status) + ".")
	}
	h.redirect(w, r, "admin-reports")
}

// CreateContest は承認済みストーリーから新しいコンテストを開催する。
func (h *Handler) CreateContest(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	if !h.requireAdmin(w, r, state) {
		return
	}
	if err := r.ParseForm(); err != nil {
		state.Notices().Error("Check the form and try again.")
		h.redirect(w, r, "admin-contests")
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	description := strings.TrimSpace(r.PostFormValue("description"))
	storyIDs := r.PostForm["story_id"]

	now := time.Now()
	end := now.AddDate(0, 0, 14)
	if raw := r.PostFormValue("end_date"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			end = parsed
		}
	}

	ctx := h.backendContext(r, state)
	if _, err := h.contests.CreateContest(ctx, title, description, storyIDs, now, end); err != nil {
		h.fail(state, err)
	} else {
		state.Notices().Success("Contest \"" + title + "\" is live!")
	}
	h.redirect(w, r, "admin-contests")
}

// EndContest はコンテストを終了する。終了後の投票は受け付けない。
func (h *Handler) EndContest(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	if !h.requireAdmin(w, r, state) {
		return
	}
	contestID := chi.URLParam(r, "contestID")
	ctx := h.backendContext(r, state)

	if err := h.contests.EndContest(ctx, contestID); err != nil {
		h.fail(state, err)
	} else {
		state.Notices().Success("Contest ended. Results are final.")
	}
	h.redirect(w, r, "admin-contests")
}

// CreateBook はカタログへ新しい書籍を登録する。
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	if !h.requireAdmin(w, r, state) {
		return
	}

	price := 0.0
	if raw := r.PostFormValue("price"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed >= 0 {
			price = parsed
		}
	}

	upload := catalog.BookUpload{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Author:   strings.TrimSpace(r.PostFormValue("author")),
		Genre:    strings.TrimSpace(r.PostFormValue("genre")),
		Synopsis: strings.TrimSpace(r.PostFormValue("synopsis")),
		CoverURL: strings.TrimSpace(r.PostFormValue("cover_url")),
		Price:    price,
		Status:   r.PostFormValue("status"),
		Tags:     splitTags(r.PostFormValue("tags")),
	}

	ctx := h.backendContext(r, state)
	book, err := h.catalog.CreateBook(ctx, upload)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, "admin-settings")
		return
	}

	state.Notices().Success("\"" + book.Title + "\" added to the catalog.")
	h.redirect(w, r, "admin-settings")
}

// SetBookOfWeek は今週の一冊を設定する。
func (h *Handler) SetBookOfWeek(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	if !h.requireAdmin(w, r, state) {
		return
	}

	bookID := r.PostFormValue("book_id")
	description := strings.TrimSpace(r.PostFormValue("description"))
	featuredBy := ""
	if user := state.User(); user != nil {
		featuredBy = user.Username
	}

	ctx := h.backendContext(r, state)
	if err := h.catalog.SetBookOfWeek(ctx, bookID, description, featuredBy); err != nil {
		h.fail(state, err)
	} else {
		state.Notices().Success("Book of the Week updated.")
	}
	h.redirect(w, r, "admin-settings")
}
