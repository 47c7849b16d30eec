package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/miyobam/myb/internal/router"
	"github.com/miyobam/myb/internal/stories"
)

// SubmitStory はPDFストーリーのアップロードを受け付ける。
// 受理された作品は審査待ちとして登録され、承認されるまで公開されない。
func (h *Handler) SubmitStory(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)

	user := state.User()
	if user == nil {
		state.Notices().Error("Please sign in to upload a story.")
		h.redirect(w, r, string(router.PageUploadStory))
		return
	}

	// multipartのオーバーヘッド分を1MiB余分に許す
	r.Body = http.MaxBytesReader(w, r.Body, h.config.UploadMaxSize+1<<20)
	if err := r.ParseMultipartForm(h.config.UploadMaxSize); err != nil {
		h.recordUpload("rejected")
		state.Notices().Error("The file is too large or the upload was malformed.")
		h.redirect(w, r, string(router.PageUploadStory))
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		h.recordUpload("rejected")
		state.Notices().Error("Attach a PDF file to upload.")
		h.redirect(w, r, string(router.PageUploadStory))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.recordUpload("rejected")
		h.fail(state, err)
		h.redirect(w, r, string(router.PageUploadStory))
		return
	}

	upload := stories.Upload{
		Title:        strings.TrimSpace(r.PostFormValue("title")),
		Author:       strings.TrimSpace(r.PostFormValue("author")),
		UploaderName: user.Username,
		Genre:        strings.TrimSpace(r.PostFormValue("genre")),
		Description:  strings.TrimSpace(r.PostFormValue("description")),
		Tags:         splitTags(r.PostFormValue("tags")),
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Data:         data,
	}

	ctx := h.backendContext(r, state)
	story, err := h.stories.SubmitStory(ctx, upload)
	if err != nil {
		h.recordUpload("rejected")
		h.fail(state, err)
		h.redirect(w, r, string(router.PageUploadStory))
		return
	}

	h.recordUpload("accepted")
	state.Notices().Success("\"" + story.Title + "\" submitted! It will appear in the PDF library once approved.")
	h.redirect(w, r, string(router.PagePDFLibrary))
}

// ReadStory は閲覧数を加算してPDF本体へリダイレクトする。
func (h *Handler) ReadStory(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	storyID := chi.URLParam(r, "storyID")
	ctx := h.backendContext(r, state)

	story, err := h.stories.GetStory(ctx, storyID)
	if err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PagePDFLibrary))
		return
	}

	if err := h.stories.IncrementViews(ctx, story); err != nil {
		h.fail(state, err)
	}

	http.Redirect(w, r, story.PDFURL, http.StatusFound)
}

// RateStory は1〜5の星評価を登録する。
func (h *Handler) RateStory(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	storyID := chi.URLParam(r, "storyID")

	user := state.User()
	if user == nil {
		state.Notices().Error("Please sign in to rate stories.")
		h.redirect(w, r, string(router.PagePDFLibrary))
		return
	}

	rating, err := strconv.Atoi(r.PostFormValue("rating"))
	if err != nil {
		state.Notices().Error("Pick a star rating from 1 to 5.")
		h.redirect(w, r, string(router.PagePDFLibrary))
		return
	}

	ctx := h.backendContext(r, state)
	if err := h.stories.RateStory(ctx, storyID, user.ID, rating); err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PagePDFLibrary))
		return
	}

	state.Notices().Success("Thanks for rating!")
	h.redirect(w, r, string(router.PagePDFLibrary))
}

// ReportStory はストーリーへの通報を受け付ける。通報にはサインインが必要。
func (h *Handler) ReportStory(w http.ResponseWriter, r *http.Request) {
	state := h.state(r)
	storyID := chi.URLParam(r, "storyID")

	user := state.User()
	if user == nil {
		state.Notices().Error("Please sign in to report stories.")
		h.redirect(w, r, string(router.PagePDFLibrary))
		return
	}

	reason := strings.TrimSpace(r.PostFormValue("reason"))
	reportType := r.PostFormValue("type")
	if reportType == "" {
		reportType = "inappropriate"
	}

	ctx := h.backendContext(r, state)
	if _, err := h.stories.ReportStory(ctx, storyID, user.Username, reason, reportType); err != nil {
		h.fail(state, err)
		h.redirect(w, r, string(router.PagePDFLibrary))
		return
	}

	state.Notices().Success("Report received. Our team will take a look.")
	h.redirect(w, r, string(router.PagePDFLibrary))
}

func (h *Handler) recordUpload(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordStoryUpload(outcome)
	}
}

// splitTags はカンマ区切りのタグ入力を正規化する。
func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
