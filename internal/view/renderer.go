package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/miyobam/myb/internal/security"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticHandler は埋め込み静的アセット（/static/配下）を配信するハンドラーを返す。
func StaticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// Renderer はビューモデルをHTMLへ描画する。
// ユーザー投稿テキストのサニタイズ入口も兼ねる。
type Renderer struct {
	templates *template.Template
	sanitizer security.ContentSanitizerService
}

// NewRenderer は埋め込みテンプレートを読み込んだRendererを生成する。
func NewRenderer(sanitizer security.ContentSanitizerService) (*Renderer, error) {
	funcs := template.FuncMap{
		"formatNumber": FormatNumber,
		"stars":        Stars,
		"timeAgo": func(t time.Time) string {
			return TimeAgo(t, time.Now())
		},
	}

	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{
		templates: tmpl,
		sanitizer: sanitizer,
	}, nil
}

// Render は指定テンプレートへビューモデルを適用して書き込む。
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	if err := r.templates.ExecuteTemplate(w, name+".tmpl", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// SafeHTML はユーザー投稿テキストをサニタイズしてテンプレート挿入可能にする。
func (r *Renderer) SafeHTML(raw string) template.HTML {
	return template.HTML(r.sanitizer.Sanitize(raw))
}

// Paragraphs は章本文を空行で段落に分割し、各段落をサニタイズして返す。
func (r *Renderer) Paragraphs(content string) []template.HTML {
	parts := SplitParagraphs(content)
	out := make([]template.HTML, 0, len(parts))
	for _, p := range parts {
		out = append(out, r.SafeHTML(p))
	}
	return out
}
