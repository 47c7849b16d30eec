package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var blankLines = regexp.MustCompile(`\r?\n\s*\r?\n`)

// SplitParagraphs は章本文を空行で段落に分割する。
// 前後の空白は取り除き、空の段落は捨てる。
func SplitParagraphs(content string) []string {
	parts := blankLines.Split(content, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

// FormatNumber は閲覧数などの大きな数値を「1.2K」「3.4M」形式へ丸める。
// 1000未満はそのまま表示する。
func FormatNumber(n int) string {
	switch {
	case n >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1_000_000)) + "M"
	case n >= 1_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1_000)) + "K"
	default:
		return fmt.Sprintf("%d", n)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// TimeAgo は相対時刻表記（"3h ago"など）を返す。
// 1分未満は"just now"、7日以上は日付表示にする。
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Stars は平均評価を5つの星表示へ変換する（四捨五入）。
func Stars(average float64) string {
	filled := int(average + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > 5 {
		filled = 5
	}
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}
