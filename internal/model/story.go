package model

import "time"

// StoryStatus はPDFストーリーの審査状態を表す。
type StoryStatus string

const (
	// StoryPending は管理者の審査待ち。アップロード直後は必ずこの状態。
	StoryPending StoryStatus = "pending"
	// StoryApproved は承認済み。公開一覧に表示されるのはこの状態のみ。
	StoryApproved StoryStatus = "approved"
	// StoryRejected は却下。review_reasonに理由が入る。
	StoryRejected StoryStatus = "rejected"
)

// PDFStory はアップロードされたPDFストーリーを表す。
type PDFStory struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Author       string      `json:"author"`
	UploaderName string      `json:"uploader_name,omitempty"`
	Genre        string      `json:"genre"`
	Description  string      `json:"description,omitempty"`
	CoverURL     string      `json:"cover_url,omitempty"`
	PDFURL       string      `json:"pdf_url"`
	Tags         []string    `json:"tags,omitempty"`
	Status       StoryStatus `json:"status"`
	ReviewReason string      `json:"review_reason,omitempty"`
	Views        int         `json:"views"`
	Likes        int         `json:"likes"`
	CreatedAt    time.Time   `json:"created_at,omitempty"`
}

// ReportStatus は通報の処理状態を表す。
type ReportStatus string

const (
	// ReportPending は未処理の通報。
	ReportPending ReportStatus = "pending"
	// ReportResolved は対応済み。
	ReportResolved ReportStatus = "resolved"
	// ReportDismissed は却下（対応不要と判断）。
	ReportDismissed ReportStatus = "dismissed"
)

// StoryReport はストーリーへの通報を表す。
// 作成はサインイン済みユーザーなら誰でも、処理は管理者のみ。
type StoryReport struct {
	ID           string       `json:"id,omitempty"`
	StoryID      string       `json:"story_id"`
	ReporterName string       `json:"reporter_name,omitempty"`
	Reason       string       `json:"reason"`
	Type         string       `json:"type,omitempty"`
	Status       ReportStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
}

// Rating はストーリーへの星評価（1〜5）を表す。
type Rating struct {
	ID      string `json:"id,omitempty"`
	StoryID string `json:"story_id"`
	UserID  string `json:"user_id,omitempty"`
	Rating  int    `json:"rating"`
}

// RatingSummary はストーリーの評価集計を表す。
type RatingSummary struct {
	Average float64
	Count   int
}
