package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, payment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeAdminRequired     = "ADMIN_REQUIRED"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	ErrCodePasswordTooShort  = "PASSWORD_TOO_SHORT"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeBookNotFound      = "BOOK_NOT_FOUND"
	ErrCodeChapterNotFound   = "CHAPTER_NOT_FOUND"
	ErrCodeStoryNotFound     = "STORY_NOT_FOUND"
	ErrCodeStoryUnavailable  = "STORY_UNAVAILABLE"
	ErrCodeContestNotFound   = "CONTEST_NOT_FOUND"
	ErrCodeContestEnded      = "CONTEST_ENDED"
	ErrCodeReasonRequired    = "REASON_REQUIRED"
	ErrCodeInvalidFileType   = "INVALID_FILE_TYPE"
	ErrCodeFileTooLarge      = "FILE_TOO_LARGE"
	ErrCodeInvalidRating     = "INVALID_RATING"
	ErrCodePurchaseInFlight  = "PURCHASE_IN_FLIGHT"
	ErrCodeSSRFBlocked       = "SSRF_BLOCKED"
	ErrCodeBackendFailed     = "BACKEND_FAILED"
)

// NewUnauthorizedError は未認証エラーを生成する。
// messageにはユーザーが試みた操作に応じた案内文を渡す。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  message,
		Category: "auth",
		Action:   "Sign in and try again.",
	}
}

// NewAdminRequiredError は管理者権限エラーを生成する。
func NewAdminRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminRequired,
		Message:  "Admin access required",
		Category: "auth",
		Action:   "Sign in with an administrator account.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// サーバー認証とデモアカウントの両方に一致しなかった場合に使う。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Check your email and password and try again.",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "Email already registered",
		Category: "validation",
		Action:   "Sign in with this email, or use a different address.",
	}
}

// NewPasswordTooShortError はパスワード長不足エラーを生成する。
func NewPasswordTooShortError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  fmt.Sprintf("Password must be at least %d characters long", minLength),
		Category: "validation",
		Action:   "Choose a longer password.",
	}
}

// NewMissingCredentialsError はサインイン時の未入力エラーを生成する。
func NewMissingCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  "Please enter both email and password",
		Category: "validation",
		Action:   "Enter your email and password.",
	}
}

// NewMissingFieldError は必須項目未入力エラーを生成する。
func NewMissingFieldError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  "Please fill in all fields",
		Category: "validation",
		Action:   "Complete every required field and resubmit.",
	}
}

// NewBookNotFoundError は書籍未検出エラーを生成する。
func NewBookNotFoundError(bookID string) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  "Book not found",
		Category: "catalog",
		Action:   fmt.Sprintf("Check the book ID: %s", bookID),
	}
}

// NewChapterNotFoundError は章未検出エラーを生成する。
func NewChapterNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeChapterNotFound,
		Message:  "Chapter not found",
		Category: "catalog",
		Action:   "Return to the book page and pick a chapter from the list.",
	}
}

// NewStoryNotFoundError はPDFストーリー未検出エラーを生成する。
func NewStoryNotFoundError(storyID string) *APIError {
	return &APIError{
		Code:     ErrCodeStoryNotFound,
		Message:  "Story not found",
		Category: "catalog",
		Action:   fmt.Sprintf("Check the story ID: %s", storyID),
	}
}

// NewStoryUnavailableError は未承認ストーリーへのアクセスエラーを生成する。
func NewStoryUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoryUnavailable,
		Message:  "This story is not available",
		Category: "catalog",
		Action:   "Only approved stories can be read.",
	}
}

// NewContestNotFoundError はコンテスト未検出エラーを生成する。
func NewContestNotFoundError(contestID string) *APIError {
	return &APIError{
		Code:     ErrCodeContestNotFound,
		Message:  "Contest not found",
		Category: "catalog",
		Action:   fmt.Sprintf("Check the contest ID: %s", contestID),
	}
}

// NewContestEndedError は終了済みコンテストへの投票エラーを生成する。
func NewContestEndedError() *APIError {
	return &APIError{
		Code:     ErrCodeContestEnded,
		Message:  "This contest has ended",
		Category: "validation",
		Action:   "Votes can only be cast in active contests.",
	}
}

// NewReasonRequiredError は却下理由未入力エラーを生成する。
// 却下は理由なしでは送信されない。
func NewReasonRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeReasonRequired,
		Message:  "Please provide a reason for rejection",
		Category: "validation",
		Action:   "Enter a reason and submit again.",
	}
}

// NewInvalidFileTypeError はPDF以外のファイル形式エラーを生成する。
func NewInvalidFileTypeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFileType,
		Message:  "Please select a valid PDF file",
		Category: "validation",
		Action:   "Only application/pdf uploads are accepted.",
	}
}

// NewFileTooLargeError はファイルサイズ超過エラーを生成する。
func NewFileTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodeFileTooLarge,
		Message:  fmt.Sprintf("PDF file size must be less than %dMB", maxBytes/(1024*1024)),
		Category: "validation",
		Action:   "Compress the PDF or split it into parts.",
	}
}

// NewInvalidRatingError は範囲外の評価値エラーを生成する。
func NewInvalidRatingError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  "Rating must be between 1 and 5 stars",
		Category: "validation",
		Action:   "Pick a star rating from 1 to 5.",
	}
}

// NewPurchaseInFlightError は二重購入送信エラーを生成する。
// 同一ユーザー・同一書籍の購入リクエストが処理中の間は次を受け付けない。
func NewPurchaseInFlightError() *APIError {
	return &APIError{
		Code:     ErrCodePurchaseInFlight,
		Message:  "A purchase for this book is already being processed",
		Category: "payment",
		Action:   "Wait for the current purchase to finish.",
	}
}

// NewSSRFBlockedError はセキュリティポリシーによるURLブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "Access to this URL is blocked by security policy",
		Category: "validation",
		Action:   "Only public web URLs are allowed. Private and local addresses are rejected.",
	}
}

// NewBackendFailedError はテーブルAPI呼び出し失敗エラーを生成する。
func NewBackendFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeBackendFailed,
		Message:  fmt.Sprintf("Backend request failed: %s", reason),
		Category: "system",
		Action:   "Try again in a moment.",
	}
}
