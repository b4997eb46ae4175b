// Package model holds the wire types exchanged with the notes server.
package model

import "time"

// User is the authenticated account as returned by /auth/me.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   *string   `json:"username"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	AvatarURL  *string   `json:"avatar_url"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName prefers the username and falls back to the email.
func (u User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// ImageMetadata is the EXIF summary extracted by the server.
type ImageMetadata struct {
	FileID           string         `json:"file_id"`
	CameraMake       *string        `json:"camera_make"`
	CameraModel      *string        `json:"camera_model"`
	DatetimeOriginal *time.Time     `json:"datetime_original"`
	GPSLatitude      *float64       `json:"gps_latitude"`
	GPSLongitude     *float64       `json:"gps_longitude"`
	Width            *int           `json:"width"`
	Height           *int           `json:"height"`
	Orientation      *int           `json:"orientation"`
	Extra            map[string]any `json:"extra"`
	CreatedAt        time.Time      `json:"created_at"`
}

// NoteFile is a stored attachment. Only images are uploaded today.
type NoteFile struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	NoteID        *string        `json:"note_id"`
	StorageKey    string         `json:"storage_key"`
	URL           *string        `json:"url"`
	Filename      *string        `json:"filename"`
	MimeType      *string        `json:"mime_type"`
	SizeBytes     *int64         `json:"size_bytes"`
	CreatedAt     time.Time      `json:"created_at"`
	ImageMetadata *ImageMetadata `json:"image_metadata"`
}

// Note is a text or image note. The kind is derived from Files.
type Note struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Title      *string    `json:"title"`
	Content    *string    `json:"content"`
	IsArchived bool       `json:"is_archived"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Files      []NoteFile `json:"files"`
}

// IsImage reports whether the note carries at least one file.
func (n Note) IsImage() bool {
	return len(n.Files) > 0
}

// TitleOr returns the title, or fallback when it is unset or empty.
func (n Note) TitleOr(fallback string) string {
	if n.Title == nil || *n.Title == "" {
		return fallback
	}
	return *n.Title
}

// Text returns the content or an empty string.
func (n Note) Text() string {
	if n.Content == nil {
		return ""
	}
	return *n.Content
}

// NoteInput is the body of create and update calls. Nil fields are sent as null.
type NoteInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Answer is the response of /notes/ask.
type Answer struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	RelevantNotes []Note   `json:"relevant_notes"`
	QueryType     string   `json:"query_type"`
	Confidence    *float64 `json:"confidence"`
}

// QAHistory is a server-side record of a past question.
type QAHistory struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Question  string         `json:"question"`
	Context   map[string]any `json:"context"`
	Response  map[string]any `json:"response"`
	CreatedAt time.Time      `json:"created_at"`
}

// StringPtr returns nil for an empty (after trimming by the caller) string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
