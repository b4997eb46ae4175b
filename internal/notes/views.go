package notes

import (
	"strings"
	"time"

	"github.com/ainotes-dev/ainotes/internal/model"
)

// Kind distinguishes text and image notes.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// KindOf reports the kind of n. A note with any attached file is an image note.
func KindOf(n model.Note) Kind {
	if n.IsImage() {
		return KindImage
	}
	return KindText
}

// Bucket is one recency group.
type Bucket int

const (
	BucketRecent Bucket = iota // younger than 30 days
	BucketMonth                // 30 to 59 days
	BucketOlder                // 60 days or more
)

// Label is the heading shown above a bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketRecent:
		return "Last 30 days"
	case BucketMonth:
		return "30-60 days ago"
	default:
		return "Older"
	}
}

// Group is a bucket and its notes.
type Group struct {
	Bucket Bucket
	Notes  []model.Note
}

// Filter keeps notes whose title or content contains query, ignoring case.
// An empty query returns notes unchanged.
func Filter(notes []model.Note, query string) []model.Note {
	if query == "" {
		return notes
	}
	q := strings.ToLower(query)

	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.TitleOr("")), q) ||
			strings.Contains(strings.ToLower(n.Text()), q) {
			out = append(out, n)
		}
	}
	return out
}

// AgeDays is the whole number of days between created and now, in either direction.
func AgeDays(created, now time.Time) int {
	d := now.Sub(created)
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

// BucketOf places a note created at created into a recency bucket.
func BucketOf(created, now time.Time) Bucket {
	switch days := AgeDays(created, now); {
	case days < 30:
		return BucketRecent
	case days < 60:
		return BucketMonth
	default:
		return BucketOlder
	}
}

// GroupByRecency splits notes into the three recency buckets, always in
// bucket order and always three groups. Order within a group follows input.
func GroupByRecency(notes []model.Note, now time.Time) []Group {
	groups := []Group{
		{Bucket: BucketRecent, Notes: []model.Note{}},
		{Bucket: BucketMonth, Notes: []model.Note{}},
		{Bucket: BucketOlder, Notes: []model.Note{}},
	}
	for _, n := range notes {
		b := BucketOf(n.CreatedAt, now)
		groups[b].Notes = append(groups[b].Notes, n)
	}
	return groups
}

// Preview is the first 100 characters of the content, marked when cut.
func Preview(n model.Note) string {
	const limit = 100
	runes := []rune(n.Text())
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
