// Package photoquery turns list-request parameters into a bounded,
// ordered, filtered page of one user's photos. Owner scoping happens in
// the repository; this package only ever sees rows that already belong
// to the requesting user.
package photoquery

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nshamaev/instakiller/internal/models"
)

const dateLayout = "2006-01-02"

// Defaults holds the configured pagination bounds.
type Defaults struct {
	PerPage    int
	MaxPerPage int
}

// Query is the parsed form of the list-request parameters. Nil filter
// fields mean the corresponding predicate is not applied.
type Query struct {
	CreatedOn *time.Time // calendar-date match, time of day ignored
	MinDate   *time.Time // created_at >= MinDate
	MaxDate   *time.Time // created_at < MaxDate
	Search    string     // case-insensitive substring of name
	Ordering  string     // "name", "created_at", optionally "-" prefixed
	Page      int        // 1-based
	PerPage   int
}

// Parse extracts a Query from request values. Unknown parameters and
// unparseable values are ignored, falling back to defaults; per_page is
// clamped to the configured maximum.
func Parse(values url.Values, d Defaults) Query {
	q := Query{Page: 1, PerPage: d.PerPage}

	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	if pp, err := strconv.Atoi(values.Get("per_page")); err == nil && pp > 0 {
		if pp > d.MaxPerPage {
			pp = d.MaxPerPage
		}
		q.PerPage = pp
	}

	if t, err := time.Parse(dateLayout, values.Get("created_at")); err == nil {
		q.CreatedOn = &t
	}
	q.MinDate = parseInstant(values.Get("min_date"))
	q.MaxDate = parseInstant(values.Get("max_date"))
	q.Search = values.Get("search")

	switch o := values.Get("ordering"); o {
	case "name", "created_at", "-name", "-created_at":
		q.Ordering = o
	}

	return q
}

// parseInstant accepts either an RFC 3339 instant or a plain date, which
// is read as midnight UTC.
func parseInstant(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t
	}
	return nil
}

// Apply filters, sorts and paginates the given collection. It returns
// the requested page and the total number of rows that passed the
// filters. A page past the end yields an empty slice, never an error.
func (q Query) Apply(photos []models.Photo) ([]models.Photo, int) {
	filtered := make([]models.Photo, 0, len(photos))
	for _, p := range photos {
		if q.matches(p) {
			filtered = append(filtered, p)
		}
	}

	q.sortPhotos(filtered)

	total := len(filtered)
	start := (q.Page - 1) * q.PerPage
	if start >= total {
		return []models.Photo{}, total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

// matches reports whether a photo passes every active filter.
func (q Query) matches(p models.Photo) bool {
	if q.CreatedOn != nil {
		y1, m1, d1 := p.CreatedAt.UTC().Date()
		y2, m2, d2 := q.CreatedOn.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	if q.MinDate != nil && p.CreatedAt.Before(*q.MinDate) {
		return false
	}
	if q.MaxDate != nil && !p.CreatedAt.Before(*q.MaxDate) {
		return false
	}
	if q.Search != "" &&
		!strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) {
		return false
	}
	return true
}

// sortPhotos orders the slice by the requested field. Ties, and the
// absence of an ordering parameter, fall back to id ascending so that
// repeated calls over the same data return the same page.
func (q Query) sortPhotos(photos []models.Photo) {
	field := strings.TrimPrefix(q.Ordering, "-")
	desc := strings.HasPrefix(q.Ordering, "-")

	sort.SliceStable(photos, func(i, j int) bool {
		a, b := photos[i], photos[j]
		var less, equal bool
		switch field {
		case "name":
			less, equal = a.Name < b.Name, a.Name == b.Name
		case "created_at":
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
		if equal {
			return a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})
}
