package validation

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/pkg/errorx"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	slugStrip  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugHyphen = regexp.MustCompile(`-{2,}`)
)

// Required collects the names of empty fields and reports them as one MissingFields error.
// Pairs are given as name, value, name, value, ...
func Required(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errorx.New(errorx.MissingFields, "Missing fields: %s", strings.Join(missing, ", "))
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the format of an already normalized email
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return errorx.New(errorx.BadRequest, "Invalid email format")
	}
	return nil
}

// MaxLength rejects values longer than limit characters
func MaxLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return errorx.New(errorx.TooLong, "%s exceeds maximum of %d characters", field, limit)
	}
	return nil
}

// CommentText trims a comment and enforces presence and length
func CommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errorx.New(errorx.MissingFields, "Missing fields: text")
	}
	if err := MaxLength("text", text, models.MaxCommentLength); err != nil {
		return "", err
	}
	return text, nil
}

// Slugify derives a URL-safe identifier: lower case, spaces become hyphens,
// anything outside [a-z0-9-] is dropped, hyphen runs collapse and edge hyphens are trimmed.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	s = slugStrip.ReplaceAllString(s, "")
	s = slugHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsSlug reports whether s is already in normalized slug form
func IsSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// TaxonomyName validates a category or tag name and returns it with its slug
func TaxonomyName(name string) (string, string, error) {
	name = strings.TrimSpace(name)
	if err := Required("name", name); err != nil {
		return "", "", err
	}
	if err := MaxLength("name", name, 80); err != nil {
		return "", "", err
	}
	slug := Slugify(name)
	if slug == "" {
		return "", "", errorx.New(errorx.MissingFields, "name must contain at least one letter or digit")
	}
	return name, slug, nil
}

// CategoryID decodes an optional category_id field.
// present is false when the field was absent; id is nil when it was null.
func CategoryID(raw json.RawMessage) (id *int64, present bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if isNull(raw) {
		return nil, true, nil
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil || v <= 0 {
		return nil, true, errorx.New(errorx.InvalidCategoryID, "category_id must be a positive integer or null")
	}
	return &v, true, nil
}

// TagIDs decodes an optional tags field holding a list of tag ids.
// Duplicates are removed; order of first appearance is kept.
func TagIDs(raw json.RawMessage) (ids []int64, present bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if isNull(raw) {
		return []int64{}, true, nil
	}
	var values []int64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, true, errorx.New(errorx.InvalidTags, "tags must be a list of tag ids")
	}
	seen := make(map[int64]bool, len(values))
	ids = make([]int64, 0, len(values))
	for _, v := range values {
		if v <= 0 {
			return nil, true, errorx.New(errorx.InvalidTags, "invalid tag id %d", v)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		ids = append(ids, v)
	}
	return ids, true, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
