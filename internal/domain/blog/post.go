package blog

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrPostNotFound       = errors.New("blog post not found")
	ErrPersistenceFailure = errors.New("blog store save failed")
	ErrUnknownField       = errors.New("unknown blog post field")
)

const DefaultTitle = "Untitled Post"

// Post is one blog entry in the blog posts file.
type Post struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Author           *string   `json:"author"`
	Content          string    `json:"content"`
	ContentIsHTML    bool      `json:"content_is_html"`
	DatePublished    time.Time `json:"date_published"`
	ImageURL         *string   `json:"image_url"`
	ImageURLIsStatic bool      `json:"image_url_is_static"`
}

// Field names an editable attribute of a post.
type Field string

const (
	FieldTitle    Field = "title"
	FieldContent  Field = "content"
	FieldAuthor   Field = "author"
	FieldImageURL Field = "image_url"
)

func EditableFields() []Field {
	return []Field{FieldTitle, FieldContent, FieldAuthor, FieldImageURL}
}

func (f Field) Label() string {
	switch f {
	case FieldTitle:
		return "Title"
	case FieldContent:
		return "Content"
	case FieldAuthor:
		return "Author"
	case FieldImageURL:
		return "Image URL"
	default:
		return string(f)
	}
}

// Clearable fields accept "none" or "skip" to remove the value.
func (f Field) Clearable() bool {
	return f == FieldAuthor || f == FieldImageURL
}

// IsSkip reports whether an operator reply means "leave empty".
func IsSkip(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "skip" || v == "none"
}

// Set assigns value to field, clearing optional fields on a skip reply.
func (p *Post) Set(field Field, value string) error {
	switch field {
	case FieldTitle:
		p.Title = value
	case FieldContent:
		p.Content = value
	case FieldAuthor:
		p.Author = optional(value)
	case FieldImageURL:
		p.ImageURL = optional(value)
		p.ImageURLIsStatic = false
	default:
		return ErrUnknownField
	}
	return nil
}

// Value renders field for confirmation messages.
func (p Post) Value(field Field) string {
	switch field {
	case FieldTitle:
		return p.Title
	case FieldContent:
		return p.Content
	case FieldAuthor:
		return deref(p.Author)
	case FieldImageURL:
		return deref(p.ImageURL)
	default:
		return ""
	}
}

func optional(value string) *string {
	if IsSkip(value) || strings.TrimSpace(value) == "" {
		return nil
	}
	v := value
	return &v
}

func deref(v *string) string {
	if v == nil {
		return "None"
	}
	return *v
}
