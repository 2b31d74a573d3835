package validation

import "strings"

type CreateBook struct {
	Title         string `json:"title" validate:"required" example:"The Hobbit"`
	Author        string `json:"author" validate:"required" example:"J. R. R. Tolkien"`
	PublishedYear *int   `json:"publishedYear" validate:"required,min=1000,notfuture" example:"1937"`
	ISBN          string `json:"ISBN" validate:"required,isbn" example:"9780261103344"`
	Genre         string `json:"genre" validate:"required" example:"Fantasy"`
	StockCount    *int   `json:"stockCount" validate:"required,min=0" example:"3"`
}

type UpdateBook struct {
	Title         *string `json:"title" validate:"omitempty,min=1"`
	Author        *string `json:"author" validate:"omitempty,min=1"`
	PublishedYear *int    `json:"publishedYear" validate:"omitempty,min=1000,notfuture"`
	ISBN          *string `json:"ISBN" validate:"omitempty,isbn"`
	Genre         *string `json:"genre" validate:"omitempty,min=1"`
	StockCount    *int    `json:"stockCount" validate:"omitempty,min=0"`
}

// Empty reports whether no field was supplied.
func (u UpdateBook) Empty() bool {
	return u.Title == nil && u.Author == nil && u.PublishedYear == nil &&
		u.ISBN == nil && u.Genre == nil && u.StockCount == nil
}

// ValidateCreate normalizes in and checks every create rule.
func ValidateCreate(in *CreateBook) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = strings.TrimSpace(in.Genre)
	in.ISBN = NormalizeISBN(in.ISBN)

	return Struct(in)
}

// ValidateUpdate normalizes the supplied fields of in and checks only those.
func ValidateUpdate(in *UpdateBook) error {
	if in.Empty() {
		return &Error{Code: CodeNoFieldsToUpdate}
	}

	trimPtr(in.Title)
	trimPtr(in.Author)
	trimPtr(in.Genre)
	if in.ISBN != nil {
		*in.ISBN = NormalizeISBN(*in.ISBN)
	}

	return Struct(in)
}

// NormalizeISBN drops hyphens and spaces and upper-cases a trailing x, so
// "0-8044-2957-x" and "080442957X" compare equal.
func NormalizeISBN(isbn string) string {
	var b strings.Builder
	b.Grow(len(isbn))
	for _, r := range strings.TrimSpace(isbn) {
		switch {
		case r == '-' || r == ' ':
			continue
		case r == 'x':
			b.WriteRune('X')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
