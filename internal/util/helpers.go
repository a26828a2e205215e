package util

import "unicode/utf8"

// Ptr returns a pointer to the value.
func Ptr[T any](v T) *T {
	return &v
}

// Clamp constrains a value to a range.
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Truncate shortens text to at most max runes, ending with suffix when cut.
func Truncate(text string, max int, suffix string) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	keep := max - utf8.RuneCountInString(suffix)
	if keep <= 0 {
		return string([]rune(suffix)[:max])
	}
	return string([]rune(text)[:keep]) + suffix
}

// Page describes one slice of a listing.
type Page struct {
	Number int // zero-based, clamped into range
	Count  int // total pages, at least 1
	Offset int
	Size   int
}

// Paginate clamps page into [0, pages) for total items and the given size.
func Paginate(total, page, size int) Page {
	if size <= 0 {
		size = 1
	}
	count := (total + size - 1) / size
	if count < 1 {
		count = 1
	}
	page = Clamp(page, 0, count-1)
	return Page{Number: page, Count: count, Offset: page * size, Size: size}
}

// HasPrev and HasNext drive pagination buttons.
func (p Page) HasPrev() bool { return p.Number > 0 }

func (p Page) HasNext() bool { return p.Number < p.Count-1 }
