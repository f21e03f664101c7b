package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Proton-105/weva-assistant/internal/i18n"
)

const pageRefSeparator = "."

// PaginationButtons returns up to three inline buttons (prev, current page, next)
// that page through the list rendered by the message ref.
func PaginationButtons(t i18n.Translator, action, ref string, page, totalPages int) []InlineButton {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	buttons := make([]InlineButton, 0, 3)

	if page > 1 {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "pagination.pagination_prev", "◀️ Prev"),
			Unique: action,
			Data:   EncodePage(ref, page-1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   paginationLabel(t, page, totalPages),
		Unique: action,
		Data:   EncodePage(ref, page),
	})

	if page < totalPages {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "pagination.pagination_next", "Next ▶️"),
			Unique: action,
			Data:   EncodePage(ref, page+1),
		})
	}

	return buttons
}

// EncodePage builds pagination callback data. An empty ref yields the bare page number.
func EncodePage(ref string, page int) string {
	if ref == "" {
		return strconv.Itoa(page)
	}
	return ref + pageRefSeparator + strconv.Itoa(page)
}

// DecodePage parses data produced by EncodePage.
func DecodePage(data string) (ref string, page int, err error) {
	raw := data
	if idx := strings.LastIndex(data, pageRefSeparator); idx != -1 {
		ref, raw = data[:idx], data[idx+len(pageRefSeparator):]
	}

	page, err = strconv.Atoi(raw)
	if err != nil || page < 1 {
		return "", 0, fmt.Errorf("invalid page %q", data)
	}
	return ref, page, nil
}

// Paginate returns the items on page (1-based) and the number of pages.
// Out of range pages are clamped.
func Paginate[T any](items []T, page, size int) ([]T, int, int) {
	if size < 1 {
		size = len(items)
	}
	if size < 1 {
		return items, 1, 1
	}

	total := (len(items) + size - 1) / size
	if total < 1 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page, total
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := strings.TrimSpace(t.T(key))
	if text == "" || text == key {
		return fallback
	}

	return text
}

func paginationLabel(t i18n.Translator, page, total int) string {
	label := translated(t, "pagination.pagination_page", "")
	if label == "" {
		label = "Page {{.Page}}/{{.Total}}"
	}

	label = strings.ReplaceAll(label, "{{.Page}}", strconv.Itoa(page))
	label = strings.ReplaceAll(label, "{{.Total}}", strconv.Itoa(total))

	if strings.Contains(label, "{{") {
		return fmt.Sprintf("Page %d/%d", page, total)
	}

	return label
}
