package events

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/domain/ids"
	"github.com/Togather-Foundation/eventboard/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 30
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit within 32 bits.
	MaxPage = math.MaxInt32 / MaxLimit
)

// ParseListParams reads list filters and pagination from query parameters.
// now anchors the upcoming filter to a calendar day in UTC.
func ParseListParams(values url.Values, now time.Time) (Filters, Pagination, error) {
	filters := Filters{}
	pagination := Pagination{Page: DefaultPage, Limit: DefaultLimit}

	page, err := parsePositive(values, "page", DefaultPage, MaxPage)
	if err != nil {
		return filters, pagination, err
	}
	pagination.Page = page

	limit, err := parsePositive(values, "limit", DefaultLimit, MaxLimit)
	if err != nil {
		return filters, pagination, err
	}
	pagination.Limit = limit

	filters.Query = strings.TrimSpace(values.Get("q"))
	filters.Category = strings.TrimSpace(values.Get("category"))

	if raw := strings.TrimSpace(values.Get("upcoming")); raw != "" {
		upcoming, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, pagination, validation.FieldError{Field: "upcoming", Message: "must be true or false"}
		}
		if upcoming {
			filters.UpcomingFrom = now.UTC().Format("2006-01-02")
		}
	}

	if owner := strings.TrimSpace(values.Get("owner")); owner != "" {
		if err := ids.ValidateULID(owner); err != nil {
			return filters, pagination, validation.FieldError{Field: "owner", Message: "invalid ULID"}
		}
		filters.OwnerID = ids.Normalize(owner)
	}

	return filters, pagination, nil
}

// NormalizePagination applies defaults and bounds to programmatic callers.
func NormalizePagination(p Pagination) (Pagination, error) {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 || p.Page > MaxPage {
		return p, validation.FieldError{Field: "page", Message: "must be between 1 and " + strconv.Itoa(MaxPage)}
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return p, validation.FieldError{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(MaxLimit)}
	}
	return p, nil
}

func parsePositive(values url.Values, field string, fallback, max int) (int, error) {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return 0, validation.FieldError{Field: field, Message: "must be between 1 and " + strconv.Itoa(max)}
	}
	if err != nil {
		return 0, validation.FieldError{Field: field, Message: "must be a number"}
	}
	if n < 1 {
		return 0, validation.FieldError{Field: field, Message: "must be a positive integer"}
	}
	if max > 0 && n > max {
		return 0, validation.FieldError{Field: field, Message: "must be between 1 and " + strconv.Itoa(max)}
	}
	return n, nil
}
