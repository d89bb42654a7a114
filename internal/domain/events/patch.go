package events

import (
	"strconv"
	"unicode/utf8"

	"github.com/Togather-Foundation/eventboard/internal/sanitize"
	"github.com/Togather-Foundation/eventboard/internal/validation"
)

// Patch is a partial update. Nil fields are left unchanged. Required fields
// (title, date, place) cannot be cleared; category and description can be set
// to "" to remove them.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Date        *string `json:"date,omitempty"`
	Place       *string `json:"place,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Date == nil && p.Place == nil && p.Category == nil && p.Description == nil
}

// Apply returns the event with the patch applied. Input is sanitized the same
// way as on create. The original event is not modified.
func (p Patch) Apply(event Event) (Event, error) {
	var errs validation.Errors

	setRequired := func(field string, value *string, dst *string, max int) {
		if value == nil {
			return
		}
		clean := sanitize.Text(*value)
		switch {
		case clean == "":
			errs = append(errs, validation.Required(field))
		case utf8.RuneCountInString(clean) > max:
			errs = append(errs, tooLong(field, max))
		default:
			*dst = clean
		}
	}
	setRequired("title", p.Title, &event.Title, 200)
	setRequired("date", p.Date, &event.Date, 64)
	setRequired("place", p.Place, &event.Place, 200)

	if p.Category != nil {
		clean := sanitize.Text(*p.Category)
		if utf8.RuneCountInString(clean) > 100 {
			errs = append(errs, tooLong("category", 100))
		} else {
			event.Category = clean
		}
	}
	if p.Description != nil {
		clean := sanitize.HTML(*p.Description)
		if utf8.RuneCountInString(clean) > 5000 {
			errs = append(errs, tooLong("description", 5000))
		} else {
			event.Description = clean
		}
	}

	if len(errs) > 0 {
		return Event{}, errs
	}
	return event, nil
}

func tooLong(field string, max int) validation.FieldError {
	return validation.FieldError{Field: field, Message: "must be at most " + strconv.Itoa(max) + " characters"}
}
