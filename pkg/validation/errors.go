package validation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalid is wrapped by every field validation failure.
var ErrInvalid = errors.New("validation: invalid field")

// FieldError reports one failing field.
type FieldError struct {
	ID      string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("validation: field %q: %s", e.ID, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

// Join aggregates per-field messages into a single error in id order. It
// returns nil for an empty map.
func Join(messages map[string]string) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]string, 0, len(messages))
	for id := range messages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result *multierror.Error
	for _, id := range ids {
		result = multierror.Append(result, &FieldError{ID: id, Message: messages[id]})
	}
	return result.ErrorOrNil()
}

// Messages flattens an error produced by Join back into id -> message.
func Messages(err error) map[string]string {
	if err == nil {
		return nil
	}
	out := make(map[string]string)
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, item := range merr.Errors {
			var fieldErr *FieldError
			if errors.As(item, &fieldErr) {
				out[fieldErr.ID] = fieldErr.Message
			}
		}
		return out
	}
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		out[fieldErr.ID] = fieldErr.Message
	}
	return out
}
