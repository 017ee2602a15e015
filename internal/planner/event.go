package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pbaille/contentforge/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// EventInput is the payload for scheduling a post
type EventInput struct {
	Day      string          `json:"day" validate:"required,datetime=2006-01-02"`
	Time     string          `json:"time" validate:"required,datetime=15:04"`
	Platform domain.Platform `json:"platform" validate:"required,oneof=instagram tiktok"`
	Title    string          `json:"title" validate:"required,max=120"`
	Caption  string          `json:"caption"`
	Hashtags []string        `json:"hashtags"`
	Score    *float64        `json:"score" validate:"omitempty,gte=0,lte=10"`
}

// FromVariant builds the input for scheduling a generated variant. The score is
// a frozen copy of the variant's final metric, nil when it was not scored.
func FromVariant(v domain.Variant, platform domain.Platform, day, hhmm string) EventInput {
	in := EventInput{
		Day:      day,
		Time:     hhmm,
		Platform: platform,
		Title:    v.Title,
		Caption:  v.Caption,
		Hashtags: append([]string(nil), v.Hashtags...),
	}
	if v.Metrics != nil {
		score := v.Metrics.Final
		in.Score = &score
	}
	return in
}

// ValidationError reports which input fields were rejected
type ValidationError struct {
	Fields []string
	err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// Validate checks the input against the field rules
func (in EventInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate event: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return &ValidationError{Fields: fields, err: err}
}
