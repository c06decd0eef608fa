package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type SchemaVersion string

const (
	// SchemaV1 backends have no completion flag on exercises.
	SchemaV1 SchemaVersion = "v1"
	// SchemaV2 backends always send is_completed.
	SchemaV2 SchemaVersion = "v2"
)

func ParseSchemaVersion(s string) (SchemaVersion, error) {
	switch SchemaVersion(strings.ToLower(strings.TrimSpace(s))) {
	case SchemaV1:
		return SchemaV1, nil
	case SchemaV2, "":
		return SchemaV2, nil
	default:
		return "", fmt.Errorf("unknown backend schema version: %s", s)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names, so mismatches name the field as the backend sends it
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type exerciseWire interface {
	toExercise() Exercise
}

type exerciseV1 struct {
	ID          *int   `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Group       string `json:"group" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	IsCompleted *bool  `json:"is_completed"`
}

func (e *exerciseV1) toExercise() Exercise {
	ex := Exercise{
		ID:    *e.ID,
		Name:  e.Name,
		Group: e.Group,
		Date:  e.Date,
	}
	// v1 has no completion concept, a flag sent anyway is still honored
	if e.IsCompleted != nil {
		ex.Completed = *e.IsCompleted
	}
	return ex
}

type exerciseV2 struct {
	ID          *int   `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Group       string `json:"group" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	IsCompleted *bool  `json:"is_completed" validate:"required"`
}

func (e *exerciseV2) toExercise() Exercise {
	return Exercise{
		ID:        *e.ID,
		Name:      e.Name,
		Group:     e.Group,
		Date:      e.Date,
		Completed: *e.IsCompleted,
	}
}

type userWire interface {
	toUser() *User
}

type userV1 struct {
	ID        *int         `json:"id" validate:"required"`
	Username  string       `json:"username" validate:"required"`
	Email     string       `json:"email"`
	Exercises []exerciseV1 `json:"exercises" validate:"dive"`
}

func (u *userV1) toUser() *User {
	user := &User{ID: *u.ID, Username: u.Username, Email: u.Email}
	for i := range u.Exercises {
		user.Exercises = append(user.Exercises, u.Exercises[i].toExercise())
	}
	return user
}

type userV2 struct {
	ID        *int         `json:"id" validate:"required"`
	Username  string       `json:"username" validate:"required"`
	Email     string       `json:"email"`
	Exercises []exerciseV2 `json:"exercises" validate:"dive"`
}

func (u *userV2) toUser() *User {
	user := &User{ID: *u.ID, Username: u.Username, Email: u.Email}
	for i := range u.Exercises {
		user.Exercises = append(user.Exercises, u.Exercises[i].toExercise())
	}
	return user
}

func newUserWire(schema SchemaVersion) userWire {
	if schema == SchemaV1 {
		return &userV1{}
	}
	return &userV2{}
}

func newExerciseWire(schema SchemaVersion) exerciseWire {
	if schema == SchemaV1 {
		return &exerciseV1{}
	}
	return &exerciseV2{}
}

type totalWire struct {
	Total *int `json:"total" validate:"required,min=0"`
}

type dayCountWire struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Count *int   `json:"count" validate:"required,min=0"`
}

type perDayWire struct {
	Days []dayCountWire `json:"days" validate:"dive"`
}

func (w *perDayWire) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &w.Days)
}

type groupCountWire struct {
	Group string `json:"group" validate:"required"`
	Count *int   `json:"count" validate:"required,min=0"`
}

type perGroupWire struct {
	Groups []groupCountWire `json:"groups" validate:"dive"`
}

func (w *perGroupWire) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &w.Groups)
}

// mutationWire is the response of a create or update. Backends return either the
// exercise itself, the exercise wrapped under "exercise", or just a message.
type mutationWire struct {
	ID       *int            `json:"id"`
	Exercise json.RawMessage `json:"exercise"`
	Message  string          `json:"message"`
}

type messageWire struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// decode unmarshals a 2xx response body into target and validates it against its schema tags.
func decode(op operation, schema SchemaVersion, statusCode int, body []byte, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &SchemaMismatchError{
				Op:     op.name,
				Schema: schema,
				Field:  typeErr.Field,
				Rule:   "type",
				Err:    err,
			}
		}
		return &FetchError{
			Op:         op.name,
			StatusCode: statusCode,
			Message:    op.fallback,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	if err := validate.Struct(target); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			fieldErr := validationErrs[0]
			return &SchemaMismatchError{
				Op:     op.name,
				Schema: schema,
				Field:  fieldPath(fieldErr.Namespace()),
				Rule:   fieldErr.Tag(),
				Err:    err,
			}
		}
		return fmt.Errorf("validate %s response: %w", op.name, err)
	}

	return nil
}

// fieldPath drops the leading wire type name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// validateInput checks user input before it is sent anywhere.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return fmt.Errorf("validate input: %w", err)
	}

	fieldErr := validationErrs[0]
	field := fieldErr.Field()
	var msg string
	switch fieldErr.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "datetime":
		msg = fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field)
	case "email":
		msg = fmt.Sprintf("%s must be a valid email address", field)
	case "gt":
		msg = fmt.Sprintf("%s must be greater than 0", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}

	return &ValidationError{Field: field, Message: msg}
}
