package transport

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"

	"github.com/fastygo/tasktracker/domain"
)

// Global validator instance for reuse
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	// enumci checks membership in a space separated list, ignoring case.
	_ = v.RegisterValidation("enumci", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		for _, allowed := range strings.Fields(fl.Param()) {
			if strings.EqualFold(value, allowed) {
				return true
			}
		}
		return false
	})
	return v
}

type UserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Role     string `json:"role" validate:"required,enumci=USER ADMIN"`
}

func (r UserRequest) ToDomain() *domain.User {
	return &domain.User{
		Username: strings.TrimSpace(r.Username),
		Email:    strings.TrimSpace(r.Email),
		Role:     domain.NormalizeRole(r.Role),
	}
}

type TaskRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Status      string `json:"status" validate:"required,enumci=TODO IN_PROGRESS DONE"`
	Priority    string `json:"priority" validate:"omitempty,enumci=LOW MEDIUM HIGH"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	AssigneeID  string `json:"assignee_id" validate:"omitempty,uuid"`
}

// ToDomain upper-cases status and priority; the services compare against the
// canonical upper-case values only.
func (r TaskRequest) ToDomain() (*domain.Task, error) {
	task := &domain.Task{
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.NormalizeEnum(r.Status),
		Priority:    domain.NormalizeEnum(r.Priority),
		AssigneeID:  strings.TrimSpace(r.AssigneeID),
	}
	if r.DueDate != "" {
		due, err := civil.ParseDate(r.DueDate)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeInvalid, "due_date must be a YYYY-MM-DD date", err)
		}
		task.DueDate = &due
	}
	return task, nil
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
}

type SessionRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

// Decode unmarshals a JSON body and validates the result.
func Decode(body []byte, v interface{}) error {
	if len(body) == 0 {
		return domain.NewError(domain.ErrCodeInvalid, "request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "malformed JSON body", err)
	}
	return Validate(v)
}

// Validate runs struct validation and folds failures into a single INVALID error.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return domain.NewError(domain.ErrCodeInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "uuid":
		return fmt.Sprintf("%s must be a UUID", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	case "enumci":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
