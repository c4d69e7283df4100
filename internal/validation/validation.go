// Package validation checks request bodies before any state is touched and
// reports failures per field.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"store-manager/internal/models"
)

const (
	specialChars = "!@#$%^&*"
	minYear      = 1900
)

// FieldError mirrors the error items existing clients already render.
type FieldError struct {
	Type     string `json:"type"`
	Value    any    `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New() *Validator {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Validator {
	v := &Validator{validate: validator.New(), now: now}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails on empty tags or nil funcs.
	_ = v.validate.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		n := utf8.RuneCountInString(s)
		return n >= 8 && n <= 16 && hasUpperAndSpecial(s)
	})
	_ = v.validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return hasUpperAndSpecial(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("loose_url", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == "" || strings.Contains(s, ".")
	})
	_ = v.validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := models.ParseRole(fl.Field().String())
		return err == nil
	})
	v.validate.RegisterStructValidation(v.validateStoreProfile, models.StoreProfileRequest{})

	return v
}

func (v *Validator) validateStoreProfile(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.StoreProfileRequest)
	y := req.EstablishedYear
	if !y.Set {
		return
	}
	if y.Invalid || y.Value < minYear || y.Value > v.now().Year() {
		sl.ReportError(y.Raw, "establishedYear", "EstablishedYear", "established_year", "")
	}
}

// Struct returns nil when s is valid.
func (v *Validator) Struct(s any) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Type: "field", Msg: "Invalid value", Location: "body"}}
	}

	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErr := FieldError{
			Type:     "field",
			Msg:      message(t, fe),
			Path:     fe.Field(),
			Location: "body",
		}
		if !strings.Contains(strings.ToLower(fe.Field()), "password") {
			fieldErr.Value = fe.Value()
		}
		out = append(out, fieldErr)
	}
	return out
}

// message reads the msg struct tag. Entries are separated by ";" and may be
// scoped to a validation tag as "tag=message"; an unscoped entry is the default.
func message(t reflect.Type, fe validator.FieldError) string {
	fallback := "Invalid value"
	f, ok := t.FieldByName(fe.StructField())
	if !ok {
		return fallback
	}
	for _, part := range strings.Split(f.Tag.Get("msg"), ";") {
		tag, msg, scoped := strings.Cut(part, "=")
		if !scoped {
			fallback = part
			continue
		}
		if tag == fe.Tag() {
			return msg
		}
	}
	return fallback
}

func hasUpperAndSpecial(s string) bool {
	var upper, special bool
	for _, r := range s {
		if unicode.IsUpper(r) && r < unicode.MaxASCII {
			upper = true
		}
		if strings.ContainsRune(specialChars, r) {
			special = true
		}
	}
	return upper && special
}
