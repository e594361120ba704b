// Package validate, go-playground/validator etrafında ince bir sarmalayıcıdır.
//
// Tek bir *validator.Validate örneği paylaşılır (struct bilgisi cache'lenir).
// Hata mesajlarında Go field adı yerine json tag'i kullanılır, böylece
// istemci kendi gönderdiği alan adını görür.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/agrispine/server/pkg"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Get, paylaşılan validator örneğini döner.
func Get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return instance
}

// Struct, s'yi doğrular. Hata varsa pkg.ErrBadRequest ile sarılmış,
// okunabilir bir mesaj döner.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, translate(fe))
	}
	return fmt.Errorf("%w: %s", pkg.ErrBadRequest, strings.Join(msgs, "; "))
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "required_without_all":
		return fmt.Sprintf("%s is required when %s are empty", field, paramFields(fe.Param(), " and "))
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", field, paramFields(fe.Param(), " or "))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// paramFields, "Image Audio" gibi Go alan adı listesini json adlarına
// yakın küçük harfli bir metne çevirir.
func paramFields(param, sep string) string {
	return strings.ToLower(strings.Join(strings.Fields(param), sep))
}
