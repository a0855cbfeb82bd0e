package validators

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"reflect"
	"regexp"
)

var (
	// CNJ: 7 digit sequential, 2 digit check, 4 digit year, 1 digit segment,
	// 2 digit tribunal, 4 digit origin unit, separators exactly as below.
	cnjRegex  = regexp.MustCompile(`^\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}$`)
	hasSpaces = regexp.MustCompile(`\s+`)
)

// IsCNJ reports whether s is a well formed CNJ process number. Malformed
// numbers must be rejected before any partner call is made.
func IsCNJ(s string) bool {
	return cnjRegex.MatchString(s)
}

func CNJ(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return IsCNJ(val)
}

// NoWhiteSpaces returns false if the string contains any whitespace (rejecting the input).
func NoWhiteSpaces(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return !hasSpaces.MatchString(field.String())
}

func NoDupes(fl validator.FieldLevel) bool {
	slice := fl.Field()
	if slice.Kind() != reflect.Slice {
		log.Warnf("validator 'nodupes' applied to non-slice type: %s\n", slice.Kind().String())
		return false
	}

	length := slice.Len()
	seen := make(map[any]bool, length)
	for i := 0; i < length; i++ {
		val := slice.Index(i).Interface()
		if _, exists := seen[val]; exists {
			return false
		}
		seen[val] = true
	}
	return true
}
