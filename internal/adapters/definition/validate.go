package definition

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// Rule keywords cannot name a variable or term.
	reserved = map[string]bool{"AND": true, "OR": true, "NOT": true, "IS": true}
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return identPattern.MatchString(s) && !reserved[strings.ToUpper(s)]
		})
	})
	return validate
}

// Validate checks the definition's shape: required fields, identifier
// syntax, shape names, breakpoint counts, universe bounds. Reference checks
// (undefined variables, terms) happen in Build.
func (d *Definition) Validate() error {
	err := validatorInstance().Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, &fuzzy.ConfigurationError{Reason: describeFieldError(fe)})
	}
	return errors.Join(errs...)
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Definition.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "ident":
		return fmt.Sprintf("%s %q must be an identifier (letters, digits, _) and not a rule keyword", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of: %s", field, fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s items", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s takes at most %s items", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
