package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const ownerPrefix = "publishers#uuid:"

var (
	altcurrencyPattern = regexp.MustCompile(`^[0-9A-Z]{2,}$`)
	channelPattern     = regexp.MustCompile(`^[a-z0-9_]+#channel:\S+$`)
	tokenPattern       = regexp.MustCompile(`^\w+$`)
)

// RegisterValidators installs the referral tags on gin's validator engine.
// It is safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return registerValidators(v)
}

func registerValidators(v *validator.Validate) error {
	validators := map[string]validator.Func{
		"altcurrency": validateAltcurrency,
		"owner":       validateOwner,
		"publisher":   validatePublisher,
		"token":       validateToken,
		"countrycode": func(fl validator.FieldLevel) bool {
			code := strings.ToUpper(fl.Field().String())
			return code == "OT" || v.Var(code, "iso3166_1_alpha2") == nil
		},
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// validateFields checks group field selectors against the known group fields.
func validateFields(fields []string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.Var(fields, "dive,oneof=name activeAt codes currency amount")
}

func validateAltcurrency(fl validator.FieldLevel) bool {
	return altcurrencyPattern.MatchString(fl.Field().String())
}

// validateOwner accepts publishers#uuid:<uuid>.
func validateOwner(fl validator.FieldLevel) bool {
	owner := fl.Field().String()
	if !strings.HasPrefix(owner, ownerPrefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(owner, ownerPrefix))
	return err == nil
}

// validatePublisher accepts a site domain or a <provider>#channel:<id> identity.
func validatePublisher(fl validator.FieldLevel) bool {
	publisher := fl.Field().String()
	if channelPattern.MatchString(publisher) {
		return true
	}
	return isDomain(publisher)
}

func validateToken(fl validator.FieldLevel) bool {
	return tokenPattern.MatchString(fl.Field().String())
}

func isDomain(s string) bool {
	if len(s) == 0 || len(s) > 253 || !strings.Contains(s, ".") {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}
