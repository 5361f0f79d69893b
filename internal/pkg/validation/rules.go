package validation

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Course code: department letters, a number and an optional section letter (CS101, MATH201A)
	CourseCodePattern = `^[A-Za-z]{2,8}[0-9]{2,4}[A-Za-z]?$`

	// Phone number: optional leading +, digits with spaces, dashes or dots
	PhonePattern = `^\+?[0-9][0-9 .\-]{5,28}[0-9]$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	CourseCode *regexp.Regexp
	Phone      *regexp.Regexp
}{
	CourseCode: regexp.MustCompile(CourseCodePattern),
	Phone:      regexp.MustCompile(PhonePattern),
}

// Binding tags registered by RegisterRules
const (
	TagCourseCode = "coursecode"
	TagPhone      = "phone"
)

func patternRule(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

// Register adds the custom rules to v
func Register(v *validator.Validate) error {
	rules := map[string]*regexp.Regexp{
		TagCourseCode: CompiledPatterns.CourseCode,
		TagPhone:      CompiledPatterns.Phone,
	}
	for tag, pattern := range rules {
		if err := v.RegisterValidation(tag, patternRule(pattern)); err != nil {
			return fmt.Errorf("register %s rule: %w", tag, err)
		}
	}
	return nil
}

// RegisterRules adds the custom rules to gin's binding validator
func RegisterRules() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}
