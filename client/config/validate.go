package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"golang.org/x/net/http/httpguts"

	"github.com/adamwoolhether/easyhttp/client/errs"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("config: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	// Methods share the token grammar of header field names.
	if err := validate.RegisterValidation("http_method", func(fl validator.FieldLevel) bool {
		return httpguts.ValidHeaderFieldName(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// check validates o against its declared tags.
func check(o *Options) error {
	if err := validate.Struct(o); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}

		var fields errs.FieldErrors
		for _, verror := range verrors {
			fields = append(fields, errs.FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			})
		}
		return fields
	}

	return nil
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	case "http_method":
		return "must be a valid HTTP method token"
	default:
		return verror.Translate(translator)
	}
}
