package validation

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator 统一的结构体校验器（带英文错误翻译）
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New 创建校验器
func New() (*Validator, error) {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Validator{
		validate:   validate,
		translator: trans,
	}, nil
}

// Struct 校验结构体，返回第一条翻译后的错误信息
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return &ValidationError{Message: errs[0].Translate(v.translator)}
	}
	return err
}

// ValidationError 校验错误（用于返回给前端）
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
