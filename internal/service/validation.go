package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"transparencia/internal/domain"
)

var biddingNumberRe = regexp.MustCompile(domain.BiddingNumberPattern)

// newValidator настраивает validator с правилами словарей закупок.
// Поля в ошибках называются так же, как ключи JSON.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("bidding_number", func(fl validator.FieldLevel) bool {
		return biddingNumberRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bidding_modality", func(fl validator.FieldLevel) bool {
		return domain.BiddingModality(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("bidding_type", func(fl validator.FieldLevel) bool {
		return domain.BiddingType(fl.Field().String()).Valid()
	})
	return v
}

// translateValidation переводит первую ошибку validator в доменную с именем поля
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.MissingRequiredField(field)
	case "min":
		return domain.InvalidField(field, "must be at least "+fe.Param()+" characters long")
	case "max":
		return domain.InvalidField(field, "must be at most "+fe.Param()+" characters long")
	case "bidding_number":
		return domain.InvalidField(field, "must match NNN/YYYY")
	default:
		return domain.InvalidField(field, "failed rule "+fe.Tag())
	}
}

// parseDate разбирает календарную дату; пустая строка - отсутствие значения
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, domain.InvalidField(field, "must be a calendar date in YYYY-MM-DD format")
	}
	return &t, nil
}

// checkMoney: неотрицательное значение, не более двух знаков после запятой
func checkMoney(field string, value *decimal.Decimal) error {
	if value == nil {
		return nil
	}
	if value.IsNegative() {
		return domain.InvalidField(field, "must not be negative")
	}
	if !value.Equal(value.Round(2)) {
		return domain.InvalidField(field, "must have at most 2 decimal places")
	}
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
