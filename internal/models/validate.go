package models

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateTrade checks the structural constraints declared on Trade.
func ValidateTrade(t *Trade) error {
	return validate.Struct(t)
}

// ValidateAccount checks the structural constraints declared on TradingAccount.
func ValidateAccount(a *TradingAccount) error {
	return validate.Struct(a)
}

// ValidateTag checks the structural constraints declared on Tag.
func ValidateTag(t *Tag) error {
	return validate.Struct(t)
}

// ValidateStrategy checks the structural constraints declared on Strategy.
func ValidateStrategy(s *Strategy) error {
	return validate.Struct(s)
}
