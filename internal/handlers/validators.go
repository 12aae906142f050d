package handlers

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

var registerOnce sync.Once

// RegisterValidators adds the ledger's custom binding rules to gin's validator engine.
// Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("accounttype", validateAccountType)
	})
	return err
}

func validateAccountType(fl validator.FieldLevel) bool {
	return domain.AccountType(fl.Field().String()).IsValid()
}
