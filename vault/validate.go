package vault

import (
	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type userRequest struct {
	UserID     string `validate:"required,max=255"`
	Passphrase string `validate:"required"`
}

type identityRequest struct {
	userRequest
	MailUsername string `validate:"required"`
	MailPassword string `validate:"required"`
}

func validateUser(userID, passphrase string) error {
	if err := validate.Struct(userRequest{UserID: userID, Passphrase: passphrase}); err != nil {
		return newError(common.ErrorValidation, "validating request", err)
	}
	return nil
}

func validateIdentity(userID, passphrase, mailUsername, mailPassword string) error {
	req := identityRequest{
		userRequest:  userRequest{UserID: userID, Passphrase: passphrase},
		MailUsername: mailUsername,
		MailPassword: mailPassword,
	}
	if err := validate.Struct(req); err != nil {
		return newError(common.ErrorValidation, "validating request", err)
	}
	return nil
}
