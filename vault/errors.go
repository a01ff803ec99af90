package vault

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mailvault/internal/common"
)

// Error kinds. Match them with errors.Is. Persistence implementations
// report absent rows with ErrorNotFound.
var (
	ErrorNotFound          = common.ErrorNotFound
	ErrorPersistence       = common.ErrorPersistence
	ErrorKeyGeneration     = common.ErrorKeyGeneration
	ErrorInvalidPassphrase = common.ErrorInvalidPassphrase
	ErrorEncryption        = common.ErrorEncryption
	ErrorDecryption        = common.ErrorDecryption
	ErrorValidation        = common.ErrorValidation
)

// Error is the single error type leaving the vault. Kind is one of the
// sentinels in internal/common; Context says which step failed.
type Error struct {
	Kind    error
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("%s: %v", e.Context, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Context, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func newError(kind error, context string, err error) error {
	return &Error{Kind: kind, Context: context, Err: err}
}

// KindOf returns the kind of a vault error, or nil when err did not come
// from this package.
func KindOf(err error) error {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return nil
}
