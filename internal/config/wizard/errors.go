package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errCredentialRequired = errors.New("this value is required")
	errPlaceholder        = errors.New("replace the example value with your real credential")
	errBucketInvalid      = errors.New("bucket names are 3-63 lowercase letters, digits, dots or hyphens")
	errAccountIDInvalid   = errors.New("account ID must be numeric")
)
