package aws

import (
	"errors"
	"net"

	"github.com/aws/smithy-go"

	"github.com/imamik/siteforge/internal/errdefs"
)

var codeKinds = map[string]errdefs.Kind{
	// throttling
	"Throttling":                errdefs.KindRateLimit,
	"ThrottlingException":       errdefs.KindRateLimit,
	"ThrottledException":        errdefs.KindRateLimit,
	"TooManyRequestsException":  errdefs.KindRateLimit,
	"RequestLimitExceeded":      errdefs.KindRateLimit,
	"RequestThrottled":          errdefs.KindRateLimit,
	"RequestThrottledException": errdefs.KindRateLimit,
	"PriorRequestNotComplete":   errdefs.KindRateLimit,
	"SlowDown":                  errdefs.KindRateLimit,
	"OperationLimitExceeded":    errdefs.KindRateLimit,

	// credentials
	"AccessDenied":                errdefs.KindAuth,
	"AccessDeniedException":       errdefs.KindAuth,
	"UnrecognizedClientException": errdefs.KindAuth,
	"InvalidClientTokenId":        errdefs.KindAuth,
	"InvalidAccessKeyId":          errdefs.KindAuth,
	"ExpiredToken":                errdefs.KindAuth,
	"ExpiredTokenException":       errdefs.KindAuth,
	"SignatureDoesNotMatch":       errdefs.KindAuth,
	"InvalidSignatureException":   errdefs.KindAuth,
	"MissingAuthenticationToken":  errdefs.KindAuth,

	// missing resources
	"NotFound":                  errdefs.KindNotFound,
	"NoSuchHostedZone":          errdefs.KindNotFound,
	"NoSuchChange":              errdefs.KindNotFound,
	"NoSuchDistribution":        errdefs.KindNotFound,
	"NoSuchBucket":              errdefs.KindNotFound,
	"NoSuchKey":                 errdefs.KindNotFound,
	"ResourceNotFoundException": errdefs.KindNotFound,

	// conflicts
	"HostedZoneAlreadyExists":   errdefs.KindUnavailable,
	"ConflictingDomainExists":   errdefs.KindUnavailable,
	"CNAMEAlreadyExists":        errdefs.KindUnavailable,
	"DistributionAlreadyExists": errdefs.KindUnavailable,
	"BucketAlreadyExists":       errdefs.KindUnavailable,
	"BucketAlreadyOwnedByYou":   errdefs.KindUnavailable,
	"ResourceInUseException":    errdefs.KindUnavailable,
	"DuplicateRequest":          errdefs.KindUnavailable,

	// malformed requests
	"InvalidInput":                            errdefs.KindValidation,
	"InvalidParameter":                        errdefs.KindValidation,
	"InvalidParameterException":               errdefs.KindValidation,
	"InvalidArgument":                         errdefs.KindValidation,
	"InvalidArgumentException":                errdefs.KindValidation,
	"InvalidChangeBatch":                      errdefs.KindValidation,
	"InvalidDomainName":                       errdefs.KindValidation,
	"InvalidDomainValidationOptionsException": errdefs.KindValidation,
	"InvalidViewerCertificate":                errdefs.KindValidation,
	"InvalidRequest":                          errdefs.KindValidation,
	"MalformedXML":                            errdefs.KindValidation,
	"ValidationException":                     errdefs.KindValidation,
	"UnsupportedTLD":                          errdefs.KindUnsupported,

	// service side
	"InternalFailure":             errdefs.KindServer,
	"InternalError":               errdefs.KindServer,
	"InternalServerError":         errdefs.KindServer,
	"InternalServiceError":        errdefs.KindServer,
	"ServiceUnavailable":          errdefs.KindServer,
	"ServiceUnavailableException": errdefs.KindServer,
	"ServiceFailure":              errdefs.KindServer,
}

// Classify wraps an SDK error with its errdefs kind. The original error stays
// reachable through errors.As. A nil err yields nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *errdefs.Error
	if errors.As(err, &classified) {
		return err
	}
	return &errdefs.Error{Kind: kindOf(err), Op: op, Err: err, StatusCode: statusCode(err)}
}

// ErrorCode returns the AWS API error code carried by err, if any.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// HasCode reports whether err carries one of the given AWS API error codes.
func HasCode(err error, codes ...string) bool {
	code := ErrorCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func kindOf(err error) errdefs.Kind {
	if kind, ok := codeKinds[ErrorCode(err)]; ok {
		return kind
	}
	if status := statusCode(err); status != 0 {
		if kind := errdefs.FromHTTPStatus(status); kind != errdefs.KindUnknown {
			return kind
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errdefs.KindNetwork
	}
	return errdefs.KindUnknown
}

func statusCode(err error) int {
	var resp interface{ HTTPStatusCode() int }
	if errors.As(err, &resp) {
		return resp.HTTPStatusCode()
	}
	return 0
}
