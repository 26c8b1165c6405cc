package pipeline

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/registrar"
	"github.com/imamik/siteforge/internal/util/validate"
)

// Default wait budgets.
const (
	DefaultCertificateTimeout  = 30 * time.Minute
	DefaultDistributionTimeout = 30 * time.Minute
	DefaultValidationTimeout   = 5 * time.Minute
)

const maxRegistrationYears = 10

var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Request describes one run. It is copied when the run starts.
type Request struct {
	AppDir string
	Bucket string
	Domain string

	// Register buys Domain before anything else happens.
	Register bool
	Contact  *registrar.Contact
	Years    int

	Install        bool
	InstallCommand string
	BuildCommand   string
	// SkipBuild uploads the existing build output of AppDir.
	SkipBuild bool

	// Prefix is prepended to every uploaded key.
	Prefix string
	// Prune deletes bucket objects that are not part of the upload.
	Prune bool

	CertificateTimeout  time.Duration
	DistributionTimeout time.Duration
	ValidationTimeout   time.Duration
}

// WithDefaults fills unset durations and the registration period.
func (r Request) WithDefaults() Request {
	if r.Years == 0 {
		r.Years = 1
	}
	if r.CertificateTimeout == 0 {
		r.CertificateTimeout = DefaultCertificateTimeout
	}
	if r.DistributionTimeout == 0 {
		r.DistributionTimeout = DefaultDistributionTimeout
	}
	if r.ValidationTimeout == 0 {
		r.ValidationTimeout = DefaultValidationTimeout
	}
	return r
}

// Validate checks the request before any step runs. All problems are
// reported together.
func (r Request) Validate() error {
	var problems []string

	if _, err := validate.Domain(r.Domain); err != nil {
		problems = append(problems, err.Error())
	}
	if !bucketName.MatchString(r.Bucket) {
		problems = append(problems, fmt.Sprintf("invalid bucket name %q", r.Bucket))
	}

	if r.AppDir == "" {
		problems = append(problems, "app directory is required")
	} else if info, err := os.Stat(r.AppDir); err != nil || !info.IsDir() {
		problems = append(problems, fmt.Sprintf("app directory %s does not exist", r.AppDir))
	}

	if r.Register {
		switch {
		case r.Contact == nil:
			problems = append(problems, "a registrant contact is required to register a domain")
		default:
			if err := r.Contact.Validate(); err != nil {
				problems = append(problems, err.Error())
			}
		}
		if r.Years < 1 || r.Years > maxRegistrationYears {
			problems = append(problems, fmt.Sprintf("registration period must be 1-%d years", maxRegistrationYears))
		}
	}

	if r.CertificateTimeout < 0 || r.DistributionTimeout < 0 || r.ValidationTimeout < 0 {
		problems = append(problems, "timeouts must not be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	return errdefs.New(errdefs.KindValidation, "validate request", joinProblems(problems))
}

func joinProblems(p []string) string {
	if len(p) == 1 {
		return p[0]
	}
	msg := fmt.Sprintf("%d problems:", len(p))
	for _, s := range p {
		msg += "\n  - " + s
	}
	return msg
}

// Result is what a successful run produced.
type Result struct {
	RunID              string
	URL                string
	DistributionID     string
	DistributionDomain string
	CertificateARN     string
	HostedZoneID       string
	// NameServers must be set at the registrar when the zone is new.
	NameServers   []string
	BucketRegion  string
	FilesUploaded int
	Duration      time.Duration
}
