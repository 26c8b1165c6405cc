package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/platform/acm"
	"github.com/imamik/siteforge/internal/platform/cloudfront"
	"github.com/imamik/siteforge/internal/platform/route53"
	"github.com/imamik/siteforge/internal/platform/s3"
	"github.com/imamik/siteforge/internal/registrar"
	"github.com/imamik/siteforge/internal/util/naming"
)

// Step names, in execution order.
const (
	StepInstall            = "install"
	StepRegister           = "register"
	StepBuild              = "build"
	StepUpload             = "upload"
	StepRequestCertificate = "request-certificate"
	StepValidationRecords  = "validation-records"
	StepWaitCertificate    = "wait-certificate"
	StepCreateDistribution = "create-distribution"
	StepDNSCutover         = "dns-cutover"
	StepWaitDistribution   = "wait-distribution"
)

// Steps lists every step name in execution order.
var Steps = []string{
	StepInstall, StepRegister, StepBuild, StepUpload, StepRequestCertificate,
	StepValidationRecords, StepWaitCertificate, StepCreateDistribution,
	StepDNSCutover, StepWaitDistribution,
}

// Deps are the collaborators of an Orchestrator. Registrar may be nil when
// no run registers a domain.
type Deps struct {
	Builder       Builder
	Uploader      Uploader
	Registrar     Registrar
	Certificates  Certificates
	DNS           DNS
	Distributions Distributions
}

// Orchestrator runs the provisioning steps.
type Orchestrator struct {
	deps     Deps
	log      logr.Logger
	observer Observers
	confirm  registrar.ConfirmFunc
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithObserver adds an observer next to the logging one.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = append(o.observer, obs)
		}
	}
}

// WithConfirm asks fn before a domain is bought.
func WithConfirm(fn registrar.ConfirmFunc) Option {
	return func(o *Orchestrator) { o.confirm = fn }
}

// New creates an Orchestrator.
func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps: deps,
		log:  logr.Discard(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithName("pipeline")
	o.observer = append(Observers{NewLogObserver(o.log)}, o.observer...)
	return o
}

// run carries step outputs forward.
type run struct {
	id        string
	req       Request
	outputDir string
	region    string
	upload    s3.UploadResult
	certARN   string
	records   []acm.ValidationRecord
	zone      route53.HostedZone
	dist      cloudfront.Distribution
}

type step struct {
	name string
	// skip returns a reason when the step does not apply to the request.
	skip func(Request) string
	exec func(ctx context.Context, r *run) error
}

func (o *Orchestrator) steps() []step {
	return []step{
		{name: StepInstall, skip: func(r Request) string {
			if !r.Install {
				return "install not requested"
			}
			return ""
		}, exec: o.install},
		{name: StepRegister, skip: func(r Request) string {
			if !r.Register {
				return "domain registration not requested"
			}
			return ""
		}, exec: o.register},
		{name: StepBuild, exec: o.build},
		{name: StepUpload, exec: o.uploadSite},
		{name: StepRequestCertificate, exec: o.requestCertificate},
		{name: StepValidationRecords, exec: o.writeValidationRecords},
		{name: StepWaitCertificate, exec: o.waitCertificate},
		{name: StepCreateDistribution, exec: o.createDistribution},
		{name: StepDNSCutover, exec: o.cutover},
		{name: StepWaitDistribution, exec: o.waitDistribution},
	}
}

// Run executes every step for req. The first failing step ends the run with
// an *Error; resources created by earlier steps are left in place.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if req.Register && o.deps.Registrar == nil {
		return Result{}, errdefs.New(errdefs.KindValidation, "validate request", "no registrar configured")
	}
	req.Domain = naming.Normalize(req.Domain)

	r := &run{id: naming.RunID(), req: req}
	steps := o.steps()
	total := len(steps)
	start := o.now()

	o.emit(r, Event{Type: EventRunStarted, Total: total, Message: req.Domain})

	for i, s := range steps {
		ev := Event{Step: s.name, Index: i + 1, Total: total}

		if s.skip != nil {
			if reason := s.skip(req); reason != "" {
				ev.Type, ev.Message = EventStepSkipped, reason
				o.emit(r, ev)
				continue
			}
		}

		if err := ctx.Err(); err != nil {
			return Result{}, o.fail(r, ev, start, err)
		}

		ev.Type = EventStepStarted
		o.emit(r, ev)

		stepStart := o.now()
		err := s.exec(ctx, r)
		ev.Duration = o.now().Sub(stepStart)
		if err != nil {
			return Result{}, o.fail(r, ev, start, err)
		}
		ev.Type = EventStepCompleted
		o.emit(r, ev)
	}

	res := Result{
		RunID:              r.id,
		URL:                naming.HTTPSURL(req.Domain),
		DistributionID:     r.dist.ID,
		DistributionDomain: r.dist.DomainName,
		CertificateARN:     r.certARN,
		HostedZoneID:       r.zone.ID,
		NameServers:        r.zone.NameServers,
		BucketRegion:       r.region,
		FilesUploaded:      r.upload.Files,
		Duration:           o.now().Sub(start),
	}
	o.emit(r, Event{Type: EventRunCompleted, Total: total, Duration: res.Duration, Resource: res.URL})
	return res, nil
}

func (o *Orchestrator) fail(r *run, ev Event, start time.Time, err error) error {
	ev.Type, ev.Err = EventStepFailed, err
	o.emit(r, ev)

	perr := &Error{Step: ev.Step, Err: err}
	o.emit(r, Event{Type: EventRunFailed, Step: ev.Step, Index: ev.Index, Total: ev.Total, Err: perr, Duration: o.now().Sub(start)})
	return perr
}

func (o *Orchestrator) emit(r *run, e Event) {
	e.RunID = r.id
	if e.Timestamp.IsZero() {
		e.Timestamp = o.now()
	}
	o.observer.Event(e)
}

func (o *Orchestrator) ready(r *run, stepName, message, resource string) {
	o.emit(r, Event{Type: EventResourceReady, Step: stepName, Index: indexOf(stepName), Total: len(Steps), Message: message, Resource: resource})
}

func indexOf(name string) int {
	for i, s := range Steps {
		if s == name {
			return i + 1
		}
	}
	return 0
}

func (o *Orchestrator) install(ctx context.Context, r *run) error {
	return o.deps.Builder.Install(ctx, r.req.AppDir, r.req.InstallCommand)
}

func (o *Orchestrator) register(ctx context.Context, r *run) error {
	out, err := o.deps.Registrar.Purchase(ctx, registrar.PurchaseRequest{
		Domain:  r.req.Domain,
		Years:   r.req.Years,
		Contact: *r.req.Contact,
	}, o.confirm)
	if err != nil {
		return err
	}
	if out.Declined {
		return ErrPurchaseDeclined
	}
	o.ready(r, StepRegister, "domain registered", out.Result.OrderID)
	return nil
}

func (o *Orchestrator) build(ctx context.Context, r *run) error {
	var err error
	if r.req.SkipBuild {
		r.outputDir, err = o.deps.Builder.OutputDir(r.req.AppDir)
	} else {
		r.outputDir, err = o.deps.Builder.Build(ctx, r.req.AppDir, r.req.BuildCommand)
	}
	if err != nil {
		return err
	}
	o.ready(r, StepBuild, "build output", r.outputDir)
	return nil
}

func (o *Orchestrator) uploadSite(ctx context.Context, r *run) error {
	region, err := o.deps.Uploader.EnsureWebsiteBucket(ctx, r.req.Bucket)
	if err != nil {
		return err
	}
	r.region = region

	r.upload, err = o.deps.Uploader.UploadDirectory(ctx, r.req.Bucket, r.outputDir, s3.UploadOptions{
		Prefix: r.req.Prefix,
		Prune:  r.req.Prune,
	})
	if err != nil {
		return err
	}
	o.ready(r, StepUpload, fmt.Sprintf("uploaded %d files", r.upload.Files), r.req.Bucket)
	return nil
}

func (o *Orchestrator) requestCertificate(ctx context.Context, r *run) error {
	arn, err := o.deps.Certificates.Request(ctx, r.req.Domain, true)
	if err != nil {
		return err
	}
	r.certARN = arn
	o.ready(r, StepRequestCertificate, "certificate requested", arn)
	return nil
}

func (o *Orchestrator) writeValidationRecords(ctx context.Context, r *run) error {
	records, err := o.deps.Certificates.ValidationRecords(ctx, r.certARN, r.req.ValidationTimeout)
	if err != nil {
		return err
	}
	r.records = records

	zone, err := o.deps.DNS.GetOrCreateHostedZone(ctx, r.req.Domain)
	if err != nil {
		return err
	}
	r.zone = zone
	o.ready(r, StepValidationRecords, "hosted zone ready", zone.ID)
	if len(zone.NameServers) > 0 {
		o.log.Info("new hosted zone: point the domain's name servers at it", "domain", r.req.Domain, "nameServers", zone.NameServers)
	}

	if _, err := o.deps.DNS.WriteValidationRecords(ctx, r.req.Domain, records); err != nil {
		return err
	}
	return nil
}

func (o *Orchestrator) waitCertificate(ctx context.Context, r *run) error {
	return o.deps.Certificates.WaitForIssuance(ctx, r.certARN, r.req.CertificateTimeout)
}

func (o *Orchestrator) createDistribution(ctx context.Context, r *run) error {
	origin := cloudfront.Origin{Bucket: r.req.Bucket, Region: r.region, Path: r.req.Prefix}
	d, err := o.deps.Distributions.Ensure(ctx, origin, r.req.Domain, r.certARN)
	if err != nil {
		return err
	}
	r.dist = d
	o.ready(r, StepCreateDistribution, "distribution ready", d.ID)
	return nil
}

func (o *Orchestrator) cutover(ctx context.Context, r *run) error {
	_, err := o.deps.DNS.WriteCutoverRecords(ctx, r.req.Domain, r.dist.DomainName)
	return err
}

func (o *Orchestrator) waitDistribution(ctx context.Context, r *run) error {
	return o.deps.Distributions.WaitForDeployment(ctx, r.dist.ID, r.req.DistributionTimeout)
}
