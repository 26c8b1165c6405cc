// Package route53 manages hosted zones and the records that validate
// certificates and point a domain at its CloudFront distribution.
//
// Every record write is an UPSERT, so repeating a write leaves the zone in the
// same state.
package route53

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/platform/acm"
	awsplatform "github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/util/naming"
	"github.com/imamik/siteforge/internal/util/poll"
	"github.com/imamik/siteforge/internal/util/retry"
)

const (
	// CloudFrontHostedZoneID is the fixed hosted zone of every CloudFront
	// distribution, used as the alias target zone.
	CloudFrontHostedZoneID = "Z2FDTNDATAQYW2"

	// RecordTTL is the TTL of non-alias records.
	RecordTTL = 300

	// DefaultChangePollInterval is how often change status is polled.
	DefaultChangePollInterval = 5 * time.Second

	hostedZonePrefix = "/hostedzone/"
	changePrefix     = "/change/"
)

// API is the subset of the Route 53 client used by Manager.
type API interface {
	ListHostedZones(ctx context.Context, in *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
	CreateHostedZone(ctx context.Context, in *route53.CreateHostedZoneInput, optFns ...func(*route53.Options)) (*route53.CreateHostedZoneOutput, error)
	GetHostedZone(ctx context.Context, in *route53.GetHostedZoneInput, optFns ...func(*route53.Options)) (*route53.GetHostedZoneOutput, error)
	ChangeResourceRecordSets(ctx context.Context, in *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
	GetChange(ctx context.Context, in *route53.GetChangeInput, optFns ...func(*route53.Options)) (*route53.GetChangeOutput, error)
}

// HostedZone is a public hosted zone.
type HostedZone struct {
	// ID without the /hostedzone/ prefix.
	ID string
	// Name without the trailing dot.
	Name        string
	NameServers []string
}

// Manager manages hosted zones and records.
type Manager struct {
	api        API
	log        logr.Logger
	read       retry.Policy
	mutation   retry.Policy
	changePoll time.Duration
	onPoll     func(resource string)
	// callerRef generates the fallback caller reference for zone creation.
	callerRef func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithRetryPolicies overrides the read and mutation retry policies.
func WithRetryPolicies(read, mutation retry.Policy) Option {
	return func(m *Manager) {
		m.read = read
		m.mutation = mutation
	}
}

// WithChangePollInterval overrides how often change status is polled.
func WithChangePollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.changePoll = d
		}
	}
}

// WithPollHook installs a callback run after every poll.
func WithPollHook(fn func(resource string)) Option {
	return func(m *Manager) { m.onPoll = fn }
}

// NewManager creates a Manager.
func NewManager(api API, opts ...Option) *Manager {
	m := &Manager{
		api:        api,
		log:        logr.Discard(),
		read:       retry.ReadPolicy(),
		mutation:   retry.MutationPolicy(),
		changePoll: DefaultChangePollInterval,
		callerRef:  func() string { return naming.CallerReference("siteforge-zone") },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithName("route53")
	return m
}

// GetOrCreateHostedZone returns the public hosted zone for domain, creating it
// when none exists. Repeated calls return the same zone.
func (m *Manager) GetOrCreateHostedZone(ctx context.Context, domain string) (HostedZone, error) {
	domain = naming.Normalize(domain)

	zone, found, err := m.FindHostedZone(ctx, domain)
	if err != nil {
		return HostedZone{}, err
	}
	if found {
		m.log.V(1).Info("using existing hosted zone", "domain", domain, "zone", zone.ID)
		return zone, nil
	}

	zone, err = m.createZone(ctx, domain, naming.HostedZoneCallerReference(domain))
	if err == nil {
		return zone, nil
	}
	if !awsplatform.HasCode(err, "HostedZoneAlreadyExists", "ConflictingDomainExists") {
		return HostedZone{}, err
	}

	// Another run created the zone between the lookup and the create, or the
	// deterministic caller reference was used for a zone since deleted.
	m.log.Info("hosted zone create conflicted, looking up again", "domain", domain, "code", awsplatform.ErrorCode(err))
	zone, found, err = m.FindHostedZone(ctx, domain)
	if err != nil {
		return HostedZone{}, err
	}
	if found {
		return zone, nil
	}
	return m.createZone(ctx, domain, m.callerRef())
}

// FindHostedZone looks up the public hosted zone whose name matches domain
// exactly, ignoring case and the trailing dot.
func (m *Manager) FindHostedZone(ctx context.Context, domain string) (HostedZone, bool, error) {
	domain = naming.Normalize(domain)

	var marker *string
	for {
		out, err := retry.Do(ctx, m.read, func(ctx context.Context) (*route53.ListHostedZonesOutput, error) {
			out, err := m.api.ListHostedZones(ctx, &route53.ListHostedZonesInput{Marker: marker})
			return out, awsplatform.Classify("list hosted zones", err)
		}, nil)
		if err != nil {
			return HostedZone{}, false, err
		}

		for _, z := range out.HostedZones {
			if z.Config != nil && z.Config.PrivateZone {
				continue
			}
			if naming.SameDomain(aws.ToString(z.Name), domain) {
				return HostedZone{ID: trimID(aws.ToString(z.Id)), Name: naming.Normalize(aws.ToString(z.Name))}, true, nil
			}
		}

		if !out.IsTruncated || aws.ToString(out.NextMarker) == "" {
			return HostedZone{}, false, nil
		}
		marker = out.NextMarker
	}
}

// NameServers returns the delegation set of a zone, which the registrar must
// point at for the records to resolve.
func (m *Manager) NameServers(ctx context.Context, zoneID string) ([]string, error) {
	out, err := retry.Do(ctx, m.read, func(ctx context.Context) (*route53.GetHostedZoneOutput, error) {
		out, err := m.api.GetHostedZone(ctx, &route53.GetHostedZoneInput{Id: aws.String(trimID(zoneID))})
		return out, awsplatform.Classify("get hosted zone", err)
	}, nil)
	if err != nil {
		return nil, err
	}
	if out.DelegationSet == nil {
		return nil, nil
	}
	return out.DelegationSet.NameServers, nil
}

func (m *Manager) createZone(ctx context.Context, domain, callerRef string) (HostedZone, error) {
	out, err := retry.Do(ctx, m.mutation, func(ctx context.Context) (*route53.CreateHostedZoneOutput, error) {
		out, err := m.api.CreateHostedZone(ctx, &route53.CreateHostedZoneInput{
			Name:            aws.String(domain),
			CallerReference: aws.String(callerRef),
			HostedZoneConfig: &types.HostedZoneConfig{
				Comment: aws.String("Managed by siteforge"),
			},
		})
		return out, awsplatform.Classify("create hosted zone", err)
	}, nil)
	if err != nil {
		return HostedZone{}, err
	}

	zone := HostedZone{
		ID:   trimID(aws.ToString(out.HostedZone.Id)),
		Name: naming.Normalize(aws.ToString(out.HostedZone.Name)),
	}
	if out.DelegationSet != nil {
		zone.NameServers = out.DelegationSet.NameServers
	}
	m.log.Info("created hosted zone", "domain", domain, "zone", zone.ID, "nameServers", zone.NameServers)
	return zone, nil
}

// WriteValidationRecords upserts the certificate validation CNAMEs into the
// domain's zone in a single change batch and returns the change ID.
func (m *Manager) WriteValidationRecords(ctx context.Context, domain string, records []acm.ValidationRecord) (string, error) {
	if len(records) == 0 {
		return "", errdefs.New(errdefs.KindValidation, "write validation records", "no validation records to write")
	}
	zone, err := m.GetOrCreateHostedZone(ctx, domain)
	if err != nil {
		return "", err
	}

	changes := make([]types.Change, 0, len(records))
	for _, r := range records {
		changes = append(changes, upsert(cname(r.Name, r.Value)))
	}
	return m.change(ctx, zone.ID, "ACM certificate validation for "+zone.Name, changes)
}

// WriteCutoverRecords points the apex at the distribution with an alias A
// record and www.<domain> at it with a CNAME.
func (m *Manager) WriteCutoverRecords(ctx context.Context, domain, distributionDomain string) (string, error) {
	if distributionDomain == "" {
		return "", errdefs.New(errdefs.KindValidation, "write cutover records", "distribution domain is required")
	}
	zone, err := m.GetOrCreateHostedZone(ctx, domain)
	if err != nil {
		return "", err
	}

	target := naming.Normalize(distributionDomain)
	changes := []types.Change{
		upsert(&types.ResourceRecordSet{
			Name: aws.String(naming.FQDN(zone.Name)),
			Type: types.RRTypeA,
			AliasTarget: &types.AliasTarget{
				DNSName:              aws.String(naming.FQDN(target)),
				HostedZoneId:         aws.String(CloudFrontHostedZoneID),
				EvaluateTargetHealth: false,
			},
		}),
		upsert(cname(naming.WWW(zone.Name), target)),
	}
	return m.change(ctx, zone.ID, "CloudFront cut-over for "+zone.Name, changes)
}

// WaitForChange blocks until a change has propagated to every Route 53 server.
func (m *Manager) WaitForChange(ctx context.Context, changeID string, timeout time.Duration) error {
	id := strings.TrimPrefix(changeID, changePrefix)
	w := poll.Waiter{Interval: m.changePoll, Timeout: timeout, Resource: "dns change " + id, OnPoll: m.onPoll}
	return w.Until(ctx, func(ctx context.Context) (bool, error) {
		out, err := retry.Do(ctx, m.read, func(ctx context.Context) (*route53.GetChangeOutput, error) {
			out, err := m.api.GetChange(ctx, &route53.GetChangeInput{Id: aws.String(id)})
			return out, awsplatform.Classify("get change", err)
		}, nil)
		if err != nil {
			return false, err
		}
		return out.ChangeInfo != nil && out.ChangeInfo.Status == types.ChangeStatusInsync, nil
	})
}

func (m *Manager) change(ctx context.Context, zoneID, comment string, changes []types.Change) (string, error) {
	out, err := retry.Do(ctx, m.mutation, func(ctx context.Context) (*route53.ChangeResourceRecordSetsOutput, error) {
		out, err := m.api.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
			HostedZoneId: aws.String(zoneID),
			ChangeBatch:  &types.ChangeBatch{Comment: aws.String(comment), Changes: changes},
		})
		return out, awsplatform.Classify("change resource record sets", err)
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to write records to zone %s: %w", zoneID, err)
	}

	var id string
	if out.ChangeInfo != nil {
		id = strings.TrimPrefix(aws.ToString(out.ChangeInfo.Id), changePrefix)
	}
	m.log.Info("upserted records", "zone", zoneID, "records", len(changes), "change", id)
	return id, nil
}

func upsert(rrs *types.ResourceRecordSet) types.Change {
	return types.Change{Action: types.ChangeActionUpsert, ResourceRecordSet: rrs}
}

func cname(name, value string) *types.ResourceRecordSet {
	return &types.ResourceRecordSet{
		Name:            aws.String(naming.FQDN(name)),
		Type:            types.RRTypeCname,
		TTL:             aws.Int64(RecordTTL),
		ResourceRecords: []types.ResourceRecord{{Value: aws.String(naming.FQDN(value))}},
	}
}

func trimID(id string) string {
	return strings.TrimPrefix(id, hostedZonePrefix)
}
