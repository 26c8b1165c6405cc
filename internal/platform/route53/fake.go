package route53

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
)

// FakeAPI is an in-memory Route 53 used by tests. Zones and records follow
// the real service's UPSERT and caller-reference semantics. Setting a Func
// field overrides the corresponding call.
type FakeAPI struct {
	// PageSize limits zones per ListHostedZones page. Zero means 100.
	PageSize int

	CreateHostedZoneFunc         func(ctx context.Context, in *route53.CreateHostedZoneInput) (*route53.CreateHostedZoneOutput, error)
	ChangeResourceRecordSetsFunc func(ctx context.Context, in *route53.ChangeResourceRecordSetsInput) (*route53.ChangeResourceRecordSetsOutput, error)
	// PendingPolls is how many GetChange calls report PENDING before INSYNC.
	PendingPolls int

	mu         sync.Mutex
	zones      []types.HostedZone
	callerRefs map[string]string
	records    map[string]map[string]types.ResourceRecordSet
	changes    map[string]int
	nextID     int
	creates    int
	batches    []*route53.ChangeResourceRecordSetsInput
}

// NewFakeAPI creates an empty fake.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		callerRefs: map[string]string{},
		records:    map[string]map[string]types.ResourceRecordSet{},
		changes:    map[string]int{},
	}
}

var _ API = (*FakeAPI)(nil)

// AddZone seeds a zone and returns its ID.
func (f *FakeAPI) AddZone(name string, private bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addZoneLocked(name, "seed-"+name, private)
}

func (f *FakeAPI) addZoneLocked(name, callerRef string, private bool) string {
	f.nextID++
	id := fmt.Sprintf("Z%04dFAKE", f.nextID)
	if !strings.HasSuffix(name, ".") {
		name += "."
	}
	f.zones = append(f.zones, types.HostedZone{
		Id:              aws.String(hostedZonePrefix + id),
		Name:            aws.String(name),
		CallerReference: aws.String(callerRef),
		Config:          &types.HostedZoneConfig{PrivateZone: private},
	})
	f.callerRefs[callerRef] = id
	f.records[id] = map[string]types.ResourceRecordSet{}
	return id
}

// ZoneCount returns the number of zones.
func (f *FakeAPI) ZoneCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.zones)
}

// CreateCount returns how many zones CreateHostedZone created.
func (f *FakeAPI) CreateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// Records returns a zone's record sets sorted by name and type.
func (f *FakeAPI) Records(zoneID string) []types.ResourceRecordSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.ResourceRecordSet
	for _, rrs := range f.records[trimID(zoneID)] {
		out = append(out, rrs)
	}
	slices.SortFunc(out, func(a, b types.ResourceRecordSet) int {
		return strings.Compare(recordKey(a), recordKey(b))
	})
	return out
}

// Batches returns every accepted change batch.
func (f *FakeAPI) Batches() []*route53.ChangeResourceRecordSetsInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.batches)
}

func (f *FakeAPI) ListHostedZones(_ context.Context, in *route53.ListHostedZonesInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	size := f.PageSize
	if size <= 0 {
		size = 100
	}
	start := 0
	if m := aws.ToString(in.Marker); m != "" {
		idx := slices.IndexFunc(f.zones, func(z types.HostedZone) bool { return trimID(aws.ToString(z.Id)) == m })
		if idx < 0 {
			return nil, &smithy.GenericAPIError{Code: "InvalidInput", Message: "bad marker " + m}
		}
		start = idx
	}
	end := min(start+size, len(f.zones))

	out := &route53.ListHostedZonesOutput{HostedZones: slices.Clone(f.zones[start:end])}
	if end < len(f.zones) {
		out.IsTruncated = true
		out.NextMarker = aws.String(trimID(aws.ToString(f.zones[end].Id)))
	}
	return out, nil
}

func (f *FakeAPI) CreateHostedZone(ctx context.Context, in *route53.CreateHostedZoneInput, _ ...func(*route53.Options)) (*route53.CreateHostedZoneOutput, error) {
	if f.CreateHostedZoneFunc != nil {
		return f.CreateHostedZoneFunc(ctx, in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	ref := aws.ToString(in.CallerReference)
	if _, ok := f.callerRefs[ref]; ok {
		return nil, &smithy.GenericAPIError{Code: "HostedZoneAlreadyExists", Message: "caller reference already used: " + ref}
	}
	id := f.addZoneLocked(aws.ToString(in.Name), ref, false)
	f.creates++

	zone := f.zones[len(f.zones)-1]
	return &route53.CreateHostedZoneOutput{
		HostedZone:    &zone,
		DelegationSet: &types.DelegationSet{NameServers: fakeNameServers(id)},
	}, nil
}

func (f *FakeAPI) GetHostedZone(_ context.Context, in *route53.GetHostedZoneInput, _ ...func(*route53.Options)) (*route53.GetHostedZoneOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := trimID(aws.ToString(in.Id))
	for _, z := range f.zones {
		if trimID(aws.ToString(z.Id)) == id {
			zone := z
			return &route53.GetHostedZoneOutput{
				HostedZone:    &zone,
				DelegationSet: &types.DelegationSet{NameServers: fakeNameServers(id)},
			}, nil
		}
	}
	return nil, &smithy.GenericAPIError{Code: "NoSuchHostedZone", Message: "no zone " + id}
}

func (f *FakeAPI) ChangeResourceRecordSets(ctx context.Context, in *route53.ChangeResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	if f.ChangeResourceRecordSetsFunc != nil {
		return f.ChangeResourceRecordSetsFunc(ctx, in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	zone, ok := f.records[trimID(aws.ToString(in.HostedZoneId))]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchHostedZone", Message: "no zone " + aws.ToString(in.HostedZoneId)}
	}
	for _, c := range in.ChangeBatch.Changes {
		rrs := *c.ResourceRecordSet
		switch c.Action {
		case types.ChangeActionUpsert, types.ChangeActionCreate:
			zone[recordKey(rrs)] = rrs
		case types.ChangeActionDelete:
			delete(zone, recordKey(rrs))
		}
	}
	f.batches = append(f.batches, in)

	f.nextID++
	id := fmt.Sprintf("C%04dFAKE", f.nextID)
	f.changes[id] = 0
	return &route53.ChangeResourceRecordSetsOutput{
		ChangeInfo: &types.ChangeInfo{Id: aws.String(changePrefix + id), Status: types.ChangeStatusPending},
	}, nil
}

func (f *FakeAPI) GetChange(_ context.Context, in *route53.GetChangeInput, _ ...func(*route53.Options)) (*route53.GetChangeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := strings.TrimPrefix(aws.ToString(in.Id), changePrefix)
	polls, ok := f.changes[id]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchChange", Message: "no change " + id}
	}
	f.changes[id] = polls + 1

	status := types.ChangeStatusInsync
	if polls < f.PendingPolls {
		status = types.ChangeStatusPending
	}
	return &route53.GetChangeOutput{ChangeInfo: &types.ChangeInfo{Id: aws.String(changePrefix + id), Status: status}}, nil
}

func recordKey(rrs types.ResourceRecordSet) string {
	return strings.ToLower(aws.ToString(rrs.Name)) + "|" + string(rrs.Type)
}

func fakeNameServers(id string) []string {
	return []string{"ns-1." + strings.ToLower(id) + ".awsdns.test", "ns-2." + strings.ToLower(id) + ".awsdns.test"}
}
