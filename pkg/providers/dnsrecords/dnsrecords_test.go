package dnsrecords_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyewoledavid/microservice-deployment/pkg/providers/dnsrecords"
)

type mockRoute53API struct {
	zones   []r53types.HostedZone
	records []r53types.ResourceRecordSet
	changes []*route53.ChangeResourceRecordSetsInput
}

func (m *mockRoute53API) ListHostedZonesByName(_ context.Context, _ *route53.ListHostedZonesByNameInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error) {
	return &route53.ListHostedZonesByNameOutput{HostedZones: m.zones}, nil
}

func (m *mockRoute53API) ListResourceRecordSets(_ context.Context, _ *route53.ListResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	return &route53.ListResourceRecordSetsOutput{ResourceRecordSets: m.records, IsTruncated: false}, nil
}

func (m *mockRoute53API) ChangeResourceRecordSets(_ context.Context, input *route53.ChangeResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	m.changes = append(m.changes, input)
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

func zoneRecords() []r53types.ResourceRecordSet {
	return []r53types.ResourceRecordSet{
		{Name: aws.String("sock.example.org."), Type: r53types.RRTypeNs},
		{Name: aws.String("sock.example.org."), Type: r53types.RRTypeSoa},
		{Name: aws.String("sock.example.org."), Type: r53types.RRTypeA},
		{Name: aws.String("www.sock.example.org."), Type: r53types.RRTypeCname},
		{Name: aws.String("api.sock.example.org."), Type: r53types.RRTypeTxt},
	}
}

func TestResolveExcludesApexNSAndSOA(t *testing.T) {
	api := &mockRoute53API{records: zoneRecords()}
	watcher := dnsrecords.NewWatcher(api)

	records, err := watcher.Resolve(context.Background(), "Z123", "sock.example.org")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, record := range records {
		assert.NotEqual(t, r53types.RRTypeNs, record.Type)
		assert.NotEqual(t, r53types.RRTypeSoa, record.Type)
	}
}

func TestResolveKeepsDelegationNSBelowApex(t *testing.T) {
	api := &mockRoute53API{records: []r53types.ResourceRecordSet{
		{Name: aws.String("sock.example.org."), Type: r53types.RRTypeNs},
		{Name: aws.String("sub.sock.example.org."), Type: r53types.RRTypeNs},
	}}
	watcher := dnsrecords.NewWatcher(api)

	records, err := watcher.Resolve(context.Background(), "Z123", "sock.example.org")
	require.NoError(t, err)
	// a delegation NS under the apex is deletable
	require.Len(t, records, 1)
	assert.Equal(t, "sub.sock.example.org.", aws.ToString(records[0].Name))
}

func TestDeleteIssuesOneChangePerRecord(t *testing.T) {
	api := &mockRoute53API{records: zoneRecords()}
	watcher := dnsrecords.NewWatcher(api)

	records, err := watcher.Resolve(context.Background(), "Z123", "sock.example.org")
	require.NoError(t, err)
	for _, record := range records {
		require.NoError(t, watcher.Delete(context.Background(), "Z123", record))
	}

	require.Len(t, api.changes, 3)
	for _, change := range api.changes {
		require.Len(t, change.ChangeBatch.Changes, 1)
		issued := change.ChangeBatch.Changes[0]
		assert.Equal(t, r53types.ChangeActionDelete, issued.Action)
		if aws.ToString(issued.ResourceRecordSet.Name) == "sock.example.org." {
			assert.NotEqual(t, r53types.RRTypeNs, issued.ResourceRecordSet.Type)
			assert.NotEqual(t, r53types.RRTypeSoa, issued.ResourceRecordSet.Type)
		}
	}
}

func TestResolveZoneID(t *testing.T) {
	api := &mockRoute53API{zones: []r53types.HostedZone{
		{Id: aws.String("/hostedzone/Z123"), Name: aws.String("sock.example.org.")},
	}}
	watcher := dnsrecords.NewWatcher(api)

	zoneID, err := watcher.ResolveZoneID(context.Background(), "sock.example.org")
	require.NoError(t, err)
	assert.Equal(t, "Z123", zoneID)
}

func TestResolveZoneIDMissingZone(t *testing.T) {
	api := &mockRoute53API{zones: []r53types.HostedZone{
		{Id: aws.String("/hostedzone/Z999"), Name: aws.String("other.example.org.")},
	}}
	watcher := dnsrecords.NewWatcher(api)

	zoneID, err := watcher.ResolveZoneID(context.Background(), "sock.example.org")
	require.NoError(t, err)
	assert.Equal(t, "", zoneID)
}
