package dnsrecords

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
)

// Watcher discovers and deletes hosted-zone record sets. The zone's apex NS
// and SOA records are mandatory and can never be deleted, so they are
// excluded at resolve time.
type Watcher struct {
	route53API SDKRoute53Ops
}

// SDKRoute53Ops is an interface that combines the necessary Route53 SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKRoute53Ops interface {
	ListHostedZonesByName(context.Context, *route53.ListHostedZonesByNameInput, ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
	ListResourceRecordSets(context.Context, *route53.ListResourceRecordSetsInput, ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(context.Context, *route53.ChangeResourceRecordSetsInput, ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

// RecordSet represents a Route53 resource record set
type RecordSet struct {
	r53types.ResourceRecordSet
}

// NewWatcher creates a new DNS record Watcher
func NewWatcher(route53API SDKRoute53Ops) Watcher {
	return Watcher{
		route53API: route53API,
	}
}

// ResolveZoneID returns the hosted zone ID for a zone name, or "" when no
// such zone exists.
func (w Watcher) ResolveZoneID(ctx context.Context, zoneName string) (string, error) {
	zoneName = fqdn(zoneName)
	out, err := w.route53API.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName:  &zoneName,
		MaxItems: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list hosted zones: %w", err)
	}
	for _, zone := range out.HostedZones {
		if aws.ToString(zone.Name) == zoneName {
			return strings.TrimPrefix(aws.ToString(zone.Id), "/hostedzone/"), nil
		}
	}
	return "", nil
}

// Resolve returns the deletable record sets in a zone, excluding the apex
// NS/SOA pair.
func (w Watcher) Resolve(ctx context.Context, zoneID, zoneName string) ([]RecordSet, error) {
	apex := fqdn(zoneName)
	var records []RecordSet
	input := &route53.ListResourceRecordSetsInput{HostedZoneId: &zoneID}
	for {
		page, err := w.route53API.ListResourceRecordSets(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list record sets: %w", err)
		}
		for _, recordSet := range page.ResourceRecordSets {
			if isMandatoryApexRecord(recordSet, apex) {
				continue
			}
			records = append(records, RecordSet{recordSet})
		}
		if !page.IsTruncated {
			break
		}
		input.StartRecordName = page.NextRecordName
		input.StartRecordType = page.NextRecordType
		input.StartRecordIdentifier = page.NextRecordIdentifier
	}
	return records, nil
}

// Delete deletes a single record set from the zone
func (w Watcher) Delete(ctx context.Context, zoneID string, recordSet RecordSet) error {
	_, err := w.route53API.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: &zoneID,
		ChangeBatch: &r53types.ChangeBatch{
			Changes: []r53types.Change{{
				Action:            r53types.ChangeActionDelete,
				ResourceRecordSet: &recordSet.ResourceRecordSet,
			}},
		},
	})
	return err
}

func isMandatoryApexRecord(recordSet r53types.ResourceRecordSet, apex string) bool {
	if recordSet.Type != r53types.RRTypeNs && recordSet.Type != r53types.RRTypeSoa {
		return false
	}
	return aws.ToString(recordSet.Name) == apex
}

func fqdn(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}
