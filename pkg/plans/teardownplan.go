package plans

import (
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/dnsrecords"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/enis"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/igws"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/loadbalancers"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/natgws"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/securitygroups"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/subnets"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/vpcs"
)

// TeardownPlan captures everything discovered for an environment and the
// progress of deleting it. The plan is rebuilt from the live cloud account on
// every run; nothing here persists between runs.
type TeardownPlan struct {
	Metadata TeardownMetadata
	Spec     TeardownSpec
	Status   TeardownStatus
}

type TeardownMetadata struct {
	Region      string
	VPCTags     map[string]string
	ClusterName string
	ZoneName    string
}

// TeardownSpec is the discovered resource set, grouped by kind.
type TeardownSpec struct {
	VPCs              []vpcs.VPC
	LoadBalancers     []loadbalancers.LoadBalancer
	TargetGroups      []loadbalancers.TargetGroup
	NetworkInterfaces []enis.NetworkInterface
	SecurityGroups    []securitygroups.SecurityGroup
	NATGateways       []natgws.NATGateway
	Subnets           []subnets.Subnet
	InternetGateways  []igws.InternetGateway
	Nodegroups        []string
	ClusterPresent    bool
	ZoneID            string
	Records           []dnsrecords.RecordSet
}

// NewStatus returns an empty TeardownStatus with every kind's map allocated
func NewStatus() TeardownStatus {
	return TeardownStatus{
		VPCs:              map[string]bool{},
		LoadBalancers:     map[string]bool{},
		TargetGroups:      map[string]bool{},
		NetworkInterfaces: map[string]bool{},
		SecurityGroups:    map[string]bool{},
		NATGateways:       map[string]bool{},
		ElasticIPs:        map[string]bool{},
		Subnets:           map[string]bool{},
		InternetGateways:  map[string]bool{},
		Nodegroups:        map[string]bool{},
		Records:           map[string]bool{},
	}
}

// TeardownStatus maps a resource identifier to a bool representing that the
// resource has been deleted (or confirmed already gone).
type TeardownStatus struct {
	VPCs              map[string]bool
	LoadBalancers     map[string]bool
	TargetGroups      map[string]bool
	NetworkInterfaces map[string]bool
	SecurityGroups    map[string]bool
	NATGateways       map[string]bool
	ElasticIPs        map[string]bool
	Subnets           map[string]bool
	InternetGateways  map[string]bool
	Nodegroups        map[string]bool
	ClusterDeleted    bool
	Records           map[string]bool
}
