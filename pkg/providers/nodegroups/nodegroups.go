package nodegroups

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/smithy-go"
)

// Watcher discovers and deletes EKS node groups and the cluster control
// plane. Node groups must be gone before the control plane can be deleted.
type Watcher struct {
	eksAPI SDKEKSOps
}

// SDKEKSOps is an interface that combines the necessary EKS SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKEKSOps interface {
	eks.ListNodegroupsAPIClient
	DescribeCluster(context.Context, *eks.DescribeClusterInput, ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
	DescribeNodegroup(context.Context, *eks.DescribeNodegroupInput, ...func(*eks.Options)) (*eks.DescribeNodegroupOutput, error)
	DeleteNodegroup(context.Context, *eks.DeleteNodegroupInput, ...func(*eks.Options)) (*eks.DeleteNodegroupOutput, error)
	DeleteCluster(context.Context, *eks.DeleteClusterInput, ...func(*eks.Options)) (*eks.DeleteClusterOutput, error)
}

// NewWatcher creates a new EKS Watcher
func NewWatcher(eksAPI SDKEKSOps) Watcher {
	return Watcher{
		eksAPI: eksAPI,
	}
}

// ClusterExists reports whether the named cluster is still present
func (w Watcher) ClusterExists(ctx context.Context, clusterName string) (bool, error) {
	_, err := w.eksAPI.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: &clusterName})
	if err != nil {
		if isNotFoundErr(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe cluster %s: %w", clusterName, err)
	}
	return true, nil
}

// Resolve returns the node group names of the given cluster. A missing
// cluster yields an empty set, not an error.
func (w Watcher) Resolve(ctx context.Context, clusterName string) ([]string, error) {
	var nodegroups []string
	pager := eks.NewListNodegroupsPaginator(w.eksAPI, &eks.ListNodegroupsInput{
		ClusterName: &clusterName,
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if isNotFoundErr(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to list node groups for %s: %w", clusterName, err)
		}
		nodegroups = append(nodegroups, page.Nodegroups...)
	}
	return nodegroups, nil
}

// DeleteNodegroup requests deletion of a node group. Deletion is asynchronous.
func (w Watcher) DeleteNodegroup(ctx context.Context, clusterName, nodegroupName string) error {
	_, err := w.eksAPI.DeleteNodegroup(ctx, &eks.DeleteNodegroupInput{
		ClusterName:   &clusterName,
		NodegroupName: &nodegroupName,
	})
	return err
}

// NodegroupGone reports whether the node group has finished deleting. Used as
// a bounded-poll condition before deleting the control plane.
func (w Watcher) NodegroupGone(ctx context.Context, clusterName, nodegroupName string) (bool, error) {
	_, err := w.eksAPI.DescribeNodegroup(ctx, &eks.DescribeNodegroupInput{
		ClusterName:   &clusterName,
		NodegroupName: &nodegroupName,
	})
	if err != nil {
		if isNotFoundErr(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// DeleteCluster requests deletion of the cluster control plane
func (w Watcher) DeleteCluster(ctx context.Context, clusterName string) error {
	_, err := w.eksAPI.DeleteCluster(ctx, &eks.DeleteClusterInput{Name: &clusterName})
	return err
}

// ClusterGone reports whether the control plane has finished deleting
func (w Watcher) ClusterGone(ctx context.Context, clusterName string) (bool, error) {
	exists, err := w.ClusterExists(ctx, clusterName)
	return !exists, err
}

func isNotFoundErr(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ResourceNotFoundException"
}
