package results_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/oyewoledavid/microservice-deployment/pkg/results"
)

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		name     string
		err      error
		expected results.Code
	}{
		{name: "nil error", err: nil, expected: results.Succeeded},
		{name: "eni not found", err: apiErr("InvalidNetworkInterfaceID.NotFound"), expected: results.NotFound},
		{name: "sg not found", err: apiErr("InvalidGroup.NotFound"), expected: results.NotFound},
		{name: "eks cluster not found", err: apiErr("ResourceNotFoundException"), expected: results.NotFound},
		{name: "load balancer not found", err: apiErr("LoadBalancerNotFound"), expected: results.NotFound},
		{name: "hosted zone not found", err: apiErr("NoSuchHostedZone"), expected: results.NotFound},
		{name: "dependency violation", err: apiErr("DependencyViolation"), expected: results.Blocked},
		{name: "eks resource in use", err: apiErr("ResourceInUseException"), expected: results.Blocked},
		{name: "throttled", err: apiErr("RequestLimitExceeded"), expected: results.Transient},
		{name: "service unavailable", err: apiErr("ServiceUnavailable"), expected: results.Transient},
		{name: "permission denied", err: apiErr("UnauthorizedOperation"), expected: results.Fatal},
		{name: "unknown api error", err: apiErr("SomethingUnexpected"), expected: results.Fatal},
		{name: "deadline exceeded", err: fmt.Errorf("describe: %w", context.DeadlineExceeded), expected: results.Transient},
		{name: "plain error", err: errors.New("boom"), expected: results.Fatal},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result := results.Classify(tc.err)
			assert.Equal(t, tc.expected, result.Code)
			if tc.err != nil {
				assert.Error(t, result.Err)
			}
		})
	}
}

func TestClassifyWrappedAPIError(t *testing.T) {
	err := fmt.Errorf("failed to delete security group: %w", apiErr("DependencyViolation"))
	assert.Equal(t, results.Blocked, results.Classify(err).Code)
}

func TestResultOK(t *testing.T) {
	assert.True(t, results.Result{Code: results.Succeeded}.OK())
	assert.True(t, results.Result{Code: results.NotFound}.OK())
	assert.False(t, results.Result{Code: results.Blocked}.OK())
	assert.False(t, results.Result{Code: results.Transient}.OK())
	assert.False(t, results.Result{Code: results.Fatal}.OK())
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "not-found", results.NotFound.String())
	assert.Equal(t, "blocked", results.Blocked.String())
}
