// Package results normalizes cloud API call outcomes into the small set of
// variants the teardown driver acts on. Callers pattern-match on the Code
// instead of inspecting raw SDK errors.
package results

import (
	"context"
	"errors"
	"net"
	"slices"
	"strings"

	"github.com/aws/smithy-go"
)

type Code int

const (
	Succeeded Code = iota
	// NotFound means the target is already gone. Always treated as success.
	NotFound
	// Blocked means a dependent resource still references the target.
	// Retryable with backoff, escalatable when retries exhaust.
	Blocked
	// Transient covers throttling, timeouts, and temporary network failures.
	Transient
	// Fatal covers everything else (e.g. permission denied). The resource is
	// logged and skipped; the run continues.
	Fatal
)

func (c Code) String() string {
	switch c {
	case Succeeded:
		return "succeeded"
	case NotFound:
		return "not-found"
	case Blocked:
		return "blocked"
	case Transient:
		return "transient"
	default:
		return "fatal"
	}
}

// Result is the normalized outcome of one deletion attempt.
type Result struct {
	Code Code
	Err  error
}

// OK reports whether the attempt reached the desired end state. A target that
// was already gone counts.
func (r Result) OK() bool {
	return r.Code == Succeeded || r.Code == NotFound
}

var blockedCodes = []string{
	"DependencyViolation",
	"ResourceInUse",
	"ResourceInUseException",
	"InvalidParameterValue", // ENI detach/delete races surface as this
}

var transientCodes = []string{
	"RequestLimitExceeded",
	"Throttling",
	"ThrottlingException",
	"RequestThrottled",
	"RequestThrottledException",
	"ServiceUnavailable",
	"InternalError",
	"InternalFailure",
}

var fatalCodes = []string{
	"UnauthorizedOperation",
	"AccessDenied",
	"AccessDeniedException",
	"AuthFailure",
	"InvalidClientTokenId",
	"ExpiredToken",
}

// Classify maps an error from a cloud API call to a Result.
func Classify(err error) Result {
	if err == nil {
		return Result{Code: Succeeded}
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		code := ae.ErrorCode()
		switch {
		case IsNotFoundCode(code):
			return Result{Code: NotFound, Err: err}
		case slices.Contains(blockedCodes, code):
			return Result{Code: Blocked, Err: err}
		case slices.Contains(transientCodes, code):
			return Result{Code: Transient, Err: err}
		case slices.Contains(fatalCodes, code):
			return Result{Code: Fatal, Err: err}
		}
		return Result{Code: Fatal, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return Result{Code: Transient, Err: err}
	}
	return Result{Code: Fatal, Err: err}
}

// IsNotFoundCode reports whether an AWS error code indicates the resource no
// longer exists. EC2 uses "InvalidXXX.NotFound" codes, EKS and ELBv2 use
// service-specific ones.
func IsNotFoundCode(code string) bool {
	if strings.HasSuffix(code, ".NotFound") {
		return true
	}
	switch code {
	case "ResourceNotFoundException", // EKS
		"LoadBalancerNotFound",
		"TargetGroupNotFound",
		"ListenerNotFound",
		"NatGatewayNotFound",
		"NoSuchHostedZone":
		return true
	}
	return false
}
