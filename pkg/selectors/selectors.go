package selectors

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// ParseTags parses a comma-separated tag selector like
// "Name=eks-vpc,Environment=demo" into a tag map. A key without "=" selects
// on tag presence alone.
func ParseTags(selector string) (map[string]string, error) {
	tags := map[string]string{}
	for _, term := range strings.Split(selector, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		tokens := strings.Split(term, "=")
		if len(tokens) > 2 {
			return nil, fmt.Errorf("invalid tag selector: %s. Expected 0 or 1 \"=\", but found %d", term, len(tokens)-1)
		}
		if len(tokens) == 1 {
			tags[tokens[0]] = ""
			continue
		}
		tags[tokens[0]] = tokens[1]
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("empty tag selector")
	}
	return tags, nil
}

// TagsToEC2Filters converts a tag map into EC2 describe filters. An empty or
// "*" value matches on tag key alone.
func TagsToEC2Filters(tags map[string]string) []ec2types.Filter {
	var filters []ec2types.Filter
	for k, v := range tags {
		if v == "*" || v == "" {
			filters = append(filters, ec2types.Filter{
				Name:   aws.String("tag-key"),
				Values: []string{k},
			})
		} else {
			filters = append(filters, ec2types.Filter{
				Name:   aws.String(fmt.Sprintf("tag:%s", k)),
				Values: []string{v},
			})
		}
	}
	return filters
}
