package domain

import (
	"fmt"
	"time"
)

// Classification is the blacklist outcome for an address.
type Classification string

const (
	// ClassificationRequest puts the submission on hold until an
	// administrator confirms or denies it.
	ClassificationRequest Classification = "request"
	// ClassificationBlock rejects the submission outright.
	ClassificationBlock Classification = "block"
	// ClassificationNone means no rule matched.
	ClassificationNone Classification = ""
)

// ParseClassification validates an author-supplied classification value.
func ParseClassification(s string) (Classification, error) {
	switch Classification(s) {
	case ClassificationRequest:
		return ClassificationRequest, nil
	case ClassificationBlock:
		return ClassificationBlock, nil
	}
	return ClassificationNone, fmt.Errorf("invalid classification %q, valid values are [%s, %s]", s, ClassificationRequest, ClassificationBlock)
}

// BlacklistRule is a single address pattern scoped to one tenant.
// Pattern is literal except `*`, which matches any run of characters
// that does not cross the `@` separator. The compiled matcher is
// derived from Pattern and never stored; it is regenerated on every
// load.
type BlacklistRule struct {
	Id             RuleId
	TenantKey      TenantKey
	Pattern        string
	Classification Classification
	Priority       int
	CreatedAt      time.Time
}
