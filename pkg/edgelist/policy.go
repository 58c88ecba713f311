package edgelist

import (
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// Policy selects how a [Reader] reacts to a malformed line.
type Policy string

const (
	// PolicyStrict fails the whole read at the first malformed line.
	PolicyStrict Policy = "strict"
	// PolicySkip skips malformed lines and counts them.
	PolicySkip Policy = "skip"
)

// DefaultPolicy is used when no policy is given.
const DefaultPolicy = PolicyStrict

// ParsePolicy converts a policy name into a Policy.
// The empty string maps to [DefaultPolicy].
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return DefaultPolicy, nil
	case PolicyStrict, PolicySkip:
		return Policy(s), nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidPolicy, "unknown parse policy %q (want strict or skip)", s)
}

func (p Policy) String() string { return string(p) }
