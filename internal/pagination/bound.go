// Package pagination implements the bounded, sampleable enumeration engine
// (§4.5): given a report key and a pagination bound, it returns a stable
// page of entity IDs or relation-key pairs together with before/after-page
// counts, optionally narrowed to a uniform random sample of the window.
package pagination

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/senzing-garage/data-mart-replicator/internal/errs"
)

// BoundType selects the direction and inclusivity of a pagination bound.
type BoundType string

const (
	InclusiveLower BoundType = "INCLUSIVE_LOWER"
	ExclusiveLower BoundType = "EXCLUSIVE_LOWER"
	InclusiveUpper BoundType = "INCLUSIVE_UPPER"
	ExclusiveUpper BoundType = "EXCLUSIVE_UPPER"
)

// Ascending reports whether boundType scans ascending (a lower bound) or
// descending (an upper bound).
func (b BoundType) Ascending() bool {
	return b == InclusiveLower || b == ExclusiveLower
}

// Inclusive reports whether the bound value itself is included in the scan.
func (b BoundType) Inclusive() bool {
	return b == InclusiveLower || b == InclusiveUpper
}

const (
	// DefaultPageSize is used when neither pageSize nor sampleSize is given.
	DefaultPageSize = 25
	// SampleSizeMultiplier computes pageSize from sampleSize when pageSize
	// is absent: pageSize = SampleSizeMultiplier * sampleSize.
	SampleSizeMultiplier = 10
	// maxBoundText is the entity-page sentinel for +∞.
	maxBoundText = "max"
	// maxRelationBoundText is the relation-page sentinel for +∞.
	maxRelationBoundText = "max:max"
)

// ParseEntityBound parses an entity-page bound per §4.5: the literal
// "max" represents +∞; a blank bound defaults to 0 for a lower bound or
// "max" for an upper bound; anything else must be a base-10 integer.
func ParseEntityBound(text string, boundType BoundType) (int64, error) {
	if text == "" {
		if boundType.Ascending() {
			return 0, nil
		}
		return math.MaxInt64, nil
	}
	if text == maxBoundText {
		return math.MaxInt64, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pagination: invalid entity bound %q: %w", text, errs.MalformedInput)
	}
	return n, nil
}

// RelationBound is a (lo, hi) entity-id pair identifying a relation-page
// bound, ordered lexicographically (lo first, then hi).
type RelationBound struct {
	Lo int64
	Hi int64
}

// Less reports whether r sorts before other.
func (r RelationBound) Less(other RelationBound) bool {
	if r.Lo != other.Lo {
		return r.Lo < other.Lo
	}
	return r.Hi < other.Hi
}

// ParseRelationBound parses a relation-page bound per §4.5: the literal
// "max:max" represents +∞; a blank bound defaults to "0:0" for a lower
// bound or "max:max" for an upper bound; anything else must be two
// colon-separated base-10 integers.
func ParseRelationBound(text string, boundType BoundType) (RelationBound, error) {
	if text == "" {
		if boundType.Ascending() {
			return RelationBound{0, 0}, nil
		}
		return RelationBound{math.MaxInt64, math.MaxInt64}, nil
	}
	if text == maxRelationBoundText {
		return RelationBound{math.MaxInt64, math.MaxInt64}, nil
	}
	parts := strings.SplitN(text, ":", 2)
	if len(parts) != 2 {
		return RelationBound{}, fmt.Errorf("pagination: malformed relation bound %q: %w", text, errs.MalformedInput)
	}
	lo, errLo := strconv.ParseInt(parts[0], 10, 64)
	hi, errHi := strconv.ParseInt(parts[1], 10, 64)
	if errLo != nil || errHi != nil {
		return RelationBound{}, fmt.Errorf("pagination: malformed relation bound %q: %w", text, errs.MalformedInput)
	}
	return RelationBound{Lo: lo, Hi: hi}, nil
}

// Request is the caller-supplied pagination request, before size
// resolution and validation.
type Request struct {
	Bound      string
	BoundType  BoundType
	PageSize   int
	SampleSize *int
}

// ResolvePageSize validates and resolves the effective page size per
// §4.5's "Page/sample interaction", returning errs.MalformedInput for any
// invalid combination.
func (r Request) ResolvePageSize() (int, error) {
	if r.PageSize < 0 {
		return 0, fmt.Errorf("pagination: negative pageSize %d: %w", r.PageSize, errs.MalformedInput)
	}
	if r.SampleSize != nil {
		if *r.SampleSize < 0 {
			return 0, fmt.Errorf("pagination: negative sampleSize %d: %w", *r.SampleSize, errs.MalformedInput)
		}
		if r.PageSize == 0 {
			return SampleSizeMultiplier * *r.SampleSize, nil
		}
		if *r.SampleSize >= r.PageSize {
			return 0, fmt.Errorf("pagination: sampleSize %d >= pageSize %d: %w", *r.SampleSize, r.PageSize, errs.MalformedInput)
		}
		return r.PageSize, nil
	}
	if r.PageSize == 0 {
		return DefaultPageSize, nil
	}
	return r.PageSize, nil
}
