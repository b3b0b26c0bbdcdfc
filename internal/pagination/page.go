package pagination

// Page is the result of a pagination request (§4.5).
type Page struct {
	Bound           string
	BoundType       BoundType
	PageSize        int
	SampleSize      *int
	PageMin         int64
	PageMax         int64
	OverallMin      *int64
	OverallMax      *int64
	BeforePageCount int64
	AfterPageCount  int64
	TotalCount      int64
	Items           []int64
}

// Sampler draws a uniform subset of size n from window, used to implement
// the sampled-page case. Production code supplies a math/rand-backed
// sampler; tests supply a deterministic one.
type Sampler func(window []int64, n int) []int64

// AssembleEntityPage builds the final Page from a pre-fetched, ascending
// ordered window of entity IDs plus the population counts surrounding it
// (§4.5's Page shape). windowIDs must already be in ascending order — for
// an upper-bound scan the caller reverses the descending SQL result before
// calling this, per §4.5 "results are reversed so they are returned in
// ascending order".
func AssembleEntityPage(req Request, windowIDs []int64, totalCount, beforeCount, afterCount int64, overallMin, overallMax *int64, sample Sampler) Page {
	pageSize, _ := req.ResolvePageSize()
	page := Page{
		Bound:           req.Bound,
		BoundType:       req.BoundType,
		PageSize:        pageSize,
		SampleSize:      req.SampleSize,
		BeforePageCount: beforeCount,
		AfterPageCount:  afterCount,
		TotalCount:      totalCount,
	}

	if req.SampleSize == nil {
		page.Items = windowIDs
		if len(windowIDs) > 0 {
			page.PageMin = windowIDs[0]
			page.PageMax = windowIDs[len(windowIDs)-1]
		}
		page.OverallMin = overallMin
		page.OverallMax = overallMax
		return page
	}

	sampled := sample(windowIDs, *req.SampleSize)
	page.Items = sampled
	if len(sampled) > 0 {
		min, max := sampled[0], sampled[0]
		for _, v := range sampled {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		page.PageMin, page.PageMax = min, max
	}
	return page
}

// RelationPage is the relation-pagination counterpart of Page: the items
// enumerated are (entityId, relatedId) pairs rather than bare entity IDs
// (§4.5's Page<T> with T = "(entityId, relatedId)").
type RelationPage struct {
	Bound           string
	BoundType       BoundType
	PageSize        int
	SampleSize      *int
	PageMin         RelationBound
	PageMax         RelationBound
	OverallMin      *RelationBound
	OverallMax      *RelationBound
	BeforePageCount int64
	AfterPageCount  int64
	TotalCount      int64
	Items           []RelationBound
}

// RelationSampler draws a uniform subset of size n from window, the
// RelationBound analog of Sampler.
type RelationSampler func(window []RelationBound, n int) []RelationBound

// AssembleRelationPage builds the final RelationPage from a pre-fetched,
// ascending ordered window of relation bounds plus the population counts
// surrounding it, mirroring AssembleEntityPage.
func AssembleRelationPage(req Request, windowBounds []RelationBound, totalCount, beforeCount, afterCount int64, overallMin, overallMax *RelationBound, sample RelationSampler) RelationPage {
	pageSize, _ := req.ResolvePageSize()
	page := RelationPage{
		Bound:           req.Bound,
		BoundType:       req.BoundType,
		PageSize:        pageSize,
		SampleSize:      req.SampleSize,
		BeforePageCount: beforeCount,
		AfterPageCount:  afterCount,
		TotalCount:      totalCount,
	}

	if req.SampleSize == nil {
		page.Items = windowBounds
		if len(windowBounds) > 0 {
			page.PageMin = windowBounds[0]
			page.PageMax = windowBounds[len(windowBounds)-1]
		}
		page.OverallMin = overallMin
		page.OverallMax = overallMax
		return page
	}

	sampled := sample(windowBounds, *req.SampleSize)
	page.Items = sampled
	if len(sampled) > 0 {
		min, max := sampled[0], sampled[0]
		for _, v := range sampled {
			if v.Less(min) {
				min = v
			}
			if max.Less(v) {
				max = v
			}
		}
		page.PageMin, page.PageMax = min, max
	}
	return page
}
