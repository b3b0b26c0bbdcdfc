package diff_test

import (
	"context"
	"testing"

	"github.com/senzing-garage/data-mart-replicator/internal/diff"
	"github.com/senzing-garage/data-mart-replicator/internal/journal"
	"github.com/senzing-garage/data-mart-replicator/internal/model"
	"github.com/senzing-garage/data-mart-replicator/internal/pagination"
	"github.com/senzing-garage/data-mart-replicator/internal/reportkey"
	"github.com/senzing-garage/data-mart-replicator/internal/store/storetest"
)

// fakeERClient serves a fixed map of resolved entities, standing in for
// the ER engine client across a Refresh call.
type fakeERClient struct {
	entities map[int64]model.ResolvedEntity
}

func (f fakeERClient) GetEntity(ctx context.Context, id int64) (model.ResolvedEntity, bool, error) {
	re, ok := f.entities[id]
	return re, ok, nil
}

// buildMutualEntities returns entity 1 and entity 2, each resolved with
// the other as its sole related entity, via an identical POSSIBLE_RELATION
// link observed from both sides.
func buildMutualEntities() (model.ResolvedEntity, model.ResolvedEntity) {
	entity1 := model.NewEntity(1, "", []model.Record{model.NewRecord("FOO", "1", "", "")})
	entity2 := model.NewEntity(2, "", []model.Record{model.NewRecord("BAR", "1", "", "")})

	related2From1 := model.NewRelatedEntity(entity2, 1, model.PossibleRelation, "PHONE", "SF1")
	related1From2 := model.NewRelatedEntity(entity1, 1, model.PossibleRelation, "PHONE", "SF1")

	resolved1 := model.NewResolvedEntity(entity1, []model.RelatedEntity{related2From1})
	resolved2 := model.NewResolvedEntity(entity2, []model.RelatedEntity{related1From2})
	return resolved1, resolved2
}

// TestRefreshThenPageEntities drives a single entity's Refresh end to end
// and confirms PageEntities enumerates the resulting DSS report_detail row,
// proving the write path populates report_detail and the read path filters
// to entity-scoped (related_id IS NULL) rows only.
func TestRefreshThenPageEntities(t *testing.T) {
	ctx := context.Background()
	resolved1, resolved2 := buildMutualEntities()
	er := fakeERClient{entities: map[int64]model.ResolvedEntity{1: resolved1, 2: resolved2}}

	db := storetest.New()
	eng := diff.New(er, db, journal.New(db))

	if err := eng.Refresh(ctx, 1); err != nil {
		t.Fatalf("Refresh(1): %v", err)
	}

	entityCountKey := reportkey.Key{
		Code:        reportkey.DataSourceSummary,
		Statistic:   reportkey.NewStatistic(reportkey.EntityCount, "", ""),
		DataSource1: "FOO",
	}.String()

	pager := pagination.New(db)
	page, err := pager.PageEntities(ctx, entityCountKey, pagination.Request{PageSize: 10, BoundType: pagination.InclusiveLower})
	if err != nil {
		t.Fatalf("PageEntities: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", page.TotalCount)
	}
	if len(page.Items) != 1 || page.Items[0] != 1 {
		t.Fatalf("Items = %v, want [1]", page.Items)
	}
}

// TestRefreshBothEndpointsCountsRelationOnce refreshes both endpoints of a
// mutual relationship and confirms PageRelations reports it exactly once —
// the second endpoint's refresh must find the row already reconciled by
// the first and contribute no further delta, regardless of which entity
// refreshes first.
func TestRefreshBothEndpointsCountsRelationOnce(t *testing.T) {
	ctx := context.Background()
	resolved1, resolved2 := buildMutualEntities()
	er := fakeERClient{entities: map[int64]model.ResolvedEntity{1: resolved1, 2: resolved2}}

	db := storetest.New()
	eng := diff.New(er, db, journal.New(db))

	if err := eng.Refresh(ctx, 1); err != nil {
		t.Fatalf("Refresh(1): %v", err)
	}
	if err := eng.Refresh(ctx, 2); err != nil {
		t.Fatalf("Refresh(2): %v", err)
	}

	relationKey := reportkey.Key{
		Code:        reportkey.CrossSourceSummary,
		Statistic:   reportkey.NewStatistic(reportkey.PossibleRelationCount, "SF1", "PHONE"),
		DataSource1: "FOO",
		DataSource2: "BAR",
	}.String()

	pager := pagination.New(db)
	page, err := pager.PageRelations(ctx, relationKey, pagination.Request{PageSize: 10, BoundType: pagination.InclusiveLower})
	if err != nil {
		t.Fatalf("PageRelations: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1 (relationship must count once regardless of refresh order)", page.TotalCount)
	}
	if len(page.Items) != 1 || page.Items[0].Lo != 1 || page.Items[0].Hi != 2 {
		t.Fatalf("Items = %v, want [{1 2}]", page.Items)
	}
}

// TestRefreshBothEndpointsReverseOrderCountsRelationOnce is the mirror of
// TestRefreshBothEndpointsCountsRelationOnce with the refresh order
// reversed, confirming the outcome doesn't depend on which endpoint
// happens to refresh first.
func TestRefreshBothEndpointsReverseOrderCountsRelationOnce(t *testing.T) {
	ctx := context.Background()
	resolved1, resolved2 := buildMutualEntities()
	er := fakeERClient{entities: map[int64]model.ResolvedEntity{1: resolved1, 2: resolved2}}

	db := storetest.New()
	eng := diff.New(er, db, journal.New(db))

	if err := eng.Refresh(ctx, 2); err != nil {
		t.Fatalf("Refresh(2): %v", err)
	}
	if err := eng.Refresh(ctx, 1); err != nil {
		t.Fatalf("Refresh(1): %v", err)
	}

	relationKey := reportkey.Key{
		Code:        reportkey.CrossSourceSummary,
		Statistic:   reportkey.NewStatistic(reportkey.PossibleRelationCount, "SF1", "PHONE"),
		DataSource1: "FOO",
		DataSource2: "BAR",
	}.String()

	pager := pagination.New(db)
	page, err := pager.PageRelations(ctx, relationKey, pagination.Request{PageSize: 10, BoundType: pagination.InclusiveLower})
	if err != nil {
		t.Fatalf("PageRelations: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", page.TotalCount)
	}
}
