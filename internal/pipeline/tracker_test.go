package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixdata-ai/query-engine/internal/domain"
)

func TestCollectionsInvolved_PrimaryOnly(t *testing.T) {
	spec := &domain.QuerySpec{PrimaryCollection: "application_snapshot"}
	assert.Equal(t, []string{"application_snapshot"}, CollectionsInvolved(spec))
}

func TestCollectionsInvolved_JoinsInOrder(t *testing.T) {
	spec := &domain.QuerySpec{
		PrimaryCollection: "application_snapshot",
		Joins: []domain.JoinSpec{
			{Collection: "employee_ratio", Type: domain.JoinTypeLookup},
			{Collection: "management_segment_tree", Type: domain.JoinTypeLookup},
		},
	}
	assert.Equal(t,
		[]string{"application_snapshot", "employee_ratio", "management_segment_tree"},
		CollectionsInvolved(spec))
}

func TestCollectionsInvolved_Dedupes(t *testing.T) {
	spec := &domain.QuerySpec{
		PrimaryCollection: "application_snapshot",
		Joins: []domain.JoinSpec{
			{Collection: "employee_ratio"},
			{Collection: "application_snapshot"},
			{Collection: "employee_ratio"},
		},
	}
	assert.Equal(t,
		[]string{"application_snapshot", "employee_ratio"},
		CollectionsInvolved(spec))
}

func TestCollectionsInvolved_SkipsEmptyNames(t *testing.T) {
	spec := &domain.QuerySpec{
		PrimaryCollection: "application_snapshot",
		Joins:             []domain.JoinSpec{{Collection: ""}},
	}
	assert.Equal(t, []string{"application_snapshot"}, CollectionsInvolved(spec))
}
