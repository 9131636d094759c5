package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitFilterValues(t *testing.T) {
	filter := UnitFilter{ProjectID: 3, MinSqm: 120.5, Status: UnitAvailable, Floor: "2", Page: 2}

	values := filter.Values()

	assert.Equal(t, "3", values.Get("project_id"))
	assert.Equal(t, "120.5", values.Get("min_sqm"))
	assert.Equal(t, "available", values.Get("status"))
	assert.Equal(t, "2", values.Get("floor"))
	assert.Equal(t, "2", values.Get("page"))
	assert.False(t, values.Has("max_price"))
	assert.False(t, values.Has("bedrooms"))
}

func TestEmptyUnitFilter(t *testing.T) {
	assert.Empty(t, UnitFilter{}.Values())
}

func TestProjectFilterValues(t *testing.T) {
	values := ProjectFilter{CompanySlug: "emaar"}.Values()

	assert.Equal(t, "emaar", values.Get("company_slug"))
	assert.False(t, values.Has("status"))
}

func TestUnitStatusValid(t *testing.T) {
	assert.True(t, UnitSold.Valid())
	assert.False(t, UnitStatus("demolished").Valid())
}
