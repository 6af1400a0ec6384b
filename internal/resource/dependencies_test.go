package resource

import (
	"testing"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryKeyIsInvalidatedByItsResources(t *testing.T) {
	deps := Dependencies()
	for _, reg := range Registry() {
		require.NotEmpty(t, reg.Reads, reg.Name)
		for _, r := range reg.Reads {
			assert.True(t, deps.Covers(r, reg.Key), "%s (%s) is not invalidated by %s", reg.Name, reg.Key, r)
		}
	}
}

func TestEveryResourceHasPrefixes(t *testing.T) {
	deps := Dependencies()
	for _, r := range All {
		assert.NotEmpty(t, deps[r], r)
	}
	assert.Len(t, deps, len(All))
}

func TestEveryPrefixMatchesARegisteredKey(t *testing.T) {
	for r, prefixes := range Dependencies() {
		for _, p := range prefixes {
			found := false
			for _, reg := range Registry() {
				if reg.Key.HasPrefix(p) {
					found = true
					break
				}
			}
			assert.True(t, found, "%s lists %s which no key builder produces", r, p)
		}
	}
}

func TestAppointmentCreationScope(t *testing.T) {
	deps := Dependencies()
	f := domain.AppointmentFilter{Status: domain.StatusConfirmed}

	for _, k := range []query.Key{
		AppointmentsKey(f),
		AdminAppointmentsKey(f),
		PatientAppointmentsKey("p1", f),
	} {
		assert.True(t, deps.Covers(Appointments, k), k.String())
	}
	assert.False(t, deps.Covers(Appointments, OrdersKey(domain.OrderFilter{})))
	assert.False(t, deps.Covers(Appointments, DoctorKey("d1")))
}
