package query

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyHashUniqueForDistinctParams(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seen := make(map[string]map[string]any)

	for i := 0; i < 2000; i++ {
		params := make(map[string]any)
		n := rng.Intn(4) + 1
		for j := 0; j < n; j++ {
			name := fmt.Sprintf("p%d", rng.Intn(6))
			if rng.Intn(2) == 0 {
				params[name] = rng.Intn(20)
			} else {
				params[name] = fmt.Sprintf("v%d", rng.Intn(20))
			}
		}
		h := K("appointments", params).Hash()
		if prev, ok := seen[h]; ok {
			require.Equal(t, fmt.Sprint(prev), fmt.Sprint(params), "hash collision for distinct params")
			continue
		}
		seen[h] = params
	}
}

func TestKeyHashIgnoresMapOrderAndEmptyFields(t *testing.T) {
	a := K("appointments", map[string]any{"status": "PENDING", "page": 1})
	b := K("appointments", map[string]any{"page": 1, "status": "PENDING"})
	assert.True(t, a.Equal(b))

	f1 := K("appointments", domain.AppointmentFilter{Status: domain.StatusPending, Page: 1})
	f2 := K("appointments", domain.AppointmentFilter{Page: 1, Status: domain.StatusPending, DoctorID: ""})
	assert.True(t, f1.Equal(f2))

	assert.False(t, K("appointments", 1).Equal(K("appointments", "1")))
}

func TestKeyPrefixMatching(t *testing.T) {
	list := K("appointments", domain.AppointmentFilter{Status: domain.StatusPending})

	assert.True(t, list.HasPrefix(K("appointments")))
	assert.True(t, list.HasPrefix(list))
	assert.False(t, K("appointment").HasPrefix(K("appointments")))
	assert.False(t, K("appointments").HasPrefix(list))

	admin := K("admin", "appointments", domain.AppointmentFilter{Page: 2})
	assert.True(t, admin.HasPrefix(K("admin", "appointments")))
	assert.False(t, admin.HasPrefix(K("admin", "users")))
	// fragments match whole, not by string prefix
	assert.False(t, K("admin", "appointmentsX").HasPrefix(K("admin", "appointments")))
}

func TestKeyWith(t *testing.T) {
	base := K("chat", "messages")
	k := base.With("c1")
	assert.Equal(t, `chat/"messages"/"c1"`, k.String())
	assert.Len(t, base.Params, 1)
}
