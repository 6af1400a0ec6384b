package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/mmcdole/medbook/internal/api"
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, baseURL string) (*Service, *api.Client, *query.Client) {
	t.Helper()
	cache := query.New(query.WithStaleTime(time.Hour), query.WithDependencies(resource.Dependencies()))
	t.Cleanup(cache.Close)
	client := api.NewClient(baseURL)
	return NewService(client, cache, nil), client, cache
}

func ids(items []domain.Appointment) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.ID
	}
	return out
}

func TestCreateInvalidatesEveryAppointmentView(t *testing.T) {
	b, srv := newBackend(t)
	svc, client, cache := newService(t, srv.URL)
	ctx := context.Background()

	own := domain.AppointmentFilter{Page: 1, Limit: 10}
	adminKey := resource.AdminAppointmentsKey(own)
	adminFetch := func(ctx context.Context) (Page, error) {
		return client.ListAllAppointments(ctx, own)
	}

	page, err := svc.List(ctx, own)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	patient, err := svc.ForPatient(ctx, "p1", own)
	require.NoError(t, err)
	assert.Empty(t, patient.Items)
	admin, err := query.Fetch(ctx, cache, adminKey, adminFetch)
	require.NoError(t, err)
	assert.Empty(t, admin.Items)

	// fresh reads come from the cache
	_, err = svc.List(ctx, own)
	require.NoError(t, err)
	assert.EqualValues(t, 3, b.lists.Load())

	created, err := svc.Create(ctx, domain.CreateAppointmentInput{
		DoctorID:        "d1",
		PatientID:       "p1",
		AppointmentDate: "2026-11-02",
		AppointmentTime: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", created.ID)
	assert.Equal(t, domain.BookingVisit, created.BookingType)

	page, err = svc.List(ctx, own)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids(page.Items))

	patient, err = svc.ForPatient(ctx, "p1", own)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids(patient.Items))

	admin, err = query.Fetch(ctx, cache, adminKey, adminFetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids(admin.Items))
	assert.EqualValues(t, 6, b.lists.Load())
}

func TestObservedListRefetchesAfterCancel(t *testing.T) {
	_, srv := newBackend(t, domain.Appointment{ID: "a1", Status: domain.StatusPending, AppointmentDate: "2026-11-01"})
	svc, _, _ := newService(t, srv.URL)

	upcoming := svc.ObserveList(domain.AppointmentFilter{Status: domain.StatusPending})
	defer upcoming.Close()
	require.Eventually(t, func() bool { return len(upcoming.State().Data.Items) == 1 }, time.Second, 5*time.Millisecond)

	cancelled, err := svc.Cancel(context.Background(), "a1", "travelling")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	require.Eventually(t, func() bool {
		st := upcoming.State()
		return st.Status == query.StatusSuccess && !st.IsFetching && len(st.Data.Items) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestFailedCancelLeavesCache(t *testing.T) {
	b, srv := newBackend(t, domain.Appointment{ID: "a1", Status: domain.StatusCompleted})
	svc, _, _ := newService(t, srv.URL)
	ctx := context.Background()

	_, err := svc.List(ctx, domain.AppointmentFilter{})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, "a1", "")
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "only pending appointments can be cancelled", apiErr.Message)

	_, err = svc.List(ctx, domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, b.lists.Load())
}

func TestGatedReadsNeedIDs(t *testing.T) {
	_, srv := newBackend(t)
	svc, _, _ := newService(t, srv.URL)
	ctx := context.Background()

	_, err := svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrMissingParam)
	_, err = svc.ForPatient(ctx, "", domain.AppointmentFilter{})
	assert.ErrorIs(t, err, domain.ErrMissingParam)
	_, err = svc.Accept(ctx, "")
	assert.ErrorIs(t, err, domain.ErrMissingParam)
	_, err = svc.Create(ctx, domain.CreateAppointmentInput{})
	assert.ErrorIs(t, err, domain.ErrMissingParam)

	ob := svc.ObserveDetail("")
	defer ob.Close()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, query.StatusIdle, ob.State().Status)
}
