package web

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/adapters/http/middleware"
	"gymdash/internal/application/orchestrators"
	"gymdash/internal/application/projections"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/validation"
)

func TestAPI_RequiresAuthentication(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodGet, "/api/members", "", middleware.Session{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	notOnboarded := northStaff
	notOnboarded.OnboardingComplete = false
	rec = hs.api(http.MethodGet, "/api/members", "", notOnboarded)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_InvalidBearerToken(t *testing.T) {
	hs := newHarness(t)
	req := newJSONRequest(http.MethodGet, "/api/members", "")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := serve(hs, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_UnknownKind(t *testing.T) {
	hs := newHarness(t)
	rec := hs.api(http.MethodGet, "/api/widgets", "", adminSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ListIsScopedToFranchise(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodGet, "/api/members", "", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]member.Member](t, rec), 2)

	rec = hs.api(http.MethodGet, "/api/members", "", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]member.Member](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "ana", got[0].ID)

	// A manager cannot widen the view with franchise_id.
	rec = hs.api(http.MethodGet, "/api/members?franchise_id=south", "", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[[]member.Member](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "ana", got[0].ID)

	rec = hs.api(http.MethodGet, "/api/members?franchise_id=south", "", adminSession)
	got = decode[[]member.Member](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "cy", got[0].ID)
}

func TestAPI_ListSearchSortAndPaging(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodGet, "/api/members?q=okafor", "", adminSession)
	got := decode[[]member.Member](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "cy", got[0].ID)

	rec = hs.api(http.MethodGet, "/api/members?sort=name&dir=desc&per_page=1", "", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	got = decode[[]member.Member](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "cy", got[0].ID)

	rec = hs.api(http.MethodGet, "/api/members?status=expired", "", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPI_GetOutsideFranchiseIsNotFound(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodGet, "/api/members/cy", "", northManager)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hs.api(http.MethodGet, "/api/members/ana", "", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana Lima", decode[member.Member](t, rec).Name)
}

func TestAPI_CreateMemberPinsFranchise(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodPost, "/api/members",
		`{"name":"Bo Chen","email":"bo@gym.test","package":"basic","franchise_id":"south"}`, northManager)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[member.Member](t, rec)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "north", got.FranchiseID)
	assert.Equal(t, member.StatusActive, got.Status)

	stored, err := hs.stores.MemberStore.GetByID(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bo Chen", stored.Name)
}

func TestAPI_CreateRejectsInvalidBodies(t *testing.T) {
	hs := newHarness(t)

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"missing required", `{"email":"x@gym.test"}`, http.StatusUnprocessableEntity, "name"},
		{"unknown field", `{"name":"X","email":"x@gym.test","nickname":"x"}`, http.StatusUnprocessableEntity, ""},
		{"bad status", `{"name":"X","email":"x@gym.test","status":"frozen"}`, http.StatusUnprocessableEntity, "status"},
		{"malformed", `{"name":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := hs.api(http.MethodPost, "/api/members", tt.body, adminSession)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[errorBody](t, rec)
			assert.NotEmpty(t, body.Error)
			if tt.field != "" {
				assert.Contains(t, fieldNames(body.Fields), tt.field)
			}
		})
	}
}

func fieldNames(fields []validation.FieldError) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	return names
}

func TestAPI_UpdateMember(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodPut, "/api/members/ana",
		`{"name":"Ana Lima-Souza","email":"ana@gym.test","package":"vip","status":"active"}`, northManager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[member.Member](t, rec)
	assert.Equal(t, "ana", got.ID)
	assert.Equal(t, "vip", got.Package)
	assert.Equal(t, "north", got.FranchiseID)
	assert.False(t, got.JoinedAt.IsZero(), "joined_at is kept from the stored record")

	rec = hs.api(http.MethodPut, "/api/members/cy",
		`{"name":"Cy","email":"cy@gym.test","package":"basic"}`, northManager)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_LedgerKindsAreImmutable(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodPut, "/api/payments/p1", `{}`, adminSession)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = hs.api(http.MethodDelete, "/api/checkins/c1", "", adminSession)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_DeleteIsSoft(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodDelete, "/api/members/ana", "", northManager)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = hs.api(http.MethodGet, "/api/members/ana", "", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, member.StatusInactive, decode[member.Member](t, rec).Status)

	// Deleting again is a no-op.
	rec = hs.api(http.MethodDelete, "/api/members/ana", "", northManager)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = hs.api(http.MethodDelete, "/api/members/cy", "", northManager)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_FranchiseWritesNeedAdmin(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodPost, "/api/franchises", `{"name":"East"}`, northManager)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hs.api(http.MethodDelete, "/api/franchises/north", "", northManager)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hs.api(http.MethodPost, "/api/franchises", `{"name":"East"}`, adminSession)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAPI_CheckInAndOut(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodPost, "/api/checkins", `{"member_id":"ana","method":"qr"}`, northStaff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[checkin.CheckIn](t, rec)
	assert.Equal(t, checkin.StatusActive, c.Status)
	assert.Equal(t, "qr", c.Method)

	rec = hs.api(http.MethodPost, "/api/checkins", `{"member_id":"ana"}`, northStaff)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = hs.api(http.MethodPost, "/api/checkins", `{"member_id":"cy"}`, northStaff)
	assert.Equal(t, http.StatusNotFound, rec.Code, "members of other franchises are invisible")

	rec = hs.api(http.MethodGet, "/api/checkins", "", northStaff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]checkin.CheckIn](t, rec), 1)

	rec = hs.api(http.MethodPost, "/api/checkins/checkout", `{"member_id":"ana"}`, northStaff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c = decode[checkin.CheckIn](t, rec)
	assert.Equal(t, checkin.StatusCompleted, c.Status)
	require.NotNil(t, c.CheckOutTime)

	rec = hs.api(http.MethodPost, "/api/checkins/checkout", `{"member_id":"ana"}`, northStaff)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_PaymentLifecycle(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodPost, "/api/payments",
		`{"member_id":"ana","amount":4900,"method":"card","type":"membership","due_date":"2026-03-20T00:00:00Z"}`, northManager)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[payment.Payment](t, rec)
	assert.Equal(t, payment.StatusPending, p.Status)

	rec = hs.api(http.MethodPost, "/api/payments/"+p.ID+"/status", `{"status":"completed"}`, northManager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p = decode[payment.Payment](t, rec)
	assert.Equal(t, payment.StatusCompleted, p.Status)
	require.NotNil(t, p.PaidAt)

	rec = hs.api(http.MethodPost, "/api/payments/"+p.ID+"/status", `{"status":"failed"}`, northManager)
	assert.Equal(t, http.StatusConflict, rec.Code, "completed is terminal")

	rec = hs.api(http.MethodPost, "/api/payments/"+p.ID+"/status", `{"status":"refunded"}`, northManager)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	southManager := northManager
	southManager.FranchiseID = "south"
	rec = hs.api(http.MethodPost, "/api/payments/"+p.ID+"/status", `{"status":"failed"}`, southManager)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_SaleCheckout(t *testing.T) {
	hs := newHarness(t)

	southStaff := northStaff
	southStaff.FranchiseID = "south"
	rec := hs.api(http.MethodPost, "/api/sales",
		`{"items":[{"product_id":"bar","quantity":2}],"payment_method":"cash"}`, southStaff)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "north stock is not sellable from south")
	assert.Contains(t, rec.Body.String(), "unknown product")

	rec = hs.api(http.MethodPost, "/api/sales",
		`{"items":[{"product_id":"bar","quantity":2}],"payment_method":"cash"}`, northStaff)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = hs.api(http.MethodGet, "/api/products/bar", "", northStaff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock":0`)

	rec = hs.api(http.MethodPost, "/api/sales",
		`{"items":[{"product_id":"bar","quantity":1}],"payment_method":"cash"}`, northStaff)
	assert.Equal(t, http.StatusConflict, rec.Code, "out of stock")
}

func TestAPI_EnrollAndUnenroll(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	require.NoError(t, hs.stores.ScheduleStore.Save(ctx, schedule.Event{
		ID: "yoga", FranchiseID: "north", Title: "Morning Yoga", Type: schedule.TypeClass, Room: "Studio A",
		StartTime: testNow.Add(24 * time.Hour), EndTime: testNow.Add(25 * time.Hour),
		Capacity: 1, Status: schedule.StatusScheduled,
	}))

	rec := hs.api(http.MethodPost, "/api/schedule-events/yoga/enroll", "", northStaff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[schedule.Event](t, rec).Enrolled)

	rec = hs.api(http.MethodPost, "/api/schedule-events/yoga/enroll", "", northStaff)
	assert.Equal(t, http.StatusConflict, rec.Code)

	southStaff := northStaff
	southStaff.FranchiseID = "south"
	rec = hs.api(http.MethodPost, "/api/schedule-events/yoga/unenroll", "", southStaff)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = hs.api(http.MethodPost, "/api/schedule-events/yoga/unenroll", "", northStaff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[schedule.Event](t, rec).Enrolled)
}

func TestAPI_Dashboard(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodGet, "/api/dashboard", "", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[projections.Dashboard](t, rec)
	assert.Equal(t, 2, d.TotalMembers)
	assert.Equal(t, 1, d.LowStock)

	rec = hs.api(http.MethodGet, "/api/dashboard", "", northManager)
	require.Equal(t, http.StatusOK, rec.Code)
	d = decode[projections.Dashboard](t, rec)
	assert.Equal(t, "north", d.FranchiseID)
	assert.Equal(t, 1, d.TotalMembers)
}

func TestAPI_RunAlerts(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodPost, "/api/alerts/run", "", northStaff)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hs.api(http.MethodPost, "/api/alerts/run", "", northManager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[alertRun](t, rec)
	assert.Equal(t, 1, res.LowStock)
	assert.Positive(t, res.Enqueued)
	assert.Zero(t, res.Delivered, "no processor is wired")

	rec = hs.api(http.MethodGet, "/api/admin/outbox?status=all", "", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "[]\n", rec.Body.String())
}

func TestAPI_AdminOutbox(t *testing.T) {
	hs := newHarness(t)

	rec := hs.api(http.MethodGet, "/api/admin/outbox", "", northManager)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = hs.api(http.MethodGet, "/api/admin/outbox", "", adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = hs.api(http.MethodPost, "/api/admin/outbox/missing/abandon", "", adminSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := orchestrators.ExecuteThresholdAlerts(context.Background(), hs.srv.alertsDeps())
	require.NoError(t, err)
	pending, err := hs.stores.OutboxStore.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, pending)

	id := pending[0].ID
	rec = hs.api(http.MethodPost, "/api/admin/outbox/"+id+"/abandon", "", adminSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = hs.api(http.MethodPost, "/api/admin/outbox/"+id+"/retry", "", adminSession)
	assert.Equal(t, http.StatusConflict, rec.Code, "abandoned entries are terminal")
}

func TestAPI_AdminPerfDisabledWithoutCollector(t *testing.T) {
	hs := newHarness(t)
	rec := hs.api(http.MethodGet, "/api/admin/perf", "", adminSession)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
