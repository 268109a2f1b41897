package httpapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
)

func TestRequestIDEchoedAndGenerated(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/healthz", nil, map[string]string{"X-Request-Id": "req-42"})
	if got := rec.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("X-Request-Id = %q, want req-42", got)
	}

	rec = app.do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("missing generated X-Request-Id")
	}
}

func TestAuthRejectsAnonymousRequests(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC) }
	cfg := testVerifierConfig(clock)
	app := newTestApp(t, WithAuth(cfg))

	expectErrorCode(t, app.do(t, http.MethodPost, "/v1/units", map[string]string{
		"serial": "SN-100", "model_id": "pp-2000",
	}, nil), http.StatusForbidden, "ACTOR_MISSING")

	// Health stays open.
	expectStatus(t, app.do(t, http.MethodGet, "/healthz", nil, nil), http.StatusOK)
}

func TestAuthEnforcesRoles(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC) }
	cfg := testVerifierConfig(clock)
	app := newTestApp(t, WithAuth(cfg))

	factory := signActorToken(t, cfg, string(auth.RoleFactory), "factory", "factory")
	dealer := signActorToken(t, cfg, string(auth.RoleDealer), "dealer", "dealer-1")
	admin := signActorToken(t, cfg, string(auth.RoleAdmin), "", "")

	body := map[string]string{"serial": "SN-100", "model_id": "pp-2000"}
	expectErrorCode(t, app.do(t, http.MethodPost, "/v1/units", body, bearer(dealer)),
		http.StatusForbidden, "ACTOR_FORBIDDEN")
	expectStatus(t, app.do(t, http.MethodPost, "/v1/units", body, bearer(factory)),
		http.StatusCreated)

	// Admin bypasses role checks.
	expectStatus(t, app.do(t, http.MethodPost, "/v1/units/SN-100/dispatch", map[string]any{
		"dealer": holderRefBody{Kind: "dealer", ID: "dealer-1"},
	}, bearer(admin)), http.StatusOK)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	cfg := testVerifierConfig(func() time.Time { return issuedAt })
	token := signActorToken(t, cfg, string(auth.RoleFactory), "factory", "factory")

	// Verify two hours after issuance, past the one hour expiry.
	late := testVerifierConfig(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	app := newTestApp(t, WithAuth(late))

	expectErrorCode(t, app.do(t, http.MethodPost, "/v1/units", map[string]string{
		"serial": "SN-100", "model_id": "pp-2000",
	}, bearer(token)), http.StatusForbidden, "ACTOR_FORBIDDEN")
}

func TestReplacementRequiresOwningCenter(t *testing.T) {
	clock := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	cfg := testVerifierConfig(func() time.Time { return clock })
	app := newTestApp(t, WithAuth(cfg))

	admin := signActorToken(t, cfg, string(auth.RoleAdmin), "", "")
	app.sellUnit(t, "SN-800", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))

	dispatch := decodeResponse[partDispatchResponse](t, app.do(t, http.MethodPost, "/v1/part-dispatches", map[string]any{
		"center_id": "center-1",
		"lines":     []partLineBody{{Code: "MB-1", Name: "Motor Bearing", Qty: 5}},
	}, bearer(admin)))

	visit := decodeResponse[visitResponse](t, app.do(t, http.MethodPost, "/v1/visits", map[string]string{
		"serial": "SN-800", "center_id": "center-1",
	}, bearer(admin)))

	foreign := signActorToken(t, cfg, string(auth.RoleServiceCenter), "service_center", "center-2")
	expectErrorCode(t, app.do(t, http.MethodPost, "/v1/visits/"+visit.ID+"/replacements", map[string]any{
		"dispatch_event_id": dispatch.EventID,
		"code":              "MB-1",
		"qty":               1,
		"kind":              "REPLACEMENT",
	}, bearer(foreign)), http.StatusForbidden, "VISIT_WRONG_CENTER")

	owner := signActorToken(t, cfg, string(auth.RoleServiceCenter), "service_center", "center-1")
	expectStatus(t, app.do(t, http.MethodPost, "/v1/visits/"+visit.ID+"/replacements", map[string]any{
		"dispatch_event_id": dispatch.EventID,
		"code":              "MB-1",
		"qty":               1,
		"kind":              "REPLACEMENT",
	}, bearer(owner)), http.StatusCreated)
}
