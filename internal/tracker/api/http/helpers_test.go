package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/service"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage/sqlite"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/timeline"
)

type testApp struct {
	handler http.Handler
	store   *sqlite.Store
	service *service.Service
	now     *time.Time
}

func newTestApp(t *testing.T, opts ...AppOption) *testApp {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tracker.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	app := &testApp{store: store, now: &now}
	clock := func() time.Time { return *app.now }

	counter := 0
	app.service = service.New(service.Stores{
		Events:    store,
		Units:     store,
		Models:    store,
		Visits:    store,
		PartStock: store,
	},
		service.WithClock(clock),
		service.WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("id-%04d", counter)
		}),
	)
	builder := timeline.NewBuilder(timeline.Stores{
		Events: store,
		Units:  store,
		Models: store,
		Visits: store,
	}).WithClock(clock)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app.handler = NewRouter(NewApp(app.service, builder, append([]AppOption{WithLogger(logger)}, opts...)...))

	err = store.PutModel(context.Background(), domain.Model{
		ID:        "pp-2000",
		Name:      "Pressure Pump 2000",
		Warranty:  domain.WarrantyWindow{PartsMonths: 12, ServiceMonths: 24},
		Enabled:   true,
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed model: %v", err)
	}
	return app
}

func (a *testApp) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	payload := decodeResponse[jsonError](t, rec)
	if payload.Error != code {
		t.Fatalf("error code = %q, want %q (body %s)", payload.Error, code, rec.Body.String())
	}
}

// sellUnit drives a unit through registration and sale directly against the
// service so endpoint tests can start from a sold unit.
func (a *testApp) sellUnit(t *testing.T, serial string, saleDate time.Time) {
	t.Helper()
	ctx := context.Background()
	if _, err := a.service.RegisterUnit(ctx, service.RegisterUnitInput{Serial: serial, ModelID: "pp-2000"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := a.service.SellUnit(ctx, service.SellUnitInput{
		Serial:   serial,
		Customer: domain.HolderRef{Kind: domain.HolderCustomer, ID: "cust-1"},
		SaleDate: saleDate,
	})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
}

func testVerifierConfig(clock func() time.Time) auth.VerifierConfig {
	return auth.VerifierConfig{
		Issuer:   "tracker-test",
		Audience: "tracker",
		Secret:   []byte("integration-test-secret"),
		Now:      clock,
	}
}

func signActorToken(t *testing.T, cfg auth.VerifierConfig, role, partyKind, partyID string) string {
	t.Helper()
	now := cfg.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":        cfg.Issuer,
		"aud":        cfg.Audience,
		"sub":        "operator-1",
		"iat":        now.Unix(),
		"exp":        now.Add(time.Hour).Unix(),
		"role":       role,
		"party_kind": partyKind,
		"party_id":   partyID,
	})
	signed, err := token.SignedString(cfg.Secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
