package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/tricket/internal/cache"
	"github.com/iliyamo/tricket/internal/config"
	"github.com/iliyamo/tricket/internal/handler"
	"github.com/iliyamo/tricket/internal/queue"
	"github.com/iliyamo/tricket/internal/router"
	"github.com/iliyamo/tricket/internal/schedule"
	"github.com/iliyamo/tricket/internal/service"
	"github.com/iliyamo/tricket/internal/utils"
)

const upstreamBody = `{"productions":[
 {"id":"A","title":"Alpha","description":{"en-US":"a"},"shortDescription":{"en-US":"a"},
  "tags":[{"id":"t1","name":"Drama"}],
  "screenings":[%s,%s]},
 {"id":"B","title":"Beta Café","description":{"en-US":"b"},"shortDescription":{"en-US":"b"},
  "tags":[{"id":"t2","name":"Comedy"}],
  "screenings":[%s]}
]}`

func screening(id, production, start, venue string) string {
	return fmt.Sprintf(`{"id":%q,"productionId":%q,"startAtUtc":%q,"endsAtUtc":%q,"timezone":"UTC",
	 "hallName":"H","venueName":%q,"url":"u","hallCapacity":10,"numberOfBookedSeats":1,"secondsToEndOfSale":60}`,
		id, production, start, start, venue)
}

type env struct {
	e        *echo.Echo
	hits     *atomic.Int32
	password string
	secret   string
}

type nopPublisher struct{ cleared atomic.Int32 }

func (*nopPublisher) PublishProductionsSynced(context.Context, queue.ProductionsSyncedEvent) error {
	return nil
}

func (p *nopPublisher) PublishCacheCleared(context.Context, queue.CacheClearedEvent) error {
	p.cleared.Add(1)
	return nil
}

func setup(t *testing.T, rdb *redis.Client) *env {
	t.Helper()
	hits := &atomic.Int32{}
	body := fmt.Sprintf(upstreamBody,
		screening("a1", "A", "2025-01-10T09:00:00Z", "North"),
		screening("a2", "A", "2025-01-11T09:00:00Z", "North"),
		screening("b1", "B", "2025-01-10T20:00:00Z", "South"))
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	api := service.NewAPIClient(upstream.URL, "key", cache.New(cache.NewMemoryStore(), time.Minute),
		service.WithPublisher(&nopPublisher{}))
	tr := service.NewTricket(api,
		service.WithHomeURL("https://site.example"),
		service.WithClock(schedule.FixedClock(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))))

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	e := echo.New()
	router.RegisterRoutes(e, &handler.PublicHandler{Tricket: tr}, &handler.ScheduleHandler{Tricket: tr})
	router.RegisterAdmin(e, &handler.AdminHandler{
		Tricket:      tr,
		JWTSecret:    "secret",
		PasswordHash: string(hash),
		TokenTTL:     time.Minute,
	}, "secret", config.RateLimitConfig{Enabled: true, Limit: 3, Window: time.Hour, Prefix: "rl"}, rdb)
	return &env{e: e, hits: hits, password: "hunter2", secret: "secret"}
}

func (v *env) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type screeningsResponse struct {
	View  string `json:"view"`
	Count int    `json:"count"`
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

func (r screeningsResponse) ids() string {
	var out []string
	for _, it := range r.Items {
		out = append(out, it.ID)
	}
	return strings.Join(out, ",")
}

func TestHealth(t *testing.T) {
	v := setup(t, nil)
	rec := v.do(http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("expected ok, got %d %q", rec.Code, rec.Body.String())
	}
	if v.hits.Load() != 0 {
		t.Fatal("health check must not call upstream")
	}
}

func TestListProductions(t *testing.T) {
	v := setup(t, nil)
	cases := []struct {
		query string
		want  string
	}{
		{"", "A,B"},
		{"?tag=t1", "A"},
		{"?tag_name=comedy", "B"},
		{"?tags=t2,%20t1", "A,B"},
		{"?all_tags=t1,t2", ""},
		{"?tag=missing", ""},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := v.do(http.MethodGet, "/v1/productions"+tc.query, "", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var body struct {
				Items []struct {
					ID  string `json:"id"`
					URL string `json:"url"`
				} `json:"items"`
			}
			decode(t, rec, &body)
			var got []string
			for _, it := range body.Items {
				got = append(got, it.ID)
			}
			if strings.Join(got, ",") != tc.want {
				t.Fatalf("got %v, want %s", got, tc.want)
			}
		})
	}
	if v.hits.Load() != 1 {
		t.Fatalf("expected one upstream fetch, got %d", v.hits.Load())
	}
}

func TestGetProduction(t *testing.T) {
	v := setup(t, nil)

	rec := v.do(http.MethodGet, "/v1/productions/A", "", "")
	var p struct {
		ID       string            `json:"id"`
		URL      string            `json:"url"`
		Upcoming []json.RawMessage `json:"upcomingScreenings"`
	}
	decode(t, rec, &p)
	if rec.Code != http.StatusOK || p.ID != "A" || p.URL != "https://site.example/productions/alpha/" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if len(p.Upcoming) != 2 {
		t.Fatalf("expected 2 upcoming screenings, got %d", len(p.Upcoming))
	}

	if rec := v.do(http.MethodGet, "/v1/productions/by-title/beta-cafe", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected slug lookup to succeed, got %d", rec.Code)
	}
	if rec := v.do(http.MethodGet, "/v1/productions/Z", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTags(t *testing.T) {
	v := setup(t, nil)
	rec := v.do(http.MethodGet, "/v1/tags", "", "")
	var body struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}
	decode(t, rec, &body)
	if len(body.Items) != 2 || body.Items[0].Name != "Comedy" || body.Items[1].Name != "Drama" {
		t.Fatalf("unexpected tags %+v", body.Items)
	}
	if rec := v.do(http.MethodGet, "/v1/tags/t1", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected tag t1, got %d", rec.Code)
	}
	if rec := v.do(http.MethodGet, "/v1/tags/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSchedule(t *testing.T) {
	v := setup(t, nil)
	cases := []struct {
		query string
		want  string
	}{
		{"?view=today", "a1,b1"},
		{"?view=tomorrow", "a2"},
		{"?view=week", "a1,b1,a2"},
		{"?view=next7", "a1,b1,a2"},
		{"?view=date&date=2025-01-10", "a1,b1"},
		{"?view=date&date=2099-01-01", ""},
		{"?view=range&start=2025-01-11&end=2025-01-31", "a2"},
		{"?view=full&flat=1", "a1,b1,a2"},
		{"?view=today&venue=South", "b1"},
		{"?view=today&tag=t1", "a1"},
		{"?view=week&tag_name=COMEDY", "b1"},
		{"?view=week&tags=t1,t2&venue=North", "a1,a2"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := v.do(http.MethodGet, "/v1/schedule"+tc.query, "", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var body screeningsResponse
			decode(t, rec, &body)
			if body.ids() != tc.want || body.Count != len(body.Items) {
				t.Fatalf("got %q (count %d), want %q", body.ids(), body.Count, tc.want)
			}
		})
	}
}

func TestSchedule_FullGroupedByDay(t *testing.T) {
	v := setup(t, nil)
	rec := v.do(http.MethodGet, "/v1/schedule", "", "")
	var body struct {
		Days []struct {
			Date       string            `json:"date"`
			Screenings []json.RawMessage `json:"screenings"`
		} `json:"days"`
	}
	decode(t, rec, &body)
	if len(body.Days) != 2 || body.Days[0].Date != "2025-01-10" || len(body.Days[0].Screenings) != 2 {
		t.Fatalf("unexpected days %s", rec.Body.String())
	}
}

func TestSchedule_GroupByProduction(t *testing.T) {
	v := setup(t, nil)
	rec := v.do(http.MethodGet, "/v1/schedule?view=today&group=production", "", "")
	var body struct {
		Groups []struct {
			ProductionID string            `json:"productionId"`
			URL          string            `json:"url"`
			Screenings   []json.RawMessage `json:"screenings"`
		} `json:"groups"`
	}
	decode(t, rec, &body)
	if len(body.Groups) != 2 || body.Groups[0].ProductionID != "A" || body.Groups[1].URL != "https://site.example/productions/beta-cafe/" {
		t.Fatalf("unexpected groups %s", rec.Body.String())
	}
}

func TestSchedule_BadRequests(t *testing.T) {
	v := setup(t, nil)
	for _, q := range []string{"?view=yesterday", "?view=date", "?view=date&date=10-01-2025", "?view=range&start=2025-01-01"} {
		if rec := v.do(http.MethodGet, "/v1/schedule"+q, "", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestScheduleDatesAndVenues(t *testing.T) {
	v := setup(t, nil)
	var dates, venues struct {
		Items []string `json:"items"`
	}
	decode(t, v.do(http.MethodGet, "/v1/schedule/dates", "", ""), &dates)
	decode(t, v.do(http.MethodGet, "/v1/schedule/venues", "", ""), &venues)
	if strings.Join(dates.Items, ",") != "2025-01-10,2025-01-11" {
		t.Fatalf("unexpected dates %v", dates.Items)
	}
	if strings.Join(venues.Items, ",") != "North,South" {
		t.Fatalf("unexpected venues %v", venues.Items)
	}
}

func TestAdmin_TokenAndCacheClear(t *testing.T) {
	v := setup(t, nil)

	if rec := v.do(http.MethodPost, "/v1/admin/token", `{"password":"wrong"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := v.do(http.MethodPost, "/v1/admin/token", `{}`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec := v.do(http.MethodPost, "/v1/admin/token", `{"password":"hunter2"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, rec, &tok)

	if rec := v.do(http.MethodPost, "/v1/admin/cache/clear", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	viewer, _ := utils.NewAccessToken(v.secret, "bob", "VIEWER", time.Minute)
	if rec := v.do(http.MethodPost, "/v1/admin/cache/clear", "", viewer.Token); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	v.do(http.MethodGet, "/v1/productions", "", "")
	if rec := v.do(http.MethodPost, "/v1/admin/cache/clear", "", tok.AccessToken); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	v.do(http.MethodGet, "/v1/productions", "", "")
	if v.hits.Load() != 2 {
		t.Fatalf("expected refetch after clear, got %d fetches", v.hits.Load())
	}
}

func TestAdmin_TokenRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	v := setup(t, rdb)

	for i := 0; i < 3; i++ {
		if rec := v.do(http.MethodPost, "/v1/admin/token", `{"password":"wrong"}`, ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rec.Code)
		}
	}
	if rec := v.do(http.MethodPost, "/v1/admin/token", `{"password":"hunter2"}`, ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
