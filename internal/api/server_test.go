package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/talgya/ashes-void/internal/auth"
	"github.com/talgya/ashes-void/internal/campaign"
	"github.com/talgya/ashes-void/internal/persistence"
	"github.com/talgya/ashes-void/internal/world"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv     *Server
	handler http.Handler
	m       *world.Map
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "ashes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return testNow }
	svc := campaign.NewService(db, auth.NewAdminList([]string{"malcador@terra.gov"}))
	svc.Now = clock
	m := world.DefaultLayout(world.DefaultRadius)
	err = svc.EnsureBootstrap(context.Background(), campaign.Bootstrap{
		Map:          m,
		SeasonStart:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SeasonLength: 89 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("EnsureBootstrap: %v", err)
	}

	srv := &Server{
		Service:      svc,
		Accounts:     auth.Accounts{Users: db, Cost: bcrypt.MinCost, Now: clock},
		Tokens:       auth.Tokens{Secret: []byte("test-secret"), Now: clock},
		CORSOrigins:  []string{"https://ashes.example.com"},
		LoginLimiter: NewRateLimiter(100, 100),
	}
	return &testEnv{srv: srv, handler: srv.Handler(), m: m}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func (e *testEnv) register(t *testing.T, email, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/accounts", "", credentials{Email: email, DisplayName: name, Password: "for-the-emperor"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	return resp.Token
}

func (e *testEnv) id(q, r int) int64 {
	return e.m.Get(world.HexCoord{Q: q, R: r}).ID
}

func TestStatusAndMap(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	var status struct {
		Banner      string `json:"banner"`
		Territories int    `json:"territories"`
		Planets     int    `json:"planets"`
		Leader      string `json:"leader"`
	}
	decode(t, rec, &status)
	if status.Territories != 61 || status.Planets != 6 || status.Leader != "Tied" {
		t.Errorf("status = %+v", status)
	}
	if status.Banner != "Campaign running 2026-01-01 → 2026-03-31. 58 day(s) remaining." {
		t.Errorf("banner = %q", status.Banner)
	}

	rec = e.do(t, http.MethodGet, "/api/v1/map", "", nil)
	var bulk struct {
		Radius int        `json:"radius"`
		Hexes  []hexEntry `json:"hexes"`
	}
	decode(t, rec, &bulk)
	if bulk.Radius != 4 || len(bulk.Hexes) != 61 {
		t.Errorf("map radius %d hexes %d", bulk.Radius, len(bulk.Hexes))
	}

	rec = e.do(t, http.MethodGet, "/api/v1/map/0/0", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("hex detail: %d %s", rec.Code, rec.Body.String())
	}
	var detail struct {
		Hex       hexEntry   `json:"hex"`
		Neighbors []hexEntry `json:"neighbors"`
	}
	decode(t, rec, &detail)
	if detail.Hex.Name != "Terra (Anchor)" || detail.Hex.Kind != "planet" || len(detail.Neighbors) != 6 {
		t.Errorf("detail = %+v", detail)
	}

	if rec := e.do(t, http.MethodGet, "/api/v1/map/9/9", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing hex: %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/v1/map/a/b", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad coords: %d", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/map", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST map: %d", rec.Code)
	}
}

func TestCategories(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	var resp struct {
		Categories []struct {
			Key         string `json:"key"`
			BaseImpact  int    `json:"base_impact"`
			CrushImpact int    `json:"crushing_impact"`
		} `json:"categories"`
	}
	decode(t, rec, &resp)
	if len(resp.Categories) != 4 {
		t.Fatalf("categories = %d", len(resp.Categories))
	}
	for _, c := range resp.Categories {
		if c.Key == "legions_imperialis" && (c.BaseImpact != 3 || c.CrushImpact != 4) {
			t.Errorf("legions_imperialis = %+v", c)
		}
	}
}

func TestSubmitRequiresSession(t *testing.T) {
	e := newTestEnv(t)
	body := campaign.BattleInput{BattleType: "heresy30k", LocationID: e.id(0, 0), WinningSide: "loyalist"}
	if rec := e.do(t, http.MethodPost, "/api/v1/battles", "", body); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous submit: %d", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/battles", "forged.token.value", body); rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token submit: %d", rec.Code)
	}
}

func TestBattleFlow(t *testing.T) {
	e := newTestEnv(t)
	horus := e.register(t, "horus@cthonia.net", "Horus")
	sangu := e.register(t, "sanguinius@baal.net", "Sanguinius")

	rec := e.do(t, http.MethodPost, "/api/v1/battles", horus, campaign.BattleInput{
		BattleType: "legions_imperialis", LocationID: e.id(0, 0), WinningSide: "traitor", Crushing: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	var submitted struct {
		Battle struct {
			ID int64 `json:"id"`
		} `json:"battle"`
		ScoreDelta struct {
			Traitor int `json:"traitor"`
			Lead    int `json:"lead"`
		} `json:"score_delta"`
	}
	decode(t, rec, &submitted)
	if submitted.ScoreDelta.Traitor != 2 || submitted.ScoreDelta.Lead != -2 {
		t.Errorf("score delta = %+v", submitted.ScoreDelta)
	}

	rec = e.do(t, http.MethodPost, "/api/v1/battles", horus, campaign.BattleInput{
		BattleType: "gothic_armada", LocationID: e.id(0, 0), WinningSide: "traitor",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("void battle on planet: %d %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/api/v1/battles?limit=10", sangu, nil)
	var list struct {
		Battles []struct {
			ID        int64 `json:"id"`
			CanDelete bool  `json:"can_delete"`
		} `json:"battles"`
	}
	decode(t, rec, &list)
	if len(list.Battles) != 1 || list.Battles[0].CanDelete {
		t.Errorf("list for other player = %+v", list.Battles)
	}

	del := map[string]any{"ids": []int64{submitted.Battle.ID}}
	if rec := e.do(t, http.MethodPost, "/api/v1/battles/delete", sangu, del); rec.Code != http.StatusForbidden {
		t.Errorf("delete by other player: %d %s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodPost, "/api/v1/battles/delete", horus, del)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete by creator: %d %s", rec.Code, rec.Body.String())
	}
	var res campaign.DeleteResult
	decode(t, rec, &res)
	if len(res.Deleted) != 1 || res.Deleted[0] != submitted.Battle.ID {
		t.Errorf("delete result = %+v", res)
	}

	rec = e.do(t, http.MethodGet, "/api/v1/score", "", nil)
	var score struct {
		Lead   int    `json:"lead"`
		Leader string `json:"leader"`
	}
	decode(t, rec, &score)
	if score.Lead != 0 || score.Leader != "Tied" {
		t.Errorf("score after delete = %+v", score)
	}
}

func TestAdminEndpoints(t *testing.T) {
	e := newTestEnv(t)
	horus := e.register(t, "horus@cthonia.net", "Horus")
	admin := e.register(t, "Malcador@Terra.gov", "Malcador")

	if rec := e.do(t, http.MethodPost, "/api/v1/recalculate", horus, nil); rec.Code != http.StatusForbidden {
		t.Errorf("recalculate by player: %d", rec.Code)
	}
	rec := e.do(t, http.MethodPost, "/api/v1/recalculate", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recalculate by admin: %d %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/api/v1/me", admin, nil)
	var me struct {
		IsAdmin bool `json:"is_admin"`
	}
	decode(t, rec, &me)
	if !me.IsAdmin {
		t.Error("admin should be reported as admin")
	}

	req := campaign.SeasonRequest{Name: "Season 2", Start: "2026-02-01", End: "2026-04-30"}
	if rec := e.do(t, http.MethodPost, "/api/v1/seasons", horus, req); rec.Code != http.StatusForbidden {
		t.Errorf("start season by player: %d", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/seasons", admin, req); rec.Code != http.StatusConflict {
		t.Errorf("start season over running one: %d %s", rec.Code, rec.Body.String())
	}
	req.Force = true
	if rec := e.do(t, http.MethodPost, "/api/v1/seasons", admin, req); rec.Code != http.StatusCreated {
		t.Fatalf("forced season start: %d %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/api/v1/seasons", "", nil)
	var seasons struct {
		Seasons []campaign.Season `json:"seasons"`
	}
	decode(t, rec, &seasons)
	if len(seasons.Seasons) != 2 || seasons.Seasons[0].Name != "Season 2" {
		t.Errorf("seasons = %+v", seasons.Seasons)
	}
}

func TestLoginAndCookieSession(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "horus@cthonia.net", "Horus")

	rec := e.do(t, http.MethodPost, "/api/v1/login", "", credentials{Email: "horus@cthonia.net", Password: "wrong-password"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login: %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/v1/login", "", credentials{Email: "HORUS@cthonia.net", Password: "for-the-emperor"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	e.handler.ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Errorf("me via cookie: %d %s", me.Code, me.Body.String())
	}

	if rec := e.do(t, http.MethodPost, "/api/v1/accounts", "", credentials{Email: "horus@cthonia.net", DisplayName: "Again", Password: "for-the-emperor"}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate registration: %d", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/accounts", "", credentials{Email: "x@y.zz", DisplayName: "Short", Password: "short"}); rec.Code != http.StatusBadRequest {
		t.Errorf("weak password: %d", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	e := newTestEnv(t)
	e.srv.LoginLimiter = NewRateLimiter(0.001, 2)
	e.handler = e.srv.Handler()

	for i := 0; i < 2; i++ {
		if rec := e.do(t, http.MethodPost, "/api/v1/login", "", credentials{Email: "a@b.cd", Password: "whatever1"}); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i+1, rec.Code)
		}
	}
	rec := e.do(t, http.MethodPost, "/api/v1/login", "", credentials{Email: "a@b.cd", Password: "whatever1"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt: %d", rec.Code)
	}
	if s, err := strconv.Atoi(rec.Header().Get("Retry-After")); err != nil || s < 1 {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/battles", nil)
	req.Header.Set("Origin", "https://ashes.example.com")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://ashes.example.com" {
		t.Errorf("preflight: %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/score", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin allowed: %q", got)
	}
}

func TestCORSWildcardWithholdsCredentials(t *testing.T) {
	h := corsMiddleware([]string{"*", "https://ashes.example.com"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		origin string
		creds  string
	}{
		{"https://evil.example.com", ""},
		{"https://ashes.example.com", "true"},
		{"http://localhost:5173", "true"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.origin {
			t.Errorf("%s: Allow-Origin = %q", tt.origin, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.creds {
			t.Errorf("%s: Allow-Credentials = %q, want %q", tt.origin, got, tt.creds)
		}
	}
}

func TestWritesRejectArchivedSeason(t *testing.T) {
	e := newTestEnv(t)
	horus := e.register(t, "horus@cthonia.net", "Horus")
	admin := e.register(t, "malcador@terra.gov", "Malcador")

	rec := e.do(t, http.MethodPost, "/api/v1/battles", horus, campaign.BattleInput{
		BattleType: "heresy30k", LocationID: e.id(0, 0), WinningSide: "traitor",
	})
	var submitted struct {
		Battle campaign.Battle `json:"battle"`
	}
	decode(t, rec, &submitted)
	old := submitted.Battle.CampaignID

	req := campaign.SeasonRequest{Name: "Season 2", Start: "2026-02-01", End: "2026-04-30", Force: true}
	if rec := e.do(t, http.MethodPost, "/api/v1/seasons", admin, req); rec.Code != http.StatusCreated {
		t.Fatalf("forced season start: %d %s", rec.Code, rec.Body.String())
	}

	del := map[string]any{"campaign_id": old, "ids": []int64{submitted.Battle.ID}}
	if rec := e.do(t, http.MethodPost, "/api/v1/battles/delete", horus, del); rec.Code != http.StatusConflict {
		t.Errorf("delete from archived season: %d %s", rec.Code, rec.Body.String())
	}
	path := "/api/v1/recalculate?campaign=" + strconv.FormatInt(old, 10)
	if rec := e.do(t, http.MethodPost, path, admin, nil); rec.Code != http.StatusConflict {
		t.Errorf("recalculate archived season: %d %s", rec.Code, rec.Body.String())
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/recalculate", admin, nil); rec.Code != http.StatusOK {
		t.Errorf("recalculate active season: %d %s", rec.Code, rec.Body.String())
	}
}
