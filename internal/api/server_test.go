package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pbaille/contentforge/internal/domain"
	"github.com/pbaille/contentforge/internal/generator"
	"github.com/pbaille/contentforge/internal/logger"
	"github.com/pbaille/contentforge/internal/persist"
	"github.com/pbaille/contentforge/internal/planner"
	"github.com/pbaille/contentforge/internal/session"
	"github.com/pbaille/contentforge/internal/tier"
	"github.com/pbaille/contentforge/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	backend *persist.JSONFiles
	planner *planner.Store
	sess    *session.Session
}

func newTestServer(t *testing.T, plan tier.Tier) *testServer {
	t.Helper()
	backend, err := persist.NewJSONFiles(t.TempDir())
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }
	store := planner.New(planner.WithClock(clock))
	sess := session.New(fixedNow)

	srv := New(Options{
		Tier:    plan,
		Planner: store,
		Session: sess,
		Backend: backend,
		Workflow: workflow.Deps{
			Generator:     generator.NewTemplate(),
			GeneratorName: "template",
		},
		Log: logger.Discard(),
		Now: clock,
	})
	return &testServer{handler: srv.Handler(), backend: backend, planner: store, sess: sess}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) addEvent(t *testing.T, day, hhmm, title string) domain.PlannerEvent {
	t.Helper()
	e, err := ts.planner.Add(planner.EventInput{
		Day: day, Time: hhmm, Platform: domain.PlatformInstagram, Title: title, Caption: title,
	})
	require.NoError(t, err)
	return e
}

func generateBody() map[string]string {
	return map[string]string{
		"brand":     "Casa Lume",
		"niche":     "velas artesanais",
		"tone":      "emocional",
		"platform":  "instagram",
		"copy_mode": "Venda",
		"goal":      "coleção de outono",
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	rec := ts.do(t, http.MethodOptions, "/planner/events", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerate(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	rec := ts.do(t, http.MethodPost, "/generate", generateBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Variants, 3)
	assert.NotEmpty(t, resp.Recommended)
	for _, v := range resp.Variants {
		assert.NotNil(t, v.Metrics)
	}
	assert.Equal(t, 1, resp.Session.GenerationCountToday)

	snap, err := ts.backend.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Session)
	assert.Equal(t, 1, snap.Session.GenerationCountToday)
}

func TestGenerate_Validation(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	body := generateBody()
	body["platform"] = "facebook"

	rec := ts.do(t, http.MethodPost, "/generate", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Platform")
	assert.Equal(t, 0, ts.sess.GenerationCountToday)
}

func TestGenerate_BadJSON(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_Quota(t *testing.T) {
	ts := newTestServer(t, tier.Starter)
	for i := 0; i < tier.Starter.DailyGenerations; i++ {
		rec := ts.do(t, http.MethodPost, "/generate", generateBody())
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := ts.do(t, http.MethodPost, "/generate", generateBody())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestScore(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	rec := ts.do(t, http.MethodPost, "/score", map[string]string{
		"caption":   "Desconto de 20% só esta semana. Clica no link da bio!",
		"copy_mode": "Venda",
		"platform":  "instagram",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 10.0, result.Conversion)
	assert.Greater(t, result.Final, 0.0)
}

func TestScore_StarterForbidden(t *testing.T) {
	ts := newTestServer(t, tier.Starter)
	rec := ts.do(t, http.MethodPost, "/score", map[string]string{"caption": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSchedule(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	score := 7.9
	rec := ts.do(t, http.MethodPost, "/planner/events", ScheduleRequest{
		Variant:  domain.Variant{ID: "A", Title: "Outono", Caption: "Novidades", Metrics: &domain.ScoreResult{Final: score}},
		Platform: domain.PlatformInstagram,
		Day:      "2024-05-06",
		Time:     "18:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var e domain.PlannerEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.NotEmpty(t, e.ID)
	require.NotNil(t, e.Score)
	assert.Equal(t, score, *e.Score)
	assert.Equal(t, 1, ts.sess.PlannerAddCountToday)

	snap, err := ts.backend.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Planner, 1)
}

func TestSchedule_Invalid(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	rec := ts.do(t, http.MethodPost, "/planner/events", ScheduleRequest{
		Variant:  domain.Variant{Title: "Outono"},
		Platform: domain.PlatformInstagram,
		Day:      "06/05/2024",
		Time:     "18:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, ts.planner.Len())
}

func TestSchedule_Quota(t *testing.T) {
	ts := newTestServer(t, tier.Starter)
	ts.sess.PlannerAddCountToday = tier.Starter.DailyPlannerAdds

	rec := ts.do(t, http.MethodPost, "/planner/events", ScheduleRequest{
		Variant:  domain.Variant{Title: "Outono"},
		Platform: domain.PlatformTikTok,
		Day:      "2024-05-06",
		Time:     "18:00",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestWeek(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	ts.addEvent(t, "2024-05-06", "18:00", "Monday")
	ts.addEvent(t, "2024-05-13", "09:00", "Next week")

	rec := ts.do(t, http.MethodGet, "/planner/week?anchor=2024-05-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var week planner.Week
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &week))
	require.Len(t, week.Days, planner.DaysPerWeek)
	require.Len(t, week.Days[0].Events, 1)
	assert.Equal(t, "Monday", week.Days[0].Events[0].Title)

	rec = ts.do(t, http.MethodGet, "/planner/week?anchor=2024-05-09&offset=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &week))
	require.Len(t, week.Days[0].Events, 1)
	assert.Equal(t, "Next week", week.Days[0].Events[0].Title)
}

func TestWeek_DefaultsToToday(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	ts.addEvent(t, "2024-05-08", "12:00", "Today")

	rec := ts.do(t, http.MethodGet, "/planner/week", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var week planner.Week
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &week))
	assert.Len(t, week.Days[2].Events, 1)
}

func TestWeek_BadAnchor(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	rec := ts.do(t, http.MethodGet, "/planner/week?anchor=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplete(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	e := ts.addEvent(t, "2024-05-06", "18:00", "Post")

	rec := ts.do(t, http.MethodPost, "/planner/events/"+e.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var done domain.PlannerEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	assert.Equal(t, domain.StatusDone, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, 0, ts.planner.Len())

	rec = ts.do(t, http.MethodPost, "/planner/events/"+e.ID+"/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	snap, err := ts.backend.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Planner)
	assert.Len(t, snap.History, 1)
}

func TestRemove(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	e := ts.addEvent(t, "2024-05-06", "18:00", "Post")

	rec := ts.do(t, http.MethodDelete, "/planner/events/"+e.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, ts.planner.Len())

	rec = ts.do(t, http.MethodDelete, "/planner/events/"+e.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	e := ts.addEvent(t, "2024-05-06", "18:00", "Post")
	_, err := ts.planner.Complete(e.ID)
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []domain.PlannerEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, e.ID, resp.Events[0].ID)
}

func TestHistory_StarterForbidden(t *testing.T) {
	ts := newTestServer(t, tier.Starter)
	rec := ts.do(t, http.MethodGet, "/history", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportText(t *testing.T) {
	ts := newTestServer(t, tier.Starter)
	ts.addEvent(t, "2024-05-06", "18:00", "Post")

	rec := ts.do(t, http.MethodGet, "/export.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "contentforge_planner.txt")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "2024-05-06 18:00 · instagram · Post\n"))
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	ts.addEvent(t, "2024-05-06", "18:00", "Post")

	rec := ts.do(t, http.MethodGet, "/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "day,time,platform,title,score,status\n2024-05-06,18:00,instagram,Post,,planned\n", rec.Body.String())

	starter := newTestServer(t, tier.Starter)
	rec = starter.do(t, http.MethodGet, "/export.csv", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSession(t *testing.T) {
	ts := newTestServer(t, tier.Starter)
	ts.sess.GenerationCountToday = 2

	rec := ts.do(t, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Session.GenerationCountToday)
	assert.Equal(t, "Starter", resp.Tier.Name)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(planner.ErrNotFound))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(session.ErrQuotaExceeded))
	assert.Equal(t, http.StatusForbidden, statusFor(errForbidden))
	assert.Equal(t, http.StatusBadRequest, statusFor(&requestError{fields: []string{"x"}}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestScore_EmptyCaption(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	rec := ts.do(t, http.MethodPost, "/score", map[string]string{"caption": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 5.5, result.Clarity)
}

func TestEventRoutes_RequireFullID(t *testing.T) {
	ts := newTestServer(t, tier.Pro)
	e := ts.addEvent(t, "2024-05-06", "18:00", "Post")

	rec := ts.do(t, http.MethodPost, "/planner/events/"+e.ID[:1]+"/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/planner/events/"+e.ID[:1], nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1, ts.planner.Len())
	assert.Empty(t, ts.planner.History())
}

func TestSchedule_StarterDropsScore(t *testing.T) {
	ts := newTestServer(t, tier.Starter)
	rec := ts.do(t, http.MethodPost, "/planner/events", ScheduleRequest{
		Variant:  domain.Variant{Title: "Outono", Caption: "Novidades", Metrics: &domain.ScoreResult{Final: 9.9}},
		Platform: domain.PlatformInstagram,
		Day:      "2024-05-06",
		Time:     "18:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var e domain.PlannerEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Nil(t, e.Score)

	snap, err := ts.backend.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Planner, 1)
	assert.Nil(t, snap.Planner[0].Score)
}

type failingBackend struct{}

func (failingBackend) Load(context.Context) (persist.Snapshot, error) { return persist.Snapshot{}, nil }
func (failingBackend) Save(context.Context, persist.Snapshot) error   { return errors.New("disk full") }
func (failingBackend) Close() error                                   { return nil }

func newFailingServer(t *testing.T) *testServer {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := planner.New(planner.WithClock(clock))
	sess := session.New(fixedNow)
	srv := New(Options{
		Tier:    tier.Pro,
		Planner: store,
		Session: sess,
		Backend: failingBackend{},
		Workflow: workflow.Deps{
			Generator:     generator.NewTemplate(),
			GeneratorName: "template",
		},
		Log: logger.Discard(),
		Now: clock,
	})
	return &testServer{handler: srv.Handler(), planner: store, sess: sess}
}

func TestSaveFailure_RollsBack(t *testing.T) {
	ts := newFailingServer(t)
	e := ts.addEvent(t, "2024-05-06", "18:00", "Post")

	rec := ts.do(t, http.MethodPost, "/planner/events/"+e.ID+"/complete", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, ts.planner.Len())
	assert.Empty(t, ts.planner.History())

	rec = ts.do(t, http.MethodPost, "/planner/events/"+e.ID+"/complete", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/planner/events/"+e.ID, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, ts.planner.Len())

	rec = ts.do(t, http.MethodPost, "/planner/events", ScheduleRequest{
		Variant:  domain.Variant{Title: "Outono"},
		Platform: domain.PlatformInstagram,
		Day:      "2024-05-07",
		Time:     "09:00",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, ts.planner.Len())
	assert.Equal(t, 0, ts.sess.PlannerAddCountToday)

	rec = ts.do(t, http.MethodPost, "/generate", generateBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, ts.sess.GenerationCountToday)
}
