package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"speed-networking-system/repository"
	"speed-networking-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, string, string) {
	t.Helper()

	repos := repository.NewMemoryStore().Repositories()
	sessionService := services.NewSessionService(repos)
	sweepService := services.NewSweepService(repos)
	registrationService := services.NewRegistrationService(repos, services.NopNotifier{})
	matchingService := services.NewMatchingService(repos, sweepService, services.NopNotifier{})

	session, err := sessionService.CreateSession(services.CreateSessionInput{Name: "Launch Meetup"})
	require.NoError(t, err)
	round, err := sessionService.CreateRound(session.ID, services.CreateRoundInput{
		StartTime:     time.Now().Add(time.Hour),
		GroupSize:     2,
		MeetingPoints: []string{"Lobby"},
	})
	require.NoError(t, err)

	app := fiber.New()
	SetupSessionRoutes(app, sessionService)
	SetupRoundRoutes(app, registrationService, sweepService, matchingService, sessionService)
	return app, session.ID, round.ID
}

func doJSON(t *testing.T, app *fiber.App, method, path, participant string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if participant != "" {
		req.Header.Set("X-Participant-ID", participant)
		req.Header.Set("X-Participant-Name", participant)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var payload map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return resp, payload
}

func TestRegisterAndConfirmFlow(t *testing.T) {
	app, _, roundID := newTestApp(t)

	resp, payload := doJSON(t, app, http.MethodPost, "/rounds/"+roundID+"/register", "alice", fiber.Map{})
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "registered", payload["status"])

	resp, payload = doJSON(t, app, http.MethodPost, "/rounds/"+roundID+"/register", "alice", fiber.Map{})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, payload["error"], "already registered")

	resp, payload = doJSON(t, app, http.MethodPost, "/rounds/"+roundID+"/confirm", "alice", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "confirmed", payload["status"])

	resp, payload = doJSON(t, app, http.MethodGet, "/rounds/"+roundID+"/dashboard", "alice", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "confirmed", payload["display_status"])
}

func TestParticipantIdentityRequired(t *testing.T) {
	app, _, roundID := newTestApp(t)

	resp, payload := doJSON(t, app, http.MethodPost, "/rounds/"+roundID+"/register", "", fiber.Map{})
	assert.Equal(t, 401, resp.StatusCode)
	assert.Contains(t, payload["error"], "participant identity missing")
}

func TestMatchTriggerBeforeStart(t *testing.T) {
	app, _, roundID := newTestApp(t)

	resp, payload := doJSON(t, app, http.MethodPost, "/rounds/"+roundID+"/match", "", nil)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, payload["error"], "not started")
}

func TestUnknownRoundIs404(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, payload := doJSON(t, app, http.MethodGet, "/rounds/nope", "", nil)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Contains(t, payload["error"], "round not found")
}
