package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parleylabs/parley"
	httpadapter "github.com/parleylabs/parley/pkg/adapters/http"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinition() graph.Definition {
	return graph.Definition{
		Entry: "triage",
		Base:  []domain.Section{{Title: "Role", Body: "You are David."}},
		Languages: []domain.Language{
			{Name: "David-English", Code: "en-US", Voice: "v1"},
			{Name: "Sensei", Code: "ja-JP", Voice: "v2"},
		},
		InternalFillers: map[string]map[string][]string{
			"thinking": {domain.FillerDefaultKey: {"Let me think..."}},
		},
		Contexts: []domain.Context{
			{
				Name:     "triage",
				Isolated: true,
				Steps: []domain.Step{
					{Name: "greeting", Criteria: "Subject identified", ValidContexts: []string{"math", "japanese"}},
				},
			},
			{
				Name:     "math",
				Isolated: true,
				Language: "David-English",
				Steps: []domain.Step{
					{Name: "assessment", ValidSteps: []string{"practice"}},
					{Name: "practice"},
				},
			},
			{
				Name:      "japanese",
				Isolated:  true,
				FullReset: true,
				Language:  "Sensei",
				Steps: []domain.Step{
					{Name: "aisatsu", Text: "Konnichiwa!"},
				},
			},
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine, err := parley.New("", parley.WithDefinition(testDefinition()))
	require.NoError(t, err)

	srv := httptest.NewServer(httpadapter.NewHandler(engine))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Create with a pinned ID.
	resp := postJSON(t, srv.URL+"/sessions", httpadapter.CreateSessionRequest{SessionID: "call-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	state := decode[domain.State](t, resp)
	assert.Equal(t, "call-1", state.SessionID)
	assert.Equal(t, "triage", state.CurrentContext)
	assert.Equal(t, "greeting", state.CurrentStep)

	// Fetch it back.
	getResp, err := http.Get(srv.URL + "/sessions/call-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	fetched := decode[domain.State](t, getResp)
	assert.Equal(t, "call-1", fetched.SessionID)

	// Advance into math.
	complete := true
	resp = postJSON(t, srv.URL+"/sessions/call-1/turns", httpadapter.TurnRequest{
		Complete: &complete,
		Target:   &domain.Target{Context: "math"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	turn := decode[httpadapter.TurnResponse](t, resp)
	assert.Equal(t, "math", turn.State.CurrentContext)
	assert.Equal(t, domain.OutcomeContextSwitched, turn.Result.Outcome)

	// End the session; the report reflects the trajectory.
	resp = postJSON(t, srv.URL+"/sessions/call-1/end", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	end := decode[httpadapter.EndResponse](t, resp)
	assert.Equal(t, domain.StatusEnded, end.State.Status)
	require.NotNil(t, end.Report)
	assert.Equal(t, "math", end.Report.Subject)
	assert.Equal(t, []string{"triage", "math"}, end.Report.TopicsCovered)
}

func TestServer_IllegalTransition(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", httpadapter.CreateSessionRequest{SessionID: "call-2"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	complete := true
	resp = postJSON(t, srv.URL+"/sessions/call-2/turns", httpadapter.TurnRequest{
		Complete: &complete,
		Target:   &domain.Target{Step: "practice"},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	resp.Body.Close()
	assert.Equal(t, "illegal_transition", errResp.Error)

	// State is unchanged after the rejected turn.
	getResp, err := http.Get(srv.URL + "/sessions/call-2")
	require.NoError(t, err)
	state := decode[domain.State](t, getResp)
	assert.Equal(t, "greeting", state.CurrentStep)
}

func TestServer_VoiceSwitchSurfaced(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", httpadapter.CreateSessionRequest{SessionID: "call-3"})
	resp.Body.Close()

	complete := true
	resp = postJSON(t, srv.URL+"/sessions/call-3/turns", httpadapter.TurnRequest{
		Complete: &complete,
		Target:   &domain.Target{Context: "japanese"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	turn := decode[httpadapter.TurnResponse](t, resp)
	require.NotNil(t, turn.Result.VoiceChange)
	assert.Equal(t, "ja-JP", turn.Result.VoiceChange.Code)
	assert.Equal(t, "Konnichiwa!", turn.Result.ScriptedText)
}

func TestServer_SessionNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/sessions/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Graph(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	g := decode[httpadapter.GraphResponse](t, resp)
	assert.Equal(t, "triage", g.Entry)
	assert.Len(t, g.Contexts, 3)
	assert.Len(t, g.Languages, 2)
}

func TestServer_Filler(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", httpadapter.CreateSessionRequest{SessionID: "call-4"})
	resp.Body.Close()

	fillerResp, err := http.Get(srv.URL + "/sessions/call-4/filler?group=thinking")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, fillerResp.StatusCode)
	payload := decode[map[string]string](t, fillerResp)
	assert.Equal(t, "Let me think...", payload["filler"])
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
