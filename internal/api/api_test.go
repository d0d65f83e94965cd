package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gomantics/reposcout/internal/api/ask"
	"github.com/gomantics/reposcout/internal/domains/analysis"
	"github.com/gomantics/reposcout/internal/domains/conversations"
	"github.com/gomantics/reposcout/internal/domains/issues"
	"github.com/gomantics/reposcout/internal/domains/llm"
	"github.com/gomantics/reposcout/internal/libs/gitrepo"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	mu       sync.Mutex
	reply    string
	err      error
	received []string
}

func (f *fakeClient) Send(_ context.Context, conversationID string, msgs ...conversations.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, conversationID)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeClient) Stream(context.Context, string, ...conversations.Message) (*llm.Stream, error) {
	return nil, errors.New("streaming not supported by fake")
}

type fakeAnalyzer struct {
	res   *analysis.Result
	err   error
	panic bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, locator string) (*analysis.Result, error) {
	if f.panic {
		panic("boom")
	}
	if _, err := gitrepo.Resolve(locator); err != nil {
		return nil, err
	}
	return f.res, f.err
}

type fakePublisher struct {
	res   *issues.Result
	err   error
	calls int
	ref   gitrepo.Reference
}

func (f *fakePublisher) Publish(_ context.Context, ref gitrepo.Reference, payload issues.Payload) (*issues.Result, error) {
	f.calls++
	f.ref = ref
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return f.res, f.err
}

type deps struct {
	analyzer  *fakeAnalyzer
	client    ask.Client
	publisher *fakePublisher
}

func newTestServer(d deps) *echo.Echo {
	if d.analyzer == nil {
		d.analyzer = &fakeAnalyzer{}
	}
	if d.client == nil {
		d.client = &fakeClient{}
	}
	if d.publisher == nil {
		d.publisher = &fakePublisher{}
	}
	return New(Params{
		Logger:    zap.NewNop(),
		Analyzer:  d.analyzer,
		Client:    d.client,
		Publisher: d.publisher,
	})
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(deps{}), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["service"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestAnalyzeRequiresRepoURL(t *testing.T) {
	e := newTestServer(deps{})

	for _, body := range []string{`{"repo_url":""}`, `{}`, `{"repo_url":"   "}`} {
		rec := do(e, http.MethodPost, "/api/analyze-repo", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"success":false,"error":"Repository URL is required"}`, rec.Body.String())
	}
}

func TestAnalyzeRejectsInvalidLocator(t *testing.T) {
	rec := do(newTestServer(deps{}), http.MethodPost, "/api/analyze-repo", `{"repo_url":"https://gitlab.com/acme/widgets"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "invalid repository reference")
}

func TestAnalyzeReturnsFlattenedResult(t *testing.T) {
	s := analysis.Extract(`{"title":"Add caching","body":"Cache API responses"}`)[0]
	payload := s.Payload()
	a := &fakeAnalyzer{res: &analysis.Result{
		Repository:          "acme/widgets",
		AnalysisMethod:      analysis.Method,
		ConversationID:      "analysis-acme-widgets-1",
		Suggestions:         []analysis.Suggestion{s},
		SynthesizedAnalysis: &s,
		GithubPayload:       &payload,
		RawResponse:         "raw",
	}}

	rec := do(newTestServer(deps{analyzer: a}), http.MethodPost, "/api/analyze-repo", `{"repo_url":"https://github.com/acme/widgets"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "acme/widgets", body["repository"])
	assert.Equal(t, analysis.Method, body["analysis_method"])
	assert.Equal(t, "raw", body["raw_response"])
	assert.Len(t, body["suggestions"], 1)
	assert.Equal(t, "Add caching", body["github_payload"].(map[string]any)["title"])
}

func TestAnalyzeFailureIs500(t *testing.T) {
	a := &fakeAnalyzer{err: fmt.Errorf("%w: llm down", analysis.ErrAnalysisFailed)}

	rec := do(newTestServer(deps{analyzer: a}), http.MethodPost, "/api/analyze-repo", `{"repo_url":"https://github.com/acme/widgets"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"analysis failed: llm down"}`, rec.Body.String())
}

func TestAskDefaultsConversationID(t *testing.T) {
	client := &fakeClient{reply: "Hello"}

	rec := do(newTestServer(deps{client: client}), http.MethodPost, "/api/ask-asi-one", `{"query":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Hello", body["response"])
	assert.Equal(t, "default", body["conversation_id"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, []string{"default"}, client.received)
}

func TestAskUsesGivenConversationID(t *testing.T) {
	client := &fakeClient{reply: "ok"}

	rec := do(newTestServer(deps{client: client}), http.MethodPost, "/api/ask-asi-one", `{"query":"hi","conversation_id":"c-42"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c-42", decode(t, rec)["conversation_id"])
	assert.Equal(t, []string{"c-42"}, client.received)
}

func TestAskRequiresQuery(t *testing.T) {
	client := &fakeClient{reply: "unused"}

	rec := do(newTestServer(deps{client: client}), http.MethodPost, "/api/ask-asi-one", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Query is required"}`, rec.Body.String())
	assert.Empty(t, client.received)
}

func TestAskFailureIs500(t *testing.T) {
	client := &fakeClient{err: &llm.ServiceError{StatusCode: 503, Message: "overloaded"}}

	rec := do(newTestServer(deps{client: client}), http.MethodPost, "/api/ask-asi-one", `{"query":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "overloaded")
}

func TestAskStreamsServerSentEvents(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"created\":0,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", f)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	store, err := conversations.NewStore(zap.NewNop(), 8)
	require.NoError(t, err)
	client := llm.New(zap.NewNop(), store, llm.Config{
		APIKey:  "k",
		BaseURL: upstream.URL,
		Model:   "m",
		Timeout: 5 * time.Second,
	})

	rec := do(newTestServer(deps{client: client}), http.MethodPost, "/api/ask-asi-one", `{"query":"hi","stream":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	out := rec.Body.String()
	assert.Contains(t, out, `data: {"delta":"Hel"}`)
	assert.Contains(t, out, `data: {"delta":"lo"}`)
	assert.Contains(t, out, `"done":true`)
	assert.Contains(t, out, `"conversation_id":"default"`)

	assert.Equal(t, []conversations.Message{
		conversations.UserMessage("hi"),
		conversations.AssistantMessage("Hello"),
	}, store.GetOrCreate("default").Messages())
}

func TestAskStreamUpstreamFailureIsJSON500(t *testing.T) {
	rec := do(newTestServer(deps{}), http.MethodPost, "/api/ask-asi-one", `{"query":"hi","stream":true}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestCreateIssueRequiresFields(t *testing.T) {
	p := &fakePublisher{}
	e := newTestServer(deps{publisher: p})

	for _, body := range []string{
		`{}`,
		`{"repo_url":"https://github.com/acme/widgets"}`,
		`{"issue_data":{"title":"t","body":"b"}}`,
	} {
		rec := do(e, http.MethodPost, "/api/create-github-issue", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"success":false,"error":"Repository URL and issue data are required"}`, rec.Body.String())
	}
	assert.Zero(t, p.calls)
}

func TestCreateIssueRejectsInvalidPayload(t *testing.T) {
	p := &fakePublisher{}

	rec := do(newTestServer(deps{publisher: p}), http.MethodPost, "/api/create-github-issue",
		`{"repo_url":"https://github.com/acme/widgets","issue_data":{"title":"","body":"b"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "title is required")
}

func TestCreateIssueRejectsInvalidLocator(t *testing.T) {
	p := &fakePublisher{}

	rec := do(newTestServer(deps{publisher: p}), http.MethodPost, "/api/create-github-issue",
		`{"repo_url":"acme/widgets","issue_data":{"title":"t","body":"b"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, p.calls)
}

func TestCreateIssueReturnsNormalizedIssue(t *testing.T) {
	p := &fakePublisher{res: &issues.Result{
		Title:  "Add X",
		URL:    "https://github.com/acme/widgets/issues/42",
		Number: 42,
		State:  "open",
	}}

	rec := do(newTestServer(deps{publisher: p}), http.MethodPost, "/api/create-github-issue",
		`{"repo_url":"https://github.com/acme/widgets","issue_data":{"title":"Add X","body":"Because","labels":["enhancement"]}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, `{"success":true,"issue":{"title":"Add X","url":"https://github.com/acme/widgets/issues/42","number":42,"state":"open"}}`, rec.Body.String())
	assert.Equal(t, gitrepo.Reference{Owner: "acme", Repo: "widgets"}, p.ref)
}

func TestCreateIssueUpstreamFailureIs500(t *testing.T) {
	p := &fakePublisher{err: &issues.UpstreamError{Kind: issues.ErrNotFound, StatusCode: 404, Message: "Not Found"}}

	rec := do(newTestServer(deps{publisher: p}), http.MethodPost, "/api/create-github-issue",
		`{"repo_url":"https://github.com/acme/widgets","issue_data":{"title":"t","body":"b"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"repository not found (status 404): Not Found"}`, rec.Body.String())
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := do(newTestServer(deps{}), http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Endpoint not found"}`, rec.Body.String())
}

func TestWrongMethodIs405(t *testing.T) {
	rec := do(newTestServer(deps{}), http.MethodGet, "/api/analyze-repo", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Method not allowed"}`, rec.Body.String())
}

func TestMalformedJSONIs400(t *testing.T) {
	rec := do(newTestServer(deps{}), http.MethodPost, "/api/ask-asi-one", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid request body"}`, rec.Body.String())
}

func TestPanicIsRecoveredAs500(t *testing.T) {
	rec := do(newTestServer(deps{analyzer: &fakeAnalyzer{panic: true}}), http.MethodPost, "/api/analyze-repo", `{"repo_url":"https://github.com/acme/widgets"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rec.Body.String())
}
