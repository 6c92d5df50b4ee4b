package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afeedhshaji/gemcli/pkg/llm"
)

type stubLLM struct {
	last   llm.Request
	err    error
	models []llm.ModelInfo
}

func (s *stubLLM) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Text: "Hi", Model: "gemini-2.5-flash", FinishReason: "STOP", Usage: llm.Usage{TotalTokens: 3}}, nil
}

func (s *stubLLM) Stream(context.Context, llm.Request, llm.ChunkFunc) (*llm.Response, error) {
	return nil, llm.ErrUnsupported
}

func (s *stubLLM) Models(context.Context) ([]llm.ModelInfo, error) {
	if s.models == nil {
		return nil, llm.ErrUnsupported
	}
	return s.models, nil
}

func init() { gin.SetMode(gin.TestMode) }

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := do(NewRouter(&stubLLM{}, llm.Request{}, nil), http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestGenerate_OK(t *testing.T) {
	m := &stubLLM{}
	r := NewRouter(m, llm.Request{SystemPrompt: "default", MaxOutputTokens: 64}, nil)

	w := do(r, http.MethodPost, "/api/generate", `{"prompt":"Hello","temperature":0.2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp llm.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hi", resp.Text)
	assert.Equal(t, "STOP", resp.FinishReason)

	assert.Equal(t, "Hello", m.last.Prompt)
	assert.Equal(t, "default", m.last.SystemPrompt)
	assert.Equal(t, int32(64), m.last.MaxOutputTokens)
	require.NotNil(t, m.last.Temperature)
	assert.InDelta(t, 0.2, *m.last.Temperature, 1e-6)
}

func TestGenerate_BadRequests(t *testing.T) {
	r := NewRouter(&stubLLM{}, llm.Request{}, nil)

	w := do(r, http.MethodPost, "/api/generate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/generate", `{"prompt":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), llm.ErrEmptyPrompt.Error())
}

func TestGenerate_UpstreamError(t *testing.T) {
	r := NewRouter(&stubLLM{err: errors.New("gemini api error 429: quota")}, llm.Request{}, nil)

	w := do(r, http.MethodPost, "/api/generate", `{"prompt":"Hello"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "quota")
}

func TestModels(t *testing.T) {
	r := NewRouter(&stubLLM{models: []llm.ModelInfo{{Name: "gemini-2.5-flash"}}}, llm.Request{}, nil)
	w := do(r, http.MethodGet, "/api/models", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"models":[{"name":"gemini-2.5-flash"}]}`, w.Body.String())

	r = NewRouter(&stubLLM{}, llm.Request{}, nil)
	w = do(r, http.MethodGet, "/api/models", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestNewRouter_AccessLogWriter(t *testing.T) {
	var buf bytes.Buffer
	r := NewRouter(&stubLLM{}, llm.Request{}, &buf)

	w := do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "/ping")
	assert.Contains(t, buf.String(), "200")
}

func TestNewRouter_NoAccessLog(t *testing.T) {
	var stdout bytes.Buffer
	prev := gin.DefaultWriter
	gin.DefaultWriter = &stdout
	defer func() { gin.DefaultWriter = prev }()

	r := NewRouter(&stubLLM{}, llm.Request{}, nil)
	w := do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, stdout.String())
}

func TestNewRouter_RecoversFromPanic(t *testing.T) {
	var buf bytes.Buffer
	r := NewRouter(&stubLLM{}, llm.Request{}, &buf)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "boom")
}
