package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rewriter-cli/internal/model"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL, 5*time.Second)
	c.HTTP = srv.Client()
	return c
}

func TestListBlogs_SendsKeyAndKeepsOrder(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, PathBlogs, r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "k-123", body["api_key"])

		_, _ = io.WriteString(w, `{"blogs":[{"id":"2","name":"Zeta"},{"id":"1","name":"Alpha"}]}`)
	})

	blogs, err := c.ListBlogs(context.Background(), "k-123")
	require.NoError(t, err)
	require.Equal(t, []model.Blog{{ID: "2", Name: "Zeta"}, {ID: "1", Name: "Alpha"}}, blogs)
}

func TestListBlogs_MissingFieldUsesServerMessage(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"bad key"}`)
	})

	_, err := c.ListBlogs(context.Background(), "k")
	require.Error(t, err)
	var se ServerError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "bad key", Message(err))
}

func TestListBlogs_MissingFieldFallsBackToGenericMessage(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.ListBlogs(context.Background(), "k")
	require.Error(t, err)
	require.Equal(t, "Failed to load blogs", Message(err))
}

func TestFetchArticles_Success(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathFetchArticles, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "https://example.com/sitemap.xml", body["sitemap_url"])

		_, _ = io.WriteString(w, `{"articles":[
			{"id":"1","title":"A","content":"x"},
			{"id":"2","title":"B","content":"y","schedule":"tomorrow","rewritten":{"content":"z"}}
		]}`)
	})

	got, err := c.FetchArticles(context.Background(), "https://example.com/sitemap.xml")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "A", got[0].Title)
	require.Nil(t, got[0].Schedule)
	require.Equal(t, "tomorrow", *got[1].Schedule)
	require.Equal(t, "z", got[1].Rewritten.Content)
}

func TestFetchArticles_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		wantAs  any
	}{
		{
			name:    "server error preferred",
			status:  http.StatusInternalServerError,
			body:    `{"error":"Failed to fetch sitemap: 404","status":"error","message":"Internal server error occurred"}`,
			wantMsg: "Failed to fetch sitemap: 404",
			wantAs:  &ServerError{},
		},
		{
			name:    "non json failure body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantMsg: "Invalid response from server",
			wantAs:  &ContractError{},
		},
		{
			name:    "empty failure body",
			status:  http.StatusServiceUnavailable,
			body:    ``,
			wantMsg: "Server returned 503 Service Unavailable",
			wantAs:  &TransportError{},
		},
		{
			name:    "non json success body",
			status:  http.StatusOK,
			body:    `not json`,
			wantMsg: "Invalid response from server",
			wantAs:  &ContractError{},
		},
		{
			name:    "missing articles",
			status:  http.StatusOK,
			body:    `{"something":"else"}`,
			wantMsg: "Invalid response from server",
			wantAs:  &ContractError{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.FetchArticles(context.Background(), "https://example.com/sitemap.xml")
			require.Error(t, err)
			require.ErrorAs(t, err, tt.wantAs)
			require.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestFetchArticles_NetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	_, err := c.FetchArticles(context.Background(), "https://example.com/sitemap.xml")
	require.Error(t, err)
	var te TransportError
	require.ErrorAs(t, err, &te)
	require.NotNil(t, te.Err)
	require.Contains(t, Message(err), "Network error")
}

func TestRewrite_DecodesResult(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathRewrite, r.URL.Path)
		var body rewriteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "k", body.APIKey)
		require.Equal(t, "A", body.Title)
		_, _ = io.WriteString(w, `{"result":{"title":"Rewritten: A","content":"<p>new</p>"}}`)
	})

	got, err := c.Rewrite(context.Background(), "k", model.Article{ID: "1", Title: "A", Content: "x"})
	require.NoError(t, err)
	require.Equal(t, model.Rewritten{Title: "Rewritten: A", Content: "<p>new</p>"}, got)
}

func TestRewrite_ServerError(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"quota exceeded"}`)
	})

	_, err := c.Rewrite(context.Background(), "k", model.Article{ID: "1"})
	require.Error(t, err)
	require.Equal(t, "quota exceeded", Message(err))
}

func TestPost_RequiresSuccessFlag(t *testing.T) {
	t.Parallel()

	var seen PostRequest
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	sched := "2024-05-01 10:00 UTC"
	err := c.Post(context.Background(), PostRequest{BlogID: "b1", ID: "1", Title: "A", Content: "x", Schedule: &sched})
	require.NoError(t, err)
	require.Equal(t, "b1", seen.BlogID)
	require.Equal(t, sched, *seen.Schedule)

	c = newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false}`)
	})
	err = c.Post(context.Background(), PostRequest{BlogID: "b1", ID: "1"})
	require.Error(t, err)
	require.ErrorAs(t, err, &ContractError{})
}

func TestMessage_PreconditionAndPlainErrors(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Message(nil))
	require.Equal(t, "Please enter your API key", Message(ErrPrecondition("Please enter your API key")))
	require.Equal(t, "boom", Message(errors.New("boom")))
}
