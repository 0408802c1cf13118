package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestReplyReturnsFirstCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "hello there")

		json.NewEncoder(w).Encode(generateResponse{
			Candidates: []struct {
				Content content `json:"content"`
			}{
				{Content: content{Parts: []part{{Text: "  Hi! How are you?  "}}}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")

	reply, err := c.SuggestReply(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, "Hi! How are you?", reply)
}

func TestSuggestReplyNotConfigured(t *testing.T) {
	c := NewClient("", "")

	_, err := c.SuggestReply(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSuggestReplyServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")

	_, err := c.SuggestReply(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSuggestReplyEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")

	_, err := c.SuggestReply(context.Background(), "hello")
	assert.Error(t, err)
}
