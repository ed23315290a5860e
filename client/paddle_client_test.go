package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaddleClientRecognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body["images"], 1)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[[
			{"text":"Surname: ERIKSSON","confidence":0.93},
			{"text":"  ","confidence":0.1},
			{"text":"Sex: F","confidence":0.71},
			{"text":"ERIKSSON","confidence":0.88}
		]]}`))
	}))
	defer server.Close()

	result, err := NewPaddleClient(server.URL).Recognize(context.Background(), []byte("png"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Surname: ERIKSSON", "Sex: F", "ERIKSSON"}, result.Lines)
	assert.Equal(t, 0.88, result.TokenConfidences["ERIKSSON"])
	assert.Equal(t, 0.71, result.TokenConfidences["F"])
}

func TestPaddleClientEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	_, err := NewPaddleClient(server.URL).Recognize(context.Background(), []byte("png"))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestPaddleClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewPaddleClient(server.URL).Recognize(context.Background(), []byte("png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPaddleClientHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPaddleClient("http://127.0.0.1:1").Recognize(ctx, []byte("png"))
	assert.ErrorIs(t, err, context.Canceled)
}
