package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramGatewaySend(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	gw := NewTelegramGateway(srv.URL+"/", "TOKEN", time.Second)
	require.NoError(t, gw.Send(context.Background(), "12345", "<b>hi</b>"))

	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "12345", got.ChatID)
	assert.Equal(t, "<b>hi</b>", got.Text)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Equal(t, "telegram", gw.Name())
}

func TestTelegramGatewayFailures(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
		}))
		defer srv.Close()
		err := NewTelegramGateway(srv.URL, "T", time.Second).Send(context.Background(), "1", "m")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("ok false", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ok":false,"description":"blocked"}`))
		}))
		defer srv.Close()
		err := NewTelegramGateway(srv.URL, "T", time.Second).Send(context.Background(), "1", "m")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blocked")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewTelegramGateway("http://127.0.0.1:1", "T", time.Second).Send(ctx, "1", "m")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWebhookGatewaySend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gw := NewWebhookGateway(srv.URL, time.Second)
	require.NoError(t, gw.Send(context.Background(), "ops", "hello"))
	assert.Equal(t, map[string]string{"handle": "ops", "message": "hello"}, got)
}

func TestNoopGateway(t *testing.T) {
	gw := NewNoopGateway(nil)
	assert.NoError(t, gw.Send(context.Background(), "x", "y"))
	assert.Equal(t, "noop", gw.Name())
}
