package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"souschef/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBot(baseURL, apiKey string) *CallMeBot {
	return NewCallMeBot(config.WhatsAppConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestSend(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/whatsapp.php", r.URL.Path)
		got = r.URL.Query()
		w.Write([]byte("Message queued. You will receive it in a few seconds."))
	}))
	defer srv.Close()

	bot := newTestBot(srv.URL, "12345")
	require.True(t, bot.Configured())

	err := bot.Send(context.Background(), "+15551234567", "🛒 *Weekly*\n\n• Milk")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", got.Get("phone"))
	assert.Equal(t, "🛒 *Weekly*\n\n• Milk", got.Get("text"))
	assert.Equal(t, "12345", got.Get("apikey"))
}

func TestSendGatewayErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := newTestBot(srv.URL, "k").Send(context.Background(), "+15551234567", "hi")
		assert.Error(t, err)
	})

	t.Run("error body with 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("APIKey is invalid."))
		}))
		defer srv.Close()

		err := newTestBot(srv.URL, "k").Send(context.Background(), "+15551234567", "hi")
		assert.Error(t, err)
	})
}

func TestConfigured(t *testing.T) {
	assert.False(t, newTestBot("http://localhost", " ").Configured())
}
