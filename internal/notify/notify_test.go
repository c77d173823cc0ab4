package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/assetdesk/internal/config"
)

var sampleNotice = RepairNotice{
	TicketID:           12,
	AssetNumber:        "EQ-001",
	AssetName:          "Monitor <27in>",
	ProblemDescription: "Screen & backlight dead",
	ReporterName:       "Dana",
	ReporterLocation:   "Room 12",
	ReporterContact:    "555-0100",
}

func TestFormatTelegramMessage_EscapesValues(t *testing.T) {
	msg := FormatTelegramMessage(sampleNotice)

	assert.Contains(t, msg, "<code>EQ-001</code>")
	assert.Contains(t, msg, "Monitor &lt;27in&gt;")
	assert.Contains(t, msg, "Screen &amp; backlight dead")
	assert.NotContains(t, msg, "<27in>")
}

func TestTelegramNotifier_SendsMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.TelegramConfig{
		BotToken:   "123:abc",
		ChatID:     "-100",
		APIBaseURL: srv.URL + "/",
		Timeout:    time.Second,
	})
	require.NoError(t, n.Notify(context.Background(), sampleNotice))
	assert.Equal(t, "-100", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.True(t, strings.Contains(got["text"].(string), "Dana"))
}

func TestTelegramNotifier_ReportsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.TelegramConfig{BotToken: "1:a", ChatID: "1", APIBaseURL: srv.URL, Timeout: time.Second})
	err := n.Notify(context.Background(), sampleNotice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(context.Context, RepairNotice) error {
	s.calls++
	return s.err
}

func TestMulti_NotifiesEveryChannel(t *testing.T) {
	failing := &stubNotifier{err: errors.New("smtp down")}
	ok := &stubNotifier{}

	err := Multi{failing, ok}.Notify(context.Background(), sampleNotice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestFromConfig(t *testing.T) {
	assert.IsType(t, Nop{}, FromConfig(config.TelegramConfig{}, config.EmailConfig{}))
	assert.IsType(t, Nop{}, FromConfig(config.TelegramConfig{BotToken: "no-colon", ChatID: "1"}, config.EmailConfig{}))

	n := FromConfig(
		config.TelegramConfig{BotToken: "1:a", ChatID: "1"},
		config.EmailConfig{SMTPHost: "smtp.example.com", From: "desk@example.com", To: []string{"ops@example.com"}},
	)
	multi, ok := n.(Multi)
	require.True(t, ok)
	assert.Len(t, multi, 2)
}

func TestEmailContent(t *testing.T) {
	assert.Equal(t, "[Repair #12] EQ-001 - Monitor <27in>", EmailSubject(sampleNotice))
	body := EmailBody(sampleNotice)
	assert.Contains(t, body, "Screen & backlight dead")
	assert.Contains(t, body, "555-0100")
}
