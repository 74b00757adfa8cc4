package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiallo/spendbot/internal/domain/models"
)

type fakeMessagingService struct {
	verifyErr error
	handleErr error
	sendErr   error

	handled []models.Update
	sent    []models.OutboundMessageRequest
}

func (s *fakeMessagingService) VerifyWebhookSecret(string) error {
	return s.verifyErr
}

func (s *fakeMessagingService) HandleUpdate(_ context.Context, update models.Update) error {
	if s.handleErr != nil {
		return s.handleErr
	}
	s.handled = append(s.handled, update)
	return nil
}

func (s *fakeMessagingService) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, req)
	return nil
}

func newTestRouter(svc *fakeMessagingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewWebhookHandler(svc, nil)

	r := gin.New()
	r.POST("/telegram/webhook", handler.Receive)
	r.POST("/send-message", handler.SendMessage)
	return r
}

func TestWebhookReceive(t *testing.T) {
	update := []byte(`{"update_id":1,"message":{"message_id":10,"chat":{"id":7,"type":"private"},"text":"/start"}}`)

	t.Run("valid update accepted", func(t *testing.T) {
		svc := &fakeMessagingService{}
		r := newTestRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(update))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, svc.handled, 1)
		assert.Equal(t, "/start", svc.handled[0].Message.Text)
	})

	t.Run("secret mismatch rejected", func(t *testing.T) {
		svc := &fakeMessagingService{verifyErr: errors.New("invalid webhook secret token")}
		r := newTestRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(update))
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, svc.handled)
	})

	t.Run("malformed payload rejected", func(t *testing.T) {
		svc := &fakeMessagingService{}
		r := newTestRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader([]byte("{not json")))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("processing failure returns 500", func(t *testing.T) {
		svc := &fakeMessagingService{handleErr: errors.New("boom")}
		r := newTestRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(update))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("valid request forwarded", func(t *testing.T) {
		svc := &fakeMessagingService{}
		r := newTestRouter(svc)

		w := httptest.NewRecorder()
		body := []byte(`{"chat_id":7,"message":"hello"}`)
		req := httptest.NewRequest(http.MethodPost, "/send-message", bytes.NewReader(body))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, svc.sent, 1)
		assert.Equal(t, int64(7), svc.sent[0].ChatID)
	})

	t.Run("missing message rejected by binding", func(t *testing.T) {
		svc := &fakeMessagingService{}
		r := newTestRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/send-message", bytes.NewReader([]byte(`{"chat_id":7}`)))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
