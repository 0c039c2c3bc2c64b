package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	reconcilerdomain "github.com/textblast/gateway/internal/reconciler_service/domain"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCallbackRouter(publisher EventPublisher) http.Handler {
	h := NewCallbackHandler(publisher, validator.New(), testLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postForm(t *testing.T, handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStatusCallback_PublishesEvent(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, SubjectDLRRaw, mock.Anything).Return(nil)

	rec := postForm(t, newCallbackRouter(publisher), "/callbacks/status", url.Values{
		"MessageSid":    {"SM123"},
		"MessageStatus": {"delivered"},
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)

	payload := publisher.Calls[0].Arguments.Get(2).([]byte)
	var event reconcilerdomain.DeliveryStatusEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "SM123", event.ProviderRef)
	assert.Equal(t, "delivered", event.Status)
	assert.Empty(t, event.ErrorInfo)
}

func TestStatusCallback_ErrorCodeCarriedThrough(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, SubjectDLRRaw, mock.Anything).Return(nil)

	rec := postForm(t, newCallbackRouter(publisher), "/callbacks/status", url.Values{
		"MessageSid":    {"SM123"},
		"MessageStatus": {"undelivered"},
		"ErrorCode":     {"30003"},
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)

	payload := publisher.Calls[0].Arguments.Get(2).([]byte)
	var event reconcilerdomain.DeliveryStatusEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "30003", event.ErrorInfo)
}

func TestStatusCallback_MissingFields(t *testing.T) {
	publisher := new(MockEventPublisher)

	rec := postForm(t, newCallbackRouter(publisher), "/callbacks/status", url.Values{
		"MessageStatus": {"delivered"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusCallback_PublishFailure(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, SubjectDLRRaw, mock.Anything).Return(errors.New("nats down"))

	rec := postForm(t, newCallbackRouter(publisher), "/callbacks/status", url.Values{
		"MessageSid":    {"SM123"},
		"MessageStatus": {"delivered"},
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestInboundCallback_PublishesEventAndAnswersTwiML(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, SubjectInboundRaw, mock.Anything).Return(nil)

	rec := postForm(t, newCallbackRouter(publisher), "/callbacks/inbound", url.Values{
		"From": {"+15551234567"},
		"Body": {"STOP"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Response></Response>")

	payload := publisher.Calls[0].Arguments.Get(2).([]byte)
	var event reconcilerdomain.InboundSMSEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "+15551234567", event.From)
	assert.Equal(t, "STOP", event.Body)
}

func TestInboundCallback_MissingFields(t *testing.T) {
	publisher := new(MockEventPublisher)

	rec := postForm(t, newCallbackRouter(publisher), "/callbacks/inbound", url.Values{
		"From": {"+15551234567"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
