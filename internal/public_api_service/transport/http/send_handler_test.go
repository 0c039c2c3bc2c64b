package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/textblast/gateway/internal/core_sms/domain"
	dispatchapp "github.com/textblast/gateway/internal/dispatch_service/app"
)

type MockBatchDispatcher struct {
	mock.Mock
}

func (m *MockBatchDispatcher) DispatchBatch(ctx context.Context, rawRecipients, template string) (*domain.BatchOutcome, error) {
	args := m.Called(ctx, rawRecipients, template)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchOutcome), args.Error(1)
}

func (m *MockBatchDispatcher) DispatchTest(ctx context.Context, rawRecipients, template string) (*dispatchapp.TestOutcome, error) {
	args := m.Called(ctx, rawRecipients, template)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchapp.TestOutcome), args.Error(1)
}

func newSendRouter(dispatcher BatchDispatcher) http.Handler {
	h := NewSendHandler(dispatcher, validator.New(), testLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSendBatch_Success(t *testing.T) {
	dispatcher := new(MockBatchDispatcher)
	dispatcher.On("DispatchBatch", mock.Anything, "5551234567\n5557654321", "Hi {{name}}").
		Return(&domain.BatchOutcome{Sent: 2, TotalRequested: 2}, nil)

	rec := postJSON(t, newSendRouter(dispatcher), "/messages/send",
		`{"recipients": "5551234567\n5557654321", "message": "Hi {{name}}"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var outcome domain.BatchOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, 2, outcome.Sent)
	assert.Equal(t, 2, outcome.TotalRequested)
	dispatcher.AssertExpectations(t)
}

func TestSendBatch_MissingFields(t *testing.T) {
	dispatcher := new(MockBatchDispatcher)

	rec := postJSON(t, newSendRouter(dispatcher), "/messages/send", `{"message": "no recipients"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	dispatcher.AssertNotCalled(t, "DispatchBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendBatch_MalformedJSON(t *testing.T) {
	dispatcher := new(MockBatchDispatcher)

	rec := postJSON(t, newSendRouter(dispatcher), "/messages/send", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendBatch_ProviderNotConfigured(t *testing.T) {
	dispatcher := new(MockBatchDispatcher)
	dispatcher.On("DispatchBatch", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrProviderNotConfigured)

	rec := postJSON(t, newSendRouter(dispatcher), "/messages/send",
		`{"recipients": "5551234567", "message": "hi"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSendBatch_DispatchError(t *testing.T) {
	dispatcher := new(MockBatchDispatcher)
	dispatcher.On("DispatchBatch", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("opt-out lookup failed"))

	rec := postJSON(t, newSendRouter(dispatcher), "/messages/send",
		`{"recipients": "5551234567", "message": "hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSendTest_Success(t *testing.T) {
	dispatcher := new(MockBatchDispatcher)
	dispatcher.On("DispatchTest", mock.Anything, "5551234567", "hi").
		Return(&dispatchapp.TestOutcome{Sent: 1, Total: 1}, nil)

	rec := postJSON(t, newSendRouter(dispatcher), "/messages/test",
		`{"recipients": "5551234567", "message": "hi"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var outcome dispatchapp.TestOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, 1, outcome.Sent)
}

func TestSendTest_ProviderNotConfigured(t *testing.T) {
	dispatcher := new(MockBatchDispatcher)
	dispatcher.On("DispatchTest", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrProviderNotConfigured)

	rec := postJSON(t, newSendRouter(dispatcher), "/messages/test",
		`{"recipients": "5551234567", "message": "hi"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
