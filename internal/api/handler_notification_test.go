package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notifyhub/config"
	"notifyhub/internal/auth"
	"notifyhub/internal/directory"
	"notifyhub/internal/dispatch"
	"notifyhub/internal/history"
	"notifyhub/internal/model"
	"notifyhub/internal/realtime"
	"notifyhub/pkg/util"
)

type fakeDispatcher struct {
	res  dispatch.Result
	err  error
	last model.NotificationRequest
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req model.NotificationRequest) (dispatch.Result, error) {
	f.last = req
	return f.res, f.err
}

type testAPI struct {
	router     *Router
	dispatcher *fakeDispatcher
	history    *history.Store
	token      string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := util.HashPassword("s3cret")
	require.NoError(t, err)

	dir := directory.New([]config.UserConfig{
		{ID: "user123", Email: "user123@example.com", PasswordHash: hash},
	})
	authService := auth.NewService(dir, "test-secret")

	token, err := authService.Login("user123", "s3cret")
	require.NoError(t, err)

	d := &fakeDispatcher{}
	hist := history.NewStore()
	logger := zap.NewNop()

	router := NewRouter(
		NewAuthHandler(authService),
		NewNotificationHandler(d, hist),
		NewWSHandler(realtime.NewHub(logger), logger),
		authService,
	)

	return &testAPI{router: router, dispatcher: d, history: hist, token: token}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.Engine.ServeHTTP(w, req)
	return w
}

func notificationBody() map[string]string {
	return map[string]string{
		"user_id": "user123",
		"title":   "Hi",
		"message": "Test",
		"channel": "email",
	}
}

func TestCreate_RequiresAuth(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/notifications", "", notificationBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/notifications", "bogus-token", notificationBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreate_InvalidRequestMapsTo400(t *testing.T) {
	a := newTestAPI(t)
	a.dispatcher.err = model.ErrInvalidRequest

	w := a.do(http.MethodPost, "/notifications", a.token, notificationBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_UnknownUserMapsTo404(t *testing.T) {
	a := newTestAPI(t)
	a.dispatcher.err = dispatch.ErrUnknownUser

	w := a.do(http.MethodPost, "/notifications", a.token, notificationBody())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreate_QueuedMapsTo202(t *testing.T) {
	a := newTestAPI(t)
	a.dispatcher.res = dispatch.Result{Accepted: true, Queued: true}

	w := a.do(http.MethodPost, "/notifications", a.token, notificationBody())
	require.Equal(t, http.StatusAccepted, w.Code)

	var res dispatch.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Accepted)
	assert.True(t, res.Queued)

	// Handler passed the parsed request through untouched.
	assert.Equal(t, model.NotificationRequest{
		UserID:  "user123",
		Title:   "Hi",
		Message: "Test",
		Channel: model.ChannelEmail,
	}, a.dispatcher.last)
}

func TestCreate_DirectSendAcceptedMapsTo202(t *testing.T) {
	a := newTestAPI(t)
	a.dispatcher.res = dispatch.Result{Accepted: true, Queued: false}

	w := a.do(http.MethodPost, "/notifications", a.token, notificationBody())
	require.Equal(t, http.StatusAccepted, w.Code)

	var res dispatch.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Accepted)
	assert.False(t, res.Queued)
}

func TestCreate_FallbackFailureMapsTo503(t *testing.T) {
	a := newTestAPI(t)
	a.dispatcher.res = dispatch.Result{Accepted: false, Queued: false, Reason: "transient_failure"}

	w := a.do(http.MethodPost, "/notifications", a.token, notificationBody())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListForUser(t *testing.T) {
	a := newTestAPI(t)
	a.history.Append("user123", model.HistoryEntry{Title: "Hi", Message: "Test", Channel: model.ChannelEmail})

	w := a.do(http.MethodGet, "/users/user123/notifications", a.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []model.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Hi", entries[0].Title)
}

func TestListForUser_EmptyIsEmptyArray(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, "/users/nobody/notifications", a.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t)

	t.Run("valid credentials", func(t *testing.T) {
		w := a.do(http.MethodPost, "/login", "", map[string]string{
			"user_id": "user123", "password": "s3cret",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var res map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.NotEmpty(t, res["token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w := a.do(http.MethodPost, "/login", "", map[string]string{
			"user_id": "user123", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
