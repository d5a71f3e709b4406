package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
	"github.com/shinyyama/localbid-backend/internal/service"
	"github.com/shinyyama/localbid-backend/internal/testutil"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu   sync.Mutex
	dest []string
}

func (p *capturePublisher) Publish(_ context.Context, destination string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dest = append(p.dest, destination)
	return nil
}

type env struct {
	e        *echo.Echo
	users    repository.UserRepository
	items    repository.ItemRepository
	chat     *ChatHandler
	alarm    *AlarmHandler
	item     *ItemHandler
	user     *UserHandler
	realtime *ChatRealtimeHandler
	pub      *capturePublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testutil.NewDB(t)
	chatRepo := repository.NewChatRepository(gdb)
	userRepo := repository.NewUserRepository(gdb)
	itemRepo := repository.NewItemRepository(gdb)
	pub := &capturePublisher{}
	chatSvc := service.NewChatService(chatRepo, itemRepo, pub)

	e := echo.New()
	e.Validator = NewRequestValidator()
	return &env{
		e:        e,
		users:    userRepo,
		items:    itemRepo,
		chat:     NewChatHandler(chatSvc, service.NewChatSummaryAggregator(chatRepo, userRepo, itemRepo)),
		alarm:    NewAlarmHandler(service.NewAlarmService(repository.NewAlarmRepository(gdb), pub)),
		item:     NewItemHandler(service.NewItemService(itemRepo)),
		user:     NewUserHandler(service.NewUserService(userRepo)),
		realtime: NewChatRealtimeHandler(chatSvc),
		pub:      pub,
	}
}

// call runs h with uid bound (0 means anonymous) and path params set in order.
func (en *env) call(t *testing.T, h echo.HandlerFunc, method, target, body string, uid uint64, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := en.e.NewContext(req, rec)
	if uid != 0 {
		c.Set("uid", uid)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	require.NoError(t, h(c))
	return rec
}

func (en *env) seedUser(t *testing.T, nickname string) model.User {
	t.Helper()
	u := model.User{Nickname: nickname}
	require.NoError(t, en.users.Create(context.Background(), &u))
	return u
}

func (en *env) seedItem(t *testing.T, sellerID uint64) model.Item {
	t.Helper()
	it := model.Item{
		SellerID:    sellerID,
		Title:       "camera",
		Description: "film camera",
		Category:    model.CategoryDigital,
		TradeMethod: model.TradeMethodDelivery,
		StartPrice:  30000,
	}
	require.NoError(t, en.items.Create(context.Background(), &it))
	return it
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, rec, &resp)
	return resp.Error.Code
}
