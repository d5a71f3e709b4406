package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/localbid-backend/internal/handler"
	appmw "github.com/shinyyama/localbid-backend/internal/middleware"
	"github.com/shinyyama/localbid-backend/internal/realtime"
	"github.com/shinyyama/localbid-backend/internal/repository"
	"github.com/shinyyama/localbid-backend/internal/reqctx"
	"github.com/shinyyama/localbid-backend/internal/service"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type Options struct {
	AllowedOriginSuffix string
	WSSendRate          float64
	WSSendBurst         int
	SHA                 string
	BuildTime           string
}

type Server struct {
	e *echo.Echo
}

func New(db *gorm.DB, auth *appmw.AuthMiddleware, broker *realtime.Broker, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, rid string) {
			req := c.Request()
			c.SetRequest(req.WithContext(reqctx.WithRequestID(req.Context(), rid)))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	allowOrigin := originAllower(opts.AllowedOriginSuffix)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.UserIDHeader},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			return allowOrigin(origin), nil
		},
	}))

	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	chatRepo := repository.NewChatRepository(db)
	alarmRepo := repository.NewAlarmRepository(db)

	chatSvc := service.NewChatService(chatRepo, itemRepo, broker)
	userHandler := handler.NewUserHandler(service.NewUserService(userRepo))
	itemHandler := handler.NewItemHandler(service.NewItemService(itemRepo))
	chatHandler := handler.NewChatHandler(chatSvc, service.NewChatSummaryAggregator(chatRepo, userRepo, itemRepo))
	alarmHandler := handler.NewAlarmHandler(service.NewAlarmService(alarmRepo, broker))

	router := realtime.NewRouter()
	handler.NewChatRealtimeHandler(chatSvc).Register(router)
	endpoint := realtime.NewEndpoint(broker, router, realtime.Options{
		SendRate:  rate.Limit(opts.WSSendRate),
		SendBurst: opts.WSSendBurst,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin(origin)
		},
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    opts.SHA,
			"build_time": opts.BuildTime,
		})
	})
	e.GET("/ws", echo.WrapHandler(endpoint))

	requireAuth := auth.RequireAuth
	api := e.Group("/api")
	api.POST("/users", userHandler.Create)
	api.GET("/users/:id", userHandler.Get)

	api.GET("/items", itemHandler.List)
	api.GET("/items/:id", itemHandler.Get)
	api.POST("/items", itemHandler.Create, requireAuth)
	api.POST("/items/:id/chat-rooms", chatHandler.OpenRoom, requireAuth)

	rooms := api.Group("/chat-rooms", requireAuth)
	rooms.GET("", chatHandler.ListRooms)
	rooms.GET("/:id", chatHandler.GetRoom)
	rooms.DELETE("/:id", chatHandler.LeaveRoom)
	rooms.GET("/:id/messages", chatHandler.ListMessages)
	rooms.POST("/:id/messages", chatHandler.SendMessage)
	rooms.POST("/:id/read", chatHandler.MarkRead)

	alarms := api.Group("/alarms", requireAuth)
	alarms.POST("", alarmHandler.Create)
	alarms.GET("", alarmHandler.List)
	alarms.GET("/unread-count", alarmHandler.UnreadCount)
	alarms.POST("/read-all", alarmHandler.MarkAllRead)
	alarms.POST("/:id/read", alarmHandler.MarkRead)
	alarms.DELETE("/:id", alarmHandler.Delete)

	return &Server{e: e}
}

// originAllower accepts local development origins and hosts ending in suffix.
func originAllower(suffix string) func(origin string) bool {
	return func(origin string) bool {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		return suffix != "" && strings.HasSuffix(u.Hostname(), suffix)
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
