package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/middleware"
	"github.com/annel0/voxel-world/internal/region"
	"github.com/annel0/voxel-world/internal/scheduler"
	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// WorldController - операции мира, доступные API. Реализуется world.Driver:
// все запросы выполняются в горутине мира.
type WorldController interface {
	Stats(ctx context.Context) (world.Stats, error)
	ChunkInfo(ctx context.Context, pos voxel.ChunkPos) (world.ChunkInfo, bool, error)
	Save(ctx context.Context) (world.SaveReport, error)
	MoveLoader(ctx context.Context, pos voxel.ChunkPos, radius int) error
	SetVoxel(ctx context.Context, pos voxel.VoxelPos, v voxel.Voxel) (bool, error)
}

// StoreStats отдаёт статистику хранилища регионов
type StoreStats interface {
	Stats() region.StatsSnapshot
}

// SchedulerStats отдаёт статистику пула задач
type SchedulerStats interface {
	Stats() scheduler.StatsSnapshot
}

// RestServer - отладочный HTTP API сервера мира
type RestServer struct {
	router    *gin.Engine
	server    *http.Server
	world     WorldController
	store     StoreStats
	scheduler SchedulerStats
	metrics   *ServerMetrics
	timeout   time.Duration
	maxRadius int
	logger    *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port      int
	World     WorldController
	Store     StoreStats
	Scheduler SchedulerStats
	// Registerer и Gatherer для HTTP-метрик и /metrics; nil - дефолтный регистр
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// RequestTimeout ограничивает ожидание ответа от горутины мира
	RequestTimeout time.Duration
	// MaxRadius - наибольший радиус в POST /api/loader; 0 - world.DefaultMaxRadius
	MaxRadius int
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == 0 {
		config.Port = 8088
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	if config.MaxRadius <= 0 {
		config.MaxRadius = world.DefaultMaxRadius
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_api"))
	router.Use(middleware.NewRequestLogger().Handler())

	promMw := middleware.NewPrometheusMiddleware("voxel_api", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:    router,
		world:     config.World,
		store:     config.Store,
		scheduler: config.Scheduler,
		metrics:   NewServerMetrics(),
		timeout:   config.RequestTimeout,
		maxRadius: config.MaxRadius,
		logger:    logging.GetAPILogger(),
	}
	rs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/chunks/:x/:y/:z", rs.handleChunk)
		api.POST("/save", rs.handleSave)
		api.POST("/loader", rs.handleMoveLoader)
		api.POST("/voxel", rs.handleSetVoxel)
	}
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LoaderRequest перемещает наблюдателя
type LoaderRequest struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Z      int `json:"z"`
	Radius int `json:"radius"`
}

// VoxelRequest меняет один блок
type VoxelRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Voxel string `json:"voxel" binding:"required"`
}

func (rs *RestServer) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), rs.timeout)
}

// fail пишет ошибку мира; остановленный драйвер и таймаут дают 503
func (rs *RestServer) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, world.ErrDriverStopped), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, world.ErrRadiusTooLarge):
		status = http.StatusBadRequest
	}
	rs.logger.Warn("⚠️ %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(status, GenericResponse{Success: false, Message: err.Error()})
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats отдаёт состояние мира, хранилища, пула задач и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	ctx, cancel := rs.requestContext(c)
	defer cancel()

	worldStats, err := rs.world.Stats(ctx)
	if err != nil {
		rs.fail(c, err)
		return
	}

	stats := map[string]interface{}{
		"world":  worldStats,
		"server": rs.metrics.Snapshot(),
	}
	if rs.store != nil {
		stats["regions"] = rs.store.Stats()
	}
	if rs.scheduler != nil {
		stats["scheduler"] = rs.scheduler.Stats()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

func parseChunkPos(c *gin.Context) (voxel.ChunkPos, error) {
	var coords [3]int
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.Atoi(c.Param(name))
		if err != nil {
			return voxel.ChunkPos{}, fmt.Errorf("неверная координата %s: %q", name, c.Param(name))
		}
		coords[i] = v
	}
	return voxel.NewChunkPos(coords[0], coords[1], coords[2]), nil
}

func (rs *RestServer) handleChunk(c *gin.Context) {
	pos, err := parseChunkPos(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	ctx, cancel := rs.requestContext(c)
	defer cancel()

	info, found, err := rs.world.ChunkInfo(ctx, pos)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Чанк %s не загружен", pos),
		})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Чанк найден", Data: info})
}

func (rs *RestServer) handleSave(c *gin.Context) {
	ctx, cancel := rs.requestContext(c)
	defer cancel()

	report, err := rs.world.Save(ctx)
	if err != nil {
		rs.fail(c, err)
		return
	}
	rs.logger.Info("💾 Сохранение по запросу API: %+v", report)
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир сохранён", Data: report})
}

func (rs *RestServer) handleMoveLoader(c *gin.Context) {
	var req LoaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	if req.Radius < 0 {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Радиус не может быть отрицательным"})
		return
	}
	if req.Radius > rs.maxRadius {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: fmt.Sprintf("Радиус больше %d", rs.maxRadius)})
		return
	}

	ctx, cancel := rs.requestContext(c)
	defer cancel()

	pos := voxel.NewChunkPos(req.X, req.Y, req.Z)
	if err := rs.world.MoveLoader(ctx, pos, req.Radius); err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: fmt.Sprintf("Наблюдатель перемещён в %s", pos)})
}

func (rs *RestServer) handleSetVoxel(c *gin.Context) {
	var req VoxelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	v, ok := voxel.ParseVoxel(req.Voxel)
	if !ok {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: fmt.Sprintf("Неизвестный блок %q", req.Voxel)})
		return
	}

	ctx, cancel := rs.requestContext(c)
	defer cancel()

	changed, err := rs.world.SetVoxel(ctx, voxel.VoxelPos{X: req.X, Y: req.Y, Z: req.Z}, v)
	if err != nil {
		rs.fail(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusConflict, GenericResponse{Success: false, Message: "Чанк не сгенерирован или блок не изменился"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок изменён"})
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает HTTP сервер и блокируется до его остановки
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 Отладочный API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка HTTP сервера: %w", err)
	}
	return nil
}

// Stop корректно останавливает HTTP сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
