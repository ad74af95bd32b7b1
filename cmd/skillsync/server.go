package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/bus"
	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/intel"
	"github.com/ConWan30/skillsync-ai-platform-sub000/agent/swarm"
	"github.com/ConWan30/skillsync-ai-platform-sub000/api/handlers"
	"github.com/ConWan30/skillsync-ai-platform-sub000/config"
	"github.com/ConWan30/skillsync-ai-platform-sub000/dna"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/cache"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/metrics"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/server"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/store"
	"github.com/ConWan30/skillsync-ai-platform-sub000/internal/telemetry"
	"github.com/ConWan30/skillsync-ai-platform-sub000/jobs"
	"github.com/ConWan30/skillsync-ai-platform-sub000/llm"
	"github.com/ConWan30/skillsync-ai-platform-sub000/llm/retry"
	"github.com/ConWan30/skillsync-ai-platform-sub000/llm/xai"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 SkillSync 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	otel   *telemetry.Providers

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 核心组件
	metricsCollector *metrics.Collector
	pool             *store.PoolManager
	repo             *store.Repository
	cacheManager     *cache.Manager
	provider         *xai.Provider
	advisor          *llm.Advisor
	agentBus         *bus.Bus
	careerSwarm      *swarm.Swarm
	intelEngine      *intel.Engine
	dnaEngine        *dna.Engine
	dnaVault         *dna.Vault
	jobIntegrator    *jobs.Integrator
	jobTracker       *jobs.Tracker

	// Handlers
	healthHandler *handlers.HealthHandler
	userHandler   *handlers.UserHandler
	aiHandler     *handlers.AIHandler
	swarmHandler  *handlers.SwarmHandler
	dnaHandler    *handlers.DNAHandler
	jobsHandler   *handlers.JobsHandler
	filesHandler  *handlers.FilesHandler
	intelHandler  *handlers.IntelHandler

	// 后台生命周期管理
	busCancel         context.CancelFunc
	rateLimiterCancel context.CancelFunc

	wg sync.WaitGroup
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers, db *gorm.DB) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		db:     db,
		otel:   otel,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("skillsync", s.logger)

	// 2. 初始化核心组件（存储、缓存、AI、Agent 体系、职位集成）
	if err := s.initComponents(); err != nil {
		return fmt.Errorf("failed to init components: %w", err)
	}

	// 3. 初始化 Handlers
	if err := s.initHandlers(); err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	// 4. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 5. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("ai_configured", s.provider.Configured()),
		zap.Bool("cache_enabled", s.cacheManager != nil),
		zap.Bool("dna_enabled", s.dnaVault != nil),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initComponents 初始化存储、缓存与领域组件
func (s *Server) initComponents() error {
	// 数据库连接池与仓储
	pool, err := store.NewPoolManager(s.db, store.PoolConfig{
		MaxIdleConns:    s.cfg.Database.MaxIdleConns,
		MaxOpenConns:    s.cfg.Database.MaxOpenConns,
		ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("create pool manager: %w", err)
	}
	s.pool = pool
	s.repo = store.NewRepository(pool, s.logger)

	if err := s.repo.AutoMigrate(); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Redis 缓存（可选，未配置地址时禁用）
	if s.cfg.Redis.Addr != "" {
		manager, err := cache.NewManager(cache.Config{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
			DefaultTTL:   s.cfg.Redis.DefaultTTL,
		}, s.logger)
		if err != nil {
			s.logger.Warn("Redis not available, caching disabled", zap.Error(err))
		} else {
			s.cacheManager = manager
		}
	} else {
		s.logger.Info("Redis address not configured, caching disabled")
	}

	// xAI Provider 与职业顾问
	s.provider = xai.New(xai.Config{
		APIKey:  s.cfg.XAI.APIKey,
		BaseURL: s.cfg.XAI.BaseURL,
		Model:   s.cfg.XAI.Model,
		Timeout: s.cfg.XAI.Timeout,
	}, s.logger)

	retryer := retry.NewBackoffRetryer(&retry.Policy{
		MaxRetries:    s.cfg.XAI.MaxRetries,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		Multiplier:    2.0,
		Jitter:        true,
		RetryableFunc: llm.IsRetryable,
	}, s.logger)

	s.advisor = llm.NewAdvisor(s.provider, retryer, s.metricsCollector, s.logger)

	// A2A 消息总线
	s.agentBus = bus.New(bus.Config{
		QueueSize:       s.cfg.Agents.QueueSize,
		CleanupInterval: s.cfg.Agents.CleanupInterval,
		RetentionAge:    s.cfg.Agents.RetentionWindow,
	}, s.metricsCollector, s.logger)

	busCtx, busCancel := context.WithCancel(context.Background())
	s.busCancel = busCancel
	s.agentBus.Start(busCtx)

	// 职业蜂群与情报引擎
	s.careerSwarm = swarm.New(nil, s.logger,
		swarm.WithRecorder(s.metricsCollector),
		swarm.WithInsightSharer(s.agentBus),
	)

	var trends intel.TrendCache
	if s.cacheManager != nil {
		trends = s.cacheManager
	}
	s.intelEngine = intel.New(s.advisor, s.repo, trends, s.agentBus, s.logger)

	// 职业 DNA：引擎做纯计算，保险库负责加密持久化。
	// 未配置主密钥时禁用 DNA 端点而非以弱密钥运行。
	s.dnaEngine = dna.NewEngine(s.agentBus, s.logger)
	if s.cfg.Privacy.MasterKey != "" {
		vault, err := dna.NewVault(s.repo, []byte(s.cfg.Privacy.MasterKey), s.logger,
			dna.WithGracePeriod(s.cfg.Privacy.DeletionGracePeriod))
		if err != nil {
			return fmt.Errorf("create dna vault: %w", err)
		}
		s.dnaVault = vault
		s.startPurgeSweeper(busCtx)
	} else {
		s.logger.Warn("Privacy master key not configured, career DNA endpoints disabled")
	}

	// 职位平台集成与收入追踪
	s.jobIntegrator = jobs.NewIntegrator(s.buildSearchers(), s.logger, s.jobIntegratorOptions()...)
	s.jobTracker = jobs.NewTracker(s.repo, s.metricsCollector, s.logger)

	return nil
}

// startPurgeSweeper 周期性硬删除宽限期已过的 DNA 数据
func (s *Server) startPurgeSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.dnaVault.PurgeExpired(ctx)
				if err != nil {
					s.logger.Warn("dna purge sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					s.logger.Info("dna purge sweep completed", zap.Int("purged_users", n))
				}
			}
		}
	}()
}

// buildSearchers 根据配置组装启用的平台搜索器。
// Indeed 搜索器单独构造以注入发布商 ID。
func (s *Server) buildSearchers() []jobs.Searcher {
	enabled := make(map[string]struct{}, len(s.cfg.Jobs.Platforms))
	for _, p := range s.cfg.Jobs.Platforms {
		enabled[p] = struct{}{}
	}

	var searchers []jobs.Searcher
	for _, searcher := range jobs.DefaultSearchers(nil, s.logger) {
		platform := searcher.Platform()
		if _, ok := enabled[platform]; !ok {
			continue
		}
		if platform == jobs.PlatformIndeed {
			searcher = jobs.NewIndeedSearcher(nil, s.cfg.Jobs.IndeedPublisherID, s.logger)
		}
		searchers = append(searchers, searcher)
	}
	return searchers
}

// jobIntegratorOptions 组装职位集成器选项：指标上报、搜索缓存与限流
func (s *Server) jobIntegratorOptions() []jobs.IntegratorOption {
	opts := []jobs.IntegratorOption{jobs.WithRecorder(s.metricsCollector)}

	if s.cacheManager != nil {
		ttl := s.cfg.Jobs.CacheTTL
		if ttl <= 0 {
			ttl = cache.JobSearchTTL
		}
		opts = append(opts, jobs.WithSearchCache(s.cacheManager, ttl))
	}

	if rpm := s.cfg.Jobs.RatePerMinute; rpm > 0 {
		limit := rate.Limit(float64(rpm) / 60.0)
		for _, p := range s.cfg.Jobs.Platforms {
			opts = append(opts, jobs.WithRateLimit(p, rate.NewLimiter(limit, 3)))
		}
	}

	return opts
}

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() error {
	// 健康检查 handler，注册数据库与缓存探针
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewDatabaseHealthCheck("database", s.pool.Ping))
	if s.cacheManager != nil {
		s.healthHandler.RegisterCheck(handlers.NewRedisHealthCheck("redis", s.cacheManager.Ping))
	}

	// 用户与技能 handler
	s.userHandler = handlers.NewUserHandler(s.repo, s.logger)

	// AI 推理 handler
	aiOpts := []handlers.AIHandlerOption{handlers.WithAssessmentStore(s.repo)}
	if s.cacheManager != nil {
		aiOpts = append(aiOpts, handlers.WithResultCache(s.cacheManager, cache.AssessTTL))
	}
	s.aiHandler = handlers.NewAIHandler(s.advisor, s.provider, s.logger, aiOpts...)

	// 蜂群分析 handler
	s.swarmHandler = handlers.NewSwarmHandler(s.careerSwarm, s.agentBus, s.logger)

	// 职业 DNA handler（主密钥缺失时不注册）
	if s.dnaVault != nil {
		s.dnaHandler = handlers.NewDNAHandler(s.dnaEngine, s.dnaVault, s.logger)
	}

	// 职位集成 handler
	s.jobsHandler = handlers.NewJobsHandler(s.jobIntegrator, s.jobTracker, s.logger)

	// 文件上传 handler
	s.filesHandler = handlers.NewFilesHandler(s.cfg.Upload.Dir, s.logger)

	// 主动情报 handler
	s.intelHandler = handlers.NewIntelHandler(s.intelEngine, s.logger)

	s.logger.Info("Handlers initialized")
	return nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 服务横幅与健康检查端点
	// ========================================
	mux.HandleFunc("GET /{$}", s.healthHandler.HandleBanner(
		"SkillSync AI Platform", Version, s.advisor.ProviderName(),
		[]string{
			"skill_assessment",
			"career_guidance",
			"swarm_analysis",
			"career_dna",
			"job_board_integration",
		},
	))
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)

	// 版本信息端点
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// 用户与技能路由
	// ========================================
	mux.HandleFunc("POST /api/v1/users", s.userHandler.HandleCreateUser)
	mux.HandleFunc("GET /api/v1/users/{id}/skills", s.userHandler.HandleListSkills)
	mux.HandleFunc("POST /api/v1/users/{id}/skills", s.userHandler.HandleAddSkill)
	mux.HandleFunc("GET /api/v1/users/{id}/assessments", s.userHandler.HandleListAssessments)
	mux.HandleFunc("GET /api/v1/users/{id}/learning-paths", s.userHandler.HandleListLearningPaths)
	mux.HandleFunc("POST /api/v1/users/{id}/learning-paths", s.userHandler.HandleCreateLearningPath)
	mux.HandleFunc("POST /api/v1/learning-paths/{pathID}/progress", s.userHandler.HandleUpdateProgress)

	// ========================================
	// AI 推理与 Agent 路由
	// ========================================
	mux.HandleFunc("POST /api/v1/ai/assess-skills", s.aiHandler.HandleAssessSkills)
	mux.HandleFunc("POST /api/v1/ai/career-guidance", s.aiHandler.HandleCareerGuidance)
	mux.HandleFunc("POST /api/v1/ai/swarm-analysis", s.swarmHandler.HandleSwarmAnalysis)
	mux.HandleFunc("GET /api/v1/agents/status", s.swarmHandler.HandleAgentStatus)
	mux.HandleFunc("POST /api/v1/intelligence/cycle", s.intelHandler.HandleRunCycle)

	// ========================================
	// 职业 DNA 路由（可选 JWT 保护）
	// ========================================
	if s.dnaHandler != nil {
		mux.HandleFunc("POST /api/v1/dna/consent", s.dnaHandler.HandleConsent)
		mux.HandleFunc("POST /api/v1/dna/analyze", s.dnaHandler.HandleAnalyze)
		mux.HandleFunc("GET /api/v1/dna/{userID}", s.dnaHandler.HandleGetProfile)
		mux.HandleFunc("DELETE /api/v1/dna/{userID}", s.dnaHandler.HandlePurge)
		s.logger.Info("Career DNA routes registered", zap.Bool("jwt_protected", s.cfg.JWT.Enabled))
	}

	// ========================================
	// 职位集成与文件路由
	// ========================================
	mux.HandleFunc("GET /api/v1/jobs/search", s.jobsHandler.HandleSearch)
	mux.HandleFunc("POST /api/v1/jobs/track", s.jobsHandler.HandleTrack)
	mux.HandleFunc("GET /api/v1/jobs/revenue", s.jobsHandler.HandleRevenue)
	mux.HandleFunc("POST /api/v1/files/upload", s.filesHandler.HandleUpload)

	// ========================================
	// 构建中间件链
	// ========================================
	skipAuthPaths := []string{"/", "/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.cfg.Server.AllowQueryAPIKey, s.logger),
	}
	if s.cfg.JWT.Enabled {
		// DNA 端点承载敏感画像，额外要求 Bearer token
		middlewares = append(middlewares, JWTAuth(s.cfg.JWT, "/api/v1/dna/", s.logger))
	}
	handler := Chain(mux, middlewares...)

	// ========================================
	// 使用 internal/server.Manager
	// ========================================
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout, // 2x ReadTimeout
		MaxHeaderBytes:  1 << 20,                      // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	// 使用 httpManager 的 WaitForShutdown（它会监听信号）
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	// 执行清理
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 0. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 1. 关闭 HTTP 服务器，不再接收新请求
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 3. 停止 A2A 总线，排空消息队列
	if s.agentBus != nil {
		s.agentBus.Stop()
	}
	if s.busCancel != nil {
		s.busCancel()
	}

	// 4. 关闭缓存与数据库连接
	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache shutdown error", zap.Error(err))
		}
	}
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Error("Database pool shutdown error", zap.Error(err))
		}
	}

	// 5. 关闭 OpenTelemetry
	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	// 6. 等待所有 goroutine 完成
	s.wg.Wait()

	s.logger.Info("Graceful shutdown completed")
}
