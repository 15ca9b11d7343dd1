// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"okr-compass-go/internal/alignment"
	"okr-compass-go/internal/config"
	"okr-compass-go/internal/handler"
	"okr-compass-go/internal/middleware"
	"okr-compass-go/internal/pipeline"
	"okr-compass-go/internal/repository"
	"okr-compass-go/internal/service"
	"okr-compass-go/pkg/database"
	"okr-compass-go/pkg/es"
	"okr-compass-go/pkg/kafka"
	"okr-compass-go/pkg/log"
	"okr-compass-go/pkg/storage"
	"okr-compass-go/pkg/token"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储、搜索与消息队列
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if cfg.Database.MySQL.AutoMigrate {
		if err := database.Migrate(database.DB); err != nil {
			log.Fatalf("数据库迁移失败: %v", err)
		}
	}
	database.InitRedis(cfg.Database.Redis)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	departmentRepo := repository.NewDepartmentRepository(database.DB)
	cycleRepo := repository.NewCycleRepository(database.DB)
	objectiveRepo := repository.NewObjectiveRepository(database.DB)
	keyResultRepo := repository.NewKeyResultRepository(database.DB)
	linkRepo := repository.NewAlignmentLinkRepository(database.DB)
	checkInRepo := repository.NewCheckInRepository(database.DB)
	blacklist := repository.NewTokenBlacklist(database.RDB)
	treeCache := repository.NewTreeCacheRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	events := kafka.Publisher{}
	objectiveIndex := es.NewObjectiveIndex(es.ESClient, cfg.Elasticsearch.IndexName)

	userService := service.NewUserService(userRepo, blacklist, jwtManager)
	adminService := service.NewAdminService(departmentRepo, userRepo, events)
	cycleService := service.NewCycleService(cycleRepo)
	objectiveService := service.NewObjectiveService(objectiveRepo, keyResultRepo, linkRepo, userRepo, departmentRepo, cycleRepo, events)
	keyResultService := service.NewKeyResultService(objectiveRepo, keyResultRepo, checkInRepo, events)
	alignmentService := service.NewAlignmentService(linkRepo, objectiveRepo, keyResultRepo, events)

	loader := alignment.NewLoader(objectiveRepo, keyResultRepo, linkRepo, userRepo, departmentRepo)
	treeTTL := time.Duration(cfg.OKR.TreeCacheTTLSeconds) * time.Second
	treeService := service.NewOKRTreeService(cycleService, alignment.NewEngine(loader), treeCache, treeTTL)
	snapshotService := service.NewSnapshotService(
		treeService,
		storage.NewObjectStore(storage.MinioClient, cfg.MinIO.BucketName),
		cfg.OKR.SnapshotPrefix,
		time.Duration(cfg.OKR.SnapshotURLMinutes)*time.Minute,
	)
	searchService := service.NewSearchService(objectiveIndex)

	// 6. 初始化事件处理管道 (Processor) 并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(objectiveRepo, keyResultRepo, objectiveIndex, treeService)
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		kafka.StartConsumer(consumerCtx, cfg.Kafka, processor, kafka.NewRedisAttemptCounter(database.RDB))
	}()

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	handler.RegisterRoutes(r, handler.Services{
		JWT:        jwtManager,
		Blacklist:  blacklist,
		Users:      userService,
		Admin:      adminService,
		Cycles:     cycleService,
		Objectives: objectiveService,
		KeyResults: keyResultService,
		Alignments: alignmentService,
		Trees:      treeService,
		Snapshots:  snapshotService,
		Search:     searchService,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 先停止消费者，再关闭生产者
	stopConsumer()
	select {
	case <-consumerDone:
	case <-ctx.Done():
		log.Warnf("等待 Kafka 消费者退出超时")
	}
	if err := kafka.CloseProducer(); err != nil {
		log.Errorf("关闭 Kafka 生产者失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
