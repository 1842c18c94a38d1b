package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/stevedore-dev/stevedore/internal/config"
	"github.com/stevedore-dev/stevedore/internal/docker"
	"github.com/stevedore-dev/stevedore/internal/handler"
	"github.com/stevedore-dev/stevedore/internal/logger"
	"github.com/stevedore-dev/stevedore/internal/models"
	"github.com/stevedore-dev/stevedore/internal/router"
	"github.com/stevedore-dev/stevedore/internal/scheduler"
	"github.com/stevedore-dev/stevedore/internal/service"
	"github.com/stevedore-dev/stevedore/internal/stream"
	"github.com/stevedore-dev/stevedore/internal/validation"
	"github.com/stevedore-dev/stevedore/internal/ws"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stevedore",
	Short: "容器运行时监控面板",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(configPath)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "配置文件路径")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	validator, err := validation.New()
	if err != nil {
		return err
	}
	if err := validator.Struct(cfg); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	log, level := logger.New(cfg.Log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 配置热更新只对日志级别生效
	if err := config.WatchLogLevel(ctx, log, configPath, func(lv string) {
		level.SetLevel(logger.ParseLevel(lv))
	}); err != nil {
		log.Warn("无法监听配置文件变化", zap.Error(err))
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.AutoMigrate(&models.Registry{}, &models.PullRecord{}); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	client, err := docker.NewClient(ctx, log, cfg.Docker)
	if err != nil {
		return fmt.Errorf("连接容器运行时失败: %w", err)
	}
	defer client.Close()

	authService, err := service.NewAuthService(ctx, log, cfg)
	if err != nil {
		return fmt.Errorf("初始化认证失败: %w", err)
	}
	containerService := service.NewContainerService(log, client)
	imageService := service.NewImageService(log, db, client)
	registryService := service.NewRegistryService(log, db, validator)
	hostService := service.NewHostService(log, client)

	manager := ws.NewManager(log)
	defer manager.CloseAll()

	// 面向 WebSocket 订阅者的后台广播泵
	pump := stream.NewPump(log, manager, client, client,
		cfg.Telemetry.AggregateTick(), cfg.Telemetry.Fanout())
	go pump.Run(ctx)

	cleanup := scheduler.NewCleanupScheduler(log, imageService, cfg.Retention.PullHistoryDays)
	if err := cleanup.Start(ctx); err != nil {
		return fmt.Errorf("启动调度器失败: %w", err)
	}
	defer cleanup.Stop()

	e := router.New(log, authService, router.Handlers{
		Auth:      handler.NewAuthHandler(log, authService),
		Container: handler.NewContainerHandler(log, containerService, client, cfg.Telemetry.Interval()),
		Image:     handler.NewImageHandler(log, imageService),
		Registry:  handler.NewRegistryHandler(log, registryService),
		System: handler.NewSystemHandler(log, hostService, client,
			cfg.Telemetry.AggregateTick(), cfg.Telemetry.Fanout()),
		WS: handler.NewWSHandler(log, manager),
	})

	go func() {
		log.Info("服务启动", zap.String("addr", cfg.Server.Addr))
		if err := e.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
			log.Error("服务异常退出", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("收到退出信号，开始优雅停机")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP 服务停机超时", zap.Error(err))
	}
	return nil
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
