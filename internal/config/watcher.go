package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchLogLevel 监听配置文件变化并热更新日志级别
// 只处理 log.level 字段，其余改动需要重启才能生效
func WatchLogLevel(ctx context.Context, logger *zap.Logger, path string, apply func(level string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// 监听目录而非文件本身，兼容编辑器的原子替换写入
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("重新加载配置失败", zap.Error(err))
					continue
				}
				apply(cfg.Log.Level)
				logger.Info("日志级别已更新", zap.String("level", cfg.Log.Level))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("配置文件监听异常", zap.Error(err))
			}
		}
	}()
	return nil
}
