package registry

import (
	"context"
	"path/filepath"
	"strings"

	"sable/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// WatchBindings 监听配置文件变更并触发重新解析回调。
// 编辑器通常以 rename+create 保存文件，所以监听父目录而非文件本身。
// ctx 结束时停止监听。
func WatchBindings(ctx context.Context, path string, onChange func()) error {
	path = strings.TrimSpace(path)
	if path == "" || onChange == nil {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != abs {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				logger.Infof("[registry] 检测到配置变更（%s），重新解析组件绑定", evt.Op)
				onChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("[registry] 配置监听错误: %v", err)
			}
		}
	}()
	return nil
}
