package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ScreenSync/logger"

	"github.com/fsnotify/fsnotify"
)

// SignalWatcher 监听设备内跨实例信号文件。
// 同一台设备上的任何进程在创作写入后 Touch 这个文件，
// 其他实例立即 reconcile，不用等下一个周期 tick。
// 纯粹是 tick 之上的优化，正确性不依赖它。
type SignalWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher 创建信号监听器并开始监听。
// onSignal 在每次信号文件被写入/创建时调用。
func NewSignalWatcher(path string, onSignal func()) (*SignalWatcher, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create signal directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// 监听目录而不是文件本身：文件可能尚不存在
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch signal directory: %w", err)
	}

	w := &SignalWatcher{
		path:    path,
		watcher: watcher,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					logger.Debug("device signal received", logger.String("file", path))
					onSignal()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("signal watcher error", logger.ErrorField(err))
			}
		}
	}()

	return w, nil
}

// Close 停止监听
func (w *SignalWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

// TouchSignal 触发设备内信号：任何实例（或外部脚本）都可以调用
func TouchSignal(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create signal directory: %w", err)
	}
	stamp := fmt.Sprintf("%d\n", time.Now().UnixMilli())
	if err := os.WriteFile(path, []byte(stamp), 0644); err != nil {
		return fmt.Errorf("failed to touch signal file: %w", err)
	}
	return nil
}
