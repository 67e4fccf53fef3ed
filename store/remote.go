package store

import (
	"context"
	"encoding/json"
	"fmt"

	"ScreenSync/logger"
	"ScreenSync/model"

	"github.com/redis/go-redis/v9"
)

// RemoteBundleStore 以 Redis 为复制基底的远端 bundle 存储。
// 传输单元是完整的 Bundle JSON：写入即整体替换（SET），
// 变更通过 pub/sub 扇出给所有订阅的客户端，消息体携带完整 bundle。
type RemoteBundleStore struct {
	client *redis.Client
	screen string
}

// NewRemoteBundleStore 创建远端 bundle 存储
func NewRemoteBundleStore(client *redis.Client, screenID string) *RemoteBundleStore {
	return &RemoteBundleStore{client: client, screen: screenID}
}

// bundleKey 生成 bundle 的 Redis 键
func (s *RemoteBundleStore) bundleKey() string {
	return fmt.Sprintf("bundle:%s", s.screen)
}

// eventChannel 生成变更通知的 pub/sub 频道名
func (s *RemoteBundleStore) eventChannel() string {
	return fmt.Sprintf("bundle:%s:events", s.screen)
}

// Write 整体写入 bundle 并广播变更通知。
// bundle 永不过期：远端存储无限期保留最后一次写入。
func (s *RemoteBundleStore) Write(ctx context.Context, b *model.Bundle) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	if err := s.client.Set(ctx, s.bundleKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}

	// 通知所有订阅者；发布失败不影响写入本身，
	// 未收到通知的客户端会在下一个周期 tick 追上。
	if err := s.client.Publish(ctx, s.eventChannel(), data).Err(); err != nil {
		logger.Warn("failed to publish bundle change",
			logger.ErrorField(err),
			logger.String("screen", s.screen))
	}

	return nil
}

// ReadOnce 读取一次当前 bundle。键不存在时返回 (nil, false, nil)。
func (s *RemoteBundleStore) ReadOnce(ctx context.Context) (*model.Bundle, bool, error) {
	if s.client == nil {
		return nil, false, fmt.Errorf("Redis client not initialized")
	}

	data, err := s.client.Get(ctx, s.bundleKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read bundle: %w", err)
	}

	var b model.Bundle
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal bundle: %w", err)
	}

	return &b, true, nil
}

// Subscribe 订阅 bundle 变更，每次变更回调收到完整的新 bundle。
// 返回取消订阅函数。回调在独立 goroutine 中顺序执行。
func (s *RemoteBundleStore) Subscribe(ctx context.Context, callback func(*model.Bundle)) (func(), error) {
	if s.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	pubsub := s.client.Subscribe(ctx, s.eventChannel())

	// 确认订阅建立，避免错过紧随其后的变更
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to bundle events: %w", err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			var b model.Bundle
			if err := json.Unmarshal([]byte(msg.Payload), &b); err != nil {
				logger.Warn("invalid bundle event payload",
					logger.ErrorField(err),
					logger.String("screen", s.screen))
				continue
			}
			callback(&b)
		}
	}()

	return func() { _ = pubsub.Close() }, nil
}
