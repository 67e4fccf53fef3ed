package store

import (
	"encoding/json"
	"fmt"

	"ScreenSync/model"

	badger "github.com/dgraph-io/badger/v4"
)

// bundle 在本地缓存中的固定键
const localBundleKey = "bundle"

// LocalCache 设备本地的持久 KV 缓存（badger）。
// 保存最后一次看到的 bundle，进程重启后仍然可用；
// 远端不可达时客户端就靠它继续播放。
type LocalCache struct {
	db *badger.DB
}

// OpenLocalCache 打开（或创建）本地缓存
func OpenLocalCache(dir string) (*LocalCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger 自带日志太啰嗦，统一走 zap

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	return &LocalCache{db: db}, nil
}

// Close 关闭本地缓存
func (c *LocalCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get 读取字符串值。键不存在时返回 ("", false, nil)。
func (c *LocalCache) Get(key string) (string, bool, error) {
	var value string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value = string(data)
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read local cache key %q: %w", key, err)
	}
	return value, true, nil
}

// Set 写入字符串值
func (c *LocalCache) Set(key, value string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write local cache key %q: %w", key, err)
	}
	return nil
}

// LoadBundle 读取缓存的 bundle。缓存为空时返回 (nil, false, nil)。
func (c *LocalCache) LoadBundle() (*model.Bundle, bool, error) {
	data, ok, err := c.Get(localBundleKey)
	if err != nil || !ok {
		return nil, false, err
	}

	var b model.Bundle
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached bundle: %w", err)
	}
	return &b, true, nil
}

// SaveBundle 持久化 bundle 到本地缓存
func (c *LocalCache) SaveBundle(b *model.Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}
	return c.Set(localBundleKey, string(data))
}
