// Package engine 实现每个客户端进程内的同步引擎。
//
// 引擎独占持有本进程的权威 Bundle，把远端推送、本地创作写入、
// 周期 tick 和设备内信号合并成一条显式的触发队列，
// 由单个 goroutine 串行执行 reconciliation：
// last-writer-wins 合并 → 持久化到本地缓存 → 重新裁决当前内容 →
// 仅在内容项 id 变化时向渲染器下发新指令。
package engine

import (
	"context"
	"sync"
	"time"

	"ScreenSync/core/resolver"
	"ScreenSync/logger"
	"ScreenSync/model"
)

// State 引擎状态机
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateReconciling
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateReconciling:
		return "reconciling"
	default:
		return "uninitialized"
	}
}

// TriggerKind 触发 reconciliation 的来源
type TriggerKind int

const (
	TriggerRemote    TriggerKind = iota // 远端变更通知（bundle 已随通知送达）
	TriggerAuthoring                    // 本地创作写入
	TriggerTick                         // 周期重裁决 tick
	TriggerSignal                       // 设备内跨实例信号
)

// RemoteSource 远端 bundle 存储接口
type RemoteSource interface {
	Write(ctx context.Context, b *model.Bundle) error
	ReadOnce(ctx context.Context) (*model.Bundle, bool, error)
	Subscribe(ctx context.Context, callback func(*model.Bundle)) (func(), error)
}

// LocalStore 本地持久缓存接口
type LocalStore interface {
	LoadBundle() (*model.Bundle, bool, error)
	SaveBundle(b *model.Bundle) error
}

// Sink 渲染器侧的指令接收方
type Sink interface {
	Present(inst model.RenderInstruction)
}

// BlobResolver 本机 blob 子存储的URL解析接口
type BlobResolver interface {
	GetBlobURL(ctx context.Context, key string) (string, error)
}

// IsBlobNotFound 判断错误是否为"blob 不在本设备"
type IsBlobNotFound func(err error) bool

// Engine 同步引擎。所有权威状态只在 reconcile 中变更。
type Engine struct {
	remote RemoteSource
	cache  LocalStore
	sink   Sink

	blobs          BlobResolver   // 可为 nil：blob 指令原样下发
	isBlobNotFound IsBlobNotFound // blobs 非 nil 时必须提供

	templates resolver.EmbedTemplates
	tick      time.Duration

	mu            sync.Mutex
	state         State
	bundle        *model.Bundle
	pending       map[TriggerKind]bool // 合并排队中的触发
	inboxRemote   *model.Bundle        // 最近一次远端推送，等待 reconcile 消化
	lastEmittedID string               // 上一次交给渲染器的内容项 id

	wake        chan struct{} // 容量1：唤醒 reconcile 循环，多余的触发被合并
	unsubscribe func()
	cancel      context.CancelFunc
	done        chan struct{}

	// now 可在测试中替换以固定时钟
	now func() time.Time
}

// NewEngine 创建同步引擎
func NewEngine(remote RemoteSource, cache LocalStore, sink Sink, templates resolver.EmbedTemplates, tick time.Duration) *Engine {
	if tick <= 0 {
		tick = 30 * time.Second
	}
	return &Engine{
		remote:    remote,
		cache:     cache,
		sink:      sink,
		templates: templates,
		tick:      tick,
		state:     StateUninitialized,
		pending:   make(map[TriggerKind]bool),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// SetBlobResolver 配置 blob URL 解析（localUpload 播放路径）
func (e *Engine) SetBlobResolver(blobs BlobResolver, isNotFound IsBlobNotFound) {
	e.blobs = blobs
	e.isBlobNotFound = isNotFound
}

// Start 启动引擎：并行读取本地缓存与远端存储，任一返回即进入 Ready，
// 然后订阅远端变更并开始 tick 循环。两处都没有数据时使用空默认 bundle。
func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.mu.Lock()
	e.state = StateLoading
	e.mu.Unlock()

	var (
		wg        sync.WaitGroup
		cached    *model.Bundle
		cachedOK  bool
		remoteB   *model.Bundle
		remoteOK  bool
		remoteErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		cached, cachedOK, err = e.cache.LoadBundle()
		if err != nil {
			logger.Warn("failed to load cached bundle", logger.ErrorField(err))
		}
	}()
	go func() {
		defer wg.Done()
		remoteB, remoteOK, remoteErr = e.remote.ReadOnce(ctx)
		if remoteErr != nil {
			// 远端不可达不是错误路径：继续用缓存数据
			logger.Warn("remote store unreachable at startup", logger.ErrorField(remoteErr))
		}
	}()
	wg.Wait()

	// 两个来源都返回时，远端时间戳不落后才优先采用远端
	initial := model.EmptyBundle()
	switch {
	case remoteOK && (!cachedOK || remoteB.LastUpdate >= cached.LastUpdate):
		initial = remoteB
	case cachedOK:
		initial = cached
	}

	e.mu.Lock()
	e.bundle = initial
	e.state = StateReady
	e.mu.Unlock()

	if remoteOK {
		if err := e.cache.SaveBundle(initial); err != nil {
			logger.Warn("failed to persist initial bundle", logger.ErrorField(err))
		}
	}

	// 订阅远端变更：推送的 bundle 进 inbox，由 reconcile 统一消化
	unsub, err := e.remote.Subscribe(ctx, func(b *model.Bundle) {
		e.depositRemote(b)
		e.Trigger(TriggerRemote)
	})
	if err != nil {
		logger.Warn("failed to subscribe to remote changes, relying on periodic tick",
			logger.ErrorField(err))
	} else {
		e.unsubscribe = unsub
	}

	go e.run(ctx)

	// 启动后先跑一轮，把初始指令交给渲染器
	e.Trigger(TriggerTick)

	logger.Info("sync engine started",
		logger.Int64("lastUpdate", initial.LastUpdate),
		logger.Int("playlist", len(initial.Playlist)),
		logger.Int("schedules", len(initial.Schedules)))
	return nil
}

// Stop 停止引擎
func (e *Engine) Stop() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	if e.cancel != nil {
		e.cancel()
	}
	<-e.done
}

// Trigger 请求一次 reconciliation。
// 触发只入队不执行；reconcile 进行中到达的触发会排队并被合并，
// 下一轮 reconcile 观察所有来源的最新数据。
func (e *Engine) Trigger(kind TriggerKind) {
	e.mu.Lock()
	e.pending[kind] = true
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default: // 已有唤醒在途，本次触发被合并
	}
}

// depositRemote 存放最近一次远端推送（只保留最新的）
func (e *Engine) depositRemote(b *model.Bundle) {
	e.mu.Lock()
	if e.inboxRemote == nil || b.LastUpdate > e.inboxRemote.LastUpdate {
		e.inboxRemote = b
	}
	e.mu.Unlock()
}

// run reconcile 主循环：单 goroutine，触发串行执行
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Trigger(TriggerTick)
		case <-e.wake:
			e.reconcile(ctx)
		}
	}
}

// reconcile 原子的合并-重算-通知步骤。
// 运行期间不可被自身抢占：这是唯一允许改写权威 bundle 的地方。
func (e *Engine) reconcile(ctx context.Context) {
	e.mu.Lock()
	e.state = StateReconciling
	kinds := e.pending
	e.pending = make(map[TriggerKind]bool)
	incoming := e.inboxRemote
	e.inboxRemote = nil
	e.mu.Unlock()

	// tick 和设备信号顺带做一次远端重读：
	// 既是错过 pub/sub 通知后的追赶，也是瞬时 I/O 失败的隐式重试
	if incoming == nil && (kinds[TriggerTick] || kinds[TriggerSignal]) {
		if b, ok, err := e.remote.ReadOnce(ctx); err == nil && ok {
			incoming = b
		} else if err != nil {
			logger.Debug("remote re-read failed, staying on cached data", logger.ErrorField(err))
		}
	}

	// 采纳决策必须在锁内对照此刻的权威时间戳：
	// 远端重读在途期间可能有创作写入落地，更旧的远端 bundle 不能覆盖它
	e.mu.Lock()
	held := e.bundle.LastUpdate
	adoptedIncoming := incoming != nil && incoming.NewerThan(held)
	if adoptedIncoming {
		e.bundle = incoming
	}
	adopted := e.bundle
	e.mu.Unlock()

	if adoptedIncoming {
		logger.Info("adopted newer bundle",
			logger.Int64("from", held),
			logger.Int64("to", incoming.LastUpdate))
		if err := e.cache.SaveBundle(adopted); err != nil {
			logger.Warn("failed to persist reconciled bundle", logger.ErrorField(err))
		}
	} else if incoming != nil {
		// last-writer-wins：旧的或同龄的写入一律丢弃
		logger.Debug("discarded stale bundle",
			logger.Int64("incoming", incoming.LastUpdate),
			logger.Int64("held", held))
	}

	e.emit(ctx, adopted)

	e.mu.Lock()
	e.state = StateReady
	e.mu.Unlock()
}

// emit 重新裁决当前内容，仅在内容项 id 变化时向渲染器下发指令
func (e *Engine) emit(ctx context.Context, b *model.Bundle) {
	item, ok := resolver.ResolveActive(e.now(), b.Config, b.Schedules, b.Playlist)

	e.mu.Lock()
	last := e.lastEmittedID
	e.mu.Unlock()

	if !ok {
		// 无内容可播（空列表或悬空排期引用）：不下发指令，
		// 但清掉已下发记录，内容恢复时可以重新下发同一项
		if last != "" {
			logger.Info("no active content resolved", logger.String("previous", last))
			e.mu.Lock()
			e.lastEmittedID = ""
			e.mu.Unlock()
		}
		return
	}

	if item.ID == last {
		return // 幂等：同一内容项不重复下发
	}

	e.mu.Lock()
	e.lastEmittedID = item.ID
	e.mu.Unlock()

	inst := resolver.ResolveSource(item, b.Config, e.templates)

	if inst.Kind == model.InstructionBlob && e.blobs != nil {
		// blob URL 解析是异步 I/O，解析完成后要确认内容没有切走
		go e.resolveBlob(ctx, inst)
		return
	}

	logger.Info("presenting instruction",
		logger.String("item", inst.ItemID),
		logger.String("kind", string(inst.Kind)))
	e.sink.Present(inst)
}

// resolveBlob 异步解析 blob URL。期间内容切走则丢弃结果。
func (e *Engine) resolveBlob(ctx context.Context, inst model.RenderInstruction) {
	url, err := e.blobs.GetBlobURL(ctx, inst.BlobKey)

	e.mu.Lock()
	stillActive := e.lastEmittedID == inst.ItemID
	e.mu.Unlock()
	if !stillActive {
		logger.Debug("discarding stale blob resolution", logger.String("item", inst.ItemID))
		return
	}

	if err != nil {
		if e.isBlobNotFound != nil && e.isBlobNotFound(err) {
			// 终态：字节不在本设备，向观看者展示不可用状态，不重试
			inst.Unavailable = true
			logger.Warn("blob not found on this device",
				logger.String("item", inst.ItemID),
				logger.String("blobKey", inst.BlobKey))
			e.sink.Present(inst)
			return
		}
		// 瞬时失败：清掉下发记录，下一个 tick 会重新裁决并重试解析
		e.mu.Lock()
		if e.lastEmittedID == inst.ItemID {
			e.lastEmittedID = ""
		}
		e.mu.Unlock()
		logger.Error("blob url resolution failed",
			logger.ErrorField(err),
			logger.String("item", inst.ItemID))
		return
	}

	inst.URL = url
	logger.Info("presenting instruction",
		logger.String("item", inst.ItemID),
		logger.String("kind", string(inst.Kind)))
	e.sink.Present(inst)
}

// ========== 创作写入路径 ==========

// Apply 执行一次创作写入：mutate 在权威 bundle 的副本上修改，
// LastUpdate 严格递增后乐观地立即生效（本地必胜），
// 随后 fire-and-forget 复制到远端——复制失败降级为仅本地运行，
// 内容照常播放，只是其他客户端暂时看不到这次修改。
func (e *Engine) Apply(ctx context.Context, mutate func(*model.Bundle)) *model.Bundle {
	e.mu.Lock()
	next := e.bundle.Clone()
	mutate(next)

	// 时钟回拨也要保证严格递增
	ts := e.now().UnixMilli()
	if ts <= e.bundle.LastUpdate {
		ts = e.bundle.LastUpdate + 1
	}
	next.LastUpdate = ts

	e.bundle = next
	e.mu.Unlock()

	if err := e.cache.SaveBundle(next); err != nil {
		logger.Warn("failed to persist authored bundle", logger.ErrorField(err))
	}

	// 每次创作写入恰好一次出站复制；从远端收到的 bundle 绝不回写（无回声）。
	// 复制不挂在请求的 ctx 上：请求返回后复制仍要继续。
	replica := next.Clone()
	go func() {
		if err := e.remote.Write(context.Background(), replica); err != nil {
			logger.Warn("replication failed, operating local-only",
				logger.ErrorField(err),
				logger.Int64("lastUpdate", replica.LastUpdate))
		}
	}()

	e.Trigger(TriggerAuthoring)
	return next.Clone()
}

// SetCurrentItem 接受外部下发的当前项覆盖（如播完自动前进）
func (e *Engine) SetCurrentItem(ctx context.Context, itemID string) {
	e.Apply(ctx, func(b *model.Bundle) {
		b.Config.CurrentItemID = itemID
	})
}

// Advance 播放列表前进一项。到末尾时按 Loop 配置回绕或停在原地。
func (e *Engine) Advance(ctx context.Context) {
	e.Apply(ctx, func(b *model.Bundle) {
		if len(b.Playlist) == 0 {
			return
		}
		idx := -1
		for i := range b.Playlist {
			if b.Playlist[i].ID == b.Config.CurrentItemID {
				idx = i
				break
			}
		}
		next := idx + 1
		if next >= len(b.Playlist) {
			if !b.Config.Loop {
				return
			}
			next = 0
		}
		b.Config.CurrentItemID = b.Playlist[next].ID
	})
}

// ========== 状态查询 ==========

// State 返回当前状态机状态
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot 返回权威 bundle 的副本
func (e *Engine) Snapshot() *model.Bundle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bundle.Clone()
}

// ActiveItemID 返回最近一次下发给渲染器的内容项 id
func (e *Engine) ActiveItemID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastEmittedID
}
