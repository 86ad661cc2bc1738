package aggregate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"crafting-planner/internal/core/planner"
	"crafting-planner/internal/core/session"
	"crafting-planner/internal/infrastructure/config"
	"crafting-planner/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 計算隊列已滿
	ErrQueueFull = errors.New("aggregate queue is full")
	// ErrQueueClosed 計算隊列已關閉
	ErrQueueClosed = errors.New("aggregate queue is closed")
)

// Job 一次原料重新計算
type Job struct {
	Session *session.Session
	seq     uint64
	Result  chan Result
}

// Result 計算結果
type Result struct {
	Components planner.ComponentListState
	// Stale 為 true 表示已有更新的計算，本次結果未寫回
	Stale bool
	Error error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int    `json:"queue_length"`
	ProcessedCount int    `json:"processed_count"`
	FailedCount    int    `json:"failed_count"`
	MaxQueueSize   int    `json:"max_queue_size"`
	Workers        int    `json:"workers"`
	Aggregator     string `json:"aggregator"`
}

// Queue 原料計算隊列
// 同一工作階段只有最新一次的計算結果會寫回
type Queue struct {
	config     *config.Config
	aggregator Aggregator
	queue      chan *Job
	done       chan struct{}
	wg         sync.WaitGroup
	processed  int64
	failed     int64

	mu     sync.Mutex
	latest map[string]uint64
	seq    uint64
	closed bool
}

// NewQueue 創建計算隊列並啟動 workers
func NewQueue(cfg *config.Config, aggregator Aggregator) *Queue {
	q := &Queue{
		config:     cfg,
		aggregator: aggregator,
		queue:      make(chan *Job, cfg.Queue.MaxSize),
		done:       make(chan struct{}),
		latest:     make(map[string]uint64),
	}

	for range cfg.Queue.Workers {
		q.wg.Add(1)
		go q.worker()
	}

	common.LogInfo("計算隊列已啟動",
		zap.Int("workers", cfg.Queue.Workers),
		zap.Int("max_queue_size", cfg.Queue.MaxSize),
		zap.String("aggregator", aggregator.Name()),
	)
	return q
}

// Enqueue 將工作階段加入計算隊列，並立即標記為計算中
func (q *Queue) Enqueue(s *session.Session) (<-chan Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, common.ErrServiceUnavailable.WithErr(ErrQueueClosed)
	}

	q.seq++
	job := &Job{
		Session: s,
		seq:     q.seq,
		Result:  make(chan Result, 1),
	}

	select {
	case q.queue <- job:
	default:
		return nil, common.ErrServiceUnavailable.WithErr(ErrQueueFull)
	}

	q.latest[s.ID()] = job.seq
	s.SetCalculating(true)

	common.LogDebug("Recalculation enqueued",
		zap.String("session_id", s.ID()),
		zap.Int("queue_length", len(q.queue)),
	)
	return job.Result, nil
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case job := <-q.queue:
			job.Result <- q.process(job)
		case <-q.done:
			return
		}
	}
}

// process 計算並寫回結果
func (q *Queue) process(job *Job) Result {
	s := job.Session
	list := s.RecipeList()

	ctx, cancel := context.WithTimeout(context.Background(), q.config.Aggregator.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := q.aggregator.Aggregate(ctx, list)
	duration := time.Since(start)

	q.mu.Lock()
	defer q.mu.Unlock()

	current := q.latest[s.ID()] == job.seq
	if current {
		delete(q.latest, s.ID())
	}

	if err != nil {
		atomic.AddInt64(&q.failed, 1)
		common.LogAggregate(s.ID(), 0, duration, err)
		state := s.ComponentList()
		if current {
			state = s.SetCalculating(false)
		}
		return Result{Components: state, Stale: !current, Error: common.ErrAggregateFailed.WithErr(err)}
	}

	atomic.AddInt64(&q.processed, 1)
	components := planner.DecodeComponents(raw)
	common.LogAggregate(s.ID(), len(components), duration, nil)

	if !current {
		return Result{Components: s.ComponentList(), Stale: true}
	}

	s.DispatchComponent(planner.SetComponents{Components: components})
	return Result{Components: s.SetCalculating(false)}
}

// Status 獲取隊列狀態
func (q *Queue) Status() Status {
	return Status{
		QueueLength:    len(q.queue),
		ProcessedCount: int(atomic.LoadInt64(&q.processed)),
		FailedCount:    int(atomic.LoadInt64(&q.failed)),
		MaxQueueSize:   q.config.Queue.MaxSize,
		Workers:        q.config.Queue.Workers,
		Aggregator:     q.aggregator.Name(),
	}
}

// Close 停止接受新工作並等待 workers 結束
// 尚未處理的工作以 ErrQueueClosed 回應，並清除計算中旗標
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.wg.Wait()
	dropped := q.drain()

	common.LogInfo("計算隊列已關閉",
		zap.Int64("processed", atomic.LoadInt64(&q.processed)),
		zap.Int64("failed", atomic.LoadInt64(&q.failed)),
		zap.Int("dropped", dropped),
	)
}

// drain 回應所有未處理的工作
func (q *Queue) drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := 0
	for {
		select {
		case job := <-q.queue:
			s := job.Session
			current := q.latest[s.ID()] == job.seq
			state := s.ComponentList()
			if current {
				delete(q.latest, s.ID())
				state = s.SetCalculating(false)
			}
			job.Result <- Result{
				Components: state,
				Stale:      !current,
				Error:      common.ErrServiceUnavailable.WithErr(ErrQueueClosed),
			}
			dropped++
		default:
			return dropped
		}
	}
}
