// Package ratelimit 提供解析请求使用的滑动窗口限流器
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Clock 时间来源，测试中可替换
type Clock func() time.Time

// Status 一次检查的结果
type Status struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration // 向上取整到分钟
}

// ResetMinutes 返回重置时间的分钟数
func (s Status) ResetMinutes() int {
	return int(s.ResetIn / time.Minute)
}

// SlidingWindow 在时间窗口内最多接受 max 次请求
// max <= 0 表示不限流
type SlidingWindow struct {
	mu       sync.Mutex
	requests []time.Time
	max      int
	window   time.Duration
	now      Clock
}

// NewSlidingWindow 创建限流器，clock 为 nil 时使用 time.Now
func NewSlidingWindow(max int, window time.Duration, clock Clock) *SlidingWindow {
	if clock == nil {
		clock = time.Now
	}
	return &SlidingWindow{
		requests: make([]time.Time, 0, max),
		max:      max,
		window:   window,
		now:      clock,
	}
}

// Max 窗口内允许的最大请求数
func (l *SlidingWindow) Max() int { return l.max }

// Window 窗口长度
func (l *SlidingWindow) Window() time.Duration { return l.window }

// Check 检查并登记一次请求，清理和追加在同一把锁内完成
func (l *SlidingWindow) Check() Status {
	if l.max <= 0 {
		return Status{Allowed: true, Remaining: math.MaxInt32}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	count := len(l.requests)
	if count < l.max {
		l.requests = append(l.requests, now)
		return Status{
			Allowed:   true,
			Remaining: l.max - count - 1,
			ResetIn:   l.resetIn(now),
		}
	}

	return Status{
		Allowed:   false,
		Remaining: 0,
		ResetIn:   l.resetIn(now),
	}
}

// Peek 返回当前状态但不消耗额度
func (l *SlidingWindow) Peek() Status {
	if l.max <= 0 {
		return Status{Allowed: true, Remaining: math.MaxInt32}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	count := len(l.requests)
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Allowed:   count < l.max,
		Remaining: remaining,
		ResetIn:   l.resetIn(now),
	}
}

// prune 丢弃已经滑出窗口的时间戳，调用方持有锁
func (l *SlidingWindow) prune(now time.Time) {
	keep := l.requests[:0]
	for _, ts := range l.requests {
		if now.Sub(ts) < l.window {
			keep = append(keep, ts)
		}
	}
	l.requests = keep
}

// resetIn 最早的时间戳离开窗口还需多久，按分钟向上取整
func (l *SlidingWindow) resetIn(now time.Time) time.Duration {
	if len(l.requests) == 0 {
		return 0
	}
	// 时间戳按追加顺序递增，第一个就是最早的
	left := l.requests[0].Add(l.window).Sub(now)
	if left <= 0 {
		return 0
	}
	minutes := math.Ceil(float64(left) / float64(time.Minute))
	return time.Duration(minutes) * time.Minute
}
