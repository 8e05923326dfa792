package scheduler

import (
	"context"
	"time"

	"sable/internal/logger"
)

// IntervalScheduler 顺序周期调度：task 完整执行结束后等待固定间隔，再进入下一轮。
// 周期之间响应 ctx 取消；周期内部不打断（没有周期中途的取消语义）。
type IntervalScheduler struct {
	Interval       time.Duration
	RunImmediately bool
	RunOnce        bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewIntervalScheduler(ctx context.Context, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{
		Interval: interval,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

func (s *IntervalScheduler) Start(task func()) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("IntervalScheduler: task is nil, exit")
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("IntervalScheduler: started interval=%s run_immediately=%v run_once=%v at=%s",
		s.Interval, s.RunImmediately, s.RunOnce, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		task()
		if s.RunOnce {
			logger.Infof("IntervalScheduler: run_once=true, exit")
			return
		}
	}

	for {
		timer := time.NewTimer(s.Interval)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("IntervalScheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task()
		if s.RunOnce {
			logger.Infof("IntervalScheduler: run_once=true, exit")
			return
		}
		uptime := s.nowFn().UTC().Sub(startAt)
		logger.Infof("IntervalScheduler: 本轮结束，%s 后进入下一轮 | uptime=%s",
			s.Interval, uptime.Truncate(time.Second))
	}
}
