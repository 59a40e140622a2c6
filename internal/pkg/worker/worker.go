package worker

import (
	"context"
	"sync"
	"time"

	"blog_cms/internal/pkg/mailer"
	"blog_cms/pkg/logger"
	"blog_cms/pkg/metrics"

	"go.uber.org/zap"
)

type MailTask struct {
	Message mailer.Message
	Retry   int // 重试次数
}

// MailPool 异步发送邮件，失败任务进入重试队列
type MailPool struct {
	TaskQueue  chan MailTask
	RetryQueue chan MailTask // 重试队列
	Mailer     mailer.Mailer
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	RetryDelay time.Duration // 第 n 次重试前等待 n*RetryDelay
	Metrics    *metrics.MetricsCollector

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewMailPool(m mailer.Mailer, workerNum int, bufferSize int) *MailPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize < 2 {
		bufferSize = 2
	}
	return &MailPool{
		TaskQueue:  make(chan MailTask, bufferSize),
		RetryQueue: make(chan MailTask, bufferSize/2),
		Mailer:     m,
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
		RetryDelay: time.Second,
		done:       make(chan struct{}),
	}
}

func (p *MailPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	logger.Log.Info("mail worker pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 停止协程，并对仍在队列中的任务做最后一次发送
func (p *MailPool) Stop(ctx context.Context) {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case task := <-p.TaskQueue:
				p.deliver(ctx, -1, task)
			case task := <-p.RetryQueue:
				p.deliver(ctx, -1, task)
			default:
				return
			}
		}
	})
}

func (p *MailPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case task := <-p.TaskQueue:
			if err := p.deliver(context.Background(), id, task); err != nil {
				p.retry(id, task, err)
			}
		}
	}
}

func (p *MailPool) deliver(ctx context.Context, id int, task MailTask) error {
	err := p.Mailer.Send(ctx, task.Message)
	if err != nil {
		logger.Log.Warn("failed to send mail",
			zap.Int("worker", id),
			zap.String("to", task.Message.To),
			zap.String("subject", task.Message.Subject),
			zap.Error(err),
		)
		return err
	}
	p.record("sent")
	return nil
}

func (p *MailPool) retry(id int, task MailTask, err error) {
	// 如果未达到最大重试次数，加入重试队列
	if task.Retry < p.MaxRetry {
		task.Retry++
		select {
		case p.RetryQueue <- task:
			p.record("retry")
			logger.Log.Info("mail task added to retry queue",
				zap.Int("worker", id), zap.Int("attempt", task.Retry), zap.Int("max", p.MaxRetry))
		default:
			p.logFailedTask(task, err)
		}
		return
	}
	p.logFailedTask(task, err)
}

func (p *MailPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-p.done:
				p.requeue(task)
				return
			case <-time.After(time.Duration(task.Retry) * p.RetryDelay):
			}
			p.requeue(task)
		}
	}
}

func (p *MailPool) requeue(task MailTask) {
	select {
	case p.TaskQueue <- task:
	default:
		p.logFailedTask(task, nil)
	}
}

func (p *MailPool) logFailedTask(task MailTask, err error) {
	p.record("dropped")
	logger.Log.Error("mail task failed permanently",
		zap.String("to", task.Message.To),
		zap.String("subject", task.Message.Subject),
		zap.Int("retry", task.Retry),
		zap.Error(err),
	)
}

func (p *MailPool) record(result string) {
	if p.Metrics != nil {
		p.Metrics.RecordMail(result)
	}
}

// AddTask 投递邮件，队列满时直接丢弃并记录
func (p *MailPool) AddTask(msg mailer.Message) bool {
	select {
	case p.TaskQueue <- MailTask{Message: msg}:
		return true
	default:
		p.logFailedTask(MailTask{Message: msg}, nil)
		return false
	}
}
