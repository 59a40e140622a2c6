package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blog_cms/internal/pkg/mailer"

	"github.com/stretchr/testify/assert"
)

type flakyMailer struct {
	mu       sync.Mutex
	failures int
	attempts int
	sent     []string
}

func (m *flakyMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg.To)
	return nil
}

func (m *flakyMailer) snapshot() (int, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts, append([]string(nil), m.sent...)
}

func TestMailPoolDelivers(t *testing.T) {
	m := &flakyMailer{}
	p := NewMailPool(m, 2, 10)
	p.Start()
	defer p.Stop(context.Background())

	assert.True(t, p.AddTask(mailer.Message{To: "a@x.com"}))
	assert.True(t, p.AddTask(mailer.Message{To: "b@x.com"}))

	assert.Eventually(t, func() bool {
		_, sent := m.snapshot()
		return len(sent) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestMailPoolRetries(t *testing.T) {
	m := &flakyMailer{failures: 2}
	p := NewMailPool(m, 1, 10)
	p.RetryDelay = time.Millisecond
	p.Start()
	defer p.Stop(context.Background())

	p.AddTask(mailer.Message{To: "a@x.com"})

	assert.Eventually(t, func() bool {
		attempts, sent := m.snapshot()
		return attempts == 3 && len(sent) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMailPoolGivesUpAfterMaxRetry(t *testing.T) {
	m := &flakyMailer{failures: 100}
	p := NewMailPool(m, 1, 10)
	p.RetryDelay = time.Millisecond
	p.MaxRetry = 2
	p.Start()

	p.AddTask(mailer.Message{To: "a@x.com"})

	assert.Eventually(t, func() bool {
		attempts, _ := m.snapshot()
		return attempts == 3
	}, 2*time.Second, 10*time.Millisecond)

	p.Stop(context.Background())
	attempts, sent := m.snapshot()
	assert.Equal(t, 3, attempts)
	assert.Empty(t, sent)
}

func TestMailPoolQueueFull(t *testing.T) {
	p := NewMailPool(&flakyMailer{}, 1, 2)
	// 未启动的池，队列满后丢弃
	assert.True(t, p.AddTask(mailer.Message{To: "1"}))
	assert.True(t, p.AddTask(mailer.Message{To: "2"}))
	assert.False(t, p.AddTask(mailer.Message{To: "3"}))
}

func TestStopFlushesQueue(t *testing.T) {
	m := &flakyMailer{}
	p := NewMailPool(m, 1, 4)
	p.AddTask(mailer.Message{To: "queued@x.com"})
	p.Stop(context.Background())

	_, sent := m.snapshot()
	assert.Equal(t, []string{"queued@x.com"}, sent)
}
