// Package loadtest 针对运行中服务的 HTTP 性能测试
package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// RequestFunc 一次请求，返回 nil 表示成功
type RequestFunc func(ctx context.Context) error

// PerformanceTest 固定并发、固定时长的性能测试
type PerformanceTest struct {
	name        string
	concurrency int
	duration    time.Duration
	requests    []RequestFunc

	mu        sync.Mutex
	success   int64
	failed    int64
	durations []time.Duration
}

// NewPerformanceTest 创建性能测试
func NewPerformanceTest(name string, concurrency int, duration time.Duration) *PerformanceTest {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &PerformanceTest{name: name, concurrency: concurrency, duration: duration}
}

// AddRequest 添加请求函数，worker 轮流执行
func (pt *PerformanceTest) AddRequest(request RequestFunc) {
	pt.requests = append(pt.requests, request)
}

// Run 运行性能测试
func (pt *PerformanceTest) Run(ctx context.Context) *TestResult {
	ctx, cancel := context.WithTimeout(ctx, pt.duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < pt.concurrency; i++ {
		wg.Add(1)
		go pt.worker(ctx, &wg, i)
	}
	wg.Wait()
	return pt.result(time.Since(start))
}

func (pt *PerformanceTest) worker(ctx context.Context, wg *sync.WaitGroup, offset int) {
	defer wg.Done()
	if len(pt.requests) == 0 {
		return
	}

	for i := offset; ctx.Err() == nil; i++ {
		request := pt.requests[i%len(pt.requests)]
		start := time.Now()
		err := request(ctx)
		elapsed := time.Since(start)

		// 测试结束时被取消的请求不计入结果
		if ctx.Err() != nil {
			return
		}
		pt.record(elapsed, err)
	}
}

func (pt *PerformanceTest) record(d time.Duration, err error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.durations = append(pt.durations, d)
	if err != nil {
		pt.failed++
	} else {
		pt.success++
	}
}

func (pt *PerformanceTest) result(elapsed time.Duration) *TestResult {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	total := pt.success + pt.failed
	result := &TestResult{
		TestName:        pt.name,
		Concurrency:     pt.concurrency,
		Duration:        elapsed,
		TotalRequests:   total,
		SuccessRequests: pt.success,
		FailedRequests:  pt.failed,
	}
	if total == 0 {
		return result
	}
	result.QPS = float64(total) / elapsed.Seconds()
	result.ErrorRate = float64(pt.failed) / float64(total)

	sorted := make([]time.Duration, len(pt.durations))
	copy(sorted, pt.durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	result.AverageResponseTime = sum / time.Duration(len(sorted))
	result.MinResponseTime = sorted[0]
	result.MaxResponseTime = sorted[len(sorted)-1]
	result.P50 = percentile(sorted, 0.5)
	result.P95 = percentile(sorted, 0.95)
	result.P99 = percentile(sorted, 0.99)
	return result
}

// percentile 计算百分位数，times 需已排序
func percentile(times []time.Duration, p float64) time.Duration {
	if len(times) == 0 {
		return 0
	}
	index := int(float64(len(times)) * p)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// TestResult 测试结果
type TestResult struct {
	TestName            string        `json:"test_name"`
	Concurrency         int           `json:"concurrency"`
	Duration            time.Duration `json:"duration"`
	TotalRequests       int64         `json:"total_requests"`
	SuccessRequests     int64         `json:"success_requests"`
	FailedRequests      int64         `json:"failed_requests"`
	QPS                 float64       `json:"qps"`
	ErrorRate           float64       `json:"error_rate"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	MinResponseTime     time.Duration `json:"min_response_time"`
	MaxResponseTime     time.Duration `json:"max_response_time"`
	P50                 time.Duration `json:"p50"`
	P95                 time.Duration `json:"p95"`
	P99                 time.Duration `json:"p99"`
}

// PrintResult 打印测试结果
func (tr *TestResult) PrintResult() {
	fmt.Printf("📊 性能测试结果: %s\n", tr.TestName)
	fmt.Printf("================================\n")
	fmt.Printf("并发数: %d  时长: %v\n", tr.Concurrency, tr.Duration.Round(time.Millisecond))
	fmt.Printf("总请求数: %d  成功: %d  失败: %d\n", tr.TotalRequests, tr.SuccessRequests, tr.FailedRequests)
	fmt.Printf("QPS: %.2f  错误率: %.2f%%\n", tr.QPS, tr.ErrorRate*100)
	fmt.Printf("平均: %v  最小: %v  最大: %v\n", tr.AverageResponseTime, tr.MinResponseTime, tr.MaxResponseTime)
	fmt.Printf("P50: %v  P95: %v  P99: %v\n", tr.P50, tr.P95, tr.P99)
	fmt.Printf("================================\n")
}

// StressTest 逐步提高并发，直到出现瓶颈
type StressTest struct {
	maxConcurrency int
	stepSize       int
	stepDuration   time.Duration
	requests       []RequestFunc
}

// NewStressTest 创建压力测试
func NewStressTest(maxConcurrency, stepSize int, stepDuration time.Duration) *StressTest {
	return &StressTest{maxConcurrency: maxConcurrency, stepSize: stepSize, stepDuration: stepDuration}
}

func (st *StressTest) AddRequest(request RequestFunc) {
	st.requests = append(st.requests, request)
}

// Run 错误率超过 5% 或 P95 超过 500ms 视为瓶颈，停止加压
func (st *StressTest) Run(ctx context.Context) []*TestResult {
	var results []*TestResult
	for concurrency := st.stepSize; concurrency <= st.maxConcurrency; concurrency += st.stepSize {
		pt := NewPerformanceTest(fmt.Sprintf("stress_%d", concurrency), concurrency, st.stepDuration)
		for _, req := range st.requests {
			pt.AddRequest(req)
		}

		result := pt.Run(ctx)
		results = append(results, result)
		if result.ErrorRate > 0.05 || result.P95 > 500*time.Millisecond {
			fmt.Printf("⚠️ 在并发数 %d 时检测到性能瓶颈\n", concurrency)
			break
		}
	}
	return results
}

// CompareResults 比较测试结果
func CompareResults(results ...*TestResult) {
	fmt.Printf("📈 测试结果对比\n")
	fmt.Printf("================================\n")
	for _, result := range results {
		fmt.Printf("%-20s | QPS: %-8.2f | P95: %-8v | 错误率: %-6.2f%%\n",
			result.TestName, result.QPS, result.P95, result.ErrorRate*100)
	}
	fmt.Printf("================================\n")
}

// ExportResults 以 JSON 导出测试结果
func ExportResults(results []*TestResult, filename string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}
