package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// 压测点赞切换：N 个不同来源地址同时点赞同一篇文章，结束后 numberOfLikes 必须等于成功次数。
// 服务端需把 127.0.0.1 配置为可信代理，X-Forwarded-For 才会作为请求者地址。
var httpClient *http.Client

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

type envelope struct {
	Code int `json:"code"`
	Data struct {
		Slug          string   `json:"slug"`
		Likers        []string `json:"likers"`
		Unlikers      []string `json:"unlikers"`
		NumberOfLikes int      `json:"numberOfLikes"`
	} `json:"data"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080/api/v1", "API base URL")
		slug    = flag.String("slug", "", "article slug to like")
		total   = flag.Int("n", 1000, "number of distinct requesters")
		flip    = flag.Bool("flip", false, "each requester unlikes then likes, exercising the mutual exclusion path")
	)
	flag.Parse()
	if *slug == "" {
		fmt.Println("用法: stress_tool -slug=<article-slug> [-n=1000] [-url=...] [-flip]")
		os.Exit(2)
	}

	before, err := fetch(*baseURL, *slug)
	if err != nil {
		fmt.Printf("读取文章失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("开始压测：%d 个请求者并发点赞 %s (当前点赞数 %d)...\n", *total, *slug, before.Data.NumberOfLikes)

	var wg sync.WaitGroup
	var success, failed int64
	start := time.Now()

	for i := 0; i < *total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// 10.x.y.z 形式的伪造来源地址，保证每个请求者唯一
			ip := fmt.Sprintf("10.%d.%d.%d", (n>>16)&0xff, (n>>8)&0xff, n&0xff)
			if *flip && !react(*baseURL, *slug, "unlike", ip) {
				atomic.AddInt64(&failed, 1)
				return
			}
			if react(*baseURL, *slug, "like", ip) {
				atomic.AddInt64(&success, 1)
			} else {
				atomic.AddInt64(&failed, 1)
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)

	after, err := fetch(*baseURL, *slug)
	if err != nil {
		fmt.Printf("读取文章失败: %v\n", err)
		os.Exit(1)
	}

	expected := before.Data.NumberOfLikes + int(success)
	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("QPS: %.2f\n", float64(*total)/duration.Seconds())
	fmt.Printf("成功: %d 失败: %d\n", success, failed)
	fmt.Printf("点赞数: %d (预期: %d), likers: %d\n", after.Data.NumberOfLikes, expected, len(after.Data.Likers))
	fmt.Println("--------------------------------------------------")

	if after.Data.NumberOfLikes != expected || len(after.Data.Likers) != after.Data.NumberOfLikes {
		fmt.Println("检测到丢失的点赞")
		os.Exit(1)
	}
}

func fetch(baseURL, slug string) (*envelope, error) {
	resp, err := httpClient.Get(fmt.Sprintf("%s/article/%s", baseURL, slug))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result envelope
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func react(baseURL, slug, kind, ip string) bool {
	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/article/%s/%s", baseURL, slug, kind), nil)
	if err != nil {
		return false
	}
	req.Header.Set("X-Forwarded-For", ip)

	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
