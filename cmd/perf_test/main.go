package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"blog_cms/pkg/loadtest"
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080/api/v1", "API base URL")
		testType    = flag.String("type", "api", "Test type: api, stress")
		concurrency = flag.Int("concurrency", 50, "concurrent workers")
		duration    = flag.Duration("duration", 30*time.Second, "duration of each test")
		slug        = flag.String("slug", "", "article slug used by the single-article test")
		email       = flag.String("email", "", "login e-mail for the login test")
		password    = flag.String("password", "", "login password for the login test")
		output      = flag.String("output", "", "export results as JSON to this file")
	)
	flag.Parse()

	fmt.Println("🚀 Blog CMS 性能测试工具")
	fmt.Println("================================")

	ctx := context.Background()
	api := loadtest.NewAPITest(*baseURL)

	// 检查服务器是否可用
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := api.HealthCheckTest()(checkCtx)
	cancel()
	if err != nil {
		log.Fatalf("❌ 服务器不可用: %s (%v)", *baseURL, err)
	}
	fmt.Printf("✅ 服务器可用: %s\n\n", *baseURL)

	var results []*loadtest.TestResult
	switch *testType {
	case "api":
		results = runAPITests(ctx, api, *concurrency, *duration, *slug, *email, *password)
	case "stress":
		st := loadtest.NewStressTest(*concurrency, max(*concurrency/10, 1), *duration)
		st.AddRequest(api.ArticleListTest())
		st.AddRequest(api.TopArticlesTest())
		results = st.Run(ctx)
	default:
		fmt.Printf("❌ 未知的测试类型: %s\n", *testType)
		flag.Usage()
		os.Exit(1)
	}

	loadtest.CompareResults(results...)
	if *output != "" {
		if err := loadtest.ExportResults(results, *output); err != nil {
			log.Fatalf("导出失败: %v", err)
		}
		fmt.Printf("📄 结果已导出到: %s\n", *output)
	}
}

func runAPITests(ctx context.Context, api *loadtest.APITest, concurrency int, duration time.Duration, slug, email, password string) []*loadtest.TestResult {
	type scenario struct {
		name     string
		requests []loadtest.RequestFunc
	}
	scenarios := []scenario{
		{"health_check", []loadtest.RequestFunc{api.HealthCheckTest()}},
		{"article_list", []loadtest.RequestFunc{api.ArticleListTest()}},
		{"article_top", []loadtest.RequestFunc{api.TopArticlesTest()}},
		{"category_list", []loadtest.RequestFunc{api.CategoryListTest()}},
	}
	if slug != "" {
		scenarios = append(scenarios, scenario{"article_get", []loadtest.RequestFunc{api.ArticleGetTest(slug)}})
	}
	if email != "" {
		scenarios = append(scenarios, scenario{"login", []loadtest.RequestFunc{api.LoginTest(email, password)}})
	}

	var results []*loadtest.TestResult
	for _, s := range scenarios {
		pt := loadtest.NewPerformanceTest(s.name, concurrency, duration)
		for _, req := range s.requests {
			pt.AddRequest(req)
		}
		result := pt.Run(ctx)
		result.PrintResult()
		results = append(results, result)
	}
	return results
}
