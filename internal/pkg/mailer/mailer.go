package mailer

import (
	"context"
	"fmt"
	"sync"

	"blog_cms/internal/pkg/config"
	"blog_cms/pkg/logger"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/dm"
	"go.uber.org/zap"
)

// Message 一封待发送的邮件
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// AliyunMailer 阿里云邮件推送 (DirectMail)
type AliyunMailer struct {
	client      *dm.Client
	accountName string
	fromAlias   string
}

func NewAliyunMailer(cfg config.MailConfig) (*AliyunMailer, error) {
	if cfg.AccessKeyID == "" || cfg.AccountName == "" {
		return nil, fmt.Errorf("mail config is missing")
	}

	client, err := dm.NewClientWithAccessKey(
		cfg.RegionID,
		cfg.AccessKeyID,
		cfg.AccessKeySecret,
	)
	if err != nil {
		return nil, err
	}

	return &AliyunMailer{
		client:      client,
		accountName: cfg.AccountName,
		fromAlias:   cfg.FromAlias,
	}, nil
}

func (m *AliyunMailer) Send(ctx context.Context, msg Message) error {
	request := dm.CreateSingleSendMailRequest()
	request.AccountName = m.accountName
	request.FromAlias = m.fromAlias
	request.AddressType = requests.NewInteger(1) // 1: 发信地址
	request.ReplyToAddress = requests.NewBoolean(false)
	request.ToAddress = msg.To
	request.Subject = msg.Subject
	request.HtmlBody = msg.HTML

	_, err := m.client.SingleSendMail(request)
	return err
}

// LogMailer 未启用邮件时只记录日志
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logger.Log.Info("mail not sent (mail disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// MemoryMailer 记录发出的邮件，用于测试
type MemoryMailer struct {
	mu   sync.Mutex
	Sent []Message
}

func (m *MemoryMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// Messages 返回已发送邮件的副本
func (m *MemoryMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Sent...)
}

// New 根据配置创建 Mailer
func New(cfg config.MailConfig) (Mailer, error) {
	if !cfg.Enabled {
		return LogMailer{}, nil
	}
	return NewAliyunMailer(cfg)
}
