package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blog_cms/internal/domain/user/model"
	"blog_cms/internal/domain/user/repository"
	"blog_cms/internal/pkg/mailer"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/logger"
	"blog_cms/pkg/security"
	"blog_cms/pkg/utils"

	"go.uber.org/zap"
)

// MailQueue 异步发送邮件，worker.MailPool 实现
type MailQueue interface {
	AddTask(msg mailer.Message) bool
}

// Session 登录成功后签发的会话
type Session struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// RegisterInput 注册
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthService 注册、激活、登录、找回密码与 Google 登录
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) error
	Activate(ctx context.Context, token string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) (*Session, error)
	GoogleLogin(ctx context.Context, idToken string) (*Session, error)
	Me(ctx context.Context, p *security.Principal) (*model.User, error)
}

type authService struct {
	repo      repository.UserRepository
	mail      MailQueue
	google    TokenVerifier
	clientURL string
}

// NewAuthService 创建认证服务
func NewAuthService(repo repository.UserRepository, mail MailQueue, google TokenVerifier, clientURL string) AuthService {
	return &authService{repo: repo, mail: mail, google: google, clientURL: clientURL}
}

// issue 为用户签发会话令牌
func issue(user *model.User) (*Session, error) {
	token, expireAt, err := utils.GenerateToken(utils.TokenUser{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Slug:     user.Slug,
		Role:     string(user.Role),
	})
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: *expireAt}, nil
}

func (s *authService) enqueue(msg mailer.Message) error {
	if !s.mail.AddTask(msg) {
		return fmt.Errorf("mail queue is full, please retry later")
	}
	return nil
}

// Register 校验输入后发送激活邮件，激活前不创建用户
func (s *authService) Register(ctx context.Context, in RegisterInput) error {
	if in.Password != in.ConfirmPassword {
		return errs.Validation("password", "passwords do not match")
	}
	username, email, _, err := prepareIdentity(ctx, s.repo, in.Username, in.Email, "")
	if err != nil {
		return err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return err
	}

	token, err := utils.GenerateActivationToken(username, email, hash)
	if err != nil {
		return err
	}
	if err := s.enqueue(mailer.ActivationMessage(email, s.clientURL, token)); err != nil {
		return err
	}
	logger.Log.Info("Activation mail queued", zap.String("email", email))
	return nil
}

// Activate 校验激活令牌并创建用户
func (s *authService) Activate(ctx context.Context, token string) (*Session, error) {
	claims, err := utils.ParseActivationToken(token)
	if err != nil {
		return nil, errs.Unauthorized("expired or invalid activation link, please sign up again")
	}

	username, email, slug, err := prepareIdentity(ctx, s.repo, claims.Username, claims.Email, "")
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: username,
		Email:    email,
		Password: claims.PasswordHash,
		Slug:     slug,
		Role:     security.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return issue(user)
}

// Login 邮箱密码登录，用户不存在与密码错误返回相同的错误
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = security.EmailRule.Sanitize(email)
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, errs.Unauthorized("email or password is incorrect")
		}
		return nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, errs.Unauthorized("email or password is incorrect")
	}
	return issue(user)
}

// ForgotPassword 保存重置令牌并发送邮件
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, security.EmailRule.Sanitize(email))
	if err != nil {
		return err
	}

	token, err := utils.GenerateResetToken(user.ID, user.Username)
	if err != nil {
		return err
	}
	if err := s.repo.SetResetLink(ctx, user.ID, token); err != nil {
		return err
	}
	return s.enqueue(mailer.ResetPasswordMessage(user.Email, s.clientURL, token))
}

// ResetPassword 令牌必须有效且与用户当前保存的一致，使用后失效
func (s *authService) ResetPassword(ctx context.Context, token, password, confirm string) (*Session, error) {
	if password != confirm {
		return nil, errs.Validation("password", "passwords do not match")
	}
	claims, err := utils.ParseResetToken(token)
	if err != nil {
		return nil, errs.Unauthorized("expired or invalid reset link")
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.ResetPasswordLink == "" || user.ResetPasswordLink != token {
		return nil, errs.Unauthorized("expired or invalid reset link")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	user.Password = hash
	user.ResetPasswordLink = ""
	return issue(user)
}

// GoogleLogin 已存在的邮箱直接登录，否则以随机密码创建用户
func (s *authService) GoogleLogin(ctx context.Context, idToken string) (*Session, error) {
	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, errs.Unauthorized("google login failed, try again")
	}
	if !identity.EmailVerified {
		return nil, errs.Unauthorized("google account email is not verified")
	}

	email := security.EmailRule.Sanitize(identity.Email)
	user, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return issue(user)
	}
	if !errs.Is(err, errs.KindNotFound) {
		return nil, err
	}

	random, err := utils.RandomPassword()
	if err != nil {
		return nil, err
	}
	name := identity.Name
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if runes := []rune(name); len(runes) > 24 {
		name = string(runes[:24])
	}
	username, _, slug, err := prepareIdentity(ctx, s.repo, name, email, "")
	if errs.Is(err, errs.KindConflict) {
		// 同名用户已存在，追加随机后缀
		username, _, slug, err = prepareIdentity(ctx, s.repo, name+"-"+random[:6], email, "")
	}
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(random)
	if err != nil {
		return nil, err
	}

	user = &model.User{Username: username, Email: email, Password: hash, Slug: slug, Role: security.RoleUser}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.Info("User created from google login", zap.String("email", email))
	return issue(user)
}

// Me 当前登录用户
func (s *authService) Me(ctx context.Context, p *security.Principal) (*model.User, error) {
	if p == nil {
		return nil, errs.Unauthorized("authentication required")
	}
	user, err := s.repo.GetByID(ctx, p.UserID)
	if errs.Is(err, errs.KindNotFound) {
		return nil, errs.Unauthorized("session user no longer exists")
	}
	return user, err
}
