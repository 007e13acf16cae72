package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL 是管理会话的默认有效期。
const DefaultTTL = 12 * time.Hour

var (
	// ErrWrongPassword 表示管理员密码不匹配。
	ErrWrongPassword = errors.New("auth: 密码错误")
	// ErrDisabled 表示未配置管理员密码，后台登录被关闭。
	ErrDisabled = errors.New("auth: 未配置管理员密码")
)

// Sessions 校验管理员密码并签发会话令牌。令牌只保存在内存中，进程重启后失效。
type Sessions struct {
	digest  [sha256.Size]byte
	enabled bool
	ttl     time.Duration
	now     func() time.Time

	mu     sync.Mutex
	tokens map[string]time.Time // token -> 过期时间
}

// NewSessions 创建会话管理器；password 为空时任何登录都会失败。
func NewSessions(password string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{
		digest:  sha256.Sum256([]byte(password)),
		enabled: password != "",
		ttl:     ttl,
		now:     time.Now,
		tokens:  map[string]time.Time{},
	}
}

// Enabled 报告是否配置了管理员密码。
func (s *Sessions) Enabled() bool { return s.enabled }

// TTL 返回令牌有效期。
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Check 以常量时间比较密码摘要。
func (s *Sessions) Check(password string) error {
	if !s.enabled {
		return ErrDisabled
	}
	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(got[:], s.digest[:]) != 1 {
		return ErrWrongPassword
	}
	return nil
}

// Login 校验密码并签发新令牌。
func (s *Sessions) Login(password string) (string, error) {
	if err := s.Check(password); err != nil {
		return "", err
	}
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.tokens[token] = s.now().Add(s.ttl)
	return token, nil
}

// Valid 报告令牌是否存在且未过期。
func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.tokens[token]
	if !ok {
		return false
	}
	if !s.now().Before(expires) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Revoke 注销令牌，未知令牌忽略。
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// sweep 清理过期令牌，调用方需持有 mu。
func (s *Sessions) sweep() {
	now := s.now()
	for token, expires := range s.tokens {
		if !now.Before(expires) {
			delete(s.tokens, token)
		}
	}
}
