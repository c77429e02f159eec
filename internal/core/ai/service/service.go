package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"pantry-matcher/internal/core/ai/provider"
	"pantry-matcher/internal/core/ai/queue"
	"pantry-matcher/internal/core/cache"
	"pantry-matcher/internal/pkg/common"
)

const systemPrompt = "You rewrite cooking instructions into short, clear, numbered steps. " +
	"Keep every quantity, time and temperature. Do not add ingredients. " +
	"Reply with the steps only."

// BreakerConfig 斷路器設定
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Service 做法整理服務，實作 recipe.Formatter
type Service struct {
	provider provider.Provider
	breaker  *gobreaker.CircuitBreaker[string]
	queue    *queue.Manager
	cache    cache.Cache[string]
}

// NewCircuitBreaker 連續失敗達門檻即斷開
func NewCircuitBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[string] {
	if cfg.Name == "" {
		cfg.Name = "formatter"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// 呼叫端取消不算上游失敗
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("斷路器狀態變更",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return gobreaker.NewCircuitBreaker[string](settings)
}

// NewService 創建做法整理服務，queue 與 resultCache 可為 nil
func NewService(p provider.Provider, breaker *gobreaker.CircuitBreaker[string], q *queue.Manager, resultCache cache.Cache[string]) *Service {
	if breaker == nil {
		breaker = NewCircuitBreaker(BreakerConfig{})
	}
	return &Service{
		provider: p,
		breaker:  breaker,
		queue:    q,
		cache:    resultCache,
	}
}

// Format 整理做法，只呼叫一次上游，不重試
func (s *Service) Format(ctx context.Context, rawInstructions, title string) (string, error) {
	if strings.TrimSpace(rawInstructions) == "" {
		return "", errors.New("no instructions to format")
	}

	key := cacheKey(rawInstructions, title)
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, key); ok {
			return v, nil
		}
	}

	out, err := s.breaker.Execute(func() (string, error) {
		var content string
		call := func(ctx context.Context) error {
			resp, err := s.provider.Complete(ctx, &provider.Request{
				Messages: []provider.Message{
					{Role: "system", Content: systemPrompt},
					{Role: "user", Content: fmt.Sprintf("Recipe: %s\n\nInstructions:\n%s", title, rawInstructions)},
				},
				Temperature: 0.2,
			})
			if err != nil {
				return err
			}
			content = resp.Content
			return nil
		}

		var err error
		if s.queue != nil {
			err = s.queue.Do(ctx, call)
		} else {
			err = call(ctx)
		}
		return content, err
	})
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out)
	}
	return out, nil
}

// BreakerState 斷路器目前狀態
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}

// QueueStatus 呼叫隊列狀態
func (s *Service) QueueStatus() queue.Status {
	if s.queue == nil {
		return queue.Status{}
	}
	return s.queue.GetQueueStatus()
}

// cacheKey 計算快取鍵
func cacheKey(raw, title string) string {
	hash := sha256.Sum256([]byte(title + "\x00" + raw))
	return "format:" + hex.EncodeToString(hash[:])
}
