package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/suPer8Hu/supportbot/internal/intent"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 15 * time.Second
	ApologyText    = "죄송합니다. 시스템에 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
)

const classifyPrompt = `사용자의 질문을 MOCA(모카) 앱의 기능에 따라 다음 카테고리 중 하나로 분류하세요: ` +
	`예약_문의, 요금_문의, 이용_방법, 문제_해결, 계정_관리, 기타_문의, 인사, 감사. ` +
	`카테고리 이름만 답하세요.
### 예시 ###
질문: MOCA 어떻게 예약해요? 분류: 예약_문의
질문: 주행 요금은 1km당 얼마예요? 분류: 요금_문의
질문: 차 문은 어떻게 열어요? 분류: 이용_방법
질문: 사고가 났어요 어떻게 해야하죠? 분류: 문제_해결
질문: 비밀번호를 잊어버렸어요 분류: 계정_관리
질문: 안녕하세요 분류: 인사
질문: 고마워요 분류: 감사
### 실제 분류 ###
질문: %s 분류:`

// LabelCache remembers remote classifications of identical text.
type LabelCache interface {
	Get(ctx context.Context, text string) (intent.Label, bool, error)
	Set(ctx context.Context, text string, label intent.Label) error
}

// Remote is the best-effort remote classifier and reply generator. Neither
// method returns an error: failures degrade to intent.Other and ApologyText.
type Remote struct {
	provider Provider
	cache    LabelCache
	timeout  time.Duration
	logger   *zap.Logger
}

type RemoteOption func(*Remote)

func WithCache(c LabelCache) RemoteOption {
	return func(r *Remote) { r.cache = c }
}

func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithRemoteLogger(l *zap.Logger) RemoteOption {
	return func(r *Remote) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRemote(p Provider, opts ...RemoteOption) *Remote {
	r := &Remote{provider: p, timeout: DefaultTimeout, logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Classify asks the remote model for the intent of text.
func (r *Remote) Classify(ctx context.Context, text string) intent.Label {
	if r.cache != nil {
		if l, ok, err := r.cache.Get(ctx, text); err == nil && ok {
			return l
		} else if err != nil {
			r.logger.Debug("label cache get failed", zap.Error(err))
		}
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.provider.Chat(cctx, []Message{
		{Role: RoleUser, Content: fmt.Sprintf(classifyPrompt, text)},
	})
	if err != nil {
		r.logger.Warn("remote classify failed", zap.Error(err))
		return intent.Other
	}
	label := intent.Parse(out)

	if r.cache != nil {
		if err := r.cache.Set(ctx, text, label); err != nil {
			r.logger.Debug("label cache set failed", zap.Error(err))
		}
	}
	return label
}

// Generate produces a reply for prompt, with the conversation transcript as
// optional context.
func (r *Remote) Generate(ctx context.Context, prompt, conversation string) string {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msgs := make([]Message, 0, 2)
	if conversation != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: "이전 대화:\n" + conversation})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: prompt})

	out, err := r.provider.Chat(cctx, msgs)
	if err != nil || out == "" {
		r.logger.Warn("remote generate failed", zap.Error(err))
		return ApologyText
	}
	return out
}
