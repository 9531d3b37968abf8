package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"element-agent/internal/domain"
)

const (
	defaultMaxContext    = 20
	defaultMaxQuestion   = 300
	maxConversationTurns = 10
	statusComplete       = "complete"
)

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// LLMClient is the external chat-completion collaborator. The chat flow only
// consumes the returned reply string; which provider produced it is opaque.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
	Moderate(ctx context.Context, input string) (bool, error)
}

type StateReadWriter interface {
	GetConversationTurnCount(ctx context.Context, conversationID string) (int, error)
	GetHistory(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	SaveCompletedTurn(ctx context.Context, conversationID, question, answer string, turns int) error
}

// ReplyShaper bounds a raw reply to chat-bubble size before it is stored.
type ReplyShaper interface {
	Shape(raw string) string
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type ChatService struct {
	params          ParamGetter
	llm             LLMClient
	state           StateReadWriter
	shaper          ReplyShaper
	paramPrefix     string
	maxContextItems int
	maxQuestionLen  int

	cacheMu      sync.RWMutex
	cacheLoaded  bool
	systemPrompt string
	model        string
}

type ChatInput struct {
	Question       string
	ConversationID string
}

type ChatOutput struct {
	Answer         string
	ConversationID string
}

func NewChatService(p ParamGetter, llm LLMClient, s StateReadWriter, shaper ReplyShaper, paramPrefix string, maxContextItems, maxQuestionLen int) (*ChatService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if s == nil {
		return nil, errors.New("usecase: state store must not be nil")
	}
	if shaper == nil {
		return nil, errors.New("usecase: reply shaper must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if maxContextItems <= 0 {
		maxContextItems = defaultMaxContext
	}
	if maxQuestionLen <= 0 {
		maxQuestionLen = defaultMaxQuestion
	}
	return &ChatService{
		params:          p,
		llm:             llm,
		state:           s,
		shaper:          shaper,
		paramPrefix:     paramPrefix,
		maxContextItems: maxContextItems,
		maxQuestionLen:  maxQuestionLen,
	}, nil
}

// Ask runs one chat turn: moderate the question, replay completed history to
// the completion endpoint, shape the raw reply, persist the turn. The shaped
// reply is what gets stored; HTML rendering happens at the display edge.
func (s *ChatService) Ask(ctx context.Context, in ChatInput) (ChatOutput, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_question", nil)
	}
	if len(question) > s.maxQuestionLen {
		return ChatOutput{}, newError(ErrorInvalidInput, "question_too_long", nil)
	}
	if err := s.ensureConfig(ctx); err != nil {
		return ChatOutput{}, newError(ErrorInternal, "ssm_load_error", err)
	}
	convID := strings.TrimSpace(in.ConversationID)
	if convID == "" {
		convID = newUUID()
	}

	existingTurns := 0
	if strings.TrimSpace(in.ConversationID) != "" {
		turnCount, err := s.state.GetConversationTurnCount(ctx, convID)
		if err != nil {
			return ChatOutput{}, newError(ErrorInternal, "dynamodb_turn_count_error", err)
		}
		existingTurns = turnCount
		if existingTurns >= maxConversationTurns {
			return ChatOutput{}, newError(ErrorInvalidInput, "conversation_turn_limit", nil)
		}
	}

	flagged, err := s.llm.Moderate(ctx, question)
	if err != nil {
		return ChatOutput{}, upstreamError("moderation", err)
	}
	if flagged {
		return ChatOutput{}, newError(ErrorInvalidQuestion, "moderation_flagged", nil)
	}

	history, err := s.state.GetHistory(ctx, convID, s.maxContextItems)
	if err != nil {
		return ChatOutput{}, newError(ErrorInternal, "dynamodb_history_error", err)
	}

	raw, err := s.llm.Chat(ctx, s.model, buildPromptMessages(s.systemPrompt, question, history))
	if err != nil {
		return ChatOutput{}, upstreamError("llm", err)
	}

	shaped := s.shaper.Shape(raw)

	if err := s.state.SaveCompletedTurn(ctx, convID, question, shaped, existingTurns+1); err != nil {
		return ChatOutput{}, newError(ErrorInternal, "dynamodb_write_error", err)
	}

	return ChatOutput{
		Answer:         shaped,
		ConversationID: convID,
	}, nil
}

func (s *ChatService) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	systemPrompt, err := s.params.GetParameter(ctx, s.paramPrefix+"/system_prompt")
	if err != nil {
		return err
	}
	model, err := s.params.GetParameter(ctx, s.paramPrefix+"/config/openai_model")
	if err != nil {
		return err
	}

	s.systemPrompt = systemPrompt
	s.model = model
	s.cacheLoaded = true
	return nil
}

// upstreamError classifies a collaborator failure as authentication,
// rate-limit, or generic upstream trouble based on the HTTP status it carries.
func upstreamError(source string, err error) *Error {
	status, ok := upstreamStatusCode(err)
	switch {
	case ok && (status == http.StatusUnauthorized || status == http.StatusForbidden):
		return newError(ErrorUpstreamAuth, source+"_auth_error", err)
	case ok && status == http.StatusTooManyRequests:
		return newError(ErrorRateLimited, source+"_rate_limited", err)
	default:
		return newError(ErrorUpstream, source+"_error", err)
	}
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
