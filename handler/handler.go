package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"element-agent/internal/domain"
	"element-agent/internal/markdown"
	"element-agent/internal/usecase"
)

// ChatUseCase runs one question/answer turn.
type ChatUseCase interface {
	Ask(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

// ElementUseCase answers catalog queries over the periodic-table dataset.
type ElementUseCase interface {
	Query(q usecase.ElementQuery) []domain.Element
	Get(symbol string) (domain.Element, error)
	Compare(a, b string) (usecase.ElementComparison, error)
}

// Handler routes API Gateway proxy events to the use cases and translates
// use-case errors to HTTP status codes.
type Handler struct {
	chat     ChatUseCase
	elements ElementUseCase
}

func NewHandler(chat ChatUseCase, elements ElementUseCase) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if elements == nil {
		return nil, errors.New("handler: element use case must not be nil")
	}
	return &Handler{chat: chat, elements: elements}, nil
}

type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversationId"`
}

type askResponse struct {
	Answer         string `json:"answer"`
	AnswerHTML     string `json:"answerHtml"`
	ConversationID string `json:"conversationId"`
}

type elementListResponse struct {
	Elements []elementView `json:"elements"`
}

// elementView is the wire shape of one element, dataset fields plus the
// derived display attributes the grid needs.
type elementView struct {
	domain.Element
	CategoryLabel string              `json:"categoryLabel"`
	CategoryColor string              `json:"categoryColor"`
	PhaseSymbol   string              `json:"phaseSymbol"`
	Grid          domain.GridPosition `json:"grid"`
}

type compareResponse struct {
	A    elementView             `json:"a"`
	B    elementView             `json:"b"`
	Rows []usecase.ComparisonRow `json:"rows"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)

	switch {
	case event.HTTPMethod == http.MethodPost && event.Path == "/chat":
		return h.handleChat(ctx, event, corrID), nil
	case event.HTTPMethod == http.MethodGet && event.Path == "/elements":
		return h.handleList(event, corrID), nil
	case event.HTTPMethod == http.MethodGet && event.Path == "/elements/compare":
		return h.handleCompare(event, corrID), nil
	case event.HTTPMethod == http.MethodGet && strings.HasPrefix(event.Path, "/elements/"):
		return h.handleDetail(event, corrID), nil
	default:
		return errorResp(http.StatusNotFound, &usecase.Error{Code: usecase.ErrorNotFound, Reason: "unknown_route"}, corrID), nil
	}
}

func (h *Handler) handleChat(ctx context.Context, event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	var req askRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return errorResp(http.StatusBadRequest, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "malformed_body", Err: err}, corrID)
	}

	out, err := h.chat.Ask(ctx, usecase.ChatInput{Question: req.Question, ConversationID: req.ConversationID})
	if err != nil {
		return mapError(err, corrID)
	}

	return jsonResp(http.StatusOK, askResponse{
		Answer:         out.Answer,
		AnswerHTML:     markdown.Render(out.Answer),
		ConversationID: out.ConversationID,
	}, corrID)
}

func (h *Handler) handleList(event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	q := usecase.ElementQuery{
		Q:        event.QueryStringParameters["q"],
		Category: domain.Category(event.QueryStringParameters["category"]),
		Phase:    domain.Phase(event.QueryStringParameters["phase"]),
	}
	matches := h.elements.Query(q)

	views := make([]elementView, 0, len(matches))
	for _, e := range matches {
		views = append(views, viewOf(e))
	}
	return jsonResp(http.StatusOK, elementListResponse{Elements: views}, corrID)
}

func (h *Handler) handleCompare(event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	a := event.QueryStringParameters["a"]
	b := event.QueryStringParameters["b"]
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return errorResp(http.StatusBadRequest, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_symbols"}, corrID)
	}

	cmp, err := h.elements.Compare(a, b)
	if err != nil {
		return mapError(err, corrID)
	}
	return jsonResp(http.StatusOK, compareResponse{
		A:    viewOf(cmp.A),
		B:    viewOf(cmp.B),
		Rows: cmp.Rows,
	}, corrID)
}

func (h *Handler) handleDetail(event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	symbol := strings.TrimPrefix(event.Path, "/elements/")
	e, err := h.elements.Get(symbol)
	if err != nil {
		return mapError(err, corrID)
	}
	return jsonResp(http.StatusOK, viewOf(e), corrID)
}

func viewOf(e domain.Element) elementView {
	d := e.Category.Display()
	return elementView{
		Element:       e,
		CategoryLabel: d.Label,
		CategoryColor: d.Color,
		PhaseSymbol:   e.Phase.Symbol(),
		Grid:          domain.GridPositionOf(e),
	}
}

// correlationID honors an inbound X-Correlation-Id header regardless of
// casing; API Gateway does not canonicalize header names.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "X-Correlation-Id") && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func mapError(err error, corrID string) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		ucErr = &usecase.Error{Code: usecase.ErrorInternal, Reason: "unexpected_error", Err: err}
	}

	status := http.StatusInternalServerError
	switch ucErr.Code {
	case usecase.ErrorInvalidInput, usecase.ErrorInvalidQuestion:
		status = http.StatusBadRequest
	case usecase.ErrorNotFound:
		status = http.StatusNotFound
	case usecase.ErrorRateLimited:
		status = http.StatusTooManyRequests
	case usecase.ErrorUpstreamAuth, usecase.ErrorUpstream:
		status = http.StatusBadGateway
	}
	return errorResp(status, ucErr, corrID)
}

func errorResp(status int, ucErr *usecase.Error, corrID string) events.APIGatewayProxyResponse {
	return jsonResp(status, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}, corrID)
}

func jsonResp(status int, body any, corrID string) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		b = []byte(`{"error":"INTERNAL_ERROR","reason":"encode_failure"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": corrID,
		},
		Body: string(b),
	}
}
