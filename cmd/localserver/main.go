package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"element-agent/handler"
	"element-agent/internal/domain"
	"element-agent/internal/integrations/openai"
	"element-agent/internal/integrations/paramstore"
	"element-agent/internal/repository"
	"element-agent/internal/shape"
	"element-agent/internal/usecase"
)

// localserver wraps the Lambda handler in a plain HTTP server for local
// development. Same wiring as the Lambda entrypoint, env from .env.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "err", err)
	}

	ctx := context.Background()

	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	elementsPath := mustEnv("ELEMENTS_PATH")
	addr := envOr("LISTEN_ADDR", ":8080")

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	stateClient, err := repository.New(awsdynamodb.NewFromConfig(cfg), stateTable)
	if err != nil {
		slog.Error("failed to create state client", "err", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	elements, err := loadElements(elementsPath)
	if err != nil {
		slog.Error("failed to load element dataset", "path", elementsPath, "err", err)
		os.Exit(1)
	}

	chatService, err := usecase.NewChatService(ssmClient, openaiClient, stateClient, shape.New(shape.DefaultLimits()), paramPrefix, 0, 0)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}
	elementService, err := usecase.NewElementService(elements)
	if err != nil {
		slog.Error("failed to create element service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewHandler(chatService, elementService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	slog.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, adapt(h)); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// adapt converts an incoming HTTP request to the API Gateway proxy shape the
// handler expects, then writes the proxy response back.
func adapt(h *handler.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}
		query := make(map[string]string)
		for k, vs := range r.URL.Query() {
			if len(vs) > 0 {
				query[k] = vs[0]
			}
		}

		event := events.APIGatewayProxyRequest{
			HTTPMethod:            r.Method,
			Path:                  r.URL.Path,
			Headers:               headers,
			QueryStringParameters: query,
			Body:                  string(body),
		}

		resp, err := h.Handle(r.Context(), event)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.WriteString(w, resp.Body)
	})
}

func loadElements(path string) ([]domain.Element, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var elements []domain.Element
	if err := json.Unmarshal(b, &elements); err != nil {
		return nil, err
	}
	return elements, nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
