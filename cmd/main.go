package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"element-agent/handler"
	"element-agent/internal/domain"
	"element-agent/internal/integrations/openai"
	"element-agent/internal/integrations/paramstore"
	"element-agent/internal/repository"
	"element-agent/internal/shape"
	"element-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	elementsPath := mustEnv("ELEMENTS_PATH")
	maxContextItems := envInt("MAX_CONTEXT_ITEMS", 20)
	maxQuestionLen := envInt("MAX_QUESTION_LENGTH", 300)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	stateClient, err := repository.New(dynamoClient, stateTable)
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

	// ---- Services ----
	chatService, err := usecase.NewChatService(ssmClient, openaiClient, stateClient, shape.New(shape.DefaultLimits()), paramPrefix, maxContextItems, maxQuestionLen)
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

	lambda.Start(h.Handle)
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

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
