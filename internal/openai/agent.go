package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloo-solutions/askhr/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultChatModel is the model used for the answering agent
const DefaultChatModel = openai.GPT4oMini

// SearchToolName is the retrieval tool the agent may invoke.
const SearchToolName = "search_policies"

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Agent adapts the OpenAI chat API to the orchestrator's Send contract:
// one call in, either a tool-call request or a final structured payload out.
type Agent struct {
	api   ChatAPI
	model string
}

func NewAgent(apiKey, model string) *Agent {
	if model == "" {
		model = DefaultChatModel
	}
	return &Agent{api: openai.NewClient(apiKey), model: model}
}

// NewAgentWithAPI creates an Agent with an explicit API implementation (for testing)
func NewAgentWithAPI(api ChatAPI, model string) *Agent {
	if model == "" {
		model = DefaultChatModel
	}
	return &Agent{api: api, model: model}
}

// Send converts the conversation to chat messages, calls the model once and
// parses the reply. A reply that is neither a tool call nor a parseable
// final payload is an error; the orchestrator decides whether to retry.
func (a *Agent) Send(ctx context.Context, turns []domain.Turn) (*domain.AgentReply, error) {
	messages, err := buildMessages(turns)
	if err != nil {
		return nil, err
	}

	resp, err := a.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
		Tools:    []openai.Tool{searchTool()},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		if call.Function.Name != SearchToolName {
			return nil, fmt.Errorf("agent requested unknown tool %q", call.Function.Name)
		}
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
		}
		return &domain.AgentReply{ToolCall: &domain.ToolCall{ID: call.ID, Query: args.Query}}, nil
	}

	payload, err := parseFinalPayload(msg.Content)
	if err != nil {
		return nil, err
	}
	return &domain.AgentReply{Final: payload}, nil
}

func buildMessages(turns []domain.Turn) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case domain.TurnRoleSystem:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: turn.Content,
			})
		case domain.TurnRoleUser:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: turn.Content,
			})
		case domain.TurnRoleAgent:
			msg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: turn.Content,
			}
			if turn.ToolCall != nil {
				args, err := json.Marshal(map[string]string{"query": turn.ToolCall.Query})
				if err != nil {
					return nil, err
				}
				msg.ToolCalls = []openai.ToolCall{{
					ID:   turn.ToolCall.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      SearchToolName,
						Arguments: string(args),
					},
				}}
			}
			messages = append(messages, msg)
		case domain.TurnRoleTool:
			if turn.ToolCall == nil {
				return nil, errors.New("tool turn is missing its tool call reference")
			}
			content, err := json.Marshal(turn.Evidence)
			if err != nil {
				return nil, err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: turn.ToolCall.ID,
				Content:    string(content),
			})
		default:
			return nil, fmt.Errorf("unknown turn role %q", turn.Role)
		}
	}
	return messages, nil
}

// parseFinalPayload parses the agent's final JSON answer, tolerating a
// markdown code fence around it.
func parseFinalPayload(content string) (*domain.FinalPayload, error) {
	clean := strings.TrimSpace(content)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var payload domain.FinalPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("agent reply is not a valid final payload: %w", err)
	}
	if payload.Answer == "" && payload.Confidence == nil {
		return nil, errors.New("agent reply carries neither answer nor confidence")
	}
	return &payload, nil
}

func searchTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        SearchToolName,
			Description: "Search the indexed HR policy corpus for passages relevant to the query. Returns chunk ids, text and similarity scores.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Text to search similar passages for"}
				},
				"required": ["query"]
			}`),
		},
	}
}
