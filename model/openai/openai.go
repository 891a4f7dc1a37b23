//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package openai implements the model interface on OpenAI-compatible chat
// completion APIs, including self-hosted gateways that speak the same
// protocol.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/oracle/wayflow-sub000/log"
	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/tool"
)

const chanBufferSize = 16

// Model talks to an OpenAI-compatible chat completion endpoint.
type Model struct {
	name   string
	client openai.Client
}

// Option configures the client.
type Option func(*options)

type options struct {
	apiKey        string
	baseURL       string
	openaiOptions []openaiopt.RequestOption
}

// WithAPIKey sets the API key. The OPENAI_API_KEY environment variable is
// used when unset.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL points the client at a compatible non-OpenAI endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithOpenAIOptions forwards request options to the underlying client.
func WithOpenAIOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.openaiOptions = append(o.openaiOptions, opts...) }
}

// New creates a model client for the named model.
func New(name string, opts ...Option) *Model {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.openaiOptions...)
	return &Model{
		name:   name,
		client: openai.NewClient(clientOpts...),
	}
}

// Info returns the model name.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent runs one chat completion, streaming when requested.
func (m *Model) GenerateContent(ctx context.Context, request *model.Request) (<-chan *model.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	chatRequest := m.buildRequest(request)
	ch := make(chan *model.Response, chanBufferSize)
	if request.GenerationConfig.Stream {
		go m.streaming(ctx, chatRequest, ch)
	} else {
		go m.nonStreaming(ctx, chatRequest, ch)
	}
	return ch, nil
}

func (m *Model) buildRequest(request *model.Request) openai.ChatCompletionNewParams {
	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: convertMessages(request.Messages),
		Tools:    convertTools(request.Tools),
	}
	cfg := request.GenerationConfig
	if cfg.MaxTokens > 0 {
		chatRequest.MaxCompletionTokens = openai.Int(int64(cfg.MaxTokens))
	}
	if cfg.Temperature != nil {
		chatRequest.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.TopP != nil {
		chatRequest.TopP = openai.Float(*cfg.TopP)
	}
	if cfg.Stream {
		chatRequest.StreamOptions = openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		}
	}
	return chatRequest
}

func (m *Model) nonStreaming(ctx context.Context, chatRequest openai.ChatCompletionNewParams,
	ch chan<- *model.Response) {
	defer close(ch)
	completion, err := m.client.Chat.Completions.New(ctx, chatRequest)
	if err != nil {
		send(ctx, ch, errorResponse(err))
		return
	}
	rsp := &model.Response{
		ID:     completion.ID,
		Object: model.ObjectTypeCompletion,
		Model:  completion.Model,
		Done:   true,
		Usage:  convertUsage(completion.Usage),
	}
	for _, choice := range completion.Choices {
		rsp.Choices = append(rsp.Choices, model.Choice{
			Index:   int(choice.Index),
			Message: convertCompletionMessage(choice.Message),
		})
	}
	send(ctx, ch, rsp)
}

func (m *Model) streaming(ctx context.Context, chatRequest openai.ChatCompletionNewParams,
	ch chan<- *model.Response) {
	defer close(ch)
	stream := m.client.Chat.Completions.NewStreaming(ctx, chatRequest)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		send(ctx, ch, &model.Response{
			ID:     chunk.ID,
			Object: model.ObjectTypeChunk,
			Model:  chunk.Model,
			Choices: []model.Choice{{
				Delta: model.Message{
					Role:    model.RoleAssistant,
					Content: chunk.Choices[0].Delta.Content,
				},
			}},
		})
	}
	if err := stream.Err(); err != nil {
		send(ctx, ch, errorResponse(err))
		return
	}
	final := &model.Response{
		ID:     acc.ID,
		Object: model.ObjectTypeCompletion,
		Model:  acc.Model,
		Done:   true,
		Usage:  convertUsage(acc.Usage),
	}
	for _, choice := range acc.Choices {
		final.Choices = append(final.Choices, model.Choice{
			Index:   int(choice.Index),
			Message: convertCompletionMessage(choice.Message),
		})
	}
	send(ctx, ch, final)
}

func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		case model.RoleAssistant:
			assistant := &openai.ChatCompletionAssistantMessageParam{
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				},
				ToolCalls: convertToolCalls(msg.ToolCalls),
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case model.RoleTool:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					ToolCallID: msg.ToolID,
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		default:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		}
	}
	return result
}

func convertToolCalls(toolCalls []model.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	var result []openai.ChatCompletionMessageToolCallParam
	for _, call := range toolCalls {
		result = append(result, openai.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: string(call.Arguments),
			},
		})
	}
	return result
}

func convertTools(declarations []*tool.Declaration) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam
	for _, decl := range declarations {
		parameters := shared.FunctionParameters{"type": "object"}
		if decl.InputSchema != nil {
			schemaBytes, err := json.Marshal(decl.InputSchema)
			if err != nil {
				log.Errorf("failed to marshal tool schema for %s: %v", decl.Name, err)
				continue
			}
			if err := json.Unmarshal(schemaBytes, &parameters); err != nil {
				log.Errorf("failed to unmarshal tool schema for %s: %v", decl.Name, err)
				continue
			}
		}
		result = append(result, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        decl.Name,
				Description: openai.String(decl.Description),
				Parameters:  parameters,
			},
		})
	}
	return result
}

func convertCompletionMessage(msg openai.ChatCompletionMessage) model.Message {
	result := model.Message{
		Role:    model.RoleAssistant,
		Content: msg.Content,
	}
	for i, call := range msg.ToolCalls {
		id := call.ID
		if id == "" {
			// Some providers omit the call ID.
			id = fmt.Sprintf("auto_call_%d", i)
		}
		result.ToolCalls = append(result.ToolCalls, model.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: []byte(call.Function.Arguments),
		})
	}
	return result
}

func convertUsage(usage openai.CompletionUsage) *model.Usage {
	if usage.TotalTokens == 0 {
		return nil
	}
	return &model.Usage{
		PromptTokens:     int(usage.PromptTokens),
		CompletionTokens: int(usage.CompletionTokens),
		TotalTokens:      int(usage.TotalTokens),
	}
}

func errorResponse(err error) *model.Response {
	return &model.Response{
		Object: model.ObjectTypeError,
		Done:   true,
		Error:  &model.ResponseError{Type: "api_error", Message: err.Error()},
	}
}

func send(ctx context.Context, ch chan<- *model.Response, rsp *model.Response) {
	select {
	case ch <- rsp:
	case <-ctx.Done():
	}
}
