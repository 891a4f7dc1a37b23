//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package telemetry holds the shared constants and helpers behind the
// trace and metric packages.
package telemetry

import (
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/tool"
)

// Service constants.
const (
	ServiceName      = "wayflow"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "oracle-wayflow"
	InstrumentName   = "oracle.wayflow.go"

	SpanNameCallLLM           = "call_llm"
	SpanNamePrefixExecuteTool = "execute_tool"
	SpanNamePrefixInvokeStep  = "invoke_step"

	MetricGenerationTokens = "wayflow.generation.token.usage"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// Attribute keys.
var (
	KeyConversationID = "wayflow.conversation_id"
	KeyComponentName  = "wayflow.component_name"
	KeyLLMRequest     = "wayflow.llm_request"
	KeyLLMResponse    = "wayflow.llm_response"
	KeyTokenType      = "wayflow.token_type"
)

// TraceToolCall records a tool invocation on the span.
func TraceToolCall(span trace.Span, declaration *tool.Declaration, args []byte, result any) {
	span.SetAttributes(
		attribute.String("gen_ai.system", InstrumentName),
		attribute.String("gen_ai.operation.name", "tool.execute"),
		attribute.String("gen_ai.tool.name", declaration.Name),
		attribute.String("gen_ai.tool.description", declaration.Description),
		attribute.String("wayflow.tool_call_args", string(args)),
	)
	if bts, err := json.Marshal(result); err == nil {
		span.SetAttributes(attribute.String("wayflow.tool_response", string(bts)))
	} else {
		span.SetAttributes(attribute.String("wayflow.tool_response", "<not json serializable>"))
	}
}

// TraceCallLLM records a model call on the span.
func TraceCallLLM(span trace.Span, conversationID string, req *model.Request, rsp *model.Response) {
	span.SetAttributes(
		attribute.String("gen_ai.system", InstrumentName),
		attribute.String(KeyConversationID, conversationID),
	)
	if rsp != nil {
		span.SetAttributes(attribute.String("gen_ai.request.model", rsp.Model))
	}
	if bts, err := json.Marshal(req); err == nil {
		span.SetAttributes(attribute.String(KeyLLMRequest, string(bts)))
	} else {
		span.SetAttributes(attribute.String(KeyLLMRequest, "<not json serializable>"))
	}
	if bts, err := json.Marshal(rsp); err == nil {
		span.SetAttributes(attribute.String(KeyLLMResponse, string(bts)))
	} else {
		span.SetAttributes(attribute.String(KeyLLMResponse, "<not json serializable>"))
	}
}

// NewGRPCConn creates a gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	// Note the use of insecure transport here. TLS is recommended in
	// production.
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
