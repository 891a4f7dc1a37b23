//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle/wayflow-sub000/execution"
	"github.com/oracle/wayflow-sub000/flow"
	"github.com/oracle/wayflow-sub000/model"
	"github.com/oracle/wayflow-sub000/tool"
	"github.com/oracle/wayflow-sub000/tool/function"
	"github.com/oracle/wayflow-sub000/variable"
)

// scriptedModel replays its replies in order; the last reply repeats.
type scriptedModel struct {
	replies []model.Message
	usage   *model.Usage
	calls   int
}

func (m *scriptedModel) GenerateContent(_ context.Context, _ *model.Request) (<-chan *model.Response, error) {
	i := m.calls
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	m.calls++
	ch := make(chan *model.Response, 1)
	ch <- &model.Response{
		Done:    true,
		Choices: []model.Choice{{Message: m.replies[i]}},
		Usage:   m.usage,
	}
	close(ch)
	return ch, nil
}

func (m *scriptedModel) Info() model.Info { return model.Info{Name: "scripted"} }

func textReply(content string) model.Message {
	return model.NewAssistantMessage(content)
}

func toolReply(id, name string, args map[string]any) model.Message {
	raw, _ := json.Marshal(args)
	return model.Message{
		Role:      model.RoleAssistant,
		ToolCalls: []model.ToolCall{{ID: id, Name: name, Arguments: raw}},
	}
}

type calcArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func calcTool(opts ...function.Option) tool.CallableTool {
	opts = append([]function.Option{
		function.WithName("calc"),
		function.WithDescription("adds two numbers"),
	}, opts...)
	return function.New(func(_ context.Context, in calcArgs) (int, error) {
		return in.A + in.B, nil
	}, opts...)
}

// clientTool carries only a declaration; results come from the caller.
type clientTool struct {
	declaration *tool.Declaration
}

func (t *clientTool) Declaration() *tool.Declaration { return t.declaration }

func TestNewRequiresModel(t *testing.T) {
	_, err := New("helper")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestNewRejectsDuplicateToolNames(t *testing.T) {
	_, err := New("helper",
		WithModel(&scriptedModel{replies: []model.Message{textReply("hi")}}),
		WithTools(calcTool(), calcTool()),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calc")
}

func TestNewReservesExitToolName(t *testing.T) {
	shadow := function.New(func(_ context.Context, _ calcArgs) (int, error) {
		return 0, nil
	}, function.WithName(ExitToolName))
	_, err := New("helper",
		WithModel(&scriptedModel{replies: []model.Message{textReply("hi")}}),
		WithTools(shadow),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ExitToolName)
}

func TestExecuteTextReplyAwaitsUser(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{textReply("how can I help?")}}
	a, err := New("helper", WithModel(m), WithInstruction("be brief"))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("hello")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	awaiting, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.Equal(t, "how can I help?", awaiting.Message.Content)
	require.Len(t, conv.Messages(), 2)
	assert.Equal(t, model.RoleUser, conv.Messages()[0].Role)
	assert.Equal(t, model.RoleAssistant, conv.Messages()[1].Role)
	assert.False(t, conv.Finished())
}

func TestExecuteToolCallRoundTrip(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", "calc", map[string]any{"a": 2, "b": 3}),
		textReply("the sum is 5"),
	}}
	a, err := New("helper", WithModel(m), WithTools(calcTool()))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("what is 2+3?")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	awaiting, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.Equal(t, "the sum is 5", awaiting.Message.Content)

	// user, assistant tool call, tool result, assistant text.
	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, model.RoleTool, msgs[2].Role)
	assert.Equal(t, "c1", msgs[2].ToolID)
	assert.Equal(t, "calc", msgs[2].ToolName)
	assert.JSONEq(t, "5", msgs[2].Content)
	assert.Equal(t, 2, m.calls)
}

func TestExecuteClientToolSuspends(t *testing.T) {
	lookup := &clientTool{declaration: &tool.Declaration{
		Name:        "lookup",
		Description: "resolved by the caller",
		InputSchema: &tool.Schema{Type: "object"},
	}}
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", "lookup", map[string]any{"key": "x"}),
		textReply("found it"),
	}}
	a, err := New("helper", WithModel(m), WithTools(lookup))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("look up x")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	awaiting, ok := status.(execution.AwaitingToolResult)
	require.True(t, ok)
	require.Len(t, awaiting.Requests, 1)
	assert.Equal(t, "c1", awaiting.Requests[0].ID)

	// Resuming without the result is rejected, state untouched.
	_, err = conv.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, execution.IsInputError(err))

	conv.AddToolResult("c1", "lookup", "42")
	status, err = conv.Execute(context.Background())
	require.NoError(t, err)
	final, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.Equal(t, "found it", final.Message.Content)

	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, model.RoleTool, msgs[2].Role)
	assert.Equal(t, "42", msgs[2].Content)
}

func TestExecuteConfirmationToolDeclined(t *testing.T) {
	guarded := calcTool(function.WithRequireConfirmation())
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", "calc", map[string]any{"a": 1, "b": 1}),
		textReply("understood"),
	}}
	a, err := New("helper", WithModel(m), WithTools(guarded))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("add 1 and 1")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	awaiting, ok := status.(execution.AwaitingToolConfirmation)
	require.True(t, ok)
	require.Len(t, awaiting.Requests, 1)

	conv.Decline("c1")
	status, err = conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok = status.(execution.AwaitingUserMessage)
	require.True(t, ok)

	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, model.RoleTool, msgs[2].Role)
	assert.JSONEq(t, `{"status":"declined","tool":"calc"}`, msgs[2].Content)
}

func TestExecuteConfirmationToolApproved(t *testing.T) {
	guarded := calcTool(function.WithRequireConfirmation())
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", "calc", map[string]any{"a": 1, "b": 1}),
		textReply("done"),
	}}
	a, err := New("helper", WithModel(m), WithTools(guarded))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("add 1 and 1")

	_, err = conv.Execute(context.Background())
	require.NoError(t, err)

	conv.Confirm("c1")
	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.JSONEq(t, "2", conv.Messages()[2].Content)
}

func TestExecuteExitConfirmation(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", ExitToolName, nil),
	}}
	a, err := New("helper", WithModel(m))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("bye")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok := status.(execution.AwaitingToolConfirmation)
	require.True(t, ok)
	assert.True(t, conv.State().AgentSub().ExitRequested)

	conv.Confirm("c1")
	status, err = conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok = status.(execution.Finished)
	require.True(t, ok)
	assert.True(t, conv.Finished())

	_, err = conv.Execute(context.Background())
	assert.ErrorIs(t, err, execution.ErrConversationFinished)
}

func TestExecuteExitDeclinedContinues(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", ExitToolName, nil),
		textReply("staying around"),
	}}
	a, err := New("helper", WithModel(m))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("bye")

	_, err = conv.Execute(context.Background())
	require.NoError(t, err)

	conv.Decline("c1")
	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	awaiting, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.Equal(t, "staying around", awaiting.Message.Content)
	assert.False(t, conv.State().AgentSub().ExitRequested)
	assert.False(t, conv.Finished())
}

func TestExecuteMaxIterations(t *testing.T) {
	// The model never stops calling tools.
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", "calc", map[string]any{"a": 1, "b": 1}),
	}}
	a, err := New("helper", WithModel(m), WithTools(calcTool()),
		WithMaxIterations(2))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("loop forever")

	_, err = conv.Execute(context.Background())
	assert.ErrorIs(t, err, ErrMaxIterations)
	assert.False(t, conv.Finished())
}

func TestExecuteQueueDepthExceeded(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"a": 1, "b": 1})
	burst := model.Message{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{
		{ID: "c1", Name: "calc", Arguments: raw},
		{ID: "c2", Name: "calc", Arguments: raw},
	}}
	m := &scriptedModel{replies: []model.Message{burst}}
	a, err := New("helper", WithModel(m), WithTools(calcTool()),
		WithMaxQueueDepth(1))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("double trouble")

	_, err = conv.Execute(context.Background())
	assert.ErrorIs(t, err, ErrQueueDepthExceeded)
}

func TestExecuteUnknownToolReported(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", "no_such_tool", nil),
		textReply("sorry about that"),
	}}
	a, err := New("helper", WithModel(m), WithTools(calcTool()))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("hi")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"error":"unknown tool no_such_tool"}`,
		conv.Messages()[2].Content)
}

func TestExecuteAccumulatesUsage(t *testing.T) {
	m := &scriptedModel{
		replies: []model.Message{
			toolReply("c1", "calc", map[string]any{"a": 1, "b": 1}),
			textReply("done"),
		},
		usage: &model.Usage{PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10},
	}
	a, err := New("helper", WithModel(m), WithTools(calcTool()))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("hi")

	_, err = conv.Execute(context.Background())
	require.NoError(t, err)
	// Two generations, 10 tokens each.
	assert.Equal(t, 20, conv.State().Usage.TotalTokens)
}

func subflowComponent(t *testing.T) *flow.Flow {
	t.Helper()
	greet, err := flow.NewOutputMessageStep("greet", "Hello {{.name}}",
		flow.WithMessageInput("name", variable.TypeString))
	require.NoError(t, err)
	f, err := flow.New("greeter",
		flow.WithSteps(greet),
		flow.WithBegin("greet"),
		flow.WithNext("greet", flow.End),
		flow.WithDataEdge(execution.InputSpace, "name", "greet", "name"),
		flow.WithOutput("greeting", "greet", flow.OutputMessage),
	)
	require.NoError(t, err)
	return f
}

func TestExecuteDispatchesSubComponent(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", "greeter", map[string]any{"name": "Ada"}),
		textReply("the flow said hello"),
	}}
	a, err := New("helper", WithModel(m),
		WithSubComponents(subflowComponent(t)))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("greet Ada")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"greeting":"Hello Ada"}`, conv.Messages()[2].Content)
	// Finished children do not linger in state.
	assert.NotContains(t, conv.State().Children, "greeter")
}

func TestExecuteSubComponentSuspensionRoutesUserMessage(t *testing.T) {
	await := flow.NewInputMessageStep("await")
	inner, err := flow.New("interview",
		flow.WithSteps(await),
		flow.WithBegin("await"),
		flow.WithNext("await", flow.End),
		flow.WithOutput("answer", "await", flow.OutputUserMessage),
	)
	require.NoError(t, err)

	m := &scriptedModel{replies: []model.Message{
		toolReply("c1", "interview", nil),
		textReply("they said blue"),
	}}
	a, err := New("helper", WithModel(m), WithSubComponents(inner))
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("run the interview")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)

	// The staged message belongs to the suspended flow, not the agent.
	conv.AppendUserMessage("blue")
	status, err = conv.Execute(context.Background())
	require.NoError(t, err)
	final, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.Equal(t, "they said blue", final.Message.Content)
	assert.JSONEq(t, `{"answer":"blue"}`, conv.Messages()[2].Content)
}

func TestExecutePlanningRunsOnce(t *testing.T) {
	m := &scriptedModel{replies: []model.Message{
		textReply("1. add the numbers"),
		textReply("the answer is 2"),
	}}
	a, err := New("helper", WithModel(m), WithTools(calcTool()), WithPlanning())
	require.NoError(t, err)

	conv, err := execution.NewConversation(a)
	require.NoError(t, err)
	conv.AppendUserMessage("add 1 and 1")

	status, err := conv.Execute(context.Background())
	require.NoError(t, err)
	_, ok := status.(execution.AwaitingUserMessage)
	require.True(t, ok)
	assert.Equal(t, "1. add the numbers", conv.State().AgentSub().Plan)
	assert.Equal(t, 2, m.calls)
}
