package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	frame, err := NewRequest("req-1", "chat.send", ChatRequest{Message: "price of iPhone 16?"})
	require.NoError(t, err)

	assert.Equal(t, FrameTypeRequest, frame.Type)
	assert.Equal(t, "req-1", frame.ID)
	assert.Equal(t, "chat.send", frame.Method)
	assert.JSONEq(t, `{"message":"price of iPhone 16?"}`, string(frame.Params))
}

func TestNewResponse(t *testing.T) {
	frame, err := NewResponse("req-1", map[string]string{"status": "ok"})
	require.NoError(t, err)

	assert.Equal(t, FrameTypeResponse, frame.Type)
	require.NotNil(t, frame.OK)
	assert.True(t, *frame.OK)
	assert.Nil(t, frame.Error)
	assert.JSONEq(t, `{"status":"ok"}`, string(frame.Payload))
}

func TestNewErrorResponse_Wire(t *testing.T) {
	frame := NewErrorResponse("req-9", ErrorShape{Code: CodeToolFailure, Message: "web search down", Retryable: true})

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "res",
		"id": "req-9",
		"ok": false,
		"error": {"code": "tool_failure", "message": "web search down", "retryable": true}
	}`, string(data))
}

func TestErrorShape_OmitsRetryable(t *testing.T) {
	data, err := json.Marshal(ErrorShape{Code: CodeInvalidParams, Message: "message is required"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "retryable")
}

func TestNewEvent(t *testing.T) {
	frame, err := NewEvent("node_exit", map[string]any{"node": "Retriever"}, 42)
	require.NoError(t, err)

	assert.Equal(t, FrameTypeEvent, frame.Type)
	assert.Equal(t, "node_exit", frame.Event)
	assert.Equal(t, int64(42), frame.Seq)
	assert.JSONEq(t, `{"node":"Retriever"}`, string(frame.Payload))
}

func TestConnectParams_OmitsNilAuth(t *testing.T) {
	data, err := json.Marshal(ConnectParams{Protocol: ProtocolVersion, Client: ClientInfo{ID: "cli"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"auth"`)
}
