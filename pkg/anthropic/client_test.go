package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "summarize the findings"},
		{Role: "assistant", Content: "the hotspots are"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, sdk.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, msgs[1].Role)
}

func TestFromSDKMessageConcatenatesText(t *testing.T) {
	msg := &sdk.Message{
		ID:         "msg_1",
		Model:      "claude-haiku-4-5-20251001",
		StopReason: "end_turn",
	}
	msg.Content = []sdk.ContentBlockUnion{
		{Type: "text", Text: "part one. "},
		{Type: "text", Text: "part two."},
	}
	msg.Usage.InputTokens = 10
	msg.Usage.OutputTokens = 5

	resp := fromSDKMessage(msg)
	assert.Equal(t, "part one. part two.", resp.Text)
	assert.Equal(t, int64(10), resp.Usage.InputTokens)
	assert.Equal(t, "end_turn", resp.StopReason)
}

func TestNewClientImplementsInterface(t *testing.T) {
	var _ Client = NewClient("test-key")
}
