package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sheet struct {
	Direction  string `json:"direction"`
	Confidence int    `json:"confidence"`
}

func TestDecodeJSONPlain(t *testing.T) {
	var out sheet
	err := DecodeJSON(`{"direction":"bullish","confidence":70}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "bullish", out.Direction)
	assert.Equal(t, 70, out.Confidence)
}

func TestDecodeJSONFenced(t *testing.T) {
	var out sheet
	reply := "Here is my analysis:\n```json\n{\"direction\":\"bearish\",\"confidence\":55}\n```\nLet me know."
	require.NoError(t, DecodeJSON(reply, &out))
	assert.Equal(t, "bearish", out.Direction)
}

func TestDecodeJSONBareFence(t *testing.T) {
	var out sheet
	reply := "```\n{\"direction\":\"neutral\",\"confidence\":50}\n```"
	require.NoError(t, DecodeJSON(reply, &out))
	assert.Equal(t, "neutral", out.Direction)
}

func TestDecodeJSONSurroundingProse(t *testing.T) {
	var out sheet
	reply := `Sure. {"direction":"bullish","confidence":80} Hope that helps!`
	require.NoError(t, DecodeJSON(reply, &out))
	assert.Equal(t, 80, out.Confidence)
}

func TestDecodeJSONNoPayload(t *testing.T) {
	var out sheet
	assert.Error(t, DecodeJSON("I cannot answer that.", &out))
}

func TestStaticClientReplaysInOrder(t *testing.T) {
	client := &StaticClient{Responses: []string{
		`{"direction":"bullish","confidence":70}`,
		`{"direction":"bearish","confidence":30}`,
	}}

	var first, second sheet
	require.NoError(t, client.Generate(context.Background(), PromptSpec{}, &first))
	require.NoError(t, client.Generate(context.Background(), PromptSpec{}, &second))
	assert.Equal(t, "bullish", first.Direction)
	assert.Equal(t, "bearish", second.Direction)

	var third sheet
	assert.ErrorIs(t, client.Generate(context.Background(), PromptSpec{}, &third), ErrNoResponse)
	assert.Equal(t, 3, client.Calls)
}

func TestGenerateOrDefault(t *testing.T) {
	failing := &StaticClient{Err: errors.New("network down")}
	def := sheet{Direction: "neutral", Confidence: 50}

	got := GenerateOrDefault(context.Background(), failing, PromptSpec{}, def)
	assert.Equal(t, def, got)

	working := &StaticClient{Responses: []string{`{"direction":"bullish","confidence":90}`}}
	got = GenerateOrDefault(context.Background(), working, PromptSpec{}, def)
	assert.Equal(t, "bullish", got.Direction)
}
