package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/resumex/internal/core"
)

type fakeLLM struct {
	out      string
	err      error
	deadline bool
	calls    int
}

func (f *fakeLLM) Generate(ctx context.Context, _, _ string) (string, error) {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.out, f.err
}

func TestRecognize_DecodesEntities(t *testing.T) {
	llm := &fakeLLM{out: "```json\n[{\"text\":\"Jane Doe\",\"label\":\"person\"},{\"text\":\"Acme\",\"label\":\"ORG\"},{\"text\":\" \",\"label\":\"ORG\"}]\n```"}
	r := NewEntityRecognizer(llm, time.Second)

	ents, err := r.Recognize(context.Background(), "Jane Doe works at Acme")
	require.NoError(t, err)
	assert.Equal(t, []core.Entity{
		{Text: "Jane Doe", Label: core.EntityLabelPerson},
		{Text: "Acme", Label: "ORG"},
	}, ents)
	assert.True(t, llm.deadline, "call must carry a deadline")
}

func TestRecognize_EmptyTextSkipsModel(t *testing.T) {
	llm := &fakeLLM{}
	r := NewEntityRecognizer(llm, 0)

	ents, err := r.Recognize(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, ents)
	assert.Zero(t, llm.calls)
}

func TestRecognize_Errors(t *testing.T) {
	_, err := NewEntityRecognizer(&fakeLLM{err: errors.New("quota")}, time.Second).
		Recognize(context.Background(), "Jane")
	assert.ErrorContains(t, err, "quota")

	_, err = NewEntityRecognizer(&fakeLLM{out: "not json"}, time.Second).
		Recognize(context.Background(), "Jane")
	assert.ErrorContains(t, err, "decode entities")
}
