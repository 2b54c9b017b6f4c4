package view_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/menu"
	"github.com/aretw0/citychat/pkg/view"
)

func TestRender_OptionsOnLatestBotMessage(t *testing.T) {
	s := &domain.Session{
		ID:          "s1",
		CurrentNode: menu.MainMenu,
		Mode:        domain.ModeSelecting,
		Generation:  2,
		Messages: []domain.Message{
			{Text: "Hello\nWorld\n", Sender: domain.SenderBot},
			{Text: "1", Sender: domain.SenderUser, Checkpoint: &domain.Checkpoint{Node: menu.Root}},
			{Text: "Pick one", Sender: domain.SenderBot},
		},
	}

	v := view.Render(s, menu.Default())
	require.Len(t, v.Messages, 3)
	assert.Equal(t, []string{"Hello", "World"}, v.Messages[0].Lines)
	assert.Nil(t, v.Messages[0].Options)
	assert.True(t, v.Messages[1].Editable)
	assert.False(t, v.Messages[2].Editable)
	assert.Equal(t, []string{"1", "2", "3", "4"}, v.Messages[2].Options)
	assert.Equal(t, view.PlaceholderSelecting, v.Placeholder)
	assert.Equal(t, uint64(2), v.Generation)
}

func TestRender_FreeTextHasNoOptions(t *testing.T) {
	s := &domain.Session{
		ID:          "s1",
		CurrentNode: menu.AskQuestionNode,
		Mode:        domain.ModeFreeText,
		Suggestions: menu.RecommendedQuestions,
		Messages:    []domain.Message{{Text: "Please enter your question:", Sender: domain.SenderBot}},
	}

	v := view.Render(s, menu.Default())
	assert.Nil(t, v.Messages[0].Options)
	assert.Equal(t, view.PlaceholderFreeText, v.Placeholder)
	assert.Equal(t, menu.RecommendedQuestions[:view.VisibleSuggestions], v.Suggestions)
	assert.Equal(t, menu.RecommendedQuestions[view.VisibleSuggestions:], v.MoreSuggestions)
}

func TestRender_PendingAndVisualize(t *testing.T) {
	s := &domain.Session{
		ID:          "s1",
		CurrentNode: menu.QuestionResponse,
		Mode:        domain.ModeSelecting,
		Messages: []domain.Message{
			{Text: "26°C", Sender: domain.SenderBot, Visualize: "temperature last week"},
			{Text: "Processing…", Sender: domain.SenderBot, Pending: true},
		},
	}

	v := view.Render(s, menu.Default())
	assert.True(t, v.Messages[0].Visualize)
	assert.True(t, v.Messages[1].Pending)
	assert.Nil(t, v.Messages[1].Options, "no buttons while a call is in flight")
}

func TestRender_WithoutGraph(t *testing.T) {
	s := &domain.Session{ID: "s1", CurrentNode: menu.Root, Messages: []domain.Message{{Text: "hi", Sender: domain.SenderBot}}}
	v := view.Render(s, nil)
	assert.Nil(t, v.Messages[0].Options)
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{}, view.Lines(""))
	assert.Equal(t, []string{"a", "", "b"}, view.Lines("a\r\n\nb\n"))
}
