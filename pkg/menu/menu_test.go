package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat/pkg/domain"
)

func TestDefault_IsValid(t *testing.T) {
	g := Default()
	assert.Equal(t, Root, g.Root())

	for _, n := range g.Nodes() {
		for _, o := range n.Options {
			assert.True(t, g.Has(o.Next), "%s option %s -> %s", n.Name, o.Label, o.Next)
		}
		if n.Next != "" {
			assert.True(t, g.Has(n.Next), "%s next -> %s", n.Name, n.Next)
		}
	}
}

func TestDefault_RootListsFourOptions(t *testing.T) {
	root, ok := Default().Node(Root)
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3", "4"}, root.Labels())
	assert.Contains(t, root.Message, "1. Building Specific Data")

	o, _ := root.Option("1")
	assert.Equal(t, BuildingNode, o.Next)
}

func TestDefault_IdentifierSlots(t *testing.T) {
	g := Default()

	building, _ := g.Node(BuildingNode)
	assert.Equal(t, domain.SlotVertical, building.Expects)
	o, _ := building.Option("1")
	assert.Equal(t, "AQ", o.Identifier)

	common, _ := g.Node(CommonBuildingNode)
	assert.Equal(t, domain.SlotBuilding, common.Expects)
	o, _ = common.Option("1")
	assert.Equal(t, "VN", o.Identifier)
	assert.True(t, o.Terminal)

	values, _ := g.Node(CommonVerticalNode)
	o, _ = values.Option("2")
	assert.Equal(t, domain.AccumulatorMax, o.Accumulator)

	floor, _ := g.Node(FloorNode)
	o, _ = floor.Option("11")
	assert.Equal(t, "99", o.Identifier)
	assert.Equal(t, CommonNode, o.Next)
}

func TestDefault_FreeTextNodes(t *testing.T) {
	g := Default()

	ask, _ := g.Node(AskQuestionNode)
	assert.True(t, ask.InputExpected)
	assert.Equal(t, domain.SlotQuestion, ask.Expects)
	assert.Equal(t, QuestionResponse, ask.Next)
	assert.Len(t, ask.RecommendedQuestions, 6)

	nodeID, _ := g.Node(NodeSpecificFinalNode)
	assert.Equal(t, domain.SlotNodeID, nodeID.Expects)
	assert.Equal(t, CommonNode, nodeID.Next)

	exit, _ := g.Node(ExitChatNode)
	assert.True(t, exit.Terminal)
	assert.Equal(t, MainMenu, exit.Next)
}

func TestDefault_Unreachable(t *testing.T) {
	assert.Equal(t, []string{NodeSpecificNode, NodeSp, FloorNode}, Default().Unreachable())
}
