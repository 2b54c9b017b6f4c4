// Package menu declares the built-in smart-city conversation tree.
package menu

import (
	"strconv"

	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/dsl"
	"github.com/aretw0/citychat/pkg/graph"
)

// Node names of the built-in tree.
const (
	Root                  = "Root"
	MainMenu              = "MainMenu"
	CommonNode            = "CommonNode"
	BuildingNode          = "BuildingNode"
	CommonBuildingNode    = "CommonBuildingNode"
	VerticalNode          = "VerticalNode"
	CommonVerticalNode    = "CommonVerticalNode"
	NodeSpecificNode      = "NodeSpecificNode"
	NodeSp                = "NodeSp"
	FloorNode             = "FloorNode"
	NodeSpecificFinalNode = "NodeSpecificFinalNode"
	ConversationalMode    = "ConversationalModeOptions"
	AskQuestionNode       = "AskQuestionNode"
	QuestionResponse      = "QuestionResponseOptionsNode"
	LocationRefineNode    = "LocationRefineNode"
	ExitChatNode          = "ExitChatNode"
)

const menuChoices = "1. Building Specific Data\n2. Vertical Specific Data\n3. Node Specific Data\n4. Ask a Question"

const verticalChoices = "1. Air Quality\n2. Energy monitoring\n3. Solar\n4. Smart Room\n5. Weather\n6. Weather Monitoring\n7. WiSun\n8. Crowd Monitoring"

const buildingPrompt = "Which building data do you need? Please select a building by entering the corresponding number:\n1. Vindhya\n2. Nilgiri\n3. Admin\n4. T-Hub\n5. Kohli\n6. Anand"

// Verticals are the vertical codes in menu order.
var Verticals = []string{"AQ", "EM", "SL", "SR", "WE", "WM", "WN", "CM"}

// Buildings are the building codes in menu order.
var Buildings = []string{"VN", "NI", "AD", "TH", "KB", "AN"}

// Floors are the floor codes in menu order.
var Floors = []string{"00", "01", "02", "03", "04", "90", "91", "96", "97", "98", "99"}

// RecommendedQuestions are offered when the user chooses to ask a question.
var RecommendedQuestions = []string{
	"How is the solar panel performance at Admin Block?",
	"What are the current readings from the Air Quality sensor at T-Hub?",
	"What are the current readings from the Solar Panel sensor at Vindhya?",
	"What are the current readings from the Solar Panel sensor at Admin Block?",
	"What are the current readings from the Air Quality sensor at kadamba Nivas?",
	"What are the current readings from the Water Flow sensor at Bodh Bhavan 1?",
}

// Builder returns the builder holding the built-in tree so callers can extend it.
func Builder() *dsl.Builder {
	b := dsl.New()

	mainMenu(b.Add(Root), "Hey 👋, how can I help you? Please choose an option by entering the corresponding number:\n"+menuChoices)
	mainMenu(b.Add(MainMenu), "Please choose an option by entering the corresponding number:\n"+menuChoices)
	mainMenu(b.Add(CommonNode), "The corresponding data is given. Which data do you need? Please choose an option by entering the corresponding number:\n"+menuChoices)

	verticals(b.Add(BuildingNode).
		Say("You chose Building Specific Data. Please select a vertical by entering the corresponding number:\n"+verticalChoices),
		CommonBuildingNode)

	buildings := b.Add(CommonBuildingNode).Say(buildingPrompt).Expects(domain.SlotBuilding)
	for i, code := range Buildings {
		buildings.Option(label(i), CommonNode, dsl.Identifier(code), dsl.Fetch())
	}

	verticals(b.Add(VerticalNode).
		Say("You chose Vertical Specific Data. Please select a vertical by entering the corresponding number:\n"+verticalChoices),
		CommonVerticalNode)

	b.Add(CommonVerticalNode).
		Say("Which value do you need? Please select an option by entering the corresponding number:\n1. Average value\n2. Maximum value\n3. Minimum value").
		Option("1", CommonNode, dsl.Accumulate(domain.AccumulatorAvg), dsl.Fetch()).
		Option("2", CommonNode, dsl.Accumulate(domain.AccumulatorMax), dsl.Fetch()).
		Option("3", CommonNode, dsl.Accumulate(domain.AccumulatorMin), dsl.Fetch())

	// Browsing by floor is declared but not linked from the main menus.
	verticals(b.Add(NodeSpecificNode).
		Say("You chose Node Specific Data. Please select a vertical by entering the corresponding number:\n"+verticalChoices),
		NodeSp)

	nodeSp := b.Add(NodeSp).Say(buildingPrompt).Expects(domain.SlotBuilding)
	for i, code := range Buildings {
		nodeSp.Option(label(i), FloorNode, dsl.Identifier(code))
	}

	floors := b.Add(FloorNode).
		Say("Please select a floor by entering the corresponding number:\n1. Ground floor\n2. First floor\n3. Second floor\n4. Third floor\n5. Fourth floor\n6. Library\n7. Computer Lab\n8. Overhead Tank\n9. SS Tank\n10. Sump\n11. Parking").
		Expects(domain.SlotFloor)
	for i, code := range Floors {
		floors.Option(label(i), CommonNode, dsl.Identifier(code), dsl.Fetch())
	}

	b.Add(NodeSpecificFinalNode).
		Say("Type the node ID:").
		Input(domain.SlotNodeID, CommonNode)

	b.Add(ConversationalMode).
		Say("You chose Ask a Question. Please select an option by entering the corresponding number:\n1. User Input\n2. Back to Menu").
		Option("1", AskQuestionNode, dsl.FreeText()).
		Option("2", MainMenu)

	b.Add(AskQuestionNode).
		Say("Please enter your question:").
		Input(domain.SlotQuestion, QuestionResponse).
		Recommend(RecommendedQuestions...)

	b.Add(QuestionResponse).
		Say("Would you like to:\n1. Ask Another Question\n2. Back to the menu\n3. Exit Chat").
		Option("1", AskQuestionNode, dsl.FreeText()).
		Option("2", MainMenu).
		Option("3", ExitChatNode)

	b.Add(LocationRefineNode).
		Say("Would you like the indoor or outdoor reading?").
		Input(domain.SlotLocation, QuestionResponse).
		Recommend("Indoor", "Outdoor")

	b.Add(ExitChatNode).
		Say("Thank you for using the SCRC Chat Assistant. Goodbye!").
		Terminal(MainMenu)

	return b
}

// Default returns the built-in smart-city tree. It panics if the tree is invalid.
func Default() *graph.Graph {
	g, err := Builder().Build(Root)
	if err != nil {
		panic(err)
	}
	return g
}

func mainMenu(n *dsl.NodeBuilder, message string) {
	n.Say(message).
		Option("1", BuildingNode).
		Option("2", VerticalNode).
		Option("3", NodeSpecificFinalNode, dsl.FreeText()).
		Option("4", ConversationalMode)
}

func verticals(n *dsl.NodeBuilder, next string) {
	n.Expects(domain.SlotVertical)
	for i, code := range Verticals {
		n.Option(label(i), next, dsl.Identifier(code))
	}
}

func label(i int) string {
	return strconv.Itoa(i + 1)
}
