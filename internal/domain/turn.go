package domain

type BuildingType string

const (
	BuildingFarm BuildingType = "Farm"
	BuildingMine BuildingType = "Mine"
)

type Building struct {
	Type   BuildingType
	Manned bool
}

type AgentState struct {
	Gold      int
	Wheat     int
	Workers   int
	Buildings []Building
}

// MannedCount returns how many buildings of the given type have a worker assigned.
func (s AgentState) MannedCount(kind BuildingType) int {
	count := 0
	for _, building := range s.Buildings {
		if building.Type == kind && building.Manned {
			count++
		}
	}
	return count
}

type PromptMessage struct {
	Role    string
	Content string
}

// Prompt is the optional full prompt attached to a turn. Present is false when the
// server sent null or omitted the field.
type Prompt struct {
	Messages []PromptMessage
	Present  bool
}

func PromptOf(messages ...PromptMessage) Prompt {
	return Prompt{Messages: messages, Present: true}
}

// TurnError is the optional agent-side error reported for a turn.
type TurnError struct {
	Message string
	Present bool
}

func TurnErrorOf(message string) TurnError {
	return TurnError{Message: message, Present: true}
}

type TurnRecord struct {
	AgentID             int
	TurnIndex           int
	StartState          AgentState
	EndState            AgentState
	Strategy            string
	Action              string
	PostRationalisation string
	FullPrompt          Prompt
	Error               TurnError
}

// Failed reports whether the agent reported an error for this turn.
func (t TurnRecord) Failed() bool {
	return t.Error.Present && t.Error.Message != ""
}
