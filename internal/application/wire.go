package application

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/bnema/aconomy-watch/internal/domain"
)

// wireTurn mirrors one frame pushed by the simulation server.
type wireTurn struct {
	AgentID             json.Number          `json:"AgentID"`
	Turn                json.Number          `json:"Turn"`
	StartState          wireState            `json:"StartState"`
	EndState            wireState            `json:"EndState"`
	Strategy            string               `json:"Strategy"`
	Action              string               `json:"Action"`
	FullPrompt          *[]wirePromptMessage `json:"FullPrompt"`
	PostRationalisation string               `json:"PostRationalisation"`
	Error               *string              `json:"Error"`
}

type wireState struct {
	Gold      json.Number    `json:"Gold"`
	Wheat     json.Number    `json:"Wheat"`
	Workers   json.Number    `json:"Workers"`
	Buildings []wireBuilding `json:"Buildings"`
}

type wireBuilding struct {
	Type   string `json:"Type"`
	Manned bool   `json:"Manned"`
}

type wirePromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// EncodeTurn renders a turn back into the server's frame format.
func EncodeTurn(turn domain.TurnRecord) ([]byte, error) {
	wire := wireTurn{
		AgentID:             json.Number(fmt.Sprint(turn.AgentID)),
		Turn:                json.Number(fmt.Sprint(turn.TurnIndex)),
		StartState:          toWireState(turn.StartState),
		EndState:            toWireState(turn.EndState),
		Strategy:            turn.Strategy,
		Action:              turn.Action,
		PostRationalisation: turn.PostRationalisation,
	}
	if turn.FullPrompt.Present {
		messages := make([]wirePromptMessage, 0, len(turn.FullPrompt.Messages))
		for _, message := range turn.FullPrompt.Messages {
			messages = append(messages, wirePromptMessage{Role: message.Role, Content: message.Content})
		}
		wire.FullPrompt = &messages
	}
	if turn.Error.Present {
		message := turn.Error.Message
		wire.Error = &message
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode turn: %w", err)
	}
	return data, nil
}

func toWireState(state domain.AgentState) wireState {
	buildings := make([]wireBuilding, 0, len(state.Buildings))
	for _, building := range state.Buildings {
		buildings = append(buildings, wireBuilding{Type: string(building.Type), Manned: building.Manned})
	}

	return wireState{
		Gold:      json.Number(fmt.Sprint(state.Gold)),
		Wheat:     json.Number(fmt.Sprint(state.Wheat)),
		Workers:   json.Number(fmt.Sprint(state.Workers)),
		Buildings: buildings,
	}
}

func fromWire(wire wireTurn) (domain.TurnRecord, error) {
	agentID, err := wireInt("AgentID", wire.AgentID)
	if err != nil {
		return domain.TurnRecord{}, err
	}
	turnIndex, err := wireInt("Turn", wire.Turn)
	if err != nil {
		return domain.TurnRecord{}, err
	}
	start, err := fromWireState("StartState", wire.StartState)
	if err != nil {
		return domain.TurnRecord{}, err
	}
	end, err := fromWireState("EndState", wire.EndState)
	if err != nil {
		return domain.TurnRecord{}, err
	}

	turn := domain.TurnRecord{
		AgentID:             agentID,
		TurnIndex:           turnIndex,
		StartState:          start,
		EndState:            end,
		Strategy:            wire.Strategy,
		Action:              wire.Action,
		PostRationalisation: wire.PostRationalisation,
	}
	if wire.FullPrompt != nil {
		messages := make([]domain.PromptMessage, 0, len(*wire.FullPrompt))
		for _, message := range *wire.FullPrompt {
			messages = append(messages, domain.PromptMessage{Role: message.Role, Content: message.Content})
		}
		turn.FullPrompt = domain.PromptOf(messages...)
	}
	if wire.Error != nil {
		turn.Error = domain.TurnErrorOf(*wire.Error)
	}

	return turn, nil
}

func fromWireState(field string, wire wireState) (domain.AgentState, error) {
	gold, err := wireCount(field+".Gold", wire.Gold)
	if err != nil {
		return domain.AgentState{}, err
	}
	wheat, err := wireCount(field+".Wheat", wire.Wheat)
	if err != nil {
		return domain.AgentState{}, err
	}
	workers, err := wireCount(field+".Workers", wire.Workers)
	if err != nil {
		return domain.AgentState{}, err
	}

	buildings := make([]domain.Building, 0, len(wire.Buildings))
	for _, building := range wire.Buildings {
		buildings = append(buildings, domain.Building{Type: domain.BuildingType(building.Type), Manned: building.Manned})
	}

	return domain.AgentState{Gold: gold, Wheat: wheat, Workers: workers, Buildings: buildings}, nil
}

// wireInt accepts integral JSON numbers, including ones written with a zero fraction,
// that fit in an int on this platform.
func wireInt(field string, raw json.Number) (int, error) {
	value, err := raw.Int64()
	if err != nil {
		f, ferr := raw.Float64()
		if ferr != nil || f != math.Trunc(f) {
			return 0, &domain.ParseError{Field: field, Reason: fmt.Sprintf("expected integer, got %q", raw.String())}
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, &domain.ParseError{Field: field, Reason: fmt.Sprintf("integer %s out of range", raw.String())}
		}
		value = int64(f)
	}
	if value < math.MinInt || value > math.MaxInt {
		return 0, &domain.ParseError{Field: field, Reason: fmt.Sprintf("integer %s out of range", raw.String())}
	}
	return int(value), nil
}

func wireCount(field string, raw json.Number) (int, error) {
	value, err := wireInt(field, raw)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, &domain.ParseError{Field: field, Reason: fmt.Sprintf("must be non-negative, got %d", value)}
	}
	return value, nil
}
