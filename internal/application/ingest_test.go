package application

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/aconomy-watch/internal/domain"
)

func TestIngestWellFormedFrame(t *testing.T) {
	t.Parallel()

	turn, err := Ingest(turnFrame(3, 7))
	require.NoError(t, err)

	assert.Equal(t, 3, turn.AgentID)
	assert.Equal(t, 7, turn.TurnIndex)
	assert.Equal(t, domain.AgentState{Gold: 0, Wheat: 5, Workers: 1, Buildings: []domain.Building{}}, turn.StartState)
	assert.Equal(t, []domain.Building{{Type: domain.BuildingFarm, Manned: false}}, turn.EndState.Buildings)
	assert.Equal(t, "expand farming", turn.Strategy)
	assert.Equal(t, "build_farm", turn.Action)
	assert.Equal(t, "more wheat next turn", turn.PostRationalisation)
	assert.False(t, turn.FullPrompt.Present)
	assert.False(t, turn.Error.Present)
}

func TestIngestOptionalFields(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"AgentID": 1, "Turn": 2,
		"StartState": {"Gold": 1, "Wheat": 2, "Workers": 3, "Buildings": null},
		"EndState": {"Gold": 4.0, "Wheat": 2, "Workers": 3, "Buildings": [{"Type": "Mine", "Manned": true}]},
		"Strategy": "", "Action": "mine", "PostRationalisation": "",
		"FullPrompt": [{"role": "system", "content": "you are a farmer"}, {"role": "assistant", "tool_calls": []}],
		"Error": "tool call rejected"
	}`)

	turn, err := Ingest(raw)
	require.NoError(t, err)

	assert.Empty(t, turn.StartState.Buildings)
	assert.Equal(t, 4, turn.EndState.Gold)
	assert.Equal(t, 1, turn.EndState.MannedCount(domain.BuildingMine))
	assert.Equal(t, domain.PromptOf(
		domain.PromptMessage{Role: "system", Content: "you are a farmer"},
		domain.PromptMessage{Role: "assistant"},
	), turn.FullPrompt)
	assert.Equal(t, domain.TurnErrorOf("tool call rejected"), turn.Error)
	assert.True(t, turn.Failed())
}

func TestIngestOmittedOptionalFieldsAreAbsent(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"AgentID": 1, "Turn": 0,
		"StartState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []},
		"EndState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []},
		"Strategy": "s", "Action": "a", "PostRationalisation": "p"
	}`)

	turn, err := Ingest(raw)
	require.NoError(t, err)
	assert.False(t, turn.FullPrompt.Present)
	assert.False(t, turn.Error.Present)
}

func TestIngestRejectsInvalidFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "malformed json",
			raw:   `{"AgentID": 1,`,
			field: "",
		},
		{
			name:  "empty frame",
			raw:   "  ",
			field: "",
		},
		{
			name:  "missing action",
			raw:   `{"AgentID": 1, "Turn": 0, "StartState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "EndState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "Strategy": "s", "PostRationalisation": "p"}`,
			field: "Action",
		},
		{
			name:  "negative gold",
			raw:   `{"AgentID": 1, "Turn": 0, "StartState": {"Gold": -1, "Wheat": 0, "Workers": 0, "Buildings": []}, "EndState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "Strategy": "s", "Action": "a", "PostRationalisation": "p"}`,
			field: "StartState.Gold",
		},
		{
			name:  "missing nested workers",
			raw:   `{"AgentID": 1, "Turn": 0, "StartState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "EndState": {"Gold": 0, "Wheat": 0, "Buildings": []}, "Strategy": "s", "Action": "a", "PostRationalisation": "p"}`,
			field: "EndState.Workers",
		},
		{
			name:  "strategy wrong type",
			raw:   `{"AgentID": 1, "Turn": 0, "StartState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "EndState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "Strategy": 12, "Action": "a", "PostRationalisation": "p"}`,
			field: "Strategy",
		},
		{
			name:  "fractional turn",
			raw:   `{"AgentID": 1, "Turn": 1.5, "StartState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "EndState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "Strategy": "s", "Action": "a", "PostRationalisation": "p"}`,
			field: "Turn",
		},
		{
			name:  "agent id beyond int64",
			raw:   `{"AgentID": 1e30, "Turn": 0, "StartState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "EndState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "Strategy": "s", "Action": "a", "PostRationalisation": "p"}`,
			field: "AgentID",
		},
		{
			name:  "prompt not a list",
			raw:   `{"AgentID": 1, "Turn": 0, "StartState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "EndState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "Strategy": "s", "Action": "a", "PostRationalisation": "p", "FullPrompt": "hello"}`,
			field: "FullPrompt",
		},
		{
			name:  "error not a string",
			raw:   `{"AgentID": 1, "Turn": 0, "StartState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "EndState": {"Gold": 0, "Wheat": 0, "Workers": 0, "Buildings": []}, "Strategy": "s", "Action": "a", "PostRationalisation": "p", "Error": {}}`,
			field: "Error",
		},
		{
			name:  "not an object",
			raw:   `[1, 2, 3]`,
			field: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Ingest([]byte(tt.raw))
			require.Error(t, err)

			var parseErr *domain.ParseError
			require.True(t, errors.As(err, &parseErr), "unexpected error type %T", err)
			assert.Equal(t, tt.field, parseErr.Field)
			assert.NotEmpty(t, parseErr.Reason)
		})
	}
}

func TestEncodeTurnIsReadBackByIngest(t *testing.T) {
	t.Parallel()

	turn := domain.TurnRecord{
		AgentID:   2,
		TurnIndex: 4,
		StartState: domain.AgentState{
			Gold: 1, Wheat: 9, Workers: 2,
			Buildings: []domain.Building{{Type: domain.BuildingFarm, Manned: true}},
		},
		EndState: domain.AgentState{
			Gold: 3, Wheat: 7, Workers: 2,
			Buildings: []domain.Building{{Type: domain.BuildingFarm, Manned: true}, {Type: domain.BuildingMine}},
		},
		Strategy:            "mine gold",
		Action:              "build_mine",
		PostRationalisation: "gold buys workers",
		FullPrompt:          domain.PromptOf(domain.PromptMessage{Role: "user", Content: "state"}),
		Error:               domain.TurnErrorOf("late"),
	}

	raw, err := EncodeTurn(turn)
	require.NoError(t, err)

	decoded, err := Ingest(raw)
	require.NoError(t, err)
	assert.Equal(t, turn, decoded)
}

func TestWireIntBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     json.Number
		want    int
		wantErr string
	}{
		{name: "max int", raw: json.Number(strconv.Itoa(math.MaxInt)), want: math.MaxInt},
		{name: "min int", raw: json.Number(strconv.Itoa(math.MinInt)), want: math.MinInt},
		{name: "zero fraction", raw: "12.0", want: 12},
		{name: "past int64", raw: "9223372036854775808", wantErr: "out of range"},
		{name: "exponent overflow", raw: "-1e30", wantErr: "out of range"},
		{name: "fraction", raw: "2.5", wantErr: "expected integer"},
	}
	if strconv.IntSize == 32 {
		tests = append(tests, struct {
			name    string
			raw     json.Number
			want    int
			wantErr string
		}{name: "past int32", raw: "2147483648", wantErr: "out of range"})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := wireInt("Turn", tt.raw)
			if tt.wantErr != "" {
				var parseErr *domain.ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, "Turn", parseErr.Field)
				assert.Contains(t, parseErr.Reason, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
