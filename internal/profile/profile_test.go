package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanchoGithub/truco-ai/engine/ai"
)

func TestExportImportRoundtrip(t *testing.T) {
	p := New()
	p.OpponentModel.Mano.EnvidoCallThreshold = 28.5
	p.OpponentModel.ChainBluffRate = 0.42
	p.CardPlayStats["7E"] = CardStat{Played: 3, Led: 2, WonTrick: 1}
	p.CaseMemory = []ai.Case{{Class: ai.ClassTruco, StrengthBucket: 4, RoundWon: true, PointsSwing: 2}}
	p.EnvidoHistory = []EnvidoRecord{{Round: 1, Caller: "player", Call: "envido", Points: 2, Accepted: true}}

	data, err := p.Export()
	require.NoError(t, err)

	got, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, got.Version)
	assert.InDelta(t, 28.5, got.OpponentModel.Mano.EnvidoCallThreshold, 1e-9)
	assert.InDelta(t, 0.42, got.OpponentModel.ChainBluffRate, 1e-9)
	assert.Equal(t, CardStat{Played: 3, Led: 2, WonTrick: 1}, got.CardPlayStats["7E"])
	require.Len(t, got.CaseMemory, 1)
	assert.True(t, got.CaseMemory[0].RoundWon)
	require.Len(t, got.EnvidoHistory, 1)
	assert.Equal(t, "envido", got.EnvidoHistory[0].Call)
}

func TestImportRejectsMissingSections(t *testing.T) {
	cases := map[string]string{
		"no opponent model": `{"version":1,"cardPlayStats":{}}`,
		"no card stats":     `{"version":1,"opponentModel":{}}`,
		"empty object":      `{}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Import([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	_, err := Import([]byte(`{"opponentModel":`))
	assert.Error(t, err)

	_, err = Import([]byte(`not json at all`))
	assert.Error(t, err)
}

func TestImportFillsNilSections(t *testing.T) {
	got, err := Import([]byte(`{"opponentModel":null,"cardPlayStats":null}`))
	require.NoError(t, err)
	require.NotNil(t, got.OpponentModel)
	require.NotNil(t, got.CardPlayStats)
}
