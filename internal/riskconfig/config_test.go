package riskconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/model"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg.Model.L2)
	assert.Equal(t, 0.5, *cfg.Model.L2)
	assert.Equal(t, 100, cfg.Model.MaxIterations)
	assert.Equal(t, 1e-8, cfg.Model.Tolerance)
	assert.Equal(t, "balanced", cfg.Model.ClassWeight)
	assert.Equal(t, 0.3, cfg.Split.TestSize)
	assert.Equal(t, int64(42), cfg.Split.Seed)
	assert.Equal(t, 0.45, cfg.Risk.LGD)
	assert.Equal(t, ScoringHoldout, cfg.Risk.ScoringSet)
	assert.Equal(t, 4, cfg.Risk.Workers)
	assert.True(t, cfg.SimulationEnabled())
	assert.Equal(t, 10000, cfg.Simulation.NumSimulations)
	assert.Equal(t, []float64{0.95, 0.99}, cfg.Simulation.ConfidenceLevels)
	assert.Equal(t, 5, cfg.Report.SampleRows)
	assert.Equal(t, "R$", cfg.Report.Currency)

	require.NoError(t, Validate(cfg))
	assert.Empty(t, Warn(cfg))

	assert.Equal(t, model.DefaultConfig(), cfg.ModelConfig())
}

func TestParse_PartialOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
model:
  l2: 0
risk:
  lgd: 0.6
  scoring_set: full
simulation:
  enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, 0.0, *cfg.Model.L2, "explicit zero survives defaults")
	assert.Equal(t, 100, cfg.Model.MaxIterations)
	assert.Equal(t, 0.6, cfg.Risk.LGD)
	assert.Equal(t, ScoringFull, cfg.Risk.ScoringSet)
	assert.False(t, cfg.SimulationEnabled(), "explicit false survives defaults")
	assert.Equal(t, 0.3, cfg.Split.TestSize)

	codes := []string{}
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"IN_SAMPLE_SCORING", "NO_REGULARISATION"}, codes)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("risk:\n  lgdd: 0.5\n"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"lgd above one", "risk:\n  lgd: 1.5\n", "risk.lgd"},
		{"negative lgd", "risk:\n  lgd: -0.1\n", "risk.lgd"},
		{"bad scoring set", "risk:\n  scoring_set: everything\n", "risk.scoring_set"},
		{"test size one", "split:\n  test_size: 1\n", "split.test_size"},
		{"bad class weight", "model:\n  class_weight: auto\n", "model.class_weight"},
		{"negative l2", "model:\n  l2: -1\n", "model.l2"},
		{"confidence out of range", "simulation:\n  confidence_levels: [0.95, 1.0]\n", "simulation.confidence_levels[1]"},
		{"too few simulations", "simulation:\n  num_simulations: 10\n", "simulation.num_simulations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %T: %v", err, err)
			require.NotEmpty(t, verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "risk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  sample_rows: 10\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Report.SampleRows)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b, "hash not deterministic")

	changed := Default()
	changed.Risk.LGD = 0.5
	c, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestYAML_RoundTrip(t *testing.T) {
	data, err := YAML(Default())
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSimulationConfig(t *testing.T) {
	cfg := Default()
	sim := cfg.SimulationConfig()
	assert.Equal(t, 10000, sim.NumSimulations)
	assert.Equal(t, int64(42), sim.Seed)

	sim.ConfidenceLevels[0] = 0.5
	assert.Equal(t, 0.95, cfg.Simulation.ConfidenceLevels[0], "returned slice is a copy")
}
