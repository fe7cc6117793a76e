package scoring

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chatlead_backend/internal/leads/domain"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Weights != Default().Weights {
		t.Errorf("weights = %+v, want defaults", cfg.Weights)
	}
	if cfg.Bands != Default().Bands {
		t.Errorf("bands = %+v, want defaults", cfg.Bands)
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	content := []byte(`
weights:
  engagement: 0.1
  intent: 0.4
  qualification: 0.3
  urgency: 0.1
  fit: 0.1
bands:
  medium: 30
  high: 65
  urgent: 90
icp:
  industries:
    - saas
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Weights.Intent != 0.4 {
		t.Errorf("intent weight = %v, want 0.4", cfg.Weights.Intent)
	}
	if cfg.Bands.High != 65 {
		t.Errorf("high band = %v, want 65", cfg.Bands.High)
	}
	if !cfg.ICP.Configured() {
		t.Error("ICP profile not loaded")
	}
	// Untouched sections keep their defaults.
	if cfg.Disqualification.Window != 3 {
		t.Errorf("disqualification window = %d, want default 3", cfg.Disqualification.Window)
	}
	if len(cfg.Keywords.BuyingIntent) == 0 {
		t.Error("default keywords lost during overlay")
	}
}

func TestLoadRejectsInvalidOverrides(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "negative weight",
			content: `
weights:
  engagement: -1
`,
		},
		{
			name: "bands out of order",
			content: `
bands:
  medium: 70
  high: 60
  urgent: 90
`,
		},
		{
			name:    "malformed yaml",
			content: "weights: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scoring.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() accepted invalid config")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() accepted missing file")
	}
}

func TestWeightsValidate(t *testing.T) {
	valid := Weights{Engagement: 0.5, Intent: 0.5}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v for valid weights", err)
	}

	if err := (Weights{}).Validate(); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("Validate() = %v for zero weights, want ErrInvalidWeights", err)
	}
}

func TestConfigValidateStageThresholds(t *testing.T) {
	cfg := Default()
	cfg.StageThresholds[domain.StageQualified] = 10
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted decreasing stage thresholds")
	}

	cfg = Default()
	delete(cfg.StageThresholds, domain.StageTimelineDiscussion)
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted missing stage threshold")
	}
}
