package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CaseSpec describes one SYRK problem in the sweep. Dimensions and offsets
// are in elements, not bytes. A zero lda or ldc means "tight": the minimum
// leading dimension implied by order and transpose.
type CaseSpec struct {
	Order     string  `yaml:"order"`
	Uplo      string  `yaml:"uplo"`
	TransA    string  `yaml:"transA"`
	N         int     `yaml:"n"`
	K         int     `yaml:"k"`
	Lda       int     `yaml:"lda"`
	Ldc       int     `yaml:"ldc"`
	OffA      int     `yaml:"offA"`
	OffC      int     `yaml:"offC"`
	Alpha     float64 `yaml:"alpha"`
	AlphaImag float64 `yaml:"alphaImag"`
	Beta      float64 `yaml:"beta"`
	BetaImag  float64 `yaml:"betaImag"`
}

type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
	} `yaml:"logger"`
	Metrics struct {
		ListenAddress string `yaml:"listenAddress"`
	} `yaml:"metrics"`
	ResourceGate struct {
		// Divisor is the share of global device memory reserved per
		// buffer the operation touches. The clBLAS heuristic is 3.
		Divisor int `yaml:"divisor"`
	} `yaml:"resourceGate"`
	Reference struct {
		AllowRowMajor bool `yaml:"allowRowMajor"`
	} `yaml:"reference"`
	Sweep struct {
		Seed  int64      `yaml:"seed"`
		Kinds []string   `yaml:"kinds"`
		Cases []CaseSpec `yaml:"cases"`
	} `yaml:"sweep"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Logger.Verbosity = "info"
	cfg.ResourceGate.Divisor = 3
	cfg.Sweep.Seed = 1234
	cfg.Sweep.Kinds = []string{"float32", "float64", "complex64", "complex128"}
	return cfg
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.ResourceGate.Divisor <= 0 {
		return nil, fmt.Errorf("resourceGate.divisor must be positive, got %d", cfg.ResourceGate.Divisor)
	}
	return cfg, nil
}
