package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/modelgraph/pkg/errors"
)

// =============================================================================
// Selectors
// =============================================================================

// Algorithm selects the backend used for a configuration block.
type Algorithm string

const (
	AlgorithmRandom  Algorithm = "random"
	AlgorithmLayered Algorithm = "layered"
	AlgorithmForce   Algorithm = "force"
	AlgorithmStress  Algorithm = "stress"
)

// Direction is the rank direction of the layered algorithm.
type Direction string

const (
	DirectionUp    Direction = "UP"
	DirectionDown  Direction = "DOWN"
	DirectionLeft  Direction = "LEFT"
	DirectionRight Direction = "RIGHT"
)

// ForceAlgorithm selects the force-directed variant.
type ForceAlgorithm string

const (
	// ForceFDP is the Fruchterman-Reingold spring model.
	ForceFDP ForceAlgorithm = "fdp"
	// ForceSFDP is the multiscale variant for large graphs.
	ForceSFDP ForceAlgorithm = "sfdp"
)

// Subset selects which edges constrain a block's layout.
type Subset string

const (
	SubsetAll            Subset = "ALL"
	SubsetGeneralization Subset = "GENERALIZATION"
	SubsetProfile        Subset = "PROFILE"
)

// =============================================================================
// Config
// =============================================================================

// Block configures one layout phase.
type Block struct {
	Algorithm               Algorithm      `toml:"algorithm" yaml:"algorithm" json:"algorithm" validate:"required,oneof=random layered force stress"`
	Direction               Direction      `toml:"direction" yaml:"direction" json:"direction,omitempty" validate:"omitempty,oneof=UP DOWN LEFT RIGHT"`
	LayerGap                float64        `toml:"layer_gap" yaml:"layer_gap" json:"layer_gap,omitempty" validate:"gte=0"`
	InLayerGap              float64        `toml:"in_layer_gap" yaml:"in_layer_gap" json:"in_layer_gap,omitempty" validate:"gte=0"`
	EdgeLength              float64        `toml:"edge_length" yaml:"edge_length" json:"edge_length,omitempty" validate:"gte=0"`
	ForceAlgorithm          ForceAlgorithm `toml:"force_algorithm" yaml:"force_algorithm" json:"force_algorithm,omitempty" validate:"omitempty,oneof=fdp sfdp"`
	MinDistanceBetweenNodes float64        `toml:"min_distance_between_nodes" yaml:"min_distance_between_nodes" json:"min_distance_between_nodes,omitempty" validate:"gte=0"`
	ShouldBeConsidered      bool           `toml:"should_be_considered" yaml:"should_be_considered" json:"should_be_considered"`
	ConstrainedNodes        Subset         `toml:"constrained_nodes" yaml:"constrained_nodes" json:"constrained_nodes,omitempty" validate:"omitempty,oneof=ALL GENERALIZATION PROFILE"`
	DoubleRun               bool           `toml:"double_run" yaml:"double_run" json:"double_run,omitempty"`
}

// Config is the full layout configuration of one invocation.
type Config struct {
	// Seed drives every randomized backend.
	Seed uint64 `toml:"seed" yaml:"seed" json:"seed"`

	Main Block `toml:"main" yaml:"main" json:"main"`

	// General configures the generalization sub-layout. Nil disables it.
	General *Block `toml:"general" yaml:"general" json:"general,omitempty" validate:"omitempty"`
}

// DefaultSeed is the seed used when a configuration does not set one.
const DefaultSeed = uint64(42)

// DefaultConfig returns a layered top-down main layout preceded by a
// layered generalization layout in double-run mode.
func DefaultConfig() Config {
	return Config{
		Seed: DefaultSeed,
		Main: Block{
			Algorithm:               AlgorithmLayered,
			Direction:               DirectionDown,
			LayerGap:                100,
			InLayerGap:              100,
			EdgeLength:              200,
			ForceAlgorithm:          ForceFDP,
			MinDistanceBetweenNodes: 50,
			ShouldBeConsidered:      true,
			ConstrainedNodes:        SubsetAll,
		},
		General: &Block{
			Algorithm:               AlgorithmLayered,
			Direction:               DirectionUp,
			LayerGap:                60,
			InLayerGap:              60,
			EdgeLength:              150,
			ForceAlgorithm:          ForceFDP,
			MinDistanceBetweenNodes: 30,
			ShouldBeConsidered:      true,
			ConstrainedNodes:        SubsetGeneralization,
			DoubleRun:               true,
		},
	}
}

// Subset returns the effective edge subset; unset means all edges.
func (b Block) Subset() Subset {
	if b.ConstrainedNodes == "" {
		return SubsetAll
	}
	return b.ConstrainedNodes
}

// generalEnabled reports whether the generalization block takes part.
func (c Config) generalEnabled() bool {
	return c.General != nil && c.General.ShouldBeConsidered
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every selector and numeric field. Unknown algorithm and
// subset selectors get their own error codes so callers can tell them apart.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid layout config")
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	code := errors.ErrCodeInvalidConfig
	switch fe.Field() {
	case "algorithm":
		code = errors.ErrCodeInvalidAlgorithm
	case "constrained_nodes":
		code = errors.ErrCodeInvalidSubset
	}
	switch fe.Tag() {
	case "required":
		return errors.New(code, "%s: field is required", field)
	case "oneof":
		return errors.New(code, "%s: %q is not one of [%s]", field, fe.Value(), fe.Param())
	case "gte":
		return errors.New(code, "%s: must be at least %s", field, fe.Param())
	}
	return errors.New(code, "%s: validation failed (%s)", field, fe.Tag())
}

// =============================================================================
// Loading
// =============================================================================

// LoadConfigFile decodes a TOML, YAML or JSON file on top of
// [DefaultConfig] and validates the result.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	cfg, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data in the format named by ext (".toml", ".yaml",
// ".yml" or ".json") on top of [DefaultConfig].
func ParseConfig(data []byte, ext string) (Config, error) {
	cfg := DefaultConfig()
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		_, err = toml.Decode(string(data), &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q", ext)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
