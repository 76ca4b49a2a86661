package models

import "time"

// Horizon selects the forecast range: short is 24 hourly steps, medium
// is 7 daily steps.
type Horizon string

const (
	HorizonShort  Horizon = "short"
	HorizonMedium Horizon = "medium"
)

// Valid reports whether the horizon is a supported value.
func (h Horizon) Valid() bool {
	return h == HorizonShort || h == HorizonMedium
}

// PredictionSteps returns the number of future steps forecast in one
// inference call.
func (h Horizon) PredictionSteps() int {
	if h == HorizonMedium {
		return 7
	}
	return 24
}

// ResampleInterval returns the time grid readings are aggregated onto
// before windowing.
func (h Horizon) ResampleInterval() time.Duration {
	if h == HorizonMedium {
		return 24 * time.Hour
	}
	return time.Hour
}

// StepInterval returns the spacing between forecast timestamps.
func (h Horizon) StepInterval() time.Duration {
	return h.ResampleInterval()
}

// SequenceLength returns the input window length for this horizon.
// Short-term models use their configured length; medium-term models
// look back 7 daily rows.
func (h Horizon) SequenceLength(cfg ModelConfig) int {
	if h == HorizonMedium {
		return 7
	}
	return cfg.SequenceLength
}

// DataKind identifies which sensor stream feeds a model.
type DataKind string

const (
	DataKindPlant DataKind = "plant"
	DataKindFish  DataKind = "fish"
)

// ModelType identifies one forecastable metric. The set is closed: every
// type is bound to its feature columns, target and sequence length here,
// so a typo surfaces as UnknownModelType before any pipeline work.
type ModelType string

const (
	ModelHeight        ModelType = "height"
	ModelFishTemp      ModelType = "fish_temp"
	ModelFishPh        ModelType = "fish_ph"
	ModelFishEC        ModelType = "fish_ec"
	ModelFishTurbidity ModelType = "fish_turbidity"
	ModelPlantTemp     ModelType = "plant_temp"
	ModelPlantHumidity ModelType = "plant_humidity"
)

// ModelConfig binds a model type to its data pipeline configuration.
type ModelConfig struct {
	SequenceLength int
	Units          int
	Features       []string
	Target         string
	Kind           DataKind
	Description    string
}

var modelConfigs = map[ModelType]ModelConfig{
	// Plant height prediction is the primary growth forecasting target.
	ModelHeight: {
		SequenceLength: 24,
		Units:          128,
		Features:       []string{"height", "temperature", "humidity", "pressure"},
		Target:         "height",
		Kind:           DataKindPlant,
		Description:    "Plant height prediction using environmental factors",
	},
	ModelFishTemp: {
		SequenceLength: 48,
		Units:          64,
		Features:       []string{"water_temperature", "ec_value", "tds", "turbidity", "water_ph"},
		Target:         "water_temperature",
		Kind:           DataKindFish,
		Description:    "Fish tank water temperature prediction",
	},
	ModelFishPh: {
		SequenceLength: 48,
		Units:          64,
		Features:       []string{"water_ph", "water_temperature", "ec_value", "tds", "turbidity"},
		Target:         "water_ph",
		Kind:           DataKindFish,
		Description:    "Fish tank pH level prediction",
	},
	ModelFishEC: {
		SequenceLength: 48,
		Units:          64,
		Features:       []string{"ec_value", "tds", "water_temperature", "water_ph", "turbidity"},
		Target:         "ec_value",
		Kind:           DataKindFish,
		Description:    "Fish tank electrical conductivity prediction",
	},
	ModelFishTurbidity: {
		SequenceLength: 48,
		Units:          64,
		Features:       []string{"turbidity", "water_temperature", "water_ph", "ec_value", "tds"},
		Target:         "turbidity",
		Kind:           DataKindFish,
		Description:    "Fish tank turbidity prediction (NTU)",
	},
	ModelPlantTemp: {
		SequenceLength: 24,
		Units:          64,
		Features:       []string{"temperature", "humidity", "pressure", "height"},
		Target:         "temperature",
		Kind:           DataKindPlant,
		Description:    "Plant environment temperature prediction",
	},
	ModelPlantHumidity: {
		SequenceLength: 24,
		Units:          64,
		Features:       []string{"humidity", "temperature", "pressure", "height"},
		Target:         "humidity",
		Kind:           DataKindPlant,
		Description:    "Plant environment humidity prediction",
	},
}

// Config returns the pipeline configuration for a model type.
func (m ModelType) Config() (ModelConfig, bool) {
	cfg, ok := modelConfigs[m]
	return cfg, ok
}

// AllModelTypes returns the supported model types in a stable order.
func AllModelTypes() []ModelType {
	return []ModelType{
		ModelHeight,
		ModelFishTemp,
		ModelFishPh,
		ModelFishEC,
		ModelFishTurbidity,
		ModelPlantTemp,
		ModelPlantHumidity,
	}
}
