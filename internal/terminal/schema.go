package terminal

// File is the top-level structure of a terminal reference YAML file.
type File struct {
	Terminals []TerminalSpec `yaml:"terminals"`
}

// TerminalSpec describes one terminal group and its quay.
type TerminalSpec struct {
	Code        string      `yaml:"code"`
	Name        string      `yaml:"name,omitempty"`
	QuayStart   float64     `yaml:"quay_start"`
	QuayEnd     float64     `yaml:"quay_end"`
	Orientation string      `yaml:"orientation,omitempty"` // "ascending" (default) or "descending"
	Berths      []BerthSpec `yaml:"berths"`
}

// BerthSpec is one berth. MeterStart and MeterEnd are optional and must be
// given together.
type BerthSpec struct {
	Code       string   `yaml:"code"`
	MeterStart *float64 `yaml:"meter_start,omitempty"`
	MeterEnd   *float64 `yaml:"meter_end,omitempty"`
}
