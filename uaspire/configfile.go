package uaspire

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"gopkg.in/yaml.v3"
)

// assayFile is the YAML form of Config. Omitted fields keep their
// DefaultConfig values.
type assayFile struct {
	Barcodes1      []string `yaml:"barcodes1"`
	Barcodes2      []string `yaml:"barcodes2"`
	BarcodeLen     *int     `yaml:"barcode_len"`
	Constant       *string  `yaml:"constant"`
	ConstantWindow []int    `yaml:"constant_window"`
	MaxNCount      *int     `yaml:"max_n_count"`
	NonFlipped     *string  `yaml:"non_flipped"`
	Flipped        *string  `yaml:"flipped"`
	DiscOffset     *int     `yaml:"disc_offset"`
	RBSLen         *int     `yaml:"rbs_len"`
}

// ParseConfig parses a YAML assay description on top of DefaultConfig, for
// example:
//
//   barcodes1: [ATCACG, CGATGT]
//   constant_window: [7, 24]
//   rbs_len: 17
//
// The result is validated.
func ParseConfig(data []byte) (Config, error) {
	var f assayFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, errors.E(errors.Invalid, err, "parse assay config")
	}
	cfg := DefaultConfig()
	if f.Barcodes1 != nil {
		cfg.Barcodes1 = NewBarcodeSet(f.Barcodes1...)
	}
	if f.Barcodes2 != nil {
		cfg.Barcodes2 = NewBarcodeSet(f.Barcodes2...)
	}
	if f.ConstantWindow != nil {
		if len(f.ConstantWindow) != 2 {
			return Config{}, errors.E(errors.Invalid, "constant_window must have two elements")
		}
		cfg.ConstantWindow = [2]int{f.ConstantWindow[0], f.ConstantWindow[1]}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt(&cfg.BarcodeLen, f.BarcodeLen)
	setInt(&cfg.MaxNCount, f.MaxNCount)
	setInt(&cfg.DiscOffset, f.DiscOffset)
	setInt(&cfg.RBSLen, f.RBSLen)
	setString(&cfg.Constant, f.Constant)
	setString(&cfg.NonFlipped, f.NonFlipped)
	setString(&cfg.Flipped, f.Flipped)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML assay description from path. See ParseConfig.
func LoadConfig(ctx context.Context, path string) (Config, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return Config{}, errors.E(err, "read assay config", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.E(err, path)
	}
	return cfg, nil
}
