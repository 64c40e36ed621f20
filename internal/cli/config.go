package cli

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/matzehuels/bricklayers/pkg/errors"
)

// fileConfig is the TOML config file. Keys use the flag names:
//
//	layerHeight = 0.2
//	extrusionMultiplier = 1.05
//	nonPlanar = 1
//	amplitude = 0.08
//	wallOrder = "inner-first"
//
// Fields are pointers so that keys missing from the file leave the flag
// defaults alone.
type fileConfig struct {
	LayerHeight         *float64 `toml:"layerHeight"`
	ExtrusionMultiplier *float64 `toml:"extrusionMultiplier"`
	BrickShift          *int     `toml:"brickShift"`
	NonPlanar           *int     `toml:"nonPlanar"`
	Amplitude           *float64 `toml:"amplitude"`
	Frequency           *float64 `toml:"frequency"`
	WaveResolution      *float64 `toml:"waveResolution"`
	WallReorder         *int     `toml:"wallReorder"`
	WallOrder           *string  `toml:"wallOrder"`
	Dialect             *string  `toml:"dialect"`
}

// loadConfig reads the config file at path, or the default config file when
// path is empty. A missing default file is not an error.
func loadConfig(path string, logger *log.Logger) (fileConfig, error) {
	var cfg fileConfig

	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s does not exist", path)
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config file %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidOption, err, "parse config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logger.Warn("ignoring unknown config keys", "file", path, "keys", strings.Join(keys, ", "))
	}
	logger.Debug("loaded config file", "path", path)
	return cfg, nil
}

// apply copies the file values into f for every flag not set on the
// command line.
func (cfg fileConfig) apply(fs *pflag.FlagSet, f *transformFlags) {
	setFloat(fs, flagLayerHeight, cfg.LayerHeight, &f.layerHeight)
	setFloat(fs, flagExtrusionMultiplier, cfg.ExtrusionMultiplier, &f.extrusionMultiplier)
	setInt(fs, flagBrickShift, cfg.BrickShift, &f.brickShift)
	setInt(fs, flagNonPlanar, cfg.NonPlanar, &f.nonPlanar)
	setFloat(fs, flagAmplitude, cfg.Amplitude, &f.amplitude)
	setFloat(fs, flagFrequency, cfg.Frequency, &f.frequency)
	setFloat(fs, flagWaveResolution, cfg.WaveResolution, &f.waveResolution)
	setInt(fs, flagWallReorder, cfg.WallReorder, &f.wallReorder)
	setString(fs, flagWallOrder, cfg.WallOrder, &f.wallOrder)
	setString(fs, flagDialect, cfg.Dialect, &f.dialect)
}

func setFloat(fs *pflag.FlagSet, name string, v *float64, dst *float64) {
	if v != nil && !fs.Changed(name) {
		*dst = *v
	}
}

func setInt(fs *pflag.FlagSet, name string, v *int, dst *int) {
	if v != nil && !fs.Changed(name) {
		*dst = *v
	}
}

func setString(fs *pflag.FlagSet, name string, v *string, dst *string) {
	if v != nil && !fs.Changed(name) {
		*dst = *v
	}
}

// resolve loads the config file and merges it with the flags.
func (f *transformFlags) resolve(fs *pflag.FlagSet, logger *log.Logger) error {
	cfg, err := loadConfig(f.config, logger)
	if err != nil {
		return err
	}
	cfg.apply(fs, f)
	return nil
}
