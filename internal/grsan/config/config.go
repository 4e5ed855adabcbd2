// Package config loads the runtime flags from GRSAN_* environment
// variables.
package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v8"
	"github.com/pkg/errors"

	"github.com/kolkov/grsan/internal/grsan/deriv"
	"github.com/kolkov/grsan/internal/grsan/label"
	"github.com/kolkov/grsan/internal/grsan/shadow"
)

// Prefix is prepended to every variable name.
const Prefix = "GRSAN_"

// Switch is a boolean that is on for any value except one starting with
// "0" or "false".
type Switch bool

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Switch) UnmarshalText(text []byte) error {
	v := string(text)
	*s = Switch(!strings.HasPrefix(v, "0") && !strings.HasPrefix(v, "false"))
	return nil
}

// Flags are the runtime settings.
type Flags struct {
	// DisableLogging selects performance mode: no branch or argument
	// records and no dumps.
	DisableLogging Switch `env:"DISABLE_LOGGING"`

	DefaultNaN     bool `env:"DEFAULT_NAN" envDefault:"true"`
	BranchBarriers bool `env:"BRANCH_BARRIERS" envDefault:"false"`
	Samples        int  `env:"SAMPLES" envDefault:"4"`
	ReuseLabels    bool `env:"REUSE_LABELS" envDefault:"false"`
	GEPDefault     bool `env:"GEP_DEFAULT" envDefault:"true"`
	SelectDefault  bool `env:"SELECT_DEFAULT" envDefault:"true"`
	Strict         bool `env:"STRICT" envDefault:"false"`

	GradientLogfile string `env:"GRADIENT_LOGFILE"`
	BranchLogfile   string `env:"BRANCH_LOGFILE"`
	FuncLogfile     string `env:"FUNC_LOGFILE"`

	ShadowBits    uint `env:"SHADOW_BITS" envDefault:"26"`
	MaxLabels     int  `env:"MAX_LABELS" envDefault:"65535"`
	BranchRecords int  `env:"BRANCH_RECORDS" envDefault:"1048576"`
	ArgRecords    int  `env:"ARG_RECORDS" envDefault:"65535"`

	WarnUnimplemented bool `env:"WARN_UNIMPLEMENTED" envDefault:"false"`
	WarnNonzeroLabels bool `env:"WARN_NONZERO_LABELS" envDefault:"false"`
}

// Default returns the flags with every variable unset.
func Default() Flags {
	f, err := Parse(map[string]string{})
	if err != nil {
		panic(err)
	}
	return f
}

// Load reads the flags from the process environment.
func Load() (Flags, error) {
	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return Parse(environ)
}

// Parse reads the flags from environ (keys include the prefix).
func Parse(environ map[string]string) (Flags, error) {
	var f Flags
	if err := env.ParseWithOptions(&f, env.Options{
		Prefix:      Prefix,
		Environment: environ,
	}); err != nil {
		return Flags{}, errors.Wrap(err, "config: parse environment")
	}
	if err := f.Validate(); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// Validate checks ranges.
func (f *Flags) Validate() error {
	if f.Samples < 1 {
		return errors.Errorf("config: %sSAMPLES must be positive, got %d", Prefix, f.Samples)
	}
	if f.ShadowBits < shadow.MinBits || f.ShadowBits > shadow.MaxBits {
		return errors.Errorf("config: %sSHADOW_BITS must be in [%d, %d], got %d",
			Prefix, shadow.MinBits, shadow.MaxBits, f.ShadowBits)
	}
	if f.MaxLabels < 1 || f.MaxLabels > label.MaxLabels {
		return errors.Errorf("config: %sMAX_LABELS must be in [1, %d], got %d", Prefix, label.MaxLabels, f.MaxLabels)
	}
	if f.BranchRecords < 1 {
		return errors.Errorf("config: %sBRANCH_RECORDS must be positive, got %d", Prefix, f.BranchRecords)
	}
	if f.ArgRecords < 1 {
		return errors.Errorf("config: %sARG_RECORDS must be positive, got %d", Prefix, f.ArgRecords)
	}
	return nil
}

// PerfMode reports whether recording and dumps are disabled.
func (f *Flags) PerfMode() bool {
	return bool(f.DisableLogging)
}

// Rules returns the derivative rule options.
func (f *Flags) Rules() deriv.Options {
	return deriv.Options{
		Samples:       f.Samples,
		DefaultNaN:    f.DefaultNaN,
		GEPDefault:    f.GEPDefault,
		SelectDefault: f.SelectDefault,
	}
}
