package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrRootUnset is returned by FromEnv when ZUSI2_DATAPATH or
	// ZUSI3_DATAPATH is not set.
	ErrRootUnset = errors.New("paths: dataset root not set")

	// ErrOutsideRoot is returned by RelV2 when the given absolute path
	// does not lie below the legacy root.
	ErrOutsideRoot = errors.New("paths: path outside legacy root")
)

// convPrefix is the v3-relative directory all converted files live under.
const convPrefix = `Temp\_z2conv\`

// Mapper translates between v2-relative, v3-relative, and absolute
// path forms. It is immutable after construction.
type Mapper struct {
	z2 string // absolute legacy root
	z3 string // absolute target root
}

// New returns a Mapper over the given absolute roots.
func New(z2, z3 string) *Mapper {
	return &Mapper{z2: filepath.Clean(z2), z3: filepath.Clean(z3)}
}

// FromEnv builds a Mapper from the ZUSI2_DATAPATH and ZUSI3_DATAPATH
// environment variables.
func FromEnv() (*Mapper, error) {
	v := viper.New()
	if err := v.BindEnv("zusi2_datapath", "ZUSI2_DATAPATH"); err != nil {
		return nil, fmt.Errorf("paths: bind ZUSI2_DATAPATH: %w", err)
	}
	if err := v.BindEnv("zusi3_datapath", "ZUSI3_DATAPATH"); err != nil {
		return nil, fmt.Errorf("paths: bind ZUSI3_DATAPATH: %w", err)
	}

	z2 := v.GetString("zusi2_datapath")
	z3 := v.GetString("zusi3_datapath")
	if z2 == "" {
		return nil, fmt.Errorf("ZUSI2_DATAPATH: %w", ErrRootUnset)
	}
	if z3 == "" {
		return nil, fmt.Errorf("ZUSI3_DATAPATH: %w", ErrRootUnset)
	}

	return New(z2, z3), nil
}

// V3Rel maps a v2-relative name to its v3-relative form below
// Temp\_z2conv. The result keeps backslash separators.
func (m *Mapper) V3Rel(v2rel string) string {
	return convPrefix + v2rel
}

// V2Abs maps a v2-relative name to an absolute path below the legacy root.
func (m *Mapper) V2Abs(v2rel string) string {
	return filepath.Join(m.z2, fromBackslash(v2rel))
}

// V3Abs maps a v3-relative name to an absolute path below the target root.
func (m *Mapper) V3Abs(v3rel string) string {
	return filepath.Join(m.z3, fromBackslash(v3rel))
}

// RelV2 maps an absolute path back to its v2-relative backslash form.
func (m *Mapper) RelV2(abs string) (string, error) {
	rel, err := filepath.Rel(m.z2, filepath.Clean(abs))
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%q: %w", abs, ErrOutsideRoot)
	}

	return toBackslash(rel), nil
}

// fromBackslash rewrites the stored backslash form to native separators.
func fromBackslash(name string) string {
	return strings.ReplaceAll(name, `\`, string(filepath.Separator))
}

// toBackslash rewrites native separators to the stored backslash form.
func toBackslash(name string) string {
	return strings.ReplaceAll(name, string(filepath.Separator), `\`)
}
