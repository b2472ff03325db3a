// Package paths resolves the two dataset roots and translates between
// the three path forms the conversion deals with:
//
//   - v2-relative: backslash-separated, relative to the legacy root
//     (the form stored inside v2 files and preserved in emitted XML)
//   - v3-relative: backslash-separated, relative to the target root,
//     always below Temp\_z2conv
//   - absolute: native separators, for actual file-system access
//
// The roots come from the ZUSI2_DATAPATH and ZUSI3_DATAPATH environment
// variables, bound through viper by FromEnv.
//
// Errors:
//
//   - ErrRootUnset - one of the two environment roots is missing.
//   - ErrOutsideRoot - an absolute path does not lie below the legacy root.
package paths
