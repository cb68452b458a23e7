// Package logger wraps zap for the detector binaries:
//   - a global sugared console logger with a shared atomic level,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level parsing and the WithLevel option for per-component verbosity,
//   - leveled helpers (Infof, ErrorKV, ...) that read the logger from a context.
package logger
