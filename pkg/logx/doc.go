// Package logx configures croner's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller) on stderr,
//     so it never interleaves with job output on stdout
//   - File output JSON-structured
package logx
