// Package logx configures the bot's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured and append-only (the execution log)
//
// The Service owns the sinks and can swap them at runtime when the config
// file reloads. The zero Logger is a safe no-op, which keeps constructors
// simple.
package logx
