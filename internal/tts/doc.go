// Package tts implements the kokoro commands on top of a synthesizer:
// voice catalog validation, input preparation, output path derivation,
// the streaming file converter, single-shot synthesis and voice listing.
package tts
