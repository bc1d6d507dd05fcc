// ABOUTME: Impulse Tracker module builder package
// ABOUTME: Lays out a one-pattern IT module that plays PCM channels as samples
// Package it builds Impulse Tracker (.it) modules from WAV-encoded PCM.
//
// Every input channel becomes one IT sample. The module has a single pattern
// whose first row triggers each sample at C-5 on one or more tracker channels
// (extra channels duplicate a sample to raise its volume) and whose remaining
// rows are empty. Speed 24 at tempo 60 makes one row last one second, so the
// pattern has ceil(duration)+1 rows.
//
// Building happens in two steps: Plan computes every section size and byte
// offset, then Build emits the bytes from that plan. Layout is exported so
// callers can inspect the offsets without re-deriving them.
//
// Example:
//
//	cfg := it.Config{BitDepth: 16, SampleRate: 22050, ExtraChannels: 2}
//	module, err := it.Build([][]byte{leftWAV, rightWAV}, durationSeconds, cfg)
package it
