// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     wavio
// Description: WAV encoding of captured utterances
// Created:     2026-08-30
// License:     MIT
// ============================================================================

// Package wavio encodes float32 PCM into WAV files. It is kept separate
// from the capture package so that consumers which only need encoding do
// not link against PortAudio.
package wavio

import (
	"fmt"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// Encode converts float32 mono samples to a 16-bit PCM WAV file in
// memory. The encoder needs a seekable target for header fixups, so an
// in-memory filesystem stands in for a real file.
func Encode(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	fs := afero.NewMemMapFs()
	f, err := fs.Create("utterance.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer file: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           samplesToInt(samples),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close buffer file: %w", err)
	}

	data, err := afero.ReadFile(fs, "utterance.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded wav: %w", err)
	}
	return data, nil
}

// WriteFile encodes samples and writes them to the given filesystem,
// used for debug dumps of captured utterances
func WriteFile(fs afero.Fs, path string, samples []float32, sampleRate int) error {
	data, err := Encode(samples, sampleRate)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// samplesToInt converts float32 samples in [-1,1] to 16-bit values with
// clamping
func samplesToInt(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		out[i] = int(s * 32767)
	}
	return out
}
