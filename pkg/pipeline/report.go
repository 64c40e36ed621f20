package pipeline

import (
	"time"

	"github.com/matzehuels/bricklayers/pkg/buildinfo"
	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

// Report describes one processed file. It is written with --report and
// recorded in the cache as the marker of the output.
type Report struct {
	Tool       string           `json:"tool" yaml:"tool"`
	RunID      string           `json:"run_id" yaml:"run_id"`
	File       string           `json:"file" yaml:"file"`
	CreatedAt  time.Time        `json:"created_at" yaml:"created_at"`
	Options    transform.Config `json:"options" yaml:"options"`
	Dialect    string           `json:"dialect" yaml:"dialect"`
	Cached     bool             `json:"cached" yaml:"cached"`
	Stats      Stats            `json:"stats" yaml:"stats"`
	Warnings   []errors.Warning `json:"warnings" yaml:"warnings"`
	InputHash  string           `json:"input_hash" yaml:"input_hash"`
	OutputHash string           `json:"output_hash" yaml:"output_hash"`
}

// Report builds the report for the result written to file.
func (r *Result) Report(file string, opts Options) Report {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []errors.Warning{}
	}
	return Report{
		Tool:       buildinfo.Short(),
		RunID:      r.RunID,
		File:       file,
		CreatedAt:  time.Now().UTC(),
		Options:    opts.Transform,
		Dialect:    r.Stats.Dialect,
		Cached:     r.CacheInfo.OutputHit,
		Stats:      r.Stats,
		Warnings:   warnings,
		InputHash:  r.InputHash,
		OutputHash: r.OutputHash,
	}
}
