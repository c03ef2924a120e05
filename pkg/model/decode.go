package model

import (
	"encoding/json"
	"fmt"
)

// DecodeLeaderboard validates and decodes a leaderboard document.
func DecodeLeaderboard(data []byte) (*LeaderboardDocument, error) {
	var doc LeaderboardDocument
	if err := decode(KindLeaderboard, data, &doc); err != nil {
		return nil, err
	}

	doc.Normalize()

	return &doc, nil
}

// DecodeCompare validates and decodes a compare document.
func DecodeCompare(data []byte) (*CompareDocument, error) {
	var doc CompareDocument
	if err := decode(KindCompare, data, &doc); err != nil {
		return nil, err
	}

	doc.Normalize()

	return &doc, nil
}

// DecodeRun validates and decodes a run detail document.
func DecodeRun(data []byte) (*RunDocument, error) {
	var doc RunDocument
	if err := decode(KindRun, data, &doc); err != nil {
		return nil, err
	}

	doc.Normalize()

	return &doc, nil
}

func decode(kind DocumentKind, data []byte, out any) error {
	if err := Validate(kind, data); err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrInvalidDocument, kind, err)
	}

	return nil
}

// Normalize replaces absent collections with empty ones and clamps
// negative counters.
func (r *Run) Normalize() {
	if r.CategoryScores == nil {
		r.CategoryScores = []CategoryScore{}
	}

	for i := range r.CategoryScores {
		r.CategoryScores[i].Counts.normalize()
	}
}

func (c *Counts) normalize() {
	c.Pass = max(c.Pass, 0)
	c.Partial = max(c.Partial, 0)
	c.Fail = max(c.Fail, 0)
}

// Normalize implements boundary defaulting for the document.
func (d *LeaderboardDocument) Normalize() {
	if d.Runs == nil {
		d.Runs = []Run{}
	}

	for i := range d.Runs {
		d.Runs[i].Normalize()
	}
}

// Normalize implements boundary defaulting for the document.
func (d *CompareDocument) Normalize() {
	if d.Runs == nil {
		d.Runs = []Run{}
	}

	if d.Categories == nil {
		d.Categories = []CategoryRef{}
	}

	for i := range d.Runs {
		d.Runs[i].Normalize()
	}
}

// Normalize implements boundary defaulting for the document.
func (d *RunDocument) Normalize() {
	d.Run.Normalize()

	if d.Results == nil {
		d.Results = []TestCaseResult{}
	}

	if d.CategoryScores == nil {
		d.CategoryScores = []CategoryScore{}
	}

	for i := range d.CategoryScores {
		d.CategoryScores[i].Counts.normalize()
	}

	d.TotalTests = max(d.TotalTests, 0)
}

// ClampScore limits a score to the 0..100 range used for bar heights.
func ClampScore(score float64) float64 {
	return min(max(score, 0), 100)
}
