package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// AnswerSnapshot records the answer produced by an earlier run of a question.
type AnswerSnapshot struct {
	Hash string
	At   time.Time
}

// AnswerChange summarises whether a recurring question's answer moved.
type AnswerChange struct {
	CurrentHash  string
	PreviousHash string
	Changed      bool
	FirstRun     bool
	Since        time.Duration
}

// NormalizeForDiff collapses whitespace and lowercases content to stabilise hash comparisons.
func NormalizeForDiff(s string) string {
	return strings.ToLower(CollapseWhitespace(s))
}

// ContentHash computes a SHA-256 hash for the normalised content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(NormalizeForDiff(content)))
	return hex.EncodeToString(sum[:])
}

// CompareAnswer compares answer against the previous snapshot. A zero
// snapshot counts as a first run, which is reported as changed.
func CompareAnswer(prev AnswerSnapshot, answer string, at time.Time) AnswerChange {
	hash := ContentHash(answer)
	change := AnswerChange{
		CurrentHash:  hash,
		PreviousHash: prev.Hash,
	}
	if !prev.At.IsZero() && !at.IsZero() {
		change.Since = at.Sub(prev.At)
	}
	switch {
	case prev.Hash == "":
		change.FirstRun = true
		change.Changed = true
	case prev.Hash != hash:
		change.Changed = true
	}
	return change
}
