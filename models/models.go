package models

import (
	"time"

	"github.com/mohammad-safakhou/askcampus/config"
)

// CandidateResult is one hit returned by page discovery. URL is opaque.
type CandidateResult struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// ExtractedPage is the outcome of fetching one candidate. A failed fetch is
// kept with empty Content and ExtractionSuccess=false.
type ExtractedPage struct {
	Title             string `json:"title" yaml:"title"`
	URL               string `json:"url" yaml:"url"`
	Content           string `json:"content" yaml:"content"`
	WordCount         int    `json:"word_count" yaml:"word_count"`
	ExtractionSuccess bool   `json:"extraction_success" yaml:"extraction_success"`
}

type GradedPage struct {
	ExtractedPage  `yaml:",inline"`
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// Source is the citation-facing projection of a filtered page.
type Source struct {
	Title          string  `json:"title" yaml:"title"`
	URL            string  `json:"url" yaml:"url"`
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
	WordCount      int     `json:"word_count" yaml:"word_count"`
}

// SourceOf projects a graded page to its citation.
func SourceOf(p GradedPage) Source {
	return Source{Title: p.Title, URL: p.URL, RelevanceScore: p.RelevanceScore, WordCount: p.WordCount}
}

type ResearchState string

const (
	StateSearching    ResearchState = "SEARCHING"
	StateExtracting   ResearchState = "EXTRACTING"
	StateGrading      ResearchState = "GRADING"
	StateFiltering    ResearchState = "FILTERING"
	StateSynthesizing ResearchState = "SYNTHESIZING"
	StateDone         ResearchState = "DONE"
	StateNoResults    ResearchState = "NO_RESULTS"
	StateNoContent    ResearchState = "NO_CONTENT"
)

// Terminal reports whether the pipeline stops in this state.
func (s ResearchState) Terminal() bool {
	switch s {
	case StateDone, StateNoResults, StateNoContent:
		return true
	}
	return false
}

// ResearchResult is the full record of one pipeline run.
type ResearchResult struct {
	ID                string                `json:"id" yaml:"id"`
	Query             string                `json:"query" yaml:"query"`
	Timestamp         time.Time             `json:"timestamp" yaml:"timestamp"`
	Config            config.PipelineConfig `json:"config" yaml:"config"`
	State             ResearchState         `json:"state" yaml:"state"`
	SearchResults     []CandidateResult     `json:"search_results" yaml:"search_results"`
	DuplicatesRemoved int                   `json:"duplicates_removed" yaml:"duplicates_removed"`
	ExtractedPages    []ExtractedPage       `json:"extracted_pages" yaml:"extracted_pages"`
	GradedPages       []GradedPage          `json:"graded_pages" yaml:"graded_pages"`
	FilteredPages     []GradedPage          `json:"filtered_pages" yaml:"filtered_pages"`
	FinalAnswer       string                `json:"final_answer" yaml:"final_answer"`
	Sources           []Source              `json:"sources" yaml:"sources"`
}
