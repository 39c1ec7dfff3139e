package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/gingfrederik/docx"
	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/helpers"
	"github.com/mohammad-safakhou/askcampus/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	stampLayout  = "20060102_150405"
	maxStemRunes = 50
	rule         = "=================================================="
)

// FileStore writes each run as an answer report, a JSON data dump and a YAML
// copy of the pipeline settings, plus an optional Word report.
type FileStore struct {
	dir      string
	docx     bool
	provider string
	logger   *zap.Logger
}

func NewFileStore(cfg config.FileConfig, providerName string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: cfg.OutputDir, docx: cfg.Docx, provider: providerName, logger: logger}, nil
}

// ArtifactStem builds the shared file-name stem: the query reduced to
// letters, digits, spaces, hyphens and underscores, right-trimmed, cut to 50
// runes with spaces replaced by underscores, then the timestamp.
func ArtifactStem(query string, at time.Time) string {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimRight(b.String(), " ")
	short := strings.ReplaceAll(helpers.TruncateRunes(safe, maxStemRunes), " ", "_")
	return short + "_" + at.Format(stampLayout)
}

func (s *FileStore) Save(_ context.Context, result models.ResearchResult) (map[string]string, error) {
	at := result.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	stem := ArtifactStem(result.Query, at)
	files := make(map[string]string, 4)

	answerPath := filepath.Join(s.dir, "answer_"+stem+".txt")
	if err := os.WriteFile(answerPath, []byte(s.answerReport(result)), 0o644); err != nil {
		return files, fmt.Errorf("write answer: %w", err)
	}
	files["answer"] = answerPath

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return files, fmt.Errorf("encode data: %w", err)
	}
	dataPath := filepath.Join(s.dir, "data_"+stem+".json")
	if err := os.WriteFile(dataPath, data, 0o644); err != nil {
		return files, fmt.Errorf("write data: %w", err)
	}
	files["data"] = dataPath

	cfgYAML, err := yaml.Marshal(result.Config)
	if err != nil {
		return files, fmt.Errorf("encode config: %w", err)
	}
	configPath := filepath.Join(s.dir, "config_"+stem+".yaml")
	if err := os.WriteFile(configPath, cfgYAML, 0o644); err != nil {
		return files, fmt.Errorf("write config: %w", err)
	}
	files["config"] = configPath

	if s.docx {
		docxPath := filepath.Join(s.dir, "report_"+stem+".docx")
		if err := s.writeDocx(docxPath, result); err != nil {
			return files, fmt.Errorf("write docx: %w", err)
		}
		files["docx"] = docxPath
	}
	s.logger.Info("results saved", zap.String("id", result.ID), zap.Any("files", files))
	return files, nil
}

func (s *FileStore) answerReport(result models.ResearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", result.Query)
	fmt.Fprintf(&b, "Timestamp: %s\n", result.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "LLM Provider: %s\n\n", s.provider)
	b.WriteString("ANSWER:\n")
	b.WriteString(rule + "\n")
	b.WriteString(result.FinalAnswer)
	b.WriteString("\n\n" + rule + "\n")
	b.WriteString("SOURCES:\n")
	for _, src := range helpers.FormatSources(result.Sources) {
		b.WriteString(src)
		b.WriteString("\n\n")
	}
	return b.String()
}

func (s *FileStore) writeDocx(path string, result models.ResearchResult) error {
	f := docx.NewFile()

	run := f.AddParagraph().AddText("Campus Research Report")
	run.Size(20)
	f.AddParagraph().AddText(fmt.Sprintf("Query: %s", result.Query))
	meta := f.AddParagraph().AddText(fmt.Sprintf("Generated %s by %s", result.Timestamp.Format(time.RFC1123), s.provider))
	meta.Size(10)
	meta.Color("808080")
	f.AddParagraph()

	for _, para := range strings.Split(result.FinalAnswer, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			f.AddParagraph().AddText(para)
		}
	}

	f.AddParagraph().AddText("--------------------------------------------------")
	f.AddParagraph().AddText("Sources:")
	for i, src := range result.Sources {
		f.AddParagraph().AddText(fmt.Sprintf("[%d] %s (Relevance: %.3f)", i+1, src.Title, src.RelevanceScore))
		link := f.AddParagraph().AddText(src.URL)
		link.Size(10)
		link.Color("0000FF")
	}
	return f.Save(path)
}

func (s *FileStore) Get(ctx context.Context, id string) (models.ResearchResult, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return models.ResearchResult{}, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return models.ResearchResult{}, ErrNotFound
}

// List returns the newest runs first.
func (s *FileStore) List(ctx context.Context, limit int) ([]models.ResearchResult, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	if n := listLimit(limit); len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (s *FileStore) readAll(ctx context.Context) ([]models.ResearchResult, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "data_*.json"))
	if err != nil {
		return nil, err
	}
	out := make([]models.ResearchResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		var r models.ResearchResult
		if err := json.Unmarshal(raw, &r); err != nil {
			s.logger.Warn("skipping unreadable result file", zap.String("path", p), zap.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }
