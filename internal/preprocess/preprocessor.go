// Package preprocess cleans document text and splits it into word-bounded chunks.
package preprocess

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
)

// Supported sentence-rule languages.
const (
	LanguagePortuguese = "pt"
	LanguageEnglish    = "en"
)

// Config controls cleaning and splitting.
type Config struct {
	CleanWhitespace         bool
	CleanEmptyLines         bool
	SplitLength             int // words per chunk
	SplitOverlap            int // words shared by consecutive chunks; ignored when respecting sentences
	RespectSentenceBoundary bool
	Language                string
}

// DefaultConfig is the ingestion profile: clean both, 100-word chunks on Portuguese sentence boundaries.
func DefaultConfig() Config {
	return Config{
		CleanWhitespace:         true,
		CleanEmptyLines:         true,
		SplitLength:             100,
		RespectSentenceBoundary: true,
		Language:                LanguagePortuguese,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SplitLength <= 0 {
		return fmt.Errorf("split length must be positive, got %d", c.SplitLength)
	}
	if c.SplitOverlap < 0 || c.SplitOverlap >= c.SplitLength {
		return fmt.Errorf("split overlap must be in [0, %d), got %d", c.SplitLength, c.SplitOverlap)
	}
	if _, ok := abbreviations[c.Language]; !ok {
		return fmt.Errorf("unsupported language %q", c.Language)
	}
	return nil
}

// Preprocessor turns documents into cleaned, split chunks.
type Preprocessor struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Preprocessor.
func New(cfg Config, logger *zap.Logger) (*Preprocessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("preprocess config: %w", err)
	}
	return &Preprocessor{cfg: cfg, logger: logger}, nil
}

var emptyLines = regexp.MustCompile(`\n\n+`)

// Process cleans and splits every document. Each chunk keeps the source meta
// plus its position under _split_id; empty chunks are dropped.
func (p *Preprocessor) Process(ctx context.Context, docs []domdoc.Document) ([]domdoc.Document, error) {
	out := make([]domdoc.Document, 0, len(docs))
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("preprocess: %w", err)
		}

		text := p.clean(docs[i].Content())
		for n, chunk := range p.split(text) {
			meta := make(map[string]any, len(docs[i].Meta())+1)
			for k, v := range docs[i].Meta() {
				meta[k] = v
			}
			meta[domdoc.MetaSplitID] = n

			doc, err := domdoc.New(chunk, meta)
			if err != nil {
				return nil, fmt.Errorf("chunk %d of document %d: %w", n, i, err)
			}
			out = append(out, doc)
		}
	}
	return out, nil
}

func (p *Preprocessor) clean(text string) string {
	if p.cfg.CleanWhitespace {
		lines := strings.Split(text, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSpace(l)
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	if p.cfg.CleanEmptyLines {
		text = emptyLines.ReplaceAllString(text, "\n\n")
	}
	return text
}

func (p *Preprocessor) split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if p.cfg.RespectSentenceBoundary {
		return p.splitBySentence(text)
	}
	return p.splitByWindow(text)
}

// splitBySentence packs whole sentences into chunks of at most SplitLength words.
// A sentence longer than SplitLength becomes a chunk of its own.
func (p *Preprocessor) splitBySentence(text string) []string {
	var chunks []string
	var current []string
	words := 0

	for _, s := range splitSentences(text, p.cfg.Language) {
		n := len(strings.Fields(s))
		if n > p.cfg.SplitLength {
			p.logger.Warn("Sentence longer than split length",
				zap.Int("words", n),
				zap.Int("split_length", p.cfg.SplitLength),
			)
		}
		if words+n > p.cfg.SplitLength && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			words = 0
		}
		current = append(current, s)
		words += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitByWindow emits fixed windows of SplitLength words sharing SplitOverlap words.
func (p *Preprocessor) splitByWindow(text string) []string {
	words := strings.Fields(text)
	step := p.cfg.SplitLength - p.cfg.SplitOverlap

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := min(start+p.cfg.SplitLength, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
