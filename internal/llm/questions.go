package llm

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/techieRahul17/intervuex/internal/cache"
	"github.com/techieRahul17/intervuex/internal/prompts"
	"github.com/techieRahul17/intervuex/internal/types"
)

//go:embed questions.yaml
var defaultBankYAML []byte

// maxContextChars bounds the resume context sent to the model.
const maxContextChars = 8000

// Source reports where a question set came from.
type Source string

const (
	SourceModel   Source = "model"
	SourceCache   Source = "cache"
	SourceDefault Source = "default"
)

// QuestionSet is the result of a generation.
type QuestionSet struct {
	Questions []types.Question `json:"questions"`
	Source    Source           `json:"source"`
}

// Bank is the fallback question bank: general questions plus per-skill lists.
type Bank struct {
	General []types.Question            `yaml:"general"`
	Skills  map[string][]types.Question `yaml:"skills"`
}

// LoadBank decodes a YAML question bank.
func LoadBank(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	normalized := make(map[string][]types.Question, len(bank.Skills))
	for skill, qs := range bank.Skills {
		key := strings.ToLower(strings.TrimSpace(skill))
		for i := range qs {
			if qs[i].Skill == "" {
				qs[i].Skill = skill
			}
		}
		normalized[key] = append(normalized[key], qs...)
	}
	bank.Skills = normalized
	return &bank, nil
}

// DefaultBank returns the embedded question bank.
func DefaultBank() *Bank {
	bank, err := LoadBank(defaultBankYAML)
	if err != nil {
		panic(err)
	}
	return bank
}

// Pick returns up to count questions for skills, topping up with general questions.
func (b *Bank) Pick(skills []string, count int) []types.Question {
	out := make([]types.Question, 0, count)
	seen := make(map[string]bool)
	add := func(q types.Question) {
		if len(out) < count && !seen[q.Question] {
			seen[q.Question] = true
			out = append(out, q)
		}
	}
	for _, skill := range skills {
		for _, q := range b.Skills[strings.ToLower(strings.TrimSpace(skill))] {
			add(q)
		}
	}
	for _, q := range b.General {
		add(q)
	}
	return out
}

// GeneratorOptions configures a QuestionGenerator.
type GeneratorOptions struct {
	Count    int
	CacheTTL time.Duration
	Tier     ModelTier
	// OnFallback is called with the cause whenever the default bank answers.
	OnFallback func(error)
}

// QuestionGenerator produces training-mode interview questions. It never fails:
// model, network or parse errors fall back to the default bank.
type QuestionGenerator struct {
	client Client
	cache  cache.Cache
	bank   *Bank
	opts   GeneratorOptions
	logger *zap.Logger
}

// NewQuestionGenerator creates a generator. client and c may be nil.
func NewQuestionGenerator(client Client, c cache.Cache, bank *Bank, opts GeneratorOptions, logger *zap.Logger) *QuestionGenerator {
	if bank == nil {
		bank = DefaultBank()
	}
	if opts.Count <= 0 {
		opts.Count = 5
	}
	if opts.Tier == "" {
		opts.Tier = TierLite
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionGenerator{client: client, cache: c, bank: bank, opts: opts, logger: logger}
}

// Generate returns questions for req.
func (g *QuestionGenerator) Generate(ctx context.Context, req types.GenerateQuestionRequest) *QuestionSet {
	key := cacheKey(req, g.opts.Count)
	if g.cache != nil {
		if data, ok, err := g.cache.Get(ctx, key); err != nil {
			g.logger.Warn("question cache read failed", zap.Error(err))
		} else if ok {
			var qs []types.Question
			if err := json.Unmarshal(data, &qs); err == nil && len(qs) > 0 {
				return &QuestionSet{Questions: qs, Source: SourceCache}
			}
		}
	}

	qs, err := g.fromModel(ctx, req)
	if err != nil {
		g.logger.Warn("question generation fell back to default bank", zap.Error(err))
		if g.opts.OnFallback != nil {
			g.opts.OnFallback(err)
		}
		return &QuestionSet{Questions: g.bank.Pick(req.SelectedSkills, g.opts.Count), Source: SourceDefault}
	}

	if g.cache != nil {
		if data, err := json.Marshal(qs); err == nil {
			if err := g.cache.Set(ctx, key, data, g.opts.CacheTTL); err != nil {
				g.logger.Warn("question cache write failed", zap.Error(err))
			}
		}
	}
	return &QuestionSet{Questions: qs, Source: SourceModel}
}

func (g *QuestionGenerator) fromModel(ctx context.Context, req types.GenerateQuestionRequest) ([]types.Question, error) {
	if g.client == nil {
		return nil, &ConfigError{Message: "no model client configured"}
	}

	text, err := g.client.GenerateContent(ctx, BuildQuestionPrompt(req, g.opts.Count), g.opts.Tier)
	if err != nil {
		return nil, err
	}
	return ParseQuestions(text)
}

// BuildQuestionPrompt fills the question template for req.
func BuildQuestionPrompt(req types.GenerateQuestionRequest, count int) string {
	skills := "general software engineering"
	if len(req.SelectedSkills) > 0 {
		skills = strings.Join(req.SelectedSkills, ", ")
	}
	data := map[string]string{
		"Count":  strconv.Itoa(count),
		"Skills": skills,
	}

	resume := strings.TrimSpace(strings.Join(req.Chunks, "\n\n"))
	if resume == "" {
		return prompts.Format(prompts.MustGet("questions.json", "generate-questions-no-context"), data)
	}
	if len(resume) > maxContextChars {
		cut := maxContextChars
		for cut > 0 && !utf8.RuneStart(resume[cut]) {
			cut--
		}
		resume = resume[:cut]
	}
	data["Context"] = resume
	return prompts.Format(prompts.MustGet("questions.json", "generate-questions"), data)
}

// ParseQuestions extracts the JSON array of questions from a model response, bare or
// wrapped as {"questions": [...]}. Plain string elements are accepted as bare questions.
func ParseQuestions(text string) ([]types.Question, error) {
	span := ExtractJSON(text)
	if span == "" {
		return nil, &GenerationError{Message: "no JSON found in response"}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		var wrapped struct {
			Questions []json.RawMessage `json:"questions"`
		}
		if json.Unmarshal([]byte(span), &wrapped) != nil || wrapped.Questions == nil {
			return nil, &GenerationError{Message: "response is not a JSON array", Cause: err}
		}
		raw = wrapped.Questions
	}

	qs := make([]types.Question, 0, len(raw))
	for _, item := range raw {
		var q types.Question
		if err := json.Unmarshal(item, &q); err != nil {
			var s string
			if json.Unmarshal(item, &s) != nil {
				continue
			}
			q.Question = s
		}
		if q.Question = strings.TrimSpace(q.Question); q.Question != "" {
			qs = append(qs, q)
		}
	}
	if len(qs) == 0 {
		return nil, &GenerationError{Message: "response contained no questions"}
	}
	return qs, nil
}

func cacheKey(req types.GenerateQuestionRequest, count int) string {
	data, _ := json.Marshal(struct {
		Req   types.GenerateQuestionRequest
		Count int
	}{req, count})
	sum := sha256.Sum256(data)
	return "questions:" + hex.EncodeToString(sum[:])
}
