package pricing

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"butik/backend/internal/cache"
	"butik/backend/internal/domain"
	"butik/backend/internal/validation"
)

// ErrSuggestionFailed is the only error callers see for provider trouble.
var ErrSuggestionFailed = errors.New("failed to get AI suggestions, please try again")

// Generator sends one prompt to a completion provider and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Advisor struct {
	generator Generator
	cache     cache.SuggestionCache
	cacheTTL  time.Duration
	validator *validation.Validator
	logger    *zap.Logger
}

// NewAdvisor builds an advisor. A nil generator disables suggestions.
func NewAdvisor(generator Generator, cacheStore cache.SuggestionCache, cacheTTL time.Duration, logger *zap.Logger) *Advisor {
	if cacheStore == nil {
		cacheStore = cache.NoopSuggestionCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		generator: generator,
		cache:     cacheStore,
		cacheTTL:  cacheTTL,
		validator: validation.New(),
		logger:    logger,
	}
}

func (a *Advisor) Enabled() bool {
	return a.generator != nil
}

// Suggest returns a *validation.Error for bad input and ErrSuggestionFailed for
// anything that goes wrong after the input is accepted.
func (a *Advisor) Suggest(ctx context.Context, in domain.PricingSuggestionInput) (domain.PricingSuggestion, error) {
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.Color = strings.TrimSpace(in.Color)
	in.Size = strings.TrimSpace(in.Size)
	if err := a.validator.Struct(in); err != nil {
		return domain.PricingSuggestion{}, err
	}

	if a.generator == nil {
		a.logger.Warn("pricing suggestion requested but no provider is configured")
		return domain.PricingSuggestion{}, ErrSuggestionFailed
	}

	key := cacheKey(in)
	if a.cacheTTL > 0 {
		if cached, ok, err := a.cache.Get(ctx, key); err == nil && ok {
			return *cached, nil
		} else if err != nil {
			a.logger.Warn("suggestion cache read failed", zap.Error(err))
		}
	}

	prompt, err := RenderPrompt(in)
	if err != nil {
		a.logger.Error("render pricing prompt", zap.Error(err))
		return domain.PricingSuggestion{}, ErrSuggestionFailed
	}

	startedAt := time.Now()
	raw, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		a.logger.Error("pricing provider call failed",
			zap.String("product", in.ProductName),
			zap.Duration("elapsed", time.Since(startedAt)),
			zap.Error(err))
		return domain.PricingSuggestion{}, ErrSuggestionFailed
	}

	suggestion, err := ParseSuggestion(raw)
	if err != nil {
		a.logger.Error("pricing provider returned unusable output", zap.String("product", in.ProductName), zap.Error(err))
		return domain.PricingSuggestion{}, ErrSuggestionFailed
	}

	if a.cacheTTL > 0 {
		if err := a.cache.Set(ctx, key, &suggestion, a.cacheTTL); err != nil {
			a.logger.Warn("suggestion cache write failed", zap.Error(err))
		}
	}
	return suggestion, nil
}

type rawSuggestion struct {
	SuggestedPrice      *decimal.Decimal `json:"suggestedPrice"`
	ProfitTrendAnalysis *string          `json:"profitTrendAnalysis"`
	LowSellingWarning   *string          `json:"lowSellingWarning"`
	RestockSuggestion   *string          `json:"restockSuggestion"`
	DailySmartTip       *string          `json:"dailySmartTip"`
}

// ParseSuggestion decodes a provider reply. Every field must be present.
func ParseSuggestion(raw string) (domain.PricingSuggestion, error) {
	body := stripCodeFence(raw)

	var parsed rawSuggestion
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return domain.PricingSuggestion{}, fmt.Errorf("decode suggestion: %w", err)
	}

	var missing []string
	if parsed.SuggestedPrice == nil {
		missing = append(missing, "suggestedPrice")
	}
	if parsed.ProfitTrendAnalysis == nil {
		missing = append(missing, "profitTrendAnalysis")
	}
	if parsed.LowSellingWarning == nil {
		missing = append(missing, "lowSellingWarning")
	}
	if parsed.RestockSuggestion == nil {
		missing = append(missing, "restockSuggestion")
	}
	if parsed.DailySmartTip == nil {
		missing = append(missing, "dailySmartTip")
	}
	if len(missing) > 0 {
		return domain.PricingSuggestion{}, fmt.Errorf("suggestion missing %s", strings.Join(missing, ", "))
	}

	return domain.PricingSuggestion{
		SuggestedPrice:      *parsed.SuggestedPrice,
		ProfitTrendAnalysis: *parsed.ProfitTrendAnalysis,
		LowSellingWarning:   *parsed.LowSellingWarning,
		RestockSuggestion:   *parsed.RestockSuggestion,
		DailySmartTip:       *parsed.DailySmartTip,
	}, nil
}

func stripCodeFence(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimPrefix(body, "json")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

func cacheKey(in domain.PricingSuggestionInput) string {
	payload, _ := json.Marshal(in)
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}
