package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ricoauto/gatepass/internal/domain"
	"github.com/ricoauto/gatepass/internal/repository"
)

const (
	// DefaultSuggestionLimit applies to the standalone suggestion endpoint.
	DefaultSuggestionLimit = 10
	// checkSuggestionLimit applies to suggestions attached to a visitor check.
	checkSuggestionLimit = 8
	// suggestionFetchSize is how many raw rows to pull before case-insensitive
	// de-duplication.
	suggestionFetchSize = 100
)

// Matcher decides whether a visitor record already exists for a given
// name and/or phone, and serves name-prefix autocomplete.
type Matcher struct {
	visitors repository.VisitorRepository
}

func NewMatcher(visitors repository.VisitorRepository) *Matcher {
	return &Matcher{visitors: visitors}
}

// CheckResult is the advisory duplicate-detection outcome. Existence is
// never enforced server-side; the caller decides whether to renew or
// issue fresh.
type CheckResult struct {
	Exists      bool                `json:"exists"`
	PhoneMatch  bool                `json:"phoneMatch"`
	Message     string              `json:"message"`
	Visitor     *domain.VisitorPass `json:"visitor"`
	Suggestions []string            `json:"suggestions"`
}

// Suggestions returns up to limit distinct stored names whose prefix
// matches the query case-insensitively, most recently created first.
func (m *Matcher) Suggestions(ctx context.Context, query string, limit int) ([]string, error) {
	clean := domain.NormalizeName(query)
	if clean == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	names, err := m.visitors.SuggestNames(ctx, clean, suggestionFetchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load name suggestions: %w", err)
	}

	unique := []string{}
	seen := make(map[string]struct{})
	for _, raw := range names {
		name := domain.NormalizeName(raw)
		if name == "" {
			continue
		}
		lowered := strings.ToLower(name)
		if _, ok := seen[lowered]; ok {
			continue
		}
		seen[lowered] = struct{}{}
		unique = append(unique, name)
		if len(unique) >= limit {
			break
		}
	}
	return unique, nil
}

// Check runs the ranked-fallback match: exact name+phone, then phone
// alone, then name alone, then none. The most recently created record
// wins every tie. Every branch carries the suggestions computed at entry.
func (m *Matcher) Check(ctx context.Context, rawName, rawPhone string) (*CheckResult, error) {
	name := domain.NormalizeName(rawName)
	phone := domain.NormalizePhone(rawPhone)

	if name == "" && phone == "" {
		return nil, InvalidInput("Enter either name or phone number.")
	}

	suggestions := []string{}
	if name != "" {
		var err error
		suggestions, err = m.Suggestions(ctx, name, checkSuggestionLimit)
		if err != nil {
			return nil, err
		}
	}

	noMatchMessage := "New visitor. Create gate pass."
	if len(suggestions) > 0 {
		noMatchMessage = "No exact match. Select from suggestions or create gate pass."
	}

	if name != "" && phone != "" {
		exact, err := m.visitors.FindLatestByNameAndPhone(ctx, name, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check visitor: %w", err)
		}
		if exact != nil {
			return &CheckResult{
				Exists:      true,
				PhoneMatch:  true,
				Message:     "User already exists. Please renew gate pass.",
				Visitor:     exact,
				Suggestions: suggestions,
			}, nil
		}

		byPhone, err := m.visitors.FindLatestByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check visitor: %w", err)
		}
		if byPhone != nil {
			return &CheckResult{
				Exists:      true,
				PhoneMatch:  true,
				Message:     "User exists. Renew pass for today?",
				Visitor:     byPhone,
				Suggestions: suggestions,
			}, nil
		}

		byName, err := m.visitors.FindLatestByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check visitor: %w", err)
		}
		if byName != nil {
			return &CheckResult{
				Exists:      true,
				PhoneMatch:  false,
				Message:     "Name exists. Verify phone or renew pass.",
				Visitor:     byName,
				Suggestions: suggestions,
			}, nil
		}

		return &CheckResult{
			Message:     noMatchMessage,
			Suggestions: suggestions,
		}, nil
	}

	if phone != "" {
		byPhone, err := m.visitors.FindLatestByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check visitor: %w", err)
		}
		if byPhone != nil {
			return &CheckResult{
				Exists:      true,
				PhoneMatch:  true,
				Message:     "User exists. Validate pass.",
				Visitor:     byPhone,
				Suggestions: suggestions,
			}, nil
		}

		return &CheckResult{
			Message:     "New visitor. Create gate pass.",
			Suggestions: suggestions,
		}, nil
	}

	byName, err := m.visitors.FindLatestByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check visitor: %w", err)
	}
	if byName != nil {
		return &CheckResult{
			Exists:      true,
			PhoneMatch:  false,
			Message:     "User exists. Validate pass.",
			Visitor:     byName,
			Suggestions: suggestions,
		}, nil
	}

	return &CheckResult{
		Message:     noMatchMessage,
		Suggestions: suggestions,
	}, nil
}
