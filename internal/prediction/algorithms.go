package prediction

import (
	"fmt"
	"strings"
)

// Algorithm identifica uma estratégia de predição
type Algorithm string

const (
	AlgorithmDefault         Algorithm = "default"
	AlgorithmAttackDefense   Algorithm = "attack_defense"
	AlgorithmPoisson         Algorithm = "poisson"
	AlgorithmElo             Algorithm = "elo"
	AlgorithmMachineLearning Algorithm = "machine_learning"
	AlgorithmRandomForest    Algorithm = "random_forest"
	AlgorithmSeasonalTrends  Algorithm = "seasonal_trends"
)

// AlgorithmInfo é o metadado exposto em /algorithms
type AlgorithmInfo struct {
	ID          Algorithm `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

var catalog = []AlgorithmInfo{
	{AlgorithmDefault, "Default (Form + H2H)", "Head-to-head record blended with recent form and home advantage"},
	{AlgorithmAttackDefense, "Attack-Defense Analysis", "Expected goals from attack strength against opponent defence"},
	{AlgorithmPoisson, "Poisson Distribution", "Exact scoreline distribution from independent Poisson goal counts"},
	{AlgorithmElo, "ELO Rating System", "Logistic win expectancy from rating difference"},
	{AlgorithmMachineLearning, "Machine Learning Ensemble", "Weighted blend of default, attack-defense, Poisson and ELO"},
	{AlgorithmRandomForest, "Random Forest", "Vote of rule-based decision trees over team features"},
	{AlgorithmSeasonalTrends, "Seasonal Trends", "Default prediction adjusted by recency-weighted momentum"},
}

// Algorithms lista as estratégias na ordem de exibição
func Algorithms() []AlgorithmInfo {
	out := make([]AlgorithmInfo, len(catalog))
	copy(out, catalog)
	return out
}

func (a Algorithm) Valid() bool {
	for _, info := range catalog {
		if info.ID == a {
			return true
		}
	}
	return false
}

// DisplayName é o nome legível gravado em Result.Algorithm
func (a Algorithm) DisplayName() string {
	for _, info := range catalog {
		if info.ID == a {
			return info.Name
		}
	}
	return string(a)
}

// ParseAlgorithm aceita o identificador vindo da API; vazio vira default
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AlgorithmDefault, nil
	}
	a := Algorithm(s)
	if !a.Valid() {
		return "", unknownAlgorithm(a)
	}
	return a, nil
}

func unknownAlgorithm(a Algorithm) error {
	return fmt.Errorf("%w: unknown algorithm: %s", ErrInvalidArgument, string(a))
}
