package prediction

import (
	"errors"
	"fmt"
)

// Params reúne os coeficientes do engine. São parâmetros de tuning, não
// verdades estatísticas; o arquivo de tuning (YAML ou TOML) sobrescreve os defaults.
type Params struct {
	// HomeAdvantage é o bônus de mando (0.15 = 15 pontos percentuais)
	HomeAdvantage    float64 `yaml:"home_advantage" toml:"home_advantage"`
	FormFactorWeight float64 `yaml:"form_factor_weight" toml:"form_factor_weight"`

	H2HLimit       int `yaml:"h2h_limit" toml:"h2h_limit"`
	FormWindow     int `yaml:"form_window" toml:"form_window"`
	TrendWindow    int `yaml:"trend_window" toml:"trend_window"`
	BTTSWindow     int `yaml:"btts_window" toml:"btts_window"`
	MomentumWindow int `yaml:"momentum_window" toml:"momentum_window"`

	DefaultScoringRate float64 `yaml:"default_scoring_rate" toml:"default_scoring_rate"`

	AttackDefense AttackDefenseParams `yaml:"attack_defense" toml:"attack_defense"`
	Poisson       PoissonParams       `yaml:"poisson" toml:"poisson"`
	Elo           EloParams           `yaml:"elo" toml:"elo"`
	Ensemble      EnsembleWeights     `yaml:"ensemble" toml:"ensemble"`
	Forest        ForestParams        `yaml:"random_forest" toml:"random_forest"`
	Trends        TrendParams         `yaml:"seasonal_trends" toml:"seasonal_trends"`
	Markets       MarketParams        `yaml:"markets" toml:"markets"`
}

type AttackDefenseParams struct {
	HomeMultiplier float64 `yaml:"home_multiplier" toml:"home_multiplier"`
	MinDefense     float64 `yaml:"min_defense" toml:"min_defense"`
	EvenGap        float64 `yaml:"even_gap" toml:"even_gap"`
	MinDraw        float64 `yaml:"min_draw" toml:"min_draw"`
	Confidence     float64 `yaml:"confidence" toml:"confidence"`
}

type PoissonParams struct {
	HomeMultiplier float64 `yaml:"home_multiplier" toml:"home_multiplier"`
	MaxGoals       int     `yaml:"max_goals" toml:"max_goals"`
	Confidence     float64 `yaml:"confidence" toml:"confidence"`
}

type EloParams struct {
	Base           int     `yaml:"base" toml:"base"`
	WinBonus       int     `yaml:"win_bonus" toml:"win_bonus"`
	LossPenalty    int     `yaml:"loss_penalty" toml:"loss_penalty"`
	GoalDiffWeight float64 `yaml:"goal_diff_weight" toml:"goal_diff_weight"`
	Scale          float64 `yaml:"scale" toml:"scale"`
	WinShare       float64 `yaml:"win_share" toml:"win_share"`
	AvgGoals       float64 `yaml:"avg_goals" toml:"avg_goals"`
	Confidence     float64 `yaml:"confidence" toml:"confidence"`
}

// EnsembleWeights: pesos do machine_learning, na ordem default, attack_defense, poisson, elo
type EnsembleWeights struct {
	Default       float64 `yaml:"default" toml:"default"`
	AttackDefense float64 `yaml:"attack_defense" toml:"attack_defense"`
	Poisson       float64 `yaml:"poisson" toml:"poisson"`
	Elo           float64 `yaml:"elo" toml:"elo"`
	Confidence    float64 `yaml:"confidence" toml:"confidence"`
}

func (w EnsembleWeights) Sum() float64 {
	return w.Default + w.AttackDefense + w.Poisson + w.Elo
}

type ForestParams struct {
	Trees        int     `yaml:"trees" toml:"trees"`
	AttackMargin float64 `yaml:"attack_margin" toml:"attack_margin"`
	DrawMargin   float64 `yaml:"draw_margin" toml:"draw_margin"`
	MinDefense   float64 `yaml:"min_defense" toml:"min_defense"`
	Confidence   float64 `yaml:"confidence" toml:"confidence"`
}

type TrendParams struct {
	MomentumDecay float64 `yaml:"momentum_decay" toml:"momentum_decay"`
	MomentumStep  float64 `yaml:"momentum_step" toml:"momentum_step"`
	Min           float64 `yaml:"min" toml:"min"`
	Max           float64 `yaml:"max" toml:"max"`
	Confidence    float64 `yaml:"confidence" toml:"confidence"`
}

// MarketParams controla a aproximação fechada de over 1.5/2.5/3.5
type MarketParams struct {
	Decay15 float64 `yaml:"decay_15" toml:"decay_15"`
	Decay25 float64 `yaml:"decay_25" toml:"decay_25"`
	Decay35 float64 `yaml:"decay_35" toml:"decay_35"`
	Floor   float64 `yaml:"floor" toml:"floor"`
	Cap15   float64 `yaml:"cap_15" toml:"cap_15"`
	Cap25   float64 `yaml:"cap_25" toml:"cap_25"`
	Cap35   float64 `yaml:"cap_35" toml:"cap_35"`
}

func DefaultParams() Params {
	return Params{
		HomeAdvantage:      0.15,
		FormFactorWeight:   0.1,
		H2HLimit:           20,
		FormWindow:         5,
		TrendWindow:        10,
		BTTSWindow:         10,
		MomentumWindow:     5,
		DefaultScoringRate: 0.7,
		AttackDefense: AttackDefenseParams{
			HomeMultiplier: 1.15,
			MinDefense:     0.5,
			EvenGap:        0.5,
			MinDraw:        15,
			Confidence:     0.6,
		},
		Poisson: PoissonParams{
			HomeMultiplier: 1.1,
			MaxGoals:       5,
			Confidence:     0.8,
		},
		Elo: EloParams{
			Base:           1500,
			WinBonus:       15,
			LossPenalty:    10,
			GoalDiffWeight: 5,
			Scale:          400,
			WinShare:       0.85,
			AvgGoals:       2.5,
			Confidence:     0.75,
		},
		Ensemble: EnsembleWeights{
			Default:       0.3,
			AttackDefense: 0.25,
			Poisson:       0.25,
			Elo:           0.2,
			Confidence:    0.85,
		},
		Forest: ForestParams{
			Trees:        100,
			AttackMargin: 0.3,
			DrawMargin:   0.1,
			MinDefense:   0.5,
			Confidence:   0.82,
		},
		Trends: TrendParams{
			MomentumDecay: 0.8,
			MomentumStep:  5,
			Min:           5,
			Max:           85,
			Confidence:    0.7,
		},
		Markets: MarketParams{
			Decay15: 0.8,
			Decay25: 0.6,
			Decay35: 0.4,
			Floor:   5,
			Cap15:   95,
			Cap25:   90,
			Cap35:   85,
		},
	}
}

// Validate rejeita combinações que quebrariam os invariantes de saída
func (p Params) Validate() error {
	var errs []error
	if p.H2HLimit <= 0 || p.FormWindow <= 0 || p.TrendWindow <= 0 || p.BTTSWindow <= 0 || p.MomentumWindow <= 0 {
		errs = append(errs, errors.New("windows must be positive"))
	}
	if p.HomeAdvantage < 0 || p.HomeAdvantage >= 1 {
		errs = append(errs, fmt.Errorf("home_advantage must be in [0,1), got %v", p.HomeAdvantage))
	}
	if p.DefaultScoringRate < 0 || p.DefaultScoringRate > 1 {
		errs = append(errs, fmt.Errorf("default_scoring_rate must be in [0,1], got %v", p.DefaultScoringRate))
	}
	w := p.Ensemble
	if w.Default < 0 || w.AttackDefense < 0 || w.Poisson < 0 || w.Elo < 0 {
		errs = append(errs, errors.New("ensemble weights must be non-negative"))
	} else if s := w.Sum(); s < 0.999 || s > 1.001 {
		errs = append(errs, fmt.Errorf("ensemble weights must sum to 1, got %v", s))
	}
	// divisores de xG; zero ou negativo gera NaN/Inf nas estratégias
	if !(p.AttackDefense.MinDefense > 0) {
		errs = append(errs, fmt.Errorf("attack_defense.min_defense must be positive, got %v", p.AttackDefense.MinDefense))
	}
	if !(p.Forest.MinDefense > 0) {
		errs = append(errs, fmt.Errorf("random_forest.min_defense must be positive, got %v", p.Forest.MinDefense))
	}
	if !(p.AttackDefense.HomeMultiplier > 0 && p.AttackDefense.HomeMultiplier <= 3) {
		errs = append(errs, fmt.Errorf("attack_defense.home_multiplier must be in (0,3], got %v", p.AttackDefense.HomeMultiplier))
	}
	if !(p.Poisson.HomeMultiplier > 0 && p.Poisson.HomeMultiplier <= 3) {
		errs = append(errs, fmt.Errorf("poisson.home_multiplier must be in (0,3], got %v", p.Poisson.HomeMultiplier))
	}
	if !(p.AttackDefense.MinDraw >= 0 && p.AttackDefense.MinDraw < 100) {
		errs = append(errs, fmt.Errorf("attack_defense.min_draw must be in [0,100), got %v", p.AttackDefense.MinDraw))
	}
	if !(p.Trends.MomentumDecay > 0 && p.Trends.MomentumDecay <= 1) {
		errs = append(errs, fmt.Errorf("seasonal_trends.momentum_decay must be in (0,1], got %v", p.Trends.MomentumDecay))
	}
	if p.Forest.Trees <= 0 {
		errs = append(errs, errors.New("random_forest.trees must be positive"))
	}
	if p.Poisson.MaxGoals <= 0 {
		errs = append(errs, errors.New("poisson.max_goals must be positive"))
	}
	if p.Elo.Scale <= 0 {
		errs = append(errs, errors.New("elo.scale must be positive"))
	}
	if p.Elo.WinShare <= 0 || p.Elo.WinShare > 1 {
		errs = append(errs, errors.New("elo.win_share must be in (0,1]"))
	}
	if p.Trends.Min < 0 || p.Trends.Max > 100 || p.Trends.Min > p.Trends.Max || p.Trends.Min+p.Trends.Max > 100 {
		errs = append(errs, errors.New("seasonal_trends bounds must satisfy 0 <= min <= max and min+max <= 100"))
	}
	m := p.Markets
	if m.Floor < 0 || m.Floor > m.Cap35 || m.Cap35 > m.Cap25 || m.Cap25 > m.Cap15 || m.Cap15 > 100 {
		errs = append(errs, errors.New("markets caps must be ordered floor <= cap_35 <= cap_25 <= cap_15 <= 100"))
	}
	if !(m.Decay15 >= m.Decay25 && m.Decay25 >= m.Decay35 && m.Decay35 > 0) {
		errs = append(errs, errors.New("markets decays must be ordered decay_15 >= decay_25 >= decay_35 > 0"))
	}
	for name, c := range map[string]float64{
		"attack_defense":  p.AttackDefense.Confidence,
		"poisson":         p.Poisson.Confidence,
		"elo":             p.Elo.Confidence,
		"ensemble":        p.Ensemble.Confidence,
		"random_forest":   p.Forest.Confidence,
		"seasonal_trends": p.Trends.Confidence,
	} {
		if c < 0 || c > 1 {
			errs = append(errs, fmt.Errorf("%s confidence must be in [0,1], got %v", name, c))
		}
	}
	return errors.Join(errs...)
}
