package prediction

import "context"

// MatchSource é a única dependência externa do engine: consultas somente
// leitura sobre o histórico de partidas. Todas as listas vêm da mais recente
// para a mais antiga. season vazio significa todas as temporadas.
type MatchSource interface {
	// MatchesBetween retorna confrontos entre os dois times, em qualquer mando
	MatchesBetween(ctx context.Context, teamA, teamB string, limit int) ([]Match, error)
	// RecentMatches retorna partidas do time como mandante ou visitante
	RecentMatches(ctx context.Context, team string, limit int, season string) ([]Match, error)
	// TeamStats agrega apenas partidas jogadas
	TeamStats(ctx context.Context, team, season string) (TeamStats, error)
}
