package live

import "github.com/radieske/winmix-prediction-poc/pkg/contracts/events"

// AllFixtures assina todas as predições
const AllFixtures = "*"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Fixture: "home:away" ou "*", obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type    string `json:"type"`
	Fixture string `json:"fixture"`
}

// Update é o que o cliente recebe a cada predição calculada
type Update struct {
	Fixture    string                `json:"fixture"`
	Prediction events.PredictionMade `json:"prediction"`
}

// FixtureKey: mesma chave usada na partição do Kafka
func FixtureKey(home, away string) string { return home + ":" + away }
