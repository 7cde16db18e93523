package prediction

import "errors"

// ErrInvalidArgument marca entradas rejeitadas pelo engine (algoritmo
// desconhecido, times vazios ou iguais). A camada HTTP mapeia para 400.
var ErrInvalidArgument = errors.New("invalid argument")
