package server

import "encoding/json"

// Inbound event names. Outbound names live in the game package since the
// coordinator broadcasts most of them itself.
const (
	eventSetValues    = "set_values"
	eventCreateRoom   = "create_room"
	eventInitiateGame = "initiate_game"
	eventValidateCode = "validate_code"
	eventUserAnswered = "user_answered"
	eventCloseRoom    = "close_room"
)

type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type setValuesPayload struct {
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl"`
}

type validateCodePayload struct {
	Code string `json:"code"`
}

type answerPayload struct {
	CurrentChordIndex int `json:"currentChordIndex"`
}

type roomCreatedPayload struct {
	Code string `json:"code"`
}
