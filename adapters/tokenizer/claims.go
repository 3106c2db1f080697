package tokenizer

// header is the fixed first segment of a session token.
type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

const (
	algHS256 = "HS256"
	typToken = "WST" // wallet session token
)
