package ollama

// generateRequest is the request body for the generate endpoint.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateChunk is one newline-delimited JSON chunk of a streamed response.
// The final chunk has Done set and carries timing fields this client ignores.
type generateChunk struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// errorResponse is Ollama's error body shape.
type errorResponse struct {
	Error string `json:"error"`
}
