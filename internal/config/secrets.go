package config

import "os"

// Secrets holds API keys sourced from the environment. A missing key simply
// disables the corresponding provider; it is never an error here.
type Secrets struct {
	OpenAIAPIKey     string
	OpenRouterAPIKey string
}

// LoadSecrets reads provider credentials from the environment
func LoadSecrets() Secrets {
	return Secrets{
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
	}
}
