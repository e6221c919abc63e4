package file

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// envBinding maps an environment variable onto config keys.
type envBinding struct {
	env  string
	keys []string
}

var envBindings = []envBinding{
	{env: "OPENAI_API_KEY", keys: []string{"embedding.api_key", "llm.api_key"}},
	{env: "OPENAI_BASE_URL", keys: []string{"embedding.base_url", "llm.base_url"}},
	{env: "EMBEDDING_MODEL", keys: []string{"embedding.model"}},
	{env: "LLM_MODEL", keys: []string{"llm.model"}},
	{env: "RAGCHAT_DATABASE_URL", keys: []string{"storage.postgres_dsn"}},
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides config values from environment variables for this process.
// OpenAI variables apply to providers configured as openai; ANTHROPIC_API_KEY
// applies to an anthropic LLM.
func ApplyEnv(store driven.ConfigStore, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, b := range envBindings {
		val, ok := lookup(b.env)
		if !ok || val == "" {
			continue
		}
		for _, key := range b.keys {
			if !appliesTo(store, b.env, key) {
				continue
			}
			store.Override(key, val)
		}
	}

	if val, ok := lookup("ANTHROPIC_API_KEY"); ok && val != "" &&
		store.GetString("llm.provider") == string(domain.AIProviderAnthropic) {
		store.Override("llm.api_key", val)
	}
}

// appliesTo keeps OpenAI credentials away from providers that are not OpenAI.
// An unset provider means the default, which is openai.
func appliesTo(store driven.ConfigStore, env, key string) bool {
	if env != "OPENAI_API_KEY" && env != "OPENAI_BASE_URL" {
		return true
	}
	section := "llm"
	if strings.HasPrefix(key, "embedding.") {
		section = "embedding"
	}
	provider := store.GetString(section + ".provider")
	return provider == "" || provider == string(domain.AIProviderOpenAI)
}
