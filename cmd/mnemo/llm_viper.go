package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/lunateq/mnemo/providers/openai"
)

func llmEndpointFromViper() string {
	return firstNonEmpty(viper.GetString("llm.endpoint"), "https://api.openai.com/v1")
}

func llmAPIKeyFromViper() string {
	return strings.TrimSpace(viper.GetString("llm.api_key"))
}

// llmFallbackModelFromViper is the process-wide default at the bottom of
// the user → guild → fallback preference chain.
func llmFallbackModelFromViper() string {
	return firstNonEmpty(viper.GetString("llm.model"), "gpt-4o-mini")
}

func llmClientFromViper() *openai.Client {
	return openai.New(llmEndpointFromViper(), llmAPIKeyFromViper())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
