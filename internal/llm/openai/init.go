package openai

import "github.com/vansh1925/NexPrep-v2/internal/llm"

// Register the OpenAI-compatible provider on package import
func init() {
	llm.RegisterProvider("openai", func() (llm.Provider, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config)
	})
}
