package openai_tools

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const fallbackEncoding = "cl100k_base"

var (
	encodingsMu sync.Mutex
	encodings   = make(map[string]*tiktoken.Tiktoken)
)

// CountToken estimates the prompt size of messages the way the chat endpoint
// bills it: per message overhead, role, content and name, plus the reply primer.
func CountToken(messages []openai.ChatCompletionMessage, model string) (int, error) {
	tkm, err := encodingFor(model)
	if err != nil {
		return 0, err
	}

	tokensPerMessage, tokensPerName := 3, 1
	if strings.HasPrefix(model, "gpt-3.5-turbo-0301") {
		tokensPerMessage, tokensPerName = 4, -1
	}

	numTokens := 0
	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		numTokens += len(tkm.Encode(message.Role, nil, nil))
		if message.Name != "" {
			numTokens += len(tkm.Encode(message.Name, nil, nil))
			numTokens += tokensPerName
		}
	}
	numTokens += 3
	return numTokens, nil
}

func encodingFor(model string) (*tiktoken.Tiktoken, error) {
	encodingsMu.Lock()
	defer encodingsMu.Unlock()

	if tkm, ok := encodings[model]; ok {
		return tkm, nil
	}
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding for model %s: %w", model, err)
		}
	}
	encodings[model] = tkm
	return tkm, nil
}
