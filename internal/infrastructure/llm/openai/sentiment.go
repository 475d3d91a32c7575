package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

var _ ports.SentimentClassifier = (*SentimentClassifier)(nil)

type SentimentClassifier struct {
	client *Client
}

func NewSentimentClassifier(client *Client) *SentimentClassifier {
	return &SentimentClassifier{client: client}
}

func (s *SentimentClassifier) Classify(ctx context.Context, comments string) (domain.SentimentVerdict, error) {
	messages := []chatMessage{
		{Role: "system", Content: sentimentSystemPrompt},
		{Role: "user", Content: buildSentimentPrompt(comments)},
	}
	content, err := s.client.completeJSON(ctx, "classify_sentiment", s.client.textModel, messages)
	if err != nil {
		return domain.SentimentVerdict{}, err
	}

	var verdict domain.SentimentVerdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return domain.SentimentVerdict{}, fmt.Errorf("%w: decode sentiment: %v", errMalformedOutput, err)
	}
	verdict.Sentiment = strings.ToLower(strings.TrimSpace(verdict.Sentiment))
	switch verdict.Sentiment {
	case "positive", "neutral", "negative":
	default:
		return domain.SentimentVerdict{}, fmt.Errorf("%w: unknown sentiment %q", errMalformedOutput, verdict.Sentiment)
	}
	return verdict, nil
}
