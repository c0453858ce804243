// Package autoreply generates the assistant side of a ticket conversation:
// a deterministic keyword-overlap responder over the published knowledge
// base, and a phrase detector for hand-off requests.
package autoreply

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
)

// minKeywordScore is the precision floor: a single keyword hit is too weak
// a signal to cite a specific article.
const minKeywordScore = 2

// keywordMinLength excludes short words ("it", "the", "pay") that cause
// false matches; this trades recall for precision.
const keywordMinLength = 3

const genericResponse = "Thanks for reaching out! A member of our team will review your message. " +
	"If you need immediate help, just ask to speak to an agent."

var topicResponses = map[domain.TicketTopic]string{
	domain.TopicBilling:   "Thanks for your billing question. Most invoice and payment topics are covered in your account's billing page; we'll follow up shortly.",
	domain.TopicTechnical: "Thanks for reporting this. Please include any error messages you see; an engineer will look into it.",
	domain.TopicAccount:   "Thanks for your account question. For sign-in or profile issues, double-check the email on file; we'll get back to you soon.",
	domain.TopicShipping:  "Thanks for asking about your order. Tracking details are usually in your confirmation email; we'll check on this for you.",
	domain.TopicGeneral:   "Thanks for getting in touch! We'll get back to you as soon as we can.",
}

// ArticleSource supplies the published corpus for scoring.
type ArticleSource interface {
	ListPublished(ctx context.Context) ([]domain.Article, error)
}

// Responder turns a customer message into the assistant's reply text.
type Responder struct {
	articles ArticleSource
	logger   *zap.Logger
}

// NewResponder constructs the responder.
func NewResponder(articles ArticleSource, logger *zap.Logger) *Responder {
	return &Responder{articles: articles, logger: logger}
}

// Respond produces reply text for a customer message. It is deterministic
// and never fails: a broken auto-reply must never block ticket creation, so
// corpus errors degrade to the topic or generic fallback.
func (r *Responder) Respond(ctx context.Context, message string, topic domain.TicketTopic) string {
	if best, ok := r.bestArticle(ctx, message); ok {
		return fmt.Sprintf(
			"It sounds like our article %q (under %s) might help. "+
				"Take a look, and reply here if you still need a hand.",
			best.Title, best.Category)
	}
	if canned, ok := topicResponses[topic]; ok {
		return canned
	}
	return genericResponse
}

func (r *Responder) bestArticle(ctx context.Context, message string) (domain.Article, bool) {
	words := keywords(message)
	if len(words) == 0 {
		return domain.Article{}, false
	}

	articles, err := r.articles.ListPublished(ctx)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("article corpus unavailable, falling back", zap.Error(err))
		}
		return domain.Article{}, false
	}

	var best domain.Article
	bestScore := 0
	for _, article := range articles {
		haystack := strings.ToLower(article.Title + " " + article.Description)
		score := 0
		for _, word := range words {
			// Substring containment is intentional: "cart" matches
			// "carton". Token-boundary matching would change behavior.
			if strings.Contains(haystack, word) {
				score++
			}
		}
		// Strictly greater keeps the first-seen article on ties.
		if score > bestScore {
			bestScore = score
			best = article
		}
	}

	if bestScore < minKeywordScore {
		return domain.Article{}, false
	}
	return best, true
}

// keywords lowercases the message and keeps words longer than
// keywordMinLength runes.
func keywords(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	result := make([]string, 0, len(fields))
	for _, field := range fields {
		if len([]rune(field)) > keywordMinLength {
			result = append(result, field)
		}
	}
	return result
}
