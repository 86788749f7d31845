// internal/assemble/assembler.go

// Package assemble folds a finished dispatch run into the client response.
package assemble

import (
	"time"

	"listing-search/internal/common/logger"
	"listing-search/internal/dispatch"
	"listing-search/internal/markers"
	"listing-search/internal/models"
)

// Assembler merges narrative text, extracted blocks, and the tool call log
// into one response. It reshapes and trims but never invents: every block
// in the output came out of the model's narrative.
type Assembler struct {
	parser        *markers.Parser
	carouselLimit int
	logger        logger.Logger
}

func New(parser *markers.Parser, carouselLimit int, log logger.Logger) *Assembler {
	if carouselLimit <= 0 {
		carouselLimit = 10
	}
	return &Assembler{
		parser:        parser,
		carouselLimit: carouselLimit,
		logger:        log.With(map[string]interface{}{"component": "assembler"}),
	}
}

// abortedFallback is shown when a run times out before the model produced
// any narrative at all.
const abortedFallback = "I couldn't finish putting that answer together in time. Please try again, or narrow the request."

// Assemble builds the response for one completed (or aborted) run.
func (a *Assembler) Assemble(requestID string, outcome *dispatch.Outcome, started time.Time) *models.ChatResponse {
	parsed := a.parser.Parse(outcome.FinalText)
	if parsed.Text == "" && outcome.State == dispatch.StateAborted {
		parsed.Text = abortedFallback
	}

	response := &models.ChatResponse{
		Text:             parsed.Text,
		Listings:         a.trimCarousel(parsed.Carousel),
		MapView:          parsed.MapView,
		Articles:         parsed.Articles,
		MarketStats:      parsed.MarketStats,
		NeighborhoodLink: parsed.NeighborhoodLink,
		Metadata: models.ResponseMetadata{
			RequestID:  requestID,
			ToolCalls:  outcome.Records,
			Iterations: outcome.Iterations,
			ElapsedMs:  time.Since(started).Milliseconds(),
			State:      outcome.State,
		},
	}
	if response.Metadata.ToolCalls == nil {
		response.Metadata.ToolCalls = []models.ToolCallRecord{}
	}

	a.logger.Debug("response assembled", map[string]interface{}{
		"requestId":   requestID,
		"hasCarousel": response.Listings != nil,
		"hasMapView":  response.MapView != nil,
		"toolCalls":   len(response.Metadata.ToolCalls),
		"state":       outcome.State,
	})

	return response
}

// trimCarousel caps the carousel at the display limit. The model sees full
// result sets; the client card strip does not need more than a page.
func (a *Assembler) trimCarousel(block *models.CarouselBlock) *models.CarouselBlock {
	if block == nil {
		return nil
	}
	if len(block.Listings) > a.carouselLimit {
		block.Listings = block.Listings[:a.carouselLimit]
	}
	return block
}
