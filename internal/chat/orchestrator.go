package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agrigenius/core/internal/errx"
	"github.com/agrigenius/core/internal/history"
	"github.com/agrigenius/core/internal/llm"
	"github.com/agrigenius/core/internal/soil"
	"github.com/agrigenius/core/internal/translate"
	"github.com/agrigenius/core/internal/weather"
)

// baseLanguage is the language the model is prompted in. Inbound questions
// are translated into it, answers back out of it.
const baseLanguage = "en"

// persistTimeout bounds the detached history write so it cannot linger
// forever after the response has been returned.
const persistTimeout = 10 * time.Second

// Request is one farmer question.
type Request struct {
	Message  string           `json:"message"`
	Language string           `json:"language"`
	Location weather.Location `json:"location"`
}

// Result is the completed turn handed back to the caller.
type Result struct {
	Response string           `json:"response"`
	Weather  weather.Snapshot `json:"weather"`
	Soil     soil.Snapshot    `json:"soil"`
}

// Orchestrator sequences one conversational turn: fetch weather and soil
// concurrently, translate inbound text, assemble the grounding context, call
// the language model, translate the answer back, and persist the turn.
type Orchestrator struct {
	weather    weather.Provider
	soil       soil.Estimator
	translator translate.Translator
	gateway    llm.Gateway
	store      history.Store

	// outstanding detached history writes; Flush joins them.
	persisting sync.WaitGroup
}

func NewOrchestrator(
	weatherProvider weather.Provider,
	soilEstimator soil.Estimator,
	translator translate.Translator,
	gateway llm.Gateway,
	store history.Store,
) *Orchestrator {
	return &Orchestrator{
		weather:    weatherProvider,
		soil:       soilEstimator,
		translator: translator,
		gateway:    gateway,
		store:      store,
	}
}

// Ask runs one full turn. Any failure before the answer is computed aborts
// the turn with no partial persistence; a failed history write is logged and
// never surfaced.
func (o *Orchestrator) Ask(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Result{}, errx.BadRequest("message is required")
	}

	language := req.Language
	if language == "" {
		language = baseLanguage
	}

	log.Debug().Str("language", language).Str("district", req.Location.District).Msg("processing chat turn")

	weatherSnap, soilSnap, err := o.fetchContext(ctx, req.Location)
	if err != nil {
		return Result{}, err
	}

	// The translator's same-language rule makes this a no-op for English
	// questions, so no branching on language is needed here.
	translatedMessage, err := o.translator.Translate(ctx, req.Message, language, baseLanguage)
	if err != nil {
		return Result{}, err
	}

	grounding := AssembleContext(req.Location, weatherSnap, soilSnap, translatedMessage)

	answer, err := o.gateway.Complete(ctx, grounding, translatedMessage)
	if err != nil {
		return Result{}, err
	}

	translatedAnswer, err := o.translator.Translate(ctx, answer, baseLanguage, language)
	if err != nil {
		return Result{}, err
	}

	o.persist(history.Turn{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		UserMessage:        req.Message,
		TranslatedMessage:  translatedMessage,
		LLMResponse:        answer,
		TranslatedResponse: translatedAnswer,
		Weather:            weatherSnap,
		Soil:               soilSnap,
		Source:             history.SourceWeb,
	})

	return Result{
		Response: translatedAnswer,
		Weather:  weatherSnap,
		Soil:     soilSnap,
	}, nil
}

// fetchContext invokes the weather provider and soil estimator concurrently.
// The first failure cancels the slower call; no partial context is used.
func (o *Orchestrator) fetchContext(ctx context.Context, loc weather.Location) (weather.Snapshot, soil.Snapshot, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg          sync.WaitGroup
		weatherSnap weather.Snapshot
		soilSnap    soil.Snapshot
		weatherErr  error
		soilErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		weatherSnap, weatherErr = o.weather.Fetch(fetchCtx, loc)
		if weatherErr != nil {
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		soilSnap, soilErr = o.soil.Estimate(fetchCtx, loc)
		if soilErr != nil {
			cancel()
		}
	}()
	wg.Wait()

	if err := pickFetchError(weatherErr, soilErr); err != nil {
		return weather.Snapshot{}, soil.Snapshot{}, err
	}
	return weatherSnap, soilSnap, nil
}

// pickFetchError chooses which join error to surface. A fetch aborted by the
// sibling's cancel reports context.Canceled; that is a side-effect, not the
// root cause, so the other error wins whenever only one is a cancellation.
func pickFetchError(weatherErr, soilErr error) error {
	switch {
	case weatherErr == nil:
		return soilErr
	case soilErr == nil:
		return weatherErr
	case errors.Is(weatherErr, context.Canceled) && !errors.Is(soilErr, context.Canceled):
		return soilErr
	case errors.Is(soilErr, context.Canceled) && !errors.Is(weatherErr, context.Canceled):
		return weatherErr
	default:
		return weatherErr
	}
}

// persist writes the turn on a detached goroutine. The answer has already
// been computed, so a store failure must not fail the user-visible response.
func (o *Orchestrator) persist(turn history.Turn) {
	o.persisting.Add(1)
	go func() {
		defer o.persisting.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := o.store.Append(ctx, turn); err != nil {
			log.Error().Err(err).Str("turn_id", turn.ID).Msg("history write failed")
		}
	}()
}

// Flush waits for outstanding history writes. Called on shutdown and by tests.
func (o *Orchestrator) Flush() {
	o.persisting.Wait()
}
