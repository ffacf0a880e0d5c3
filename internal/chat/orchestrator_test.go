package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrigenius/core/internal/errx"
	"github.com/agrigenius/core/internal/history"
	"github.com/agrigenius/core/internal/soil"
	"github.com/agrigenius/core/internal/weather"
)

type stubWeather struct {
	snap  weather.Snapshot
	err   error
	calls int
}

func (s *stubWeather) Name() string { return "stub-weather" }

func (s *stubWeather) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

// blockingWeather parks until the join cancels it, then reports the
// cancellation the way the real adapter does.
type blockingWeather struct{}

func (blockingWeather) Name() string { return "openweather" }

func (blockingWeather) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	<-ctx.Done()
	return weather.Snapshot{}, errx.Upstream("openweather", ctx.Err())
}

type stubSoil struct {
	snap  soil.Snapshot
	err   error
	calls int
}

func (s *stubSoil) Name() string { return "stub-soil" }

func (s *stubSoil) Estimate(ctx context.Context, loc weather.Location) (soil.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

// stubTranslator mirrors the adapter contract: same-language is a no-op,
// cross-language gets a visible marker.
type stubTranslator struct {
	calls int
}

func (s *stubTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to {
		return text, nil
	}
	s.calls++
	return fmt.Sprintf("[%s->%s] %s", from, to, text), nil
}

type stubGateway struct {
	answer     string
	err        error
	calls      int
	gotContext string
	gotQuery   string
}

func (s *stubGateway) Complete(ctx context.Context, systemContext, userQuestion string) (string, error) {
	s.calls++
	s.gotContext = systemContext
	s.gotQuery = userQuestion
	return s.answer, s.err
}

type failingStore struct {
	calls int
}

func (s *failingStore) Append(ctx context.Context, turn history.Turn) error {
	s.calls++
	return errors.New("datastore is down")
}

func puneWeather() weather.Snapshot {
	return weather.Snapshot{
		Current: weather.Current{
			Temperature: 28,
			Humidity:    60,
			Description: "clear sky",
			WindSpeed:   3,
		},
		Location: weather.LocationEcho{District: "Pune"},
	}
}

func puneSoil() soil.Snapshot {
	return soil.Snapshot{
		Soil: soil.Conditions{
			MoisturePercentage: 55,
			Temperature:        26,
			Status:             soil.StatusModerate,
		},
		Recommendation: "Soil moisture is at optimal levels for most crops.",
	}
}

func puneLocation() weather.Location {
	return weather.Location{Latitude: 18.52, Longitude: 73.86, District: "Pune"}
}

func TestAskRoundTripHindi(t *testing.T) {
	gateway := &stubGateway{answer: "Water your wheat early tomorrow morning."}
	translator := &stubTranslator{}
	store := history.NewMemoryStore()

	o := NewOrchestrator(&stubWeather{snap: puneWeather()}, &stubSoil{snap: puneSoil()}, translator, gateway, store)

	result, err := o.Ask(context.Background(), Request{
		Message:  "When should I water my wheat?",
		Language: "hi",
		Location: puneLocation(),
	})
	require.NoError(t, err)

	// The grounding context carries the district and both snapshots.
	for _, want := range []string{"Pune", "60%", "28", "clear sky", "55", "Moderate"} {
		assert.Contains(t, gateway.gotContext, want)
	}
	// The model saw the English rendering of the question.
	assert.Contains(t, gateway.gotContext, "[hi->en] When should I water my wheat?")
	assert.Equal(t, "[hi->en] When should I water my wheat?", gateway.gotQuery)

	// The caller gets the answer translated back to Hindi.
	assert.Equal(t, "[en->hi] Water your wheat early tomorrow morning.", result.Response)
	assert.Equal(t, 2, translator.calls)

	// Both snapshots ride along with the answer.
	assert.Equal(t, "Pune", result.Weather.Location.District)
	assert.Equal(t, 55.0, result.Soil.Soil.MoisturePercentage)

	// One turn is persisted with the full audit trail.
	o.Flush()
	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "When should I water my wheat?", turns[0].UserMessage)
	assert.Equal(t, "[hi->en] When should I water my wheat?", turns[0].TranslatedMessage)
	assert.Equal(t, "Water your wheat early tomorrow morning.", turns[0].LLMResponse)
	assert.Equal(t, "[en->hi] Water your wheat early tomorrow morning.", turns[0].TranslatedResponse)
	assert.Equal(t, history.SourceWeb, turns[0].Source)
	assert.NotEmpty(t, turns[0].ID)
}

func TestAskEnglishSkipsTranslation(t *testing.T) {
	gateway := &stubGateway{answer: "Irrigate at dusk."}
	translator := &stubTranslator{}
	store := history.NewMemoryStore()

	o := NewOrchestrator(&stubWeather{snap: puneWeather()}, &stubSoil{snap: puneSoil()}, translator, gateway, store)

	result, err := o.Ask(context.Background(), Request{
		Message:  "Should I irrigate today?",
		Language: "en",
		Location: puneLocation(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Irrigate at dusk.", result.Response)
	assert.Zero(t, translator.calls)

	o.Flush()
	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, turns[0].UserMessage, turns[0].TranslatedMessage)
	assert.Equal(t, turns[0].LLMResponse, turns[0].TranslatedResponse)
}

func TestAskEmptyMessage(t *testing.T) {
	weatherStub := &stubWeather{snap: puneWeather()}
	o := NewOrchestrator(weatherStub, &stubSoil{snap: puneSoil()}, &stubTranslator{}, &stubGateway{}, history.NewMemoryStore())

	_, err := o.Ask(context.Background(), Request{Message: "   ", Language: "en"})
	require.Error(t, err)

	var appErr *errx.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errx.KindBadRequest, appErr.Kind)
	assert.Zero(t, weatherStub.calls, "no upstream call for rejected input")
}

func TestAskWeatherFailureAbortsBeforeLLM(t *testing.T) {
	gateway := &stubGateway{}
	store := history.NewMemoryStore()
	weatherStub := &stubWeather{err: errx.Upstream("openweather", errors.New("status 500"))}

	o := NewOrchestrator(weatherStub, &stubSoil{snap: puneSoil()}, &stubTranslator{}, gateway, store)

	_, err := o.Ask(context.Background(), Request{
		Message:  "When should I water my wheat?",
		Language: "hi",
		Location: puneLocation(),
	})
	require.Error(t, err)

	var appErr *errx.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errx.KindUpstreamUnavailable, appErr.Kind)

	assert.Zero(t, gateway.calls, "gateway must not be called without context")
	o.Flush()
	assert.Empty(t, store.Turns(), "no partial persistence on failure")
}

func TestAskSoilFailureNotMaskedByCancelledWeather(t *testing.T) {
	gateway := &stubGateway{}
	store := history.NewMemoryStore()
	soilStub := &stubSoil{err: errx.InsufficientData("climate archive returned an empty series")}

	o := NewOrchestrator(blockingWeather{}, soilStub, &stubTranslator{}, gateway, store)

	_, err := o.Ask(context.Background(), Request{
		Message:  "When should I water my wheat?",
		Language: "en",
		Location: puneLocation(),
	})
	require.Error(t, err)

	// The soil failure is the root cause; the weather call only died because
	// the join cancelled it, and that side-effect must not be surfaced.
	var appErr *errx.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errx.KindInsufficientData, appErr.Kind)
	assert.NotContains(t, err.Error(), "openweather")

	assert.Zero(t, gateway.calls)
	o.Flush()
	assert.Empty(t, store.Turns())
}

func TestPickFetchError(t *testing.T) {
	soilErr := errx.Upstream("nasa-power", errors.New("status 502"))
	cancelled := errx.Upstream("openweather", context.Canceled)

	assert.Equal(t, soilErr, pickFetchError(nil, soilErr))
	assert.Equal(t, cancelled, pickFetchError(cancelled, nil))
	assert.Equal(t, soilErr, pickFetchError(cancelled, soilErr))
	assert.Equal(t, soilErr, pickFetchError(soilErr, errx.Upstream("nasa-power", context.Canceled)))

	// Two genuine failures: the weather error wins by position.
	weatherErr := errx.Upstream("openweather", errors.New("status 500"))
	assert.Equal(t, weatherErr, pickFetchError(weatherErr, soilErr))
}

func TestAskLLMFailureAborts(t *testing.T) {
	store := history.NewMemoryStore()
	gateway := &stubGateway{err: errx.LLM(errors.New("status 503"))}

	o := NewOrchestrator(&stubWeather{snap: puneWeather()}, &stubSoil{snap: puneSoil()}, &stubTranslator{}, gateway, store)

	_, err := o.Ask(context.Background(), Request{Message: "hello", Language: "en", Location: puneLocation()})
	require.Error(t, err)

	var appErr *errx.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errx.KindLLMUnavailable, appErr.Kind)

	o.Flush()
	assert.Empty(t, store.Turns())
}

func TestAskPersistenceFailureIsolated(t *testing.T) {
	store := &failingStore{}
	gateway := &stubGateway{answer: "Keep the field drained."}

	o := NewOrchestrator(&stubWeather{snap: puneWeather()}, &stubSoil{snap: puneSoil()}, &stubTranslator{}, gateway, store)

	result, err := o.Ask(context.Background(), Request{Message: "heavy rain tomorrow?", Language: "en", Location: puneLocation()})
	require.NoError(t, err, "a history failure must not fail the turn")
	assert.Equal(t, "Keep the field drained.", result.Response)

	o.Flush()
	assert.Equal(t, 1, store.calls)
}

func TestAskDefaultsToEnglish(t *testing.T) {
	translator := &stubTranslator{}
	o := NewOrchestrator(&stubWeather{snap: puneWeather()}, &stubSoil{snap: puneSoil()}, translator, &stubGateway{answer: "ok"}, history.NewMemoryStore())

	_, err := o.Ask(context.Background(), Request{Message: "hi there", Location: puneLocation()})
	require.NoError(t, err)
	assert.Zero(t, translator.calls)
	o.Flush()
}
