package oracle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pointake/internal/config"
	"pointake/internal/oracle"
	"pointake/internal/port"
	"pointake/mocks"
)

type namedGenerator struct {
	name  string
	model string
}

func (g *namedGenerator) Generate(context.Context, port.GenerateRequest) (*port.GenerateResponse, error) {
	return &port.GenerateResponse{Text: "[]", Model: g.name + "/" + g.model}, nil
}

func registerFake(name string) {
	oracle.RegisterProvider(name, func(cfg *config.OracleProviderConfig, model string) (port.Generator, error) {
		return &namedGenerator{name: cfg.Provider, model: model}, nil
	})
}

func TestNewGenerator_UnknownProvider(t *testing.T) {
	_, err := oracle.NewGenerator(&config.OracleProviderConfig{Provider: "nope"}, "m")
	assert.ErrorContains(t, err, "unknown oracle provider")
}

func TestNewChain_NoProviders(t *testing.T) {
	_, err := oracle.NewChain(&config.OracleConfig{}, oracle.PurposeExtraction, nil)
	assert.Error(t, err)
}

func TestNewChain_PurposeSelectsModel(t *testing.T) {
	registerFake("fake-purpose")
	cfg := &config.OracleConfig{
		Primary: config.OracleProviderConfig{
			Provider:        "fake-purpose",
			ExtractionModel: "big",
			MatchingModel:   "small",
		},
	}

	ext, err := oracle.NewChain(cfg, oracle.PurposeExtraction, nil)
	require.NoError(t, err)
	resp, err := ext.Generate(context.Background(), port.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fake-purpose/big", resp.Model)

	match, err := oracle.NewChain(cfg, oracle.PurposeMatching, nil)
	require.NoError(t, err)
	resp, err = match.Generate(context.Background(), port.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fake-purpose/small", resp.Model)
}

func TestNewChain_MatchingFallsBackToExtractionModel(t *testing.T) {
	registerFake("fake-single-model")
	cfg := &config.OracleConfig{
		Primary: config.OracleProviderConfig{Provider: "fake-single-model", ExtractionModel: "only"},
	}

	gen, err := oracle.NewChain(cfg, oracle.PurposeMatching, nil)
	require.NoError(t, err)
	resp, err := gen.Generate(context.Background(), port.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fake-single-model/only", resp.Model)
}

func TestNewChain_SecondaryProviderUsed(t *testing.T) {
	registerFake("fake-a")
	registerFake("fake-b")
	cfg := &config.OracleConfig{
		Primary:   config.OracleProviderConfig{Provider: "fake-a", ExtractionModel: "x"},
		Secondary: config.OracleProviderConfig{Provider: "fake-b", ExtractionModel: "y"},
	}

	gen, err := oracle.NewChain(cfg, oracle.PurposeExtraction, nil)
	require.NoError(t, err)
	resp, err := gen.Generate(context.Background(), port.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fake-a/x", resp.Model)
}

func TestNewChain_RetriesEachProviderBeforeFallingBack(t *testing.T) {
	primary, secondary := new(mocks.MockGenerator), new(mocks.MockGenerator)
	primary.On("Generate", mock.Anything, mock.Anything).
		Return(nil, oracle.NewError("flaky-a", 429, "", 0, errors.New("slow down"))).Once()
	primary.On("Generate", mock.Anything, mock.Anything).
		Return(&port.GenerateResponse{Text: "[]", Model: "flaky-a"}, nil)
	oracle.RegisterProvider("flaky-a", func(*config.OracleProviderConfig, string) (port.Generator, error) {
		return primary, nil
	})
	oracle.RegisterProvider("flaky-b", func(*config.OracleProviderConfig, string) (port.Generator, error) {
		return secondary, nil
	})
	cfg := &config.OracleConfig{
		Primary:        config.OracleProviderConfig{Provider: "flaky-a", ExtractionModel: "x"},
		Secondary:      config.OracleProviderConfig{Provider: "flaky-b", ExtractionModel: "y"},
		RetryBaseDelay: time.Millisecond,
		MaxRetries:     3,
	}

	gen, err := oracle.NewChain(cfg, oracle.PurposeExtraction, nil)
	require.NoError(t, err)
	resp, err := gen.Generate(context.Background(), port.GenerateRequest{})

	require.NoError(t, err)
	assert.Equal(t, "flaky-a", resp.Model)
	primary.AssertNumberOfCalls(t, "Generate", 2)
	secondary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
