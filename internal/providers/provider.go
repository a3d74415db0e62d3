// Package providers holds the external flight-offer APIs. Each provider
// returns raw payloads tagged with its source name; normalization happens
// downstream.
package providers

import (
	"context"

	"github.com/xin285109136/AutoTicket/internal/models"
)

type SearchQuery struct {
	Origin      string
	Destination string
	Date        string // YYYY-MM-DD
	Adults      int
	TripType    string
}

type Provider interface {
	Name() string
	Search(ctx context.Context, query SearchQuery) ([]models.RawOffer, error)
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}
