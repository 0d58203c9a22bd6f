// Package resolver maps extracted customer names and delivery addresses onto the
// customer directory: a lexical search narrows candidates and the oracle picks one.
package resolver

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"pointake/internal/domain"
	"pointake/internal/port"
)

// CustomerPicker disambiguates directory candidates. An empty result means no match.
type CustomerPicker interface {
	PickCustomer(ctx context.Context, name string, candidates []domain.Customer) (string, error)
	PickShipTo(ctx context.Context, address string, shipTo map[string]string) (string, error)
}

var searchToken = regexp.MustCompile(`[A-Za-z0-9]+`)

// Resolver derives soldTo, shipTo and salesOrg for extracted lines.
type Resolver struct {
	directory port.CustomerDirectory
	picker    CustomerPicker
	logger    *zap.Logger
}

// New creates a Resolver.
func New(directory port.CustomerDirectory, picker CustomerPicker, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{directory: directory, picker: picker, logger: logger}
}

// Resolve returns the resolution for line. It never fails: directory and oracle
// errors are logged and whatever was determined before the failure is returned.
// Safe for concurrent use with a shared Caches.
func (r *Resolver) Resolve(ctx context.Context, line domain.ExtractedLine, caches *Caches) domain.Resolution {
	var res domain.Resolution
	name := strings.TrimSpace(line.CustomerName)
	if name == "" {
		return res
	}

	entry, err := r.soldTo(ctx, name, caches)
	if err != nil {
		r.absorb(&domain.ResolutionError{Stage: "sold-to", Customer: name, Err: err})
		return res
	}
	if entry.id == "" {
		return res
	}
	res.SoldTo = entry.id

	record := findCandidate(entry.candidates, entry.id)
	if record == nil {
		return res
	}
	res.SalesOrg = record.SalesOrg

	address := strings.TrimSpace(line.DeliveryAddress)
	if address == "" || len(record.ShipTo) == 0 {
		return res
	}
	code, err := r.shipTo(ctx, entry.id, address, record.ShipTo, caches)
	if err != nil {
		r.absorb(&domain.ResolutionError{Stage: "ship-to", Customer: name, Err: err})
		return res
	}
	res.ShipTo = code
	return res
}

func (r *Resolver) soldTo(ctx context.Context, name string, caches *Caches) (soldToEntry, error) {
	key := soldToKey(name)
	if e, ok := caches.getSoldTo(key); ok {
		return e, nil
	}

	v, err, _ := caches.flight.Do("sold:"+key, func() (any, error) {
		if e, ok := caches.getSoldTo(key); ok {
			return e, nil
		}
		token := searchToken.FindString(name)
		if token == "" {
			return soldToEntry{}, nil
		}
		candidates, err := r.directory.Search(ctx, token, domain.SearchUnbounded)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			r.logger.Debug("resolver.Resolver.soldTo: no candidates",
				zap.String("customer", name), zap.String("token", token))
			return soldToEntry{}, nil
		}
		id, err := r.picker.PickCustomer(ctx, name, candidates)
		if err != nil {
			return nil, err
		}
		e := soldToEntry{id: id, candidates: candidates}
		if id == "" {
			return e, nil
		}
		return caches.putSoldTo(key, e), nil
	})
	if err != nil {
		return soldToEntry{}, err
	}
	return v.(soldToEntry), nil
}

func (r *Resolver) shipTo(ctx context.Context, customerID, address string, options map[string]string, caches *Caches) (string, error) {
	key := shipToKey(customerID, address)
	if code, ok := caches.getShipTo(key); ok {
		return code, nil
	}

	v, err, _ := caches.flight.Do("ship:"+key, func() (any, error) {
		if code, ok := caches.getShipTo(key); ok {
			return code, nil
		}
		code, err := r.picker.PickShipTo(ctx, address, options)
		if err != nil {
			return nil, err
		}
		if code == "" {
			return "", nil
		}
		return caches.putShipTo(key, code), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) absorb(err *domain.ResolutionError) {
	r.logger.Warn("resolver.Resolver.Resolve: resolution failed, continuing",
		zap.String("stage", err.Stage), zap.String("customer", err.Customer), zap.Error(err.Err))
}

func findCandidate(candidates []domain.Customer, id string) *domain.Customer {
	for i := range candidates {
		if candidates[i].MatchesID(id) {
			return &candidates[i]
		}
	}
	return nil
}
