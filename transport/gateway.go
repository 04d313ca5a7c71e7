// Package transport implements the carrier-side collaborator. The
// simulated gateway stands in for a SIP/SMS provider during development;
// a production implementation satisfies the same contract and is chosen
// at startup, never inside the core.
package transport

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"unicomm/contract"
	"unicomm/domain"
)

var _ contract.TransportGateway = (*SimulatedGateway)(nil)

// SimulatedGateway accepts every dial and SMS and answers with a freshly
// generated reference. The references are opaque to the rest of the
// system, exactly like a real provider's would be.
type SimulatedGateway struct {
	log *slog.Logger
}

func NewSimulatedGateway(log *slog.Logger) *SimulatedGateway {
	return &SimulatedGateway{log: log}
}

func (g *SimulatedGateway) Dial(ctx context.Context, target string, callType domain.CallType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := uuid.NewString()
	g.log.Debug("Simulated trunk dial", "target", target, "type", callType, "ref", ref)
	return ref, nil
}

func (g *SimulatedGateway) SendSMS(ctx context.Context, number, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	receipt := uuid.NewString()
	g.log.Debug("Simulated SMS", "number", number, "bytes", len(text), "receipt", receipt)
	return receipt, nil
}
