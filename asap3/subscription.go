package asap3

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/nasa-jpl/asap3/wire"
)

// MaxSubscriptionBatch is the largest number of parameters a single
// PARAMETER_FOR_VALUE_ACQUISITION_EV2 telegram may request in one call,
// matching the 50-parameter batching CtAsap3Client::StartSubscription
// uses to stay under the server's per-telegram payload limit.
const MaxSubscriptionBatch = 50

// emulatorLUN is the fixed logical unit number StartSubscription's reset
// and batch telegrams address, matching the original's "Emulator" LUN.
const emulatorLUN = 0

// StartSubscription configures the server to stream online values for
// every parameter in the Client's current parameter list at scanRate
// (milliseconds), replicating CtAsap3Client::StartSubscription: first a
// reset telegram with Measurements=0, then one telegram per batch of up
// to MaxSubscriptionBatch parameters, each naming its members as
// "Name N" with N the parameter's 1-based global index.
func (c *Client) StartSubscription(ctx context.Context, scanRate uint16) error {
	if c.SubscriptionLimiter != nil {
		if err := c.SubscriptionLimiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "subscription rate limit")
		}
	}

	params := c.Parameters()
	if len(params) == 0 {
		return errors.New("asap3: cannot start subscription with an empty parameter list")
	}

	reset := NewRequest(ParameterForValueAcquisitionEv2, wire.DataList{
		{Name: "LUN", Type: wire.Uint16, Value: uint16(emulatorLUN)},
		{Name: "Sample Rate", Type: wire.Uint16, Value: scanRate},
		{Name: "Measurements", Type: wire.Uint16, Value: uint16(0)},
	})
	if _, err := c.SendSync(ctx, reset); err != nil {
		return errors.Wrap(err, "reset subscription")
	}

	for offset := 0; offset < len(params); offset += MaxSubscriptionBatch {
		end := offset + MaxSubscriptionBatch
		if end > len(params) {
			end = len(params)
		}
		batch := params[offset:end]

		data := wire.DataList{
			{Name: "LUN", Type: wire.Uint16, Value: uint16(emulatorLUN)},
			{Name: "Sample Rate", Type: wire.Uint16, Value: scanRate},
			{Name: "Measurements", Type: wire.Uint16, Value: uint16(len(batch))},
		}
		for i, p := range batch {
			globalIndex := offset + i + 1
			data = append(data, wire.DataValue{
				Name:  fmt.Sprintf("Name %d", globalIndex),
				Type:  wire.String,
				Value: p.Name,
			})
		}

		req := NewRequest(ParameterForValueAcquisitionEv2, data)
		if _, err := c.SendSync(ctx, req); err != nil {
			return errors.Wrapf(err, "subscription batch starting at parameter %d", offset+1)
		}
	}

	return nil
}
