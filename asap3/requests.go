package asap3

import (
	"context"

	"github.com/nasa-jpl/asap3/wire"
)

// GetServiceInformation fetches and caches the free-text info string for
// the named service, matching GET_SERVICE_INFORMATION in the original
// client. The server is expected to have already advertised name via a
// prior QUERY_AVAILABLE_SERVICE.
func (c *Client) GetServiceInformation(ctx context.Context, name string) (string, error) {
	req := NewRequest(GetServiceInformation, wire.DataList{
		{Name: "Service", Type: wire.String, Value: name},
	})
	resp, err := c.SendSync(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.GetString(0), nil
}

// GetOnlineValue fetches the current value of the subscribed parameter
// identified by lun, caching the raw response for OnlineValues callers.
func (c *Client) GetOnlineValue(ctx context.Context, lun uint16) (Response, error) {
	req := NewRequest(GetOnlineValueEv2, wire.DataList{
		{Name: "LUN", Type: wire.Uint16, Value: lun},
	})
	return c.SendSync(ctx, req)
}

// SetParameter writes value to the set-point parameter identified by
// lun, matching SET_PARAMETER_EV2.
func (c *Client) SetParameter(ctx context.Context, lun uint16, value float32) error {
	req := NewRequest(SetParameterEv2, wire.DataList{
		{Name: "LUN", Type: wire.Uint16, Value: lun},
		{Name: "Value", Type: wire.Float32, Value: value},
	})
	_, err := c.SendSync(ctx, req)
	return err
}
