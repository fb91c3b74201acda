package asap3

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/nasa-jpl/asap3/comm"
	"github.com/nasa-jpl/asap3/wire"
)

// invalidFloatSentinel is the original client's InvalidFloat marker: a
// NaN placeholder for a user-defined value DefineUserDefinedData has
// named but GET_USER_DEFINED_VALUE hasn't filled in yet.
var invalidFloatSentinel = float32(math.NaN())

// ClientName is advertised to the server in the IDENTIFY handshake.
const ClientName = "asap3-go"

// Client is the facade a program uses to talk to one ASAP3 server: it
// owns the Connection and Dispatcher goroutines, the online-value
// cache, and the service/identity state HandleTelegram maintains in
// the original implementation.
type Client struct {
	Host string
	Port uint16

	// Listener receives diagnostic and traffic logging; defaults to
	// NopListener if nil.
	Listener Listener

	// Dial overrides how the underlying Connection dials out; nil uses
	// the default backing-off TCP dialer resolved from Host:Port.
	Dial comm.CreationFunc

	// SubscriptionLimiter optionally rate-limits how often
	// StartSubscription may be reissued, guarding against a
	// misbehaving caller hammering the server with resubscribes. Nil
	// disables limiting.
	SubscriptionLimiter *rate.Limiter

	queue  *TelegramQueue
	writes chan []byte
	frames chan Frame

	mu            sync.Mutex
	remoteVersion uint16
	remoteName    string
	services      ServiceCatalog
	onlineValues  wire.DataList
	outputValues  wire.DataList
	userDefined   wire.DataList
	parameters    []A3Parameter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient returns a Client targeting host:port. Call Start before
// sending any request.
func NewClient(host string, port uint16) *Client {
	return &Client{
		Host:   host,
		Port:   port,
		queue:  NewTelegramQueue(),
		writes: make(chan []byte),
		frames: make(chan Frame),
	}
}

func (c *Client) listener() Listener {
	if c.Listener == nil {
		return NopListener{}
	}
	return c.Listener
}

// Start launches the Connection and Dispatcher goroutines and performs
// the INIT/IDENTIFY handshake followed by QUERY_AVAILABLE_SERVICE,
// matching StartMessageThread in the original client. It returns once
// those exchanges complete or ctx is canceled; a failed
// QUERY_AVAILABLE_SERVICE is logged, not returned.
func (c *Client) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	restart := make(chan struct{}, 1)

	conn := &Connection{
		Host:     c.Host,
		Port:     c.Port,
		Dial:     c.Dial,
		Frames:   c.frames,
		Writes:   c.writes,
		Listener: c.listener(),
		Restart:  restart,
	}

	dispatcher := &Dispatcher{
		Queue:      c.queue,
		Writes:     c.writes,
		Frames:     c.frames,
		Listener:   c.listener(),
		OnTelegram: c.handleTelegram,
		Restart:    restart,
	}

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		_ = conn.Run(runCtx)
	}()
	go func() {
		defer c.wg.Done()
		dispatcher.Run(runCtx)
	}()

	if _, err := c.SendSync(ctx, NewRequest(Init, nil)); err != nil {
		return errors.Wrap(err, "init handshake")
	}

	identify := NewRequest(Identify, wire.DataList{
		{Name: "Version", Type: wire.Uint16, Value: ProtocolVersion},
		{Name: "Name", Type: wire.String, Value: ClientName},
	})
	if _, err := c.SendSync(ctx, identify); err != nil {
		return errors.Wrap(err, "identify handshake")
	}

	if _, err := c.SendSync(ctx, NewRequest(QueryAvailableService, nil)); err != nil {
		c.listener().Outf(0, "query available service failed: %v", err)
	}

	return nil
}

// Stop enqueues EXIT, waits briefly for the queue to drain, then tears
// down the Connection and Dispatcher goroutines, matching Stop/
// StopMessageThread in the original client.
func (c *Client) Stop() {
	c.queue.Put(NewTelegram(NewRequest(Exit, nil), nil))

	deadline := time.After(5 * time.Second)
	for c.queue.Len() > 0 {
		select {
		case <-deadline:
			goto drained
		case <-time.After(10 * time.Millisecond):
		}
	}
drained:
	c.queue.Stop()
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// Send enqueues req and invokes done when it completes; done may be nil
// for fire-and-forget sends.
func (c *Client) Send(req Request, done OnComplete) {
	c.queue.Put(NewTelegram(req, done))
}

// SendSync enqueues req and blocks until it completes or ctx is
// canceled, returning the Response and an error if the server rejected
// the request or none arrived in time.
func (c *Client) SendSync(ctx context.Context, req Request) (Response, error) {
	result := make(chan *Telegram, 1)
	c.Send(req, func(ok bool, t *Telegram) {
		result <- t
	})

	select {
	case t := <-result:
		if t.Response == nil {
			return Response{}, errors.Errorf("%s: no response", req.Cmd())
		}
		if !t.Response.OK() {
			return *t.Response, errors.Errorf("%s: status %s", req.Cmd(), t.Response.Status())
		}
		return *t.Response, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// handleTelegram reacts to a completed Telegram's command, mirroring
// HandleTelegram in the original client: most commands are no-ops at
// this layer, but IDENTIFY, QUERY_AVAILABLE_SERVICE,
// GET_SERVICE_INFORMATION, GET_ONLINE_VALUE(_EV2),
// GET_USER_DEFINED_VALUE_LIST, and GET_USER_DEFINED_VALUE update cached
// client state.
func (c *Client) handleTelegram(t *Telegram) {
	if t.Response == nil || !t.Response.OK() {
		return
	}

	switch t.Request.Cmd() {
	case RepeatRequest, Init, Exit:
		// No client-side state to update.

	case Identify:
		c.mu.Lock()
		data := t.Response.DataList()
		if len(data) >= 2 {
			c.remoteVersion = wire.As[uint16](data[0])
			c.remoteName = wire.AsString(data[1])
		}
		c.mu.Unlock()

	case QueryAvailableService:
		names := serviceNamesFromResponse(*t.Response)
		c.mu.Lock()
		c.services.SetServiceList(names)
		c.mu.Unlock()

	case GetServiceInformation:
		name := t.Request.GetString(0)
		info := t.Response.GetString(0)
		c.mu.Lock()
		c.services.SetServiceInfo(name, info)
		c.mu.Unlock()

	case GetOnlineValue, GetOnlineValueEv2:
		c.SetOnlineData(rawPayload(t.Response), 0)

	case GetUserDefinedValueList:
		c.DefineUserDefinedData(t.Response.DataList())

	case GetUserDefinedValue:
		c.SetUserDefinedData(rawPayload(t.Response), 0)
	}
}

// rawPayload extracts the opaque bytes decodePayload stashes for
// GET_ONLINE_VALUE(_EV2) and GET_USER_DEFINED_VALUE, whose layout
// depends on the subscription's parameter list rather than any fixed
// schema the protocol layer knows.
func rawPayload(resp *Response) []byte {
	data := resp.DataList()
	if len(data) == 0 {
		return nil
	}
	raw, _ := data[0].Value.([]byte)
	return raw
}

// valueSchema returns the decode template SetOnlineData/SetOutputData
// apply to a raw online-value payload: one slot per parameter with the
// matching SetPoint flag, ordered by ValueIndex and typed per the
// parameter list, the layout the original client's subscription
// installs before GET_ONLINE_VALUE can be interpreted.
func valueSchema(params []A3Parameter, setPoint bool) wire.DataList {
	last := -1
	for _, p := range params {
		if p.Exist && p.SetPoint == setPoint && p.ValueIndex > last {
			last = p.ValueIndex
		}
	}
	if last < 0 {
		return nil
	}
	schema := make(wire.DataList, last+1)
	for i := range schema {
		schema[i] = wire.DataValue{Type: wire.Float32}
	}
	for _, p := range params {
		if p.Exist && p.SetPoint == setPoint {
			schema[p.ValueIndex] = wire.DataValue{Name: p.Name, Type: p.Type}
		}
	}
	return schema
}

// SetOnlineData decodes a raw GET_ONLINE_VALUE(_EV2) payload into
// online_values using the subscription's non-set-point parameters as the
// type layout, mirroring IClient::SetOnlineData in the original client.
func (c *Client) SetOnlineData(body []byte, offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onlineValues = wire.BodyToDataList(body, offset, valueSchema(c.parameters, false))
}

// SetOutputData decodes a raw payload into output_values the same way
// SetOnlineData does for online values, scoped to the subscription's
// set-point parameters. No response handled by handleTelegram targets
// output_values directly; it exists for IsSubscriptionInitialized's
// set-point branch, ready to be wired to a SET_PARAMETER-style response
// if a future subclass needs one.
func (c *Client) SetOutputData(body []byte, offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputValues = wire.BodyToDataList(body, offset, valueSchema(c.parameters, true))
}

// SetUserDefinedData decodes a raw GET_USER_DEFINED_VALUE payload against
// the schema DefineUserDefinedData most recently established, mirroring
// IClient::SetUserDefinedData.
func (c *Client) SetUserDefinedData(body []byte, offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userDefined = wire.BodyToDataList(body, offset, c.userDefined)
}

// DefineUserDefinedData rebuilds the user-defined cache from a decoded
// GET_USER_DEFINED_VALUE_LIST payload: a "Values" count followed by
// repeated LUN/Name pairs. Each name becomes a placeholder FLOAT32 entry
// seeded with a NaN sentinel, mirroring IClient::DefineUserDefinedData,
// which only learns a subscription's user-defined names here; real
// values arrive later via GET_USER_DEFINED_VALUE.
func (c *Client) DefineUserDefinedData(data wire.DataList) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(wire.DataList, 0, len(data)/2+1)
	if len(data) > 0 {
		out = append(out, data[0])
	}
	for i := 1; i+1 < len(data); i += 2 {
		name := wire.AsString(data[i+1])
		out = append(out, wire.DataValue{Name: name, Type: wire.Float32, Value: invalidFloatSentinel})
	}
	c.userDefined = out
}

// IsSubscriptionInitialized reports whether every existing parameter in
// the current subscription has a cached entry in online_values (or
// output_values, for set-point parameters) at its ValueIndex with a
// matching name, mirroring IClient::IsSubscriptionInitialized.
func (c *Client) IsSubscriptionInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return IsSubscriptionInitializedSplit(c.parameters, c.onlineValues, c.outputValues)
}

// serviceNamesFromResponse extracts the repeated "Service" entries a
// QUERY_AVAILABLE_SERVICE response carries after its "Services" count.
func serviceNamesFromResponse(resp Response) []string {
	data := resp.DataList()
	if len(data) == 0 {
		return nil
	}
	var names []string
	for _, dv := range data[1:] {
		if dv.Name == "Service" {
			names = append(names, wire.AsString(dv))
		}
	}
	return names
}

// RemoteVersion returns the protocol version the server reported in
// IDENTIFY.
func (c *Client) RemoteVersion() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteVersion
}

// RemoteName returns the server name reported in IDENTIFY.
func (c *Client) RemoteName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteName
}

// Services returns every service advertised by the server so far.
func (c *Client) Services() []Service {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.services.AvailableServices()
}

// HasService reports whether the server has advertised name.
func (c *Client) HasService(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.services.HasService(name)
}

// OnlineValues returns the most recently cached GET_ONLINE_VALUE(_EV2)
// payload.
func (c *Client) OnlineValues() wire.DataList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onlineValues
}

// OutputValues returns the most recently cached set-point value payload.
func (c *Client) OutputValues() wire.DataList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputValues
}

// UserDefinedValues returns the current user-defined value cache: names
// installed by GET_USER_DEFINED_VALUE_LIST, with values filled in by
// GET_USER_DEFINED_VALUE where available.
func (c *Client) UserDefinedValues() wire.DataList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userDefined
}

// Queue exposes the Client's Telegram queue so a Dispatcher can be
// wired to it directly, primarily for tests that need to run a
// Dispatcher without a live Connection.
func (c *Client) Queue() *TelegramQueue { return c.queue }

// Writes exposes the Client's outbound frame channel; see Queue.
func (c *Client) Writes() chan []byte { return c.writes }

// Frames exposes the Client's inbound frame channel; see Queue.
func (c *Client) Frames() chan Frame { return c.frames }

// ParameterList installs the subscription's parameter set, forcing
// Exist=true on every entry as ParameterList's setter does in the
// original client.
func (c *Client) ParameterList(params []A3Parameter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parameters = ForceExist(params)
}

// Parameters returns a copy of the currently configured parameter list.
func (c *Client) Parameters() []A3Parameter {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]A3Parameter, len(c.parameters))
	copy(out, c.parameters)
	return out
}
