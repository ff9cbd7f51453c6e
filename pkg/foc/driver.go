package foc

// Driver talks to one FOC device on a Bus.
//
// A Driver is a single-writer resource: it must not be used from
// multiple goroutines without external locking. Each call is exactly
// one bus transaction and is never retried.
type Driver struct {
	bus      Bus
	addr     uint8
	registry *Registry
}

// NewDriver creates a Driver using the default registry.
func NewDriver(bus Bus, addr uint8) *Driver {
	return NewDriverWithRegistry(bus, addr, DefaultRegistry())
}

// NewDriverWithRegistry creates a Driver with a specific registry.
func NewDriverWithRegistry(bus Bus, addr uint8, registry *Registry) *Driver {
	return &Driver{bus: bus, addr: addr, registry: registry}
}

// Addr returns the device address.
func (d *Driver) Addr() uint8 {
	return d.addr
}

// Registry returns the command registry.
func (d *Driver) Registry() *Registry {
	return d.registry
}

// WriteCommand sends cmd without reading a response.
func (d *Driver) WriteCommand(cmd Command) error {
	if err := d.bus.Write(d.addr, EncodeCommand(cmd)); err != nil {
		return &TransportError{Op: ErrWrite, Addr: d.addr, ID: cmd.ID, Err: err}
	}
	return nil
}

// ReadPassive reads whatever the device last prepared.
// The returned id is not validated.
func (d *Driver) ReadPassive() (Response, error) {
	var buf [ReadBufferSize]byte
	if err := d.bus.Read(d.addr, buf[:]); err != nil {
		return Response{}, &TransportError{Op: ErrRead, Addr: d.addr, Err: err}
	}
	return DecodeResponse(d.addr, buf[:])
}

// Exchange requests id and reads the response. The response must echo
// id, otherwise a *MatchError is returned and the payload dropped.
func (d *Driver) Exchange(id CommandID) (Response, error) {
	var buf [ExchangeFrameSize]byte
	if err := d.bus.WriteRead(d.addr, []byte{byte(id)}, buf[:]); err != nil {
		return Response{}, &TransportError{Op: ErrWriteRead, Addr: d.addr, ID: id, Err: err}
	}
	if received := CommandID(buf[0]); received != id {
		return Response{}, &MatchError{Requested: id, Received: received}
	}
	return DecodeResponse(d.addr, buf[:])
}

// ReadStream exchanges the telemetry stream registered as name.
func (d *Driver) ReadStream(name string) (Response, error) {
	id := d.registry.Resolve(name)
	if id.Kind() != TxExchange {
		return Response{}, &UnknownCommandError{Name: name}
	}
	return d.Exchange(id)
}

// ReadStreamQ reads the stream_q telemetry.
func (d *Driver) ReadStreamQ() (Response, error) {
	return d.Exchange(d.registry.Resolve(KeyStreamQ))
}

// ReadStreamCurrent reads the stream_current telemetry.
func (d *Driver) ReadStreamCurrent() (Response, error) {
	return d.Exchange(d.registry.Resolve(KeyStreamCurrent))
}

// ReadStreamStates reads the stream_states telemetry.
func (d *Driver) ReadStreamStates() (Response, error) {
	return d.Exchange(d.registry.Resolve(KeyStreamStates))
}

// ReadStreamTime reads the stream_time telemetry.
func (d *Driver) ReadStreamTime() (Response, error) {
	return d.Exchange(d.registry.Resolve(KeyStreamTime))
}

// Dispatch routes cmd by the band of its id:
// writes return an empty placeholder, exchanges return the device
// response, local ids echo the value in First without bus I/O, and
// UnknownCommand returns the placeholder untouched.
func (d *Driver) Dispatch(cmd Command) (Response, error) {
	resp := Response{Addr: d.addr}
	switch cmd.ID.Kind() {
	case TxWrite:
		if err := d.WriteCommand(cmd); err != nil {
			return Response{}, err
		}
	case TxExchange:
		return d.Exchange(cmd.ID)
	case TxLocalEcho:
		resp.First = cmd.Value
	}
	return resp, nil
}

// DispatchKey resolves the key and dispatches the command.
// Unknown keys resolve to UnknownCommand and do nothing.
func (d *Driver) DispatchKey(kc KeyCommand) (Response, error) {
	return d.Dispatch(Command{ID: d.registry.Resolve(kc.Key), Value: kc.Value})
}
