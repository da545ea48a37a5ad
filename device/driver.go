package device

// Driver supplies everything device-specific to the protocol core:
// descriptor tables, vendor request handling, and application endpoint
// payloads. All methods are called from within [Stack.HandleReset] or
// [Stack.Task] and must not block.
//
// Descriptor methods return a [Buffer] so tables may live in either address
// space; returning the zero Buffer declines the request, and the core then
// stalls (or falls back to a built-in descriptor where one exists).
type Driver interface {
	// DeviceDescriptor returns the device descriptor. It must never
	// decline: the core reads bMaxPacketSize0 from it during bus reset.
	DeviceDescriptor() Buffer

	// ConfigurationDescriptor returns the configuration descriptor bundle
	// for the currently selected configuration. config is 0 before
	// SET_CONFIGURATION.
	ConfigurationDescriptor(config uint8) Buffer

	// StringDescriptor returns the string descriptor selected by the
	// GET_DESCRIPTOR wValue and wIndex. Declining index 0 yields the
	// built-in US English language table; declining the internal-serial
	// index yields the serial synthesized from the hardware identifier.
	StringDescriptor(value, index uint16) Buffer

	// VendorRequest handles a vendor-type setup packet. The handler may
	// run the data and status stages itself through [Stack.ControlIn] or
	// [Stack.ControlOut]; if it leaves the setup packet unconsumed the
	// core stalls the request.
	VendorRequest(req *SetupPacket)

	// ConfigureEndpoints activates the application endpoints for config,
	// typically by calling [Stack.ConfigureEndpoint] once per endpoint
	// descriptor in ascending number order. Called with config 0 to
	// deconfigure.
	ConfigureEndpoints(config uint8)

	// EndpointIn produces the next byte to transmit on IN endpoint ep.
	// first is true for the first byte of each packet.
	EndpointIn(ep uint8, first bool) byte

	// EndpointOut consumes a byte received on OUT endpoint ep.
	// first is true for the first byte of each packet.
	EndpointOut(ep uint8, b byte, first bool)
}
