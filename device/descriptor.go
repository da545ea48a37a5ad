package device

import (
	"encoding/binary"

	"github.com/tinystack/usbd/device/hal"
)

// USB descriptor types (USB 2.0 Spec Table 9-5).
const (
	DescriptorTypeDevice        = 0x01
	DescriptorTypeConfiguration = 0x02
	DescriptorTypeString        = 0x03
	DescriptorTypeInterface     = 0x04
	DescriptorTypeEndpoint      = 0x05
)

// Standard descriptor sizes in bytes.
const (
	DeviceDescriptorSize        = 18
	ConfigurationDescriptorSize = 9
	EndpointDescriptorSize      = 7
)

// LangIDUSEnglish is the USB language identifier for US English.
const LangIDUSEnglish = 0x0409

// Field offsets within marshaled descriptors that the core reads back at
// run time.
const (
	deviceDescMaxPacketSize0Offset  = 7 // bMaxPacketSize0 in device descriptor
	configDescTotalLengthOffset     = 2 // wTotalLength in configuration descriptor
	endpointDescAddressOffset       = 2 // bEndpointAddress in endpoint descriptor
	endpointDescAttributesOffset    = 3 // bmAttributes in endpoint descriptor
	endpointDescMaxPacketSizeOffset = 4 // wMaxPacketSize in endpoint descriptor
)

// DeviceDescriptor represents a USB device descriptor (USB 2.0 Table 9-8).
type DeviceDescriptor struct {
	USBVersion     uint16 // bcdUSB: USB spec release (BCD)
	DeviceClass    uint8  // bDeviceClass
	DeviceSubClass uint8  // bDeviceSubClass
	DeviceProtocol uint8  // bDeviceProtocol
	MaxPacketSize0 uint8  // bMaxPacketSize0: endpoint 0 max packet size
	VendorID       uint16 // idVendor
	ProductID      uint16 // idProduct
	DeviceVersion  uint16 // bcdDevice: device release (BCD)
	Manufacturer   uint8  // iManufacturer: string index
	Product        uint8  // iProduct: string index
	SerialNumber   uint8  // iSerialNumber: string index
	Configurations uint8  // bNumConfigurations
}

// MarshalTo serializes the descriptor into buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *DeviceDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < DeviceDescriptorSize {
		return 0
	}
	buf[0] = DeviceDescriptorSize
	buf[1] = DescriptorTypeDevice
	binary.LittleEndian.PutUint16(buf[2:4], d.USBVersion)
	buf[4] = d.DeviceClass
	buf[5] = d.DeviceSubClass
	buf[6] = d.DeviceProtocol
	buf[7] = d.MaxPacketSize0
	binary.LittleEndian.PutUint16(buf[8:10], d.VendorID)
	binary.LittleEndian.PutUint16(buf[10:12], d.ProductID)
	binary.LittleEndian.PutUint16(buf[12:14], d.DeviceVersion)
	buf[14] = d.Manufacturer
	buf[15] = d.Product
	buf[16] = d.SerialNumber
	buf[17] = d.Configurations
	return DeviceDescriptorSize
}

// ConfigurationDescriptor represents a USB configuration descriptor header
// (USB 2.0 Table 9-10). TotalLength covers the full bundle including the
// interface and endpoint descriptors that follow.
type ConfigurationDescriptor struct {
	TotalLength   uint16 // wTotalLength: full bundle size
	NumInterfaces uint8  // bNumInterfaces
	Value         uint8  // bConfigurationValue
	Configuration uint8  // iConfiguration: string index
	Attributes    uint8  // bmAttributes
	MaxPower      uint8  // bMaxPower: units of 2 mA
}

// MarshalTo serializes the descriptor header into buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *ConfigurationDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < ConfigurationDescriptorSize {
		return 0
	}
	buf[0] = ConfigurationDescriptorSize
	buf[1] = DescriptorTypeConfiguration
	binary.LittleEndian.PutUint16(buf[2:4], d.TotalLength)
	buf[4] = d.NumInterfaces
	buf[5] = d.Value
	buf[6] = d.Configuration
	buf[7] = d.Attributes
	buf[8] = d.MaxPower
	return ConfigurationDescriptorSize
}

// EndpointDescriptor represents a USB endpoint descriptor (USB 2.0
// Table 9-13).
type EndpointDescriptor struct {
	Address       uint8  // bEndpointAddress: number and direction bit
	Attributes    uint8  // bmAttributes: transfer type
	MaxPacketSize uint16 // wMaxPacketSize
	Interval      uint8  // bInterval: polling interval
}

// MarshalTo serializes the descriptor into buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *EndpointDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < EndpointDescriptorSize {
		return 0
	}
	buf[0] = EndpointDescriptorSize
	buf[1] = DescriptorTypeEndpoint
	buf[2] = d.Address
	buf[3] = d.Attributes
	binary.LittleEndian.PutUint16(buf[4:6], d.MaxPacketSize)
	buf[6] = d.Interval
	return EndpointDescriptorSize
}

// StringDescriptorTo encodes s as a USB string descriptor (UTF-16LE code
// units after a 2-byte header) into buf. Characters outside the BMP are not
// supported and are replaced. Returns the number of bytes written, or 0 if
// buf is too small.
func StringDescriptorTo(buf []byte, s string) int {
	runes := []rune(s)
	size := 2 + 2*len(runes)
	if size > 0xFF || len(buf) < size {
		return 0
	}
	buf[0] = uint8(size)
	buf[1] = DescriptorTypeString
	for i, r := range runes {
		if r > 0xFFFF {
			r = '?'
		}
		binary.LittleEndian.PutUint16(buf[2+2*i:], uint16(r))
	}
	return size
}

// LanguageDescriptorTo encodes the string descriptor at index 0, the list of
// supported language identifiers, into buf. Returns the number of bytes
// written, or 0 if buf is too small.
func LanguageDescriptorTo(buf []byte, langs ...uint16) int {
	size := 2 + 2*len(langs)
	if size > 0xFF || len(buf) < size {
		return 0
	}
	buf[0] = uint8(size)
	buf[1] = DescriptorTypeString
	for i, l := range langs {
		binary.LittleEndian.PutUint16(buf[2+2*i:], l)
	}
	return size
}

// defaultLanguages is returned for string index 0 when the Driver declines
// it. US English only.
var defaultLanguages = Flash([]byte{4, DescriptorTypeString, 0x09, 0x04})

// SerialDescriptorSize is the size of the synthesized serial-number string
// descriptor: a 2-byte header plus two hex digits per hardware ID byte,
// each digit a UTF-16LE code unit.
const SerialDescriptorSize = 2 + hal.HardwareIDSize*4

const hexDigits = "0123456789abcdef"

// serialDescriptor renders the hardware identifier as a lowercase-hex USB
// string descriptor into out.
func serialDescriptor(out *[SerialDescriptorSize]byte, id [hal.HardwareIDSize]byte) {
	out[0] = SerialDescriptorSize
	out[1] = DescriptorTypeString
	for i, b := range id {
		out[2+4*i] = hexDigits[b>>4]
		out[3+4*i] = 0
		out[4+4*i] = hexDigits[b&0x0F]
		out[5+4*i] = 0
	}
}
