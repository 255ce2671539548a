package hubctl

import "github.com/google/gousb"

// bmRequestType values
const (
	RequestTypeStandardIn = 0x80 // IN | standard | device
	RequestTypeHubIn      = 0xA0 // IN | class | device
	RequestTypePortOut    = 0x23 // OUT | class | other (hub port)
)

// bRequest values
const (
	RequestClearFeature  = 0x01
	RequestSetFeature    = 0x03
	RequestGetDescriptor = 0x06
)

// Descriptor types
const (
	DescTypeBOS           = 0x0F
	DescTypeDeviceCap     = 0x10
	DescTypeHub           = 0x29
	DescTypeSuperSpeedHub = 0x2A
)

// Hub port feature selectors
const (
	PortFeatPower = 8
)

// Device capability types found in a BOS descriptor
const (
	CapContainerID = 0x04
)

// Descriptor sizes
const (
	MinHubDescLen     = 9  // shortest hub descriptor accepted
	HubDescBufLen     = 71 // USB2 hub descriptor with 255 ports
	BOSHeaderLen      = 5
	ContainerIDCapLen = 20
	ContainerIDLen    = 16
)

// SuperSpeedSpec and above use the SuperSpeed hub descriptor
var SuperSpeedSpec = gousb.Version(3, 0)

// BOS fetch attempts: the first try plus one retry
const bosAttempts = 2
