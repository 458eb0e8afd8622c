package tmc5240

// Register addresses, TMC5240 datasheet rev 1.09.
const (
	RegGCONF         = 0x00
	RegGSTAT         = 0x01
	RegIFCNT         = 0x02
	RegIOIN          = 0x04
	RegDRVCONF       = 0x0A
	RegGlobalScaler  = 0x0B
	RegIHoldIRun     = 0x10
	RegTPowerDown    = 0x11
	RegTStep         = 0x12
	RegTPWMThrs      = 0x13
	RegRampMode      = 0x20
	RegXActual       = 0x21
	RegVActual       = 0x22
	RegVStart        = 0x23
	RegA1            = 0x24
	RegV1            = 0x25
	RegAMax          = 0x26
	RegVMax          = 0x27
	RegDMax          = 0x28
	RegTVMax         = 0x29
	RegD1            = 0x2A
	RegVStop         = 0x2B
	RegTZeroWait     = 0x2C
	RegXTarget       = 0x2D
	RegSWMode        = 0x34
	RegRampStat      = 0x35
	RegXLatch        = 0x36
	RegCHOPCONF      = 0x6C
	RegCOOLCONF      = 0x6D
	RegDrvStatus     = 0x6F
	RegPWMCONF       = 0x70
	RegisterAddrMask = 0x7F
	WriteBit         = 0x80
)

// GCONF bits
const (
	GConfRecalibrate    = 1 << 0
	GConfFastStandstill = 1 << 1
	GConfEnPWMMode      = 1 << 2
	GConfMultistepFilt  = 1 << 3
	GConfShaft          = 1 << 4
	GConfStopEnable     = 1 << 15
)

// RAMPMODE values
const (
	ModePosition    = 0
	ModeVelocityPos = 1
	ModeVelocityNeg = 2
	ModeHold        = 3
)

// RAMP_STAT bits
const (
	RampStatStopL           = 1 << 0
	RampStatStopR           = 1 << 1
	RampStatLatchL          = 1 << 2
	RampStatLatchR          = 1 << 3
	RampStatEventStopL      = 1 << 4
	RampStatEventStopR      = 1 << 5
	RampStatEventPosReached = 1 << 7
	RampStatVelocityReached = 1 << 8
	RampStatPositionReached = 1 << 9
	RampStatVZero           = 1 << 10
)

// SW_MODE bits
const (
	SWModeStopLEnable  = 1 << 0
	SWModeStopREnable  = 1 << 1
	SWModePolStopL     = 1 << 2
	SWModePolStopR     = 1 << 3
	SWModeLatchLActive = 1 << 5
	SWModeEnSoftStop   = 1 << 11
)

// DRV_STATUS bits
const (
	DrvStatusS2VSA  = 1 << 12
	DrvStatusS2VSB  = 1 << 13
	DrvStatusStall  = 1 << 24
	DrvStatusOT     = 1 << 25
	DrvStatusOTPW   = 1 << 26
	DrvStatusS2GA   = 1 << 27
	DrvStatusS2GB   = 1 << 28
	DrvStatusOLA    = 1 << 29
	DrvStatusOLB    = 1 << 30
	DrvStatusStst   = 1 << 31
	DrvStatusFaults = DrvStatusS2VSA | DrvStatusS2VSB | DrvStatusOT | DrvStatusS2GA | DrvStatusS2GB
)

// SPI status byte, returned as the first byte of every datagram.
const (
	SPIStatusResetFlag       = 1 << 0
	SPIStatusDriverError     = 1 << 1
	SPIStatusSG2             = 1 << 2
	SPIStatusStandstill      = 1 << 3
	SPIStatusVelocityReached = 1 << 4
	SPIStatusPositionReached = 1 << 5
	SPIStatusStopL           = 1 << 6
	SPIStatusStopR           = 1 << 7
)

// Bring-up values written by Init, tuned for the reference board.
const (
	DefaultGConf        = GConfMultistepFilt
	DefaultDrvConf      = 0x20
	DefaultGlobalScaler = 0
	DefaultIHoldIRun    = 0x00070A03
	DefaultTPowerDown   = 0x0A
	DefaultChopConf     = 0x10410153
	DefaultTVMax        = 0x0F8D
	DefaultVMax         = 0x2710
	DefaultAMax         = 0x0F8D
	DefaultDMax         = 0x0F8D
)
