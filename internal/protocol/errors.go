package protocol

import "errors"

// Ошибки протокола. Все публичные операции возвращают одну из них (возможно обёрнутую).
var (
	ErrNotInitialized    = errors.New("protocol: socket not initialized")
	ErrSocketBind        = errors.New("protocol: socket bind failed")
	ErrNoResponse        = errors.New("protocol: no response")
	ErrMalformedResponse = errors.New("protocol: malformed response")
	ErrIndexOutOfRange   = errors.New("protocol: index out of range")
	ErrNotSelected       = errors.New("protocol: nothing selected")
	ErrRejected          = errors.New("protocol: request rejected by controller")
	ErrFrameTooLarge     = errors.New("protocol: frame exceeds point capacity")
	ErrRegistryFull      = errors.New("protocol: device registry full")
	ErrPortNotExternal   = errors.New("protocol: show port is not an external streaming port")
)
