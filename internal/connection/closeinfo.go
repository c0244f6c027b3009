package connection

import (
	"errors"

	"github.com/gorilla/websocket"
)

// CloseInfo maps a transport error to the close code and reason to record.
// Close frames keep their own code; a stale heartbeat maps to CloseStale and
// every other failure to CloseAbnormal.
func CloseInfo(err error) (code int, reason string) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		reason = ce.Text
		if reason == "" {
			reason = closeCodeText(ce.Code)
		}
		return ce.Code, reason
	}

	if errors.Is(err, ErrStaleConnection) {
		return CloseStale, "stale connection"
	}

	return CloseAbnormal, "abnormal closure"
}

func closeCodeText(code int) string {
	switch code {
	case websocket.CloseNormalClosure:
		return "normal closure"
	case websocket.CloseGoingAway:
		return "going away"
	case websocket.CloseProtocolError:
		return "protocol error"
	case websocket.CloseUnsupportedData:
		return "unsupported data"
	case websocket.CloseNoStatusReceived:
		return "no status received"
	case websocket.CloseAbnormalClosure:
		return "abnormal closure"
	case websocket.CloseInvalidFramePayloadData:
		return "invalid payload data"
	case websocket.ClosePolicyViolation:
		return "policy violation"
	case websocket.CloseMessageTooBig:
		return "message too big"
	case websocket.CloseMandatoryExtension:
		return "mandatory extension"
	case websocket.CloseInternalServerErr:
		return "internal server error"
	case websocket.CloseServiceRestart:
		return "service restart"
	case websocket.CloseTryAgainLater:
		return "try again later"
	case websocket.CloseTLSHandshake:
		return "tls handshake"
	default:
		return ""
	}
}
