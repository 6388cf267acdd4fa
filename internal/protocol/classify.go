package protocol

// Inbound is the classified form of a decoded frame at the dispatch
// boundary. Exactly two concrete types implement it: StagingRequest and
// ApplicationMessage. Keeping the reserved-opcode rule behind a type switch
// means dispatch code cannot forget it.
type Inbound interface {
	inbound()
}

// StagingRequest is a frame carrying OpcodeSetReply. It is protocol-internal
// state and must never reach application callbacks or handlers. A staging
// frame with no payload is a defined no-op: HasTarget is false.
type StagingRequest struct {
	Target    byte
	HasTarget bool
}

func (StagingRequest) inbound() {}

// ApplicationMessage is any non-reserved frame, delivered to the general
// callback and the handler table.
type ApplicationMessage struct {
	Msg *Message
}

func (ApplicationMessage) inbound() {}

// ClassifyInbound sorts a decoded message into the staging or application
// branch. Staging payloads longer than one byte use byte 0 and ignore the
// rest.
func ClassifyInbound(msg *Message) Inbound {
	if msg.Opcode == OpcodeSetReply {
		if msg.DataLen == 0 {
			return StagingRequest{}
		}
		return StagingRequest{Target: msg.Data[0], HasTarget: true}
	}
	return ApplicationMessage{Msg: msg}
}
